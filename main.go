package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"leaddesk/backend/api"
	"leaddesk/backend/cache"
	"leaddesk/backend/config"
	"leaddesk/backend/database"
	"leaddesk/backend/handlers"
	"leaddesk/backend/leadapi"
	"leaddesk/backend/logger"
	"leaddesk/backend/middleware"
	"leaddesk/backend/models"
	"leaddesk/backend/security"
	"leaddesk/backend/services"
)

func main() {
	migrateOnly := flag.Bool("migrate-only", false, "Apply database migrations and exit")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("Failed to load configuration: %v", err)
	}
	logger.Init(logger.Options{Level: cfg.LogLevel, Format: cfg.LogFormat, File: cfg.LogFile})
	log := logger.For("main")

	if cfg.IsDevelopment() {
		log.Info("Running in development environment")
	}

	loc, err := cfg.Location()
	if err != nil {
		log.Fatal(err)
	}

	// Initialize database
	if err := database.InitDB(cfg.DBPath); err != nil {
		log.WithError(err).Fatal("Failed to initialize database")
	}
	defer database.Close()

	if *migrateOnly {
		log.Info("Migrations completed successfully. Exiting.")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client := leadapi.New(leadapi.Options{
		BaseURL:   cfg.LeadAPIBaseURL,
		Timeout:   cfg.LeadAPITimeout,
		RateLimit: cfg.LeadAPIRateLimit,
		Burst:     cfg.LeadAPIBurst,
		Location:  loc,
	})

	purgers := map[string]services.Purger{}
	registry := handlers.NewRegistry(cfg.BrowserIdle)
	purgers["browsers"] = registry

	var (
		provider    middleware.SessionProvider
		authHandler *handlers.AuthHandler
	)
	switch cfg.AuthProvider {
	case models.AuthProviderFirebase:
		fb, err := middleware.NewFirebaseProvider(ctx, middleware.FirebaseOptions{
			ProjectID:         cfg.FirebaseProjectID,
			CredentialsJSON:   cfg.FirebaseCredentialsJSON,
			CredentialsBase64: cfg.FirebaseCredentialsBase64,
		})
		if err != nil {
			log.WithError(err).Fatal("Failed to initialize Firebase")
		}
		provider = fb
	default:
		key := cfg.EncryptionKey
		if key == "" && cfg.IsDevelopment() {
			log.Warn("ENCRYPTION_KEY not set, using a default key. This is NOT secure for production!")
			key = "default-key-for-development-only"
		}
		cipher, err := security.NewCipher(key)
		if err != nil {
			log.WithError(err).Fatal("Failed to initialize token encryption")
		}

		sessions := services.NewSessionStore(database.DB, cipher, cfg.SessionTTL)
		captchas := services.NewCaptchaStore(cfg.CaptchaTTL)
		provider = sessions
		authHandler = handlers.NewAuthHandler(client, captchas, sessions, registry)
		purgers["sessions"] = sessions
		purgers["captchas"] = services.CaptchaPurger(captchas)
	}

	var pageCache *cache.PageCache
	if cfg.RedisAddr != "" {
		rdb, err := cache.Connect(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			log.WithError(err).Warn("Redis unavailable, lead page cache disabled")
		} else {
			defer rdb.Close()
			pageCache = cache.NewPageCache(rdb, cfg.CacheTTL)
			log.WithField("addr", cfg.RedisAddr).Info("Lead page cache enabled")
		}
	}

	filters := services.NewFilterStore(database.DB)
	leads := handlers.NewLeadHandler(handlers.LeadHandlerConfig{
		NewAPI:          func(token string) handlers.LeadAPI { return client.WithToken(token) },
		Registry:        registry,
		Filters:         filters,
		Cache:           pageCache,
		PageSize:        cfg.PageSize,
		Location:        loc,
		ProposalTimeout: cfg.ProposalTimeout,
	})

	scheduler, err := services.StartScheduler(cfg.PurgeSchedule, purgers)
	if err != nil {
		log.WithError(err).Fatal("Failed to start scheduler")
	}
	defer scheduler.Stop()

	server := api.NewServer(api.Options{
		DB:             database.DB,
		Sessions:       provider,
		Auth:           authHandler,
		Leads:          leads,
		Filters:        handlers.NewFilterHandler(filters),
		AllowedOrigins: cfg.CORSAllowedOrigins,
		Development:    cfg.IsDevelopment(),
	})

	srv := &http.Server{
		Handler:      server.Handler(),
		Addr:         cfg.Addr(),
		WriteTimeout: 15 * time.Second,
		ReadTimeout:  15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.WithFields(logrus.Fields{"addr": srv.Addr, "auth": cfg.AuthProvider}).Info("Starting server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("Server failed")
		}
	}()

	<-ctx.Done()
	log.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("Graceful shutdown failed")
	}
	leads.WaitProposals()
}
