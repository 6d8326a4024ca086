package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config holds all environment-driven settings for the server.
type Config struct {
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	Port        string `env:"PORT" envDefault:"8080"`
	DBPath      string `env:"DB_PATH" envDefault:"./leaddesk.db"`

	// Remote lead API
	LeadAPIBaseURL   string        `env:"LEAD_API_BASE_URL" envDefault:"http://localhost:5000"`
	LeadAPITimeout   time.Duration `env:"LEAD_API_TIMEOUT" envDefault:"15s"`
	LeadAPIRateLimit float64       `env:"LEAD_API_RATE_LIMIT" envDefault:"10"` // requests per second, 0 = unlimited
	LeadAPIBurst     int           `env:"LEAD_API_BURST" envDefault:"5"`

	PageSize        int           `env:"PAGE_SIZE" envDefault:"20"`
	Timezone        string        `env:"TIMEZONE" envDefault:"Local"`
	BrowserIdle     time.Duration `env:"BROWSER_IDLE" envDefault:"1h"`
	ProposalTimeout time.Duration `env:"PROPOSAL_TIMEOUT" envDefault:"30s"`

	// Sessions
	AuthProvider  string        `env:"AUTH_PROVIDER" envDefault:"local"`
	EncryptionKey string        `env:"ENCRYPTION_KEY"`
	SessionTTL    time.Duration `env:"SESSION_TTL" envDefault:"24h"`
	CaptchaTTL    time.Duration `env:"CAPTCHA_TTL" envDefault:"5m"`
	PurgeSchedule string        `env:"PURGE_SCHEDULE" envDefault:"@every 10m"`

	// Firebase (AUTH_PROVIDER=firebase)
	FirebaseProjectID         string `env:"FIREBASE_PROJECT_ID"`
	FirebaseCredentialsJSON   string `env:"FIREBASE_SERVICE_ACCOUNT_JSON"`
	FirebaseCredentialsBase64 string `env:"FIREBASE_SERVICE_ACCOUNT_BASE64"`

	// Page cache; disabled when RedisAddr is empty
	RedisAddr     string        `env:"REDIS_ADDR"`
	RedisPassword string        `env:"REDIS_PASSWORD"`
	RedisDB       int           `env:"REDIS_DB" envDefault:"0"`
	CacheTTL      time.Duration `env:"CACHE_TTL" envDefault:"30s"`

	CORSAllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" envSeparator:","`

	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"text"`
	LogFile   string `env:"LOG_FILE"`
}

// Load reads configuration from the environment, after loading an optional .env file.
func Load() (*Config, error) {
	if path := os.Getenv("ENV_FILE"); path != "" {
		if err := godotenv.Load(path); err != nil {
			return nil, fmt.Errorf("failed to load env file %s: %w", path, err)
		}
	} else {
		_ = godotenv.Load()
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.PageSize < 1 {
		return fmt.Errorf("PAGE_SIZE must be positive, got %d", c.PageSize)
	}
	switch c.AuthProvider {
	case "local", "firebase":
	default:
		return fmt.Errorf("unknown AUTH_PROVIDER %q", c.AuthProvider)
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	return nil
}

// IsDevelopment is true for any environment other than production
func (c *Config) IsDevelopment() bool {
	return !strings.EqualFold(c.Environment, "production")
}

// Location resolves Timezone, which names the zone that day boundaries are computed in.
func (c *Config) Location() (*time.Location, error) {
	if c.Timezone == "" || strings.EqualFold(c.Timezone, "local") {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid TIMEZONE %q: %w", c.Timezone, err)
	}
	return loc, nil
}

// Addr is the listen address for the HTTP server.
func (c *Config) Addr() string {
	return ":" + c.Port
}
