package api

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/jmoiron/sqlx"

	"leaddesk/backend/handlers"
	"leaddesk/backend/middleware"
	"leaddesk/backend/models"
)

// Server holds the handlers and builds the router.
type Server struct {
	db       *sqlx.DB
	router   *mux.Router
	sessions middleware.SessionProvider
	auth     *handlers.AuthHandler
	leads    *handlers.LeadHandler
	filters  *handlers.FilterHandler
	cors     func(http.Handler) http.Handler
}

// Options wires a Server. Auth and Filters may be nil, which leaves their routes out.
type Options struct {
	DB             *sqlx.DB
	Sessions       middleware.SessionProvider
	Auth           *handlers.AuthHandler
	Leads          *handlers.LeadHandler
	Filters        *handlers.FilterHandler
	AllowedOrigins []string
	Development    bool
}

// NewServer creates a server with all routes registered, directly and under /api.
func NewServer(opts Options) *Server {
	s := &Server{
		db:       opts.DB,
		router:   mux.NewRouter(),
		sessions: opts.Sessions,
		auth:     opts.Auth,
		leads:    opts.Leads,
		filters:  opts.Filters,
		cors:     middleware.CORS(opts.AllowedOrigins, opts.Development),
	}

	// Register routes with both direct paths and /api prefix to maintain compatibility
	s.RegisterRoutes(s.router)
	s.RegisterRoutes(s.router.PathPrefix("/api").Subrouter())
	return s
}

// RegisterRoutes sets up all routes on r.
func (s *Server) RegisterRoutes(r *mux.Router) {
	// Public routes (no auth required)
	r.HandleFunc("/health", handlers.Health(s.db)).Methods("GET")
	if s.auth != nil {
		r.HandleFunc("/captcha", s.auth.GetCaptcha).Methods("GET")
		r.HandleFunc("/login", s.auth.Login).Methods("POST")
	}

	protected := r.PathPrefix("").Subrouter()
	protected.Use(middleware.RequireSession(s.sessions))

	if s.auth != nil {
		protected.HandleFunc("/logout", s.auth.Logout).Methods("POST")
	}

	if s.filters != nil {
		protected.HandleFunc("/filters", s.filters.GetSavedFilters).Methods("GET")
		protected.HandleFunc("/filters", s.filters.CreateSavedFilter).Methods("POST")
		protected.HandleFunc("/filters/{id}", s.filters.GetSavedFilter).Methods("GET")
		protected.HandleFunc("/filters/{id}", s.filters.UpdateSavedFilter).Methods("PUT")
		protected.HandleFunc("/filters/{id}", s.filters.DeleteSavedFilter).Methods("DELETE")
	}

	// Lead routes are limited to the roles that own leads
	leads := protected.PathPrefix("/leads/{subjectId}").Subrouter()
	leads.Use(middleware.RequireRole(models.LeadRoles...))
	leads.HandleFunc("", s.leads.GetLeads).Methods("GET")
	leads.HandleFunc("/page/{page:[0-9]+}", s.leads.GoToPage).Methods("POST")
	leads.HandleFunc("/next", s.leads.NextPage).Methods("POST")
	leads.HandleFunc("/prev", s.leads.PrevPage).Methods("POST")
	leads.HandleFunc("/records/{id}", s.leads.UpdateRecord).Methods("PATCH")
	leads.HandleFunc("/records/{id}/proposal", s.leads.SendProposal).Methods("POST")
	leads.HandleFunc("/records/{id}/clipboard", s.leads.CopyRecord).Methods("GET")
}

// Handler returns the HTTP handler for the API server. CORS wraps the router so
// preflight requests are answered for every path.
func (s *Server) Handler() http.Handler {
	return s.cors(s.router)
}
