// Package http serves the FinWise web pages and JSON API.
package http

import (
	"context"
	"errors"
	"html/template"
	"io/fs"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"finwise/internal/auth"
	"finwise/internal/log"
	"finwise/internal/middleware/ratelimit"
	"finwise/internal/middleware/security"
	"finwise/internal/middleware/trace"
	"finwise/internal/services"
	appweb "finwise/web"
)

// Pinger reports whether the backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Deps are the collaborators the server is wired with at startup.
type Deps struct {
	Accounts     *services.AccountService
	Transactions *services.TransactionService
	Settings     *services.SettingsService
	Auth         *auth.Authenticator
	Store        Pinger
	Logger       *log.Logger

	// Detector resolves client IPs; nil trusts only loopback and private
	// networks.
	Detector *security.Detector
	// RateLimitPerMinute applies to POST /login and POST /signup.
	RateLimitPerMinute int
	// CORSAllowedOrigins enables CORS on /api when non-empty.
	CORSAllowedOrigins []string
	// Now defaults to time.Now.
	Now func() time.Time
}

type Server struct {
	http.Server
	deps      Deps
	logger    *log.Logger
	templates map[string]*template.Template
	limiter   *ratelimit.Limiter
	detector  *security.Detector
	tracer    *trace.Middleware
	now       func() time.Time

	shutdownOnce sync.Once
}

// NewServer parses the embedded templates and builds the router.
func NewServer(addr string, deps Deps) (*Server, error) {
	if deps.Accounts == nil || deps.Transactions == nil || deps.Settings == nil || deps.Auth == nil || deps.Store == nil {
		return nil, errors.New("http: incomplete dependencies")
	}
	if deps.Logger == nil {
		deps.Logger = log.New(log.DefaultConfig())
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	detector := deps.Detector
	if detector == nil {
		var err error
		if detector, err = security.NewDetector(); err != nil {
			return nil, err
		}
	}

	templates, err := parseTemplates()
	if err != nil {
		return nil, err
	}

	logger := deps.Logger.WithComponent(log.ComponentHTTP)
	s := &Server{
		deps:      deps,
		logger:    logger,
		templates: templates,
		limiter:   ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: deps.RateLimitPerMinute}),
		detector:  detector,
		tracer:    trace.NewMiddleware(logger, detector.ExtractClientIP),
		now:       deps.Now,
	}
	s.Server = http.Server{
		Addr:              addr,
		Handler:           s.routes(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
		MaxHeaderBytes:    1 << 16,
	}
	return s, nil
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(s.tracer.Middleware)
	r.Use(middleware.Recoverer)
	r.Use(s.detector.Middleware)
	r.Use(security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware)
	r.NotFound(s.handleNotFound)

	if sub, err := fs.Sub(appweb.StaticFS, "static"); err == nil {
		static := http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
		r.Handle("/static/*", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Cache-Control", "public, max-age=3600")
			static.ServeHTTP(w, r)
		}))
	} else {
		s.logger.Warn("Failed to mount embedded static FS", log.FieldError, err)
	}

	r.Get("/healthz", handleHealth)
	r.Get("/readyz", s.handleReady)
	r.Get("/", s.handleIndex)

	limited := s.limiter.Middleware(s.detector.ExtractClientIP, s.handleRateLimited)
	r.Group(func(r chi.Router) {
		r.Use(log.ComponentMiddleware(log.ComponentAuth))
		r.Get("/login", s.handleLoginForm)
		r.With(limited).Post("/login", s.handleLogin)
		r.Get("/signup", s.handleSignupForm)
		r.With(limited).Post("/signup", s.handleSignup)
	})

	r.Group(func(r chi.Router) {
		r.Use(s.deps.Auth.RequireUser)
		r.Use(security.NoStore)

		r.Get("/logout", s.handleLogout)
		r.Get("/dashboard", s.handleDashboard)
		r.Get("/expenses", s.handleExpenses)
		r.Post("/expenses", s.handleCreateExpense)
		r.Post("/expenses/delete/{id}", s.handleDeleteExpense)
		r.Get("/learn", s.handleLearn)
		r.Get("/settings", s.handleSettings)
		r.Post("/settings", s.handleUpdateSettings)
		r.Get("/export_data", s.handleExport)

		r.Route("/api", func(api chi.Router) {
			if len(s.deps.CORSAllowedOrigins) > 0 {
				api.Use(cors.Handler(cors.Options{
					AllowedOrigins:   s.deps.CORSAllowedOrigins,
					AllowedMethods:   []string{http.MethodGet, http.MethodOptions},
					AllowedHeaders:   []string{"Accept", "Content-Type"},
					AllowCredentials: true,
					MaxAge:           300,
				}))
			}
			api.Get("/transactions", s.handleAPITransactions)
			api.Get("/dashboard_data", s.handleAPIDashboardData)
		})
	})

	return r
}

// Shutdown stops the rate limiter and drains the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.limiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("ok"))
}

// readiness is the /readyz body: store status plus the middleware counters.
type readiness struct {
	Status             string `json:"status"`
	Requests           int64  `json:"requests"`
	ServerErrors       int64  `json:"server_errors"`
	SuspiciousRequests int64  `json:"suspicious_requests"`
	RateLimited        int64  `json:"rate_limited"`
	RateLimitClients   int64  `json:"rate_limit_clients"`
}

func (s *Server) readiness(status string) readiness {
	traced := s.tracer.GetMetrics()
	limited := s.limiter.GetMetrics()
	return readiness{
		Status:             status,
		Requests:           traced.TotalRequests,
		ServerErrors:       traced.ServerErrors,
		SuspiciousRequests: s.detector.GetMetrics().SuspiciousRequests,
		RateLimited:        limited.Rejected,
		RateLimitClients:   limited.ClientCount,
	}
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := s.deps.Store.Ping(ctx); err != nil {
		log.FromContext(r.Context()).WarnContext(r.Context(), "Readiness check failed",
			log.FieldError, err,
			log.FieldErrorType, log.ErrorTypeDatabase)
		s.writeJSON(w, r, http.StatusServiceUnavailable, s.readiness("store unavailable"))
		return
	}
	s.writeJSON(w, r, http.StatusOK, s.readiness("ready"))
}
