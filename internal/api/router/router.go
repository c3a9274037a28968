package router

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/wolfman30/woundlens-ai/internal/http/handlers"
	httpmiddleware "github.com/wolfman30/woundlens-ai/internal/http/middleware"
	"github.com/wolfman30/woundlens-ai/pkg/logging"
)

// Config holds router configuration
type Config struct {
	Logger             *logging.Logger
	Analysis           *handlers.AnalysisHandler
	MetricsHandler     http.Handler
	CORSAllowedOrigins []string

	// APIKey, when set, is required on every /analysis route.
	APIKey string

	// Per-client rate limiting for /analysis. Zero disables it.
	RateLimit float64
	RateBurst int

	// RequestTimeout bounds each /analysis request. Zero disables it.
	RequestTimeout time.Duration

	// Stop ends background goroutines owned by the middleware.
	Stop <-chan struct{}
}

// New creates a new Chi router with all routes configured
func New(cfg *Config) http.Handler {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	if len(cfg.CORSAllowedOrigins) > 0 {
		r.Use(httpmiddleware.CORS(cfg.CORSAllowedOrigins))
	}
	if cfg.Logger != nil {
		r.Use(httpmiddleware.RequestLogger(cfg.Logger))
	}

	// Public endpoints
	r.Group(func(public chi.Router) {
		public.Get("/health", cfg.Analysis.Health)
		if cfg.MetricsHandler != nil {
			public.Handle("/metrics", cfg.MetricsHandler)
		}
	})

	r.Route("/analysis", func(api chi.Router) {
		api.Use(requireAPIKey(cfg.APIKey))
		api.Use(httpmiddleware.RateLimit(cfg.RateLimit, cfg.RateBurst, cfg.Stop))
		if cfg.RequestTimeout > 0 {
			api.Use(middleware.Timeout(cfg.RequestTimeout))
		}
		api.Post("/initial", cfg.Analysis.Initial)
		api.Post("/expand-treatment-plan", cfg.Analysis.ExpandTreatmentPlan)
		api.Post("/revise-products", cfg.Analysis.ReviseProducts)
		api.Post("/healing-progress", cfg.Analysis.HealingProgress)
	})

	return r
}
