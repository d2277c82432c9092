package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	apperrors "hotparts/internal/errors"
	"hotparts/internal/infrastructure"
	"hotparts/internal/middleware"
)

// RouterConfig collects the collaborators mounted by NewRouter. Optional
// handlers left nil are not mounted.
type RouterConfig struct {
	Logger       *slog.Logger
	ErrorHandler *apperrors.ErrorHandler

	Health    HealthServiceInterface
	Query     QueryServiceInterface
	Rescanner Rescanner
	Exporter  Exporter

	WebSocket http.Handler
	Metrics   http.Handler
	OTel      *middleware.OTelMiddleware

	AllowedOrigins []string
	RateLimiter    *middleware.RateLimiter
}

// NewRouter builds the chi router of the query API
func NewRouter(cfg RouterConfig) chi.Router {
	logger := cfg.Logger
	if logger == nil {
		logger = infrastructure.GetLogger()
	}
	errorHandler := cfg.ErrorHandler
	if errorHandler == nil {
		errorHandler = apperrors.NewErrorHandler(logger, false)
	}

	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	if cfg.OTel != nil {
		r.Use(cfg.OTel.Handler)
	}
	r.Use(middleware.StructuredLogger(logger))
	r.Use(middleware.Recoverer(errorHandler))
	r.Use(middleware.SecurityHeaders)
	r.Use(middleware.CORS(middleware.CORSConfig{AllowedOrigins: cfg.AllowedOrigins}))
	r.Use(middleware.StripSlashes)

	r.NotFound(errorHandler.NotFound)
	r.MethodNotAllowed(errorHandler.MethodNotAllowed)

	if cfg.Metrics != nil {
		r.Handle("/metrics", cfg.Metrics)
	}
	if cfg.WebSocket != nil {
		r.Handle("/ws", cfg.WebSocket)
	}

	r.Route("/api", func(r chi.Router) {
		r.Use(render.SetContentType(render.ContentTypeJSON))

		if cfg.Health != nil {
			health := NewHealthHandler(cfg.Health, logger)
			r.Get("/health", health.HealthCheck)
			r.Get("/health/ready", health.ReadinessCheck)
			r.Get("/health/live", health.LivenessCheck)
			r.Get("/version", health.Version)
		}

		r.Group(func(r chi.Router) {
			if cfg.RateLimiter != nil {
				r.Use(cfg.RateLimiter.Handler)
			}
			if cfg.Query != nil {
				NewQueryHandler(cfg.Query, logger, errorHandler).RegisterRoutes(r)
			}
			NewOperationsHandler(cfg.Rescanner, cfg.Exporter, logger, errorHandler).RegisterRoutes(r)
		})
	})

	return r
}
