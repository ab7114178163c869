// Package api provides the HTTP API for PlumeView.
package api

import (
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/plumeview/plumeview/internal/api/handler"
	"github.com/plumeview/plumeview/internal/api/middleware"
	"github.com/plumeview/plumeview/internal/session"
)

// RouterConfig holds configuration for the router.
type RouterConfig struct {
	Version string
	Logger  zerolog.Logger
	Metrics *middleware.Metrics
	Session *session.Session

	// Status supplies extra ops status fields. Optional.
	Status handler.StatusFunc
}

// NewRouter creates a chi router with all API routes configured.
func NewRouter(cfg RouterConfig) *chi.Mux {
	r := chi.NewRouter()

	// Global middleware - order matters
	r.Use(middleware.RequestID)
	if cfg.Metrics != nil {
		r.Use(cfg.Metrics.Middleware())
	}
	r.Use(middleware.Logger(cfg.Logger))
	r.Use(middleware.Recovery(cfg.Logger))
	r.Use(chimiddleware.RealIP)

	opsHandler := handler.NewOpsHandler(cfg.Version, cfg.Session, cfg.Status)
	layersHandler := handler.NewLayersHandler(cfg.Session)
	playbackHandler := handler.NewPlaybackHandler(cfg.Session)

	expensiveRateLimit := middleware.RateLimitByIP(middleware.ExpensiveRateLimit)
	standardRateLimit := middleware.RateLimitByIP(middleware.StandardRateLimit)

	r.Route("/v1", func(r chi.Router) {
		r.Route("/ops", func(r chi.Router) {
			r.Get("/health", opsHandler.HealthCheck)
			r.Get("/status", opsHandler.SystemStatus)
		})

		r.Route("/layers", func(r chi.Router) {
			r.Use(standardRateLimit)
			r.Get("/", layersHandler.ListLayers)
			r.Put("/sources/view-mode", layersHandler.SetViewMode)
			r.Route("/{layer}", func(r chi.Router) {
				r.With(expensiveRateLimit).Get("/overlay.png", layersHandler.GetOverlay)
				r.Get("/markers", layersHandler.GetMarkers)
				r.Put("/visibility", layersHandler.SetVisibility)
			})
		})

		r.Route("/playback", func(r chi.Router) {
			r.Use(standardRateLimit)
			r.Get("/", playbackHandler.GetState)
			r.Put("/timestep", playbackHandler.SetTimestep)
			r.Post("/play", playbackHandler.Play)
			r.Post("/pause", playbackHandler.Pause)
			r.Post("/next", playbackHandler.Next)
			r.Post("/previous", playbackHandler.Previous)
		})
	})

	return r
}
