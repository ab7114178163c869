// Package main provides the entrypoint for the PlumeView rendering
// service. It loads the unified forecast document, builds the rendering
// session, and serves overlays and playback control over HTTP.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/plumeview/plumeview/internal/api"
	"github.com/plumeview/plumeview/internal/api/middleware"
	"github.com/plumeview/plumeview/internal/ingest"
	"github.com/plumeview/plumeview/internal/session"
	"github.com/plumeview/plumeview/internal/telemetry"
	"github.com/plumeview/plumeview/internal/viz"
)

// Version is set at compile time via ldflags.
var Version = "dev"

func main() {
	const serviceName = "plumeview-vizd"

	log := zerolog.New(os.Stdout).
		With().
		Timestamp().
		Str("service", serviceName).
		Str("version", Version).
		Logger()

	log.Info().Msg("starting PlumeView rendering service")

	port := envOr("APP_PORT", "8080")
	env := envOr("APP_ENV", "development")
	dataSource := envOr("FORECAST_SOURCE", "output/unified_forecast.json")
	reloadInterval := envDuration("FORECAST_RELOAD_INTERVAL", time.Hour, log)
	zoom := envInt("MAP_ZOOM", 3, log)

	ctx := context.Background()

	tp, err := telemetry.Init(ctx, telemetry.Config{
		ServiceName:    serviceName,
		ServiceVersion: Version,
		Environment:    env,
		OTLPEndpoint:   envOr("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
		Enabled:        os.Getenv("OTEL_ENABLED") == "true",
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize telemetry")
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if shutdownErr := tp.Shutdown(shutdownCtx); shutdownErr != nil {
			log.Error().Err(shutdownErr).Msg("failed to shutdown telemetry")
		}
	}()

	httpMetrics, err := middleware.NewMetrics()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize HTTP metrics")
	}
	renderMetrics, err := session.NewMetrics()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize render metrics")
	}

	// Load the forecast document the backend published.
	loader := ingest.NewLoader(nil)
	dataset, err := loader.Load(ctx, dataSource)
	if err != nil {
		log.Fatal().Err(err).Str("source", dataSource).Msg("failed to load forecast document")
	}
	log.Info().
		Int("timesteps", len(dataset.Timesteps)).
		Int("sources", len(dataset.PollutionSources.Sources)).
		Msg("forecast document loaded")

	surface := viz.NewMemorySurface(zoom)
	sess := session.New(session.Config{
		Surface: surface,
		Dataset: dataset,
		Metrics: renderMetrics,
		Logger:  log,
	})

	// Keep the session current as the backend publishes new cycles.
	reloadCtx, cancelReload := context.WithCancel(ctx)
	defer cancelReload()
	reloader := ingest.NewReloader(ingest.ReloaderConfig{
		Source:   dataSource,
		Interval: reloadInterval,
		Logger:   log,
	}, loader, sess)
	go reloader.Run(reloadCtx)

	router := api.NewRouter(api.RouterConfig{
		Version: Version,
		Logger:  log,
		Metrics: httpMetrics,
		Session: sess,
		Status:  reloader.MetricsSnapshot,
	})

	server := &http.Server{
		Addr:              ":" + port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info().Str("port", port).Msg("HTTP server listening")
		if serveErr := server.ListenAndServe(); serveErr != nil && serveErr != http.ErrServerClosed {
			log.Fatal().Err(serveErr).Msg("HTTP server failed")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	log.Info().Msg("shutting down")
	sess.Pause()
	cancelReload()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown failed")
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envDuration(key string, fallback time.Duration, log zerolog.Logger) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		log.Warn().Str("key", key).Str("value", v).Msg("invalid duration, using default")
		return fallback
	}
	return d
}

func envInt(key string, fallback int, log zerolog.Logger) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Warn().Str("key", key).Str("value", v).Msg("invalid integer, using default")
		return fallback
	}
	return n
}
