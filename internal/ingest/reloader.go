package ingest

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/plumeview/plumeview/internal/forecast"
)

// DatasetSink receives freshly loaded forecast documents. Implemented by
// the rendering session.
type DatasetSink interface {
	ReplaceDataset(ds *forecast.Dataset)
}

// ReloaderConfig holds configuration for the reload job.
type ReloaderConfig struct {
	// Source is the document location (file path or URL).
	Source string

	// Interval is how often to check for a new forecast cycle.
	// Default: 1 hour.
	Interval time.Duration

	// Logger for reload operations.
	Logger zerolog.Logger
}

// ReloadMetrics tracks reload job statistics.
type ReloadMetrics struct {
	mu sync.RWMutex

	TotalReloads  int64
	FailedReloads int64
	LastReloadAt  time.Time
	LastError     string
}

// Reloader periodically reloads the forecast document and hands it to the
// session. The backend republishes the document each forecast cycle, so
// a long-running viewer stays current without restarting.
type Reloader struct {
	cfg     ReloaderConfig
	loader  *Loader
	sink    DatasetSink
	logger  zerolog.Logger
	metrics ReloadMetrics
}

// NewReloader creates a reload job.
func NewReloader(cfg ReloaderConfig, loader *Loader, sink DatasetSink) *Reloader {
	if cfg.Interval <= 0 {
		cfg.Interval = time.Hour
	}
	if loader == nil {
		loader = NewLoader(nil)
	}
	return &Reloader{cfg: cfg, loader: loader, sink: sink, logger: cfg.Logger}
}

// Run loops until the context is canceled, reloading on each tick.
func (r *Reloader) Run(ctx context.Context) {
	ticker := time.NewTicker(r.cfg.Interval)
	defer ticker.Stop()

	r.logger.Info().
		Str("source", r.cfg.Source).
		Dur("interval", r.cfg.Interval).
		Msg("starting forecast reload job")

	for {
		select {
		case <-ctx.Done():
			r.logger.Info().Msg("forecast reload job stopped")
			return
		case <-ticker.C:
			r.reloadOnce(ctx)
		}
	}
}

func (r *Reloader) reloadOnce(ctx context.Context) {
	start := time.Now()
	ds, err := r.loader.Load(ctx, r.cfg.Source)

	r.metrics.mu.Lock()
	r.metrics.TotalReloads++
	r.metrics.LastReloadAt = time.Now()
	if err != nil {
		r.metrics.FailedReloads++
		r.metrics.LastError = err.Error()
	} else {
		r.metrics.LastError = ""
	}
	r.metrics.mu.Unlock()

	if err != nil {
		// The session keeps serving the previous dataset.
		r.logger.Error().Err(err).Msg("forecast reload failed")
		return
	}

	r.sink.ReplaceDataset(ds)
	r.logger.Info().
		Int("timesteps", len(ds.Timesteps)).
		Dur("duration", time.Since(start)).
		Msg("forecast document reloaded")
}

// MetricsSnapshot returns the current reload statistics as a map.
func (r *Reloader) MetricsSnapshot() map[string]interface{} {
	r.metrics.mu.RLock()
	defer r.metrics.mu.RUnlock()
	return map[string]interface{}{
		"total_reloads":  r.metrics.TotalReloads,
		"failed_reloads": r.metrics.FailedReloads,
		"last_reload_at": r.metrics.LastReloadAt,
		"last_error":     r.metrics.LastError,
		"breaker_state":  r.loader.BreakerState(),
	}
}
