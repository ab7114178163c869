// Package session wires the forecast dataset, the map layers and the
// playback controller into one explicit top-level context object. There
// are no ambient globals: every component receives its collaborators
// through its constructor.
package session

import (
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/plumeview/plumeview/internal/forecast"
	"github.com/plumeview/plumeview/internal/player"
	"github.com/plumeview/plumeview/internal/render/ramp"
	"github.com/plumeview/plumeview/internal/viz"
)

// ErrUnknownLayer is returned when a layer name does not exist.
var ErrUnknownLayer = errors.New("unknown layer")

// Filter thresholds per phenomenon. Values below render nothing.
const (
	// pm25FilterBelow hides concentrations with no visible pollution.
	pm25FilterBelow = 5.0 // µg/m³

	// precipFilterBelow hides trace precipitation.
	precipFilterBelow = 0.1 // mm per interval
)

// rasterOversample smooths the pm2.5 and temperature fields horizontally.
const rasterOversample = 3

// Config holds configuration for a Session.
type Config struct {
	// Surface is the shared map surface all layers render against.
	Surface viz.Surface

	// Dataset is the decoded forecast document.
	Dataset *forecast.Dataset

	// Interval is the playback tick period. Default: player default.
	Interval time.Duration

	// Metrics records render instrumentation. Optional.
	Metrics *Metrics

	// Logger for session operations.
	Logger zerolog.Logger
}

// Session owns one layer per phenomenon and the playback controller, and
// fans every timestep change out to the visible layers. Layers stay
// independent of each other; all coordination happens here.
type Session struct {
	surface viz.Surface
	logger  zerolog.Logger
	metrics *Metrics

	mu         sync.RWMutex
	dataset    *forecast.Dataset
	controller *player.Controller
	interval   time.Duration

	layers  []viz.Layer
	byName  map[string]viz.Layer
	sources *viz.SourceLayer
}

// New builds a session over the dataset and renders the first timestep.
func New(cfg Config) *Session {
	s := &Session{
		surface:  cfg.Surface,
		logger:   cfg.Logger,
		metrics:  cfg.Metrics,
		dataset:  cfg.Dataset,
		interval: cfg.Interval,
	}

	pm25 := viz.NewRasterLayer(cfg.Surface, viz.RasterConfig{
		Name:        string(forecast.PhenomenonPM25),
		Scale:       ramp.PM25(),
		FilterBelow: pm25FilterBelow,
		Oversample:  rasterOversample,
		Extract:     func(ts forecast.Timestep) []forecast.Sample { return ts.PM25.Data },
		Logger:      cfg.Logger,
	})
	precip := viz.NewRasterLayer(cfg.Surface, viz.RasterConfig{
		Name:        string(forecast.PhenomenonPrecipitation),
		Scale:       ramp.Precipitation(),
		FilterBelow: precipFilterBelow,
		Extract:     func(ts forecast.Timestep) []forecast.Sample { return ts.Precipitation.Data },
		Logger:      cfg.Logger,
	})
	temp := viz.NewRasterLayer(cfg.Surface, viz.RasterConfig{
		Name:       string(forecast.PhenomenonTemperature),
		Scale:      ramp.Temperature(),
		Oversample: rasterOversample,
		Extract:    func(ts forecast.Timestep) []forecast.Sample { return ts.Temperature.Data },
		Logger:     cfg.Logger,
	})
	wind := viz.NewWindLayer(cfg.Surface, viz.WindConfig{Logger: cfg.Logger})
	s.sources = viz.NewSourceLayer(cfg.Surface, viz.SourceConfig{Logger: cfg.Logger})

	s.layers = []viz.Layer{pm25, wind, precip, temp, s.sources}
	s.byName = make(map[string]viz.Layer, len(s.layers))
	for _, l := range s.layers {
		s.byName[l.Name()] = l
	}

	s.controller = player.NewController(player.Config{
		Timesteps: len(cfg.Dataset.Timesteps),
		Interval:  cfg.Interval,
		OnChange:  s.renderTimestep,
		Logger:    cfg.Logger,
	})

	s.sources.Render(cfg.Dataset.PollutionSources.Sources)
	s.renderTimestep(0)
	return s
}

// CurrentIndex returns the current timestep index.
func (s *Session) CurrentIndex() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.controller.Current()
}

// Playing reports whether playback is active.
func (s *Session) Playing() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.controller.Playing()
}

// TimestepCount returns the number of timesteps in the dataset.
func (s *Session) TimestepCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.controller.Count()
}

// SetTimestep seeks to the given timestep. Out-of-range indices are
// silently ignored.
func (s *Session) SetTimestep(i int) {
	s.mu.RLock()
	c := s.controller
	s.mu.RUnlock()
	c.SetTimestep(i)
}

// Next advances one timestep without wrapping.
func (s *Session) Next() {
	s.mu.RLock()
	c := s.controller
	s.mu.RUnlock()
	c.Next()
}

// Previous steps back one timestep without wrapping.
func (s *Session) Previous() {
	s.mu.RLock()
	c := s.controller
	s.mu.RUnlock()
	c.Previous()
}

// Play starts looping playback.
func (s *Session) Play() {
	s.mu.RLock()
	c := s.controller
	s.mu.RUnlock()
	c.Play()
}

// Pause stops playback.
func (s *Session) Pause() {
	s.mu.RLock()
	c := s.controller
	s.mu.RUnlock()
	c.Pause()
}

// LayerNames lists the session's layers in render order.
func (s *Session) LayerNames() []string {
	names := make([]string, len(s.layers))
	for i, l := range s.layers {
		names[i] = l.Name()
	}
	return names
}

// LayerVisible reports a layer's visibility.
func (s *Session) LayerVisible(name string) (bool, error) {
	l, ok := s.byName[name]
	if !ok {
		return false, ErrUnknownLayer
	}
	return l.Visible(), nil
}

// SetLayerVisibility shows or hides a layer.
func (s *Session) SetLayerVisibility(name string, visible bool) error {
	l, ok := s.byName[name]
	if !ok {
		return ErrUnknownLayer
	}
	l.SetVisible(visible)
	return nil
}

// SourceViewMode returns the pollution source layer's view mode.
func (s *Session) SourceViewMode() viz.ViewMode {
	return s.sources.ViewMode()
}

// SetSourceViewMode switches the pollution source marker style.
func (s *Session) SetSourceViewMode(mode viz.ViewMode) {
	s.sources.SetViewMode(mode)
}

// Timestep returns a copy of the timestep at the given index.
func (s *Session) Timestep(i int) (forecast.Timestep, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if i < 0 || i >= len(s.dataset.Timesteps) {
		return forecast.Timestep{}, false
	}
	return s.dataset.Timesteps[i], true
}

// Metadata returns the dataset metadata.
func (s *Session) Metadata() forecast.Metadata {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.dataset.Metadata
}

// Overlay returns the raster overlay a layer currently has on the surface.
// Only surfaces that retain overlays (MemorySurface) support this.
func (s *Session) Overlay(layer string) (viz.Overlay, bool) {
	ms, ok := s.surface.(*viz.MemorySurface)
	if !ok {
		return viz.Overlay{}, false
	}
	return ms.OverlayForLayer(layer)
}

// Markers returns the marker group a layer currently has on the surface.
func (s *Session) Markers(layer string) (viz.MarkerGroup, bool) {
	ms, ok := s.surface.(*viz.MemorySurface)
	if !ok {
		return viz.MarkerGroup{}, false
	}
	return ms.MarkersForLayer(layer)
}

// ReplaceDataset swaps in a freshly loaded forecast document, clamps the
// playback position to the new timestep range, and re-renders. Playback
// state (playing or stopped) is preserved.
func (s *Session) ReplaceDataset(ds *forecast.Dataset) {
	s.mu.Lock()
	wasPlaying := s.controller.Playing()
	index := s.controller.Current()
	s.controller.Pause()

	s.dataset = ds
	if index >= len(ds.Timesteps) {
		index = len(ds.Timesteps) - 1
	}
	s.controller = player.NewController(player.Config{
		Timesteps: len(ds.Timesteps),
		Interval:  s.interval,
		OnChange:  s.renderTimestep,
		Logger:    s.logger,
	})
	c := s.controller
	s.mu.Unlock()

	s.logger.Info().
		Int("timesteps", len(ds.Timesteps)).
		Int("sources", len(ds.PollutionSources.Sources)).
		Msg("forecast dataset replaced")

	s.sources.Render(ds.PollutionSources.Sources)
	c.SetTimestep(index)
	if wasPlaying {
		c.Play()
	}
}

// renderTimestep fans one timestep out to every layer. Each layer applies
// its own visibility and filtering rules.
func (s *Session) renderTimestep(i int) {
	s.mu.RLock()
	if i < 0 || i >= len(s.dataset.Timesteps) {
		s.mu.RUnlock()
		return
	}
	ts := s.dataset.Timesteps[i]
	layers := s.layers
	s.mu.RUnlock()

	start := time.Now()
	for _, l := range layers {
		l.RenderTimestep(ts)
	}
	elapsed := time.Since(start)

	points := len(ts.PM25.Data) + len(ts.Wind.Data) +
		len(ts.Precipitation.Data) + len(ts.Temperature.Data)
	s.metrics.recordRender(i, points, elapsed)

	s.logger.Debug().
		Int("timestep", i).
		Int("forecast_hour", ts.ForecastHour).
		Int("points", points).
		Dur("duration", elapsed).
		Msg("timestep rendered")
}
