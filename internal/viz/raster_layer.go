package viz

import (
	"image/color"
	"sync"

	"github.com/rs/zerolog"

	"github.com/plumeview/plumeview/internal/forecast"
	"github.com/plumeview/plumeview/internal/render/grid"
	"github.com/plumeview/plumeview/internal/render/mercator"
	"github.com/plumeview/plumeview/internal/render/ramp"
)

// RasterConfig parameterizes a raster layer per phenomenon.
type RasterConfig struct {
	// Name is the layer name.
	Name string

	// Scale maps raw values to colors.
	Scale ramp.Scale

	// FilterBelow suppresses raw values under this threshold; they
	// render fully transparent. Zero disables filtering of positive
	// values.
	FilterBelow float64

	// Oversample is the horizontal smoothing factor passed to the
	// rasterizer. Default: 1 (off).
	Oversample int

	// TargetHeight is the nominal raster height in pixels.
	// Default: mercator.DefaultTargetHeight.
	TargetHeight int

	// Extract picks this layer's sample slice out of a timestep.
	Extract func(forecast.Timestep) []forecast.Sample

	// Logger for render operations.
	Logger zerolog.Logger
}

// RasterLayer renders a scalar field as a Mercator-corrected image
// overlay. Rasterization runs outside the state lock; a render generation
// counter guarantees that a stale in-flight raster is discarded whenever a
// newer render or clear has started, so the overlay applied last always
// corresponds to the most recently requested timestep.
type RasterLayer struct {
	cfg     RasterConfig
	surface Surface

	mu        sync.Mutex
	visible   bool
	lastData  []forecast.Sample
	overlayID string
	renderSeq uint64
}

// NewRasterLayer creates a raster layer bound to the given surface.
// Layers start visible with no data.
func NewRasterLayer(surface Surface, cfg RasterConfig) *RasterLayer {
	if cfg.Oversample < 1 {
		cfg.Oversample = 1
	}
	return &RasterLayer{cfg: cfg, surface: surface, visible: true}
}

// Name returns the layer name.
func (l *RasterLayer) Name() string { return l.cfg.Name }

// Visible reports the current visibility.
func (l *RasterLayer) Visible() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.visible
}

// RenderTimestep renders this layer's slice of the timestep.
func (l *RasterLayer) RenderTimestep(ts forecast.Timestep) {
	l.Render(l.cfg.Extract(ts))
}

// Render draws the sample set. Empty data clears the layer and drops the
// cache; rendering while hidden caches the data and leaves the surface
// untouched.
func (l *RasterLayer) Render(data []forecast.Sample) {
	l.mu.Lock()
	if len(data) == 0 {
		l.lastData = nil
		l.clearLocked()
		l.mu.Unlock()
		return
	}
	l.lastData = data
	if !l.visible {
		l.clearLocked()
		l.mu.Unlock()
		return
	}
	l.renderSeq++
	seq := l.renderSeq
	l.mu.Unlock()

	raster, err := l.rasterize(data)

	l.mu.Lock()
	defer l.mu.Unlock()
	if seq != l.renderSeq {
		// A newer render or clear superseded this one while it was
		// rasterizing.
		l.cfg.Logger.Debug().Str("layer", l.cfg.Name).Msg("discarding stale raster")
		return
	}
	if err != nil {
		l.cfg.Logger.Debug().Err(err).Str("layer", l.cfg.Name).Msg("nothing to rasterize")
		l.removeLocked()
		return
	}

	newID := l.surface.AddOverlay(Overlay{
		Layer:  l.cfg.Name,
		Image:  raster.Image,
		Bounds: raster.Bounds,
	})
	if l.overlayID != "" {
		l.surface.RemoveOverlay(l.overlayID)
	}
	l.overlayID = newID
}

// Clear removes the overlay from the surface. Idempotent; cached data is
// retained so a later SetVisible(true) can restore the layer.
func (l *RasterLayer) Clear() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.clearLocked()
}

// SetVisible shows or hides the layer, re-rendering cached data on the
// transition to visible.
func (l *RasterLayer) SetVisible(visible bool) {
	l.mu.Lock()
	if l.visible == visible {
		l.mu.Unlock()
		return
	}
	l.visible = visible
	if !visible {
		l.clearLocked()
		l.mu.Unlock()
		return
	}
	data := l.lastData
	l.mu.Unlock()

	if len(data) > 0 {
		l.Render(data)
	}
}

func (l *RasterLayer) rasterize(data []forecast.Sample) (*mercator.Raster, error) {
	g := grid.FromSamples(data)
	return mercator.Rasterize(g, l.colorFn, mercator.Config{
		TargetHeight: l.cfg.TargetHeight,
		Oversample:   l.cfg.Oversample,
	})
}

// colorFn applies the filter threshold before color mapping.
func (l *RasterLayer) colorFn(v float64) color.RGBA {
	if v < l.cfg.FilterBelow {
		return color.RGBA{}
	}
	return l.cfg.Scale.Color(v)
}

// clearLocked invalidates any in-flight render and detaches the overlay.
func (l *RasterLayer) clearLocked() {
	l.renderSeq++
	l.removeLocked()
}

func (l *RasterLayer) removeLocked() {
	if l.overlayID != "" {
		l.surface.RemoveOverlay(l.overlayID)
		l.overlayID = ""
	}
}
