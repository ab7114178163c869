package viz

import (
	"sync"

	"github.com/rs/zerolog"

	"github.com/plumeview/plumeview/internal/forecast"
	"github.com/plumeview/plumeview/internal/render/vector"
)

// DefaultMaxArrows bounds the number of wind glyphs on the map.
const DefaultMaxArrows = 500

// WindConfig parameterizes the wind layer.
type WindConfig struct {
	// Name is the layer name. Default: "wind".
	Name string

	// MaxArrows bounds the rendered glyph count. Default:
	// DefaultMaxArrows.
	MaxArrows int

	// Logger for render operations.
	Logger zerolog.Logger
}

// WindLayer renders the wind field as directional arrow glyphs,
// downsampled to an even spatial spread.
type WindLayer struct {
	cfg     WindConfig
	surface Surface

	mu       sync.Mutex
	visible  bool
	lastData []forecast.WindSample
	groupID  string
}

// NewWindLayer creates a wind layer bound to the given surface.
func NewWindLayer(surface Surface, cfg WindConfig) *WindLayer {
	if cfg.Name == "" {
		cfg.Name = string(forecast.PhenomenonWind)
	}
	if cfg.MaxArrows <= 0 {
		cfg.MaxArrows = DefaultMaxArrows
	}
	return &WindLayer{cfg: cfg, surface: surface, visible: true}
}

// Name returns the layer name.
func (l *WindLayer) Name() string { return l.cfg.Name }

// Visible reports the current visibility.
func (l *WindLayer) Visible() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.visible
}

// RenderTimestep renders the timestep's wind slice.
func (l *WindLayer) RenderTimestep(ts forecast.Timestep) {
	l.Render(ts.Wind.Data)
}

// Render draws the wind field. Empty data clears the layer and drops the
// cache.
func (l *WindLayer) Render(data []forecast.WindSample) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if len(data) == 0 {
		l.lastData = nil
		l.removeLocked()
		return
	}
	l.lastData = data
	if !l.visible {
		l.removeLocked()
		return
	}

	glyphs := vector.Glyphs(data, l.cfg.MaxArrows)
	markers := make([]Marker, 0, len(glyphs))
	for _, g := range glyphs {
		markers = append(markers, Marker{
			Lat:         g.Lat,
			Lon:         g.Lon,
			SizePx:      g.SizePx,
			RotationDeg: g.RotationDeg,
			Color:       g.Color,
			ColorHex:    colorHex(g.Color.R, g.Color.G, g.Color.B),
			Tooltip:     g.Tooltip,
		})
	}

	newID := l.surface.AddMarkerCluster(MarkerGroup{Layer: l.cfg.Name, Markers: markers})
	if l.groupID != "" {
		l.surface.RemoveOverlay(l.groupID)
	}
	l.groupID = newID

	l.cfg.Logger.Debug().
		Str("layer", l.cfg.Name).
		Int("points", len(data)).
		Int("arrows", len(markers)).
		Msg("wind glyphs rendered")
}

// Clear removes the arrows from the surface. Idempotent.
func (l *WindLayer) Clear() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.removeLocked()
}

// SetVisible shows or hides the layer, re-rendering cached data on the
// transition to visible.
func (l *WindLayer) SetVisible(visible bool) {
	l.mu.Lock()
	if l.visible == visible {
		l.mu.Unlock()
		return
	}
	l.visible = visible
	if !visible {
		l.removeLocked()
		l.mu.Unlock()
		return
	}
	data := l.lastData
	l.mu.Unlock()

	if len(data) > 0 {
		l.Render(data)
	}
}

func (l *WindLayer) removeLocked() {
	if l.groupID != "" {
		l.surface.RemoveOverlay(l.groupID)
		l.groupID = ""
	}
}
