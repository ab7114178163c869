package viz

import (
	"fmt"
	"image/color"
	"math"
	"sync"

	"github.com/rs/zerolog"

	"github.com/plumeview/plumeview/internal/forecast"
	"github.com/plumeview/plumeview/internal/render/cluster"
	"github.com/plumeview/plumeview/internal/render/ramp"
)

// ViewMode selects how pollution sources are drawn.
type ViewMode string

const (
	// ViewModeMarkers encodes magnitude and category into sized,
	// colored circle markers.
	ViewModeMarkers ViewMode = "markers"

	// ViewModeIcons draws a pictographic icon per source type.
	ViewModeIcons ViewMode = "icons"
)

// Marker sizing for pollution sources.
const (
	sourceBaseSize  = 8.0
	sourceMaxSize   = 28.0
	clusterBaseSize = 20.0
	iconSize        = 18.0
)

var powerPlantColor = color.RGBA{90, 90, 90, 255}
var clusterColor = color.RGBA{240, 140, 0, 255}

// SourceConfig parameterizes the pollution source layer.
type SourceConfig struct {
	// Name is the layer name. Default: "sources".
	Name string

	// Mode is the initial view mode. Default: ViewModeMarkers.
	Mode ViewMode

	// Coordinator groups markers into clusters. Default: a coordinator
	// with cluster.DefaultConfig.
	Coordinator *cluster.Coordinator

	// Logger for render operations.
	Logger zerolog.Logger
}

// SourceLayer renders fires and power plants as clustered point markers.
// Unlike the timestep layers its data is static for the whole session.
type SourceLayer struct {
	cfg        SourceConfig
	surface    Surface
	confidence ramp.Scale

	mu       sync.Mutex
	visible  bool
	mode     ViewMode
	lastData []forecast.Source
	groupID  string
}

// NewSourceLayer creates a pollution source layer bound to the surface.
func NewSourceLayer(surface Surface, cfg SourceConfig) *SourceLayer {
	if cfg.Name == "" {
		cfg.Name = string(forecast.PhenomenonSources)
	}
	if cfg.Mode == "" {
		cfg.Mode = ViewModeMarkers
	}
	if cfg.Coordinator == nil {
		cfg.Coordinator = cluster.NewCoordinator(cluster.DefaultConfig())
	}
	return &SourceLayer{
		cfg:        cfg,
		surface:    surface,
		confidence: ramp.FireConfidence(),
		visible:    true,
		mode:       cfg.Mode,
	}
}

// Name returns the layer name.
func (l *SourceLayer) Name() string { return l.cfg.Name }

// Visible reports the current visibility.
func (l *SourceLayer) Visible() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.visible
}

// ViewMode returns the current view mode.
func (l *SourceLayer) ViewMode() ViewMode {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.mode
}

// RenderTimestep is a no-op: sources are not time-varying. It satisfies
// the Layer interface so the session can fan out uniformly.
func (l *SourceLayer) RenderTimestep(forecast.Timestep) {}

// Render draws the source inventory. Empty data clears the layer and
// drops the cache.
func (l *SourceLayer) Render(sources []forecast.Source) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(sources) == 0 {
		l.lastData = nil
		l.removeLocked()
		return
	}
	l.lastData = sources
	if !l.visible {
		l.removeLocked()
		return
	}
	l.renderLocked()
}

// Clear removes the markers from the surface. Idempotent.
func (l *SourceLayer) Clear() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.removeLocked()
}

// SetVisible shows or hides the layer, re-rendering cached data on the
// transition to visible.
func (l *SourceLayer) SetVisible(visible bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.visible == visible {
		return
	}
	l.visible = visible
	if !visible {
		l.removeLocked()
		return
	}
	if len(l.lastData) > 0 {
		l.renderLocked()
	}
}

// SetViewMode switches between marker and icon styles, re-rendering
// cached data under the new mode without requiring new data.
func (l *SourceLayer) SetViewMode(mode ViewMode) {
	if mode != ViewModeMarkers && mode != ViewModeIcons {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.mode == mode {
		return
	}
	l.mode = mode
	if l.visible && len(l.lastData) > 0 {
		l.renderLocked()
	}
}

func (l *SourceLayer) renderLocked() {
	markers := make([]Marker, 0, len(l.lastData))
	for _, src := range l.lastData {
		markers = append(markers, l.marker(src))
	}

	points := make([]cluster.Point, len(markers))
	for i, m := range markers {
		points[i] = cluster.Point{Lat: m.Lat, Lon: m.Lon}
	}
	clusters := l.cfg.Coordinator.Group(points, l.surface.Zoom())

	out := make([]Marker, 0, len(clusters))
	for _, c := range clusters {
		if c.Count == 1 {
			out = append(out, markers[c.Members[0]])
			continue
		}
		out = append(out, Marker{
			Lat:      c.Lat,
			Lon:      c.Lon,
			SizePx:   clusterBaseSize + math.Sqrt(float64(c.Count)),
			Color:    clusterColor,
			ColorHex: colorHex(clusterColor.R, clusterColor.G, clusterColor.B),
			Tooltip:  fmt.Sprintf("%d pollution sources", c.Count),
			Count:    c.Count,
		})
	}

	newID := l.surface.AddMarkerCluster(MarkerGroup{Layer: l.cfg.Name, Markers: out})
	if l.groupID != "" {
		l.surface.RemoveOverlay(l.groupID)
	}
	l.groupID = newID

	l.cfg.Logger.Debug().
		Str("layer", l.cfg.Name).
		Str("mode", string(l.mode)).
		Int("sources", len(l.lastData)).
		Int("rendered", len(out)).
		Msg("pollution sources rendered")
}

func (l *SourceLayer) marker(src forecast.Source) Marker {
	m := Marker{Lat: src.Lat, Lon: src.Lon}

	switch src.Type {
	case forecast.SourcePowerPlant:
		m.Color = powerPlantColor
		m.Tooltip = fmt.Sprintf("%s – %.0f MW (%s)", src.Name, src.CapacityMW, src.FuelType)
		if l.mode == ViewModeIcons {
			m.Icon = "power_plant"
			m.SizePx = iconSize
		} else {
			m.SizePx = sourceSize(src.CapacityMW / 100)
		}
	default: // fire
		m.Color = l.confidence.Color(src.Confidence)
		m.Tooltip = fmt.Sprintf("Fire – %.0f%% confidence, %.1f MW", src.Confidence, src.FRP)
		if l.mode == ViewModeIcons {
			m.Icon = "fire"
			m.SizePx = iconSize
		} else {
			m.SizePx = sourceSize(src.FRP)
		}
	}
	m.ColorHex = colorHex(m.Color.R, m.Color.G, m.Color.B)
	return m
}

// sourceSize scales marker size with the square root of magnitude, capped.
func sourceSize(magnitude float64) float64 {
	if magnitude < 0 || math.IsNaN(magnitude) {
		magnitude = 0
	}
	size := sourceBaseSize + math.Sqrt(magnitude)
	if size > sourceMaxSize {
		return sourceMaxSize
	}
	return size
}

func (l *SourceLayer) removeLocked() {
	if l.groupID != "" {
		l.surface.RemoveOverlay(l.groupID)
		l.groupID = ""
	}
}
