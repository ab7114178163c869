package viz

import (
	"sync"

	"github.com/google/uuid"
)

// MemorySurface is an in-memory Surface. The HTTP API reads rendered
// overlays out of it, and tests use it as the map double.
type MemorySurface struct {
	mu       sync.RWMutex
	zoom     int
	overlays map[string]Overlay
	markers  map[string]MarkerGroup
}

// NewMemorySurface creates an empty surface at the given zoom level.
func NewMemorySurface(zoom int) *MemorySurface {
	return &MemorySurface{
		zoom:     zoom,
		overlays: make(map[string]Overlay),
		markers:  make(map[string]MarkerGroup),
	}
}

// AddOverlay attaches a raster overlay.
func (s *MemorySurface) AddOverlay(o Overlay) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := "ovl_" + uuid.New().String()
	s.overlays[id] = o
	return id
}

// AddMarkerCluster attaches a marker group.
func (s *MemorySurface) AddMarkerCluster(g MarkerGroup) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := "mkg_" + uuid.New().String()
	s.markers[id] = g
	return id
}

// RemoveOverlay detaches an overlay or marker group. Unknown handles are
// ignored.
func (s *MemorySurface) RemoveOverlay(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.overlays, id)
	delete(s.markers, id)
}

// Zoom returns the surface zoom level.
func (s *MemorySurface) Zoom() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.zoom
}

// SetZoom updates the surface zoom level.
func (s *MemorySurface) SetZoom(zoom int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.zoom = zoom
}

// OverlayForLayer returns the overlay currently attached by a layer.
func (s *MemorySurface) OverlayForLayer(layer string) (Overlay, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, o := range s.overlays {
		if o.Layer == layer {
			return o, true
		}
	}
	return Overlay{}, false
}

// MarkersForLayer returns the marker group currently attached by a layer.
func (s *MemorySurface) MarkersForLayer(layer string) (MarkerGroup, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, g := range s.markers {
		if g.Layer == layer {
			return g, true
		}
	}
	return MarkerGroup{}, false
}

// OverlayCount returns the number of attached raster overlays.
func (s *MemorySurface) OverlayCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.overlays)
}

// MarkerGroupCount returns the number of attached marker groups.
func (s *MemorySurface) MarkerGroupCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.markers)
}
