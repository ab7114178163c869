// Package viz implements the map layers: each owns its visibility state,
// last-rendered data, and the overlay or markers it has attached to the
// shared map surface.
package viz

import (
	"image"
	"image/color"

	"github.com/plumeview/plumeview/internal/render/mercator"
)

// Overlay is a rendered raster draped over a geographic extent.
type Overlay struct {
	// Layer names the owning layer; the surface indexes overlays by it.
	Layer  string
	Image  *image.RGBA
	Bounds mercator.Bounds
}

// Marker is a single point glyph.
type Marker struct {
	Lat         float64    `json:"lat"`
	Lon         float64    `json:"lon"`
	SizePx      float64    `json:"size_px"`
	RotationDeg float64    `json:"rotation_deg,omitempty"`
	Color       color.RGBA `json:"-"`
	ColorHex    string     `json:"color"`
	Tooltip     string     `json:"tooltip,omitempty"`
	Icon        string     `json:"icon,omitempty"`
	// Count > 1 marks an aggregate cluster glyph.
	Count int `json:"count,omitempty"`
}

// MarkerGroup is a batch of markers attached to the surface as one unit.
type MarkerGroup struct {
	Layer   string
	Markers []Marker
}

// Surface is the capability interface layers render against. It exposes
// only attachment primitives, never a concrete map toolkit, so a test
// double can stand in for the real map. Each layer removes only handles
// it created; the surface never lets one layer disturb another's objects.
type Surface interface {
	// AddOverlay attaches a raster overlay and returns its handle.
	AddOverlay(o Overlay) string

	// AddMarkerCluster attaches a marker group and returns its handle.
	AddMarkerCluster(g MarkerGroup) string

	// RemoveOverlay detaches an overlay or marker group by handle.
	// Unknown handles are ignored.
	RemoveOverlay(id string)

	// Zoom returns the current map zoom level.
	Zoom() int
}
