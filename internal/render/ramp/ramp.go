// Package ramp maps scalar forecast values to colors via piecewise-linear
// interpolation over ordered stops.
package ramp

import (
	"image/color"
	"sort"
)

// Stop anchors a color at a position in [0, 1].
type Stop struct {
	Position float64
	Color    color.RGBA
}

// Ramp is an ordered list of color stops. Inputs outside [0, 1] clamp to
// the nearest endpoint; there are no error conditions.
type Ramp struct {
	stops []Stop
}

// New builds a ramp from the given stops, sorted ascending by position.
func New(stops ...Stop) Ramp {
	sorted := make([]Stop, len(stops))
	copy(sorted, stops)
	sort.SliceStable(sorted, func(a, b int) bool {
		return sorted[a].Position < sorted[b].Position
	})
	return Ramp{stops: sorted}
}

// At returns the interpolated color for a normalized value.
func (r Ramp) At(v float64) color.RGBA {
	if len(r.stops) == 0 {
		return color.RGBA{}
	}
	if v <= r.stops[0].Position {
		return r.stops[0].Color
	}
	last := r.stops[len(r.stops)-1]
	if v >= last.Position {
		return last.Color
	}

	// Find the bracketing pair.
	hi := sort.Search(len(r.stops), func(i int) bool {
		return r.stops[i].Position >= v
	})
	lower, upper := r.stops[hi-1], r.stops[hi]

	span := upper.Position - lower.Position
	if span == 0 {
		return lower.Color
	}
	t := (v - lower.Position) / span
	return lerpRGBA(lower.Color, upper.Color, t)
}

// Stops returns the ordered stop list.
func (r Ramp) Stops() []Stop {
	return r.stops
}

func lerpRGBA(a, b color.RGBA, t float64) color.RGBA {
	return color.RGBA{
		R: lerpChannel(a.R, b.R, t),
		G: lerpChannel(a.G, b.G, t),
		B: lerpChannel(a.B, b.B, t),
		A: lerpChannel(a.A, b.A, t),
	}
}

func lerpChannel(a, b uint8, t float64) uint8 {
	return uint8(float64(a) + (float64(b)-float64(a))*t + 0.5)
}
