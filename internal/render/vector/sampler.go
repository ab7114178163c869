// Package vector downsamples dense wind fields to a bounded set of arrow
// glyphs, preserving spatial coverage over density.
package vector

import (
	"fmt"
	"image/color"
	"math"
	"sort"

	"github.com/plumeview/plumeview/internal/forecast"
)

// Glyph sizing constants. Arrow size scales with speed and is capped so
// strong storms do not dominate the map.
const (
	baseGlyphSize = 12.0
	sizePerMS     = 2.0
	maxGlyphSize  = 30.0
)

// compassPoints is the 16-point compass rose, indexed by
// round(direction/22.5) mod 16.
var compassPoints = [16]string{
	"N", "NNE", "NE", "ENE", "E", "ESE", "SE", "SSE",
	"S", "SSW", "SW", "WSW", "W", "WNW", "NW", "NNW",
}

// speedBuckets is the Beaufort-style speed-to-color table (m/s).
var speedBuckets = []struct {
	Below float64
	Color color.RGBA
}{
	{3, color.RGBA{158, 202, 225, 255}},
	{6, color.RGBA{49, 163, 84, 255}},
	{9, color.RGBA{254, 217, 118, 255}},
	{12, color.RGBA{254, 153, 41, 255}},
	{15, color.RGBA{227, 26, 28, 255}},
	{math.Inf(1), color.RGBA{122, 1, 119, 255}},
}

// Sample downsamples points to at most maxCount using an even 2D
// grid-stride walk over the distinct latitude and longitude values, so the
// selection covers the field geographically instead of favoring dense
// regions. Input with at most maxCount points is returned unchanged.
func Sample(points []forecast.WindSample, maxCount int) []forecast.WindSample {
	if maxCount <= 0 || len(points) <= maxCount {
		return points
	}

	lookup := make(map[[2]float64]forecast.WindSample, len(points))
	latSet := make(map[float64]struct{})
	lonSet := make(map[float64]struct{})
	for _, p := range points {
		lat := roundCoord(p.Lat)
		lon := roundCoord(p.Lon)
		latSet[lat] = struct{}{}
		lonSet[lon] = struct{}{}
		if _, seen := lookup[[2]float64{lat, lon}]; !seen {
			lookup[[2]float64{lat, lon}] = p
		}
	}

	lats := sortedKeys(latSet)
	lons := sortedKeys(lonSet)

	side := math.Sqrt(float64(maxCount))
	latStride := stride(len(lats), side)
	lonStride := stride(len(lons), side)

	out := make([]forecast.WindSample, 0, maxCount)
	for i := 0; i < len(lats); i += latStride {
		for j := 0; j < len(lons); j += lonStride {
			if p, ok := lookup[[2]float64{lats[i], lons[j]}]; ok {
				out = append(out, p)
			}
		}
	}

	// Stride rounding can overshoot slightly on awkward axis counts.
	if len(out) > maxCount {
		out = out[:maxCount]
	}
	return out
}

// Glyph describes one rendered wind arrow.
type Glyph struct {
	Lat         float64
	Lon         float64
	SizePx      float64
	RotationDeg float64
	Color       color.RGBA
	Tooltip     string
}

// Glyphs downsamples the field and builds arrow glyphs. Points with a
// non-finite speed or direction are skipped.
func Glyphs(points []forecast.WindSample, maxCount int) []Glyph {
	sampled := Sample(points, maxCount)
	glyphs := make([]Glyph, 0, len(sampled))
	for _, p := range sampled {
		if !isFinite(p.Speed) || !isFinite(p.Direction) {
			continue
		}
		glyphs = append(glyphs, Glyph{
			Lat:         p.Lat,
			Lon:         p.Lon,
			SizePx:      glyphSize(p.Speed),
			RotationDeg: p.Direction,
			Color:       SpeedColor(p.Speed),
			Tooltip:     fmt.Sprintf("%.1f m/s from %s", p.Speed, CompassPoint(p.Direction)),
		})
	}
	return glyphs
}

// SpeedColor returns the discrete color bucket for a wind speed.
func SpeedColor(speed float64) color.RGBA {
	for _, b := range speedBuckets {
		if speed < b.Below {
			return b.Color
		}
	}
	return speedBuckets[len(speedBuckets)-1].Color
}

// CompassPoint names the 16-point compass direction for a meteorological
// direction in degrees.
func CompassPoint(directionDeg float64) string {
	d := math.Mod(directionDeg, 360)
	if d < 0 {
		d += 360
	}
	idx := int(math.Round(d/22.5)) % 16
	return compassPoints[idx]
}

func glyphSize(speed float64) float64 {
	size := baseGlyphSize + speed*sizePerMS
	if size > maxGlyphSize {
		return maxGlyphSize
	}
	return size
}

func stride(count int, side float64) int {
	s := int(math.Ceil(float64(count) / side))
	if s < 1 {
		return 1
	}
	return s
}

func roundCoord(v float64) float64 {
	return math.Round(v*100) / 100
}

func sortedKeys(set map[float64]struct{}) []float64 {
	keys := make([]float64, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Float64s(keys)
	return keys
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
