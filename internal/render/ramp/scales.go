package ramp

import (
	"image/color"
	"math"
)

// Scale pairs a ramp with a phenomenon-specific normalization of raw
// values into [0, 1].
type Scale struct {
	ramp      Ramp
	normalize func(float64) float64
}

// Color maps a raw phenomenon value to its display color.
func (s Scale) Color(raw float64) color.RGBA {
	return s.ramp.At(s.normalize(raw))
}

// Normalize maps a raw value into [0, 1], clamping out-of-domain inputs.
func (s Scale) Normalize(raw float64) float64 {
	return s.normalize(raw)
}

// Ramp returns the underlying color ramp.
func (s Scale) Ramp() Ramp {
	return s.ramp
}

// pm25Breakpoints are the EPA AQI concentration thresholds in µg/m³
// (Good, Moderate, Unhealthy for Sensitive Groups, Unhealthy,
// Very Unhealthy, Hazardous).
var pm25Breakpoints = []float64{0, 12, 35.4, 55.4, 150.4, 250.4, 500.4}

// PM25 returns the concentration scale colored by AQI category.
func PM25() Scale {
	stops := []Stop{
		{0, color.RGBA{0, 228, 0, 180}},          // good
		{1.0 / 6, color.RGBA{255, 255, 0, 190}},  // moderate
		{2.0 / 6, color.RGBA{255, 126, 0, 200}},  // unhealthy (sensitive)
		{3.0 / 6, color.RGBA{255, 0, 0, 210}},    // unhealthy
		{4.0 / 6, color.RGBA{143, 63, 151, 220}}, // very unhealthy
		{5.0 / 6, color.RGBA{126, 0, 35, 230}},   // hazardous
		{1, color.RGBA{76, 0, 21, 240}},
	}
	return Scale{ramp: New(stops...), normalize: breakpointNormalize(pm25Breakpoints)}
}

// precipBreakpoints classify precipitation intensity in mm per timestep
// interval, from trace to violent.
var precipBreakpoints = []float64{0, 0.5, 2, 4, 10, 25, 50}

// Precipitation returns the rainfall intensity scale.
func Precipitation() Scale {
	stops := []Stop{
		{0, color.RGBA{198, 219, 239, 0}}, // dry renders invisible
		{1.0 / 6, color.RGBA{158, 202, 225, 140}},
		{2.0 / 6, color.RGBA{107, 174, 214, 170}},
		{3.0 / 6, color.RGBA{66, 146, 198, 190}},
		{4.0 / 6, color.RGBA{33, 113, 181, 210}},
		{5.0 / 6, color.RGBA{8, 81, 156, 225}},
		{1, color.RGBA{8, 48, 107, 240}},
	}
	return Scale{ramp: New(stops...), normalize: breakpointNormalize(precipBreakpoints)}
}

// Temperature domain in °F. The comfortable band renders transparent so
// only the diverging hot and cold tails are drawn on the map.
const (
	tempMinF     = -20.0
	tempMaxF     = 110.0
	tempComfortL = 55.0
	tempComfortH = 75.0
)

// Temperature returns the diverging temperature scale.
func Temperature() Scale {
	pos := func(f float64) float64 { return (f - tempMinF) / (tempMaxF - tempMinF) }
	stops := []Stop{
		{0, color.RGBA{8, 29, 88, 220}}, // deep cold
		{pos(0), color.RGBA{34, 94, 168, 200}},
		{pos(32), color.RGBA{65, 182, 196, 170}},
		{pos(tempComfortL), color.RGBA{199, 233, 180, 0}}, // comfort band fades out
		{pos(tempComfortH), color.RGBA{254, 217, 118, 0}}, // and back in
		{pos(85), color.RGBA{253, 141, 60, 170}},
		{pos(95), color.RGBA{227, 26, 28, 200}},
		{1, color.RGBA{128, 0, 38, 220}}, // extreme heat
	}
	return Scale{ramp: New(stops...), normalize: linearNormalize(tempMinF, tempMaxF)}
}

// FireConfidence returns the continuous fire detection confidence scale.
// The backend drops detections at or below 50%, so the domain is [50, 100].
func FireConfidence() Scale {
	stops := []Stop{
		{0, color.RGBA{255, 237, 160, 255}},
		{0.5, color.RGBA{254, 178, 76, 255}},
		{1, color.RGBA{240, 59, 32, 255}},
	}
	return Scale{ramp: New(stops...), normalize: linearNormalize(50, 100)}
}

// breakpointNormalize maps raw values onto evenly spaced ramp positions,
// piecewise-linearly between consecutive breakpoints.
func breakpointNormalize(breakpoints []float64) func(float64) float64 {
	n := len(breakpoints)
	return func(raw float64) float64 {
		if math.IsNaN(raw) || raw <= breakpoints[0] {
			return 0
		}
		if raw >= breakpoints[n-1] {
			return 1
		}
		for i := 1; i < n; i++ {
			if raw <= breakpoints[i] {
				segment := (raw - breakpoints[i-1]) / (breakpoints[i] - breakpoints[i-1])
				return (float64(i-1) + segment) / float64(n-1)
			}
		}
		return 1
	}
}

// linearNormalize maps [min, max] linearly onto [0, 1] with clamping.
func linearNormalize(min, max float64) func(float64) float64 {
	return func(raw float64) float64 {
		if math.IsNaN(raw) {
			return 0
		}
		t := (raw - min) / (max - min)
		if t < 0 {
			return 0
		}
		if t > 1 {
			return 1
		}
		return t
	}
}
