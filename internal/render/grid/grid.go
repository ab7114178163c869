// Package grid converts scattered forecast samples into dense regular
// lat/lon grids for rasterization.
package grid

import (
	"math"
	"sort"

	"github.com/plumeview/plumeview/internal/forecast"
)

// FallbackSpacing is the axis spacing assumed when fewer than two distinct
// coordinates are observed, so downstream math never divides by zero.
const FallbackSpacing = 1.2

// roundCoord rounds coordinates to 2 decimals so floating-point jitter
// in the source data still keys onto the same lattice position.
func roundCoord(v float64) float64 {
	return math.Round(v*100) / 100
}

// Grid is a dense 2D field. Latitudes are sorted descending (north to
// south), longitudes ascending (west to east). A NaN cell means no sample
// matched that lattice position.
type Grid struct {
	Latitudes  []float64
	Longitudes []float64
	Cells      [][]float64
}

// FromSamples builds a grid from an unordered sample set assumed to lie on
// a regular lattice. Irregular input silently produces sparse NaN cells.
func FromSamples(samples []forecast.Sample) Grid {
	latSet := make(map[float64]struct{})
	lonSet := make(map[float64]struct{})
	values := make(map[[2]float64]float64, len(samples))

	for _, s := range samples {
		lat := roundCoord(s.Lat)
		lon := roundCoord(s.Lon)
		latSet[lat] = struct{}{}
		lonSet[lon] = struct{}{}
		values[[2]float64{lat, lon}] = s.Value
	}

	lats := make([]float64, 0, len(latSet))
	for lat := range latSet {
		lats = append(lats, lat)
	}
	sort.Sort(sort.Reverse(sort.Float64Slice(lats)))

	lons := make([]float64, 0, len(lonSet))
	for lon := range lonSet {
		lons = append(lons, lon)
	}
	sort.Float64s(lons)

	cells := make([][]float64, len(lats))
	for i, lat := range lats {
		row := make([]float64, len(lons))
		for j, lon := range lons {
			if v, ok := values[[2]float64{lat, lon}]; ok {
				row[j] = v
			} else {
				row[j] = math.NaN()
			}
		}
		cells[i] = row
	}

	return Grid{Latitudes: lats, Longitudes: lons, Cells: cells}
}

// Empty reports whether the grid has no cells.
func (g Grid) Empty() bool {
	return len(g.Latitudes) == 0 || len(g.Longitudes) == 0
}

// Rows returns the latitude count.
func (g Grid) Rows() int { return len(g.Latitudes) }

// Cols returns the longitude count.
func (g Grid) Cols() int { return len(g.Longitudes) }

// Cell returns the value at the given row and column. NaN means no data.
func (g Grid) Cell(row, col int) float64 {
	return g.Cells[row][col]
}

// LatSpacing returns the mean absolute latitude step, or FallbackSpacing
// for degenerate grids.
func (g Grid) LatSpacing() float64 {
	return axisSpacing(g.Latitudes)
}

// LonSpacing returns the mean absolute longitude step, or FallbackSpacing
// for degenerate grids.
func (g Grid) LonSpacing() float64 {
	return axisSpacing(g.Longitudes)
}

func axisSpacing(axis []float64) float64 {
	if len(axis) < 2 {
		return FallbackSpacing
	}
	span := math.Abs(axis[len(axis)-1] - axis[0])
	if span == 0 {
		return FallbackSpacing
	}
	return span / float64(len(axis)-1)
}
