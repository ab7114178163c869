// Package mercator rasterizes lat/lon grids into images whose row heights
// are weighted by Web-Mercator vertical distortion, so the result drapes
// undistorted on a Mercator-projected map.
package mercator

import (
	"errors"
	"image"
	"image/color"
	"math"

	"github.com/plumeview/plumeview/internal/render/grid"
)

// ErrEmptyGrid is returned when there is nothing to rasterize. Callers
// should clear any previous overlay instead of drawing.
var ErrEmptyGrid = errors.New("cannot rasterize an empty grid")

// maxMercatorLat clamps latitudes before projection to avoid the
// singularity at the poles.
const maxMercatorLat = 85.0

// DefaultTargetHeight is the nominal output height in pixels. The actual
// height can differ slightly because band allocations are rounded.
const DefaultTargetHeight = 800

// Config controls rasterization.
type Config struct {
	// TargetHeight is the nominal image height in pixels.
	// Default: DefaultTargetHeight.
	TargetHeight int

	// Oversample expands the image width by this factor, interpolating
	// values between adjacent longitude columns for smoother boundaries.
	// 1 disables horizontal interpolation. Default: 1.
	Oversample int
}

// Bounds is the geographic extent of a raster, expanded by half a grid
// cell beyond the outermost samples so the overlay edge aligns with the
// true coverage boundary.
type Bounds struct {
	South float64
	West  float64
	North float64
	East  float64
}

// Raster is a rendered overlay image plus its geographic extent.
type Raster struct {
	Image  *image.RGBA
	Bounds Bounds
}

// ColorFunc maps a raw grid value to a display color. It is only called
// with finite values; cells with no valid data render fully transparent.
type ColorFunc func(value float64) color.RGBA

// Rasterize renders the grid through the color function.
func Rasterize(g grid.Grid, colorFn ColorFunc, cfg Config) (*Raster, error) {
	if g.Empty() {
		return nil, ErrEmptyGrid
	}
	if cfg.TargetHeight <= 0 {
		cfg.TargetHeight = DefaultTargetHeight
	}
	if cfg.Oversample < 1 {
		cfg.Oversample = 1
	}

	rowsPerBand := bandAllocations(g.Latitudes, cfg.TargetHeight)
	height := 0
	for _, rows := range rowsPerBand {
		height += rows
	}
	width := g.Cols() * cfg.Oversample

	img := image.NewRGBA(image.Rect(0, 0, width, height))

	y := 0
	for band := 0; band < g.Rows(); band++ {
		lastBand := band == g.Rows()-1
		for sub := 0; sub < rowsPerBand[band]; sub++ {
			// Fractional position of this pixel row within the band,
			// used to blend toward the next band. The last band has no
			// successor and renders flat.
			fy := 0.0
			if !lastBand {
				fy = float64(sub) / float64(rowsPerBand[band])
			}
			for x := 0; x < width; x++ {
				u := float64(x) / float64(cfg.Oversample)
				c0 := int(u)
				if c0 > g.Cols()-1 {
					c0 = g.Cols() - 1
				}
				c1 := c0 + 1
				if c1 > g.Cols()-1 {
					c1 = g.Cols() - 1
				}
				fx := u - float64(c0)

				r1 := band
				if !lastBand {
					r1 = band + 1
				}
				v, ok := cellValue(g, band, r1, c0, c1, fx, fy)
				if !ok {
					continue // fully transparent
				}
				img.SetRGBA(x, y, colorFn(v))
			}
			y++
		}
	}

	return &Raster{Image: img, Bounds: boundsFor(g)}, nil
}

// bandAllocations distributes the target height over latitude bands in
// proportion to each band's Web-Mercator span. Every band gets at least
// one pixel row.
func bandAllocations(lats []float64, targetHeight int) []int {
	n := len(lats)
	spans := make([]float64, n)
	if n == 1 {
		spans[0] = 1
	} else {
		for i := 0; i < n-1; i++ {
			spans[i] = mercatorY(lats[i]) - mercatorY(lats[i+1])
		}
		// No next band to measure the last span against.
		spans[n-1] = spans[n-2]
	}

	total := 0.0
	for _, s := range spans {
		total += s
	}
	if total <= 0 {
		total = 1
	}

	rows := make([]int, n)
	for i, s := range spans {
		r := int(math.Round(s / total * float64(targetHeight)))
		if r < 1 {
			r = 1
		}
		rows[i] = r
	}
	return rows
}

// mercatorY is the standard spherical Mercator transform, with latitude
// clamped to ±85° to keep the projection finite.
func mercatorY(lat float64) float64 {
	if lat > maxMercatorLat {
		lat = maxMercatorLat
	} else if lat < -maxMercatorLat {
		lat = -maxMercatorLat
	}
	return math.Log(math.Tan(math.Pi/4 + lat*math.Pi/360))
}

// cellValue interpolates across the up-to-four corners around a sub-cell
// position. All-NaN corners yield no value; partial NaN corners reuse the
// nearest valid corner rather than treating missing data as zero.
func cellValue(g grid.Grid, r0, r1, c0, c1 int, fx, fy float64) (float64, bool) {
	corners := [4]float64{
		g.Cell(r0, c0), g.Cell(r0, c1),
		g.Cell(r1, c0), g.Cell(r1, c1),
	}

	valid := 0
	for _, v := range corners {
		if !math.IsNaN(v) {
			valid++
		}
	}
	if valid == 0 {
		return 0, false
	}
	if valid < 4 {
		substituteCorners(&corners, fx, fy)
	}

	top := corners[0] + (corners[1]-corners[0])*fx
	bottom := corners[2] + (corners[3]-corners[2])*fx
	return top + (bottom-top)*fy, true
}

// substituteCorners replaces NaN corners with the nearest valid corner,
// measured from the sample position inside the cell.
func substituteCorners(corners *[4]float64, fx, fy float64) {
	type cornerPos struct{ x, y float64 }
	positions := [4]cornerPos{{0, 0}, {1, 0}, {0, 1}, {1, 1}}

	for i, v := range corners {
		if !math.IsNaN(v) {
			continue
		}
		best := math.Inf(1)
		repl := 0.0
		for j, w := range corners {
			if math.IsNaN(w) {
				continue
			}
			dx := positions[j].x - fx
			dy := positions[j].y - fy
			d := dx*dx + dy*dy
			if d < best {
				best = d
				repl = w
			}
		}
		corners[i] = repl
	}
}

// boundsFor expands the outermost sample coordinates by half a grid cell
// in each direction.
func boundsFor(g grid.Grid) Bounds {
	halfLat := g.LatSpacing() / 2
	halfLon := g.LonSpacing() / 2
	return Bounds{
		North: g.Latitudes[0] + halfLat,
		South: g.Latitudes[len(g.Latitudes)-1] - halfLat,
		West:  g.Longitudes[0] - halfLon,
		East:  g.Longitudes[len(g.Longitudes)-1] + halfLon,
	}
}
