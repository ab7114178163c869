// Package cluster groups nearby point markers into aggregate glyphs so the
// rendered element count stays bounded at low zoom.
package cluster

import (
	"math"
	"sort"
)

// Config controls the clustering grid.
type Config struct {
	// BaseCellDegrees is the clustering cell size at zoom 0. The cell
	// halves with each zoom level. Default: 8.
	BaseCellDegrees float64

	// MinCellDegrees is the floor below which cells stop shrinking and
	// clustering effectively turns off. Default: 0.05.
	MinCellDegrees float64

	// MinClusterSize is the smallest group rendered as an aggregate
	// glyph; smaller groups pass through as individual points.
	// Default: 2.
	MinClusterSize int
}

// DefaultConfig returns the default clustering configuration.
func DefaultConfig() Config {
	return Config{
		BaseCellDegrees: 8,
		MinCellDegrees:  0.05,
		MinClusterSize:  2,
	}
}

// Point is a clusterable map position.
type Point struct {
	Lat float64
	Lon float64
}

// Cluster is a group of input points. Count 1 means an unclustered
// passthrough point; Members indexes into the input slice.
type Cluster struct {
	Lat     float64 // centroid
	Lon     float64
	Count   int
	Members []int
}

// Coordinator groups markers by snapping them onto a zoom-scaled grid.
type Coordinator struct {
	cfg Config
}

// NewCoordinator creates a coordinator, filling zero config fields with
// defaults.
func NewCoordinator(cfg Config) *Coordinator {
	def := DefaultConfig()
	if cfg.BaseCellDegrees <= 0 {
		cfg.BaseCellDegrees = def.BaseCellDegrees
	}
	if cfg.MinCellDegrees <= 0 {
		cfg.MinCellDegrees = def.MinCellDegrees
	}
	if cfg.MinClusterSize <= 0 {
		cfg.MinClusterSize = def.MinClusterSize
	}
	return &Coordinator{cfg: cfg}
}

// Group clusters the points at the given zoom level. Output order is
// deterministic (sorted by cell, then input order within a cell).
func (c *Coordinator) Group(points []Point, zoom int) []Cluster {
	if len(points) == 0 {
		return nil
	}

	cell := c.cellSize(zoom)
	buckets := make(map[[2]int][]int)
	for i, p := range points {
		key := [2]int{
			int(math.Floor(p.Lat / cell)),
			int(math.Floor(p.Lon / cell)),
		}
		buckets[key] = append(buckets[key], i)
	}

	keys := make([][2]int, 0, len(buckets))
	for k := range buckets {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(a, b int) bool {
		if keys[a][0] != keys[b][0] {
			return keys[a][0] < keys[b][0]
		}
		return keys[a][1] < keys[b][1]
	})

	clusters := make([]Cluster, 0, len(keys))
	for _, k := range keys {
		members := buckets[k]
		if len(members) < c.cfg.MinClusterSize {
			for _, i := range members {
				clusters = append(clusters, Cluster{
					Lat:     points[i].Lat,
					Lon:     points[i].Lon,
					Count:   1,
					Members: []int{i},
				})
			}
			continue
		}
		var latSum, lonSum float64
		for _, i := range members {
			latSum += points[i].Lat
			lonSum += points[i].Lon
		}
		clusters = append(clusters, Cluster{
			Lat:     latSum / float64(len(members)),
			Lon:     lonSum / float64(len(members)),
			Count:   len(members),
			Members: members,
		})
	}
	return clusters
}

func (c *Coordinator) cellSize(zoom int) float64 {
	if zoom < 0 {
		zoom = 0
	}
	size := c.cfg.BaseCellDegrees / math.Pow(2, float64(zoom))
	if size < c.cfg.MinCellDegrees {
		return c.cfg.MinCellDegrees
	}
	return size
}
