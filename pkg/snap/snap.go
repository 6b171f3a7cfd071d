// Package snap maps coordinates to the nearest graph vertex.
package snap

import (
	"errors"
	"fmt"
	"math"

	"github.com/tidwall/rtree"

	"spfw/pkg/geo"
	"spfw/pkg/graph"
)

// DefaultMaxDistance is the snapping radius used when none is configured.
const DefaultMaxDistance = 500.0

var (
	// ErrPointTooFar is returned when no vertex lies within the snapping radius.
	ErrPointTooFar = errors.New("point too far from any vertex")
	// ErrNoCoordinates is returned when the graph carries no vertex coordinates.
	ErrNoCoordinates = errors.New("graph has no vertex coordinates")
)

// Point is a WGS84 coordinate.
type Point struct {
	Lat float64 `json:"lat" yaml:"lat"`
	Lng float64 `json:"lng" yaml:"lng"`
}

// Result is a snapped point.
type Result struct {
	Vertex uint32
	Dist   float64 // meters from the query point to the vertex
}

// Snapper indexes vertex coordinates in an R-tree.
// It is safe for concurrent use once built.
type Snapper struct {
	tree    rtree.RTreeG[uint32]
	g       *graph.Graph
	maxDist float64
}

// NewSnapper indexes every vertex of g. A maxDist of zero selects
// DefaultMaxDistance.
func NewSnapper(g *graph.Graph, maxDist float64) (*Snapper, error) {
	if !g.HasCoordinates() {
		return nil, ErrNoCoordinates
	}
	if maxDist <= 0 {
		maxDist = DefaultMaxDistance
	}
	s := &Snapper{g: g, maxDist: maxDist}
	for v := range g.NumVertices {
		pt := [2]float64{g.NodeLon[v], g.NodeLat[v]}
		s.tree.Insert(pt, pt, v)
	}
	return s, nil
}

// Len returns the number of indexed vertices.
func (s *Snapper) Len() int { return s.tree.Len() }

// MaxDistance returns the snapping radius in meters.
func (s *Snapper) MaxDistance() float64 { return s.maxDist }

// Snap returns the vertex nearest to p within the snapping radius.
// Ties go to the lower vertex index.
func (s *Snapper) Snap(p Point) (Result, error) {
	minLat, minLon, maxLat, maxLon := geo.BoundingBox(p.Lat, p.Lng, s.maxDist)

	best := Result{Vertex: graph.NoEdge, Dist: math.Inf(1)}
	s.tree.Search([2]float64{minLon, minLat}, [2]float64{maxLon, maxLat},
		func(_, _ [2]float64, v uint32) bool {
			d := geo.EquirectangularDist(p.Lat, p.Lng, s.g.NodeLat[v], s.g.NodeLon[v])
			if d < best.Dist || (d == best.Dist && v < best.Vertex) {
				best = Result{Vertex: v, Dist: d}
			}
			return true
		})

	// Rank with the cheap approximation, report and limit the exact distance.
	if best.Vertex != graph.NoEdge {
		best.Dist = geo.Haversine(p.Lat, p.Lng, s.g.NodeLat[best.Vertex], s.g.NodeLon[best.Vertex])
	}
	if best.Vertex == graph.NoEdge || best.Dist > s.maxDist {
		return Result{}, fmt.Errorf("%w: (%f, %f) beyond %.0f m", ErrPointTooFar, p.Lat, p.Lng, s.maxDist)
	}
	return best, nil
}

// SnapAll snaps every point and returns the vertex indices. The first point
// that cannot be snapped fails the call; the error names its position.
func (s *Snapper) SnapAll(points []Point) ([]uint32, error) {
	out := make([]uint32, len(points))
	for i, p := range points {
		r, err := s.Snap(p)
		if err != nil {
			return nil, fmt.Errorf("point %d: %w", i, err)
		}
		out[i] = r.Vertex
	}
	return out, nil
}
