package snap

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"spfw/pkg/graph"
)

// gridGraph places vertices on a 3x3 grid with ~111 m spacing near Singapore.
func gridGraph(t *testing.T) *graph.Graph {
	t.Helper()
	g, _ := graph.Build(9, []graph.RawEdge{{From: 0, To: 1}}, false)
	g.NodeLat = make([]float64, 9)
	g.NodeLon = make([]float64, 9)
	for r := range 3 {
		for c := range 3 {
			g.NodeLat[r*3+c] = 1.30 + float64(r)*0.001
			g.NodeLon[r*3+c] = 103.80 + float64(c)*0.001
		}
	}
	require.True(t, g.HasCoordinates())
	return g
}

func TestSnapNearest(t *testing.T) {
	s, err := NewSnapper(gridGraph(t), 0)
	require.NoError(t, err)
	assert.Equal(t, 9, s.Len())
	assert.Equal(t, DefaultMaxDistance, s.MaxDistance())

	tests := []struct {
		name string
		p    Point
		want uint32
	}{
		{"exact vertex", Point{Lat: 1.30, Lng: 103.80}, 0},
		{"near center", Point{Lat: 1.3011, Lng: 103.8009}, 4},
		{"near far corner", Point{Lat: 1.3024, Lng: 103.8023}, 8},
		{"outside grid but in radius", Point{Lat: 1.2990, Lng: 103.8020}, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := s.Snap(tt.p)
			require.NoError(t, err)
			assert.Equal(t, tt.want, r.Vertex)
			assert.Less(t, r.Dist, 200.0)
		})
	}
}

func TestSnapTooFar(t *testing.T) {
	s, err := NewSnapper(gridGraph(t), 100)
	require.NoError(t, err)

	_, err = s.Snap(Point{Lat: 1.31, Lng: 103.80})
	assert.ErrorIs(t, err, ErrPointTooFar)

	// Inside the search box but beyond the radius.
	_, err = s.Snap(Point{Lat: 1.2992, Lng: 103.7992})
	assert.ErrorIs(t, err, ErrPointTooFar)
}

func TestSnapAll(t *testing.T) {
	s, err := NewSnapper(gridGraph(t), 0)
	require.NoError(t, err)

	got, err := s.SnapAll([]Point{{Lat: 1.30, Lng: 103.80}, {Lat: 1.302, Lng: 103.802}})
	require.NoError(t, err)
	assert.Equal(t, []uint32{0, 8}, got)

	_, err = s.SnapAll([]Point{{Lat: 1.30, Lng: 103.80}, {Lat: 10, Lng: 10}})
	assert.ErrorIs(t, err, ErrPointTooFar)
	assert.ErrorContains(t, err, "point 1")
}

func TestNewSnapperRequiresCoordinates(t *testing.T) {
	g, _ := graph.Build(2, []graph.RawEdge{{From: 0, To: 1}}, false)
	_, err := NewSnapper(g, 0)
	assert.ErrorIs(t, err, ErrNoCoordinates)
}
