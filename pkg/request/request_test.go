package request

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"spfw/pkg/batch"
	"spfw/pkg/graph"
	"spfw/pkg/snap"
)

// testDataset returns 0->1 (w=1), 1->2 (w=2), 0->2 (w=5) and an isolated
// vertex 3, laid out west to east ~111 m apart, with a "weight" set.
func testDataset(t *testing.T) *graph.Dataset {
	t.Helper()
	ds, err := graph.ReadEdgeList(strings.NewReader("0 1 1\n1 2 2\n0 2 5\n3 3 1\n"))
	require.NoError(t, err)
	g := ds.Graph
	g.NodeLat = []float64{1.30, 1.30, 1.30, 1.30}
	g.NodeLon = []float64{103.800, 103.801, 103.802, 103.803}
	require.NoError(t, ds.Validate())
	return ds
}

func TestDecodeYAML(t *testing.T) {
	doc, err := Decode(strings.NewReader(`
operation: join
sources: [0, 0]
destinations: [1, 2]
candidates_right: [10, 20]
shortest_paths:
  - weights: weight
    path: true
  - {}
`))
	require.NoError(t, err)
	assert.Equal(t, "join", doc.Operation)
	assert.Equal(t, []uint32{0, 0}, doc.Sources)
	assert.Equal(t, []uint64{10, 20}, doc.CandidatesRight)
	require.Len(t, doc.ShortestPaths, 2)
	assert.Equal(t, PathSpec{Weights: "weight", Path: true}, doc.ShortestPaths[0])
	assert.Equal(t, PathSpec{}, doc.ShortestPaths[1])
}

func TestDecodeJSON(t *testing.T) {
	doc, err := Decode(strings.NewReader(`{"operation": "filter", "source_points": [{"lat": 1.3, "lng": 103.8}], "destinations": [2]}`))
	require.NoError(t, err)
	assert.Equal(t, []snap.Point{{Lat: 1.3, Lng: 103.8}}, doc.SourcePoints)
	assert.Equal(t, []uint32{2}, doc.Destinations)
}

func TestDecodeErrors(t *testing.T) {
	for name, input := range map[string]string{
		"empty":         "",
		"unknown field": "operation: filter\nsourcez: [1]\n",
		"bad type":      "sources: [a]\n",
	} {
		t.Run(name, func(t *testing.T) {
			_, err := Decode(strings.NewReader(input))
			assert.ErrorIs(t, err, ErrInvalidRequest)
		})
	}
}

func TestEnsureID(t *testing.T) {
	doc := &Document{}
	id := doc.EnsureID()
	assert.Len(t, id, 36)
	assert.Equal(t, id, doc.EnsureID())

	doc = &Document{ID: "abc"}
	assert.Equal(t, "abc", doc.EnsureID())
}

func TestBuild(t *testing.T) {
	ds := testDataset(t)
	doc := &Document{
		Operation:    "filter",
		Sources:      []uint32{0, 1},
		Destinations: []uint32{2, 2},
		ShortestPaths: []PathSpec{
			{Weights: graph.WeightDefault},
			{Weights: graph.WeightDefault, Path: true},
			{},
		},
	}

	q, reqs, err := Build(doc, ds, nil)
	require.NoError(t, err)
	assert.Equal(t, batch.Filter, q.Mode)
	assert.Equal(t, []uint32{0, 1}, q.Src)
	require.Len(t, reqs, 3)
	assert.NotNil(t, reqs[0].Weights)
	assert.Same(t, &reqs[0].Weights[0], &reqs[1].Weights[0], "same set shares one column")
	assert.True(t, reqs[1].ComputePath)
	assert.Nil(t, reqs[2].Weights)
}

func TestBuildErrors(t *testing.T) {
	ds := testDataset(t)
	snapper, err := snap.NewSnapper(ds.Graph, 50)
	require.NoError(t, err)

	tests := []struct {
		name    string
		doc     Document
		snapper *snap.Snapper
		wantErr error
	}{
		{"bad operation", Document{Operation: "union"}, nil, ErrInvalidRequest},
		{
			"ids and points",
			Document{Sources: []uint32{0}, SourcePoints: []snap.Point{{Lat: 1.3, Lng: 103.8}}},
			snapper, ErrInvalidRequest,
		},
		{"points without index", Document{SourcePoints: []snap.Point{{Lat: 1.3, Lng: 103.8}}}, nil, ErrNoSnapper},
		{
			"point too far",
			Document{Sources: []uint32{0}, DestinationPoints: []snap.Point{{Lat: 1.4, Lng: 103.8}}},
			snapper, snap.ErrPointTooFar,
		},
		{
			"unknown weights",
			Document{Sources: []uint32{0}, Destinations: []uint32{1}, ShortestPaths: []PathSpec{{Weights: "duration"}}},
			nil, graph.ErrUnknownWeightSet,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := Build(&tt.doc, ds, tt.snapper)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestExecute(t *testing.T) {
	ds := testDataset(t)
	snapper, err := snap.NewSnapper(ds.Graph, 50)
	require.NoError(t, err)

	doc := &Document{
		ID:              "req-1",
		Operation:       "join",
		SourcePoints:    []snap.Point{{Lat: 1.3, Lng: 103.8}, {Lat: 1.3, Lng: 103.8001}},
		Destinations:    []uint32{1, 2, 3},
		CandidatesRight: []uint64{100, 200, 300},
		ShortestPaths:   []PathSpec{{Weights: graph.WeightDefault, Path: true}},
	}

	resp, err := Execute(context.Background(), doc, ds, snapper)
	require.NoError(t, err)

	assert.Equal(t, "req-1", resp.ID)
	assert.Equal(t, []uint64{0, 0, 1, 1}, resp.Left)
	assert.Equal(t, []uint64{100, 200, 100, 200}, resp.Right)
	require.Len(t, resp.Results, 1)
	assert.Equal(t, []uint64{1, 3, 1, 3}, resp.Results[0].Costs)
	assert.Equal(t, [][]uint32{{0}, {0, 1}, {0}, {0, 1}}, resp.Results[0].Paths)
	assert.Equal(t, 1, resp.Stats.Traversals)
	assert.Equal(t, 1, resp.Stats.Duplicated)
}

func TestExecuteInvalidQuery(t *testing.T) {
	ds := testDataset(t)
	doc := &Document{Sources: []uint32{0, 1}, Destinations: []uint32{2}}
	_, err := Execute(context.Background(), doc, ds, nil)
	assert.ErrorIs(t, err, batch.ErrLengthMismatch)
}

func TestResponseYAML(t *testing.T) {
	ds := testDataset(t)
	doc := &Document{
		Sources:       []uint32{0, 0},
		Destinations:  []uint32{2, 3},
		ShortestPaths: []PathSpec{{Weights: graph.WeightDefault, Path: true}},
	}
	resp, err := Execute(context.Background(), doc, ds, nil)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, resp.WriteYAML(&buf))

	var back Response
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &back))
	assert.Equal(t, []uint64{0}, back.Left)
	assert.Equal(t, []uint64{3}, back.Results[0].Costs)
	assert.Equal(t, [][]uint32{{0, 1}}, back.Results[0].Paths)
}

func TestNewResponseEmpty(t *testing.T) {
	resp := NewResponse("", &batch.Result{Requests: []*batch.ShortestPathRequest{{}}})
	assert.NotNil(t, resp.Left)
	assert.NotNil(t, resp.Results[0].Costs)
	assert.Nil(t, resp.Results[0].Paths)
}
