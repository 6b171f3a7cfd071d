package graph_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"spfw/pkg/graph"
)

func buildTestDataset(t *testing.T) *graph.Dataset {
	t.Helper()
	g, perm := graph.Build(4, []graph.RawEdge{
		{From: 0, To: 1}, {From: 1, To: 0},
		{From: 1, To: 2}, {From: 2, To: 1},
		{From: 0, To: 3}, {From: 3, To: 0},
	}, false)
	g.NodeLat = []float64{1.0, 1.1, 1.2, 1.3}
	g.NodeLon = []float64{103.0, 103.1, 103.2, 103.3}

	ds := graph.NewDataset(g)
	ds.Weights[graph.WeightDistance] = graph.Permute([]uint32{100, 100, 200, 200, 300, 300}, perm)
	ds.Weights[graph.WeightDuration] = graph.Permute([]uint32{10, 10, 20, 20, 30, 30}, perm)
	require.NoError(t, ds.Validate())
	return ds
}

func TestBinaryRoundTrip(t *testing.T) {
	original := buildTestDataset(t)
	path := filepath.Join(t.TempDir(), "test.spfw")

	require.NoError(t, graph.WriteBinary(path, original))

	loaded, err := graph.ReadBinary(path)
	require.NoError(t, err)

	assert.Equal(t, original.Graph.NumVertices, loaded.Graph.NumVertices)
	assert.Equal(t, original.Graph.Offsets, loaded.Graph.Offsets)
	assert.Equal(t, original.Graph.Dest, loaded.Graph.Dest)
	assert.Equal(t, original.Graph.EdgeID, loaded.Graph.EdgeID)
	assert.Equal(t, original.Graph.NodeLat, loaded.Graph.NodeLat)
	assert.Equal(t, original.Graph.NodeLon, loaded.Graph.NodeLon)
	assert.Equal(t, original.Weights, loaded.Weights)

	_, err = os.Stat(path + ".tmp")
	assert.True(t, os.IsNotExist(err), "temp file left behind")
}

func TestBinaryRoundTripNoCoordinates(t *testing.T) {
	g, _ := graph.Build(3, []graph.RawEdge{{From: 0, To: 1}, {From: 1, To: 2}}, false)
	path := filepath.Join(t.TempDir(), "plain.spfw")

	require.NoError(t, graph.WriteBinary(path, graph.NewDataset(g)))
	loaded, err := graph.ReadBinary(path)
	require.NoError(t, err)

	assert.False(t, loaded.Graph.HasCoordinates())
	assert.Empty(t, loaded.Weights)
	assert.Equal(t, g.Dest, loaded.Graph.Dest)
}

func TestBinaryInvalidMagic(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.spfw")
	require.NoError(t, os.WriteFile(path, []byte("NOT_A_DATASET_FILE_AT_ALL_PADDING_"), 0o644))

	_, err := graph.ReadBinary(path)
	assert.ErrorContains(t, err, "invalid magic")
}

func TestBinaryTruncatedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "trunc.spfw")
	require.NoError(t, graph.WriteBinary(path, buildTestDataset(t)))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, data[:len(data)/2], 0o644))

	_, err = graph.ReadBinary(path)
	assert.Error(t, err)
}

func TestBinaryCorruptPayload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "corrupt.spfw")
	require.NoError(t, graph.WriteBinary(path, buildTestDataset(t)))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	// Flip a byte in the last coordinate, past the topology.
	data[len(data)-6] ^= 0xff
	require.NoError(t, os.WriteFile(path, data, 0o644))

	_, err = graph.ReadBinary(path)
	assert.ErrorContains(t, err, "CRC32 mismatch")
}

func TestWriteBinaryRejectsInvalidDataset(t *testing.T) {
	ds := buildTestDataset(t)
	ds.Weights["short"] = []uint32{1}

	err := graph.WriteBinary(filepath.Join(t.TempDir(), "x.spfw"), ds)
	assert.Error(t, err)
}
