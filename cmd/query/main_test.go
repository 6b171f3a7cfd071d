package main

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"spfw/pkg/config"
	"spfw/pkg/graph"
	"spfw/pkg/request"
)

func writeDataset(t *testing.T) string {
	t.Helper()
	ds, err := graph.ReadEdgeList(strings.NewReader("0 1 1\n1 2 2\n0 2 5\n"))
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "graph.spfw")
	require.NoError(t, graph.WriteBinary(path, ds))
	return path
}

func TestRunJoin(t *testing.T) {
	cfg := config.Default()
	cfg.Dataset = writeDataset(t)
	cfg.Log.Level = "error"

	in := strings.NewReader(`
id: q1
operation: join
sources: [0, 1]
destinations: [2]
shortest_paths:
  - weights: weight
`)
	var out bytes.Buffer
	require.NoError(t, run(context.Background(), cfg, "-", "-", in, &out))

	var resp request.Response
	require.NoError(t, yaml.Unmarshal(out.Bytes(), &resp))
	assert.Equal(t, "q1", resp.ID)
	assert.Equal(t, []uint64{0, 1}, resp.Left)
	assert.Equal(t, []uint64{0, 0}, resp.Right)
	require.Len(t, resp.Results, 1)
	assert.Equal(t, []uint64{3, 2}, resp.Results[0].Costs)
}

func TestRunErrors(t *testing.T) {
	cfg := config.Default()
	cfg.Dataset = writeDataset(t)
	cfg.Log.Level = "error"

	var out bytes.Buffer
	err := run(context.Background(), cfg, "-", "-", strings.NewReader("operation: filter\nbogus: 1\n"), &out)
	assert.ErrorIs(t, err, request.ErrInvalidRequest)

	cfg.Dataset = filepath.Join(t.TempDir(), "missing.spfw")
	err = run(context.Background(), cfg, "-", "-", strings.NewReader("operation: filter\n"), &out)
	assert.Error(t, err)
	assert.Empty(t, out.String())
}
