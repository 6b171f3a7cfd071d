package batch

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPathColumn(t *testing.T) {
	var c PathColumn
	c.Append([]uint32{1, 2, 3})
	c.Append(nil)
	c.Append([]uint32{4})

	require.Equal(t, 3, c.Len())
	assert.Equal(t, []uint32{1, 2, 3}, c.At(0))
	assert.Empty(t, c.At(1))
	assert.Equal(t, []uint32{4}, c.At(2))

	c.DuplicateTail(2)
	require.Equal(t, 5, c.Len())
	assert.Empty(t, c.At(3))
	assert.Equal(t, []uint32{4}, c.At(4))
	assert.Equal(t, [][]uint32{{1, 2, 3}, {}, {4}, {}, {4}}, c.Rows())
}

func TestRequestPathsNotRequestedPanics(t *testing.T) {
	r := &ShortestPathRequest{}
	assert.PanicsWithValue(t, ErrPathNotRequested, func() { r.Paths() })

	r.ComputePath = true
	assert.NotPanics(t, func() { r.Paths() })
}

func TestRequestDuplicateTail(t *testing.T) {
	r := &ShortestPathRequest{ComputePath: true}
	r.append(5, []uint32{1})
	r.append(7, []uint32{1, 2})
	r.duplicateTail(2)

	assert.Equal(t, []uint64{5, 7, 5, 7}, r.Costs())
	assert.Equal(t, []uint32{1, 2}, r.Paths().At(3))
	assert.Equal(t, 4, r.Len())

	r.reset()
	assert.Zero(t, r.Len())
	assert.Zero(t, r.Paths().Len())
}

func TestSameWeights(t *testing.T) {
	a := []uint32{1, 2, 3}
	b := []uint32{1, 2, 3}
	assert.True(t, sameWeights(nil, nil))
	assert.True(t, sameWeights(a, a))
	assert.False(t, sameWeights(a, b), "equal content is not the same column")
	assert.False(t, sameWeights(a, nil))
	assert.False(t, sameWeights(a, a[:2]))
}

func TestPlanSets(t *testing.T) {
	dist := []uint32{1}
	dur := []uint32{2}
	reqs := []*ShortestPathRequest{
		{Weights: dist, ComputePath: true},
		{Weights: dur},
		{Weights: dist},
		{},
	}

	sets := planSets(reqs)
	require.Len(t, sets, 3)

	assert.Nil(t, sets[0].weights)
	assert.Equal(t, []*ShortestPathRequest{reqs[3]}, sets[0].requests)

	// Cost-only requests come before path requests within the weighted rank.
	assert.Equal(t, []*ShortestPathRequest{reqs[1]}, sets[1].requests)
	assert.Equal(t, []*ShortestPathRequest{reqs[2], reqs[0]}, sets[2].requests)
	assert.True(t, sets[2].needPath)
	assert.False(t, sets[1].needPath)

	empty := planSets(nil)
	require.Len(t, empty, 1)
	assert.Empty(t, empty[0].requests)
}
