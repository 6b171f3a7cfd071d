package batch

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseMode(t *testing.T) {
	m, err := ParseMode("join")
	require.NoError(t, err)
	assert.Equal(t, Join, m)

	m, err = ParseMode("")
	require.NoError(t, err)
	assert.Equal(t, Filter, m)

	_, err = ParseMode("union")
	assert.Error(t, err)
}

func TestQueryValidate(t *testing.T) {
	tests := []struct {
		name    string
		q       Query
		wantErr error
	}{
		{"filter ok", Query{Src: []uint32{0, 1}, Dst: []uint32{2, 3}}, nil},
		{"join ok", Query{Mode: Join, Src: []uint32{0}, Dst: []uint32{1, 2}, CandidatesRight: []uint64{7, 8}}, nil},
		{"filter lengths", Query{Src: []uint32{0, 1}, Dst: []uint32{2}}, ErrLengthMismatch},
		{"filter right candidates", Query{Src: []uint32{0}, Dst: []uint32{1}, CandidatesRight: []uint64{1}}, ErrLengthMismatch},
		{"left candidates", Query{Src: []uint32{0}, Dst: []uint32{1}, CandidatesLeft: []uint64{1, 2}}, ErrLengthMismatch},
		{"right candidates", Query{Mode: Join, Src: []uint32{0}, Dst: []uint32{1}, CandidatesRight: []uint64{}}, ErrLengthMismatch},
		{"source range", Query{Src: []uint32{4}, Dst: []uint32{0}}, ErrVertexOutOfRange},
		{"destination range", Query{Mode: Join, Src: []uint32{0}, Dst: []uint32{1, 9}}, ErrVertexOutOfRange},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.q.Validate(4)
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestQueryCandidates(t *testing.T) {
	q := Query{Mode: Join, Src: []uint32{0, 1}, Dst: []uint32{2, 3, 4}, CandidatesRight: []uint64{10, 11, 12}}
	assert.Equal(t, 6, q.NumPairs())
	assert.Equal(t, uint64(1), q.LeftCandidate(1))
	assert.Equal(t, uint64(11), q.RightCandidate(1))

	q.Mode = Filter
	q.Dst = q.Dst[:2]
	assert.Equal(t, 2, q.NumPairs())
}

func TestGroupBySource(t *testing.T) {
	q := Query{
		Src: []uint32{3, 1, 3, 2, 1},
		Dst: []uint32{10, 11, 12, 13, 14},
	}
	require.False(t, q.isGrouped())

	q.GroupBySource()
	assert.Equal(t, []uint32{1, 1, 2, 3, 3}, q.Src)
	assert.Equal(t, []uint32{11, 14, 13, 10, 12}, q.Dst)
	// Rows keep their original identity.
	assert.Equal(t, []uint64{1, 4, 3, 0, 2}, q.CandidatesLeft)
	assert.True(t, q.isGrouped())
}

func TestGroupBySourceJoinKeepsDestinations(t *testing.T) {
	q := Query{
		Mode:           Join,
		Src:            []uint32{2, 0, 2},
		Dst:            []uint32{5, 4},
		CandidatesLeft: []uint64{100, 101, 102},
	}
	q.GroupBySource()
	assert.Equal(t, []uint32{0, 2, 2}, q.Src)
	assert.Equal(t, []uint64{101, 100, 102}, q.CandidatesLeft)
	assert.Equal(t, []uint32{5, 4}, q.Dst)
}

func TestGroupBySourceSortedIsNoop(t *testing.T) {
	src := []uint32{0, 0, 1}
	q := Query{Src: src, Dst: []uint32{1, 2, 3}}
	q.GroupBySource()
	assert.Same(t, &src[0], &q.Src[0])
	assert.Nil(t, q.CandidatesLeft)
}

func TestIsGrouped(t *testing.T) {
	assert.True(t, (&Query{Src: []uint32{5, 5, 1, 1, 3}}).isGrouped())
	assert.False(t, (&Query{Src: []uint32{5, 1, 5}}).isGrouped())
	assert.True(t, (&Query{}).isGrouped())
}
