package gesture

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/septagon/TRACE/internal/editdist"
)

func TestLevelResolutions(t *testing.T) {
	assert.Equal(t, []int{32, 16, 8, 4}, LevelResolutions(32))
	assert.Equal(t, []int{64, 32, 16, 8, 4}, LevelResolutions(64))
	assert.Equal(t, []int{3}, LevelResolutions(3))
	assert.Empty(t, LevelResolutions(2))
}

func TestLevelWeight(t *testing.T) {
	assert.Equal(t, 1.0, LevelWeight(0))
	assert.Equal(t, 2.0, LevelWeight(1))
	assert.Equal(t, 8.0, LevelWeight(3))
}

func TestDescribe(t *testing.T) {
	v := newTestVocabulary(t)

	d, err := v.Describe(circle(t, 0.2))
	require.NoError(t, err)
	require.Equal(t, 4, d.NumLevels())

	levels := d.Levels()
	for i := 1; i < len(levels); i++ {
		assert.LessOrEqual(t, len(levels[i]), len(levels[i-1]), "level %d is coarser than level %d", i, i-1)
	}
	assert.NotEmpty(t, levels[0])

	self, err := d.Distance(d)
	require.NoError(t, err)
	assert.Equal(t, 0.0, self)
}

func TestDescriptor_DistanceIsWeighted(t *testing.T) {
	costs := editdist.Uniform(2)

	a, err := NewDescriptor(costs, [][]int{{0}, {0}, {0}})
	require.NoError(t, err)
	b, err := NewDescriptor(costs, [][]int{{1}, {1}, {1}})
	require.NoError(t, err)

	d, err := a.Distance(b)
	require.NoError(t, err)
	assert.Equal(t, 1.0+2+4, d)
}

func TestDescriptor_EmptyLevels(t *testing.T) {
	costs := editdist.Uniform(2)

	empty, err := NewDescriptor(costs, [][]int{{}, nil})
	require.NoError(t, err)
	full, err := NewDescriptor(costs, [][]int{{0, 1, 1}, {1}})
	require.NoError(t, err)

	d, err := empty.Distance(full)
	require.NoError(t, err)
	assert.Equal(t, 3.0+2*1, d)

	assert.Equal(t, [][]int{{}, {}}, empty.Levels(), "levels are never nil")
}

func TestDescriptor_LevelMismatch(t *testing.T) {
	costs := editdist.Uniform(2)
	a, _ := NewDescriptor(costs, [][]int{{0}})
	b, _ := NewDescriptor(costs, [][]int{{0}, {1}})

	_, err := a.Distance(b)
	assert.ErrorIs(t, err, ErrLevelMismatch)
}

func TestDescriptor_AlphabetMismatch(t *testing.T) {
	a, _ := NewDescriptor(editdist.Uniform(2), [][]int{{0}})
	b, _ := NewDescriptor(editdist.Uniform(2), [][]int{{0}})

	_, err := a.Distance(b)
	assert.ErrorIs(t, err, editdist.ErrAlphabetMismatch)
}

func TestNewDescriptor_TokenOutOfRange(t *testing.T) {
	_, err := NewDescriptor(editdist.Uniform(2), [][]int{{0, 2}})
	assert.ErrorIs(t, err, editdist.ErrTokenRange)
}
