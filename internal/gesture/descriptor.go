package gesture

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/septagon/TRACE/internal/editdist"
	"github.com/septagon/TRACE/internal/trajectory"
)

// DefaultFinestResolution is the point count of the finest descriptor level.
const DefaultFinestResolution = 32

// ErrLevelMismatch is returned when descriptors with different level counts
// are compared.
var ErrLevelMismatch = errors.New("gesture: descriptor level count mismatch")

// LevelResolutions returns the resample targets of a descriptor, finest
// first: finest, finest/2, ... down to (excluding) 2.
func LevelResolutions(finest int) []int {
	var res []int
	for r := finest; r > 2; r /= 2 {
		res = append(res, r)
	}
	return res
}

// Descriptor is a multi-resolution token encoding of a trajectory. Level 0
// is the finest resolution.
type Descriptor struct {
	levels []editdist.Sequence
}

// Describe resamples t at every level resolution and tokenizes each
// resampled copy against directions. costs must be the edit alphabet derived
// from directions.
func Describe(t *trajectory.Trajectory, directions []r3.Vec, costs *editdist.Alphabet, finest int) (Descriptor, error) {
	resolutions := LevelResolutions(finest)
	levels := make([][]int, 0, len(resolutions))
	for _, res := range resolutions {
		resampled, err := t.Resample(res)
		if err != nil {
			return Descriptor{}, fmt.Errorf("resample at %d: %w", res, err)
		}
		levels = append(levels, resampled.Tokenize(directions))
	}
	return NewDescriptor(costs, levels)
}

// NewDescriptor binds raw token levels to an edit alphabet.
func NewDescriptor(costs *editdist.Alphabet, levels [][]int) (Descriptor, error) {
	d := Descriptor{levels: make([]editdist.Sequence, len(levels))}
	for i, toks := range levels {
		seq, err := costs.Sequence(toks)
		if err != nil {
			return Descriptor{}, fmt.Errorf("level %d: %w", i, err)
		}
		d.levels[i] = seq
	}
	return d, nil
}

// NumLevels returns the number of resolution levels.
func (d Descriptor) NumLevels() int { return len(d.levels) }

// Levels returns a copy of the token indices of every level.
func (d Descriptor) Levels() [][]int {
	out := make([][]int, len(d.levels))
	for i, seq := range d.levels {
		out[i] = make([]int, 0, seq.Len())
		out[i] = append(out[i], seq.Tokens()...)
	}
	return out
}

// LevelWeight returns the weight of level i in Distance. Coarser levels
// hold fewer tokens and describe the overall shape, so each halving of the
// resolution doubles the weight.
func LevelWeight(i int) float64 {
	return math.Ldexp(1, i)
}

// Distance returns the weighted sum of per-level edit distances.
func (d Descriptor) Distance(other Descriptor) (float64, error) {
	if len(d.levels) != len(other.levels) {
		return 0, fmt.Errorf("%w: %d vs %d", ErrLevelMismatch, len(d.levels), len(other.levels))
	}

	var total float64
	for i := range d.levels {
		dist, err := editdist.Distance(d.levels[i], other.levels[i])
		if err != nil {
			return 0, fmt.Errorf("level %d: %w", i, err)
		}
		total += LevelWeight(i) * dist
	}
	return total, nil
}
