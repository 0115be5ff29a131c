// Package direction generates and queries direction alphabets: fixed, ordered
// sets of unit vectors spread evenly over the sphere. Token indices into an
// alphabet are persisted, so generation is fully deterministic for a given
// set of options.
package direction

import (
	"errors"
	"fmt"
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/septagon/TRACE/internal/geom"
)

// Generation defaults.
const (
	DefaultSize       = 128
	DefaultIterations = 256
	DefaultStartStep  = 0.1
	DefaultEndStep    = 0.001
	DefaultSeed       = 11311
)

// minSeparationSq is the squared distance under which two vectors exert no
// force on each other.
const minSeparationSq = 1e-3 * 1e-3

var (
	// ErrInvalidSize is returned when the requested alphabet cannot hold any
	// tokens or cannot hold all pinned vectors.
	ErrInvalidSize = errors.New("direction: invalid alphabet size")
	// ErrInvalidIterations is returned for a non-positive iteration count.
	ErrInvalidIterations = errors.New("direction: iterations must be positive")
	// ErrInvalidPinned is returned when a pinned vector has no direction.
	ErrInvalidPinned = errors.New("direction: pinned vector has zero length")
)

// Options controls alphabet generation.
type Options struct {
	Size       int
	Iterations int
	StartStep  float64
	EndStep    float64
	Seed       int64
	// Pinned vectors are normalized and placed, in order, at the lowest
	// indices. They never move during relaxation.
	Pinned []r3.Vec
}

// DefaultOptions returns the options used for new vocabularies.
func DefaultOptions() Options {
	return Options{
		Size:       DefaultSize,
		Iterations: DefaultIterations,
		StartStep:  DefaultStartStep,
		EndStep:    DefaultEndStep,
		Seed:       DefaultSeed,
	}
}

// Generate returns opts.Size unit vectors relaxed apart from each other by a
// simplified Thomson-problem simulation: every free vector is pushed away
// from every other vector by an inverse-square force and projected back onto
// the unit sphere. The step size shrinks linearly from StartStep to EndStep.
func Generate(opts Options) ([]r3.Vec, error) {
	if opts.Size < 1 || len(opts.Pinned) > opts.Size {
		return nil, fmt.Errorf("%w: size %d with %d pinned", ErrInvalidSize, opts.Size, len(opts.Pinned))
	}
	if opts.Iterations < 1 {
		return nil, ErrInvalidIterations
	}

	tokens := make([]r3.Vec, opts.Size)
	for i, p := range opts.Pinned {
		u, ok := geom.Normalize(p)
		if !ok {
			return nil, fmt.Errorf("%w: index %d", ErrInvalidPinned, i)
		}
		tokens[i] = u
	}

	rng := rand.New(rand.NewPCG(uint64(opts.Seed), 0))
	for i := len(opts.Pinned); i < len(tokens); i++ {
		tokens[i] = randomUnit(rng)
	}

	free := len(opts.Pinned)
	for it := 0; it < opts.Iterations; it++ {
		step := opts.StartStep
		if opts.Iterations > 1 {
			frac := float64(it) / float64(opts.Iterations-1)
			step = (1-frac)*opts.StartStep + frac*opts.EndStep
		}

		for i := free; i < len(tokens); i++ {
			here := tokens[i]
			var force r3.Vec
			for _, there := range tokens {
				d := r3.Sub(here, there)
				sq := r3.Norm2(d)
				if sq < minSeparationSq {
					continue
				}
				force = r3.Add(force, r3.Scale(1/(r3.Norm(d)*sq), d))
			}

			moved, ok := geom.Normalize(r3.Add(here, r3.Scale(step, force)))
			if !ok {
				// Only reachable with absurd step sizes; keep the old position.
				continue
			}
			tokens[i] = moved
		}
	}

	return tokens, nil
}

// randomUnit draws a random direction. Components are uniform in [-0.5, 0.5).
func randomUnit(rng *rand.Rand) r3.Vec {
	for {
		v := r3.Vec{
			X: rng.Float64() - 0.5,
			Y: rng.Float64() - 0.5,
			Z: rng.Float64() - 0.5,
		}
		if u, ok := geom.Normalize(v); ok {
			return u
		}
	}
}

// Nearest returns the index of the token with the largest dot product with v,
// i.e. the nearest token by cosine distance. Ties go to the lowest index.
// It returns -1 for an empty alphabet.
func Nearest(tokens []r3.Vec, v r3.Vec) int {
	if len(tokens) == 0 {
		return -1
	}

	best := 0
	bestScore := r3.Dot(tokens[0], v)
	for i := 1; i < len(tokens); i++ {
		if score := r3.Dot(tokens[i], v); score > bestScore {
			best = i
			bestScore = score
		}
	}
	return best
}

// MinSeparation returns the smallest angular distance, in radians, between
// any two tokens. It is zero for alphabets with fewer than two tokens.
func MinSeparation(tokens []r3.Vec) float64 {
	if len(tokens) < 2 {
		return 0
	}

	maxCos := -1.0
	for i := range tokens {
		for j := i + 1; j < len(tokens); j++ {
			if c := r3.Dot(tokens[i], tokens[j]); c > maxCos {
				maxCos = c
			}
		}
	}
	return math.Acos(math.Min(1, maxCos))
}
