package gesture

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/septagon/TRACE/internal/trajectory"
)

// Shapes are performed in front of the origin, the way a hand moves in
// front of the head.
var inFront = r3.Vec{Y: -0.2, Z: 0.5}

func circlePoints(center r3.Vec, radius float64, samples int) []r3.Vec {
	pts := make([]r3.Vec, samples)
	for i := range pts {
		a := 2 * math.Pi * float64(i) / float64(samples-1)
		pts[i] = r3.Add(center, r3.Vec{X: radius * math.Cos(a), Y: radius * math.Sin(a)})
	}
	return pts
}

func linePoints(from, to r3.Vec) []r3.Vec {
	return []r3.Vec{from, to}
}

func build(t *testing.T, raw []r3.Vec) *trajectory.Trajectory {
	t.Helper()
	tr, err := trajectory.New(trajectory.DefaultSegmentLength, raw...)
	require.NoError(t, err)
	return tr
}

func circle(t *testing.T, radius float64) *trajectory.Trajectory {
	return build(t, circlePoints(inFront, radius, 120))
}

func line(t *testing.T) *trajectory.Trajectory {
	return build(t, linePoints(
		r3.Add(inFront, r3.Vec{X: -0.3}),
		r3.Add(inFront, r3.Vec{X: 0.3}),
	))
}

func newTestVocabulary(t *testing.T) *Vocabulary {
	t.Helper()
	v, err := New(DefaultOptions())
	require.NoError(t, err)
	return v
}
