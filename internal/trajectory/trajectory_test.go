package trajectory

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/septagon/TRACE/internal/direction"
	"github.com/septagon/TRACE/internal/geom"
)

// arc returns raw samples along a circle of the given radius centred at c,
// sweeping sweep radians in the xy plane.
func arc(c r3.Vec, radius, sweep float64, samples int) []r3.Vec {
	pts := make([]r3.Vec, samples)
	for i := range pts {
		a := sweep * float64(i) / float64(samples-1)
		pts[i] = r3.Add(c, r3.Vec{X: radius * math.Cos(a), Y: radius * math.Sin(a)})
	}
	return pts
}

func assertEvenlySpaced(t *testing.T, tr *Trajectory) {
	t.Helper()
	pts := tr.Points()
	for i := 1; i < len(pts); i++ {
		assert.InDelta(t, tr.SegmentLength(), geom.Distance(pts[i-1], pts[i]), 1e-9, "segment %d", i)
	}
}

func TestBuilder_StraightLine(t *testing.T) {
	b := NewBuilder(0.1)
	b.Add(r3.Vec{})
	b.Add(r3.Vec{X: 1})

	tr, err := b.Finish()
	require.NoError(t, err)

	assert.GreaterOrEqual(t, tr.Len(), 10)
	assert.LessOrEqual(t, tr.Len(), 11)
	assert.Equal(t, r3.Vec{}, tr.Points()[0], "first raw point is kept")
	assertEvenlySpaced(t, tr)
	assert.InDelta(t, float64(tr.Len())*0.1, tr.Length(), 1e-12)
}

func TestBuilder_ShortStepsAccumulate(t *testing.T) {
	// Raw samples closer together than a segment emit nothing until the
	// motion has covered a full segment from the last emitted point.
	b := NewBuilder(0.1)
	b.Add(r3.Vec{})
	b.Add(r3.Vec{X: 0.04})
	b.Add(r3.Vec{X: 0.08})
	assert.Equal(t, 1, b.Len())

	b.Add(r3.Vec{X: 0.12})
	assert.Equal(t, 2, b.Len())
}

func TestBuilder_CurveIsEvenlySpaced(t *testing.T) {
	tr, err := New(0.02, arc(r3.Vec{X: 0.3, Y: 0.1, Z: 0.4}, 0.25, math.Pi, 40)...)
	require.NoError(t, err)

	assert.Greater(t, tr.Len(), 30)
	assertEvenlySpaced(t, tr)
}

func TestBuilder_AddOffset(t *testing.T) {
	b := NewBuilder(1)
	b.AddOffset(r3.Vec{X: 5, Y: 5}, r3.Vec{X: 5, Y: 4})

	tr, err := b.Finish()
	require.NoError(t, err)
	assert.Equal(t, []r3.Vec{{Y: 1}}, tr.Points())
}

func TestBuilder_FinishOnce(t *testing.T) {
	b := NewBuilder(0.1)
	b.Add(r3.Vec{X: 1})

	_, err := b.Finish()
	require.NoError(t, err)
	assert.True(t, b.Finished())

	b.Add(r3.Vec{X: 2})
	_, err = b.Finish()
	assert.ErrorIs(t, err, ErrFinished)
}

func TestBuilder_FinishEmpty(t *testing.T) {
	_, err := NewBuilder(0.1).Finish()
	assert.ErrorIs(t, err, ErrEmpty)
}

func TestBuilder_IgnoresNonFinitePoints(t *testing.T) {
	b := NewBuilder(0.1)
	b.Add(r3.Vec{X: math.NaN()})
	b.Add(r3.Vec{Y: math.Inf(1)})
	assert.Equal(t, 0, b.Len())
}

func TestBuilder_MaxPoints(t *testing.T) {
	b := NewBuilder(0.1)
	b.SetMaxPoints(10)
	b.Add(r3.Vec{})
	b.Add(r3.Vec{X: 0.95})
	assert.Equal(t, 10, b.Len())

	b.Add(r3.Vec{X: 5})
	assert.Zero(t, b.Len())
	b.Add(r3.Vec{X: 0.9})
	assert.Zero(t, b.Len())

	_, err := b.Finish()
	assert.ErrorIs(t, err, ErrTooLong)
}

func TestBuilder_MaxPointsReset(t *testing.T) {
	b := NewBuilder(0.1)
	b.SetMaxPoints(0)
	assert.Equal(t, DefaultMaxPoints, b.maxPoints)
}

func TestNew_FarApartPointsAreTooLong(t *testing.T) {
	_, err := New(DefaultSegmentLength, r3.Vec{}, r3.Vec{X: 1e9})
	assert.ErrorIs(t, err, ErrTooLong)
}

func TestNewBuilder_DefaultSegmentLength(t *testing.T) {
	for _, l := range []float64{0, -1, math.NaN(), math.Inf(1)} {
		assert.Equal(t, DefaultSegmentLength, NewBuilder(l).segmentLength)
	}
}

func TestResample_OwnCountIsNoOp(t *testing.T) {
	tr, err := New(0.01, arc(r3.Vec{X: 0.2, Z: 0.5}, 0.3, 1.5*math.Pi, 60)...)
	require.NoError(t, err)

	re, err := tr.Resample(tr.Len())
	require.NoError(t, err)
	require.Equal(t, tr.Len(), re.Len())

	want, got := tr.Points(), re.Points()
	for i := range want {
		assert.InDelta(t, 0, geom.Distance(want[i], got[i]), 1e-9, "point %d", i)
	}
}

func TestResample_TargetCount(t *testing.T) {
	tr, err := New(0.001, r3.Vec{Y: 1}, r3.Vec{X: 2, Y: 1})
	require.NoError(t, err)

	for _, k := range []int{32, 16, 8, 4} {
		re, err := tr.Resample(k)
		require.NoError(t, err)

		assert.InDelta(t, tr.Length()/float64(k), re.SegmentLength(), 1e-12)
		assert.GreaterOrEqual(t, re.Len(), k-1, "k=%d", k)
		assert.LessOrEqual(t, re.Len(), k, "k=%d", k)
		assertEvenlySpaced(t, re)
	}
}

func TestResample_SizeInvariant(t *testing.T) {
	small, err := New(0.001, arc(r3.Vec{X: 0.3}, 0.1, math.Pi, 50)...)
	require.NoError(t, err)
	large, err := New(0.001, arc(r3.Vec{X: 0.9}, 0.3, math.Pi, 50)...)
	require.NoError(t, err)

	a, err := small.Resample(16)
	require.NoError(t, err)
	b, err := large.Resample(16)
	require.NoError(t, err)

	assert.InDelta(t, a.Len(), b.Len(), 1, "same shape at any scale has the same density")
}

func TestResample_InvalidTarget(t *testing.T) {
	tr, err := New(0.1, r3.Vec{X: 1})
	require.NoError(t, err)

	_, err = tr.Resample(0)
	assert.ErrorIs(t, err, ErrInvalidResolution)
}

func axisTokens() []r3.Vec {
	return []r3.Vec{{X: 1}, {Y: 1}, {Z: 1}, {Z: -1}, {X: -1}, {Y: -1}}
}

func TestTokenize_StraightLineSelectsForward(t *testing.T) {
	tr, err := New(0.05, r3.Vec{Y: 1}, r3.Vec{X: 1, Y: 1})
	require.NoError(t, err)
	require.Greater(t, tr.Len(), 3)

	toks := tr.Tokenize(axisTokens())
	require.Len(t, toks, tr.Len()-2)
	for i, tok := range toks {
		assert.Equal(t, 2, tok, "sample %d continues straight ahead (local +z)", i)
	}
}

func TestTokenize_TooShort(t *testing.T) {
	tr, err := New(1, r3.Vec{X: 1}, r3.Vec{X: 1, Y: 1})
	require.NoError(t, err)
	require.Equal(t, 2, tr.Len())

	assert.Empty(t, tr.Tokenize(axisTokens()))
}

func TestTokenize_RadialMotionIsRejected(t *testing.T) {
	// Moving straight away from the origin leaves the frame undefined.
	tr, err := New(0.05, r3.Vec{X: 0.2, Y: 0.2}, r3.Vec{X: 1, Y: 1})
	require.NoError(t, err)
	require.Greater(t, tr.Len(), 3)

	assert.Empty(t, tr.Tokenize(axisTokens()))
}

func TestTokenize_RotationInvariant(t *testing.T) {
	tokens, err := direction.Generate(direction.DefaultOptions())
	require.NoError(t, err)

	raw := arc(r3.Vec{X: 0.4, Y: -0.1, Z: 0.3}, 0.2, 1.2*math.Pi, 80)
	rotated := make([]r3.Vec, len(raw))
	const angle = 0.7
	for i, p := range raw {
		rotated[i] = r3.Vec{
			X: p.X*math.Cos(angle) - p.Y*math.Sin(angle),
			Y: p.X*math.Sin(angle) + p.Y*math.Cos(angle),
			Z: p.Z,
		}
	}

	a, err := New(0.01, raw...)
	require.NoError(t, err)
	b, err := New(0.01, rotated...)
	require.NoError(t, err)

	assert.Equal(t, a.Tokenize(tokens), b.Tokenize(tokens))
}
