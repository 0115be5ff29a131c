// Package trajectory turns raw 3D samples into arc-length resampled
// polylines and encodes them as direction tokens.
package trajectory

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/septagon/TRACE/internal/geom"
)

// DefaultSegmentLength is the spacing, in world units, between consecutive
// points of a freshly captured trajectory.
const DefaultSegmentLength = 0.01

// DefaultMaxPoints caps the points a builder emits: 1000 units of arc at the
// default segment length, far beyond any gesture.
const DefaultMaxPoints = 100_000

// stepTolerance absorbs rounding when a raw point lies exactly one segment
// away from the last emitted point, as happens when replaying a trajectory
// at its own resolution.
const stepTolerance = 1e-9

var (
	// ErrFinished is returned when a finished builder is used again.
	ErrFinished = errors.New("trajectory: builder already finished")
	// ErrEmpty is returned when a builder is finished without any points.
	ErrEmpty = errors.New("trajectory: no points")
	// ErrInvalidResolution is returned for a non-positive resample target.
	ErrInvalidResolution = errors.New("trajectory: target point count must be positive")
	// ErrTooLong is returned when a builder reached its point limit.
	ErrTooLong = errors.New("trajectory: too many points")
)

// Trajectory is an immutable polyline whose consecutive points are exactly
// SegmentLength apart.
type Trajectory struct {
	points        []r3.Vec
	segmentLength float64
}

// New builds a trajectory by feeding points, in order, through a builder
// with the given segment length.
func New(segmentLength float64, points ...r3.Vec) (*Trajectory, error) {
	b := NewBuilder(segmentLength)
	for _, p := range points {
		b.Add(p)
	}
	return b.Finish()
}

// Len returns the number of points.
func (t *Trajectory) Len() int { return len(t.points) }

// SegmentLength returns the spacing between consecutive points.
func (t *Trajectory) SegmentLength() float64 { return t.segmentLength }

// Length returns the nominal arc length, point count times segment length.
func (t *Trajectory) Length() float64 {
	return float64(len(t.points)) * t.segmentLength
}

// Points returns a copy of the points.
func (t *Trajectory) Points() []r3.Vec {
	return append([]r3.Vec(nil), t.points...)
}

// Resample returns a new trajectory with roughly targetCount points, built
// by replaying this trajectory with a segment length of Length()/targetCount.
// The point density no longer depends on the size or speed of the motion.
func (t *Trajectory) Resample(targetCount int) (*Trajectory, error) {
	if targetCount < 1 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidResolution, targetCount)
	}
	return New(t.Length()/float64(targetCount), t.points...)
}

// Builder accumulates raw points into a Trajectory. Each added point may
// emit zero or more evenly spaced points along the segment from the last
// emitted point towards it.
type Builder struct {
	points        []r3.Vec
	segmentLength float64
	maxPoints     int
	tooLong       bool
	finished      bool
}

// NewBuilder returns a builder that emits points segmentLength apart, at
// most DefaultMaxPoints of them. Non-positive or non-finite lengths fall
// back to DefaultSegmentLength.
func NewBuilder(segmentLength float64) *Builder {
	if !(segmentLength > 0) || math.IsInf(segmentLength, 0) {
		segmentLength = DefaultSegmentLength
	}
	return &Builder{segmentLength: segmentLength, maxPoints: DefaultMaxPoints}
}

// SetMaxPoints changes the point limit. Non-positive values restore
// DefaultMaxPoints.
func (b *Builder) SetMaxPoints(n int) {
	if n <= 0 {
		n = DefaultMaxPoints
	}
	b.maxPoints = n
}

// Add appends a raw point. The first point is kept as is; later points
// insert linear interpolants between the last emitted point and p, one
// segment length apart. Points added after Finish, or once the point
// limit is reached, are ignored; Finish then reports ErrTooLong.
func (b *Builder) Add(p r3.Vec) {
	if b.finished || b.tooLong || !finite(p) {
		return
	}
	if len(b.points) == 0 {
		b.points = append(b.points, p)
		return
	}

	for {
		last := b.points[len(b.points)-1]
		d := geom.Distance(last, p)
		if d == 0 {
			return
		}
		t := b.segmentLength / d
		if t > 1+stepTolerance {
			return
		}
		next := geom.Lerp(last, p, t)
		if next == last {
			// Segment too short to move at this magnitude.
			return
		}
		if len(b.points) >= b.maxPoints {
			b.tooLong = true
			b.points = nil
			return
		}
		b.points = append(b.points, next)
	}
}

// AddOffset appends point expressed relative to reference, e.g. a hand
// position relative to the head.
func (b *Builder) AddOffset(point, reference r3.Vec) {
	b.Add(r3.Sub(point, reference))
}

// Len returns the number of points emitted so far. It drops to zero once
// the point limit is exceeded.
func (b *Builder) Len() int { return len(b.points) }

// Finished reports whether Finish has been called.
func (b *Builder) Finished() bool { return b.finished }

// Finish seals the builder and returns the trajectory. It succeeds at most
// once; later calls return ErrFinished.
func (b *Builder) Finish() (*Trajectory, error) {
	if b.finished {
		return nil, ErrFinished
	}
	b.finished = true
	if b.tooLong {
		return nil, fmt.Errorf("%w: limit is %d", ErrTooLong, b.maxPoints)
	}
	if len(b.points) == 0 {
		return nil, ErrEmpty
	}

	t := &Trajectory{points: b.points, segmentLength: b.segmentLength}
	b.points = nil
	return t, nil
}

func finite(p r3.Vec) bool {
	for _, c := range [...]float64{p.X, p.Y, p.Z} {
		if math.IsNaN(c) || math.IsInf(c, 0) {
			return false
		}
	}
	return true
}
