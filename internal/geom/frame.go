// Package geom provides the small amount of 3D vector math the recognizer
// needs on top of gonum's r3 package.
package geom

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// epsilon is the smallest vector length treated as non-zero.
const epsilon = 1e-12

// Normalize returns the unit vector colinear to v.
// The second return value is false when v has no usable direction
// (zero length or non-finite components).
func Normalize(v r3.Vec) (r3.Vec, bool) {
	n := r3.Norm(v)
	if n < epsilon || math.IsNaN(n) || math.IsInf(n, 0) {
		return r3.Vec{}, false
	}
	return r3.Scale(1/n, v), true
}

// Lerp linearly interpolates between a and b.
// t=0 yields a, t=1 yields b.
func Lerp(a, b r3.Vec, t float64) r3.Vec {
	return r3.Add(r3.Scale(1-t, a), r3.Scale(t, b))
}

// Distance returns the Euclidean distance between two points.
func Distance(a, b r3.Vec) float64 {
	return r3.Norm(r3.Sub(a, b))
}

// Frame is an orthonormal basis. Forward is the local z axis,
// Up the local y axis and Right the local x axis.
type Frame struct {
	Right   r3.Vec
	Up      r3.Vec
	Forward r3.Vec
}

// LookFrame builds the basis that looks along forward with the given up hint.
// The up hint only needs to be non-parallel to forward; it is
// re-orthogonalized. Right is cross(up, forward), so for forward=+z and
// up=+y the frame is the identity.
func LookFrame(forward, up r3.Vec) (Frame, bool) {
	f, ok := Normalize(forward)
	if !ok {
		return Frame{}, false
	}
	right, ok := Normalize(r3.Cross(up, f))
	if !ok {
		return Frame{}, false
	}
	return Frame{
		Right:   right,
		Up:      r3.Cross(f, right),
		Forward: f,
	}, true
}

// ToLocal expresses a world-space direction in the frame's coordinates.
func (f Frame) ToLocal(v r3.Vec) r3.Vec {
	return r3.Vec{
		X: r3.Dot(v, f.Right),
		Y: r3.Dot(v, f.Up),
		Z: r3.Dot(v, f.Forward),
	}
}
