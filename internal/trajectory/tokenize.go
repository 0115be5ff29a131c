package trajectory

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/septagon/TRACE/internal/direction"
	"github.com/septagon/TRACE/internal/geom"
)

// maxFrameAlignment is the largest |cos| allowed between the direction of
// travel and the direction back to the origin. Beyond it the local frame is
// ill-conditioned and the sample is dropped.
const maxFrameAlignment = 0.98

// Tokenize encodes the trajectory as alphabet token indices, one per
// consecutive point triple (prior, from, to) whose local frame is well
// defined. The frame looks along the direction of travel with its up axis
// perpendicular to both travel and the direction back to the origin, so the
// encoding does not depend on where or how the whole gesture is oriented.
// Trajectories with fewer than three points yield an empty slice.
func (t *Trajectory) Tokenize(tokens []r3.Vec) []int {
	out := make([]int, 0, max(len(t.points)-2, 0))
	if len(tokens) == 0 {
		return out
	}

	for i := 2; i < len(t.points); i++ {
		dir, ok := localDirection(t.points[i-2], t.points[i-1], t.points[i])
		if !ok {
			continue
		}
		out = append(out, direction.Nearest(tokens, dir))
	}
	return out
}

// localDirection expresses the to-from segment in the frame defined by the
// prior-from segment and the origin.
func localDirection(prior, from, to r3.Vec) (r3.Vec, bool) {
	forward, ok := geom.Normalize(r3.Sub(from, prior))
	if !ok {
		return r3.Vec{}, false
	}
	back, ok := geom.Normalize(r3.Scale(-1, from))
	if !ok {
		return r3.Vec{}, false
	}
	if math.Abs(r3.Dot(forward, back)) > maxFrameAlignment {
		return r3.Vec{}, false
	}

	frame, ok := geom.LookFrame(forward, r3.Cross(forward, back))
	if !ok {
		return r3.Vec{}, false
	}
	segment, ok := geom.Normalize(r3.Sub(to, from))
	if !ok {
		return r3.Vec{}, false
	}
	return frame.ToLocal(segment), true
}
