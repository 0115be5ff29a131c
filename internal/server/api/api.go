// Package api provides the HTTP handlers of the recognizer.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/septagon/TRACE/internal/app"
	"github.com/septagon/TRACE/internal/gesture"
	"github.com/septagon/TRACE/internal/trajectory"
)

// maxBodyBytes bounds request bodies; a long gesture is a few thousand points.
const maxBodyBytes = 4 << 20

// Session is the recognizer session the handlers operate on.
type Session interface {
	Trajectory(points []r3.Vec) (*trajectory.Trajectory, error)
	Classify(t *trajectory.Trajectory) (gesture.Result, error)
	Train(t *trajectory.Trajectory, name string) (gesture.Result, error)
	Classes() []app.ClassInfo
	Save(ctx context.Context) error
}

// Point is a 3D point encoded as [x, y, z].
type Point [3]float64

// Vec converts p to a vector.
func (p Point) Vec() r3.Vec { return r3.Vec{X: p[0], Y: p[1], Z: p[2]} }

// Result is the JSON form of a classification. Cost is omitted when no
// class could be scored.
type Result struct {
	Recognized bool     `json:"recognized"`
	Name       string   `json:"name,omitempty"`
	Candidate  string   `json:"candidate,omitempty"`
	Cost       *float64 `json:"cost,omitempty"`
	Learned    string   `json:"learned,omitempty"`
}

// NewResult converts an outcome into its JSON form.
func NewResult(o app.Outcome) Result {
	r := Result{
		Recognized: o.Recognized,
		Name:       o.Name,
		Candidate:  o.Candidate,
		Learned:    o.Learned,
	}
	if !math.IsInf(o.Cost, 0) && !math.IsNaN(o.Cost) {
		cost := o.Cost
		r.Cost = &cost
	}
	return r
}

type errorResponse struct {
	Error string `json:"error"`
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

// decode reads a JSON request body into v.
func decode(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("invalid JSON: %w", err)
	}
	return nil
}

// trajectoryFrom builds a trajectory from request points. Its errors are
// all client errors.
func trajectoryFrom(s Session, points []Point) (*trajectory.Trajectory, error) {
	if len(points) == 0 {
		return nil, errors.New("points are required")
	}
	vecs := make([]r3.Vec, len(points))
	for i, p := range points {
		vecs[i] = p.Vec()
	}
	t, err := s.Trajectory(vecs)
	switch {
	case errors.Is(err, trajectory.ErrTooLong):
		return nil, fmt.Errorf("gesture is too long: %w", err)
	case errors.Is(err, trajectory.ErrEmpty):
		return nil, errors.New("points must be finite")
	case err != nil:
		return nil, err
	}
	return t, nil
}
