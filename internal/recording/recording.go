// Package recording reads and writes raw gesture takes so they can be
// replayed into the recognizer offline.
package recording

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/septagon/TRACE/internal/trajectory"
)

// ErrNoSamples is returned for a recording without samples.
var ErrNoSamples = errors.New("recording: no samples")

// Sample is one raw tracker reading: the tracked point and the reference it
// is measured against, typically hand and head positions.
type Sample struct {
	Point     [3]float64 `json:"point"`
	Reference [3]float64 `json:"reference"`
}

// Recording is one take of a gesture.
type Recording struct {
	// Label is the class the take was performed as; empty if unknown.
	Label   string   `json:"label,omitempty"`
	Samples []Sample `json:"samples"`
}

// Add appends a sample.
func (r *Recording) Add(point, reference r3.Vec) {
	r.Samples = append(r.Samples, Sample{
		Point:     [3]float64{point.X, point.Y, point.Z},
		Reference: [3]float64{reference.X, reference.Y, reference.Z},
	})
}

// Trajectory replays the samples, relative to their references, through a
// builder with the given segment length.
func (r *Recording) Trajectory(segmentLength float64) (*trajectory.Trajectory, error) {
	if len(r.Samples) == 0 {
		return nil, ErrNoSamples
	}
	b := trajectory.NewBuilder(segmentLength)
	for _, s := range r.Samples {
		b.AddOffset(vec(s.Point), vec(s.Reference))
	}
	return b.Finish()
}

func vec(a [3]float64) r3.Vec { return r3.Vec{X: a[0], Y: a[1], Z: a[2]} }

// Read decodes a JSON recording.
func Read(r io.Reader) (*Recording, error) {
	var rec Recording
	if err := json.NewDecoder(r).Decode(&rec); err != nil {
		return nil, fmt.Errorf("decode recording: %w", err)
	}
	if len(rec.Samples) == 0 {
		return nil, ErrNoSamples
	}
	return &rec, nil
}

// Write encodes rec as JSON.
func Write(w io.Writer, rec *Recording) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(rec)
}

// ReadFile reads the recording stored at path.
func ReadFile(path string) (*Recording, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	rec, err := Read(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return rec, nil
}

// WriteFile stores rec at path.
func WriteFile(path string, rec *Recording) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := Write(f, rec); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
