package app

import (
	"errors"
	"sync"

	"go.uber.org/zap"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/septagon/TRACE/internal/trajectory"
)

// ErrTraceFinished is returned when a trace is finished twice.
var ErrTraceFinished = errors.New("app: trace already finished")

// Trace collects the samples of one gesture as it is performed. Points are
// stored relative to their reference, e.g. the hand relative to the head.
type Trace struct {
	tracer  *Tracer
	mu      sync.Mutex
	builder *trajectory.Builder
	done    bool
}

// NewTrace starts collecting a gesture.
func (t *Tracer) NewTrace() *Trace {
	return &Trace{
		tracer:  t,
		builder: t.newBuilder(),
	}
}

// AddPoint records point relative to reference. Points added after the
// trace is finished, or past the point limit, are ignored.
func (tr *Trace) AddPoint(point, reference r3.Vec) {
	tr.mu.Lock()
	defer tr.mu.Unlock()
	tr.builder.AddOffset(point, reference)
}

// Len returns the number of trajectory points collected so far.
func (tr *Trace) Len() int {
	tr.mu.Lock()
	defer tr.mu.Unlock()
	return tr.builder.Len()
}

// Finish ends the trace. With a label the trace trains that class;
// without one it is recognized. Only the first call does any work.
func (tr *Trace) Finish(label string) (Outcome, error) {
	tr.mu.Lock()
	if tr.done {
		tr.mu.Unlock()
		return Outcome{}, ErrTraceFinished
	}
	tr.done = true
	traj, err := tr.builder.Finish()
	tr.mu.Unlock()
	if err != nil {
		return Outcome{}, err
	}

	if label != "" {
		res, err := tr.tracer.Train(traj, label)
		if err != nil {
			return Outcome{}, err
		}
		return Outcome{Result: res, Learned: label}, nil
	}
	return tr.tracer.Recognize(traj)
}

// Close finishes the trace as a recognition if the owner never called
// Finish. Empty traces are dropped.
func (tr *Trace) Close() {
	out, err := tr.Finish("")
	switch {
	case errors.Is(err, ErrTraceFinished), errors.Is(err, trajectory.ErrEmpty):
	case err != nil:
		tr.tracer.logger.Warn("failed to finish abandoned trace", zap.Error(err))
	default:
		tr.tracer.logger.Debug("finished abandoned trace",
			zap.Bool("recognized", out.Recognized),
			zap.String("class", out.Name))
	}
}
