// Package app runs a recognizer session: it restores the vocabulary from a
// store, feeds live traces into it and persists it again on demand.
package app

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"go.uber.org/zap"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/septagon/TRACE/internal/gesture"
	"github.com/septagon/TRACE/internal/metrics"
	"github.com/septagon/TRACE/internal/store"
	"github.com/septagon/TRACE/internal/trajectory"
)

// Example origins recorded in metrics.
const (
	OriginTrain = "train"
	OriginAuto  = "auto"
)

// SnapshotStore persists vocabulary snapshots.
type SnapshotStore interface {
	// Load returns store.ErrNotFound when nothing has been saved yet.
	Load(ctx context.Context) (*gesture.Snapshot, error)
	Save(ctx context.Context, s *gesture.Snapshot) error
}

// Config holds configuration options for a Tracer.
type Config struct {
	// Store is where the vocabulary is loaded from and saved to. Without a
	// store the session is in-memory only.
	Store SnapshotStore
	// Options configures fresh vocabularies and classification.
	Options gesture.Options
	// SegmentLength is the point spacing of traces built by NewTrace.
	SegmentLength float64
	// MaxPoints bounds the points of one trajectory; zero means
	// trajectory.DefaultMaxPoints.
	MaxPoints int
	// AutoLearn adds every recognized trace to its class and turns every
	// unrecognized one into a new class.
	AutoLearn bool
	Logger    *zap.Logger
	Metrics   *metrics.Metrics
}

// Outcome is the result of a finished trace.
type Outcome struct {
	gesture.Result
	// Learned is the class the trace was added to, if any.
	Learned string
}

// ClassInfo summarizes one class of the vocabulary.
type ClassInfo struct {
	Name      string  `json:"name"`
	Exemplars int     `json:"exemplars"`
	Centroid  int     `json:"centroid"`
	Spread    float64 `json:"spread"`
}

// Tracer owns a vocabulary and serializes every access to it.
type Tracer struct {
	config  Config
	logger  *zap.Logger
	metrics *metrics.Metrics

	mu       sync.Mutex
	vocab    *gesture.Vocabulary
	nextAuto int
}

// Open starts a session. The stored vocabulary is restored if there is one;
// a missing or unreadable snapshot is logged and replaced by a fresh
// vocabulary.
func Open(ctx context.Context, config Config) (*Tracer, error) {
	if config.Logger == nil {
		config.Logger = zap.NewNop()
	}
	if config.Metrics == nil {
		config.Metrics = metrics.New()
	}
	if config.Options.Logger == nil {
		config.Options.Logger = config.Logger
	}

	t := &Tracer{
		config:  config,
		logger:  config.Logger,
		metrics: config.Metrics,
	}

	vocab, err := t.restore(ctx)
	if err != nil {
		return nil, err
	}
	t.vocab = vocab
	t.metrics.Classes.Set(float64(vocab.Len()))
	return t, nil
}

func (t *Tracer) restore(ctx context.Context) (*gesture.Vocabulary, error) {
	if t.config.Store != nil {
		snap, err := t.config.Store.Load(ctx)
		switch {
		case errors.Is(err, store.ErrNotFound):
			t.logger.Info("no stored vocabulary, starting fresh")
		case err != nil:
			t.logger.Warn("failed to load stored vocabulary, starting fresh", zap.Error(err))
		default:
			vocab, err := gesture.Load(snap, t.config.Options)
			if err == nil {
				t.logger.Info("restored vocabulary",
					zap.Int("classes", vocab.Len()),
					zap.Int("alphabet", len(snap.Alphabet)))
				return vocab, nil
			}
			t.logger.Warn("stored vocabulary is malformed, starting fresh", zap.Error(err))
		}
	}

	vocab, err := gesture.New(t.config.Options)
	if err != nil {
		return nil, fmt.Errorf("create vocabulary: %w", err)
	}
	return vocab, nil
}

// Trajectory builds a trajectory from points already expressed relative to
// the reference, using the session segment length.
func (t *Tracer) Trajectory(points []r3.Vec) (*trajectory.Trajectory, error) {
	b := t.newBuilder()
	for _, p := range points {
		b.Add(p)
	}
	return b.Finish()
}

func (t *Tracer) newBuilder() *trajectory.Builder {
	b := trajectory.NewBuilder(t.config.SegmentLength)
	b.SetMaxPoints(t.config.MaxPoints)
	return b
}

// Classify scores t against the vocabulary without changing it.
func (t *Tracer) Classify(tr *trajectory.Trajectory) (gesture.Result, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.classify(tr)
}

func (t *Tracer) classify(tr *trajectory.Trajectory) (gesture.Result, error) {
	start := time.Now()
	res, err := t.vocab.Classify(tr)
	t.metrics.ClassifyDuration.Observe(time.Since(start).Seconds())

	switch {
	case err != nil:
		t.metrics.ClassificationsTotal.WithLabelValues(metrics.ResultError).Inc()
		return gesture.Result{}, err
	case res.Recognized:
		t.metrics.ClassificationsTotal.WithLabelValues(metrics.ResultRecognized).Inc()
		t.logger.Debug("recognized gesture", zap.String("class", res.Name), zap.Float64("cost", res.Cost))
	default:
		t.metrics.ClassificationsTotal.WithLabelValues(metrics.ResultRejected).Inc()
		t.logger.Debug("gesture not recognized", zap.String("candidate", res.Candidate), zap.Float64("cost", res.Cost))
	}
	return res, nil
}

// AddExample adds t to the named class.
func (t *Tracer) AddExample(tr *trajectory.Trajectory, name string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.add(tr, name, OriginTrain)
}

func (t *Tracer) add(tr *trajectory.Trajectory, name, origin string) error {
	if err := t.vocab.AddExample(tr, name); err != nil {
		return err
	}
	t.metrics.ExamplesAddedTotal.WithLabelValues(origin).Inc()
	t.metrics.Classes.Set(float64(t.vocab.Len()))
	return nil
}

// Train classifies t before adding it to the named class and warns when the
// take already looks like a different gesture. The returned result is the
// classification made before the take was added.
func (t *Tracer) Train(tr *trajectory.Trajectory, name string) (gesture.Result, error) {
	if name == "" {
		return gesture.Result{}, gesture.ErrEmptyName
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	res, err := t.classify(tr)
	if err != nil {
		return gesture.Result{}, err
	}
	if res.Recognized && res.Name != name {
		t.logger.Warn("training take is recognized as a different gesture",
			zap.String("class", name),
			zap.String("recognized", res.Name),
			zap.Float64("cost", res.Cost))
	}
	if err := t.add(tr, name, OriginTrain); err != nil {
		return gesture.Result{}, err
	}
	return res, nil
}

// Recognize classifies t. In auto-learn mode the trace is also added to the
// recognized class, or to a new class named by a running counter when
// nothing was recognized.
func (t *Tracer) Recognize(tr *trajectory.Trajectory) (Outcome, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	res, err := t.classify(tr)
	if err != nil {
		return Outcome{}, err
	}
	out := Outcome{Result: res}
	if !t.config.AutoLearn {
		return out, nil
	}

	name := res.Name
	if !res.Recognized {
		name = t.autoName()
	}
	if err := t.add(tr, name, OriginAuto); err != nil {
		return Outcome{}, err
	}
	if !res.Recognized {
		t.logger.Info("learned new gesture", zap.String("class", name))
	}
	out.Learned = name
	return out, nil
}

// autoName returns the next counter name not taken by an existing class.
func (t *Tracer) autoName() string {
	for {
		name := strconv.Itoa(t.nextAuto)
		t.nextAuto++
		if _, taken := t.vocab.Class(name); !taken {
			return name
		}
	}
}

// Classes summarizes the vocabulary, ordered by name.
func (t *Tracer) Classes() []ClassInfo {
	t.mu.Lock()
	defer t.mu.Unlock()

	names := t.vocab.Names()
	infos := make([]ClassInfo, 0, len(names))
	for _, name := range names {
		c, _ := t.vocab.Class(name)
		infos = append(infos, ClassInfo{
			Name:      name,
			Exemplars: c.Len(),
			Centroid:  c.Centroid(),
			Spread:    c.Spread(),
		})
	}
	return infos
}

// Snapshot captures the current vocabulary.
func (t *Tracer) Snapshot() *gesture.Snapshot {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.vocab.Snapshot()
}

// Save persists the vocabulary. It is a no-op without a store.
func (t *Tracer) Save(ctx context.Context) error {
	if t.config.Store == nil {
		return nil
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if err := t.config.Store.Save(ctx, t.vocab.Snapshot()); err != nil {
		t.metrics.SnapshotSavesTotal.WithLabelValues("error").Inc()
		return fmt.Errorf("save vocabulary: %w", err)
	}
	t.metrics.SnapshotSavesTotal.WithLabelValues("ok").Inc()
	t.logger.Info("saved vocabulary", zap.Int("classes", t.vocab.Len()))
	return nil
}

// Metrics returns the session metrics.
func (t *Tracer) Metrics() *metrics.Metrics { return t.metrics }

// Logger returns the session logger.
func (t *Tracer) Logger() *zap.Logger { return t.logger }
