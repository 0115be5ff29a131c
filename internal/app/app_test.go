package app

import (
	"context"
	"errors"
	"math"
	"path/filepath"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/septagon/TRACE/internal/gesture"
	"github.com/septagon/TRACE/internal/metrics"
	"github.com/septagon/TRACE/internal/store"
	"github.com/septagon/TRACE/internal/trajectory"
)

var inFront = r3.Vec{Y: -0.2, Z: 0.5}

func circlePoints(radius float64) []r3.Vec {
	pts := make([]r3.Vec, 120)
	for i := range pts {
		a := 2 * math.Pi * float64(i) / float64(len(pts)-1)
		pts[i] = r3.Add(inFront, r3.Vec{X: radius * math.Cos(a), Y: radius * math.Sin(a)})
	}
	return pts
}

func linePoints() []r3.Vec {
	return []r3.Vec{r3.Add(inFront, r3.Vec{X: -0.3}), r3.Add(inFront, r3.Vec{X: 0.3})}
}

func build(t *testing.T, pts []r3.Vec) *trajectory.Trajectory {
	t.Helper()
	tr, err := trajectory.New(trajectory.DefaultSegmentLength, pts...)
	require.NoError(t, err)
	return tr
}

type failingStore struct {
	loadErr error
	saveErr error
	snap    *gesture.Snapshot
}

func (f *failingStore) Load(context.Context) (*gesture.Snapshot, error) {
	if f.loadErr != nil {
		return nil, f.loadErr
	}
	return f.snap, nil
}

func (f *failingStore) Save(_ context.Context, s *gesture.Snapshot) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	f.snap = s
	return nil
}

func observed(level zapcore.Level) (*zap.Logger, *observer.ObservedLogs) {
	core, logs := observer.New(level)
	return zap.New(core), logs
}

func open(t *testing.T, cfg Config) *Tracer {
	t.Helper()
	if cfg.Options.AcceptThreshold == 0 {
		cfg.Options = gesture.DefaultOptions()
	}
	tracer, err := Open(context.Background(), cfg)
	require.NoError(t, err)
	return tracer
}

func TestOpen_InMemory(t *testing.T) {
	tracer := open(t, Config{})
	assert.Empty(t, tracer.Classes())
	assert.NoError(t, tracer.Save(context.Background()), "saving without a store is a no-op")
}

func TestOpen_RestoresSavedVocabulary(t *testing.T) {
	ctx := context.Background()
	fs := store.NewFileStore(filepath.Join(t.TempDir(), "vocabulary.json"))

	first := open(t, Config{Store: fs})
	require.NoError(t, first.AddExample(build(t, circlePoints(0.2)), "circle"))
	require.NoError(t, first.AddExample(build(t, linePoints()), "line"))
	require.NoError(t, first.Save(ctx))
	assert.Equal(t, 1.0, testutil.ToFloat64(first.Metrics().SnapshotSavesTotal.WithLabelValues("ok")))

	second := open(t, Config{Store: fs})
	assert.Equal(t, first.Classes(), second.Classes())
	assert.Equal(t, 2.0, testutil.ToFloat64(second.Metrics().Classes))

	query := build(t, circlePoints(0.25))
	want, err := first.Classify(query)
	require.NoError(t, err)
	got, err := second.Classify(query)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestOpen_FallsBackToFresh(t *testing.T) {
	tests := []struct {
		name  string
		store *failingStore
		level zapcore.Level
	}{
		{"nothing saved", &failingStore{loadErr: store.ErrNotFound}, zapcore.InfoLevel},
		{"load error", &failingStore{loadErr: errors.New("disk on fire")}, zapcore.WarnLevel},
		{"malformed", &failingStore{snap: &gesture.Snapshot{}}, zapcore.WarnLevel},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, logs := observed(zapcore.InfoLevel)
			tracer := open(t, Config{Store: tt.store, Logger: logger})

			assert.Empty(t, tracer.Classes())
			entries := logs.FilterLevelExact(tt.level).All()
			require.Len(t, entries, 1)
			assert.Contains(t, entries[0].Message, "starting fresh")
		})
	}
}

func TestTracer_SaveError(t *testing.T) {
	tracer := open(t, Config{Store: &failingStore{loadErr: store.ErrNotFound, saveErr: errors.New("read-only")}})

	err := tracer.Save(context.Background())
	assert.Error(t, err)
	assert.Equal(t, 1.0, testutil.ToFloat64(tracer.Metrics().SnapshotSavesTotal.WithLabelValues("error")))
}

func TestTracer_ClassifyMetrics(t *testing.T) {
	m := metrics.New()
	tracer := open(t, Config{Metrics: m})
	circle := build(t, circlePoints(0.2))

	res, err := tracer.Classify(circle)
	require.NoError(t, err)
	assert.False(t, res.Recognized)

	require.NoError(t, tracer.AddExample(circle, "circle"))
	res, err = tracer.Classify(circle)
	require.NoError(t, err)
	assert.True(t, res.Recognized)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.ClassificationsTotal.WithLabelValues(metrics.ResultRejected)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ClassificationsTotal.WithLabelValues(metrics.ResultRecognized)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ExamplesAddedTotal.WithLabelValues(OriginTrain)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Classes))
}

func TestTracer_TrainWarnsOnAmbiguousTake(t *testing.T) {
	logger, logs := observed(zapcore.WarnLevel)
	tracer := open(t, Config{Logger: logger})
	circle := build(t, circlePoints(0.2))

	res, err := tracer.Train(circle, "circle")
	require.NoError(t, err)
	assert.False(t, res.Recognized)
	assert.Zero(t, logs.Len())

	res, err = tracer.Train(circle, "wheel")
	require.NoError(t, err)
	assert.True(t, res.Recognized)
	assert.Equal(t, "circle", res.Name)

	entries := logs.All()
	require.Len(t, entries, 1)
	assert.Equal(t, "wheel", entries[0].ContextMap()["class"])
	assert.Equal(t, "circle", entries[0].ContextMap()["recognized"])
	assert.Len(t, tracer.Classes(), 2)

	_, err = tracer.Train(circle, "")
	assert.ErrorIs(t, err, gesture.ErrEmptyName)
}

func TestTracer_AutoLearn(t *testing.T) {
	tracer := open(t, Config{AutoLearn: true})
	circle := build(t, circlePoints(0.2))
	line := build(t, linePoints())

	out, err := tracer.Recognize(circle)
	require.NoError(t, err)
	assert.False(t, out.Recognized)
	assert.Equal(t, "0", out.Learned)

	out, err = tracer.Recognize(circle)
	require.NoError(t, err)
	assert.True(t, out.Recognized)
	assert.Equal(t, "0", out.Name)
	assert.Equal(t, "0", out.Learned)

	out, err = tracer.Recognize(line)
	require.NoError(t, err)
	assert.False(t, out.Recognized)
	assert.Equal(t, "1", out.Learned)

	classes := tracer.Classes()
	require.Len(t, classes, 2)
	assert.Equal(t, ClassInfo{Name: "0", Exemplars: 2, Centroid: 0, Spread: gesture.DefaultSpread}, classes[0])
	assert.Equal(t, 3.0, testutil.ToFloat64(tracer.Metrics().ExamplesAddedTotal.WithLabelValues(OriginAuto)))
}

func TestTracer_AutoLearnSkipsTakenNames(t *testing.T) {
	tracer := open(t, Config{AutoLearn: true})
	require.NoError(t, tracer.AddExample(build(t, circlePoints(0.2)), "0"))

	out, err := tracer.Recognize(build(t, linePoints()))
	require.NoError(t, err)
	assert.Equal(t, "1", out.Learned)
}

func TestTracer_RecognizeWithoutAutoLearn(t *testing.T) {
	tracer := open(t, Config{})

	out, err := tracer.Recognize(build(t, circlePoints(0.2)))
	require.NoError(t, err)
	assert.Empty(t, out.Learned)
	assert.Empty(t, tracer.Classes())
}
