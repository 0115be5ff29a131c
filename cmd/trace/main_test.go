package main

import (
	"bytes"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/septagon/TRACE/internal/recording"
)

func writeCircle(t *testing.T, dir, label string) string {
	t.Helper()
	head := r3.Vec{Y: 1.6}
	rec := &recording.Recording{Label: label}
	for i := range 120 {
		a := 2 * math.Pi * float64(i) / 119
		rec.Add(r3.Add(head, r3.Vec{X: 0.2 * math.Cos(a), Y: -0.2 + 0.2*math.Sin(a), Z: 0.5}), head)
	}
	path := filepath.Join(dir, label+".json")
	if label == "" {
		path = filepath.Join(dir, "unlabeled.json")
	}
	require.NoError(t, recording.WriteFile(path, rec))
	return path
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), err
}

func globals(dir, driver string) []string {
	name := "vocabulary.db"
	if driver == "json" {
		name = "vocabulary.json"
	}
	return []string{
		"--config", filepath.Join(dir, "missing.yaml"),
		"--driver", driver,
		"--store", filepath.Join(dir, name),
		"--log-level", "error",
	}
}

func TestTrainAndClassify(t *testing.T) {
	for _, driver := range []string{"sqlite", "json"} {
		t.Run(driver, func(t *testing.T) {
			dir := t.TempDir()
			take := writeCircle(t, dir, "circle")
			g := globals(dir, driver)

			out, err := run(t, append([]string{"classify"}, append(g, take)...)...)
			require.NoError(t, err)
			assert.Contains(t, out, "not recognized (empty vocabulary)")

			out, err = run(t, append([]string{"train"}, append(g, take)...)...)
			require.NoError(t, err)
			assert.Contains(t, out, `added to "circle"`)

			out, err = run(t, append([]string{"classify"}, append(g, take)...)...)
			require.NoError(t, err)
			assert.Contains(t, out, ": circle (cost 0.000)")

			out, err = run(t, append([]string{"classes"}, g...)...)
			require.NoError(t, err)
			assert.Contains(t, out, "NAME")
			assert.Contains(t, out, "circle")
		})
	}
}

func TestTrain_LabelFlag(t *testing.T) {
	dir := t.TempDir()
	take := writeCircle(t, dir, "")
	g := globals(dir, "json")

	_, err := run(t, append([]string{"train"}, append(g, take)...)...)
	require.ErrorIs(t, err, errNoLabel)

	out, err := run(t, append([]string{"train", "--label", "loop"}, append(g, take)...)...)
	require.NoError(t, err)
	assert.Contains(t, out, `added to "loop"`)
}

func TestClassify_MissingFile(t *testing.T) {
	dir := t.TempDir()
	_, err := run(t, append([]string{"classify"}, append(globals(dir, "json"), filepath.Join(dir, "nope.json"))...)...)
	assert.Error(t, err)
}

func TestAlphabet(t *testing.T) {
	dir := t.TempDir()
	out, err := run(t, "alphabet", "--summary", "--config", filepath.Join(dir, "missing.yaml"))
	require.NoError(t, err)
	assert.Contains(t, out, "128 directions, minimum separation")

	out, err = run(t, "alphabet", "--config", filepath.Join(dir, "missing.yaml"))
	require.NoError(t, err)
	assert.Contains(t, out, "  0  0.000000  0.000000  1.000000\n")
}

func TestInvalidDriver(t *testing.T) {
	dir := t.TempDir()
	_, err := run(t, append([]string{"classes"}, globals(dir, "redis")...)...)
	assert.Error(t, err)
}

func TestCloseErrorsAreReported(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("TRACE_METRICS_TEXTFILE", filepath.Join(dir, "missing", "trace.prom"))

	_, err := run(t, append([]string{"classes"}, globals(dir, "sqlite")...)...)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "write metrics")
}

func TestMetricsTextfile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "trace.prom")
	t.Setenv("TRACE_METRICS_TEXTFILE", path)

	_, err := run(t, append([]string{"train"}, append(globals(dir, "json"), writeCircle(t, dir, "circle"))...)...)
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "trace_examples_added_total")
}
