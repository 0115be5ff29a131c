// Package metrics exposes recognizer activity as Prometheus metrics.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "trace"

// Classification outcomes used as the "result" label.
const (
	ResultRecognized = "recognized"
	ResultRejected   = "rejected"
	ResultError      = "error"
)

// Metrics holds every collector of one recognizer process on its own
// registry.
type Metrics struct {
	registry *prometheus.Registry

	// ClassificationsTotal counts classifications by outcome.
	ClassificationsTotal *prometheus.CounterVec
	// ClassifyDuration observes the time spent describing and scoring a trace.
	ClassifyDuration prometheus.Histogram
	// ExamplesAddedTotal counts exemplars added, by origin ("train", "auto").
	ExamplesAddedTotal *prometheus.CounterVec
	// Classes is the number of classes in the vocabulary.
	Classes prometheus.Gauge
	// SnapshotSavesTotal counts snapshot saves by outcome ("ok", "error").
	SnapshotSavesTotal *prometheus.CounterVec
	// TraceSessions is the number of open websocket trace sessions.
	TraceSessions prometheus.Gauge
	// LogEntriesTotal counts log entries by level.
	LogEntriesTotal *prometheus.CounterVec
}

// New registers a fresh set of collectors, plus the Go runtime collectors,
// on a new registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	f := promauto.With(reg)

	return &Metrics{
		registry: reg,
		ClassificationsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "classifications_total",
			Help:      "Total number of classified traces by result",
		}, []string{"result"}),
		ClassifyDuration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "classify_duration_seconds",
			Help:      "Time spent classifying a trace",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 8),
		}),
		ExamplesAddedTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "examples_added_total",
			Help:      "Total number of exemplars added to the vocabulary",
		}, []string{"origin"}),
		Classes: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "classes",
			Help:      "Number of gesture classes in the vocabulary",
		}),
		SnapshotSavesTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "snapshot_saves_total",
			Help:      "Total number of snapshot saves by result",
		}, []string{"result"}),
		TraceSessions: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "trace_sessions",
			Help:      "Number of open trace streams",
		}),
		LogEntriesTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "log_entries_total",
			Help:      "Total number of log entries by level",
		}, []string{"level"}),
	}
}

// Registry returns the registry holding the collectors.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// WriteTextfile writes the current values to path in the node exporter
// textfile format. The file is replaced atomically.
func (m *Metrics) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, m.registry)
}
