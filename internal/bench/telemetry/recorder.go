// Package telemetry exposes per-query observations from benchmark and
// evaluation runs as Prometheus metrics.
package telemetry

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	PhaseBench  = "bench"
	PhaseEval   = "eval"
	PhaseWarmup = "warmup"
)

// Recorder receives one observation per backend call.
type Recorder interface {
	ObserveQuery(phase, engine string, d time.Duration, err error)
}

type nopRecorder struct{}

func (nopRecorder) ObserveQuery(string, string, time.Duration, error) {}

// Nop discards all observations.
var Nop Recorder = nopRecorder{}

// OrNop returns r, or Nop when r is nil.
func OrNop(r Recorder) Recorder {
	if r == nil {
		return Nop
	}
	return r
}

type PrometheusRecorder struct {
	duration *prometheus.HistogramVec
	queries  *prometheus.CounterVec
	failures *prometheus.CounterVec
}

// NewPrometheusRecorder registers the benchmark metrics on reg.
func NewPrometheusRecorder(reg prometheus.Registerer) (*PrometheusRecorder, error) {
	r := &PrometheusRecorder{
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "ftsbench",
			Name:      "query_duration_seconds",
			Help:      "Latency of successful search calls.",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 2, 16),
		}, []string{"engine", "phase"}),
		queries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "ftsbench",
			Name:      "queries_total",
			Help:      "Search calls issued.",
		}, []string{"engine", "phase"}),
		failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "ftsbench",
			Name:      "query_failures_total",
			Help:      "Search calls that failed or timed out.",
		}, []string{"engine", "phase"}),
	}

	for _, c := range []prometheus.Collector{r.duration, r.queries, r.failures} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return r, nil
}

func (r *PrometheusRecorder) ObserveQuery(phase, engine string, d time.Duration, err error) {
	r.queries.WithLabelValues(engine, phase).Inc()
	if err != nil {
		r.failures.WithLabelValues(engine, phase).Inc()
		return
	}
	r.duration.WithLabelValues(engine, phase).Observe(d.Seconds())
}
