package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "seriespulse"

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	analyses      prometheus.Counter
	seriesPoints  prometheus.Histogram
	collaborators *prometheus.CounterVec
	cacheLookups  *prometheus.CounterVec
	latency       *prometheus.HistogramVec
}

// New registers the recorder's collectors on reg. Passing a fresh registry keeps tests isolated.
func New(reg prometheus.Registerer) *Recorder {
	f := promauto.With(reg)
	return &Recorder{
		analyses: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "analyses_total",
			Help:      "Total number of series analyzed",
		}),
		seriesPoints: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "series_points",
			Help:      "Number of points per analyzed series",
			Buckets:   prometheus.ExponentialBuckets(8, 4, 8),
		}),
		collaborators: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "collaborator_calls_total",
				Help:      "Collaborator calls by outcome",
			},
			[]string{"collaborator", "outcome"},
		),
		cacheLookups: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "cache_lookups_total",
				Help:      "Collaborator result cache lookups",
			},
			[]string{"kind", "hit"},
		),
		latency: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "operation_duration_seconds",
				Help:      "Duration of operations in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
	}
}

// RecordAnalysis records one local analysis run.
func (r *Recorder) RecordAnalysis(points int) {
	r.analyses.Inc()
	r.seriesPoints.Observe(float64(points))
}

// RecordCollaborator records a collaborator outcome (ok, error, cached, skipped).
func (r *Recorder) RecordCollaborator(name, outcome string) {
	r.collaborators.WithLabelValues(name, outcome).Inc()
}

func (r *Recorder) RecordCacheLookup(kind string, hit bool) {
	r.cacheLookups.WithLabelValues(kind, strconv.FormatBool(hit)).Inc()
}

// RecordLatency records operation latency in seconds.
func (r *Recorder) RecordLatency(op string, seconds float64) {
	r.latency.WithLabelValues(op).Observe(seconds)
}
