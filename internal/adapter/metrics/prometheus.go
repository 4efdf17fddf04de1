package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// PrometheusRecorder implements ports.MutationMetrics for Prometheus.
type PrometheusRecorder struct {
	mutations        *prometheus.CounterVec
	mutationDuration *prometheus.HistogramVec
	lockWait         *prometheus.HistogramVec
}

// NewPrometheusRecorder creates the engine metrics under namespace.
func NewPrometheusRecorder(namespace string) *PrometheusRecorder {
	return &PrometheusRecorder{
		mutations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "mutations_total",
				Help:      "Balance-affecting operations by terminal outcome",
			},
			[]string{"operation", "outcome", "code"},
		),
		mutationDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "mutation_duration_seconds",
				Help:      "End-to-end latency of balance-affecting operations",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"operation", "outcome"},
		),
		lockWait: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "wallet_lock_wait_seconds",
				Help:      "Time spent waiting for the wallet row lock",
				Buckets:   []float64{.0005, .001, .005, .01, .05, .1, .5, 1, 5},
			},
			[]string{"operation"},
		),
	}
}

// Register registers all metrics with the given registry.
func (r *PrometheusRecorder) Register(registry prometheus.Registerer) error {
	collectors := []prometheus.Collector{
		r.mutations,
		r.mutationDuration,
		r.lockWait,
	}
	for _, c := range collectors {
		if err := registry.Register(c); err != nil {
			return err
		}
	}
	return nil
}

// ObserveMutation records one terminal state. code is empty for commits.
func (r *PrometheusRecorder) ObserveMutation(operation, outcome, code string, duration time.Duration) {
	r.mutations.WithLabelValues(operation, outcome, code).Inc()
	r.mutationDuration.WithLabelValues(operation, outcome).Observe(duration.Seconds())
}

func (r *PrometheusRecorder) ObserveLockWait(operation string, wait time.Duration) {
	r.lockWait.WithLabelValues(operation).Observe(wait.Seconds())
}
