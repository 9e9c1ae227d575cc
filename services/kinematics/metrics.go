package kinematics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Request outcomes recorded in kinematics_requests_total.
const (
	outcomeSuccess       = "success"
	outcomeNoConvergence = "no_convergence"
	outcomeError         = "error"
)

type serviceMetrics struct {
	registry   *prometheus.Registry
	requests   *prometheus.CounterVec
	iterations prometheus.Histogram
}

func newServiceMetrics() *serviceMetrics {
	m := &serviceMetrics{
		registry: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "kinematics_requests_total",
				Help: "Total number of kinematics requests by operation and outcome",
			},
			[]string{"operation", "outcome"},
		),
		iterations: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "kinematics_ik_iterations",
				Help:    "Newton steps taken by position inverse kinematics solves",
				Buckets: prometheus.ExponentialBuckets(1, 2, 10),
			},
		),
	}
	m.registry.MustRegister(m.requests, m.iterations)
	return m
}

func (m *serviceMetrics) observe(operation string, err error) {
	outcome := outcomeSuccess
	switch {
	case err == nil:
	case isNoConvergence(err):
		outcome = outcomeNoConvergence
	default:
		outcome = outcomeError
	}
	m.requests.WithLabelValues(operation, outcome).Inc()
}
