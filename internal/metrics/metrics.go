// Package metrics exposes Prometheus instrumentation for the attendance
// engine: transition and promotion counters, sweep timings, and the rate of
// business-rule rejections by code.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

type Metrics struct {
	registry *prometheus.Registry

	Transitions    *prometheus.CounterVec
	Promotions     prometheus.Counter
	BusinessErrors *prometheus.CounterVec
	SweepDuration  prometheus.Histogram
	SweepPromoted  prometheus.Counter
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		Transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "attendly_transitions_total",
			Help: "Committed attendance transitions by resulting action.",
		}, []string{"action"}),
		Promotions: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "attendly_waitlist_promotions_total",
			Help: "Waitlisted attendees promoted into freed slots.",
		}),
		BusinessErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "attendly_business_errors_total",
			Help: "Rejected transitions by business-error code.",
		}, []string{"code"}),
		SweepDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "attendly_sweep_duration_seconds",
			Help:    "Duration of waitlist sweep passes.",
			Buckets: prometheus.DefBuckets,
		}),
		SweepPromoted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "attendly_sweep_promotions_total",
			Help: "Promotions performed by sweep passes.",
		}),
	}

	m.registry.MustRegister(
		m.Transitions,
		m.Promotions,
		m.BusinessErrors,
		m.SweepDuration,
		m.SweepPromoted,
	)

	return m
}

// Registry returns the backing registry for the /metrics handler.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}
