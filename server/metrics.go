package server

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics are the prometheus instruments the allocation service feeds.
type Metrics struct {
	registry *prometheus.Registry

	AllocationsTotal *prometheus.CounterVec
	OccupiedSlots    prometheus.Gauge
	DecisionScore    prometheus.Histogram
}

// NewMetrics builds the instruments on a private registry so tests can hold
// independent metric sets.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()
	m := &Metrics{
		registry: registry,
		AllocationsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "parking",
			Name:      "allocations_total",
			Help:      "Allocation decisions by policy and status.",
		}, []string{"policy", "status"}),
		OccupiedSlots: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "parking",
			Name:      "occupied_slots",
			Help:      "Currently occupied slots on the live grid.",
		}),
		DecisionScore: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "parking",
			Name:      "decision_score",
			Help:      "Scores of allocated decisions.",
			Buckets:   prometheus.LinearBuckets(0, 0.25, 9),
		}),
	}
	registry.MustRegister(m.AllocationsTotal, m.OccupiedSlots, m.DecisionScore)
	return m
}

// Registry exposes the private registry for the /metrics handler.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}
