package engine

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics tracks engine activity.
//
// Metrics:
//   - saturn_admissions_total: Admission decisions by action
//   - saturn_operations_total: Tracked operations by type and status
//   - saturn_operation_cost_usd: Actual cost distribution per operation
//   - saturn_estimation_failures_total: Failed cost estimates
//   - saturn_violations_total: Budget violations by kind and action
//   - saturn_spend_usd: Settled spend per scope
//   - saturn_budget_utilization_pct: Budget utilization per rule
type Metrics struct {
	admissions         *prometheus.CounterVec
	operations         *prometheus.CounterVec
	operationCost      *prometheus.HistogramVec
	estimationFailures prometheus.Counter
	violations         *prometheus.CounterVec
	spend              *prometheus.GaugeVec
	utilization        *prometheus.GaugeVec
}

// NewMetrics creates and registers engine metrics with the provided
// registry.
func NewMetrics(registry *prometheus.Registry) *Metrics {
	m := &Metrics{
		admissions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "saturn",
				Name:      "admissions_total",
				Help:      "Admission decisions by enforcement action",
			},
			[]string{"action"},
		),

		operations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "saturn",
				Name:      "operations_total",
				Help:      "Tracked operations by type and status",
			},
			[]string{"operation_type", "status"},
		),

		operationCost: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "saturn",
				Name:      "operation_cost_usd",
				Help:      "Actual cost distribution per operation in USD",
				// Analytical query costs: fractions of a cent to tens
				// of dollars.
				Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1.0, 5.0, 10.0, 50.0},
			},
			[]string{"operation_type"},
		),

		estimationFailures: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: "saturn",
				Name:      "estimation_failures_total",
				Help:      "Cost estimates that failed",
			},
		),

		violations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "saturn",
				Name:      "violations_total",
				Help:      "Budget violations by kind and action",
			},
			[]string{"kind", "action"},
		),

		spend: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: "saturn",
				Name:      "spend_usd",
				Help:      "Settled spend per budget scope in USD",
			},
			[]string{"scope"},
		),

		utilization: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: "saturn",
				Name:      "budget_utilization_pct",
				Help:      "Budget utilization per rule in percent",
			},
			[]string{"rule"},
		),
	}

	registry.MustRegister(
		m.admissions,
		m.operations,
		m.operationCost,
		m.estimationFailures,
		m.violations,
		m.spend,
		m.utilization,
	)

	return m
}
