package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for ledger and compliance runs.
type Metrics struct {
	registry *prometheus.Registry

	// Engine run latency by operation
	OperationLatency *prometheus.HistogramVec

	// Operation results by operation and outcome
	Operations *prometheus.CounterVec

	// Units consumed per offsetting stage
	OffsetUnits *prometheus.CounterVec

	// Compliance outcomes by supplier class
	Assessments *prometheus.CounterVec

	// Total penalty assessed
	PenaltyAmount prometheus.Counter
}

// New creates a Metrics instance on its own registry
func New() *Metrics {
	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)

	return &Metrics{
		registry: registry,

		OperationLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "zevledger_operation_duration_seconds",
			Help:    "Duration of ledger and compliance operations",
			Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
		}, []string{"operation"}), // operation: "balance", "transfer_check", "assess"

		Operations: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "zevledger_operations_total",
			Help: "Total operations by result",
		}, []string{"operation", "result"}),

		OffsetUnits: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "zevledger_offset_units_total",
			Help: "Credit units consumed by each offsetting stage",
		}, []string{"stage"}),

		Assessments: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "zevledger_assessments_total",
			Help: "Compliance assessments by supplier class and compliance",
		}, []string{"supplier_class", "compliant"}),

		PenaltyAmount: factory.NewCounter(prometheus.CounterOpts{
			Name: "zevledger_penalty_amount_total",
			Help: "Sum of assessed penalties",
		}),
	}
}

// Registry exposes the private registry for exporters
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// ObserveOperation records the duration and result of an operation.
func (m *Metrics) ObserveOperation(operation, result string, d time.Duration) {
	if m != nil {
		m.OperationLatency.WithLabelValues(operation).Observe(d.Seconds())
		m.Operations.WithLabelValues(operation, result).Inc()
	}
}

// AddOffsetUnits records units consumed by a stage.
func (m *Metrics) AddOffsetUnits(stage string, units float64) {
	if m != nil && units > 0 {
		m.OffsetUnits.WithLabelValues(stage).Add(units)
	}
}

// IncrementAssessment records a compliance assessment.
func (m *Metrics) IncrementAssessment(supplierClass string, compliant bool) {
	if m != nil {
		label := "false"
		if compliant {
			label = "true"
		}
		m.Assessments.WithLabelValues(supplierClass, label).Inc()
	}
}

// AddPenalty records an assessed penalty.
func (m *Metrics) AddPenalty(amount float64) {
	if m != nil && amount > 0 {
		m.PenaltyAmount.Add(amount)
	}
}

// WriteToTextfile dumps every collected metric in the text exposition format
func (m *Metrics) WriteToTextfile(filename string) error {
	if m == nil {
		return nil
	}
	return prometheus.WriteToTextfile(filename, m.registry)
}
