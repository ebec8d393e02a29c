package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the premium engine. A nil *Metrics is valid
// and records nothing.
type Metrics struct {
	// Pipeline stage latencies by state
	StageLatency *prometheus.HistogramVec

	// Collaborator fetch latencies by source
	FetchLatency *prometheus.HistogramVec

	// Calculation outcomes by methodology
	Calculations *prometheus.CounterVec

	// Compliance violations by rule
	ComplianceViolations *prometheus.CounterVec

	// Overall calculation latency
	CalculateLatency prometheus.Histogram

	// Cache lookups by source and result
	CacheLookups *prometheus.CounterVec
}

// New creates a Metrics instance registered on reg. A nil reg uses the default registerer.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &Metrics{
		StageLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "premium_stage_duration_seconds",
			Help:    "Duration of premium pipeline stages by state",
			Buckets: []float64{0.00001, 0.00005, 0.0001, 0.0005, 0.001, 0.005, 0.01},
		}, []string{"stage"}),

		FetchLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "premium_fetch_duration_seconds",
			Help:    "Duration of data source fetches by source",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}, []string{"source"}), // source: "period", "premium_rate", "risk_assessment", "historical_claims"

		Calculations: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "premium_calculations_total",
			Help: "Total premium calculations by methodology",
		}, []string{"methodology"}),

		ComplianceViolations: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "premium_compliance_violations_total",
			Help: "Total compliance violations by rule",
		}, []string{"rule"}),

		CalculateLatency: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "premium_calculate_duration_seconds",
			Help:    "Duration of full premium calculation including data fetches",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}),

		CacheLookups: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "premium_cache_lookups_total",
			Help: "Data source cache lookups by source and result",
		}, []string{"source", "result"}), // result: "hit", "miss", "error"
	}
}

// ObserveStageLatency records the duration of one pipeline stage.
func (m *Metrics) ObserveStageLatency(stage string, d time.Duration) {
	if m != nil {
		m.StageLatency.WithLabelValues(stage).Observe(d.Seconds())
	}
}

// ObserveFetchLatency records the duration of fetching from a data source.
func (m *Metrics) ObserveFetchLatency(source string, d time.Duration) {
	if m != nil {
		m.FetchLatency.WithLabelValues(source).Observe(d.Seconds())
	}
}

// IncrementCalculation records a calculation outcome.
func (m *Metrics) IncrementCalculation(methodology string) {
	if m != nil {
		m.Calculations.WithLabelValues(methodology).Inc()
	}
}

// IncrementViolation records a compliance violation.
func (m *Metrics) IncrementViolation(rule string) {
	if m != nil {
		m.ComplianceViolations.WithLabelValues(rule).Inc()
	}
}

// ObserveCalculateLatency records the total calculation duration.
func (m *Metrics) ObserveCalculateLatency(d time.Duration) {
	if m != nil {
		m.CalculateLatency.Observe(d.Seconds())
	}
}

// IncrementCacheLookup records a cache lookup result ("hit", "miss" or "error").
func (m *Metrics) IncrementCacheLookup(source, result string) {
	if m != nil {
		m.CacheLookups.WithLabelValues(source, result).Inc()
	}
}
