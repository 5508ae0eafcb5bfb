package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the composite calculation path.
type Metrics struct {
	// Ledger fetch latencies by source
	GatherLatency *prometheus.HistogramVec

	// Completed calculations by outcome
	Calculations *prometheus.CounterVec

	// Result cache hits and misses
	CacheLookups *prometheus.CounterVec

	// Overall composite calculation latency
	CalculateLatency prometheus.Histogram
}

// New creates a Metrics instance with all calculation metrics registered.
func New() *Metrics {
	return &Metrics{
		GatherLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "goalplan_tax_gather_duration_seconds",
			Help:    "Duration of upfront ledger fetches by source",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}, []string{"source"}), // source: "income", "residency_facts"

		Calculations: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "goalplan_tax_calculations_total",
			Help: "Completed composite calculations by outcome",
		}, []string{"outcome"}), // outcome: "ok", "cached", "error"

		CacheLookups: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "goalplan_tax_result_cache_lookups_total",
			Help: "Result cache lookups by result",
		}, []string{"result"}), // result: "hit", "miss"

		CalculateLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "goalplan_tax_calculate_duration_seconds",
			Help:    "Duration of a full composite calculation including relief",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 3},
		}),
	}
}

// ObserveGatherLatency records the duration of one ledger fetch.
func (m *Metrics) ObserveGatherLatency(source string, d time.Duration) {
	if m != nil {
		m.GatherLatency.WithLabelValues(source).Observe(d.Seconds())
	}
}

// IncrementCalculation records a completed calculation.
func (m *Metrics) IncrementCalculation(outcome string) {
	if m != nil {
		m.Calculations.WithLabelValues(outcome).Inc()
	}
}

// IncrementCacheLookup records a cache hit or miss.
func (m *Metrics) IncrementCacheLookup(result string) {
	if m != nil {
		m.CacheLookups.WithLabelValues(result).Inc()
	}
}

// ObserveCalculateLatency records the total calculation duration.
func (m *Metrics) ObserveCalculateLatency(d time.Duration) {
	if m != nil {
		m.CalculateLatency.Observe(d.Seconds())
	}
}
