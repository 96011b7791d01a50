package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus collectors for ingestion and correlation.
type Metrics struct {
	Ingestions          *prometheus.CounterVec // labels: source={primary,fallback,none}
	ProviderUnavailable *prometheus.CounterVec // labels: provider, reason
	ReadingsAppended    prometheus.Counter
	ReadingsDuplicate   prometheus.Counter
	Correlations        *prometheus.CounterVec // labels: impact={Low,Moderate,High}
}

// NewMetrics creates and registers all metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	return NewMetricsWith(prometheus.DefaultRegisterer)
}

// NewMetricsWith creates all metrics and registers them with reg.
func NewMetricsWith(reg prometheus.Registerer) *Metrics {
	m := newMetrics()
	reg.MustRegister(
		m.Ingestions,
		m.ProviderUnavailable,
		m.ReadingsAppended,
		m.ReadingsDuplicate,
		m.Correlations,
	)
	return m
}

// NewMetricsForTesting creates unregistered Metrics to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		Ingestions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "env_risk",
			Name:      "ingestions_total",
			Help:      "Ingestion attempts by the source that produced the reading.",
		}, []string{"source"}),
		ProviderUnavailable: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "env_risk",
			Name:      "provider_unavailable_total",
			Help:      "Provider fetches that yielded no reading, by provider and reason.",
		}, []string{"provider", "reason"}),
		ReadingsAppended: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "env_risk",
			Name:      "readings_appended_total",
			Help:      "Readings written to the reading store.",
		}),
		ReadingsDuplicate: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "env_risk",
			Name:      "readings_duplicate_total",
			Help:      "Readings skipped because (region, time) was already stored.",
		}),
		Correlations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "env_risk",
			Name:      "correlations_total",
			Help:      "Correlation reports produced, by impact label.",
		}, []string{"impact"}),
	}
}
