package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for the case data pipeline.
type Metrics struct {
	StoreCalls        *prometheus.CounterVec   // labels: operation={fetch_all,create,update,delete}, outcome={success,error}
	StoreCallDuration *prometheus.HistogramVec // labels: operation
	BusyRejections    prometheus.Counter
	ValidationErrors  prometheus.Counter

	RecordsLoaded     prometheus.Gauge
	RegionsAggregated prometheus.Gauge

	// Change feed metrics.
	ChangeEvents *prometheus.CounterVec // labels: op={created,updated,deleted}, outcome={published,failed}

	// Bulk import metrics.
	ImportRows *prometheus.CounterVec // labels: outcome={imported,rejected}
}

// NewMetrics creates and registers all pipeline metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := NewMetricsForTesting()

	prometheus.MustRegister(
		m.StoreCalls,
		m.StoreCallDuration,
		m.BusyRejections,
		m.ValidationErrors,
		m.RecordsLoaded,
		m.RegionsAggregated,
		m.ChangeEvents,
		m.ImportRows,
	)

	return m
}

// NewMetricsForTesting creates unregistered Metrics to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return &Metrics{
		StoreCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "dengue",
			Name:      "store_calls_total",
			Help:      "Record store calls by operation and outcome.",
		}, []string{"operation", "outcome"}),
		StoreCallDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "dengue",
			Name:      "store_call_duration_seconds",
			Help:      "Record store round-trip duration in seconds.",
			Buckets:   []float64{0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}, []string{"operation"}),
		BusyRejections: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "dengue",
			Name:      "busy_rejections_total",
			Help:      "Actions refused because another store call was in flight.",
		}),
		ValidationErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "dengue",
			Name:      "validation_errors_total",
			Help:      "Record input rejected before reaching the store.",
		}),
		RecordsLoaded: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "dengue",
			Name:      "records_loaded",
			Help:      "Number of case records held in memory.",
		}),
		RegionsAggregated: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "dengue",
			Name:      "regions_aggregated",
			Help:      "Number of distinct normalized regions in the last aggregation.",
		}),
		ChangeEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "dengue",
			Name:      "change_events_total",
			Help:      "Record change events handed to the change feed by op and outcome.",
		}, []string{"op", "outcome"}),
		ImportRows: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "dengue",
			Name:      "import_rows_total",
			Help:      "Bulk import rows by outcome.",
		}, []string{"outcome"}),
	}
}
