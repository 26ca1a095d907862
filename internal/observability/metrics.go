package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "atomic_weight"

// Metrics holds the Prometheus counters, histograms, and gauges for the table build.
type Metrics struct {
	Builds           *prometheus.CounterVec   // labels: outcome={built,exists,failed}
	DocumentsFetched *prometheus.CounterVec   // labels: source={kaeri,amdc}, outcome={fetched,cached,error}
	RecordsParsed    *prometheus.CounterVec   // labels: kind={abundance,mass}
	RecordsSkipped   prometheus.Counter
	RowsWritten      prometheus.Counter
	PublishErrors    prometheus.Counter
	StageDuration    *prometheus.HistogramVec // labels: stage={fetch,parse,merge,write,publish}
	TableReady       prometheus.Gauge
}

// NewMetrics creates and registers all build metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.Builds,
		m.DocumentsFetched,
		m.RecordsParsed,
		m.RecordsSkipped,
		m.RowsWritten,
		m.PublishErrors,
		m.StageDuration,
		m.TableReady,
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
		Builds: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "builds_total",
			Help:      "Table build invocations by outcome.",
		}, []string{"outcome"}),
		DocumentsFetched: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "documents_fetched_total",
			Help:      "Raw source documents by source and outcome.",
		}, []string{"source", "outcome"}),
		RecordsParsed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "records_parsed_total",
			Help:      "Raw records extracted from source documents by kind.",
		}, []string{"kind"}),
		RecordsSkipped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "records_skipped_total",
			Help:      "Records dropped during the merge because their id has no name.",
		}),
		RowsWritten: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rows_written_total",
			Help:      "Rows committed to the atomic-weight table.",
		}),
		PublishErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "publish_errors_total",
			Help:      "Failed attempts to publish built rows downstream.",
		}),
		StageDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "stage_duration_seconds",
			Help:      "Duration of each build stage.",
			Buckets:   []float64{0.01, 0.1, 0.5, 1, 5, 15, 30, 60, 120, 300},
		}, []string{"stage"}),
		TableReady: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "table_ready",
			Help:      "1 once the atomic-weight table exists in the store.",
		}),
	}
}
