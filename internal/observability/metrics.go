package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "bikeshare"

// Metrics holds the Prometheus counters, histograms, and gauges for loading
// and serving views.
type Metrics struct {
	// Load metrics.
	RowsLoaded     *prometheus.CounterVec // labels: granularity={daily,hourly}
	LoadErrors     prometheus.Counter
	LoadDuration   prometheus.Histogram
	DatasetsLoaded prometheus.Gauge

	// View metrics.
	ViewRequests *prometheus.CounterVec   // labels: granularity, outcome={ok,invalid}
	ViewDuration *prometheus.HistogramVec // labels: granularity
	ViewRows     *prometheus.HistogramVec // labels: granularity

	// Publishing metrics.
	ViewsPublished prometheus.Counter
	PublishErrors  prometheus.Counter
}

// NewMetrics creates and registers all metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.RowsLoaded,
		m.LoadErrors,
		m.LoadDuration,
		m.DatasetsLoaded,
		m.ViewRequests,
		m.ViewDuration,
		m.ViewRows,
		m.ViewsPublished,
		m.PublishErrors,
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
		RowsLoaded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rows_loaded_total",
			Help:      "Cleaned rows loaded from the source tables.",
		}, []string{"granularity"}),
		LoadErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "load_errors_total",
			Help:      "Dataset loads aborted by a source or row error.",
		}),
		LoadDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "load_duration_seconds",
			Help:      "Duration of a full load of both source tables.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}),
		DatasetsLoaded: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "datasets_loaded",
			Help:      "1 once both datasets are loaded, 0 otherwise.",
		}),
		ViewRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "view_requests_total",
			Help:      "Filter and aggregate requests by granularity and outcome.",
		}, []string{"granularity", "outcome"}),
		ViewDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "view_duration_seconds",
			Help:      "Time to filter and aggregate one view.",
			Buckets:   []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1},
		}, []string{"granularity"}),
		ViewRows: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "view_rows",
			Help:      "Rows kept by the date range filter.",
			Buckets:   []float64{0, 1, 24, 168, 731, 2000, 8760, 17379},
		}, []string{"granularity"}),
		ViewsPublished: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "views_published_total",
			Help:      "View summaries handed to the Kafka publisher.",
		}),
		PublishErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "publish_errors_total",
			Help:      "View summaries that failed to publish.",
		}),
	}
}
