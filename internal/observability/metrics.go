package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for the
// dataset preparation service.
type Metrics struct {
	// Dataset loading metrics.
	DatasetLoads     *prometheus.CounterVec // labels: outcome={success,error}
	LoadDuration     prometheus.Histogram
	DatasetRows      prometheus.Gauge
	RowsDropped      prometheus.Counter
	CoercionFailures *prometheus.CounterVec // labels: column={year,capacity_mw,res_vol_km3}
	ResolverMisses   prometheus.Counter

	// Table cache metrics.
	CacheLookups *prometheus.CounterVec // labels: result={hit,stale,miss}

	// Refresh pipeline metrics.
	RefreshRunning   prometheus.Gauge
	RefreshDuration  prometheus.Histogram
	RecordsPublished prometheus.Counter
	PublishErrors    prometheus.Counter

	// View serving metrics.
	ViewRequests *prometheus.CounterVec // labels: view
}

// NewMetrics creates and registers all service metrics with the default
// Prometheus registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		DatasetLoads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "hydro_prep",
			Name:      "dataset_loads_total",
			Help:      "Dataset load attempts by outcome.",
		}, []string{"outcome"}),
		LoadDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "hydro_prep",
			Name:      "dataset_load_duration_seconds",
			Help:      "Duration of a complete fetch-parse-clean load.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}),
		DatasetRows: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "hydro_prep",
			Name:      "dataset_rows",
			Help:      "Rows in the most recently loaded clean table.",
		}),
		RowsDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "hydro_prep",
			Name:      "dataset_rows_dropped_total",
			Help:      "Rows discarded for missing or uncoercible coordinates.",
		}),
		CoercionFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "hydro_prep",
			Name:      "cell_coercion_failures_total",
			Help:      "Cells that failed numeric coercion and became missing, by column.",
		}, []string{"column"}),
		ResolverMisses: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "hydro_prep",
			Name:      "country_resolution_misses_total",
			Help:      "Country names that did not resolve to an ISO3 code.",
		}),
		CacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "hydro_prep",
			Name:      "table_cache_lookups_total",
			Help:      "Table cache lookups by result.",
		}, []string{"result"}),
		RefreshRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "hydro_prep",
			Name:      "refresh_running",
			Help:      "1 while the refresh loop is active, 0 when shut down.",
		}),
		RefreshDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "hydro_prep",
			Name:      "refresh_duration_seconds",
			Help:      "Duration of a complete refresh cycle including publishing.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}),
		RecordsPublished: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "hydro_prep",
			Name:      "records_published_total",
			Help:      "Cleaned plant records written to the sink topic.",
		}),
		PublishErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "hydro_prep",
			Name:      "publish_errors_total",
			Help:      "Failed sink publish attempts.",
		}),
		ViewRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "hydro_prep",
			Name:      "view_requests_total",
			Help:      "View endpoint requests by view name.",
		}, []string{"view"}),
	}

	prometheus.MustRegister(
		m.DatasetLoads,
		m.LoadDuration,
		m.DatasetRows,
		m.RowsDropped,
		m.CoercionFailures,
		m.ResolverMisses,
		m.CacheLookups,
		m.RefreshRunning,
		m.RefreshDuration,
		m.RecordsPublished,
		m.PublishErrors,
		m.ViewRequests,
	)

	return m
}

// NewMetricsForTesting creates Metrics with unregistered collectors to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return &Metrics{
		DatasetLoads:     prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "hydro_prep", Name: "dataset_loads_total"}, []string{"outcome"}),
		LoadDuration:     prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: "hydro_prep", Name: "dataset_load_duration_seconds"}),
		DatasetRows:      prometheus.NewGauge(prometheus.GaugeOpts{Namespace: "hydro_prep", Name: "dataset_rows"}),
		RowsDropped:      prometheus.NewCounter(prometheus.CounterOpts{Namespace: "hydro_prep", Name: "dataset_rows_dropped_total"}),
		CoercionFailures: prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "hydro_prep", Name: "cell_coercion_failures_total"}, []string{"column"}),
		ResolverMisses:   prometheus.NewCounter(prometheus.CounterOpts{Namespace: "hydro_prep", Name: "country_resolution_misses_total"}),
		CacheLookups:     prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "hydro_prep", Name: "table_cache_lookups_total"}, []string{"result"}),
		RefreshRunning:   prometheus.NewGauge(prometheus.GaugeOpts{Namespace: "hydro_prep", Name: "refresh_running"}),
		RefreshDuration:  prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: "hydro_prep", Name: "refresh_duration_seconds"}),
		RecordsPublished: prometheus.NewCounter(prometheus.CounterOpts{Namespace: "hydro_prep", Name: "records_published_total"}),
		PublishErrors:    prometheus.NewCounter(prometheus.CounterOpts{Namespace: "hydro_prep", Name: "publish_errors_total"}),
		ViewRequests:     prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "hydro_prep", Name: "view_requests_total"}, []string{"view"}),
	}
}
