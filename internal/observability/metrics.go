package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "airquality"

// Metrics holds the Prometheus counters, histograms, and gauges for ingestion
// and queries.
type Metrics struct {
	JobsStarted  prometheus.Counter
	JobsFinished *prometheus.CounterVec // labels: status={completed,error}
	JobsActive   prometheus.Gauge
	JobDuration  prometheus.Histogram

	RowsParsed    prometheus.Counter
	RowsSkipped   prometheus.Counter
	RowsPersisted prometheus.Counter

	ChunkWriteDuration prometheus.Histogram

	Queries       *prometheus.CounterVec   // labels: kind={series,range}, outcome={success,invalid,error}
	QueryDuration *prometheus.HistogramVec // labels: kind

	ProgressSubscribers prometheus.Gauge
	TrackedJobs         prometheus.Gauge
}

// NewMetrics creates and registers all metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(m.collectors()...)
	return m
}

// NewMetricsForTesting creates Metrics without registering them, avoiding
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		JobsStarted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ingest_jobs_started_total",
			Help:      "Total ingestion jobs accepted.",
		}),
		JobsFinished: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ingest_jobs_finished_total",
			Help:      "Ingestion jobs that reached a terminal state, by status.",
		}, []string{"status"}),
		JobsActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "ingest_jobs_active",
			Help:      "Ingestion jobs currently processing.",
		}),
		JobDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "ingest_job_duration_seconds",
			Help:      "Wall time from job start to terminal state.",
			Buckets:   []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
		}),
		RowsParsed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ingest_rows_parsed_total",
			Help:      "Rows iterated during the processing pass.",
		}),
		RowsSkipped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ingest_rows_skipped_total",
			Help:      "Rows dropped for a missing or malformed date/time.",
		}),
		RowsPersisted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ingest_rows_persisted_total",
			Help:      "Rows written to storage.",
		}),
		ChunkWriteDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "ingest_chunk_write_duration_seconds",
			Help:      "Duration of a single chunk write.",
			Buckets:   []float64{0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}),
		Queries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "queries_total",
			Help:      "Measurement queries by kind and outcome.",
		}, []string{"kind", "outcome"}),
		QueryDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "query_duration_seconds",
			Help:      "Measurement query duration in seconds.",
			Buckets:   []float64{0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}, []string{"kind"}),
		ProgressSubscribers: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "progress_subscribers",
			Help:      "Open progress subscriptions across all jobs.",
		}),
		TrackedJobs: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "progress_tracked_jobs",
			Help:      "Jobs held in the progress registry, including retained finished jobs.",
		}),
	}
}

func (m *Metrics) collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.JobsStarted,
		m.JobsFinished,
		m.JobsActive,
		m.JobDuration,
		m.RowsParsed,
		m.RowsSkipped,
		m.RowsPersisted,
		m.ChunkWriteDuration,
		m.Queries,
		m.QueryDuration,
		m.ProgressSubscribers,
		m.TrackedJobs,
	}
}
