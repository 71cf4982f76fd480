// Package observability provides Prometheus metrics for monitoring.
package observability

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"risklo/internal/domain"
)

// DefaultNamespace prefixes every metric name.
const DefaultNamespace = "risklo"

// Analysis outcomes used as the "outcome" label.
const (
	OutcomeOK      = "ok"
	OutcomeNoData  = "no_data"
	OutcomeInvalid = "invalid"
	OutcomeError   = "error"
	OutcomeSkipped = "skipped"
)

// Metrics holds all Prometheus metrics for the application.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry  *prometheus.Registry
	namespace string

	// Analysis metrics
	AnalysesTotal    *prometheus.CounterVec
	AnalysisDuration prometheus.Histogram
	BlowoutStatus    *prometheus.CounterVec
	RiskScore        prometheus.Histogram

	// Bulk metrics
	BulkRunsTotal prometheus.Counter
	BulkRows      *prometheus.CounterVec
	BulkDuration  prometheus.Histogram

	// Sheet source metrics
	SheetFetchDuration *prometheus.HistogramVec
	SheetFetchErrors   *prometheus.CounterVec

	// HTTP metrics
	HTTPRequests *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec

	// Database metrics
	DBQueryDuration *prometheus.HistogramVec
	DBQueryErrors   *prometheus.CounterVec

	// Scheduler and health metrics
	ScheduledRuns         *prometheus.CounterVec
	LastSuccessfulBulkRun prometheus.Gauge
}

// NewMetrics creates metrics registered on a fresh registry.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = DefaultNamespace
	}
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	f := promauto.With(reg)

	return &Metrics{
		registry:  reg,
		namespace: namespace,

		AnalysesTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "analysis",
			Name:      "total",
			Help:      "Total number of strategy analyses by outcome",
		}, []string{"outcome"}),
		AnalysisDuration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "analysis",
			Name:      "duration_seconds",
			Help:      "Single analysis duration including sheet fetch",
			Buckets:   prometheus.DefBuckets,
		}),
		BlowoutStatus: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "analysis",
			Name:      "blowout_status_total",
			Help:      "Blowout verdicts by status",
		}, []string{"status"}),
		RiskScore: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "analysis",
			Name:      "risk_score",
			Help:      "Distribution of composite risk scores",
			Buckets:   []float64{10, 20, 30, 40, 50, 60, 70, 80, 90, 100},
		}),

		BulkRunsTotal: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "bulk",
			Name:      "runs_total",
			Help:      "Total number of bulk analysis runs",
		}),
		BulkRows: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "bulk",
			Name:      "rows_total",
			Help:      "Bulk analysis rows by outcome",
		}, []string{"outcome"}),
		BulkDuration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "bulk",
			Name:      "duration_seconds",
			Help:      "Bulk run duration in seconds",
			Buckets:   []float64{0.1, 0.5, 1, 5, 10, 30, 60, 120},
		}),

		SheetFetchDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "sheets",
			Name:      "fetch_duration_seconds",
			Help:      "Sheet source call duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation"}),
		SheetFetchErrors: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "sheets",
			Name:      "fetch_errors_total",
			Help:      "Sheet source errors by operation",
		}, []string{"operation"}),

		HTTPRequests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "HTTP requests by route, method and status code",
		}, []string{"route", "method", "code"}),
		HTTPDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route"}),

		DBQueryDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "database",
			Name:      "query_duration_seconds",
			Help:      "Database query duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"database", "operation"}),
		DBQueryErrors: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "database",
			Name:      "query_errors_total",
			Help:      "Total number of database query errors",
		}, []string{"database", "operation"}),

		ScheduledRuns: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "scheduler",
			Name:      "runs_total",
			Help:      "Scheduled summary runs by status",
		}, []string{"status"}),
		LastSuccessfulBulkRun: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "health",
			Name:      "last_successful_bulk_run_timestamp",
			Help:      "Unix timestamp of last successful bulk run",
		}),
	}
}

// Handler returns an HTTP handler for the /metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// TrackDropped exports a signal's dropped-value count as
// events_dropped_total{signal=name}. dropped is read on every scrape.
func (m *Metrics) TrackDropped(name string, dropped func() uint64) error {
	if m == nil {
		return nil
	}
	c := prometheus.NewCounterFunc(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   "events",
		Name:        "dropped_total",
		Help:        "Values emitted on a signal without a subscriber or with a full buffer",
		ConstLabels: prometheus.Labels{"signal": name},
	}, func() float64 { return float64(dropped()) })
	if err := m.registry.Register(c); err != nil {
		return fmt.Errorf("register dropped counter for %s: %w", name, err)
	}
	return nil
}

// RecordAnalysis records one analysis outcome. metrics may be nil.
func (m *Metrics) RecordAnalysis(outcome string, d time.Duration, metrics *domain.RiskMetrics) {
	if m == nil {
		return
	}
	m.AnalysesTotal.WithLabelValues(outcome).Inc()
	m.AnalysisDuration.Observe(d.Seconds())
	if metrics != nil {
		m.BlowoutStatus.WithLabelValues(string(metrics.BlowAccountStatus)).Inc()
		m.RiskScore.Observe(float64(metrics.RiskScore))
	}
}

// RecordBulkRow records the outcome of one bulk row.
func (m *Metrics) RecordBulkRow(outcome string) {
	if m == nil {
		return
	}
	m.BulkRows.WithLabelValues(outcome).Inc()
}

// RecordBulkRun records a finished bulk run.
func (m *Metrics) RecordBulkRun(d time.Duration, at time.Time) {
	if m == nil {
		return
	}
	m.BulkRunsTotal.Inc()
	m.BulkDuration.Observe(d.Seconds())
	m.LastSuccessfulBulkRun.Set(float64(at.Unix()))
}

// RecordSheetFetch records a sheet source call.
func (m *Metrics) RecordSheetFetch(operation string, d time.Duration, err error) {
	if m == nil {
		return
	}
	m.SheetFetchDuration.WithLabelValues(operation).Observe(d.Seconds())
	if err != nil {
		m.SheetFetchErrors.WithLabelValues(operation).Inc()
	}
}

// RecordHTTP records a served request.
func (m *Metrics) RecordHTTP(route, method string, code int, d time.Duration) {
	if m == nil {
		return
	}
	m.HTTPRequests.WithLabelValues(route, method, strconv.Itoa(code)).Inc()
	m.HTTPDuration.WithLabelValues(route).Observe(d.Seconds())
}

// RecordDBQuery records database query metrics.
func (m *Metrics) RecordDBQuery(database, operation string, d time.Duration, err error) {
	if m == nil {
		return
	}
	m.DBQueryDuration.WithLabelValues(database, operation).Observe(d.Seconds())
	if err != nil {
		m.DBQueryErrors.WithLabelValues(database, operation).Inc()
	}
}

// RecordScheduledRun records a scheduler tick.
func (m *Metrics) RecordScheduledRun(err error) {
	if m == nil {
		return
	}
	status := "success"
	if err != nil {
		status = "failure"
	}
	m.ScheduledRuns.WithLabelValues(status).Inc()
}
