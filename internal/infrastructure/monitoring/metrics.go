package monitoring

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type HTTPMetrics struct {
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
}

type DBMetrics struct {
	QueryDuration *prometheus.HistogramVec
}

type UnderwritingMetrics struct {
	DecisionsTotal     *prometheus.CounterVec
	CreditScore        prometheus.Histogram
	SnapshotsRefreshed *prometheus.CounterVec
	CustomersCreated   prometheus.Counter
}

var (
	HTTP = HTTPMetrics{
		RequestsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "underwriting_engine_http_requests_total",
				Help: "Total number of HTTP requests received.",
			},
			[]string{"method", "path", "code"},
		),
		RequestDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "underwriting_engine_http_request_duration_seconds",
				Help:    "Histogram of HTTP request latencies.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path", "code"},
		),
	}

	DB = DBMetrics{
		QueryDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "underwriting_engine_db_query_duration_seconds",
				Help:    "Histogram of database query latencies.",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
			},
			[]string{"query_name", "status"},
		),
	}

	Underwriting = UnderwritingMetrics{
		DecisionsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "underwriting_engine_decisions_total",
				Help: "Loan decisions by operation, branch and outcome.",
			},
			[]string{"operation", "branch", "approved"},
		),
		CreditScore: promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "underwriting_engine_credit_score",
				Help:    "Distribution of computed credit scores.",
				Buckets: prometheus.LinearBuckets(10, 10, 10),
			},
		),
		SnapshotsRefreshed: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "underwriting_engine_score_snapshot_runs_total",
				Help: "Credit score snapshot batch runs by status.",
			},
			[]string{"status"},
		),
		CustomersCreated: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "underwriting_engine_customers_created_total",
				Help: "Total number of customers registered.",
			},
		),
	}
)

func RecordHTTPRequest(method, path, code string, duration time.Duration) {
	HTTP.RequestsTotal.WithLabelValues(method, path, code).Inc()
	HTTP.RequestDuration.WithLabelValues(method, path, code).Observe(duration.Seconds())
}

func RecordDBQuery(queryName, status string, duration time.Duration) {
	DB.QueryDuration.WithLabelValues(queryName, status).Observe(duration.Seconds())
}

func RecordSnapshotRun(status string) {
	Underwriting.SnapshotsRefreshed.WithLabelValues(status).Inc()
}

func RecordCustomerCreated() {
	Underwriting.CustomersCreated.Inc()
}

// DecisionRecorder reports underwriting outcomes to Prometheus.
type DecisionRecorder struct{}

func (DecisionRecorder) RecordDecision(operation, branch string, approved bool) {
	Underwriting.DecisionsTotal.WithLabelValues(operation, branch, strconv.FormatBool(approved)).Inc()
}

func (DecisionRecorder) ObserveCreditScore(score int) {
	Underwriting.CreditScore.Observe(float64(score))
}
