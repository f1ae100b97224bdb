// Package observability provides Prometheus metrics for monitoring.
package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	// Crawl metrics
	PagesFetched            prometheus.Counter
	SignaturesSeen          prometheus.Counter
	TransactionsFetched     prometheus.Counter
	TransactionsUnfetchable prometheus.Counter
	TransactionsMalformed   prometheus.Counter
	InstructionsMatched     prometheus.Counter
	AccountsExtracted       *prometheus.CounterVec
	CrawlRunsTotal          *prometheus.CounterVec
	CrawlDuration           prometheus.Histogram
	CrawlInProgress         prometheus.Gauge

	// RPC metrics
	RPCCallLatency *prometheus.HistogramVec
	RPCCallErrors  *prometheus.CounterVec

	// Database metrics
	DBQueryDuration *prometheus.HistogramVec
	DBQueryErrors   *prometheus.CounterVec

	// Health metrics
	LastSuccessfulCrawl prometheus.Gauge
}

// NewMetrics creates a new Metrics instance with all metrics registered.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "solana_crawler"
	}

	return &Metrics{
		// Crawl metrics
		PagesFetched: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "crawl",
			Name:      "pages_fetched_total",
			Help:      "Total number of signature pages fetched",
		}),
		SignaturesSeen: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "crawl",
			Name:      "signatures_seen_total",
			Help:      "Total number of signatures visited",
		}),
		TransactionsFetched: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "crawl",
			Name:      "transactions_fetched_total",
			Help:      "Total number of transactions fetched and processed",
		}),
		TransactionsUnfetchable: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "crawl",
			Name:      "transactions_unfetchable_total",
			Help:      "Total number of transactions that could not be fetched",
		}),
		TransactionsMalformed: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "crawl",
			Name:      "transactions_malformed_total",
			Help:      "Total number of transactions skipped as malformed",
		}),
		InstructionsMatched: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "crawl",
			Name:      "instructions_matched_total",
			Help:      "Total number of instructions that passed all filters",
		}),
		AccountsExtracted: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "crawl",
			Name:      "accounts_extracted_total",
			Help:      "Total number of accounts extracted by label",
		}, []string{"label"}),
		CrawlRunsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "crawl",
			Name:      "runs_total",
			Help:      "Total number of crawl runs by status",
		}, []string{"status"}),
		CrawlDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "crawl",
			Name:      "duration_seconds",
			Help:      "Crawl run duration in seconds",
			Buckets:   []float64{1, 5, 10, 30, 60, 120, 300, 600},
		}),
		CrawlInProgress: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "crawl",
			Name:      "in_progress",
			Help:      "Whether a crawl run is currently in progress",
		}),

		// RPC metrics
		RPCCallLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "solana",
			Name:      "rpc_call_latency_seconds",
			Help:      "Solana RPC call latency in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method"}),
		RPCCallErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "solana",
			Name:      "rpc_call_errors_total",
			Help:      "Total number of failed Solana RPC calls",
		}, []string{"method"}),

		// Database metrics
		DBQueryDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "database",
			Name:      "query_duration_seconds",
			Help:      "Database query duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"database", "operation"}),
		DBQueryErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "database",
			Name:      "query_errors_total",
			Help:      "Total number of database query errors",
		}, []string{"database", "operation"}),

		// Health metrics
		LastSuccessfulCrawl: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "health",
			Name:      "last_successful_crawl_timestamp",
			Help:      "Unix timestamp of last successful crawl run",
		}),
	}
}

// Handler returns an HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// DefaultMetrics is the default metrics instance.
var DefaultMetrics = NewMetrics("")

// RecordPagesFetched adds fetched pages and their signatures.
func RecordPagesFetched(pages, signatures int) {
	DefaultMetrics.PagesFetched.Add(float64(pages))
	DefaultMetrics.SignaturesSeen.Add(float64(signatures))
}

// RecordTransactionsProcessed adds fetch outcomes for one page.
func RecordTransactionsProcessed(fetched, unfetchable, malformed int) {
	DefaultMetrics.TransactionsFetched.Add(float64(fetched))
	DefaultMetrics.TransactionsUnfetchable.Add(float64(unfetchable))
	DefaultMetrics.TransactionsMalformed.Add(float64(malformed))
}

// RecordInstructionsMatched adds to the matched instruction counter.
func RecordInstructionsMatched(n int) {
	DefaultMetrics.InstructionsMatched.Add(float64(n))
}

// RecordAccountsExtracted adds to a label's extraction counter.
func RecordAccountsExtracted(label string, n int) {
	DefaultMetrics.AccountsExtracted.WithLabelValues(label).Add(float64(n))
}

// RecordCrawlRun records a finished crawl run.
func RecordCrawlRun(status string, durationSeconds float64) {
	DefaultMetrics.CrawlRunsTotal.WithLabelValues(status).Inc()
	DefaultMetrics.CrawlDuration.Observe(durationSeconds)
	if status == "COMPLETED" {
		DefaultMetrics.LastSuccessfulCrawl.SetToCurrentTime()
	}
}

// SetCrawlInProgress flips the in-progress gauge.
func SetCrawlInProgress(running bool) {
	if running {
		DefaultMetrics.CrawlInProgress.Set(1)
	} else {
		DefaultMetrics.CrawlInProgress.Set(0)
	}
}

// RecordRPCCall records one RPC call's latency and outcome.
func RecordRPCCall(method string, seconds float64, err error) {
	DefaultMetrics.RPCCallLatency.WithLabelValues(method).Observe(seconds)
	if err != nil {
		DefaultMetrics.RPCCallErrors.WithLabelValues(method).Inc()
	}
}

// RecordDBQuery records database query metrics.
func RecordDBQuery(database, operation string, seconds float64, err error) {
	DefaultMetrics.DBQueryDuration.WithLabelValues(database, operation).Observe(seconds)
	if err != nil {
		DefaultMetrics.DBQueryErrors.WithLabelValues(database, operation).Inc()
	}
}
