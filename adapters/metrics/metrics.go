// Package metrics provides Prometheus metrics collection for tokenmeter.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Collector holds all Prometheus metrics for tokenmeter.
type Collector struct {
	// Ledger metrics
	EventsRecorded *prometheus.CounterVec
	TokensRecorded *prometheus.CounterVec
	CostRecorded   prometheus.Counter
	RecordErrors   prometheus.Counter

	// Budget metrics
	BudgetQueries    prometheus.Counter
	SpentTodayUSD    prometheus.Gauge
	BudgetPctUsed    prometheus.Gauge
	RemoteFetches    prometheus.Counter
	RemoteFetchFails prometheus.Counter
	HookIngested     prometheus.Counter

	// HTTP metrics
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec

	// Config metrics
	ConfigReloads      prometheus.Counter
	ConfigReloadErrors prometheus.Counter
}

// New creates a collector registered on the default registry.
func New() *Collector {
	return NewWith(prometheus.DefaultRegisterer)
}

// NewWith creates a collector registered on reg. Tests pass a fresh
// registry so repeated construction cannot collide.
func NewWith(reg prometheus.Registerer) *Collector {
	factory := promauto.With(reg)
	return &Collector{
		EventsRecorded: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "tokenmeter",
				Name:      "usage_events_total",
				Help:      "Usage events appended to the ledger",
			},
			[]string{"source", "model"},
		),
		TokensRecorded: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "tokenmeter",
				Name:      "usage_tokens_total",
				Help:      "Tokens recorded, by direction",
			},
			[]string{"direction"},
		),
		CostRecorded: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: "tokenmeter",
				Name:      "usage_cost_usd_total",
				Help:      "Total estimated cost recorded in USD",
			},
		),
		RecordErrors: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: "tokenmeter",
				Name:      "usage_record_errors_total",
				Help:      "Failed ledger writes",
			},
		),
		BudgetQueries: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: "tokenmeter",
				Name:      "budget_queries_total",
				Help:      "Budget status queries served",
			},
		),
		SpentTodayUSD: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: "tokenmeter",
				Name:      "budget_spent_today_usd",
				Help:      "Spend for the current UTC day as of the last budget query",
			},
		),
		BudgetPctUsed: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: "tokenmeter",
				Name:      "budget_pct_used",
				Help:      "Percent of daily budget used as of the last budget query",
			},
		),
		RemoteFetches: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: "tokenmeter",
				Name:      "remote_report_fetches_total",
				Help:      "Attempts to fetch the remote usage report",
			},
		),
		RemoteFetchFails: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: "tokenmeter",
				Name:      "remote_report_failures_total",
				Help:      "Remote usage report fetches that degraded to local-only",
			},
		),
		HookIngested: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: "tokenmeter",
				Name:      "hook_events_ingested_total",
				Help:      "Pending hook events drained into the ledger",
			},
		),
		RequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "tokenmeter",
				Name:      "http_requests_total",
				Help:      "HTTP requests processed",
			},
			[]string{"method", "path", "status"},
		),
		RequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "tokenmeter",
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
			},
			[]string{"method", "path"},
		),
		ConfigReloads: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: "tokenmeter",
				Name:      "config_reloads_total",
				Help:      "Successful configuration reloads",
			},
		),
		ConfigReloadErrors: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: "tokenmeter",
				Name:      "config_reload_errors_total",
				Help:      "Failed configuration reloads",
			},
		),
	}
}
