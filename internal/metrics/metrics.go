package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	ExecutionsFetched = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "flexledger_executions_fetched_total", Help: "Raw execution rows returned upstream"},
		[]string{"schema"},
	)
	ExecutionsSkipped = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "flexledger_executions_skipped_total", Help: "Raw execution rows dropped by the normalizer"},
		[]string{"reason"},
	)
	LedgerAppended = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "flexledger_ledger_appended_total", Help: "Executions appended to the ledger"},
	)
	Fills = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "flexledger_fills_total", Help: "Ledger entries consumed by the reconciler, by outcome"},
		[]string{"result"},
	)
	Runs = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "flexledger_runs_total", Help: "Pipeline stage runs"},
		[]string{"stage", "outcome"},
	)
	HTTPRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "flexledger_http_requests_total", Help: "HTTP requests served, by matched route"},
		[]string{"method", "route", "status"},
	)
	Panics = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "flexledger_http_panics_total", Help: "Handler panics recovered"},
	)
)

func init() {
	prometheus.MustRegister(ExecutionsFetched, ExecutionsSkipped, LedgerAppended, Fills, Runs, HTTPRequests, Panics)
}

// Handler exposes the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
