package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	PairsEvaluated = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "scan_pairs_evaluated_total", Help: "Candidates evaluated by the decision engine"},
	)
	PairsSkipped = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "scan_pairs_skipped_total", Help: "Candidates skipped for missing market data"},
	)
	VerdictsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "scan_verdicts_total", Help: "Scan verdicts by result"},
		[]string{"qualified"},
	)
	OrdersSubmitted = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "orders_submitted_total", Help: "Limit orders submitted"},
		[]string{"pair", "side"},
	)
	OrderOutcomes = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "order_outcomes_total", Help: "Terminal order outcomes"},
		[]string{"side", "outcome"},
	)
	ExchangeRetries = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "exchange_retries_total", Help: "Retried exchange calls"},
	)
)

func init() {
	prometheus.MustRegister(PairsEvaluated, PairsSkipped, VerdictsTotal, OrdersSubmitted, OrderOutcomes, ExchangeRetries)
}

func Serve(addr string) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Addr: addr, Handler: mux}
	go func() { _ = srv.ListenAndServe() }()
	return srv
}
