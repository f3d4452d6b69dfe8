package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	RequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"route", "method", "status"},
	)

	TransfersTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "transfers_total",
			Help: "Total completed ledger movements",
		},
		[]string{"type"}, // deposit|withdrawal|transfer|p2p|card_payment|goal_contribution|goal_withdrawal
	)
	TransfersFailed = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "transfers_failed_total",
			Help: "Total rejected or failed ledger movements",
		},
	)

	CardsIssued = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "cards_issued_total",
			Help: "Total virtual cards issued",
		},
	)

	WorkerQueueDepth = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "worker_queue_depth",
			Help: "Current worker queue depth",
		},
	)
)

var Handler = promhttp.Handler

func Init() {
	prometheus.MustRegister(RequestsTotal)
	prometheus.MustRegister(TransfersTotal)
	prometheus.MustRegister(TransfersFailed)
	prometheus.MustRegister(CardsIssued)
	prometheus.MustRegister(WorkerQueueDepth)
}
