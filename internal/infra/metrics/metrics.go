// Package metrics holds the service's prometheus instruments.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	registry *prometheus.Registry

	DepositsCredited  *prometheus.CounterVec
	DepositsPending   prometheus.Counter
	DepositsDuplicate prometheus.Counter
	DepositsRejected  *prometheus.CounterVec
	RollsTotal        *prometheus.CounterVec
	WithdrawalsTotal  *prometheus.CounterVec
	NotifyFailures    prometheus.Counter
}

func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	m := &Metrics{
		registry: reg,
		DepositsCredited: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ledgerd_deposits_credited_total",
			Help: "Deposits credited to user balances, by asset.",
		}, []string{"asset"}),
		DepositsPending: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "ledgerd_deposits_pending_total",
			Help: "Deposit notifications below the confirmation threshold.",
		}),
		DepositsDuplicate: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "ledgerd_deposits_duplicate_total",
			Help: "Redelivered deposit notifications suppressed by the tx id log.",
		}),
		DepositsRejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ledgerd_deposits_rejected_total",
			Help: "Deposit notifications rejected before any mutation, by reason.",
		}, []string{"reason"}),
		RollsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ledgerd_rolls_total",
			Help: "Settled dice rolls, by outcome.",
		}, []string{"outcome"}),
		WithdrawalsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ledgerd_withdrawals_total",
			Help: "Withdrawal attempts, by status.",
		}, []string{"status"}),
		NotifyFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "ledgerd_notify_failures_total",
			Help: "Notification jobs dropped after exhausting retries.",
		}),
	}

	reg.MustRegister(
		m.DepositsCredited,
		m.DepositsPending,
		m.DepositsDuplicate,
		m.DepositsRejected,
		m.RollsTotal,
		m.WithdrawalsTotal,
		m.NotifyFailures,
	)

	return m
}

// Handler serves the /metrics endpoint for this registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
