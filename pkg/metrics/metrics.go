// Package metrics provides Prometheus metrics for the wagering daemon.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
)

// SaltMetrics collects and exposes daemon metrics on a private
// registry.
type SaltMetrics struct {
	registry *prometheus.Registry

	// Feed metrics
	PollsTotal  *prometheus.CounterVec
	EventsTotal *prometheus.CounterVec

	// Wager metrics
	BetsTotal *prometheus.CounterVec
	BetAmount prometheus.Histogram
	Balance   prometheus.Gauge

	// Settlement metrics
	SettlementsTotal *prometheus.CounterVec

	// Session metrics
	LoginsTotal *prometheus.CounterVec

	// Loop metrics
	FatalErrorsTotal prometheus.Counter
}

// NewSaltMetrics creates a new metrics collector.
func NewSaltMetrics() *SaltMetrics {
	registry := prometheus.NewRegistry()

	m := &SaltMetrics{
		registry: registry,

		PollsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "saltbet_polls_total",
				Help: "Total feed polls by result",
			},
			[]string{"result"},
		),
		EventsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "saltbet_events_total",
				Help: "Total match events emitted by kind",
			},
			[]string{"kind"},
		),

		BetsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "saltbet_bets_total",
				Help: "Total wagers placed",
			},
			[]string{"side", "retried"},
		),
		BetAmount: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "saltbet_bet_amount",
				Help:    "Wager size in currency units",
				Buckets: []float64{420, 1000, 2500, 5000, 10000, 25000, 50000, 100000},
			},
		),
		Balance: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "saltbet_balance",
				Help: "Last observed wagering balance",
			},
		),

		SettlementsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "saltbet_settlements_total",
				Help: "Total settled matches by outcome",
			},
			[]string{"outcome"},
		),

		LoginsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "saltbet_logins_total",
				Help: "Total login attempts by result",
			},
			[]string{"result"},
		),

		FatalErrorsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "saltbet_fatal_errors_total",
				Help: "Decision-loop cycles ended by a fatal error",
			},
		),
	}

	registry.MustRegister(
		m.PollsTotal,
		m.EventsTotal,
		m.BetsTotal,
		m.BetAmount,
		m.Balance,
		m.SettlementsTotal,
		m.LoginsTotal,
		m.FatalErrorsTotal,
	)

	return m
}

// Registry returns the private registry for the /metrics handler.
func (m *SaltMetrics) Registry() *prometheus.Registry {
	return m.registry
}

// RecordPoll records one poll cycle.
func (m *SaltMetrics) RecordPoll(err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.PollsTotal.WithLabelValues(result).Inc()
}

// RecordEvent records one emitted event.
func (m *SaltMetrics) RecordEvent(kind string) {
	m.EventsTotal.WithLabelValues(kind).Inc()
}

// RecordBet records one accepted wager.
func (m *SaltMetrics) RecordBet(side string, amount decimal.Decimal, retried bool) {
	label := "false"
	if retried {
		label = "true"
	}
	m.BetsTotal.WithLabelValues(side, label).Inc()
	m.BetAmount.Observe(amount.InexactFloat64())
}

// RecordSettlement records one committed settlement.
func (m *SaltMetrics) RecordSettlement(outcome string) {
	m.SettlementsTotal.WithLabelValues(outcome).Inc()
}

// RecordLogin records one login attempt.
func (m *SaltMetrics) RecordLogin(err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.LoginsTotal.WithLabelValues(result).Inc()
}
