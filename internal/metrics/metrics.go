// Package metrics holds the Prometheus collectors for the engine. Every
// method is safe on a nil *Metrics so components can run without them.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "stockmarket"

type Metrics struct {
	Ticks        prometheus.Counter
	TickFailures *prometheus.CounterVec
	Trades       *prometheus.CounterVec
	Saves        *prometheus.CounterVec
	Price        *prometheus.GaugeVec
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Ticks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ticks_total",
			Help:      "Price ticks applied, scheduled or forced.",
		}),
		TickFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tick_failures_total",
			Help:      "Instruments whose price could not be computed during a tick.",
		}, []string{"instrument"}),
		Trades: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "trades_total",
			Help:      "Buy and sell requests by outcome.",
		}, []string{"side", "result"}),
		Saves: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "saves_total",
			Help:      "Snapshot saves by outcome.",
		}, []string{"result"}),
		Price: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "price",
			Help:      "Current committed price per instrument.",
		}, []string{"instrument"}),
	}
	if reg != nil {
		reg.MustRegister(m.Ticks, m.TickFailures, m.Trades, m.Saves, m.Price)
	}
	return m
}

func (m *Metrics) Tick() {
	if m == nil {
		return
	}
	m.Ticks.Inc()
}

func (m *Metrics) TickFailure(instrument string) {
	if m == nil {
		return
	}
	m.TickFailures.WithLabelValues(instrument).Inc()
}

func (m *Metrics) Trade(side, result string) {
	if m == nil {
		return
	}
	m.Trades.WithLabelValues(side, result).Inc()
}

func (m *Metrics) Save(err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.Saves.WithLabelValues(result).Inc()
}

func (m *Metrics) SetPrice(instrument string, price float64) {
	if m == nil {
		return
	}
	m.Price.WithLabelValues(instrument).Set(price)
}
