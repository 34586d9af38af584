package metrics

import (
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetrics(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.Tick()
	m.Tick()
	m.TickFailure("GOLDCO")
	m.Trade("buy", "ok")
	m.Save(nil)
	m.Save(errors.New("disk full"))
	m.SetPrice("GOLDCO", 1025)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.Ticks))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.TickFailures.WithLabelValues("GOLDCO")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Trades.WithLabelValues("buy", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Saves.WithLabelValues("error")))
	assert.Equal(t, 1025.0, testutil.ToFloat64(m.Price.WithLabelValues("GOLDCO")))
}

func TestNilMetrics(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.Tick()
		m.TickFailure("X")
		m.Trade("sell", "error")
		m.Save(nil)
		m.SetPrice("X", 1)
	})
}
