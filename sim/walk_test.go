package sim

import (
	"math"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rustyeddy/stockmarket/market"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

var goldco = market.Instrument{
	ID:         "GOLDCO",
	BasePrice:  d("1000"),
	Volatility: d("0.05"),
}

func TestWalkExample(t *testing.T) {
	t.Parallel()

	w := Walk{Bounds: market.DefaultBounds(), Source: Fixed(0.5)}
	next, err := w.Next(goldco, d("1000"))
	require.NoError(t, err)
	assert.Equal(t, "1025", next.String())

	rec := market.PriceRecord{Current: next, Previous: d("1000")}
	assert.Equal(t, "+2.5%", market.FormatChange(rec))
}

func TestWalkDrift(t *testing.T) {
	t.Parallel()

	in := goldco
	in.DriftBias = d("0.01")
	w := Walk{Bounds: market.DefaultBounds(), Source: Fixed(0)}

	next, err := w.Next(in, d("1000"))
	require.NoError(t, err)
	assert.Equal(t, "1010", next.String())
}

func TestWalkClampsToFloor(t *testing.T) {
	t.Parallel()

	in := goldco
	in.Volatility = d("5")
	w := Walk{Bounds: market.DefaultBounds(), Source: Fixed(-1)}

	next, err := w.Next(in, d("1000"))
	require.NoError(t, err)
	assert.Equal(t, "10", next.String(), "floor is 1% of base price")
}

func TestWalkClampsToCap(t *testing.T) {
	t.Parallel()

	b := market.DefaultBounds()
	b.MaxRatio = d("1.5")
	w := Walk{Bounds: b, Source: Fixed(1)}

	p := d("1000")
	for i := 0; i < 20; i++ {
		var err error
		p, err = w.Next(goldco, p)
		require.NoError(t, err)
	}
	assert.Equal(t, "1500", p.String())
}

func TestWalkRejectsNaN(t *testing.T) {
	t.Parallel()

	w := Walk{Bounds: market.DefaultBounds(), Source: Fixed(math.NaN())}
	_, err := w.Next(goldco, d("1000"))
	assert.ErrorIs(t, err, market.ErrSchedulerTick)
}

func TestWalkStaysPositive(t *testing.T) {
	t.Parallel()

	src, err := NewSource("normal", 42)
	require.NoError(t, err)
	in := goldco
	in.Volatility = d("0.9")
	in.DriftBias = d("-0.2")
	w := Walk{Bounds: market.DefaultBounds(), Source: src}

	p := in.BasePrice
	for i := 0; i < 2000; i++ {
		p, err = w.Next(in, p)
		require.NoError(t, err)
		require.True(t, p.IsPositive(), "tick %d produced %s", i, p)
	}
}

func TestSourcesAreSeeded(t *testing.T) {
	t.Parallel()

	a, b := NewUniform(7), NewUniform(7)
	for i := 0; i < 100; i++ {
		fa, fb := a.Factor(), b.Factor()
		require.Equal(t, fa, fb)
		require.GreaterOrEqual(t, fa, -1.0)
		require.Less(t, fa, 1.0)
	}

	n := NewNormal(7)
	for i := 0; i < 1000; i++ {
		f := n.Factor()
		require.GreaterOrEqual(t, f, -1.0)
		require.LessOrEqual(t, f, 1.0)
	}

	_, err := NewSource("cauchy", 1)
	assert.ErrorIs(t, err, market.ErrInvalidArgument)
}
