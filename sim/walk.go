package sim

import (
	"fmt"
	"math"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/rustyeddy/stockmarket/market"
)

// FactorSource yields the random factor of one price move, in [-1, 1].
type FactorSource interface {
	Factor() float64
}

// Uniform draws factors uniformly from [-1, 1).
type Uniform struct {
	mu sync.Mutex
	r  *rand.Rand
}

func NewUniform(seed int64) *Uniform {
	return &Uniform{r: rand.New(rand.NewSource(seed))}
}

func (u *Uniform) Factor() float64 {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.r.Float64()*2 - 1
}

// Normal draws from a standard normal, clamped to [-1, 1].
type Normal struct {
	mu sync.Mutex
	r  *rand.Rand
}

func NewNormal(seed int64) *Normal {
	return &Normal{r: rand.New(rand.NewSource(seed))}
}

func (n *Normal) Factor() float64 {
	n.mu.Lock()
	defer n.mu.Unlock()
	return math.Max(-1, math.Min(1, n.r.NormFloat64()))
}

// Fixed always returns the same factor.
type Fixed float64

func (f Fixed) Factor() float64 { return float64(f) }

// NewSource builds the named distribution. A zero seed seeds from the
// clock.
func NewSource(distribution string, seed int64) (FactorSource, error) {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	switch strings.ToLower(distribution) {
	case "", "uniform":
		return NewUniform(seed), nil
	case "normal":
		return NewNormal(seed), nil
	default:
		return nil, fmt.Errorf("%w: unknown distribution %q", market.ErrInvalidArgument, distribution)
	}
}

// Model computes the next price of an instrument from its current price.
type Model interface {
	Next(in market.Instrument, current decimal.Decimal) (decimal.Decimal, error)
}

// Walk is a bounded random walk with drift:
//
//	delta = current*volatility*factor + current*drift
//	next  = clamp(current+delta, min, max)
type Walk struct {
	Bounds market.Bounds
	Source FactorSource
}

func (w Walk) Next(in market.Instrument, current decimal.Decimal) (decimal.Decimal, error) {
	f := w.Source.Factor()
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return decimal.Zero, fmt.Errorf("%w: factor %v for %s", market.ErrSchedulerTick, f, in.ID)
	}
	f = math.Max(-1, math.Min(1, f))

	delta := current.Mul(in.Volatility).Mul(decimal.NewFromFloat(f)).
		Add(current.Mul(in.DriftBias))
	return w.Bounds.Clamp(in, current.Add(delta)), nil
}
