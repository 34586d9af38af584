package sim

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/rustyeddy/stockmarket/internal/metrics"
	"github.com/rustyeddy/stockmarket/market"
)

// CatalogFunc returns the catalog in force. It is called once per tick so
// a reload takes effect on the next tick.
type CatalogFunc func() *market.Catalog

// Commit sources passed to a CommitListener.
const (
	SourceTick     = "tick"
	SourceOverride = "override"
)

// CommitListener is told about every committed batch of prices. It runs
// after the commit, outside the scheduler's locks.
type CommitListener func(source string, records []market.PriceRecord)

// Result describes one tick.
type Result struct {
	Committed []market.PriceRecord
	Failed    map[string]error
}

// Scheduler evolves prices on a fixed interval. Ticks and overrides are
// serialized; each one commits all of its prices in a single PriceStore
// batch.
type Scheduler struct {
	prices    *market.PriceStore
	catalog   CatalogFunc
	model     Model
	bounds    market.Bounds
	newTicker TickerFactory
	now       func() time.Time
	listener  CommitListener
	log       zerolog.Logger
	metrics   *metrics.Metrics

	tickMu sync.Mutex

	mu       sync.Mutex
	cancel   context.CancelFunc
	done     chan struct{}
	interval time.Duration
}

type Option func(*Scheduler)

func WithTickerFactory(f TickerFactory) Option {
	return func(s *Scheduler) { s.newTicker = f }
}

func WithClock(now func() time.Time) Option {
	return func(s *Scheduler) { s.now = now }
}

func WithLogger(l zerolog.Logger) Option {
	return func(s *Scheduler) { s.log = l }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Scheduler) { s.metrics = m }
}

func WithCommitListener(fn CommitListener) Option {
	return func(s *Scheduler) { s.listener = fn }
}

// NewScheduler builds a stopped scheduler. bounds is applied to manual
// overrides; model is responsible for bounding ticked prices.
func NewScheduler(prices *market.PriceStore, catalog CatalogFunc, model Model, bounds market.Bounds, opts ...Option) *Scheduler {
	s := &Scheduler{
		prices:    prices,
		catalog:   catalog,
		model:     model,
		bounds:    bounds,
		newTicker: NewTimeTicker,
		now:       time.Now,
		log:       zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start begins ticking every interval. Starting a running scheduler with
// the same interval is a no-op; a different interval restarts it.
func (s *Scheduler) Start(interval time.Duration) error {
	if interval <= 0 {
		return fmt.Errorf("%w: tick interval must be positive, got %s", market.ErrInvalidArgument, interval)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cancel != nil {
		if s.interval == interval {
			return nil
		}
		s.stopLocked()
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	s.cancel, s.done, s.interval = cancel, done, interval

	t := s.newTicker(interval)
	go s.run(ctx, t, done)

	s.log.Info().Dur("interval", interval).Msg("price scheduler started")
	return nil
}

// Stop cancels the recurring task and waits for an in-flight tick to
// finish. It is safe to call when not running.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel == nil {
		return
	}
	s.stopLocked()
	s.log.Info().Msg("price scheduler stopped")
}

func (s *Scheduler) stopLocked() {
	s.cancel()
	<-s.done
	s.cancel, s.done, s.interval = nil, nil, 0
}

func (s *Scheduler) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cancel != nil
}

func (s *Scheduler) run(ctx context.Context, t Ticker, done chan struct{}) {
	defer close(done)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C():
			if ctx.Err() != nil {
				return
			}
			s.Tick()
		}
	}
}

// Tick runs the price model once for every catalog instrument. An
// instrument whose model fails keeps its price; the rest still commit.
func (s *Scheduler) Tick() Result {
	s.tickMu.Lock()
	res := s.tickLocked()
	s.tickMu.Unlock()

	s.metrics.Tick()
	for _, r := range res.Committed {
		s.metrics.SetPrice(r.InstrumentID, r.Current.InexactFloat64())
	}
	s.notify(SourceTick, res.Committed)
	return res
}

func (s *Scheduler) tickLocked() Result {
	cat := s.catalog()
	res := Result{Failed: map[string]error{}}
	updates := make(map[string]decimal.Decimal, cat.Len())

	for _, in := range cat.Instruments() {
		rec, err := s.prices.Get(in.ID)
		if err != nil {
			s.fail(&res, in.ID, fmt.Errorf("%w: %v", market.ErrSchedulerTick, err))
			continue
		}
		next, err := s.next(in, rec.Current)
		if err != nil {
			s.fail(&res, in.ID, err)
			continue
		}
		updates[in.ID] = next
	}

	res.Committed = s.prices.CommitBatch(updates, s.now())
	s.log.Debug().
		Int("committed", len(res.Committed)).
		Int("failed", len(res.Failed)).
		Msg("tick applied")
	return res
}

// next isolates a single instrument's model call, including panics.
func (s *Scheduler) next(in market.Instrument, cur decimal.Decimal) (p decimal.Decimal, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %s: panic: %v", market.ErrSchedulerTick, in.ID, r)
		}
	}()

	p, err = s.model.Next(in, cur)
	if err != nil {
		if !errors.Is(err, market.ErrSchedulerTick) {
			err = fmt.Errorf("%w: %s: %v", market.ErrSchedulerTick, in.ID, err)
		}
		return decimal.Zero, err
	}
	if !p.IsPositive() {
		return decimal.Zero, fmt.Errorf("%w: %s: model produced non-positive price %s", market.ErrSchedulerTick, in.ID, p)
	}
	return p, nil
}

func (s *Scheduler) fail(res *Result, id string, err error) {
	res.Failed[id] = err
	s.metrics.TickFailure(id)
	s.log.Error().Err(err).Str("instrument", id).Msg("price update failed, keeping previous price")
}

// Override commits an explicit price for one instrument. The price is
// clamped to the configured bounds and Previous is recorded exactly as on
// a tick.
func (s *Scheduler) Override(id string, price decimal.Decimal) (market.PriceRecord, error) {
	in, err := s.catalog().Lookup(id)
	if err != nil {
		return market.PriceRecord{}, err
	}
	if !price.IsPositive() {
		return market.PriceRecord{}, fmt.Errorf("%w: price must be positive, got %s", market.ErrInvalidArgument, price)
	}

	s.tickMu.Lock()
	rec, err := s.prices.Commit(id, s.bounds.Clamp(in, price), s.now())
	s.tickMu.Unlock()
	if err != nil {
		return market.PriceRecord{}, err
	}

	s.metrics.SetPrice(id, rec.Current.InexactFloat64())
	s.log.Info().Str("instrument", id).Str("price", rec.Current.String()).Msg("price overridden")
	s.notify(SourceOverride, []market.PriceRecord{rec})
	return rec, nil
}

func (s *Scheduler) notify(source string, records []market.PriceRecord) {
	if s.listener != nil && len(records) > 0 {
		s.listener(source, records)
	}
}
