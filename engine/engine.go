// Package engine wires the market together: catalog, price store,
// scheduler, ledger, broker and persistence, behind one object with an
// explicit Open, Start, Stop, Close lifecycle.
package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/rustyeddy/stockmarket/broker"
	"github.com/rustyeddy/stockmarket/economy"
	"github.com/rustyeddy/stockmarket/internal/logging"
	"github.com/rustyeddy/stockmarket/internal/metrics"
	"github.com/rustyeddy/stockmarket/journal"
	"github.com/rustyeddy/stockmarket/ledger"
	"github.com/rustyeddy/stockmarket/market"
	"github.com/rustyeddy/stockmarket/persist"
	"github.com/rustyeddy/stockmarket/sim"
)

// Params are the required collaborators and settings.
type Params struct {
	Catalog *market.Catalog
	Bounds  market.Bounds
	Store   persist.Store
	Economy economy.Provider

	// Source drives the random walk. Nil means a clock-seeded uniform source.
	Source sim.FactorSource

	Interval         time.Duration
	AutosaveInterval time.Duration
	// SaveOnTick asks for a save after every committed tick or override.
	SaveOnTick bool
}

type Engine struct {
	catalog atomic.Pointer[market.Catalog]
	bounds  market.Bounds

	prices    *market.PriceStore
	ledger    *ledger.Ledger
	economy   economy.Provider
	scheduler *sim.Scheduler
	broker    *broker.Broker
	gateway   *persist.Gateway
	store     persist.Store
	journal   journal.Journal

	interval   time.Duration
	autosave   time.Duration
	saveOnTick bool

	now       func() time.Time
	log       zerolog.Logger
	metrics   *metrics.Metrics
	newTicker sim.TickerFactory

	mu           sync.Mutex
	opened       bool
	runCancel    context.CancelFunc
	autosaveDone chan struct{}
}

type Option func(*Engine)

func WithJournal(j journal.Journal) Option {
	return func(e *Engine) { e.journal = j }
}

func WithLogger(l zerolog.Logger) Option {
	return func(e *Engine) { e.log = l }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(e *Engine) { e.metrics = m }
}

func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

func WithTickerFactory(f sim.TickerFactory) Option {
	return func(e *Engine) { e.newTicker = f }
}

// New builds a closed engine. Call Open before serving requests.
func New(p Params, opts ...Option) (*Engine, error) {
	if p.Catalog == nil || p.Catalog.Len() == 0 {
		return nil, fmt.Errorf("%w: catalog is empty", market.ErrInvalidArgument)
	}
	if p.Store == nil {
		return nil, fmt.Errorf("%w: store is required", market.ErrInvalidArgument)
	}
	if p.Economy == nil {
		return nil, fmt.Errorf("%w: economy provider is required", market.ErrInvalidArgument)
	}
	if p.Interval <= 0 {
		return nil, fmt.Errorf("%w: tick interval must be positive", market.ErrInvalidArgument)
	}
	if err := p.Bounds.Check(p.Catalog); err != nil {
		return nil, err
	}
	src := p.Source
	if src == nil {
		src = sim.NewUniform(time.Now().UnixNano())
	}

	e := &Engine{
		bounds:     p.Bounds,
		prices:     market.NewPriceStore(),
		ledger:     ledger.New(),
		economy:    p.Economy,
		store:      p.Store,
		journal:    journal.Discard{},
		interval:   p.Interval,
		autosave:   p.AutosaveInterval,
		saveOnTick: p.SaveOnTick,
		now:        time.Now,
		log:        zerolog.Nop(),
		newTicker:  sim.NewTimeTicker,
	}
	for _, o := range opts {
		o(e)
	}
	e.catalog.Store(p.Catalog)

	e.scheduler = sim.NewScheduler(e.prices, e.Catalog, sim.Walk{Bounds: p.Bounds, Source: src}, p.Bounds,
		sim.WithTickerFactory(e.newTicker),
		sim.WithClock(e.now),
		sim.WithLogger(logging.Component(e.log, "scheduler")),
		sim.WithMetrics(e.metrics),
		sim.WithCommitListener(e.onCommit),
	)
	e.broker = broker.New(e.prices, e.ledger, e.economy, e.Catalog,
		broker.WithJournal(e.journal),
		broker.WithClock(e.now),
		broker.WithLogger(logging.Component(e.log, "broker")),
		broker.WithMetrics(e.metrics),
	)
	e.gateway = persist.NewGateway(e.store, e.prices, e.ledger,
		persist.WithGatewayClock(e.now),
		persist.WithGatewayLogger(logging.Component(e.log, "persist")),
		persist.WithGatewayMetrics(e.metrics),
	)
	return e, nil
}

// Catalog returns the catalog in force.
func (e *Engine) Catalog() *market.Catalog {
	return e.catalog.Load()
}

// Open restores saved state, falling back to catalog base prices when the
// store is empty or unreadable. It must run before Start.
func (e *Engine) Open(ctx context.Context) persist.LoadReport {
	e.mu.Lock()
	defer e.mu.Unlock()

	rep := e.gateway.LoadAll(ctx, e.Catalog())
	for _, r := range e.prices.Snapshot() {
		e.metrics.SetPrice(r.InstrumentID, r.Current.InexactFloat64())
	}
	e.opened = true
	return rep
}

// Start runs the price scheduler and the autosave loop. Starting a
// running engine is a no-op.
func (e *Engine) Start(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.opened {
		return errors.New("engine: Start before Open")
	}
	if e.runCancel != nil {
		return nil
	}
	if err := e.scheduler.Start(e.interval); err != nil {
		return err
	}

	runCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	e.runCancel, e.autosaveDone = cancel, done
	go func() {
		defer close(done)
		e.gateway.Run(runCtx, e.autosave)
	}()

	e.log.Info().
		Dur("interval", e.interval).
		Dur("autosave", e.autosave).
		Int("instruments", e.Catalog().Len()).
		Msg("engine started")
	return nil
}

// Stop halts price updates, waits for any in-flight tick and pending save,
// then saves everything. Stopping a stopped engine still saves.
func (e *Engine) Stop(ctx context.Context) error {
	e.mu.Lock()
	e.scheduler.Stop()
	if e.runCancel != nil {
		e.runCancel()
		<-e.autosaveDone
		e.runCancel, e.autosaveDone = nil, nil
	}
	e.mu.Unlock()

	err := e.gateway.SaveAll(ctx)
	e.log.Info().Err(err).Msg("engine stopped")
	return err
}

// Close releases the store and the journal.
func (e *Engine) Close() error {
	return errors.Join(e.store.Close(), e.journal.Close())
}

func (e *Engine) Running() bool {
	return e.scheduler.Running()
}

func (e *Engine) onCommit(source string, records []market.PriceRecord) {
	for _, r := range records {
		err := e.journal.RecordPrice(journal.PricePoint{
			Time:       r.UpdatedAt,
			Instrument: r.InstrumentID,
			Price:      r.Current,
			Previous:   r.Previous,
			Source:     source,
		})
		if err != nil {
			e.log.Error().Err(err).Str("instrument", r.InstrumentID).Msg("journal price failed")
		}
	}
	if e.saveOnTick {
		e.gateway.RequestSave()
	}
}
