package persist

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/rustyeddy/stockmarket/internal/metrics"
	"github.com/rustyeddy/stockmarket/ledger"
	"github.com/rustyeddy/stockmarket/market"
)

// Gateway moves state between the live stores and a Store. Saves are
// serialized; a save captures prices and holdings, each at a single point
// in time.
type Gateway struct {
	store   Store
	prices  *market.PriceStore
	ledger  *ledger.Ledger
	now     func() time.Time
	log     zerolog.Logger
	metrics *metrics.Metrics

	saveMu   sync.Mutex
	requests chan struct{}
}

type GatewayOption func(*Gateway)

func WithGatewayClock(now func() time.Time) GatewayOption {
	return func(g *Gateway) { g.now = now }
}

func WithGatewayLogger(l zerolog.Logger) GatewayOption {
	return func(g *Gateway) { g.log = l }
}

func WithGatewayMetrics(m *metrics.Metrics) GatewayOption {
	return func(g *Gateway) { g.metrics = m }
}

func NewGateway(store Store, prices *market.PriceStore, l *ledger.Ledger, opts ...GatewayOption) *Gateway {
	g := &Gateway{
		store:    store,
		prices:   prices,
		ledger:   l,
		now:      time.Now,
		log:      zerolog.Nop(),
		requests: make(chan struct{}, 1),
	}
	for _, o := range opts {
		o(g)
	}
	return g
}

// Capture builds a snapshot of the live stores.
func (g *Gateway) Capture() *Snapshot {
	snap := &Snapshot{Version: SnapshotVersion, SavedAt: g.now().UTC()}
	for _, r := range g.prices.Snapshot() {
		snap.Prices = append(snap.Prices, PriceEntry{
			InstrumentID: r.InstrumentID,
			Current:      r.Current,
			Previous:     r.Previous,
			UpdatedAt:    r.UpdatedAt,
		})
	}
	for _, h := range g.ledger.Snapshot() {
		snap.Holdings = append(snap.Holdings, HoldingEntry{
			Player:       h.Player,
			InstrumentID: h.InstrumentID,
			Quantity:     h.Quantity,
		})
	}
	return snap
}

// SaveAll writes the current state. Failures are logged and returned
// wrapped in market.ErrPersistence; in-memory state is untouched either way.
func (g *Gateway) SaveAll(ctx context.Context) error {
	g.saveMu.Lock()
	defer g.saveMu.Unlock()

	snap := g.Capture()
	err := g.store.Save(ctx, snap)
	g.metrics.Save(err)
	if err != nil {
		g.log.Error().Err(err).Msg("save failed")
		return fmt.Errorf("%w: %v", market.ErrPersistence, err)
	}
	g.log.Debug().
		Int("prices", len(snap.Prices)).
		Int("holdings", len(snap.Holdings)).
		Msg("saved")
	return nil
}

// LoadReport describes what LoadAll did.
type LoadReport struct {
	Restored bool
	Holdings int
	Seeded   []string
	Orphaned []string
	// Err is the load failure that forced a fresh start, if any.
	Err error
}

// LoadAll restores the last snapshot and reconciles it with the catalog:
// instruments without a saved price start at base price, saved prices for
// unknown instruments are kept. A missing, unreadable or invalid snapshot
// never stops startup; the stores are reset and seeded from the catalog.
func (g *Gateway) LoadAll(ctx context.Context, cat *market.Catalog) LoadReport {
	var rep LoadReport

	snap, err := g.store.Load(ctx)
	switch {
	case errors.Is(err, ErrNoSnapshot):
		g.log.Info().Msg("no saved state, starting from catalog")
	case err != nil:
		rep.Err = fmt.Errorf("%w: %v", market.ErrPersistence, err)
		g.log.Warn().Err(err).Msg("load failed, starting from catalog")
	default:
		if err := g.restore(snap); err != nil {
			rep.Err = fmt.Errorf("%w: %v", market.ErrPersistence, err)
			g.log.Warn().Err(err).Msg("saved state invalid, starting from catalog")
		} else {
			rep.Restored = true
			rep.Holdings = len(snap.Holdings)
			for _, p := range snap.Prices {
				if !cat.Has(p.InstrumentID) {
					rep.Orphaned = append(rep.Orphaned, p.InstrumentID)
				}
			}
		}
	}

	if !rep.Restored {
		_ = g.prices.Restore(nil)
		_ = g.ledger.Restore(nil)
	}
	rep.Seeded = g.prices.Seed(cat, g.now().UTC())

	g.log.Info().
		Bool("restored", rep.Restored).
		Int("holdings", rep.Holdings).
		Strs("seeded", rep.Seeded).
		Strs("orphaned", rep.Orphaned).
		Msg("state loaded")
	return rep
}

func (g *Gateway) restore(snap *Snapshot) error {
	records := make([]market.PriceRecord, 0, len(snap.Prices))
	for _, p := range snap.Prices {
		records = append(records, market.PriceRecord{
			InstrumentID: p.InstrumentID,
			Current:      p.Current,
			Previous:     p.Previous,
			UpdatedAt:    p.UpdatedAt,
		})
	}
	holdings := make([]ledger.Holding, 0, len(snap.Holdings))
	for _, h := range snap.Holdings {
		holdings = append(holdings, ledger.Holding{
			Player:       h.Player,
			InstrumentID: h.InstrumentID,
			Quantity:     h.Quantity,
		})
	}

	if err := g.prices.Restore(records); err != nil {
		return err
	}
	return g.ledger.Restore(holdings)
}

// RequestSave asks Run to save soon. It never blocks; requests made while
// one is already pending are merged.
func (g *Gateway) RequestSave() {
	select {
	case g.requests <- struct{}{}:
	default:
	}
}

// Run saves every interval and on request until ctx is done. A
// non-positive interval disables the periodic save. Failed saves are
// retried on the next trigger.
func (g *Gateway) Run(ctx context.Context, interval time.Duration) {
	var tick <-chan time.Time
	if interval > 0 {
		t := time.NewTicker(interval)
		defer t.Stop()
		tick = t.C
	}

	for {
		select {
		case <-ctx.Done():
			return
		case <-tick:
		case <-g.requests:
		}
		_ = g.SaveAll(ctx)
	}
}
