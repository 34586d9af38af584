package engine

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/rustyeddy/stockmarket/broker"
	"github.com/rustyeddy/stockmarket/journal"
	"github.com/rustyeddy/stockmarket/market"
	"github.com/rustyeddy/stockmarket/pkg/id"
	"github.com/rustyeddy/stockmarket/sim"
)

func (e *Engine) Buy(player uuid.UUID, instrument string, quantity int64) (broker.OrderFill, error) {
	return e.broker.Buy(broker.OrderRequest{Player: player, Instrument: instrument, Quantity: quantity})
}

func (e *Engine) Sell(player uuid.UUID, instrument string, quantity int64) (broker.OrderFill, error) {
	return e.broker.Sell(broker.OrderRequest{Player: player, Instrument: instrument, Quantity: quantity})
}

// SetCurrentPrice is the admin price override. The price is clamped to
// the instrument's bounds.
func (e *Engine) SetCurrentPrice(instrument string, price decimal.Decimal) (market.PriceRecord, error) {
	return e.scheduler.Override(instrument, price)
}

// UpdateAllPrices forces a tick now.
func (e *Engine) UpdateAllPrices() sim.Result {
	return e.scheduler.Tick()
}

// SetPlayerStockAmount overwrites one holding.
func (e *Engine) SetPlayerStockAmount(player uuid.UUID, instrument string, quantity int64) error {
	if _, err := e.Catalog().Lookup(instrument); err != nil {
		return err
	}
	if err := e.ledger.Set(player, instrument, quantity); err != nil {
		return err
	}

	var price decimal.Decimal
	if rec, err := e.prices.Get(instrument); err == nil {
		price = rec.Current
	}
	e.recordAdmin(player, instrument, journal.KindSetAmount, quantity, price)
	return nil
}

// ClearPlayerStocks removes every holding of a player and returns what
// was removed.
func (e *Engine) ClearPlayerStocks(player uuid.UUID) (map[string]int64, error) {
	if player == uuid.Nil {
		return nil, fmt.Errorf("%w: player id is required", market.ErrInvalidArgument)
	}
	removed := e.ledger.ClearPlayer(player)
	for inst, q := range removed {
		e.recordAdmin(player, inst, journal.KindClear, q, decimal.Zero)
	}
	return removed, nil
}

func (e *Engine) recordAdmin(player uuid.UUID, instrument string, kind journal.Kind, quantity int64, price decimal.Decimal) {
	now := e.now().UTC()
	err := e.journal.RecordTransaction(journal.TransactionRecord{
		ID:         id.NewAt(now),
		Time:       now,
		Player:     player,
		Instrument: instrument,
		Kind:       kind,
		Quantity:   quantity,
		Price:      price,
	})
	if err != nil {
		e.log.Error().Err(err).Str("kind", string(kind)).Msg("journal write failed")
	}
	e.log.Info().
		Str("kind", string(kind)).
		Str("player", player.String()).
		Str("instrument", instrument).
		Int64("quantity", quantity).
		Msg("holdings changed by admin")
}

func (e *Engine) CurrentPrice(instrument string) (decimal.Decimal, error) {
	rec, err := e.prices.Get(instrument)
	if err != nil {
		return decimal.Zero, err
	}
	return rec.Current, nil
}

func (e *Engine) PreviousPrice(instrument string) (decimal.Decimal, error) {
	rec, err := e.prices.Get(instrument)
	if err != nil {
		return decimal.Zero, err
	}
	return rec.Previous, nil
}

func (e *Engine) FormattedPrice(instrument string) (string, error) {
	rec, err := e.prices.Get(instrument)
	if err != nil {
		return "", err
	}
	return market.FormatPrice(rec.Current, e.bounds.Precision), nil
}

// FormattedChange renders the last move, e.g. "+2.5%".
func (e *Engine) FormattedChange(instrument string) (string, error) {
	rec, err := e.prices.Get(instrument)
	if err != nil {
		return "", err
	}
	return market.FormatChange(rec), nil
}

func (e *Engine) PlayerStocks(player uuid.UUID) map[string]int64 {
	return e.ledger.Holdings(player)
}

func (e *Engine) Quantity(player uuid.UUID, instrument string) int64 {
	return e.ledger.Quantity(player, instrument)
}

// PortfolioValue sums quantity times current price over the player's
// holdings. Holdings without a price are skipped.
func (e *Engine) PortfolioValue(player uuid.UUID) decimal.Decimal {
	total := decimal.Zero
	for inst, q := range e.ledger.Holdings(player) {
		rec, err := e.prices.Get(inst)
		if err != nil {
			continue
		}
		total = total.Add(rec.Current.Mul(decimal.NewFromInt(q)))
	}
	return total
}

func (e *Engine) Balance(player uuid.UUID) (decimal.Decimal, error) {
	return e.economy.Balance(player)
}

// Instruments lists the tradable instruments in id order.
func (e *Engine) Instruments() []market.Instrument {
	return e.Catalog().Instruments()
}

// Prices returns every price record, including ones kept for instruments
// no longer in the catalog.
func (e *Engine) Prices() []market.PriceRecord {
	return e.prices.Snapshot()
}

func (e *Engine) SaveAllData(ctx context.Context) error {
	return e.gateway.SaveAll(ctx)
}

// ReloadReport lists the instruments a reload added and the priced
// instruments it made untradable.
type ReloadReport struct {
	Seeded   []string
	Orphaned []string
}

// Reload swaps in a new catalog. Prices and holdings of instruments that
// remain are untouched; new instruments start at their base price. New
// instruments are priced before the catalog is published, so a tick or
// trade never sees a listed instrument without a price.
func (e *Engine) Reload(cat *market.Catalog) (ReloadReport, error) {
	if cat == nil || cat.Len() == 0 {
		return ReloadReport{}, fmt.Errorf("%w: catalog is empty", market.ErrInvalidArgument)
	}
	if err := e.bounds.Check(cat); err != nil {
		return ReloadReport{}, err
	}

	rep := ReloadReport{Seeded: e.prices.Seed(cat, e.now().UTC())}
	e.catalog.Store(cat)

	for _, r := range e.prices.Snapshot() {
		if !cat.Has(r.InstrumentID) {
			rep.Orphaned = append(rep.Orphaned, r.InstrumentID)
		}
	}
	for _, inst := range rep.Seeded {
		if rec, err := e.prices.Get(inst); err == nil {
			e.metrics.SetPrice(inst, rec.Current.InexactFloat64())
		}
	}
	e.log.Info().
		Int("instruments", cat.Len()).
		Strs("seeded", rep.Seeded).
		Strs("orphaned", rep.Orphaned).
		Msg("catalog reloaded")
	return rep, nil
}
