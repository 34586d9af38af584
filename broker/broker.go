// Package broker executes player buy and sell orders against the price
// store, the holdings ledger and the host economy.
package broker

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/rustyeddy/stockmarket/economy"
	"github.com/rustyeddy/stockmarket/internal/metrics"
	"github.com/rustyeddy/stockmarket/journal"
	"github.com/rustyeddy/stockmarket/ledger"
	"github.com/rustyeddy/stockmarket/market"
	"github.com/rustyeddy/stockmarket/pkg/id"
)

type Side string

const (
	SideBuy  Side = "buy"
	SideSell Side = "sell"
)

const lockStripes = 64

type OrderRequest struct {
	Player     uuid.UUID
	Instrument string
	Quantity   int64
}

// OrderFill is a committed order. Amount is the cost of a buy or the
// proceeds of a sell; Holding is the player's quantity afterwards.
type OrderFill struct {
	TradeID    string
	Time       time.Time
	Player     uuid.UUID
	Instrument string
	Side       Side
	Quantity   int64
	Price      decimal.Decimal
	Amount     decimal.Decimal
	Holding    int64
}

// Broker runs one order at a time per player. Each order is priced once,
// at its start, and either commits fully or leaves balance and holdings
// as they were.
type Broker struct {
	prices  *market.PriceStore
	ledger  *ledger.Ledger
	economy economy.Provider
	catalog func() *market.Catalog
	journal journal.Journal
	now     func() time.Time
	log     zerolog.Logger
	metrics *metrics.Metrics

	locks [lockStripes]sync.Mutex
}

type Option func(*Broker)

func WithJournal(j journal.Journal) Option {
	return func(b *Broker) { b.journal = j }
}

func WithClock(now func() time.Time) Option {
	return func(b *Broker) { b.now = now }
}

func WithLogger(l zerolog.Logger) Option {
	return func(b *Broker) { b.log = l }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(b *Broker) { b.metrics = m }
}

// New returns a broker. catalog is consulted on every order so only
// instruments in the current catalog can be traded.
func New(prices *market.PriceStore, l *ledger.Ledger, econ economy.Provider, catalog func() *market.Catalog, opts ...Option) *Broker {
	b := &Broker{
		prices:  prices,
		ledger:  l,
		economy: econ,
		catalog: catalog,
		journal: journal.Discard{},
		now:     time.Now,
		log:     zerolog.Nop(),
	}
	for _, o := range opts {
		o(b)
	}
	return b
}

func (b *Broker) lockFor(p uuid.UUID) *sync.Mutex {
	return &b.locks[int(p[len(p)-1])%lockStripes]
}

func (b *Broker) validate(req OrderRequest) error {
	if req.Player == uuid.Nil {
		return fmt.Errorf("%w: player id is required", market.ErrInvalidArgument)
	}
	if req.Quantity <= 0 {
		return fmt.Errorf("%w: quantity must be positive, got %d", market.ErrInvalidArgument, req.Quantity)
	}
	if !b.catalog().Has(req.Instrument) {
		return fmt.Errorf("%w: %q is not tradable", market.ErrInvalidArgument, req.Instrument)
	}
	return nil
}

func (b *Broker) Buy(req OrderRequest) (OrderFill, error) {
	fill, err := b.buy(req)
	b.record(SideBuy, fill, err)
	return fill, err
}

func (b *Broker) buy(req OrderRequest) (OrderFill, error) {
	if err := b.validate(req); err != nil {
		return OrderFill{}, err
	}

	mu := b.lockFor(req.Player)
	mu.Lock()
	defer mu.Unlock()

	rec, err := b.prices.Get(req.Instrument)
	if err != nil {
		return OrderFill{}, err
	}
	cost := rec.Current.Mul(decimal.NewFromInt(req.Quantity))

	bal, err := b.economy.Balance(req.Player)
	if err != nil {
		return OrderFill{}, fmt.Errorf("read balance: %w", err)
	}
	if bal.LessThan(cost) {
		return OrderFill{}, fmt.Errorf("%w: %s x%d costs %s, balance %s",
			market.ErrInsufficientFunds, req.Instrument, req.Quantity, cost, bal)
	}
	if err := b.economy.Withdraw(req.Player, cost); err != nil {
		return OrderFill{}, fmt.Errorf("withdraw: %w", err)
	}

	held, err := b.ledger.Adjust(req.Player, req.Instrument, req.Quantity)
	if err != nil {
		b.log.Error().Err(err).
			Str("player", req.Player.String()).
			Str("instrument", req.Instrument).
			Int64("quantity", req.Quantity).
			Msg("holdings update failed after withdrawal, refunding")
		if rerr := b.economy.Deposit(req.Player, cost); rerr != nil {
			b.log.Error().Err(rerr).
				Str("player", req.Player.String()).
				Str("amount", cost.String()).
				Msg("refund failed")
		}
		return OrderFill{}, err
	}

	return b.fill(req, SideBuy, rec.Current, cost, held), nil
}

func (b *Broker) Sell(req OrderRequest) (OrderFill, error) {
	fill, err := b.sell(req)
	b.record(SideSell, fill, err)
	return fill, err
}

func (b *Broker) sell(req OrderRequest) (OrderFill, error) {
	if err := b.validate(req); err != nil {
		return OrderFill{}, err
	}

	mu := b.lockFor(req.Player)
	mu.Lock()
	defer mu.Unlock()

	rec, err := b.prices.Get(req.Instrument)
	if err != nil {
		return OrderFill{}, err
	}
	proceeds := rec.Current.Mul(decimal.NewFromInt(req.Quantity))

	held, err := b.ledger.Adjust(req.Player, req.Instrument, -req.Quantity)
	if err != nil {
		return OrderFill{}, err
	}
	if err := b.economy.Deposit(req.Player, proceeds); err != nil {
		if _, rerr := b.ledger.Adjust(req.Player, req.Instrument, req.Quantity); rerr != nil {
			b.log.Error().Err(rerr).
				Str("player", req.Player.String()).
				Str("instrument", req.Instrument).
				Int64("quantity", req.Quantity).
				Msg("restoring holdings failed")
		}
		return OrderFill{}, fmt.Errorf("deposit: %w", err)
	}

	return b.fill(req, SideSell, rec.Current, proceeds, held), nil
}

func (b *Broker) fill(req OrderRequest, side Side, price, amount decimal.Decimal, held int64) OrderFill {
	now := b.now().UTC()
	return OrderFill{
		TradeID:    id.NewAt(now),
		Time:       now,
		Player:     req.Player,
		Instrument: req.Instrument,
		Side:       side,
		Quantity:   req.Quantity,
		Price:      price,
		Amount:     amount,
		Holding:    held,
	}
}

// record journals a committed fill and counts the outcome. A journal
// failure is logged; the trade stands.
func (b *Broker) record(side Side, fill OrderFill, err error) {
	if err != nil {
		b.metrics.Trade(string(side), "rejected")
		b.log.Debug().Err(err).Str("side", string(side)).Msg("order rejected")
		return
	}
	b.metrics.Trade(string(side), "filled")

	kind := journal.KindBuy
	if side == SideSell {
		kind = journal.KindSell
	}
	jerr := b.journal.RecordTransaction(journal.TransactionRecord{
		ID:         fill.TradeID,
		Time:       fill.Time,
		Player:     fill.Player,
		Instrument: fill.Instrument,
		Kind:       kind,
		Quantity:   fill.Quantity,
		Price:      fill.Price,
		Amount:     fill.Amount,
	})
	if jerr != nil {
		b.log.Error().Err(jerr).Str("trade_id", fill.TradeID).Msg("journal write failed")
	}

	b.log.Info().
		Str("trade_id", fill.TradeID).
		Str("side", string(side)).
		Str("player", fill.Player.String()).
		Str("instrument", fill.Instrument).
		Int64("quantity", fill.Quantity).
		Str("price", fill.Price.String()).
		Msg("order filled")
}
