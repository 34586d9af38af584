// journal/journal.go
package journal

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Kind string

const (
	KindBuy       Kind = "BUY"
	KindSell      Kind = "SELL"
	KindSetAmount Kind = "SET_AMOUNT"
	KindClear     Kind = "CLEAR"
)

// TransactionRecord is one committed change to a player's holdings.
// Amount is the money moved (cost or proceeds); zero for admin changes.
type TransactionRecord struct {
	ID         string
	Time       time.Time
	Player     uuid.UUID
	Instrument string
	Kind       Kind
	Quantity   int64
	Price      decimal.Decimal
	Amount     decimal.Decimal
}

// PricePoint is one committed price, from a tick or an override.
type PricePoint struct {
	Time       time.Time
	Instrument string
	Price      decimal.Decimal
	Previous   decimal.Decimal
	Source     string
}

type Journal interface {
	RecordTransaction(TransactionRecord) error
	RecordPrice(PricePoint) error
	Close() error
}

// Discard drops every record.
type Discard struct{}

func (Discard) RecordTransaction(TransactionRecord) error { return nil }
func (Discard) RecordPrice(PricePoint) error              { return nil }
func (Discard) Close() error                              { return nil }
