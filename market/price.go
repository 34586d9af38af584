package market

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// PriceRecord is the committed price state of one instrument. Current is
// always positive; Previous is the value Current held before the most
// recent commit.
type PriceRecord struct {
	InstrumentID string
	Current      decimal.Decimal
	Previous     decimal.Decimal
	UpdatedAt    time.Time
}

// Change returns (current-previous)/previous, or zero when there is no
// previous price.
func (r PriceRecord) Change() decimal.Decimal {
	if !r.Previous.IsPositive() {
		return decimal.Zero
	}
	return r.Current.Sub(r.Previous).Div(r.Previous)
}

func (r PriceRecord) ChangePercent() decimal.Decimal {
	return r.Change().Mul(hundred)
}

// FormatChange renders the change with one decimal place and an explicit
// sign, e.g. "+2.5%", "-1.1%", "0.0%".
func FormatChange(r PriceRecord) string {
	pct := r.ChangePercent().Round(1)
	switch {
	case pct.IsZero():
		return "0.0%"
	case pct.IsPositive():
		return "+" + pct.StringFixed(1) + "%"
	default:
		return pct.StringFixed(1) + "%"
	}
}

// FormatPrice renders a price with a fixed number of decimals.
func FormatPrice(p decimal.Decimal, precision int32) string {
	return p.StringFixed(precision)
}

// Bounds is the price-bound policy applied to every committed price.
type Bounds struct {
	MinRatio  decimal.Decimal // fraction of base price, e.g. 0.01
	MaxRatio  decimal.Decimal // multiple of base price, zero means no cap
	Precision int32           // decimal places kept on commit
}

// DefaultBounds floors at 1% of base price with cent precision.
func DefaultBounds() Bounds {
	return Bounds{
		MinRatio:  decimal.NewFromFloat(0.01),
		Precision: 2,
	}
}

// Unit is the smallest representable positive price.
func (b Bounds) Unit() decimal.Decimal {
	return decimal.New(1, -b.Precision)
}

// Min returns the floor for an instrument. It is never below Unit.
func (b Bounds) Min(in Instrument) decimal.Decimal {
	min := in.BasePrice.Mul(b.MinRatio).Round(b.Precision)
	if unit := b.Unit(); min.LessThan(unit) {
		return unit
	}
	return min
}

// Max returns the cap for an instrument and whether one is configured.
func (b Bounds) Max(in Instrument) (decimal.Decimal, bool) {
	if !b.MaxRatio.IsPositive() {
		return decimal.Zero, false
	}
	return in.BasePrice.Mul(b.MaxRatio).Round(b.Precision), true
}

// Clamp rounds p to the configured precision and forces it into
// [Min, Max].
func (b Bounds) Clamp(in Instrument, p decimal.Decimal) decimal.Decimal {
	p = p.Round(b.Precision)
	if min := b.Min(in); p.LessThan(min) {
		return min
	}
	if max, ok := b.Max(in); ok && p.GreaterThan(max) {
		return max
	}
	return p
}

// Check rejects a catalog holding an instrument whose base price is below
// one price unit. Such a price would jump to the floor on its first commit.
func (b Bounds) Check(cat *Catalog) error {
	unit := b.Unit()
	for _, in := range cat.Instruments() {
		if in.BasePrice.LessThan(unit) {
			return fmt.Errorf("%w: %s base price %s is below one price unit (%s)",
				ErrInvalidArgument, in.ID, in.BasePrice, unit)
		}
	}
	return nil
}
