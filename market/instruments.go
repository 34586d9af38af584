// market/instruments.go
package market

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"
)

// Instrument is a tradable virtual stock. Instruments are immutable once a
// Catalog has been built; a reload replaces the whole Catalog.
type Instrument struct {
	ID          string
	DisplayName string
	BasePrice   decimal.Decimal
	Volatility  decimal.Decimal
	DriftBias   decimal.Decimal
}

// Catalog is the read-only set of instruments the engine trades.
type Catalog struct {
	byID map[string]Instrument
	ids  []string
}

// NewCatalog validates the definitions and builds a Catalog.
func NewCatalog(instruments []Instrument) (*Catalog, error) {
	c := &Catalog{byID: make(map[string]Instrument, len(instruments))}
	for _, in := range instruments {
		if in.ID == "" {
			return nil, fmt.Errorf("%w: instrument id is required", ErrInvalidArgument)
		}
		if _, dup := c.byID[in.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate instrument %q", ErrInvalidArgument, in.ID)
		}
		if !in.BasePrice.IsPositive() {
			return nil, fmt.Errorf("%w: instrument %q base price must be positive", ErrInvalidArgument, in.ID)
		}
		if in.Volatility.IsNegative() {
			return nil, fmt.Errorf("%w: instrument %q volatility must not be negative", ErrInvalidArgument, in.ID)
		}
		if in.DisplayName == "" {
			in.DisplayName = in.ID
		}
		c.byID[in.ID] = in
		c.ids = append(c.ids, in.ID)
	}
	sort.Strings(c.ids)
	return c, nil
}

// Get returns the instrument with the given id.
func (c *Catalog) Get(id string) (Instrument, bool) {
	if c == nil {
		return Instrument{}, false
	}
	in, ok := c.byID[id]
	return in, ok
}

// Lookup is Get with an ErrInvalidArgument for unknown ids.
func (c *Catalog) Lookup(id string) (Instrument, error) {
	in, ok := c.Get(id)
	if !ok {
		return Instrument{}, fmt.Errorf("%w: unknown instrument %q", ErrInvalidArgument, id)
	}
	return in, nil
}

func (c *Catalog) Has(id string) bool {
	_, ok := c.Get(id)
	return ok
}

// IDs returns the instrument ids in lexical order.
func (c *Catalog) IDs() []string {
	if c == nil {
		return nil
	}
	out := make([]string, len(c.ids))
	copy(out, c.ids)
	return out
}

// Instruments returns every instrument in id order.
func (c *Catalog) Instruments() []Instrument {
	if c == nil {
		return nil
	}
	out := make([]Instrument, 0, len(c.ids))
	for _, id := range c.ids {
		out = append(out, c.byID[id])
	}
	return out
}

func (c *Catalog) Len() int {
	if c == nil {
		return 0
	}
	return len(c.ids)
}
