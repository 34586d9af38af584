package market

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"
)

// PriceStore holds one PriceRecord per instrument. Records are replaced as
// whole values under the lock, so readers never see a half-applied
// Current/Previous pair.
type PriceStore struct {
	mu      sync.RWMutex
	records map[string]PriceRecord
}

func NewPriceStore() *PriceStore {
	return &PriceStore{records: make(map[string]PriceRecord)}
}

func (ps *PriceStore) Get(id string) (PriceRecord, error) {
	ps.mu.RLock()
	defer ps.mu.RUnlock()
	r, ok := ps.records[id]
	if !ok {
		return PriceRecord{}, fmt.Errorf("%w: no price for %q", ErrInvalidArgument, id)
	}
	return r, nil
}

// Commit moves Current into Previous and stores price as the new Current.
func (ps *PriceStore) Commit(id string, price decimal.Decimal, at time.Time) (PriceRecord, error) {
	if !price.IsPositive() {
		return PriceRecord{}, fmt.Errorf("%w: price for %q must be positive, got %s", ErrInvalidArgument, id, price)
	}

	ps.mu.Lock()
	defer ps.mu.Unlock()

	r, ok := ps.records[id]
	if !ok {
		return PriceRecord{}, fmt.Errorf("%w: no price for %q", ErrInvalidArgument, id)
	}
	r = PriceRecord{
		InstrumentID: id,
		Current:      price,
		Previous:     r.Current,
		UpdatedAt:    at,
	}
	ps.records[id] = r
	return r, nil
}

// CommitBatch applies every update under a single lock acquisition. Ids
// with no record or a non-positive price are skipped. The committed
// records are returned in id order.
func (ps *PriceStore) CommitBatch(updates map[string]decimal.Decimal, at time.Time) []PriceRecord {
	ps.mu.Lock()
	defer ps.mu.Unlock()

	out := make([]PriceRecord, 0, len(updates))
	for id, price := range updates {
		r, ok := ps.records[id]
		if !ok || !price.IsPositive() {
			continue
		}
		r = PriceRecord{
			InstrumentID: id,
			Current:      price,
			Previous:     r.Current,
			UpdatedAt:    at,
		}
		ps.records[id] = r
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].InstrumentID < out[j].InstrumentID })
	return out
}

// Seed creates a record at base price for every catalog instrument that
// has none. Existing records, including ones for instruments no longer in
// the catalog, are left alone. It returns the ids that were added.
func (ps *PriceStore) Seed(cat *Catalog, at time.Time) []string {
	ps.mu.Lock()
	defer ps.mu.Unlock()

	var added []string
	for _, in := range cat.Instruments() {
		if _, ok := ps.records[in.ID]; ok {
			continue
		}
		ps.records[in.ID] = PriceRecord{
			InstrumentID: in.ID,
			Current:      in.BasePrice,
			Previous:     in.BasePrice,
			UpdatedAt:    at,
		}
		added = append(added, in.ID)
	}
	return added
}

// Restore replaces the whole store with the given records. Records with a
// non-positive current price are rejected.
func (ps *PriceStore) Restore(records []PriceRecord) error {
	next := make(map[string]PriceRecord, len(records))
	for _, r := range records {
		if r.InstrumentID == "" || !r.Current.IsPositive() {
			return fmt.Errorf("%w: bad price record %q (%s)", ErrInvalidArgument, r.InstrumentID, r.Current)
		}
		next[r.InstrumentID] = r
	}

	ps.mu.Lock()
	ps.records = next
	ps.mu.Unlock()
	return nil
}

// Snapshot returns a copy of every record in id order.
func (ps *PriceStore) Snapshot() []PriceRecord {
	ps.mu.RLock()
	out := make([]PriceRecord, 0, len(ps.records))
	for _, r := range ps.records {
		out = append(out, r)
	}
	ps.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].InstrumentID < out[j].InstrumentID })
	return out
}

func (ps *PriceStore) Len() int {
	ps.mu.RLock()
	defer ps.mu.RUnlock()
	return len(ps.records)
}
