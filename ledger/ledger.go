// Package ledger is the authoritative record of how many shares of each
// instrument every player owns.
package ledger

import (
	"bytes"
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/rustyeddy/stockmarket/market"
)

const shardCount = 32

// Holding is one (player, instrument) entry. A missing entry means zero.
type Holding struct {
	Player       uuid.UUID
	InstrumentID string
	Quantity     int64
}

// Ledger is sharded by player. Operations on one key are serialized by the
// owning shard's mutex; keys on different shards never contend.
type Ledger struct {
	shards [shardCount]shard
}

type shard struct {
	mu      sync.Mutex
	players map[uuid.UUID]map[string]int64
}

func New() *Ledger {
	l := &Ledger{}
	for i := range l.shards {
		l.shards[i].players = make(map[uuid.UUID]map[string]int64)
	}
	return l
}

func (l *Ledger) shardFor(p uuid.UUID) *shard {
	return &l.shards[int(p[len(p)-1])%shardCount]
}

func checkKey(p uuid.UUID, id string) error {
	if p == uuid.Nil {
		return fmt.Errorf("%w: player id is required", market.ErrInvalidArgument)
	}
	if id == "" {
		return fmt.Errorf("%w: instrument id is required", market.ErrInvalidArgument)
	}
	return nil
}

// Holdings returns a copy of a player's non-zero positions.
func (l *Ledger) Holdings(p uuid.UUID) map[string]int64 {
	s := l.shardFor(p)
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make(map[string]int64, len(s.players[p]))
	for id, q := range s.players[p] {
		out[id] = q
	}
	return out
}

func (l *Ledger) Quantity(p uuid.UUID, id string) int64 {
	s := l.shardFor(p)
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.players[p][id]
}

// Adjust applies a signed change and returns the new quantity. A change
// that would leave the holding negative fails with
// ErrInsufficientHoldings and changes nothing.
func (l *Ledger) Adjust(p uuid.UUID, id string, delta int64) (int64, error) {
	if err := checkKey(p, id); err != nil {
		return 0, err
	}

	s := l.shardFor(p)
	s.mu.Lock()
	defer s.mu.Unlock()

	cur := s.players[p][id]
	if delta > 0 && cur > math.MaxInt64-delta {
		return cur, fmt.Errorf("%w: quantity overflow for %s/%s", market.ErrInvalidArgument, p, id)
	}
	next := cur + delta
	if next < 0 {
		return cur, fmt.Errorf("%w: %s holds %d of %s, cannot remove %d",
			market.ErrInsufficientHoldings, p, cur, id, -delta)
	}
	s.setLocked(p, id, next)
	return next, nil
}

// Set overwrites a holding. Used by admin overrides.
func (l *Ledger) Set(p uuid.UUID, id string, quantity int64) error {
	if err := checkKey(p, id); err != nil {
		return err
	}
	if quantity < 0 {
		return fmt.Errorf("%w: quantity must not be negative, got %d", market.ErrInvalidArgument, quantity)
	}

	s := l.shardFor(p)
	s.mu.Lock()
	s.setLocked(p, id, quantity)
	s.mu.Unlock()
	return nil
}

func (s *shard) setLocked(p uuid.UUID, id string, q int64) {
	h := s.players[p]
	if q == 0 {
		delete(h, id)
		if len(h) == 0 {
			delete(s.players, p)
		}
		return
	}
	if h == nil {
		h = make(map[string]int64)
		s.players[p] = h
	}
	h[id] = q
}

// ClearPlayer removes every holding of p and returns what was removed.
func (l *Ledger) ClearPlayer(p uuid.UUID) map[string]int64 {
	s := l.shardFor(p)
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := s.players[p]
	delete(s.players, p)
	if removed == nil {
		removed = map[string]int64{}
	}
	return removed
}

// TotalQuantity is the number of shares of id held across all players.
func (l *Ledger) TotalQuantity(id string) int64 {
	var total int64
	for i := range l.shards {
		s := &l.shards[i]
		s.mu.Lock()
		for _, h := range s.players {
			total += h[id]
		}
		s.mu.Unlock()
	}
	return total
}

// Snapshot returns every holding, sorted by player then instrument. All
// shards are held for the copy so the result is a single point in time.
func (l *Ledger) Snapshot() []Holding {
	for i := range l.shards {
		l.shards[i].mu.Lock()
	}
	var out []Holding
	for i := range l.shards {
		for p, h := range l.shards[i].players {
			for id, q := range h {
				out = append(out, Holding{Player: p, InstrumentID: id, Quantity: q})
			}
		}
	}
	for i := len(l.shards) - 1; i >= 0; i-- {
		l.shards[i].mu.Unlock()
	}

	sort.Slice(out, func(i, j int) bool {
		if c := bytes.Compare(out[i].Player[:], out[j].Player[:]); c != 0 {
			return c < 0
		}
		return out[i].InstrumentID < out[j].InstrumentID
	})
	return out
}

// Restore replaces the whole ledger. Nothing changes if any entry is
// invalid.
func (l *Ledger) Restore(holdings []Holding) error {
	for _, h := range holdings {
		if err := checkKey(h.Player, h.InstrumentID); err != nil {
			return err
		}
		if h.Quantity < 0 {
			return fmt.Errorf("%w: negative holding %s/%s", market.ErrInvalidArgument, h.Player, h.InstrumentID)
		}
	}

	for i := range l.shards {
		l.shards[i].mu.Lock()
	}
	for i := range l.shards {
		l.shards[i].players = make(map[uuid.UUID]map[string]int64)
	}
	for _, h := range holdings {
		l.shardFor(h.Player).setLocked(h.Player, h.InstrumentID, h.Quantity)
	}
	for i := len(l.shards) - 1; i >= 0; i-- {
		l.shards[i].mu.Unlock()
	}
	return nil
}

// Players returns every player with at least one holding.
func (l *Ledger) Players() []uuid.UUID {
	var out []uuid.UUID
	for i := range l.shards {
		s := &l.shards[i]
		s.mu.Lock()
		for p := range s.players {
			out = append(out, p)
		}
		s.mu.Unlock()
	}
	sort.Slice(out, func(i, j int) bool { return bytes.Compare(out[i][:], out[j][:]) < 0 })
	return out
}
