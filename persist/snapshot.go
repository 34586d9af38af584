// Package persist saves and restores prices and holdings.
package persist

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// SnapshotVersion is the format written by this build. Older versions are
// read; newer ones are refused.
const SnapshotVersion = 1

// ErrNoSnapshot is returned by Store.Load when nothing has been saved yet.
var ErrNoSnapshot = errors.New("no snapshot")

type Snapshot struct {
	Version  int            `json:"version"`
	SavedAt  time.Time      `json:"saved_at"`
	Prices   []PriceEntry   `json:"prices"`
	Holdings []HoldingEntry `json:"holdings"`
}

type PriceEntry struct {
	InstrumentID string          `json:"instrument_id"`
	Current      decimal.Decimal `json:"current"`
	Previous     decimal.Decimal `json:"previous"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

type HoldingEntry struct {
	Player       uuid.UUID `json:"player"`
	InstrumentID string    `json:"instrument_id"`
	Quantity     int64     `json:"quantity"`
}

// Store is a durable home for one snapshot.
type Store interface {
	Save(ctx context.Context, snap *Snapshot) error
	Load(ctx context.Context) (*Snapshot, error)
	Close() error
}

func checkVersion(v int) error {
	if v < 1 || v > SnapshotVersion {
		return fmt.Errorf("unsupported snapshot version %d", v)
	}
	return nil
}

// Open returns the store for a configured storage type.
func Open(kind, path string) (Store, error) {
	switch kind {
	case "", "sqlite":
		return NewSQLiteStore(path)
	case "file":
		return NewFileStore(path), nil
	default:
		return nil, fmt.Errorf("unknown storage type %q", kind)
	}
}
