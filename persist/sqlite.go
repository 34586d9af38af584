package persist

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"
)

const schema = `
CREATE TABLE IF NOT EXISTS meta (
	key TEXT PRIMARY KEY,
	value TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS prices (
	instrument_id TEXT PRIMARY KEY,
	current_price TEXT NOT NULL,
	previous_price TEXT NOT NULL,
	updated_at DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS holdings (
	player TEXT NOT NULL,
	instrument_id TEXT NOT NULL,
	quantity INTEGER NOT NULL CHECK (quantity >= 0),
	PRIMARY KEY (player, instrument_id)
);
`

// SQLiteStore keeps the snapshot in three tables, rewritten in a single
// transaction on every save.
type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}
	// sqlite allows a single writer
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Save(ctx context.Context, snap *Snapshot) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM prices`); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM holdings`); err != nil {
		return err
	}

	ps, err := tx.PrepareContext(ctx, `
		INSERT INTO prices (instrument_id, current_price, previous_price, updated_at)
		VALUES (?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer ps.Close()
	for _, p := range snap.Prices {
		if _, err := ps.ExecContext(ctx, p.InstrumentID, p.Current.String(), p.Previous.String(), p.UpdatedAt.UTC()); err != nil {
			return fmt.Errorf("save price %s: %w", p.InstrumentID, err)
		}
	}

	hs, err := tx.PrepareContext(ctx, `
		INSERT INTO holdings (player, instrument_id, quantity)
		VALUES (?, ?, ?)`)
	if err != nil {
		return err
	}
	defer hs.Close()
	for _, h := range snap.Holdings {
		if _, err := hs.ExecContext(ctx, h.Player.String(), h.InstrumentID, h.Quantity); err != nil {
			return fmt.Errorf("save holding %s/%s: %w", h.Player, h.InstrumentID, err)
		}
	}

	meta := map[string]string{
		"version":  strconv.Itoa(snap.Version),
		"saved_at": snap.SavedAt.UTC().Format(time.RFC3339Nano),
	}
	for k, v := range meta {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO meta (key, value) VALUES (?, ?)
			ON CONFLICT(key) DO UPDATE SET value = excluded.value`, k, v); err != nil {
			return err
		}
	}

	return tx.Commit()
}

func (s *SQLiteStore) Load(ctx context.Context) (*Snapshot, error) {
	snap := &Snapshot{}

	var version, savedAt string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM meta WHERE key = 'version'`).Scan(&version)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNoSnapshot
	}
	if err != nil {
		return nil, err
	}
	if snap.Version, err = strconv.Atoi(version); err != nil {
		return nil, fmt.Errorf("snapshot version %q: %w", version, err)
	}
	if err := checkVersion(snap.Version); err != nil {
		return nil, err
	}
	if err := s.db.QueryRowContext(ctx, `SELECT value FROM meta WHERE key = 'saved_at'`).Scan(&savedAt); err == nil {
		snap.SavedAt, _ = time.Parse(time.RFC3339Nano, savedAt)
	}

	if snap.Prices, err = s.loadPrices(ctx); err != nil {
		return nil, err
	}
	if snap.Holdings, err = s.loadHoldings(ctx); err != nil {
		return nil, err
	}
	return snap, nil
}

func (s *SQLiteStore) loadPrices(ctx context.Context) ([]PriceEntry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT instrument_id, current_price, previous_price, updated_at
		FROM prices ORDER BY instrument_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []PriceEntry
	for rows.Next() {
		var (
			p         PriceEntry
			cur, prev string
		)
		if err := rows.Scan(&p.InstrumentID, &cur, &prev, &p.UpdatedAt); err != nil {
			return nil, err
		}
		if p.Current, err = decimal.NewFromString(cur); err != nil {
			return nil, fmt.Errorf("price %s: %w", p.InstrumentID, err)
		}
		if p.Previous, err = decimal.NewFromString(prev); err != nil {
			return nil, fmt.Errorf("price %s: %w", p.InstrumentID, err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) loadHoldings(ctx context.Context) ([]HoldingEntry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT player, instrument_id, quantity
		FROM holdings ORDER BY player, instrument_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []HoldingEntry
	for rows.Next() {
		var (
			h      HoldingEntry
			player string
		)
		if err := rows.Scan(&player, &h.InstrumentID, &h.Quantity); err != nil {
			return nil, err
		}
		if h.Player, err = uuid.Parse(player); err != nil {
			return nil, fmt.Errorf("holding player %q: %w", player, err)
		}
		out = append(out, h)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
