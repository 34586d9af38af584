package journal

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const txColumns = `id, time, player, instrument, kind, quantity, price, amount`

type scanner interface {
	Scan(dest ...any) error
}

func scanTransaction(s scanner) (TransactionRecord, error) {
	var (
		rec           TransactionRecord
		player, kind  string
		price, amount string
	)
	if err := s.Scan(&rec.ID, &rec.Time, &player, &rec.Instrument, &kind, &rec.Quantity, &price, &amount); err != nil {
		return TransactionRecord{}, err
	}

	var err error
	if rec.Player, err = uuid.Parse(player); err != nil {
		return TransactionRecord{}, fmt.Errorf("transaction %s: player: %w", rec.ID, err)
	}
	if rec.Price, err = decimal.NewFromString(price); err != nil {
		return TransactionRecord{}, fmt.Errorf("transaction %s: price: %w", rec.ID, err)
	}
	if rec.Amount, err = decimal.NewFromString(amount); err != nil {
		return TransactionRecord{}, fmt.Errorf("transaction %s: amount: %w", rec.ID, err)
	}
	rec.Kind = Kind(kind)
	return rec, nil
}

func collectTransactions(rows *sql.Rows) ([]TransactionRecord, error) {
	defer rows.Close()

	var out []TransactionRecord
	for rows.Next() {
		rec, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// GetTransaction returns a single transaction by id.
func (j *SQLite) GetTransaction(id string) (TransactionRecord, error) {
	row := j.db.QueryRow(`SELECT `+txColumns+` FROM transactions WHERE id = ?`, id)
	rec, err := scanTransaction(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return TransactionRecord{}, fmt.Errorf("transaction %q not found", id)
		}
		return TransactionRecord{}, err
	}
	return rec, nil
}

// ListTransactionsByPlayer returns a player's transactions, newest first.
// A limit <= 0 returns all of them.
func (j *SQLite) ListTransactionsByPlayer(player uuid.UUID, limit int) ([]TransactionRecord, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := j.db.Query(`
		SELECT `+txColumns+`
		FROM transactions
		WHERE player = ?
		ORDER BY id DESC
		LIMIT ?`, player.String(), limit)
	if err != nil {
		return nil, err
	}
	return collectTransactions(rows)
}

// ListTransactionsBetween returns transactions with time in [start, end).
func (j *SQLite) ListTransactionsBetween(start, end time.Time) ([]TransactionRecord, error) {
	rows, err := j.db.Query(`
		SELECT `+txColumns+`
		FROM transactions
		WHERE time >= ? AND time < ?
		ORDER BY id ASC`, start.UTC(), end.UTC())
	if err != nil {
		return nil, err
	}
	return collectTransactions(rows)
}

// PriceHistory returns the latest committed prices of an instrument,
// newest first.
func (j *SQLite) PriceHistory(instrument string, limit int) ([]PricePoint, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := j.db.Query(`
		SELECT time, instrument, price, previous, source
		FROM prices
		WHERE instrument = ?
		ORDER BY time DESC, rowid DESC
		LIMIT ?`, instrument, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []PricePoint
	for rows.Next() {
		var (
			p               PricePoint
			price, previous string
		)
		if err := rows.Scan(&p.Time, &p.Instrument, &price, &previous, &p.Source); err != nil {
			return nil, err
		}
		if p.Price, err = decimal.NewFromString(price); err != nil {
			return nil, err
		}
		if p.Previous, err = decimal.NewFromString(previous); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
