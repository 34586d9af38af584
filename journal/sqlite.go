package journal

import (
	"database/sql"

	_ "github.com/mattn/go-sqlite3"
)

type SQLite struct {
	db *sql.DB
}

func NewSQLite(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}

	// sqlite allows a single writer
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(Schema); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &SQLite{db: db}, nil
}

func (j *SQLite) RecordTransaction(t TransactionRecord) error {
	_, err := j.db.Exec(`
		INSERT INTO transactions
		(id, time, player, instrument, kind, quantity, price, amount)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.Time.UTC(), t.Player.String(), t.Instrument, string(t.Kind),
		t.Quantity, t.Price.String(), t.Amount.String(),
	)
	return err
}

func (j *SQLite) RecordPrice(p PricePoint) error {
	_, err := j.db.Exec(`
		INSERT INTO prices
		(time, instrument, price, previous, source)
		VALUES (?, ?, ?, ?, ?)`,
		p.Time.UTC(), p.Instrument, p.Price.String(), p.Previous.String(), p.Source,
	)
	return err
}

func (j *SQLite) Close() error {
	return j.db.Close()
}
