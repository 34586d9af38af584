package journal

import (
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var steve = uuid.MustParse("8667ba71-b85a-4004-af54-457a9734eed7")

func newTestSQLite(t *testing.T) (*SQLite, string) {
	t.Helper()

	dir := t.TempDir()
	path := filepath.Join(dir, "journal.db")

	j, err := NewSQLite(path)
	require.NoError(t, err)

	return j, path
}

func TestSQLiteSchemaCreated(t *testing.T) {
	t.Parallel()

	j, path := newTestSQLite(t)
	assert.NoError(t, j.Close())

	db, err := sql.Open("sqlite3", path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	rows, err := db.Query(`SELECT name FROM sqlite_master WHERE type='table' AND name IN ('transactions','prices')`)
	require.NoError(t, err)
	defer rows.Close()

	found := map[string]bool{}
	for rows.Next() {
		var name string
		assert.NoError(t, rows.Scan(&name))
		found[name] = true
	}
	assert.NoError(t, rows.Err())

	assert.True(t, found["transactions"])
	assert.True(t, found["prices"])
}

func TestSQLiteRecordTransaction(t *testing.T) {
	t.Parallel()

	j, path := newTestSQLite(t)

	rec := TransactionRecord{
		ID:         "01HZX0000000000000000000T1",
		Time:       time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC),
		Player:     steve,
		Instrument: "GOLDCO",
		Kind:       KindBuy,
		Quantity:   3,
		Price:      decimal.RequireFromString("1025.10"),
		Amount:     decimal.RequireFromString("3075.30"),
	}

	require.NoError(t, j.RecordTransaction(rec))
	require.NoError(t, j.Close())

	db, err := sql.Open("sqlite3", path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	var (
		id, player, instrument, kind, price, amount string
		quantity                                    int64
		at                                          time.Time
	)
	err = db.QueryRow(`
		SELECT id, time, player, instrument, kind, quantity, price, amount
		FROM transactions LIMIT 1`).Scan(&id, &at, &player, &instrument, &kind, &quantity, &price, &amount)
	require.NoError(t, err)

	assert.Equal(t, rec.ID, id)
	assert.True(t, at.Equal(rec.Time))
	assert.Equal(t, steve.String(), player)
	assert.Equal(t, "GOLDCO", instrument)
	assert.Equal(t, "BUY", kind)
	assert.Equal(t, int64(3), quantity)
	assert.Equal(t, "1025.1", price, "decimals are stored as exact text")
	assert.Equal(t, "3075.3", amount)
}

func TestSQLiteRecordPrice(t *testing.T) {
	t.Parallel()

	j, path := newTestSQLite(t)

	ts := time.Date(2024, 2, 3, 4, 5, 6, 0, time.UTC)
	require.NoError(t, j.RecordPrice(PricePoint{
		Time:       ts,
		Instrument: "GOLDCO",
		Price:      decimal.NewFromInt(1025),
		Previous:   decimal.NewFromInt(1000),
		Source:     "tick",
	}))
	require.NoError(t, j.Close())

	db, err := sql.Open("sqlite3", path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	var (
		at                              time.Time
		instrument, price, prev, source string
	)
	err = db.QueryRow(`SELECT time, instrument, price, previous, source FROM prices LIMIT 1`).
		Scan(&at, &instrument, &price, &prev, &source)
	require.NoError(t, err)

	assert.True(t, at.Equal(ts))
	assert.Equal(t, "GOLDCO", instrument)
	assert.Equal(t, "1025", price)
	assert.Equal(t, "1000", prev)
	assert.Equal(t, "tick", source)
}

func TestDiscard(t *testing.T) {
	t.Parallel()

	var j Journal = Discard{}
	assert.NoError(t, j.RecordTransaction(TransactionRecord{}))
	assert.NoError(t, j.RecordPrice(PricePoint{}))
	assert.NoError(t, j.Close())
}
