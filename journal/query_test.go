package journal

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rustyeddy/stockmarket/pkg/id"
)

func seedTransactions(t *testing.T, j *SQLite, base time.Time) []TransactionRecord {
	t.Helper()

	alex := uuid.MustParse("ec561538-f3fd-461d-aff5-086b22154bce")
	var recs []TransactionRecord
	for i, p := range []uuid.UUID{steve, alex, steve} {
		at := base.Add(time.Duration(i) * time.Hour)
		rec := TransactionRecord{
			ID:         id.NewAt(at),
			Time:       at,
			Player:     p,
			Instrument: "GOLDCO",
			Kind:       KindBuy,
			Quantity:   int64(i + 1),
			Price:      decimal.NewFromInt(1000),
			Amount:     decimal.NewFromInt(int64(1000 * (i + 1))),
		}
		require.NoError(t, j.RecordTransaction(rec))
		recs = append(recs, rec)
	}
	return recs
}

func TestGetTransaction(t *testing.T) {
	t.Parallel()

	j, _ := newTestSQLite(t)
	defer j.Close()

	recs := seedTransactions(t, j, time.Date(2024, 4, 10, 9, 0, 0, 0, time.UTC))

	got, err := j.GetTransaction(recs[1].ID)
	require.NoError(t, err)
	assert.Equal(t, recs[1].ID, got.ID)
	assert.Equal(t, recs[1].Player, got.Player)
	assert.Equal(t, KindBuy, got.Kind)
	assert.Equal(t, int64(2), got.Quantity)
	assert.True(t, got.Amount.Equal(decimal.NewFromInt(2000)))
	assert.True(t, got.Time.Equal(recs[1].Time))
}

func TestGetTransactionNotFound(t *testing.T) {
	t.Parallel()

	j, _ := newTestSQLite(t)
	defer j.Close()

	_, err := j.GetTransaction("nonexistent")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestListTransactionsByPlayer(t *testing.T) {
	t.Parallel()

	j, _ := newTestSQLite(t)
	defer j.Close()

	recs := seedTransactions(t, j, time.Date(2024, 4, 10, 9, 0, 0, 0, time.UTC))

	got, err := j.ListTransactionsByPlayer(steve, 0)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, recs[2].ID, got[0].ID, "newest first")
	assert.Equal(t, recs[0].ID, got[1].ID)

	got, err = j.ListTransactionsByPlayer(steve, 1)
	require.NoError(t, err)
	assert.Len(t, got, 1)

	got, err = j.ListTransactionsByPlayer(uuid.New(), 0)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestListTransactionsBetween(t *testing.T) {
	t.Parallel()

	j, _ := newTestSQLite(t)
	defer j.Close()

	base := time.Date(2024, 4, 10, 9, 0, 0, 0, time.UTC)
	recs := seedTransactions(t, j, base)

	got, err := j.ListTransactionsBetween(base.Add(30*time.Minute), base.Add(3*time.Hour))
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, recs[1].ID, got[0].ID)
	assert.Equal(t, recs[2].ID, got[1].ID)
}

func TestPriceHistory(t *testing.T) {
	t.Parallel()

	j, _ := newTestSQLite(t)
	defer j.Close()

	base := time.Date(2024, 4, 10, 9, 0, 0, 0, time.UTC)
	prev := decimal.NewFromInt(1000)
	for i := 1; i <= 5; i++ {
		p := prev.Add(decimal.NewFromInt(int64(i)))
		require.NoError(t, j.RecordPrice(PricePoint{
			Time: base.Add(time.Duration(i) * time.Minute), Instrument: "GOLDCO",
			Price: p, Previous: prev, Source: "tick",
		}))
		prev = p
	}
	require.NoError(t, j.RecordPrice(PricePoint{
		Time: base, Instrument: "IRONWK", Price: decimal.NewFromInt(20), Previous: decimal.NewFromInt(20), Source: "override",
	}))

	got, err := j.PriceHistory("GOLDCO", 3)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "1015", got[0].Price.String())
	assert.Equal(t, "1010", got[0].Previous.String())
	assert.Equal(t, "1010", got[1].Price.String())

	all, err := j.PriceHistory("GOLDCO", 0)
	require.NoError(t, err)
	assert.Len(t, all, 5)
}
