package journal

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func readCSV(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	return rows
}

func TestCSVJournal(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	txPath := filepath.Join(dir, "transactions.csv")
	pricePath := filepath.Join(dir, "prices.csv")

	j, err := NewCSV(txPath, pricePath)
	require.NoError(t, err)

	ts := time.Date(2024, 5, 6, 7, 8, 9, 0, time.UTC)
	require.NoError(t, j.RecordTransaction(TransactionRecord{
		ID: "T1", Time: ts, Player: steve, Instrument: "GOLDCO", Kind: KindSell,
		Quantity: 2, Price: decimal.NewFromInt(1025), Amount: decimal.NewFromInt(2050),
	}))
	require.NoError(t, j.RecordPrice(PricePoint{
		Time: ts, Instrument: "GOLDCO", Price: decimal.NewFromInt(1025), Previous: decimal.NewFromInt(1000), Source: "tick",
	}))
	require.NoError(t, j.Close())

	txs := readCSV(t, txPath)
	require.Len(t, txs, 2)
	assert.Equal(t, txHeader, txs[0])
	assert.Equal(t, []string{"T1", "2024-05-06T07:08:09Z", steve.String(), "GOLDCO", "SELL", "2", "1025", "2050"}, txs[1])

	prices := readCSV(t, pricePath)
	require.Len(t, prices, 2)
	assert.Equal(t, priceHeader, prices[0])
	assert.Equal(t, []string{"2024-05-06T07:08:09Z", "GOLDCO", "1025", "1000", "tick"}, prices[1])
}

func TestCSVJournalAppends(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	txPath := filepath.Join(dir, "transactions.csv")
	pricePath := filepath.Join(dir, "prices.csv")

	for i := 0; i < 2; i++ {
		j, err := NewCSV(txPath, pricePath)
		require.NoError(t, err)
		require.NoError(t, j.RecordTransaction(TransactionRecord{ID: "T", Player: steve, Kind: KindClear}))
		require.NoError(t, j.Close())
	}

	rows := readCSV(t, txPath)
	assert.Len(t, rows, 3, "header is written once, rows are appended")
}

func TestNewCSVBadPath(t *testing.T) {
	t.Parallel()

	_, err := NewCSV("/nonexistent/dir/tx.csv", "/nonexistent/dir/p.csv")
	assert.Error(t, err)
}
