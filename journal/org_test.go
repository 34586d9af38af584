package journal

import (
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestFormatTransactionOrg(t *testing.T) {
	t.Parallel()

	tx := TransactionRecord{
		ID:         "01HZX12345678ABCD",
		Time:       time.Date(2024, 3, 15, 10, 30, 45, 0, time.UTC),
		Player:     steve,
		Instrument: "GOLDCO",
		Kind:       KindBuy,
		Quantity:   4,
		Price:      decimal.RequireFromString("1025.5"),
		Amount:     decimal.RequireFromString("4102"),
	}

	out := FormatTransactionOrg(tx)
	assert.True(t, strings.HasPrefix(out, "** BUY 4 GOLDCO (01HZX123)\n"))
	assert.Contains(t, out, ":PROPERTIES:")
	assert.Contains(t, out, ":ID: 01HZX12345678ABCD")
	assert.Contains(t, out, ":TIME: 2024-03-15T10:30:45Z")
	assert.Contains(t, out, ":PLAYER: "+steve.String())
	assert.Contains(t, out, ":PRICE: 1025.50")
	assert.Contains(t, out, ":AMOUNT: 4102.00")
	assert.Contains(t, out, ":END:")
}

func TestFormatTransactionsOrg(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "", FormatTransactionsOrg(nil))

	out := FormatTransactionsOrg([]TransactionRecord{
		{ID: "A", Kind: KindBuy},
		{ID: "B", Kind: KindSell},
	})
	assert.Equal(t, 2, strings.Count(out, ":PROPERTIES:"))
	assert.Contains(t, out, ":END:\n\n** SELL")
}

func TestFormatPriceHistoryOrg(t *testing.T) {
	t.Parallel()

	out := FormatPriceHistoryOrg([]PricePoint{{
		Time:       time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC),
		Instrument: "GOLDCO",
		Price:      decimal.NewFromInt(1025),
		Previous:   decimal.NewFromInt(1000),
		Source:     "tick",
	}})
	assert.Contains(t, out, "| 2024-03-15T10:00:00Z | GOLDCO | 1025.00 | 1000.00 | tick |")
}
