package journal

import (
	"fmt"
	"strings"
	"time"
)

// FormatTransactionOrg renders a transaction as an Org-mode entry with the
// facts in a PROPERTIES drawer.
func FormatTransactionOrg(t TransactionRecord) string {
	var b strings.Builder
	fmt.Fprintf(&b, "** %s %d %s (%s)\n", t.Kind, t.Quantity, t.Instrument, shortID(t.ID))
	b.WriteString(":PROPERTIES:\n")
	fmt.Fprintf(&b, ":ID: %s\n", t.ID)
	fmt.Fprintf(&b, ":TIME: %s\n", t.Time.UTC().Format(time.RFC3339))
	fmt.Fprintf(&b, ":PLAYER: %s\n", t.Player)
	fmt.Fprintf(&b, ":INSTRUMENT: %s\n", t.Instrument)
	fmt.Fprintf(&b, ":KIND: %s\n", t.Kind)
	fmt.Fprintf(&b, ":QUANTITY: %d\n", t.Quantity)
	fmt.Fprintf(&b, ":PRICE: %s\n", t.Price.StringFixed(2))
	fmt.Fprintf(&b, ":AMOUNT: %s\n", t.Amount.StringFixed(2))
	b.WriteString(":END:\n")
	return b.String()
}

// FormatTransactionsOrg renders multiple transactions separated by blank
// lines.
func FormatTransactionsOrg(txs []TransactionRecord) string {
	var b strings.Builder
	for i, t := range txs {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(FormatTransactionOrg(t))
	}
	return b.String()
}

// FormatPriceHistoryOrg renders price points as an Org table.
func FormatPriceHistoryOrg(points []PricePoint) string {
	var b strings.Builder
	b.WriteString("| time | instrument | price | previous | source |\n")
	b.WriteString("|------+------------+-------+----------+--------|\n")
	for _, p := range points {
		fmt.Fprintf(&b, "| %s | %s | %s | %s | %s |\n",
			p.Time.UTC().Format(time.RFC3339), p.Instrument,
			p.Price.StringFixed(2), p.Previous.StringFixed(2), p.Source)
	}
	return b.String()
}

func shortID(full string) string {
	if len(full) <= 8 {
		return full
	}
	return full[:8]
}
