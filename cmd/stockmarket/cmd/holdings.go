package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/rustyeddy/stockmarket/market"
)

var holdingsCmd = &cobra.Command{
	Use:   "holdings [player-uuid]",
	Short: "Show saved player holdings",
	Long: `Print the holdings in the configured snapshot store, valued at the
saved prices. With a player id only that player's holdings are shown.

Examples:
  stockmarket holdings -f market.yaml
  stockmarket holdings -f market.yaml 5f0c6a9e-8d1b-4f3a-9c2e-1a2b3c4d5e6f`,
	Args: cobra.MaximumNArgs(1),
	RunE: runHoldings,
}

func init() {
	rootCmd.AddCommand(holdingsCmd)
}

func runHoldings(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	var only uuid.UUID
	if len(args) == 1 {
		if only, err = uuid.Parse(args[0]); err != nil {
			return fmt.Errorf("player id: %w", err)
		}
	}

	snap, err := loadSnapshot(cmd.Context(), cfg.Storage.Type, cfg.Storage.Path)
	if err != nil {
		return err
	}
	prices := make(map[string]decimal.Decimal, len(snap.Prices))
	for _, p := range snap.Prices {
		prices[p.InstrumentID] = p.Current
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "PLAYER\tINSTRUMENT\tQUANTITY\tVALUE")
	for _, h := range snap.Holdings {
		if only != uuid.Nil && h.Player != only {
			continue
		}
		value := "-"
		if p, ok := prices[h.InstrumentID]; ok {
			value = market.FormatPrice(p.Mul(decimal.NewFromInt(h.Quantity)), cfg.Market.PricePrecision)
		}
		fmt.Fprintf(w, "%s\t%s\t%d\t%s\n", h.Player, h.InstrumentID, h.Quantity, value)
	}
	return w.Flush()
}
