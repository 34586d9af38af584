package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/stockmarket/market"
	"github.com/rustyeddy/stockmarket/persist"
)

var pricesCmd = &cobra.Command{
	Use:   "prices",
	Short: "Show saved prices",
	Long: `Print the prices in the configured snapshot store.

Example:
  stockmarket prices -f market.yaml`,
	Args: cobra.NoArgs,
	RunE: runPrices,
}

func init() {
	rootCmd.AddCommand(pricesCmd)
}

// loadSnapshot reads the configured store without starting an engine.
func loadSnapshot(ctx context.Context, kind, path string) (*persist.Snapshot, error) {
	store, err := persist.Open(kind, path)
	if err != nil {
		return nil, fmt.Errorf("open storage: %w", err)
	}
	defer store.Close()

	snap, err := store.Load(ctx)
	if errors.Is(err, persist.ErrNoSnapshot) {
		return nil, fmt.Errorf("nothing saved in %s yet", path)
	}
	if err != nil {
		return nil, fmt.Errorf("load snapshot: %w", err)
	}
	return snap, nil
}

func runPrices(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	cat, err := cfg.Catalog()
	if err != nil {
		return err
	}
	snap, err := loadSnapshot(cmd.Context(), cfg.Storage.Type, cfg.Storage.Path)
	if err != nil {
		return err
	}

	records := make([]market.PriceRecord, 0, len(snap.Prices))
	for _, p := range snap.Prices {
		records = append(records, market.PriceRecord{
			InstrumentID: p.InstrumentID,
			Current:      p.Current,
			Previous:     p.Previous,
			UpdatedAt:    p.UpdatedAt,
		})
	}

	fmt.Printf("Saved %s\n", snap.SavedAt.Local().Format("2006-01-02 15:04:05"))
	printPrices(cat, records, cfg.Market.PricePrecision)
	return nil
}
