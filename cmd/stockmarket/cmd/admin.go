package cmd

import (
	"context"
	"fmt"
	"strconv"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/rustyeddy/stockmarket/engine"
	"github.com/rustyeddy/stockmarket/market"
)

var adminCmd = &cobra.Command{
	Use:   "admin",
	Short: "Override prices and holdings",
	Long: `Apply an admin change to the saved market and save it again.

The market must not be served by another process while this runs.

Subcommands:
  set-price     - Set an instrument's current price
  update-prices - Run one price tick now
  set-amount    - Set a player's quantity of an instrument
  clear         - Remove all of a player's holdings

Examples:
  stockmarket admin set-price GOLDCO 1250 -f market.yaml
  stockmarket admin set-amount 5f0c6a9e-8d1b-4f3a-9c2e-1a2b3c4d5e6f GOLDCO 10`,
}

var adminSetPriceCmd = &cobra.Command{
	Use:   "set-price <instrument> <price>",
	Short: "Set an instrument's current price",
	Args:  cobra.ExactArgs(2),
	RunE:  runAdminSetPrice,
}

var adminUpdatePricesCmd = &cobra.Command{
	Use:   "update-prices",
	Short: "Run one price tick now",
	Args:  cobra.NoArgs,
	RunE:  runAdminUpdatePrices,
}

var adminSetAmountCmd = &cobra.Command{
	Use:   "set-amount <player-uuid> <instrument> <quantity>",
	Short: "Set a player's quantity of an instrument",
	Args:  cobra.ExactArgs(3),
	RunE:  runAdminSetAmount,
}

var adminClearCmd = &cobra.Command{
	Use:   "clear <player-uuid>",
	Short: "Remove all of a player's holdings",
	Args:  cobra.ExactArgs(1),
	RunE:  runAdminClear,
}

func init() {
	rootCmd.AddCommand(adminCmd)
	adminCmd.AddCommand(adminSetPriceCmd)
	adminCmd.AddCommand(adminUpdatePricesCmd)
	adminCmd.AddCommand(adminSetAmountCmd)
	adminCmd.AddCommand(adminClearCmd)
}

// withEngine opens the configured market, runs fn and saves the result.
func withEngine(ctx context.Context, fn func(e *engine.Engine) error) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	e, err := engine.FromConfig(cfg, nil, engine.WithLogger(newLogger(cfg)))
	if err != nil {
		return fmt.Errorf("build engine: %w", err)
	}
	defer e.Close()

	if rep := e.Open(ctx); rep.Err != nil {
		return fmt.Errorf("refusing to overwrite unreadable saved state: %w", rep.Err)
	}
	if err := fn(e); err != nil {
		return err
	}
	return e.SaveAllData(ctx)
}

func runAdminSetPrice(cmd *cobra.Command, args []string) error {
	price, err := decimal.NewFromString(args[1])
	if err != nil {
		return fmt.Errorf("%w: price %q", market.ErrInvalidArgument, args[1])
	}
	return withEngine(cmd.Context(), func(e *engine.Engine) error {
		rec, err := e.SetCurrentPrice(args[0], price)
		if err != nil {
			return err
		}
		fmt.Printf("%s %s -> %s (%s)\n", rec.InstrumentID, rec.Previous, rec.Current, market.FormatChange(rec))
		return nil
	})
}

func runAdminUpdatePrices(cmd *cobra.Command, args []string) error {
	return withEngine(cmd.Context(), func(e *engine.Engine) error {
		res := e.UpdateAllPrices()
		for _, r := range res.Committed {
			fmt.Printf("%s %s -> %s (%s)\n", r.InstrumentID, r.Previous, r.Current, market.FormatChange(r))
		}
		for id, err := range res.Failed {
			fmt.Printf("%s failed: %v\n", id, err)
		}
		return nil
	})
}

func runAdminSetAmount(cmd *cobra.Command, args []string) error {
	player, err := uuid.Parse(args[0])
	if err != nil {
		return fmt.Errorf("%w: player id %q", market.ErrInvalidArgument, args[0])
	}
	quantity, err := strconv.ParseInt(args[2], 10, 64)
	if err != nil {
		return fmt.Errorf("%w: quantity %q", market.ErrInvalidArgument, args[2])
	}
	return withEngine(cmd.Context(), func(e *engine.Engine) error {
		if err := e.SetPlayerStockAmount(player, args[1], quantity); err != nil {
			return err
		}
		fmt.Printf("%s now holds %d %s\n", player, quantity, args[1])
		return nil
	})
}

func runAdminClear(cmd *cobra.Command, args []string) error {
	player, err := uuid.Parse(args[0])
	if err != nil {
		return fmt.Errorf("%w: player id %q", market.ErrInvalidArgument, args[0])
	}
	return withEngine(cmd.Context(), func(e *engine.Engine) error {
		removed, err := e.ClearPlayerStocks(player)
		if err != nil {
			return err
		}
		fmt.Printf("cleared %d holdings for %s\n", len(removed), player)
		return nil
	})
}
