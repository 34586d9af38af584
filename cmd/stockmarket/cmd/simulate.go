package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/stockmarket/market"
	"github.com/rustyeddy/stockmarket/sim"
)

var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Run price ticks offline and print the result",
	Long: `Evolve the configured catalog for a number of ticks without touching
saved state. A fixed seed makes the run reproducible.

Example:
  stockmarket simulate -f market.yaml --ticks 100 --seed 7`,
	RunE: runSimulate,
}

var (
	simulateTicks int
	simulateSeed  int64
	simulateEvery int
)

func init() {
	rootCmd.AddCommand(simulateCmd)

	simulateCmd.Flags().IntVarP(&simulateTicks, "ticks", "n", 10, "number of ticks to run")
	simulateCmd.Flags().Int64Var(&simulateSeed, "seed", 0, "random seed (0 uses market.seed, then the clock)")
	simulateCmd.Flags().IntVar(&simulateEvery, "every", 0, "print prices every N ticks (0 prints only the final table)")
}

func runSimulate(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if simulateTicks <= 0 {
		return fmt.Errorf("--ticks must be positive")
	}
	cat, err := cfg.Catalog()
	if err != nil {
		return err
	}
	seed := simulateSeed
	if seed == 0 {
		seed = cfg.Market.Seed
	}
	src, err := sim.NewSource(cfg.Market.Distribution, seed)
	if err != nil {
		return err
	}

	// Ticks are stamped one interval apart starting now.
	at := time.Now()
	clock := func() time.Time { return at }

	prices := market.NewPriceStore()
	prices.Seed(cat, at)
	bounds := cfg.Bounds()
	sched := sim.NewScheduler(prices, func() *market.Catalog { return cat }, sim.Walk{Bounds: bounds, Source: src}, bounds,
		sim.WithClock(clock))

	failures := 0
	for i := 1; i <= simulateTicks; i++ {
		at = at.Add(cfg.Interval())
		res := sched.Tick()
		failures += len(res.Failed)
		if simulateEvery > 0 && i%simulateEvery == 0 {
			fmt.Printf("after tick %d:\n", i)
			printPrices(cat, prices.Snapshot(), bounds.Precision)
		}
	}

	fmt.Printf("Simulated %d ticks (%s of market time)\n", simulateTicks, time.Duration(simulateTicks)*cfg.Interval())
	printPrices(cat, prices.Snapshot(), bounds.Precision)
	if failures > 0 {
		fmt.Printf("\n%d instrument updates failed\n", failures)
	}
	return nil
}

func printPrices(cat *market.Catalog, records []market.PriceRecord, precision int32) {
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tBASE\tPRICE\tCHANGE")
	for _, r := range records {
		name, base := "(not tradable)", "-"
		if in, ok := cat.Get(r.InstrumentID); ok {
			name, base = in.DisplayName, market.FormatPrice(in.BasePrice, precision)
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
			r.InstrumentID, name, base, market.FormatPrice(r.Current, precision), market.FormatChange(r))
	}
	w.Flush()
}
