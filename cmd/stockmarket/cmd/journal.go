package cmd

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/rustyeddy/stockmarket/journal"
)

var journalCmd = &cobra.Command{
	Use:   "journal",
	Short: "Query the transaction and price journal",
	Long: `Query and display journal records from the SQLite database.

Subcommands:
  tx      - Get details of a specific transaction by ID
  player  - List a player's transactions, newest first
  day     - List transactions on a specific day
  history - List an instrument's recent prices

Examples:
  stockmarket journal tx <transaction-id>
  stockmarket journal player 5f0c6a9e-8d1b-4f3a-9c2e-1a2b3c4d5e6f
  stockmarket journal day 2024-01-15
  stockmarket journal history GOLDCO -n 20`,
}

var journalTxCmd = &cobra.Command{
	Use:   "tx <transaction-id>",
	Short: "Get details of a specific transaction",
	Args:  cobra.ExactArgs(1),
	RunE:  runJournalTx,
}

var journalPlayerCmd = &cobra.Command{
	Use:   "player <player-uuid>",
	Short: "List a player's transactions",
	Args:  cobra.ExactArgs(1),
	RunE:  runJournalPlayer,
}

var journalDayCmd = &cobra.Command{
	Use:   "day <YYYY-MM-DD>",
	Short: "List transactions on a specific day",
	Args:  cobra.ExactArgs(1),
	RunE:  runJournalDay,
}

var journalHistoryCmd = &cobra.Command{
	Use:   "history <instrument>",
	Short: "List an instrument's recent prices",
	Args:  cobra.ExactArgs(1),
	RunE:  runJournalHistory,
}

var (
	journalDBPath string
	journalLimit  int
)

func init() {
	rootCmd.AddCommand(journalCmd)
	journalCmd.AddCommand(journalTxCmd)
	journalCmd.AddCommand(journalPlayerCmd)
	journalCmd.AddCommand(journalDayCmd)
	journalCmd.AddCommand(journalHistoryCmd)

	journalCmd.PersistentFlags().StringVarP(&journalDBPath, "db", "d", "", "path to SQLite journal DB (default journal.db_path from config)")
	journalCmd.PersistentFlags().IntVarP(&journalLimit, "limit", "n", 50, "maximum rows, 0 for all")
}

func openJournalDB() (*journal.SQLite, error) {
	path := journalDBPath
	if path == "" {
		cfg, err := loadConfig()
		if err != nil {
			return nil, err
		}
		if cfg.Journal.Type != "sqlite" {
			return nil, fmt.Errorf("journal type is %q, pass --db", cfg.Journal.Type)
		}
		path = cfg.Journal.DBPath
	}
	j, err := journal.NewSQLite(path)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	return j, nil
}

func runJournalTx(cmd *cobra.Command, args []string) error {
	j, err := openJournalDB()
	if err != nil {
		return err
	}
	defer j.Close()

	rec, err := j.GetTransaction(args[0])
	if err != nil {
		return fmt.Errorf("get transaction: %w", err)
	}

	fmt.Println(journal.FormatTransactionOrg(rec))
	return nil
}

func runJournalPlayer(cmd *cobra.Command, args []string) error {
	player, err := uuid.Parse(args[0])
	if err != nil {
		return fmt.Errorf("player id: %w", err)
	}
	j, err := openJournalDB()
	if err != nil {
		return err
	}
	defer j.Close()

	recs, err := j.ListTransactionsByPlayer(player, journalLimit)
	if err != nil {
		return fmt.Errorf("query transactions: %w", err)
	}

	fmt.Println(journal.FormatTransactionsOrg(recs))
	return nil
}

func runJournalDay(cmd *cobra.Command, args []string) error {
	j, err := openJournalDB()
	if err != nil {
		return err
	}
	defer j.Close()

	start, end, err := dayBounds(time.Local, args[0])
	if err != nil {
		return fmt.Errorf("date: %w", err)
	}

	recs, err := j.ListTransactionsBetween(start, end)
	if err != nil {
		return fmt.Errorf("query transactions: %w", err)
	}

	fmt.Println(journal.FormatTransactionsOrg(recs))
	return nil
}

func runJournalHistory(cmd *cobra.Command, args []string) error {
	j, err := openJournalDB()
	if err != nil {
		return err
	}
	defer j.Close()

	points, err := j.PriceHistory(args[0], journalLimit)
	if err != nil {
		return fmt.Errorf("query prices: %w", err)
	}

	fmt.Println(journal.FormatPriceHistoryOrg(points))
	return nil
}

func dayBounds(loc *time.Location, day string) (time.Time, time.Time, error) {
	t, err := time.ParseInLocation("2006-01-02", day, loc)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	start := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
	end := start.AddDate(0, 0, 1)
	return start, end, nil
}
