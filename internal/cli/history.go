package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/recondesk/recon-backend/internal/infrastructure/storage"
)

var historyClear bool

var historyCmd = &cobra.Command{
	Use:   "history [bank|book]",
	Short: "Show or clear the fingerprint archive",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runHistory,
}

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "Show recent reconciliation runs",
	RunE:  runRuns,
}

func init() {
	historyCmd.Flags().BoolVar(&historyClear, "clear", false, "delete the archive for the given side")
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(runsCmd)
}

func runHistory(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	store, err := storage.NewStorage(cfg.Storage.DatabasePath)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	sides := []storage.Side{storage.SideBank, storage.SideBook}
	if len(args) == 1 {
		side := storage.Side(args[0])
		if !side.Valid() {
			return fmt.Errorf("side must be bank or book, got %q", args[0])
		}
		sides = []storage.Side{side}
	}

	for _, side := range sides {
		if historyClear {
			if err := store.ClearArchive(side); err != nil {
				return err
			}
			fmt.Printf("Cleared %s archive\n", side)
			continue
		}

		records, err := store.Enumerate(side)
		if err != nil {
			return err
		}
		fmt.Printf("%s archive: %d records\n", side, len(records))
		for _, rec := range records {
			fmt.Printf("  %s  %10.2f  %s\n", rec.ImportedAt.Format("2006-01-02"), rec.Amount, rec.Fingerprint)
		}
	}
	return nil
}

func runRuns(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	store, err := storage.NewStorage(cfg.Storage.DatabasePath)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	runs, err := store.ListRuns(20)
	if err != nil {
		return err
	}

	fmt.Printf("%-4s %-20s %-10s %-10s %-8s %-10s\n", "ID", "Started", "Bank", "Book", "Matches", "Residual")
	for _, run := range runs {
		fmt.Printf("%-4d %-20s %-10d %-10d %-8d %d/%d\n",
			run.ID,
			run.StartedAt.Format("2006-01-02 15:04:05"),
			run.BankCount, run.BookCount, run.MatchCount,
			run.UnmatchedBank, run.UnmatchedBook)
	}
	return nil
}
