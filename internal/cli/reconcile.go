package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/recondesk/recon-backend/internal/application/service"
	"github.com/recondesk/recon-backend/internal/domain/matcher"
	"github.com/recondesk/recon-backend/internal/infrastructure/logging"
	"github.com/recondesk/recon-backend/internal/infrastructure/storage"
	"github.com/recondesk/recon-backend/internal/ingest"
)

var (
	toleranceDays int
	requireRef    bool
	saveHistory   bool
)

var reconcileCmd = &cobra.Command{
	Use:   "reconcile <bank-file> <book-file>",
	Short: "Match a bank statement against book entries",
	Long: `Reads two CSV or XLSX files, runs the matching pipeline and prints a
summary. With --save-history the matched records are fingerprinted into the
archive so later imports can flag them as duplicates.`,
	Args: cobra.ExactArgs(2),
	RunE: runReconcile,
}

func init() {
	reconcileCmd.Flags().IntVarP(&toleranceDays, "tolerance", "t", 0, "acceptable clearing delay in days")
	reconcileCmd.Flags().BoolVar(&requireRef, "require-ref", false, "exact pass additionally requires equal references")
	reconcileCmd.Flags().BoolVar(&saveHistory, "save-history", false, "archive fingerprints of the imported records")
	rootCmd.AddCommand(reconcileCmd)
}

func runReconcile(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger := logging.NewLoggerWithSystem(cfg.Observability.Logging, "cli")

	bank, err := ingest.Load(args[0], ingest.ColumnMapping{})
	if err != nil {
		return fmt.Errorf("loading bank file: %w", err)
	}
	book, err := ingest.Load(args[1], ingest.ColumnMapping{})
	if err != nil {
		return fmt.Errorf("loading book file: %w", err)
	}

	opts := matcher.Options{
		ToleranceDays:   cfg.Matching.ToleranceDays,
		RequireRefMatch: cfg.Matching.RequireRefMatch,
	}
	if cmd.Flags().Changed("tolerance") {
		opts.ToleranceDays = toleranceDays
	}
	if cmd.Flags().Changed("require-ref") {
		opts.RequireRefMatch = requireRef
	}

	var repo storage.Repository
	if saveHistory || cfg.Storage.DatabasePath != "" {
		store, err := storage.NewStorage(cfg.Storage.DatabasePath)
		if err != nil {
			logger.Warn("archive store unavailable", "error", err)
		} else {
			repo = store
			defer func() { _ = store.Close() }()
		}
	}

	svc := service.NewReconService(repo, logger, opts)
	result := svc.Reconcile(bank, book, opts)

	printSummary(result)

	if saveHistory && repo != nil {
		if added, warn := svc.SaveToArchive(bank, storage.SideBank); warn != nil {
			fmt.Printf("Warning: %v\n", warn)
		} else {
			fmt.Printf("Archived %d new bank records\n", added)
		}
		if added, warn := svc.SaveToArchive(book, storage.SideBook); warn != nil {
			fmt.Printf("Warning: %v\n", warn)
		} else {
			fmt.Printf("Archived %d new book records\n", added)
		}
	}

	return nil
}

// printSummary prints per-pass counts and the residual totals.
func printSummary(result matcher.Result) {
	fmt.Println(strings.Repeat("-", 60))
	fmt.Printf("Bank records: %d (%d excluded)  Book records: %d (%d excluded)\n",
		result.Summary.BankTotal, result.Summary.BankExcluded,
		result.Summary.BookTotal, result.Summary.BookExcluded)

	order := []matcher.Kind{
		matcher.KindExact,
		matcher.KindStrong,
		matcher.KindManyToOne,
		matcher.KindOneToMany,
		matcher.KindAmountOnly,
		matcher.KindVariance,
	}
	for _, kind := range order {
		if n := result.Summary.ByKind[kind]; n > 0 {
			fmt.Printf("  %-22s %d\n", kind, n)
		}
	}

	fmt.Printf("Matched: %d bank / %d book\n", result.Summary.BankMatched, result.Summary.BookMatched)
	fmt.Printf("Unmatched: %d bank / %d book\n", len(result.UnmatchedBank), len(result.UnmatchedBook))
}
