// Package cli wires the reconciliation engine into a cobra command tree.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/recondesk/recon-backend/internal/infrastructure/config"
)

var (
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "recon",
	Short: "Bank to book reconciliation engine",
	Long: `recon matches bank statement lines against accounting book entries
through a six-pass pipeline, tracks what was already imported via a
fingerprint archive, and serves the whole workflow over HTTP.`,
	Run: func(cmd *cobra.Command, args []string) {
		_ = cmd.Help()
	},
}

// Execute runs the root command. Called once from main.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "path to the configuration file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug output")
}

// loadConfig resolves configuration from the --config file when given,
// falling back to environment variables. --verbose overrides the log level.
func loadConfig() (*config.Config, error) {
	cfg := config.LoadOrEnvWithPath(cfgFile)
	if verbose {
		cfg.Observability.Logging.Level = "debug"
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
