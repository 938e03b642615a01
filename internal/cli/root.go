// Package cli implements ledgerctl, the operator command line.
package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"finjournal/internal/app"
	"finjournal/internal/config"
	"finjournal/internal/logger"
)

var rootCmd = &cobra.Command{
	Use:   "ledgerctl",
	Short: "Operate the finjournal ledger",
	Long: `ledgerctl runs operator tasks against the finjournal database:
bootstrapping per-account balances for owners still on the single-balance
model, printing month reports and minting development tokens.`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		logger.Init(os.Getenv("ENV"))
	},
}

// Execute runs the root command until it finishes or the process is
// interrupted.
func Execute() error {
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return rootCmd.ExecuteContext(ctx)
}

// openRuntime loads configuration and opens the shared runtime.
func openRuntime(ctx context.Context) (*app.App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	return app.Open(ctx, cfg)
}
