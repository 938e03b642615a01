package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	apperrors "finjournal/internal/errors"
	"finjournal/internal/logger"
	"finjournal/internal/services"
)

func init() {
	rootCmd.AddCommand(bootstrapCmd)

	bootstrapCmd.Flags().String("user", "", "Owner id to bootstrap")
	bootstrapCmd.Flags().Bool("all", false, "Bootstrap every owner that has months but no accounts")
	bootstrapCmd.Flags().Int("concurrency", 4, "Owners migrated in parallel")
	bootstrapCmd.MarkFlagsMutuallyExclusive("user", "all")
	bootstrapCmd.MarkFlagsOneRequired("user", "all")
}

var bootstrapCmd = &cobra.Command{
	Use:   "bootstrap",
	Short: "Create the default account for owners on the single-balance model",
	Long: `Create each owner's "Main Account" holding the active month's running
balance and link that month's transactions to it. Owners that already have
an account are skipped.`,
	Args: cobra.NoArgs,
	RunE: runBootstrap,
}

func runBootstrap(cmd *cobra.Command, _ []string) error {
	userID, _ := cmd.Flags().GetString("user")
	all, _ := cmd.Flags().GetBool("all")
	concurrency, _ := cmd.Flags().GetInt("concurrency")

	userID = strings.TrimSpace(userID)
	if !all && userID == "" {
		return errors.New("--user must name an owner id")
	}

	ctx := cmd.Context()
	runtime, err := openRuntime(ctx)
	if err != nil {
		return err
	}
	defer runtime.Close()

	migrations := runtime.Services.Migrations
	userIDs := []string{userID}
	if all {
		if userIDs, err = migrations.PendingUsers(ctx); err != nil {
			return fmt.Errorf("list pending owners: %w", err)
		}
	}

	b := &bootstrapper{migrations: migrations, concurrency: concurrency, attempts: 3, backoff: 500 * time.Millisecond}
	summary, err := b.run(ctx, userIDs)
	fmt.Fprintf(cmd.OutOrStdout(), "migrated %d, skipped %d, failed %d\n",
		summary.Migrated, summary.Skipped, len(summary.Failed))
	for id, failure := range summary.Failed {
		fmt.Fprintf(cmd.ErrOrStderr(), "  %s: %v\n", id, failure)
	}
	return err
}

// bootstrapSummary counts the outcome of a bootstrap run.
type bootstrapSummary struct {
	Migrated int
	Skipped  int
	Failed   map[string]error
}

// bootstrapper migrates owners concurrently, retrying transient failures.
type bootstrapper struct {
	migrations  services.MigrationServicer
	concurrency int
	attempts    int
	backoff     time.Duration
}

func (b *bootstrapper) run(ctx context.Context, userIDs []string) (*bootstrapSummary, error) {
	log := logger.Named("bootstrap")
	summary := &bootstrapSummary{Failed: map[string]error{}}
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(b.concurrency, 1))

	for _, userID := range userIDs {
		g.Go(func() error {
			result, err := b.migrate(gctx, userID)

			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				summary.Migrated++
				log.Infow("owner migrated",
					"user_id", userID,
					"account_id", result.Account.ID,
					"balance", result.Account.Balance.String(),
					"linked", result.LinkedCount,
				)
			case errors.Is(err, apperrors.ErrAlreadyMigrated):
				summary.Skipped++
			default:
				summary.Failed[userID] = err
				log.Errorw("owner migration failed", "user_id", userID, "error", err)
			}
			// One owner's failure must not stop the others.
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return summary, err
	}
	if len(summary.Failed) > 0 {
		return summary, fmt.Errorf("%d owner(s) failed to migrate", len(summary.Failed))
	}
	return summary, nil
}

func (b *bootstrapper) migrate(ctx context.Context, userID string) (*services.MigrationResult, error) {
	delay := b.backoff
	var err error
	for attempt := 1; attempt <= b.attempts; attempt++ {
		var result *services.MigrationResult
		result, err = b.migrations.MigrateToAccounts(ctx, userID)
		if err == nil || !apperrors.IsTransient(err) || attempt == b.attempts {
			return result, err
		}

		logger.Named("bootstrap").Warnw("transient failure, retrying",
			"user_id", userID, "attempt", attempt, "delay", delay, "error", err)
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(delay):
		}
		delay *= 2
	}
	return nil, err
}
