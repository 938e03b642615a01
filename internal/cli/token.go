package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"finjournal/internal/config"
	"finjournal/internal/middleware"
)

func init() {
	rootCmd.AddCommand(tokenCmd)

	tokenCmd.Flags().Duration("ttl", time.Hour, "Token lifetime")
}

var tokenCmd = &cobra.Command{
	Use:   "token USER_ID",
	Short: "Mint a development access token for an owner",
	Long: `Mint an HS256 access token signed with JWT_SECRET whose subject is the
given owner id. Intended for local development; production tokens come from
the identity provider.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ttl, _ := cmd.Flags().GetDuration("ttl")

		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}
		if cfg.Env == "production" {
			return fmt.Errorf("refusing to mint tokens in production")
		}

		token, err := middleware.GenerateAccessToken([]byte(cfg.JWTSecret), args[0], ttl)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), token)
		return nil
	},
}
