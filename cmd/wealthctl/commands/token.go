package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"wealthbook/internal/config"
	"wealthbook/internal/middleware"
)

var tokenTTL time.Duration

// tokenCmd signs an owner token for the API.
var tokenCmd = &cobra.Command{
	Use:   "token <owner>",
	Short: "Sign an owner token for the API",
	Long: `Signs a bearer token for the owner with JWT_SECRET. The token is printed
on stdout.

Example:
  wealthctl token anna --ttl 720h`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		ttl := tokenTTL
		if ttl == 0 {
			ttl = cfg.JWTExpirationDur
		}
		token, err := middleware.GenerateOwnerToken(cfg.JWTSecret, args[0], ttl)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(cmd.OutOrStdout(), token)
		return err
	},
}

func init() {
	rootCmd.AddCommand(tokenCmd)
	tokenCmd.Flags().DurationVar(&tokenTTL, "ttl", 0, "token lifetime, defaults to JWT_EXPIRES_IN")
}
