package commands

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"wealthbook/internal/app"
	"wealthbook/internal/config"
	"wealthbook/internal/database"
	"wealthbook/internal/dates"
	"wealthbook/internal/logger"
)

var (
	// Global flags
	env     string
	verbose bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "wealthctl",
	Short: "wealthbook operator CLI",
	Long: `wealthctl runs the wealthbook pipeline against the configured database.

Configuration is read from the environment and .env, the same as the API server.

Examples:
  wealthctl daily
  wealthctl value --date 2024-03-31
  wealthctl backfill --from 2024-01-01 --to 2024-03-31
  wealthctl seed wealthbook.toml
  wealthctl report --date 2024-03-31`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		level := "info"
		if verbose {
			level = "debug"
		}
		logger.InitWithLevel(env, level)
	},
}

// Execute adds all child commands to the root command and runs it.
func Execute() error {
	defer logger.Sync()
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&env, "env", os.Getenv("ENV"), "environment (development|production)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}

// withApp opens the database, brings the schema up to date and runs fn.
func withApp(cmd *cobra.Command, fn func(ctx context.Context, a *app.App) error) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	dbManager, err := database.NewManager(database.NewConfig(cfg))
	if err != nil {
		return err
	}
	defer func() { _ = dbManager.Close() }()

	if err := dbManager.Migrate(); err != nil {
		return err
	}

	a, err := app.New(cfg, dbManager.DB())
	if err != nil {
		return err
	}
	return fn(cmd.Context(), a)
}

// dateFlag parses a --date value. Empty means today.
func dateFlag(s string) (time.Time, error) {
	if s == "" {
		return dates.Today(), nil
	}
	d, err := dates.Parse(s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return d, nil
}
