package commands

import (
	"context"

	"github.com/spf13/cobra"

	"wealthbook/internal/app"
	"wealthbook/internal/config"
)

// seedCmd loads instruments, portfolios and categories from a TOML file.
var seedCmd = &cobra.Command{
	Use:   "seed <file>",
	Short: "Apply a seed file",
	Long: `Creates the instruments, portfolios, holdings and wealth categories listed
in a TOML seed file. Existing entries are skipped, so a seed can be applied
again after editing.

Example:
  wealthctl seed wealthbook.toml`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		seed, err := config.LoadSeed(args[0])
		if err != nil {
			return err
		}
		return withApp(cmd, func(ctx context.Context, a *app.App) error {
			result, err := a.ApplySeed(seed)
			if err != nil {
				return err
			}
			printResult(cmd.OutOrStdout(), "seed", result)
			return errIfFailed(result)
		})
	},
}

func init() {
	rootCmd.AddCommand(seedCmd)
}
