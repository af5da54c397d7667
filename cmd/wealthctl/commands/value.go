package commands

import (
	"context"

	"github.com/spf13/cobra"

	"wealthbook/internal/app"
	"wealthbook/internal/dates"
	"wealthbook/internal/services"
)

var (
	valueDate      string
	valuePortfolio string
)

// valueCmd values holdings into the daily valuation table.
var valueCmd = &cobra.Command{
	Use:   "value",
	Short: "Value portfolios on a date",
	Long: `Values every holding of every portfolio, or of one portfolio, on a date.
Holdings without a price or FX rate are skipped and listed.

Example:
  wealthctl value --date 2024-03-31
  wealthctl value --portfolio 0190f5c2-...`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		date, err := dateFlag(valueDate)
		if err != nil {
			return err
		}
		return withApp(cmd, func(ctx context.Context, a *app.App) error {
			var result *services.BatchResult
			if valuePortfolio != "" {
				result, err = a.Valuation.ValuePortfolio(ctx, valuePortfolio, date)
			} else {
				result, err = a.Valuation.ValueAll(ctx, date)
			}
			if err != nil {
				return err
			}
			printResult(cmd.OutOrStdout(), "valuation "+dates.Format(date), result)
			return errIfFailed(result)
		})
	},
}

func init() {
	rootCmd.AddCommand(valueCmd)
	valueCmd.Flags().StringVar(&valueDate, "date", "", "valuation date (YYYY-MM-DD), defaults to today")
	valueCmd.Flags().StringVar(&valuePortfolio, "portfolio", "", "value only this portfolio ID")
}
