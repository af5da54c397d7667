package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"wealthbook/internal/app"
)

var dailyDate string

// dailyCmd runs the daily close: loan reductions on the first of the month,
// then valuation and aggregation.
var dailyCmd = &cobra.Command{
	Use:   "daily",
	Short: "Run the daily close",
	Long: `Runs the daily close for a date: scheduled loan reductions on the first
of the month, portfolio valuation, then the wealth snapshot.

Example:
  wealthctl daily
  wealthctl daily --date 2024-04-01`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		date, err := dateFlag(dailyDate)
		if err != nil {
			return err
		}
		return withApp(cmd, func(ctx context.Context, a *app.App) error {
			res, err := a.Pipeline.DailyClose(ctx, date)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			printResult(out, "loan reductions", res.LoanReductions)
			printResult(out, "valuation", res.Valuation)
			printResult(out, "wealth", res.Wealth)
			if res.Snapshot != nil {
				fmt.Fprintf(out, "net wealth on %s: %s HUF\n", res.Date, res.Snapshot.NetWealthHUF.StringFixed(2))
			}
			return errIfFailed(res.LoanReductions, res.Valuation, res.Wealth)
		})
	},
}

func init() {
	rootCmd.AddCommand(dailyCmd)
	dailyCmd.Flags().StringVar(&dailyDate, "date", "", "close date (YYYY-MM-DD), defaults to today")
}
