package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"wealthbook/internal/app"
	"wealthbook/internal/dates"
)

var aggregateDate string

// aggregateCmd stores the total wealth snapshot for a date.
var aggregateCmd = &cobra.Command{
	Use:   "aggregate",
	Short: "Aggregate the total wealth snapshot for a date",
	Long: `Sums the portfolio valuations and the latest wealth values on or before
the date into a total wealth snapshot. Run value first for the same date.

Example:
  wealthctl aggregate --date 2024-03-31`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		date, err := dateFlag(aggregateDate)
		if err != nil {
			return err
		}
		return withApp(cmd, func(ctx context.Context, a *app.App) error {
			snap, result, err := a.Wealth.AggregateSnapshot(ctx, date)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			printResult(out, "wealth "+dates.Format(date), result)
			if snap != nil {
				fmt.Fprintf(out, "net wealth %s HUF (portfolios %s, other assets %s, liabilities %s)\n",
					snap.NetWealthHUF.StringFixed(2), snap.PortfolioValueHUF.StringFixed(2),
					snap.OtherAssetsHUF.StringFixed(2), snap.TotalLiabilitiesHUF.StringFixed(2))
			}
			return errIfFailed(result)
		})
	},
}

func init() {
	rootCmd.AddCommand(aggregateCmd)
	aggregateCmd.Flags().StringVar(&aggregateDate, "date", "", "snapshot date (YYYY-MM-DD), defaults to today")
}
