package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"wealthbook/internal/app"
	"wealthbook/internal/services"
)

var (
	backfillFrom        string
	backfillTo          string
	backfillWealthDates bool
)

// backfillCmd reruns valuation and aggregation over past dates.
var backfillCmd = &cobra.Command{
	Use:   "backfill",
	Short: "Recompute valuations and snapshots for past dates",
	Long: `Reruns valuation and aggregation for every date in an inclusive range,
or for every date that carries a wealth value.

Example:
  wealthctl backfill --from 2024-01-01 --to 2024-03-31
  wealthctl backfill --wealth-dates`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if backfillWealthDates == (backfillFrom != "") {
			return fmt.Errorf("use either --from/--to or --wealth-dates")
		}
		return withApp(cmd, func(ctx context.Context, a *app.App) error {
			var (
				res *services.BackfillResult
				err error
			)
			if backfillWealthDates {
				res, err = a.Pipeline.BackfillWealthDates(ctx)
			} else {
				from, ferr := dateFlag(backfillFrom)
				if ferr != nil {
					return ferr
				}
				to, terr := dateFlag(backfillTo)
				if terr != nil {
					return terr
				}
				res, err = a.Pipeline.Backfill(ctx, from, to)
			}
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "days=%d snapshots=%d\n", res.Days, res.Snapshots)
			printResult(out, "valuation", res.Valuation)
			printResult(out, "wealth", res.Wealth)
			return errIfFailed(res.Valuation, res.Wealth)
		})
	},
}

func init() {
	rootCmd.AddCommand(backfillCmd)
	backfillCmd.Flags().StringVar(&backfillFrom, "from", "", "first date (YYYY-MM-DD)")
	backfillCmd.Flags().StringVar(&backfillTo, "to", "", "last date (YYYY-MM-DD), defaults to today")
	backfillCmd.Flags().BoolVar(&backfillWealthDates, "wealth-dates", false, "rerun every date with a wealth value")
}
