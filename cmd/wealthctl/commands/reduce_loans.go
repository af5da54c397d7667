package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"wealthbook/internal/app"
	"wealthbook/internal/config"
	"wealthbook/internal/dates"
)

var (
	reduceDate string
	reduceFile string
)

// reduceLoansCmd applies the monthly loan repayments outside the daily close.
var reduceLoansCmd = &cobra.Command{
	Use:   "reduce-loans",
	Short: "Apply scheduled loan reductions",
	Long: `Applies the loan reduction schedule from SEED_FILE, or from --file, on a
date. Each reduction writes the latest value of the loan minus the amount.

Example:
  wealthctl reduce-loans --date 2024-04-01
  wealthctl reduce-loans --file loans.toml`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		date, err := dateFlag(reduceDate)
		if err != nil {
			return err
		}
		return withApp(cmd, func(ctx context.Context, a *app.App) error {
			reductions := a.LoanReductions
			if reduceFile != "" {
				seed, err := config.LoadSeed(reduceFile)
				if err != nil {
					return err
				}
				if reductions, err = app.LoanReductions(seed); err != nil {
					return err
				}
			}
			if len(reductions) == 0 {
				return fmt.Errorf("no loan reductions configured")
			}

			result, err := a.Loans.ApplyLoanReductions(ctx, date, reductions)
			if err != nil {
				return err
			}
			printResult(cmd.OutOrStdout(), "loans "+dates.Format(date), result)
			return errIfFailed(result)
		})
	},
}

func init() {
	rootCmd.AddCommand(reduceLoansCmd)
	reduceLoansCmd.Flags().StringVar(&reduceDate, "date", "", "reduction date (YYYY-MM-DD), defaults to today")
	reduceLoansCmd.Flags().StringVar(&reduceFile, "file", "", "seed file with [[loan_reductions]]")
}
