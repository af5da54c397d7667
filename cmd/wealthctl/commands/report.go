package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"wealthbook/internal/app"
	"wealthbook/internal/report"
)

var (
	reportDate     string
	reportStyle    string
	reportWidth    int
	reportMarkdown bool
)

// reportCmd prints the wealth picture of a date.
var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Print the wealth report for a date",
	Long: `Computes total wealth on a date without storing a snapshot and prints it
with the portfolio totals and the change against a year earlier.

Example:
  wealthctl report --date 2024-03-31
  wealthctl report --markdown > wealth.md`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		date, err := dateFlag(reportDate)
		if err != nil {
			return err
		}
		return withApp(cmd, func(ctx context.Context, a *app.App) error {
			r, err := buildReport(ctx, a, date)
			if err != nil {
				return err
			}

			md := r.Markdown()
			if reportMarkdown {
				_, err = fmt.Fprint(cmd.OutOrStdout(), md)
				return err
			}
			out, err := report.Render(md, reportStyle, reportWidth)
			if err != nil {
				return err
			}
			_, err = fmt.Fprint(cmd.OutOrStdout(), out)
			return err
		})
	},
}

func init() {
	rootCmd.AddCommand(reportCmd)
	reportCmd.Flags().StringVar(&reportDate, "date", "", "report date (YYYY-MM-DD), defaults to today")
	reportCmd.Flags().StringVar(&reportStyle, "style", "", "glamour style (dark, light, notty); empty detects the terminal")
	reportCmd.Flags().IntVar(&reportWidth, "width", 100, "word wrap width")
	reportCmd.Flags().BoolVar(&reportMarkdown, "markdown", false, "print raw Markdown")
}
