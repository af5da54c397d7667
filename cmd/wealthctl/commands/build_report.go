package commands

import (
	"context"
	"errors"
	"time"

	"wealthbook/internal/app"
	apperrors "wealthbook/internal/errors"
	"wealthbook/internal/report"
)

// buildReport gathers the breakdown, portfolio totals and year-over-year
// change for date. A missing stored snapshot leaves the YoY section out.
func buildReport(ctx context.Context, a *app.App, date time.Time) (*report.Report, error) {
	breakdown, err := a.Wealth.ComputeTotalWealth(ctx, date)
	if err != nil {
		return nil, err
	}

	r := &report.Report{Currency: a.Config.BaseCurrency, Breakdown: breakdown}

	yoy, err := a.Wealth.GetYoYChange(date)
	switch {
	case err == nil:
		r.YoY = yoy
	case !errors.Is(err, apperrors.ErrSnapshotNotFound):
		return nil, err
	}

	portfolios, err := a.Portfolios.ListPortfolios()
	if err != nil {
		return nil, err
	}
	for _, p := range portfolios {
		line := report.PortfolioLine{Name: p.Name}
		summary, err := a.Portfolios.GetSummary(p.ID, date)
		if err != nil {
			return nil, err
		}
		if summary.Positions > 0 {
			line.Summary = summary
		}
		r.Portfolios = append(r.Portfolios, line)
	}
	return r, nil
}
