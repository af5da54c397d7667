package services

import (
	"context"
	"time"

	"wealthbook/internal/dates"
	apperrors "wealthbook/internal/errors"
	"wealthbook/internal/logger"
	"wealthbook/internal/models"
)

type pipelineService struct {
	valuation  ValuationServicer
	wealth     WealthServicer
	loans      LoanReductionServicer
	reductions []LoanReduction
}

// NewPipelineService creates a new PipelineServicer. reductions are applied
// by DailyClose on the first day of each month.
func NewPipelineService(valuation ValuationServicer, wealth WealthServicer, loans LoanReductionServicer, reductions []LoanReduction) PipelineServicer {
	return &pipelineService{valuation: valuation, wealth: wealth, loans: loans, reductions: reductions}
}

// DailyClose runs the end-of-day pipeline for date: loan reductions on the
// first of the month, then valuation of every holding, then the wealth snapshot.
func (s *pipelineService) DailyClose(ctx context.Context, date time.Time) (*DailyCloseResult, error) {
	day := dates.Day(date)
	out := &DailyCloseResult{Date: dates.Format(day)}

	if dates.IsFirstOfMonth(day) && len(s.reductions) > 0 && s.loans != nil {
		res, err := s.loans.ApplyLoanReductions(ctx, day, s.reductions)
		out.LoanReductions = res
		if err != nil {
			return out, err
		}
	}

	valuation, snap, wealth, err := s.runDay(ctx, day)
	out.Valuation, out.Snapshot, out.Wealth = valuation, snap, wealth
	if err != nil {
		return out, err
	}

	logger.Get().Infow("daily close finished",
		"date", out.Date,
		"net_wealth_huf", snap.NetWealthHUF.StringFixed(2),
		"valued", valuation.Succeeded,
		"skipped", valuation.Skipped,
		"failed", valuation.Failed,
	)
	return out, nil
}

// Backfill values and aggregates every date from from to to inclusive,
// oldest first. Each date is independent, so a failed run can be repeated.
func (s *pipelineService) Backfill(ctx context.Context, from, to time.Time) (*BackfillResult, error) {
	days := dates.Range(from, to)
	if days == nil {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "from must not be after to")
	}
	return s.backfill(ctx, days)
}

// BackfillWealthDates rebuilds the snapshot of every date that has wealth values.
func (s *pipelineService) BackfillWealthDates(ctx context.Context) (*BackfillResult, error) {
	days, err := s.wealth.ValueDates()
	if err != nil {
		return nil, err
	}
	return s.backfill(ctx, days)
}

func (s *pipelineService) backfill(ctx context.Context, days []time.Time) (*BackfillResult, error) {
	out := &BackfillResult{Valuation: NewBatchResult(), Wealth: NewBatchResult()}
	log := logger.Get()

	for _, day := range days {
		valuation, _, wealth, err := s.runDay(ctx, day)
		out.Valuation.Merge(valuation)
		out.Wealth.Merge(wealth)
		if err != nil {
			log.Errorw("backfill stopped", "date", dates.Format(day), "error", err)
			return out, err
		}
		out.Days++
		out.Snapshots++
	}

	log.Infow("backfill finished",
		"days", out.Days,
		"valued", out.Valuation.Succeeded,
		"skipped", out.Valuation.Skipped+out.Wealth.Skipped,
		"failed", out.Valuation.Failed+out.Wealth.Failed,
	)
	return out, nil
}

// runDay values all holdings and then aggregates the snapshot for one date.
func (s *pipelineService) runDay(ctx context.Context, day time.Time) (*BatchResult, *models.TotalWealthSnapshot, *BatchResult, error) {
	valuation, err := s.valuation.ValueAll(ctx, day)
	if err != nil {
		return valuation, nil, nil, err
	}
	snap, wealth, err := s.wealth.AggregateSnapshot(ctx, day)
	if err != nil {
		return valuation, nil, wealth, err
	}
	return valuation, snap, wealth, nil
}
