package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"wealthbook/internal/dates"
	apperrors "wealthbook/internal/errors"
	"wealthbook/internal/logger"
	"wealthbook/internal/models"
)

type loanReductionService struct {
	db     *gorm.DB
	wealth WealthServicer
}

// NewLoanReductionService creates a new LoanReductionServicer.
func NewLoanReductionService(db *gorm.DB, wealth WealthServicer) LoanReductionServicer {
	return &loanReductionService{db: db, wealth: wealth}
}

// ApplyLoanReductions lowers each named liability by its monthly amount.
// The new balance is computed from the latest value strictly before date,
// so running twice for the same date stores the same balance.
func (s *loanReductionService) ApplyLoanReductions(ctx context.Context, date time.Time, reductions []LoanReduction) (*BatchResult, error) {
	day := dates.Day(date)
	result := NewBatchResult()

	for _, r := range reductions {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		key := fmt.Sprintf("%s/%s", r.Category, dates.Format(day))
		if !r.Amount.IsPositive() {
			result.Record(key, apperrors.WithMessage(apperrors.ErrInvalidInput, "reduction amount must be positive"))
			continue
		}
		if err := s.apply(ctx, day, r); err != nil {
			result.Record(key, err)
			continue
		}
		result.Succeed()
	}
	return result, nil
}

func (s *loanReductionService) apply(ctx context.Context, day time.Time, r LoanReduction) error {
	var cat models.WealthCategory
	if err := s.db.WithContext(ctx).
		Where("name = ? AND is_liability = ?", r.Category, true).
		First(&cat).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.WithMessage(apperrors.ErrCategoryNotFound,
				fmt.Sprintf("no liability category named %q", r.Category))
		}
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var prev models.WealthValue
	if err := s.db.WithContext(ctx).
		Where("wealth_category_id = ? AND value_date < ?", cat.ID, day).
		Order("value_date DESC").
		First(&prev).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.WithMessage(apperrors.ErrWealthValueNotFound,
				fmt.Sprintf("no value before %s for %q", dates.Format(day), r.Category))
		}
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	// Balances may be recorded as negative numbers; the sign is kept.
	remaining := decimal.Max(prev.PresentValue.Abs().Sub(r.Amount), decimal.Zero)
	if prev.PresentValue.IsNegative() && remaining.IsPositive() {
		remaining = remaining.Neg()
	}

	note := fmt.Sprintf("Automatic monthly reduction: -%s %s", r.Amount.StringFixed(0), cat.Currency)
	if _, err := s.wealth.UpsertValue(ctx, cat.ID, day, remaining, note); err != nil {
		return err
	}

	logger.Get().Infow("loan reduction applied",
		"category", r.Category,
		"date", dates.Format(day),
		"previous_value", prev.PresentValue.StringFixed(2),
		"new_value", remaining.StringFixed(2),
	)
	return nil
}
