package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"wealthbook/internal/dates"
	apperrors "wealthbook/internal/errors"
	"wealthbook/internal/models"
	"wealthbook/internal/pagination"
	"wealthbook/internal/pricing"
)

type fxRateService struct {
	db       *gorm.DB
	resolver pricing.RateResolver
}

// NewFxRateService creates a new FxRateServicer.
func NewFxRateService(db *gorm.DB, resolver pricing.RateResolver) FxRateServicer {
	return &fxRateService{db: db, resolver: resolver}
}

// RecordRates upserts fetched rates by (pair, date, source).
func (s *fxRateService) RecordRates(ctx context.Context, rates []FxRateInput) (*BatchResult, error) {
	result := NewBatchResult()
	now := time.Now().UTC()

	for _, r := range rates {
		base, target := strings.ToUpper(r.BaseCurrency), strings.ToUpper(r.TargetCurrency)
		key := fmt.Sprintf("%s/%s/%s/%s", base, target, dates.Format(r.RateDate), r.Source)
		if err := ctx.Err(); err != nil {
			return result, err
		}

		switch {
		case len(base) != 3 || len(target) != 3:
			result.Record(key, apperrors.WithMessage(apperrors.ErrInvalidInput, "currencies must be 3-letter codes"))
			continue
		case base == target:
			result.Record(key, apperrors.WithMessage(apperrors.ErrInvalidInput, "identity pairs are not stored"))
			continue
		case r.Source == "" || r.RateDate.IsZero():
			result.Record(key, apperrors.WithMessage(apperrors.ErrInvalidInput, "source and rate_date are required"))
			continue
		case !r.Rate.IsPositive():
			result.Record(key, apperrors.WithMessage(apperrors.ErrInvariantViolation, "rate must be positive"))
			continue
		}

		row := models.FxRate{
			BaseCurrency:   base,
			TargetCurrency: target,
			RateDate:       dates.Day(r.RateDate),
			Source:         r.Source,
			Rate:           r.Rate,
			RetrievedAt:    now,
		}
		_, err := upsert(ctx, s.db, &row,
			map[string]interface{}{
				"base_currency":   base,
				"target_currency": target,
				"rate_date":       row.RateDate,
				"source":          row.Source,
			},
			map[string]interface{}{"rate": row.Rate, "retrieved_at": now},
		)
		if err != nil {
			result.Record(key, err)
			continue
		}
		result.Succeed()
	}
	return result, nil
}

// GetRateHistory returns stored rates for a pair within a date range, newest first.
func (s *fxRateService) GetRateHistory(
	base, target string,
	from, to time.Time,
	page pagination.PageRequest,
) (*pagination.PageResponse[models.FxRate], error) {
	q := s.db.Model(&models.FxRate{}).
		Where("base_currency = ? AND target_currency = ? AND rate_date >= ? AND rate_date <= ?",
			strings.ToUpper(base), strings.ToUpper(target), dates.Day(from), dates.Day(to))

	result, err := pagination.Query[models.FxRate](q, page, "rate_date DESC", "source ASC")
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return result, nil
}

// ResolveRate returns the rate effective on or before date.
func (s *fxRateService) ResolveRate(ctx context.Context, base, target string, date time.Time) (decimal.Decimal, error) {
	rate, err := s.resolver.Rate(ctx, base, target, date)
	if err != nil {
		if errors.Is(err, pricing.ErrNoRate) {
			return decimal.Zero, apperrors.Wrap(apperrors.ErrMissingFXRate, err)
		}
		return decimal.Zero, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return rate, nil
}
