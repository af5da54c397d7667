package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"wealthbook/internal/dates"
	apperrors "wealthbook/internal/errors"
	"wealthbook/internal/logger"
	"wealthbook/internal/models"
	"wealthbook/internal/pricing"
)

// ComputeTotalWealth aggregates portfolios and wealth values for date without
// storing anything. Values whose currency cannot be converted are skipped and
// reported in the breakdown's result.
func (s *wealthService) ComputeTotalWealth(ctx context.Context, date time.Time) (*WealthBreakdown, error) {
	day := dates.Day(date)
	log := logger.Get()

	items, err := s.loadValues(ctx, day, "")
	if err != nil {
		return nil, err
	}

	result := NewBatchResult()
	var cash, property, pension, other, liabilities decimal.Decimal
	for i := range items {
		v := &items[i]
		key := fmt.Sprintf("%s:%s/%s", v.CategoryType, v.CategoryName, dates.Format(day))

		amount := v.PresentValue
		if v.Currency != s.base {
			rate, err := s.fx.Rate(ctx, v.Currency, s.base, day)
			if err != nil {
				if ctx.Err() != nil {
					return nil, ctx.Err()
				}
				if errors.Is(err, pricing.ErrNoRate) {
					err = apperrors.Wrap(apperrors.ErrMissingFXRate, err)
				}
				result.Record(key, err)
				continue
			}
			amount = amount.Mul(rate)
		}

		if v.CategoryType == models.CategoryTypeLoan && !v.IsLiability {
			log.Warnw("loan category is not flagged as a liability, counting it as an asset",
				"category_id", v.WealthCategoryID,
				"category", v.CategoryName,
				"date", dates.Format(day),
			)
		}

		switch {
		case v.IsLiability:
			liabilities = liabilities.Add(amount.Abs())
		case v.CategoryType == models.CategoryTypeCash:
			cash = cash.Add(amount)
		case v.CategoryType == models.CategoryTypeProperty:
			property = property.Add(amount)
		case v.CategoryType == models.CategoryTypePension:
			pension = pension.Add(amount)
		default:
			other = other.Add(amount)
		}
		result.Succeed()
	}

	portfolio, err := s.portfolioTotal(ctx, day)
	if err != nil {
		return nil, err
	}

	cash, property, pension, other = cash.Round(2), property.Round(2), pension.Round(2), other.Round(2)
	liabilities = liabilities.Round(2)
	otherAssets := cash.Add(property).Add(pension).Add(other)

	return &WealthBreakdown{
		SnapshotDate:        dates.Format(day),
		PortfolioValueHUF:   portfolio,
		CashHUF:             cash,
		PropertyHUF:         property,
		PensionHUF:          pension,
		OtherHUF:            other,
		OtherAssetsHUF:      otherAssets,
		TotalLiabilitiesHUF: liabilities,
		NetWealthHUF:        portfolio.Add(otherAssets).Sub(liabilities).Round(2),
		Items:               items,
		Result:              result,
	}, nil
}

// portfolioTotal sums every portfolio valuation row of the day. The sum is
// done on decimals in Go so that no database float arithmetic is involved.
func (s *wealthService) portfolioTotal(ctx context.Context, day time.Time) (decimal.Decimal, error) {
	var rows []models.PortfolioValueDaily
	if err := s.db.WithContext(ctx).Select("value_huf").
		Where("snapshot_date = ?", day).
		Find(&rows).Error; err != nil {
		return decimal.Zero, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	total := decimal.Zero
	for i := range rows {
		total = total.Add(rows[i].ValueHUF)
	}
	return total.Round(2), nil
}

// AggregateSnapshot computes the breakdown for date and stores it as that
// date's snapshot. Re-running with unchanged inputs rewrites the same values.
func (s *wealthService) AggregateSnapshot(ctx context.Context, date time.Time) (*models.TotalWealthSnapshot, *BatchResult, error) {
	b, err := s.ComputeTotalWealth(ctx, date)
	if err != nil {
		return nil, nil, err
	}
	day := dates.Day(date)

	snap := models.TotalWealthSnapshot{
		SnapshotDate:        day,
		PortfolioValueHUF:   b.PortfolioValueHUF,
		OtherAssetsHUF:      b.OtherAssetsHUF,
		TotalLiabilitiesHUF: b.TotalLiabilitiesHUF,
		NetWealthHUF:        b.NetWealthHUF,
		CashHUF:             b.CashHUF,
		PropertyHUF:         b.PropertyHUF,
		PensionHUF:          b.PensionHUF,
		OtherHUF:            b.OtherHUF,
	}
	key := map[string]interface{}{"snapshot_date": day}
	if _, err := upsert(ctx, s.db, &snap, key, map[string]interface{}{
		"portfolio_value_huf":   snap.PortfolioValueHUF,
		"other_assets_huf":      snap.OtherAssetsHUF,
		"total_liabilities_huf": snap.TotalLiabilitiesHUF,
		"net_wealth_huf":        snap.NetWealthHUF,
		"cash_huf":              snap.CashHUF,
		"property_huf":          snap.PropertyHUF,
		"pension_huf":           snap.PensionHUF,
		"other_huf":             snap.OtherHUF,
	}); err != nil {
		return nil, b.Result, err
	}

	stored, err := s.GetSnapshot(day)
	if err != nil {
		return nil, b.Result, err
	}
	logger.Get().Infow("wealth snapshot stored",
		"date", b.SnapshotDate,
		"net_wealth_huf", stored.NetWealthHUF.StringFixed(2),
		"values", len(b.Items),
		"skipped", b.Result.Skipped,
	)
	return stored, b.Result, nil
}
