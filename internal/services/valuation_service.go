package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"wealthbook/internal/dates"
	apperrors "wealthbook/internal/errors"
	"wealthbook/internal/logger"
	"wealthbook/internal/models"
	"wealthbook/internal/pricing"
)

// ValuationOptions tunes the valuation engine.
type ValuationOptions struct {
	Workers      int    // holdings valued in parallel; values below 1 mean 1
	BaseCurrency string // currency of value_huf, normally HUF
}

type valuationService struct {
	db     *gorm.DB
	prices pricing.PriceResolver
	fx     pricing.RateResolver
	opts   ValuationOptions
}

// NewValuationService creates a new ValuationServicer.
func NewValuationService(db *gorm.DB, prices pricing.PriceResolver, fx pricing.RateResolver, opts ValuationOptions) ValuationServicer {
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	if opts.BaseCurrency == "" {
		opts.BaseCurrency = "HUF"
	}
	opts.BaseCurrency = strings.ToUpper(opts.BaseCurrency)
	return &valuationService{db: db, prices: prices, fx: fx, opts: opts}
}

// ValuePortfolio values every holding of one portfolio on date.
func (s *valuationService) ValuePortfolio(ctx context.Context, portfolioID string, date time.Time) (*BatchResult, error) {
	if err := ensureExists(s.db.WithContext(ctx), &models.Portfolio{}, portfolioID, apperrors.ErrPortfolioNotFound); err != nil {
		return nil, err
	}
	var holdings []models.Holding
	if err := s.db.WithContext(ctx).Preload("Instrument").
		Where("portfolio_id = ?", portfolioID).
		Find(&holdings).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return s.valueHoldings(ctx, holdings, date)
}

// ValueAll values every holding of every portfolio on date.
func (s *valuationService) ValueAll(ctx context.Context, date time.Time) (*BatchResult, error) {
	var holdings []models.Holding
	if err := s.db.WithContext(ctx).Preload("Instrument").
		Order("portfolio_id ASC").
		Find(&holdings).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return s.valueHoldings(ctx, holdings, date)
}

// valueHoldings writes one PortfolioValueDaily row per holding. Item failures
// are collected into the result; only cancellation stops the run.
func (s *valuationService) valueHoldings(ctx context.Context, holdings []models.Holding, date time.Time) (*BatchResult, error) {
	day := dates.Day(date)
	result := NewBatchResult()
	log := logger.Get()

	usdRate, err := s.fx.Rate(ctx, "USD", s.opts.BaseCurrency, day)
	if err != nil {
		if ctx.Err() != nil {
			return result, ctx.Err()
		}
		log.Debugw("no USD rate, value_usd left empty", "date", dates.Format(day))
		usdRate = decimal.Zero
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.opts.Workers)
	for i := range holdings {
		h := &holdings[i]
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			key := fmt.Sprintf("%s/%s/%s", h.PortfolioID, h.InstrumentID, dates.Format(day))
			if err := s.valueHolding(gctx, h, day, usdRate); err != nil {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				result.Record(key, err)
				return nil
			}
			result.Succeed()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return result, err
	}

	log.Infow("valuation finished",
		"date", dates.Format(day),
		"holdings", len(holdings),
		"succeeded", result.Succeeded,
		"skipped", result.Skipped,
		"failed", result.Failed,
	)
	return result, nil
}

func (s *valuationService) valueHolding(ctx context.Context, h *models.Holding, day time.Time, usdRate decimal.Decimal) error {
	if h.Quantity.IsNegative() {
		return apperrors.WithMessage(apperrors.ErrInvariantViolation,
			fmt.Sprintf("negative quantity %s", h.Quantity))
	}
	if h.AcquisitionDate != nil && day.Before(dates.Day(*h.AcquisitionDate)) {
		return apperrors.WithMessage(apperrors.ErrInvariantViolation,
			fmt.Sprintf("snapshot date %s is before acquisition date %s", dates.Format(day), dates.Format(*h.AcquisitionDate)))
	}

	quote, err := s.prices.Resolve(ctx, h.InstrumentID, day)
	if err != nil {
		if errors.Is(err, pricing.ErrNoPrice) {
			return apperrors.Wrap(apperrors.ErrMissingPrice, err)
		}
		return err
	}
	currency := h.Instrument.Currency
	if quote.Currency != currency {
		return apperrors.WithMessage(apperrors.ErrInvariantViolation,
			fmt.Sprintf("price currency %s does not match instrument currency %s", quote.Currency, currency))
	}

	rate, err := s.fx.Rate(ctx, currency, s.opts.BaseCurrency, day)
	if err != nil {
		if errors.Is(err, pricing.ErrNoRate) {
			return apperrors.Wrap(apperrors.ErrMissingFXRate, err)
		}
		return err
	}

	value := h.Quantity.Mul(quote.Price).Mul(rate).Round(2)
	var valueUSD decimal.NullDecimal
	if usdRate.IsPositive() {
		valueUSD = decimal.NewNullDecimal(value.Div(usdRate).Round(2))
	}

	now := time.Now().UTC()
	row := models.PortfolioValueDaily{
		PortfolioID:        h.PortfolioID,
		SnapshotDate:       day,
		InstrumentID:       h.InstrumentID,
		Quantity:           h.Quantity,
		Price:              quote.Price,
		PriceSource:        quote.Source,
		InstrumentCurrency: currency,
		FxRate:             rate,
		ValueHUF:           value,
		ValueUSD:           valueUSD,
		CalculatedAt:       now,
	}
	_, err = upsert(ctx, s.db, &row,
		map[string]interface{}{
			"portfolio_id":  h.PortfolioID,
			"snapshot_date": day,
			"instrument_id": h.InstrumentID,
		},
		map[string]interface{}{
			"quantity":            row.Quantity,
			"price":               row.Price,
			"price_source":        row.PriceSource,
			"instrument_currency": row.InstrumentCurrency,
			"fx_rate":             row.FxRate,
			"value_huf":           row.ValueHUF,
			"value_usd":           row.ValueUSD,
			"calculated_at":       now,
		},
	)
	return err
}
