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

// priceService handles fetched prices, manual overrides and price resolution.
type priceService struct {
	db       *gorm.DB
	resolver pricing.PriceResolver
}

// NewPriceService creates a new PriceServicer.
func NewPriceService(db *gorm.DB, resolver pricing.PriceResolver) PriceServicer {
	return &priceService{db: db, resolver: resolver}
}

// RecordPrices upserts fetched prices by (instrument, date, source). A
// same-day refetch from the same source overwrites the earlier row. Invalid
// rows are reported in the result and do not stop the batch.
func (s *priceService) RecordPrices(ctx context.Context, prices []PriceInput) (*BatchResult, error) {
	result := NewBatchResult()
	now := time.Now().UTC()

	for _, p := range prices {
		key := fmt.Sprintf("%s/%s/%s", p.InstrumentID, dates.Format(p.PriceDate), p.Source)
		if err := ctx.Err(); err != nil {
			return result, err
		}
		if err := validatePriceInput(p); err != nil {
			result.Record(key, err)
			continue
		}
		if err := ensureExists(s.db, &models.Instrument{}, p.InstrumentID, apperrors.ErrInstrumentNotFound); err != nil {
			result.Record(key, err)
			continue
		}

		row := models.Price{
			InstrumentID: p.InstrumentID,
			PriceDate:    dates.Day(p.PriceDate),
			Source:       p.Source,
			Price:        p.Price,
			Currency:     strings.ToUpper(p.Currency),
			RetrievedAt:  now,
		}
		_, err := upsert(ctx, s.db, &row,
			map[string]interface{}{"instrument_id": row.InstrumentID, "price_date": row.PriceDate, "source": row.Source},
			map[string]interface{}{"price": row.Price, "currency": row.Currency, "retrieved_at": now},
		)
		if err != nil {
			result.Record(key, err)
			continue
		}
		result.Succeed()
	}
	return result, nil
}

func validatePriceInput(p PriceInput) error {
	switch {
	case p.InstrumentID == "":
		return apperrors.WithMessage(apperrors.ErrInvalidInput, "instrument_id is required")
	case p.Source == "":
		return apperrors.WithMessage(apperrors.ErrInvalidInput, "source is required")
	case p.PriceDate.IsZero():
		return apperrors.WithMessage(apperrors.ErrInvalidInput, "price_date is required")
	case len(p.Currency) != 3:
		return apperrors.WithMessage(apperrors.ErrInvalidInput, "currency must be a 3-letter code")
	case !p.Price.IsPositive():
		return apperrors.WithMessage(apperrors.ErrInvariantViolation, "price must be positive")
	}
	return nil
}

// SetManualPrice creates or replaces the override for an instrument on a date.
// The override currency must match the instrument currency.
func (s *priceService) SetManualPrice(
	ctx context.Context,
	instrumentID string,
	date time.Time,
	price decimal.Decimal,
	currency, reason, createdBy string,
) (*models.ManualPrice, error) {
	if !price.IsPositive() {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "price must be positive")
	}

	var inst models.Instrument
	if err := s.db.Where("id = ?", instrumentID).First(&inst).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrInstrumentNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if currency == "" {
		currency = inst.Currency
	}
	currency = strings.ToUpper(currency)
	if currency != inst.Currency {
		return nil, apperrors.WithMessage(apperrors.ErrInvariantViolation,
			fmt.Sprintf("override currency %s does not match instrument currency %s", currency, inst.Currency))
	}

	row := models.ManualPrice{
		InstrumentID: instrumentID,
		OverrideDate: dates.Day(date),
		Price:        price,
		Currency:     currency,
		Reason:       reason,
		CreatedBy:    createdBy,
	}
	key := map[string]interface{}{"instrument_id": instrumentID, "override_date": row.OverrideDate}
	if _, err := upsert(ctx, s.db, &row, key,
		map[string]interface{}{"price": price, "currency": currency, "reason": reason, "created_by": createdBy},
	); err != nil {
		return nil, err
	}

	var stored models.ManualPrice
	if err := s.db.Where(key).First(&stored).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &stored, nil
}

// ListManualPrices returns overrides, newest first. An empty instrumentID lists all.
func (s *priceService) ListManualPrices(instrumentID string, page pagination.PageRequest) (*pagination.PageResponse[models.ManualPrice], error) {
	base := s.db.Model(&models.ManualPrice{})
	if instrumentID != "" {
		base = base.Where("instrument_id = ?", instrumentID)
	}

	result, err := pagination.Query[models.ManualPrice](base, page, "override_date DESC")
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return result, nil
}

// DeleteManualPrice removes an override so the market price applies again.
func (s *priceService) DeleteManualPrice(id string) error {
	res := s.db.Where("id = ?", id).Delete(&models.ManualPrice{})
	if res.Error != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, res.Error)
	}
	if res.RowsAffected == 0 {
		return apperrors.WithMessage(apperrors.ErrNotFound, "Manual price not found")
	}
	return nil
}

// GetPriceHistory returns fetched prices for an instrument within a date range, newest first.
func (s *priceService) GetPriceHistory(
	instrumentID string,
	from, to time.Time,
	page pagination.PageRequest,
) (*pagination.PageResponse[models.Price], error) {
	base := s.db.Model(&models.Price{}).
		Where("instrument_id = ? AND price_date >= ? AND price_date <= ?", instrumentID, dates.Day(from), dates.Day(to))

	result, err := pagination.Query[models.Price](base, page, "price_date DESC", "source ASC")
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return result, nil
}

// ResolvePrice runs the price chain for an instrument on a date.
func (s *priceService) ResolvePrice(ctx context.Context, instrumentID string, date time.Time) (*pricing.Quote, error) {
	if err := ensureExists(s.db, &models.Instrument{}, instrumentID, apperrors.ErrInstrumentNotFound); err != nil {
		return nil, err
	}
	q, err := s.resolver.Resolve(ctx, instrumentID, date)
	if err != nil {
		if errors.Is(err, pricing.ErrNoPrice) {
			return nil, apperrors.Wrap(apperrors.ErrMissingPrice, err)
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return q, nil
}
