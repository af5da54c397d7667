package pricing

import (
	"context"
	"errors"
	"time"

	"wealthbook/internal/models"

	"gorm.io/gorm"
)

// ManualPriceStrategy returns the latest manual override on or before the date.
type ManualPriceStrategy struct {
	db *gorm.DB
}

// NewManualPriceStrategy creates the manual override tier.
func NewManualPriceStrategy(db *gorm.DB) *ManualPriceStrategy {
	return &ManualPriceStrategy{db: db}
}

// Name implements PriceStrategy.
func (s *ManualPriceStrategy) Name() string { return TierManual }

// TryResolve implements PriceStrategy.
func (s *ManualPriceStrategy) TryResolve(ctx context.Context, instrumentID string, asOf time.Time) (*Quote, error) {
	var mp models.ManualPrice
	err := s.db.WithContext(ctx).
		Where("instrument_id = ? AND override_date <= ?", instrumentID, asOf).
		Order("override_date DESC").
		First(&mp).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &Quote{
		InstrumentID: instrumentID,
		Price:        mp.Price,
		Currency:     mp.Currency,
		Date:         mp.OverrideDate,
		Source:       models.PriceSourceManual,
		Tier:         TierManual,
	}, nil
}

// MarketPriceStrategy returns the latest fetched price on or before the date,
// optionally ignoring rows from excluded sources.
type MarketPriceStrategy struct {
	db       *gorm.DB
	tier     string
	excluded []string
}

// NewMarketPriceStrategy creates the market tier, which ignores test data.
func NewMarketPriceStrategy(db *gorm.DB) *MarketPriceStrategy {
	return &MarketPriceStrategy{db: db, tier: TierMarket, excluded: []string{models.PriceSourceTest}}
}

// NewFallbackPriceStrategy creates the last-resort tier, which accepts any source.
func NewFallbackPriceStrategy(db *gorm.DB) *MarketPriceStrategy {
	return &MarketPriceStrategy{db: db, tier: TierFallback}
}

// Name implements PriceStrategy.
func (s *MarketPriceStrategy) Name() string { return s.tier }

// TryResolve implements PriceStrategy. Same-date rows from different sources
// are ordered by retrieval time, newest first.
func (s *MarketPriceStrategy) TryResolve(ctx context.Context, instrumentID string, asOf time.Time) (*Quote, error) {
	q := s.db.WithContext(ctx).
		Where("instrument_id = ? AND price_date <= ?", instrumentID, asOf)
	if len(s.excluded) > 0 {
		q = q.Where("source NOT IN ?", s.excluded)
	}

	var p models.Price
	err := q.Order("price_date DESC").Order("retrieved_at DESC").First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &Quote{
		InstrumentID: instrumentID,
		Price:        p.Price,
		Currency:     p.Currency,
		Date:         p.PriceDate,
		Source:       p.Source,
		Tier:         s.tier,
	}, nil
}
