package pricing

import (
	"context"
	"fmt"
	"time"

	"wealthbook/internal/dates"
	"wealthbook/internal/logger"

	"gorm.io/gorm"
)

// Chain tries its strategies in order and returns the first hit.
type Chain struct {
	strategies []PriceStrategy
	timeout    time.Duration
}

// NewChain builds a chain over the given strategies. Each strategy call is
// bounded by timeout; zero disables the bound.
func NewChain(timeout time.Duration, strategies ...PriceStrategy) *Chain {
	return &Chain{strategies: strategies, timeout: timeout}
}

// NewDefaultChain is manual override, then market price, then any price.
func NewDefaultChain(db *gorm.DB, timeout time.Duration) *Chain {
	return NewChain(timeout,
		NewManualPriceStrategy(db),
		NewMarketPriceStrategy(db),
		NewFallbackPriceStrategy(db),
	)
}

// Resolve implements PriceResolver. It returns ErrNoPrice when every tier
// came back empty or failed.
func (c *Chain) Resolve(ctx context.Context, instrumentID string, asOf time.Time) (*Quote, error) {
	asOf = dates.Day(asOf)
	for _, s := range c.strategies {
		q, err := c.try(ctx, s, instrumentID, asOf)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			logger.Get().Warnw("price strategy failed, trying next tier",
				"strategy", s.Name(),
				"instrument_id", instrumentID,
				"as_of", dates.Format(asOf),
				"error", err,
			)
			continue
		}
		if q != nil {
			return q, nil
		}
	}
	return nil, fmt.Errorf("instrument %s on %s: %w", instrumentID, dates.Format(asOf), ErrNoPrice)
}

func (c *Chain) try(ctx context.Context, s PriceStrategy, instrumentID string, asOf time.Time) (*Quote, error) {
	if c.timeout <= 0 {
		return s.TryResolve(ctx, instrumentID, asOf)
	}
	tctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	return s.TryResolve(tctx, instrumentID, asOf)
}
