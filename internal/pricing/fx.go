package pricing

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"wealthbook/internal/dates"
	"wealthbook/internal/logger"
	"wealthbook/internal/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

var one = decimal.NewFromInt(1)

// FXResolver looks up stored FX rates.
type FXResolver struct {
	db      *gorm.DB
	timeout time.Duration
}

// NewFXResolver creates a resolver whose lookups are bounded by timeout.
func NewFXResolver(db *gorm.DB, timeout time.Duration) *FXResolver {
	return &FXResolver{db: db, timeout: timeout}
}

// Rate implements RateResolver. Equal currencies return exactly 1 without
// touching the store. A failed or timed-out lookup is reported as ErrNoRate.
func (r *FXResolver) Rate(ctx context.Context, base, target string, asOf time.Time) (decimal.Decimal, error) {
	base, target = strings.ToUpper(base), strings.ToUpper(target)
	if base == target {
		return one, nil
	}
	asOf = dates.Day(asOf)

	lctx := ctx
	if r.timeout > 0 {
		var cancel context.CancelFunc
		lctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	var rate models.FxRate
	err := r.db.WithContext(lctx).
		Where("base_currency = ? AND target_currency = ? AND rate_date <= ?", base, target, asOf).
		Order("rate_date DESC").
		Order("retrieved_at DESC").
		First(&rate).Error
	switch {
	case err == nil:
		return rate.Rate, nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return decimal.Zero, fmt.Errorf("%s/%s on %s: %w", base, target, dates.Format(asOf), ErrNoRate)
	default:
		if ctx.Err() != nil {
			return decimal.Zero, ctx.Err()
		}
		logger.Get().Warnw("fx lookup failed",
			"base", base,
			"target", target,
			"as_of", dates.Format(asOf),
			"error", err,
		)
		return decimal.Zero, fmt.Errorf("%s/%s on %s: %w (%v)", base, target, dates.Format(asOf), ErrNoRate, err)
	}
}
