// Package pricing resolves the effective price of an instrument and the FX
// rate of a currency pair on a given date.
//
// Prices come from an ordered chain of strategies. Each strategy looks at one
// tier of data (manual overrides, market prices, any price) and the first one
// that finds a row wins. A strategy that fails or times out is logged and
// treated as having no data, so the chain falls through to the next tier.
package pricing

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// Tier names recorded alongside a resolved price.
const (
	TierManual   = "manual"
	TierMarket   = "market"
	TierFallback = "fallback"
)

var (
	// ErrNoPrice is returned when no strategy produced a price.
	ErrNoPrice = errors.New("no price available")
	// ErrNoRate is returned when no FX rate is effective on or before the date.
	ErrNoRate = errors.New("no fx rate available")
)

// Quote is a resolved price.
type Quote struct {
	InstrumentID string          `json:"instrument_id"`
	Price        decimal.Decimal `json:"price"`
	Currency     string          `json:"currency"`
	Date         time.Time       `json:"date"`   // date of the row that produced the price
	Source       string          `json:"source"` // "manual" or the fetcher's source name
	Tier         string          `json:"tier"`
}

// PriceStrategy is one tier of the price chain. TryResolve returns
// (nil, nil) when the tier has no data for the instrument on or before asOf.
type PriceStrategy interface {
	Name() string
	TryResolve(ctx context.Context, instrumentID string, asOf time.Time) (*Quote, error)
}

// PriceResolver resolves the effective price of an instrument.
type PriceResolver interface {
	Resolve(ctx context.Context, instrumentID string, asOf time.Time) (*Quote, error)
}

// RateResolver resolves how much of target one unit of base buys.
type RateResolver interface {
	Rate(ctx context.Context, base, target string, asOf time.Time) (decimal.Decimal, error)
}
