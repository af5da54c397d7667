package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Price sources with special meaning to the resolver.
const (
	PriceSourceManual = "manual"
	PriceSourceTest   = "test"
)

// Price is a fetched market price. One row per (instrument, date, source);
// a same-day refetch overwrites the row.
type Price struct {
	Series
	InstrumentID string          `gorm:"type:uuid;not null;uniqueIndex:uq_prices_instrument_date_source" json:"instrument_id"`
	PriceDate    time.Time       `gorm:"not null;uniqueIndex:uq_prices_instrument_date_source" json:"price_date"`
	Source       string          `gorm:"not null;uniqueIndex:uq_prices_instrument_date_source" json:"source"`
	Price        decimal.Decimal `gorm:"type:numeric(24,6);not null" json:"price"`
	Currency     string          `gorm:"type:varchar(3);not null" json:"currency"`
	RetrievedAt  time.Time       `gorm:"not null" json:"retrieved_at"`
}

// ManualPrice is an owner-entered override. It wins over any fetched Price
// effective on the same or an earlier date.
type ManualPrice struct {
	Series
	InstrumentID string          `gorm:"type:uuid;not null;uniqueIndex:uq_manual_prices_instrument_date" json:"instrument_id"`
	OverrideDate time.Time       `gorm:"not null;uniqueIndex:uq_manual_prices_instrument_date" json:"override_date"`
	Price        decimal.Decimal `gorm:"type:numeric(24,6);not null" json:"price"`
	Currency     string          `gorm:"type:varchar(3);not null" json:"currency"`
	Reason       string          `json:"reason,omitempty"`
	CreatedBy    string          `json:"created_by,omitempty"`
}
