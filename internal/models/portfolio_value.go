package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// PortfolioValueDaily is the derived valuation of one holding on one date.
// Recomputing it with unchanged inputs rewrites identical values.
type PortfolioValueDaily struct {
	Series
	PortfolioID        string              `gorm:"type:uuid;not null;uniqueIndex:uq_portfolio_values_key" json:"portfolio_id"`
	SnapshotDate       time.Time           `gorm:"not null;uniqueIndex:uq_portfolio_values_key;index:idx_portfolio_values_date" json:"snapshot_date"`
	InstrumentID       string              `gorm:"type:uuid;not null;uniqueIndex:uq_portfolio_values_key" json:"instrument_id"`
	Quantity           decimal.Decimal     `gorm:"type:numeric(24,6);not null" json:"quantity"`
	Price              decimal.Decimal     `gorm:"type:numeric(24,6);not null" json:"price"`
	PriceSource        string              `gorm:"not null" json:"price_source"`
	InstrumentCurrency string              `gorm:"type:varchar(3);not null" json:"instrument_currency"`
	FxRate             decimal.Decimal     `gorm:"type:numeric(24,6);not null" json:"fx_rate"`
	ValueHUF           decimal.Decimal     `gorm:"column:value_huf;type:numeric(20,2);not null" json:"value_huf"`
	ValueUSD           decimal.NullDecimal `gorm:"column:value_usd;type:numeric(20,2)" json:"value_usd"`
	CalculatedAt       time.Time           `gorm:"not null" json:"calculated_at"`

	Instrument Instrument `gorm:"foreignKey:InstrumentID" json:"instrument,omitempty"`
}

// TableName keeps the historical table name.
func (PortfolioValueDaily) TableName() string {
	return "portfolio_values_daily"
}
