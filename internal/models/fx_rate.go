package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// FxRate is the amount of TargetCurrency one unit of BaseCurrency buys on RateDate.
type FxRate struct {
	Series
	BaseCurrency   string          `gorm:"type:varchar(3);not null;uniqueIndex:uq_fx_rates_pair_date_source" json:"base_currency"`
	TargetCurrency string          `gorm:"type:varchar(3);not null;uniqueIndex:uq_fx_rates_pair_date_source" json:"target_currency"`
	RateDate       time.Time       `gorm:"not null;uniqueIndex:uq_fx_rates_pair_date_source" json:"rate_date"`
	Source         string          `gorm:"not null;uniqueIndex:uq_fx_rates_pair_date_source" json:"source"`
	Rate           decimal.Decimal `gorm:"type:numeric(24,6);not null" json:"rate"`
	RetrievedAt    time.Time       `gorm:"not null" json:"retrieved_at"`
}
