package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransactionType is the effect a transaction has on a holding.
type TransactionType string

const (
	TransactionTypeBuy    TransactionType = "BUY"    // adds quantity
	TransactionTypeSell   TransactionType = "SELL"   // subtracts quantity
	TransactionTypeAdjust TransactionType = "ADJUST" // sets quantity
)

// Transaction records a change to a holding.
type Transaction struct {
	Base
	PortfolioID     string              `gorm:"type:uuid;not null;index:idx_transactions_portfolio_date" json:"portfolio_id"`
	InstrumentID    string              `gorm:"type:uuid;not null" json:"instrument_id"`
	TransactionDate time.Time           `gorm:"not null;index:idx_transactions_portfolio_date" json:"transaction_date"`
	TransactionType TransactionType     `gorm:"type:varchar(10);not null" json:"transaction_type"`
	Quantity        decimal.Decimal     `gorm:"type:numeric(24,6);not null" json:"quantity"`
	Price           decimal.NullDecimal `gorm:"type:numeric(24,6)" json:"price"`
	Notes           string              `json:"notes,omitempty"`
	CreatedBy       string              `json:"created_by,omitempty"`

	Instrument Instrument `gorm:"foreignKey:InstrumentID" json:"instrument,omitempty"`
}
