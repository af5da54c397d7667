package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Portfolio groups holdings owned by one person or account.
type Portfolio struct {
	Base
	Name     string    `gorm:"not null" json:"name"`
	Owner    string    `json:"owner,omitempty"`
	Currency string    `gorm:"type:varchar(3);not null;default:'HUF'" json:"currency"`
	Holdings []Holding `gorm:"foreignKey:PortfolioID" json:"holdings,omitempty"`
}

// Holding is the current position of an instrument within a portfolio.
// It is not historized; transactions move it.
type Holding struct {
	Base
	PortfolioID      string              `gorm:"type:uuid;not null;uniqueIndex:uq_holdings_portfolio_instrument" json:"portfolio_id"`
	InstrumentID     string              `gorm:"type:uuid;not null;uniqueIndex:uq_holdings_portfolio_instrument" json:"instrument_id"`
	Quantity         decimal.Decimal     `gorm:"type:numeric(24,6);not null" json:"quantity"`
	AcquisitionDate  *time.Time          `json:"acquisition_date,omitempty"`
	AcquisitionPrice decimal.NullDecimal `gorm:"type:numeric(24,6)" json:"acquisition_price"`

	Instrument Instrument `gorm:"foreignKey:InstrumentID" json:"instrument"`
}
