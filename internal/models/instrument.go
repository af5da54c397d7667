package models

// InstrumentType is the asset class of a tradable instrument.
type InstrumentType string

const (
	InstrumentTypeEquity InstrumentType = "equity"
	InstrumentTypeFund   InstrumentType = "fund"
	InstrumentTypeBond   InstrumentType = "bond"
)

// Instrument is a tradable asset identified by ISIN. The ISIN is immutable;
// the remaining fields are metadata.
type Instrument struct {
	Base
	ISIN           string         `gorm:"not null;uniqueIndex:uq_instruments_isin" json:"isin"`
	Name           string         `gorm:"not null" json:"name"`
	Currency       string         `gorm:"type:varchar(3);not null" json:"currency"`
	InstrumentType InstrumentType `gorm:"type:varchar(20)" json:"instrument_type"`
	Ticker         string         `json:"ticker,omitempty"`
	Source         string         `json:"source,omitempty"`
}
