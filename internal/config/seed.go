package config

import (
	"fmt"
	"os"

	toml "github.com/pelletier/go-toml/v2"
)

// Seed is the TOML catalogue file: instruments, portfolios with their
// opening holdings, wealth categories and the monthly loan schedule.
type Seed struct {
	Instruments    []SeedInstrument    `toml:"instruments"`
	Portfolios     []SeedPortfolio     `toml:"portfolios"`
	Categories     []SeedCategory      `toml:"categories"`
	LoanReductions []SeedLoanReduction `toml:"loan_reductions"`
}

// SeedInstrument describes one tradable instrument.
type SeedInstrument struct {
	ISIN           string `toml:"isin"`
	Name           string `toml:"name"`
	Currency       string `toml:"currency"`
	InstrumentType string `toml:"instrument_type"`
	Ticker         string `toml:"ticker"`
	Source         string `toml:"source"`
}

// SeedPortfolio describes a portfolio and its opening positions.
type SeedPortfolio struct {
	Name     string        `toml:"name"`
	Owner    string        `toml:"owner"`
	Currency string        `toml:"currency"`
	Holdings []SeedHolding `toml:"holdings"`
}

// SeedHolding is an opening position. Decimal fields are strings so that
// no float rounding happens while decoding.
type SeedHolding struct {
	ISIN             string `toml:"isin"`
	Quantity         string `toml:"quantity"`
	AcquisitionDate  string `toml:"acquisition_date"`
	AcquisitionPrice string `toml:"acquisition_price"`
}

// SeedCategory describes a non-portfolio wealth category.
type SeedCategory struct {
	CategoryType string `toml:"category_type"`
	Name         string `toml:"name"`
	Currency     string `toml:"currency"`
	IsLiability  bool   `toml:"is_liability"`
}

// SeedLoanReduction is a fixed monthly repayment applied to a liability.
type SeedLoanReduction struct {
	Category string `toml:"category"`
	Amount   string `toml:"amount"`
}

// LoadSeed reads and decodes a TOML seed file.
func LoadSeed(path string) (*Seed, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read seed file: %w", err)
	}
	return ParseSeed(data)
}

// ParseSeed decodes seed TOML from memory.
func ParseSeed(data []byte) (*Seed, error) {
	var seed Seed
	if err := toml.Unmarshal(data, &seed); err != nil {
		return nil, fmt.Errorf("parse seed file: %w", err)
	}
	for i, r := range seed.LoanReductions {
		if r.Category == "" || r.Amount == "" {
			return nil, fmt.Errorf("loan_reductions[%d]: category and amount are required", i)
		}
	}
	return &seed, nil
}
