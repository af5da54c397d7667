package testutil

import (
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"wealthbook/internal/dates"
	"wealthbook/internal/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// counter provides unique values across fixtures within a test run.
var counter atomic.Int64

func nextID() int64 {
	return counter.Add(1)
}

// Date parses YYYY-MM-DD or fails the test.
func Date(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := dates.Parse(s)
	if err != nil {
		t.Fatalf("bad test date %q: %v", s, err)
	}
	return d
}

// Dec parses a decimal literal or panics; for test tables only.
func Dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// CreateTestInstrument creates an instrument with a unique ISIN in the given currency.
func CreateTestInstrument(t *testing.T, db *gorm.DB, currency string) *models.Instrument {
	t.Helper()

	n := nextID()
	inst := &models.Instrument{
		ISIN:           fmt.Sprintf("HU%010d", n),
		Name:           fmt.Sprintf("Test Instrument %d", n),
		Currency:       currency,
		InstrumentType: models.InstrumentTypeEquity,
		Ticker:         fmt.Sprintf("TST%d.BD", n),
		Source:         "yahoo",
	}
	if err := db.Create(inst).Error; err != nil {
		t.Fatalf("failed to create test instrument: %v", err)
	}
	return inst
}

// CreateTestPortfolio creates an empty HUF portfolio.
func CreateTestPortfolio(t *testing.T, db *gorm.DB) *models.Portfolio {
	t.Helper()

	p := &models.Portfolio{
		Name:     fmt.Sprintf("Test Portfolio %d", nextID()),
		Owner:    "tester",
		Currency: "HUF",
	}
	if err := db.Create(p).Error; err != nil {
		t.Fatalf("failed to create test portfolio: %v", err)
	}
	return p
}

// CreateTestHolding creates a holding without an acquisition date.
func CreateTestHolding(t *testing.T, db *gorm.DB, portfolioID, instrumentID, quantity string) *models.Holding {
	t.Helper()

	h := &models.Holding{
		PortfolioID:  portfolioID,
		InstrumentID: instrumentID,
		Quantity:     Dec(quantity),
	}
	if err := db.Create(h).Error; err != nil {
		t.Fatalf("failed to create test holding: %v", err)
	}
	return h
}

// CreateTestPrice records a fetched price.
func CreateTestPrice(t *testing.T, db *gorm.DB, instrumentID, date, source, price, currency string) *models.Price {
	t.Helper()

	p := &models.Price{
		InstrumentID: instrumentID,
		PriceDate:    Date(t, date),
		Source:       source,
		Price:        Dec(price),
		Currency:     currency,
		RetrievedAt:  time.Now().UTC(),
	}
	if err := db.Create(p).Error; err != nil {
		t.Fatalf("failed to create test price: %v", err)
	}
	return p
}

// CreateTestManualPrice records a manual override.
func CreateTestManualPrice(t *testing.T, db *gorm.DB, instrumentID, date, price, currency string) *models.ManualPrice {
	t.Helper()

	mp := &models.ManualPrice{
		InstrumentID: instrumentID,
		OverrideDate: Date(t, date),
		Price:        Dec(price),
		Currency:     currency,
		Reason:       "test override",
		CreatedBy:    "tester",
	}
	if err := db.Create(mp).Error; err != nil {
		t.Fatalf("failed to create test manual price: %v", err)
	}
	return mp
}

// CreateTestFxRate records base->target on date.
func CreateTestFxRate(t *testing.T, db *gorm.DB, base, target, date, rate string) *models.FxRate {
	t.Helper()

	r := &models.FxRate{
		BaseCurrency:   base,
		TargetCurrency: target,
		RateDate:       Date(t, date),
		Source:         "test-feed",
		Rate:           Dec(rate),
		RetrievedAt:    time.Now().UTC(),
	}
	if err := db.Create(r).Error; err != nil {
		t.Fatalf("failed to create test fx rate: %v", err)
	}
	return r
}

// CreateTestCategory creates a wealth category with a unique name.
func CreateTestCategory(t *testing.T, db *gorm.DB, categoryType models.CategoryType, currency string, isLiability bool) *models.WealthCategory {
	t.Helper()

	c := &models.WealthCategory{
		CategoryType: categoryType,
		Name:         fmt.Sprintf("Test %s %d", categoryType, nextID()),
		Currency:     currency,
		IsLiability:  isLiability,
	}
	if err := db.Create(c).Error; err != nil {
		t.Fatalf("failed to create test category: %v", err)
	}
	return c
}

// CreateTestWealthValue records a category's value on date.
func CreateTestWealthValue(t *testing.T, db *gorm.DB, categoryID, date, value string) *models.WealthValue {
	t.Helper()

	v := &models.WealthValue{
		WealthCategoryID: categoryID,
		ValueDate:        Date(t, date),
		PresentValue:     Dec(value),
	}
	if err := db.Create(v).Error; err != nil {
		t.Fatalf("failed to create test wealth value: %v", err)
	}
	return v
}
