package services

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"wealthbook/internal/models"
	"wealthbook/internal/pagination"
	"wealthbook/internal/pricing"
)

// InstrumentUpdate holds the mutable metadata of an instrument. Nil fields are left unchanged.
type InstrumentUpdate struct {
	Name           *string
	InstrumentType *models.InstrumentType
	Ticker         *string
	Source         *string
}

// InstrumentServicer defines the contract for the instrument catalogue.
type InstrumentServicer interface {
	CreateInstrument(isin, name, currency string, instrumentType models.InstrumentType, ticker, source string) (*models.Instrument, error)
	GetInstrumentByID(id string) (*models.Instrument, error)
	GetInstrumentByISIN(isin string) (*models.Instrument, error)
	ListInstruments(search string, page pagination.PageRequest) (*pagination.PageResponse[models.Instrument], error)
	ListTrackedInstruments() ([]models.Instrument, error)
	UpdateInstrument(id string, update InstrumentUpdate) (*models.Instrument, error)
}

// PortfolioSummary is the total value of a portfolio on a date.
type PortfolioSummary struct {
	PortfolioID  string          `json:"portfolio_id"`
	SnapshotDate string          `json:"snapshot_date"`
	TotalHUF     decimal.Decimal `json:"total_value_huf"`
	Positions    int             `json:"positions"`
}

// PortfolioHistoryPoint is one day of portfolio history.
type PortfolioHistoryPoint struct {
	SnapshotDate string          `json:"snapshot_date"`
	TotalHUF     decimal.Decimal `json:"total_value_huf"`
	Positions    int             `json:"positions"`
}

// PortfolioServicer defines the contract for portfolios, holdings and their valuation reads.
type PortfolioServicer interface {
	CreatePortfolio(name, owner, currency string) (*models.Portfolio, error)
	GetPortfolioByID(id string) (*models.Portfolio, error)
	ListPortfolios() ([]models.Portfolio, error)
	ListHoldings(portfolioID string) ([]models.Holding, error)
	OpenHolding(portfolioID, instrumentID string, quantity decimal.Decimal, acquisitionDate *time.Time, acquisitionPrice decimal.NullDecimal) (*models.Holding, error)
	GetSnapshot(portfolioID string, date time.Time) ([]models.PortfolioValueDaily, error)
	GetSummary(portfolioID string, date time.Time) (*PortfolioSummary, error)
	GetHistory(portfolioID string, from, to time.Time) ([]PortfolioHistoryPoint, error)
}

// TransactionInput is a request to move a holding.
type TransactionInput struct {
	PortfolioID     string
	InstrumentID    string
	TransactionDate time.Time
	Type            models.TransactionType
	Quantity        decimal.Decimal
	Price           decimal.NullDecimal
	Notes           string
	CreatedBy       string
}

// TransactionServicer defines the contract for holding transactions.
type TransactionServicer interface {
	RecordTransaction(in TransactionInput) (*models.Transaction, *models.Holding, error)
	GetTransactionByID(id string) (*models.Transaction, error)
	ListTransactions(portfolioID string, page pagination.PageRequest) (*pagination.PageResponse[models.Transaction], error)
}

// PriceInput is one fetched price pushed by a fetcher.
type PriceInput struct {
	InstrumentID string
	PriceDate    time.Time
	Price        decimal.Decimal
	Currency     string
	Source       string
}

// PriceServicer defines the contract for fetched prices and manual overrides.
type PriceServicer interface {
	RecordPrices(ctx context.Context, prices []PriceInput) (*BatchResult, error)
	SetManualPrice(ctx context.Context, instrumentID string, date time.Time, price decimal.Decimal, currency, reason, createdBy string) (*models.ManualPrice, error)
	ListManualPrices(instrumentID string, page pagination.PageRequest) (*pagination.PageResponse[models.ManualPrice], error)
	DeleteManualPrice(id string) error
	GetPriceHistory(instrumentID string, from, to time.Time, page pagination.PageRequest) (*pagination.PageResponse[models.Price], error)
	ResolvePrice(ctx context.Context, instrumentID string, date time.Time) (*pricing.Quote, error)
}

// FxRateInput is one fetched FX rate pushed by a fetcher.
type FxRateInput struct {
	BaseCurrency   string
	TargetCurrency string
	RateDate       time.Time
	Rate           decimal.Decimal
	Source         string
}

// FxRateServicer defines the contract for FX rates.
type FxRateServicer interface {
	RecordRates(ctx context.Context, rates []FxRateInput) (*BatchResult, error)
	GetRateHistory(base, target string, from, to time.Time, page pagination.PageRequest) (*pagination.PageResponse[models.FxRate], error)
	ResolveRate(ctx context.Context, base, target string, date time.Time) (decimal.Decimal, error)
}

// ValuationServicer values holdings into PortfolioValueDaily rows.
type ValuationServicer interface {
	ValuePortfolio(ctx context.Context, portfolioID string, date time.Time) (*BatchResult, error)
	ValueAll(ctx context.Context, date time.Time) (*BatchResult, error)
}

// CategoryUpdate holds the mutable fields of a wealth category. Nil fields are left unchanged.
type CategoryUpdate struct {
	Name        *string
	Currency    *string
	IsLiability *bool
}

// WealthValueView is a wealth value joined with its category.
type WealthValueView struct {
	ID               string              `json:"id"`
	WealthCategoryID string              `json:"wealth_category_id"`
	CategoryType     models.CategoryType `json:"category_type"`
	CategoryName     string              `json:"category_name"`
	Currency         string              `json:"currency"`
	IsLiability      bool                `json:"is_liability"`
	ValueDate        time.Time           `json:"value_date"`
	PresentValue     decimal.Decimal     `json:"present_value"`
	Note             string              `json:"note,omitempty"`
}

// WealthBreakdown is the result of aggregating one date.
type WealthBreakdown struct {
	SnapshotDate        string            `json:"snapshot_date"`
	PortfolioValueHUF   decimal.Decimal   `json:"portfolio_value_huf"`
	CashHUF             decimal.Decimal   `json:"cash_huf"`
	PropertyHUF         decimal.Decimal   `json:"property_huf"`
	PensionHUF          decimal.Decimal   `json:"pension_huf"`
	OtherHUF            decimal.Decimal   `json:"other_huf"`
	OtherAssetsHUF      decimal.Decimal   `json:"other_assets_huf"`
	TotalLiabilitiesHUF decimal.Decimal   `json:"total_liabilities_huf"`
	NetWealthHUF        decimal.Decimal   `json:"net_wealth_huf"`
	Items               []WealthValueView `json:"items"`
	Result              *BatchResult      `json:"result"`
}

// YoYChange compares net wealth on a date with the latest snapshot one year earlier.
type YoYChange struct {
	CurrentDate    string           `json:"current_date"`
	CurrentWealth  decimal.Decimal  `json:"current_wealth"`
	PreviousDate   *string          `json:"previous_date"`
	PreviousWealth *decimal.Decimal `json:"previous_wealth"`
	Change         *decimal.Decimal `json:"yoy_change"`
	Percentage     *decimal.Decimal `json:"yoy_percentage"`
}

// WealthServicer defines the contract for non-portfolio wealth and its aggregation.
type WealthServicer interface {
	CreateCategory(categoryType models.CategoryType, name, currency string, isLiability bool) (*models.WealthCategory, error)
	ListCategories(categoryType string) ([]models.WealthCategory, error)
	GetCategory(id string) (*models.WealthCategory, error)
	UpdateCategory(id string, update CategoryUpdate) (*models.WealthCategory, error)
	DeleteCategory(id string) error

	UpsertValue(ctx context.Context, categoryID string, date time.Time, value decimal.Decimal, note string) (*models.WealthValue, error)
	ListValues(date time.Time, categoryType string) ([]WealthValueView, error)
	GetValueHistory(categoryID string, from, to time.Time) ([]models.WealthValue, error)
	DeleteValue(id string) error
	ValueDates() ([]time.Time, error)

	ComputeTotalWealth(ctx context.Context, date time.Time) (*WealthBreakdown, error)
	AggregateSnapshot(ctx context.Context, date time.Time) (*models.TotalWealthSnapshot, *BatchResult, error)
	GetSnapshot(date time.Time) (*models.TotalWealthSnapshot, error)
	ListSnapshots(from, to time.Time, page pagination.PageRequest) (*pagination.PageResponse[models.TotalWealthSnapshot], error)
	GetYoYChange(date time.Time) (*YoYChange, error)
}

// LoanReduction is a fixed monthly repayment applied to a liability category.
type LoanReduction struct {
	Category string
	Amount   decimal.Decimal
}

// LoanReductionServicer applies scheduled liability repayments.
type LoanReductionServicer interface {
	ApplyLoanReductions(ctx context.Context, date time.Time, reductions []LoanReduction) (*BatchResult, error)
}

// DailyCloseResult is the outcome of one pipeline day.
type DailyCloseResult struct {
	Date           string                      `json:"date"`
	LoanReductions *BatchResult                `json:"loan_reductions,omitempty"`
	Valuation      *BatchResult                `json:"valuation"`
	Wealth         *BatchResult                `json:"wealth"`
	Snapshot       *models.TotalWealthSnapshot `json:"snapshot,omitempty"`
}

// BackfillResult summarizes a multi-day rerun.
type BackfillResult struct {
	Days      int          `json:"days"`
	Snapshots int          `json:"snapshots"`
	Valuation *BatchResult `json:"valuation"`
	Wealth    *BatchResult `json:"wealth"`
}

// PipelineServicer runs the valuation and aggregation over one or many dates.
type PipelineServicer interface {
	DailyClose(ctx context.Context, date time.Time) (*DailyCloseResult, error)
	Backfill(ctx context.Context, from, to time.Time) (*BackfillResult, error)
	BackfillWealthDates(ctx context.Context) (*BackfillResult, error)
}
