package handlers

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"wealthbook/internal/models"
	"wealthbook/internal/pagination"
	"wealthbook/internal/pricing"
	"wealthbook/internal/services"
	"wealthbook/internal/validator"
)

const (
	testPortfolioID  = "0190a6f0-0000-7000-8000-000000000001"
	testInstrumentID = "0190a6f0-0000-7000-8000-000000000002"
	testCategoryID   = "0190a6f0-0000-7000-8000-000000000003"
)

func init() {
	gin.SetMode(gin.TestMode)
	validator.Register()
}

func injectOwner(owner string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set("owner", owner)
		c.Next()
	}
}

func doRequest(r *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func parseJSON(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var result map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("failed to parse JSON response: %v\nbody: %s", err, rec.Body.String())
	}
	return result
}

func assertErrorCode(t *testing.T, result map[string]interface{}, code string) {
	t.Helper()
	errObj, ok := result["error"].(map[string]interface{})
	if !ok {
		t.Fatalf("expected error object in response, got: %v", result)
	}
	if errObj["code"] != code {
		t.Errorf("expected error code %q, got %q", code, errObj["code"])
	}
}

func day(s string) time.Time {
	d, _ := time.Parse("2006-01-02", s)
	return d
}

// --- mock instrument service ---

type mockInstrumentService struct {
	createInstrumentFn       func(isin, name, currency string, t models.InstrumentType, ticker, source string) (*models.Instrument, error)
	getInstrumentByIDFn      func(id string) (*models.Instrument, error)
	getInstrumentByISINFn    func(isin string) (*models.Instrument, error)
	listInstrumentsFn        func(search string, page pagination.PageRequest) (*pagination.PageResponse[models.Instrument], error)
	listTrackedInstrumentsFn func() ([]models.Instrument, error)
	updateInstrumentFn       func(id string, update services.InstrumentUpdate) (*models.Instrument, error)
}

var _ services.InstrumentServicer = (*mockInstrumentService)(nil)

func (m *mockInstrumentService) CreateInstrument(isin, name, currency string, t models.InstrumentType, ticker, source string) (*models.Instrument, error) {
	if m.createInstrumentFn != nil {
		return m.createInstrumentFn(isin, name, currency, t, ticker, source)
	}
	return &models.Instrument{}, nil
}

func (m *mockInstrumentService) GetInstrumentByID(id string) (*models.Instrument, error) {
	if m.getInstrumentByIDFn != nil {
		return m.getInstrumentByIDFn(id)
	}
	return &models.Instrument{}, nil
}

func (m *mockInstrumentService) GetInstrumentByISIN(isin string) (*models.Instrument, error) {
	if m.getInstrumentByISINFn != nil {
		return m.getInstrumentByISINFn(isin)
	}
	return &models.Instrument{}, nil
}

func (m *mockInstrumentService) ListInstruments(search string, page pagination.PageRequest) (*pagination.PageResponse[models.Instrument], error) {
	if m.listInstrumentsFn != nil {
		return m.listInstrumentsFn(search, page)
	}
	resp := pagination.NewPageResponse([]models.Instrument{}, 1, 20, 0)
	return &resp, nil
}

func (m *mockInstrumentService) ListTrackedInstruments() ([]models.Instrument, error) {
	if m.listTrackedInstrumentsFn != nil {
		return m.listTrackedInstrumentsFn()
	}
	return []models.Instrument{}, nil
}

func (m *mockInstrumentService) UpdateInstrument(id string, update services.InstrumentUpdate) (*models.Instrument, error) {
	if m.updateInstrumentFn != nil {
		return m.updateInstrumentFn(id, update)
	}
	return &models.Instrument{}, nil
}

// --- mock portfolio service ---

type mockPortfolioService struct {
	createPortfolioFn func(name, owner, currency string) (*models.Portfolio, error)
	getPortfolioFn    func(id string) (*models.Portfolio, error)
	listHoldingsFn    func(portfolioID string) ([]models.Holding, error)
	openHoldingFn     func(portfolioID, instrumentID string, qty decimal.Decimal, acquired *time.Time, price decimal.NullDecimal) (*models.Holding, error)
	getSnapshotFn     func(portfolioID string, date time.Time) ([]models.PortfolioValueDaily, error)
	getSummaryFn      func(portfolioID string, date time.Time) (*services.PortfolioSummary, error)
	getHistoryFn      func(portfolioID string, from, to time.Time) ([]services.PortfolioHistoryPoint, error)
}

var _ services.PortfolioServicer = (*mockPortfolioService)(nil)

func (m *mockPortfolioService) CreatePortfolio(name, owner, currency string) (*models.Portfolio, error) {
	if m.createPortfolioFn != nil {
		return m.createPortfolioFn(name, owner, currency)
	}
	return &models.Portfolio{}, nil
}

func (m *mockPortfolioService) GetPortfolioByID(id string) (*models.Portfolio, error) {
	if m.getPortfolioFn != nil {
		return m.getPortfolioFn(id)
	}
	return &models.Portfolio{}, nil
}

func (m *mockPortfolioService) ListPortfolios() ([]models.Portfolio, error) {
	return []models.Portfolio{}, nil
}

func (m *mockPortfolioService) ListHoldings(portfolioID string) ([]models.Holding, error) {
	if m.listHoldingsFn != nil {
		return m.listHoldingsFn(portfolioID)
	}
	return []models.Holding{}, nil
}

func (m *mockPortfolioService) OpenHolding(portfolioID, instrumentID string, qty decimal.Decimal, acquired *time.Time, price decimal.NullDecimal) (*models.Holding, error) {
	if m.openHoldingFn != nil {
		return m.openHoldingFn(portfolioID, instrumentID, qty, acquired, price)
	}
	return &models.Holding{}, nil
}

func (m *mockPortfolioService) GetSnapshot(portfolioID string, date time.Time) ([]models.PortfolioValueDaily, error) {
	if m.getSnapshotFn != nil {
		return m.getSnapshotFn(portfolioID, date)
	}
	return nil, nil
}

func (m *mockPortfolioService) GetSummary(portfolioID string, date time.Time) (*services.PortfolioSummary, error) {
	if m.getSummaryFn != nil {
		return m.getSummaryFn(portfolioID, date)
	}
	return &services.PortfolioSummary{}, nil
}

func (m *mockPortfolioService) GetHistory(portfolioID string, from, to time.Time) ([]services.PortfolioHistoryPoint, error) {
	if m.getHistoryFn != nil {
		return m.getHistoryFn(portfolioID, from, to)
	}
	return nil, nil
}

// --- mock transaction service ---

type mockTransactionService struct {
	recordTransactionFn func(in services.TransactionInput) (*models.Transaction, *models.Holding, error)
	getTransactionFn    func(id string) (*models.Transaction, error)
}

var _ services.TransactionServicer = (*mockTransactionService)(nil)

func (m *mockTransactionService) RecordTransaction(in services.TransactionInput) (*models.Transaction, *models.Holding, error) {
	if m.recordTransactionFn != nil {
		return m.recordTransactionFn(in)
	}
	return &models.Transaction{}, &models.Holding{}, nil
}

func (m *mockTransactionService) GetTransactionByID(id string) (*models.Transaction, error) {
	if m.getTransactionFn != nil {
		return m.getTransactionFn(id)
	}
	return &models.Transaction{}, nil
}

func (m *mockTransactionService) ListTransactions(_ string, _ pagination.PageRequest) (*pagination.PageResponse[models.Transaction], error) {
	resp := pagination.NewPageResponse([]models.Transaction{}, 1, 20, 0)
	return &resp, nil
}

// --- mock price service ---

type mockPriceService struct {
	recordPricesFn    func(ctx context.Context, prices []services.PriceInput) (*services.BatchResult, error)
	setManualPriceFn  func(ctx context.Context, instrumentID string, date time.Time, price decimal.Decimal, currency, reason, createdBy string) (*models.ManualPrice, error)
	deleteManualFn    func(id string) error
	getPriceHistoryFn func(instrumentID string, from, to time.Time, page pagination.PageRequest) (*pagination.PageResponse[models.Price], error)
	resolvePriceFn    func(ctx context.Context, instrumentID string, date time.Time) (*pricing.Quote, error)
}

var _ services.PriceServicer = (*mockPriceService)(nil)

func (m *mockPriceService) RecordPrices(ctx context.Context, prices []services.PriceInput) (*services.BatchResult, error) {
	if m.recordPricesFn != nil {
		return m.recordPricesFn(ctx, prices)
	}
	return services.NewBatchResult(), nil
}

func (m *mockPriceService) SetManualPrice(ctx context.Context, instrumentID string, date time.Time, price decimal.Decimal, currency, reason, createdBy string) (*models.ManualPrice, error) {
	if m.setManualPriceFn != nil {
		return m.setManualPriceFn(ctx, instrumentID, date, price, currency, reason, createdBy)
	}
	return &models.ManualPrice{}, nil
}

func (m *mockPriceService) ListManualPrices(_ string, _ pagination.PageRequest) (*pagination.PageResponse[models.ManualPrice], error) {
	resp := pagination.NewPageResponse([]models.ManualPrice{}, 1, 20, 0)
	return &resp, nil
}

func (m *mockPriceService) DeleteManualPrice(id string) error {
	if m.deleteManualFn != nil {
		return m.deleteManualFn(id)
	}
	return nil
}

func (m *mockPriceService) GetPriceHistory(instrumentID string, from, to time.Time, page pagination.PageRequest) (*pagination.PageResponse[models.Price], error) {
	if m.getPriceHistoryFn != nil {
		return m.getPriceHistoryFn(instrumentID, from, to, page)
	}
	resp := pagination.NewPageResponse([]models.Price{}, 1, 20, 0)
	return &resp, nil
}

func (m *mockPriceService) ResolvePrice(ctx context.Context, instrumentID string, date time.Time) (*pricing.Quote, error) {
	if m.resolvePriceFn != nil {
		return m.resolvePriceFn(ctx, instrumentID, date)
	}
	return &pricing.Quote{}, nil
}

// --- mock fx service ---

type mockFxRateService struct {
	recordRatesFn func(ctx context.Context, rates []services.FxRateInput) (*services.BatchResult, error)
	resolveRateFn func(ctx context.Context, base, target string, date time.Time) (decimal.Decimal, error)
}

var _ services.FxRateServicer = (*mockFxRateService)(nil)

func (m *mockFxRateService) RecordRates(ctx context.Context, rates []services.FxRateInput) (*services.BatchResult, error) {
	if m.recordRatesFn != nil {
		return m.recordRatesFn(ctx, rates)
	}
	return services.NewBatchResult(), nil
}

func (m *mockFxRateService) GetRateHistory(_, _ string, _, _ time.Time, _ pagination.PageRequest) (*pagination.PageResponse[models.FxRate], error) {
	resp := pagination.NewPageResponse([]models.FxRate{}, 1, 20, 0)
	return &resp, nil
}

func (m *mockFxRateService) ResolveRate(ctx context.Context, base, target string, date time.Time) (decimal.Decimal, error) {
	if m.resolveRateFn != nil {
		return m.resolveRateFn(ctx, base, target, date)
	}
	return decimal.NewFromInt(1), nil
}

// --- mock valuation service ---

type mockValuationService struct {
	valuePortfolioFn func(ctx context.Context, portfolioID string, date time.Time) (*services.BatchResult, error)
	valueAllFn       func(ctx context.Context, date time.Time) (*services.BatchResult, error)
}

var _ services.ValuationServicer = (*mockValuationService)(nil)

func (m *mockValuationService) ValuePortfolio(ctx context.Context, portfolioID string, date time.Time) (*services.BatchResult, error) {
	if m.valuePortfolioFn != nil {
		return m.valuePortfolioFn(ctx, portfolioID, date)
	}
	return services.NewBatchResult(), nil
}

func (m *mockValuationService) ValueAll(ctx context.Context, date time.Time) (*services.BatchResult, error) {
	if m.valueAllFn != nil {
		return m.valueAllFn(ctx, date)
	}
	return services.NewBatchResult(), nil
}

// --- mock wealth service ---

type mockWealthService struct {
	createCategoryFn     func(t models.CategoryType, name, currency string, isLiability bool) (*models.WealthCategory, error)
	deleteCategoryFn     func(id string) error
	upsertValueFn        func(ctx context.Context, categoryID string, date time.Time, value decimal.Decimal, note string) (*models.WealthValue, error)
	listValuesFn         func(date time.Time, categoryType string) ([]services.WealthValueView, error)
	valueDatesFn         func() ([]time.Time, error)
	computeTotalWealthFn func(ctx context.Context, date time.Time) (*services.WealthBreakdown, error)
	aggregateSnapshotFn  func(ctx context.Context, date time.Time) (*models.TotalWealthSnapshot, *services.BatchResult, error)
	getSnapshotFn        func(date time.Time) (*models.TotalWealthSnapshot, error)
	getYoYChangeFn       func(date time.Time) (*services.YoYChange, error)
}

var _ services.WealthServicer = (*mockWealthService)(nil)

func (m *mockWealthService) CreateCategory(t models.CategoryType, name, currency string, isLiability bool) (*models.WealthCategory, error) {
	if m.createCategoryFn != nil {
		return m.createCategoryFn(t, name, currency, isLiability)
	}
	return &models.WealthCategory{}, nil
}

func (m *mockWealthService) ListCategories(_ string) ([]models.WealthCategory, error) {
	return nil, nil
}

func (m *mockWealthService) GetCategory(_ string) (*models.WealthCategory, error) {
	return &models.WealthCategory{}, nil
}

func (m *mockWealthService) UpdateCategory(_ string, _ services.CategoryUpdate) (*models.WealthCategory, error) {
	return &models.WealthCategory{}, nil
}

func (m *mockWealthService) DeleteCategory(id string) error {
	if m.deleteCategoryFn != nil {
		return m.deleteCategoryFn(id)
	}
	return nil
}

func (m *mockWealthService) UpsertValue(ctx context.Context, categoryID string, date time.Time, value decimal.Decimal, note string) (*models.WealthValue, error) {
	if m.upsertValueFn != nil {
		return m.upsertValueFn(ctx, categoryID, date, value, note)
	}
	return &models.WealthValue{}, nil
}

func (m *mockWealthService) ListValues(date time.Time, categoryType string) ([]services.WealthValueView, error) {
	if m.listValuesFn != nil {
		return m.listValuesFn(date, categoryType)
	}
	return nil, nil
}

func (m *mockWealthService) GetValueHistory(_ string, _, _ time.Time) ([]models.WealthValue, error) {
	return nil, nil
}

func (m *mockWealthService) DeleteValue(_ string) error {
	return nil
}

func (m *mockWealthService) ValueDates() ([]time.Time, error) {
	if m.valueDatesFn != nil {
		return m.valueDatesFn()
	}
	return nil, nil
}

func (m *mockWealthService) ComputeTotalWealth(ctx context.Context, date time.Time) (*services.WealthBreakdown, error) {
	if m.computeTotalWealthFn != nil {
		return m.computeTotalWealthFn(ctx, date)
	}
	return &services.WealthBreakdown{}, nil
}

func (m *mockWealthService) AggregateSnapshot(ctx context.Context, date time.Time) (*models.TotalWealthSnapshot, *services.BatchResult, error) {
	if m.aggregateSnapshotFn != nil {
		return m.aggregateSnapshotFn(ctx, date)
	}
	return &models.TotalWealthSnapshot{SnapshotDate: date}, services.NewBatchResult(), nil
}

func (m *mockWealthService) GetSnapshot(date time.Time) (*models.TotalWealthSnapshot, error) {
	if m.getSnapshotFn != nil {
		return m.getSnapshotFn(date)
	}
	return &models.TotalWealthSnapshot{SnapshotDate: date}, nil
}

func (m *mockWealthService) ListSnapshots(_, _ time.Time, _ pagination.PageRequest) (*pagination.PageResponse[models.TotalWealthSnapshot], error) {
	resp := pagination.NewPageResponse([]models.TotalWealthSnapshot{}, 1, 20, 0)
	return &resp, nil
}

func (m *mockWealthService) GetYoYChange(date time.Time) (*services.YoYChange, error) {
	if m.getYoYChangeFn != nil {
		return m.getYoYChangeFn(date)
	}
	return &services.YoYChange{}, nil
}

// --- mock pipeline services ---

type mockPipelineService struct {
	dailyCloseFn  func(ctx context.Context, date time.Time) (*services.DailyCloseResult, error)
	backfillFn    func(ctx context.Context, from, to time.Time) (*services.BackfillResult, error)
	wealthDatesFn func(ctx context.Context) (*services.BackfillResult, error)
}

var _ services.PipelineServicer = (*mockPipelineService)(nil)

func (m *mockPipelineService) DailyClose(ctx context.Context, date time.Time) (*services.DailyCloseResult, error) {
	if m.dailyCloseFn != nil {
		return m.dailyCloseFn(ctx, date)
	}
	return &services.DailyCloseResult{}, nil
}

func (m *mockPipelineService) Backfill(ctx context.Context, from, to time.Time) (*services.BackfillResult, error) {
	if m.backfillFn != nil {
		return m.backfillFn(ctx, from, to)
	}
	return &services.BackfillResult{}, nil
}

func (m *mockPipelineService) BackfillWealthDates(ctx context.Context) (*services.BackfillResult, error) {
	if m.wealthDatesFn != nil {
		return m.wealthDatesFn(ctx)
	}
	return &services.BackfillResult{}, nil
}

type mockLoanReductionService struct {
	applyFn func(ctx context.Context, date time.Time, reductions []services.LoanReduction) (*services.BatchResult, error)
}

var _ services.LoanReductionServicer = (*mockLoanReductionService)(nil)

func (m *mockLoanReductionService) ApplyLoanReductions(ctx context.Context, date time.Time, reductions []services.LoanReduction) (*services.BatchResult, error) {
	if m.applyFn != nil {
		return m.applyFn(ctx, date, reductions)
	}
	return services.NewBatchResult(), nil
}
