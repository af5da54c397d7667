package oracle

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"wealthbook/internal/client"
	"wealthbook/internal/config"
	"wealthbook/internal/provider"
)

// mockClient implements PipelineClient for testing.
type mockClient struct {
	mu sync.Mutex

	instruments []client.Instrument
	getErr      error
	recordErr   error
	closeErr    error

	prices     []client.PriceEntry
	rates      []client.RateEntry
	closeDates []string
}

func (m *mockClient) GetInstruments(_ context.Context) ([]client.Instrument, error) {
	return m.instruments, m.getErr
}

func (m *mockClient) RecordPrices(_ context.Context, prices []client.PriceEntry) (*client.BatchResult, error) {
	if m.recordErr != nil {
		return nil, m.recordErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.prices = prices
	return &client.BatchResult{Succeeded: len(prices)}, nil
}

func (m *mockClient) RecordRates(_ context.Context, rates []client.RateEntry) (*client.BatchResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rates = rates
	return &client.BatchResult{Succeeded: len(rates)}, nil
}

func (m *mockClient) RunDailyClose(_ context.Context, date string) (*client.DailyCloseResult, error) {
	m.closeDates = append(m.closeDates, date)
	if m.closeErr != nil {
		return nil, m.closeErr
	}
	return &client.DailyCloseResult{Date: date}, nil
}

// mockProvider implements provider.PriceProvider for testing.
type mockProvider struct {
	name     string
	types    []string
	price    decimal.Decimal
	currency string
	failIDs  map[string]bool
	seen     []string
}

func (m *mockProvider) Name() string { return m.name }

func (m *mockProvider) Supports(instrumentType string) bool {
	for _, t := range m.types {
		if t == instrumentType {
			return true
		}
	}
	return false
}

func (m *mockProvider) FetchPrices(_ context.Context, instruments []provider.Instrument) ([]provider.PriceResult, []provider.FetchError) {
	var results []provider.PriceResult
	var errs []provider.FetchError
	for _, inst := range instruments {
		m.seen = append(m.seen, inst.ID)
		if m.failIDs[inst.ID] {
			errs = append(errs, provider.FetchError{InstrumentID: inst.ID, Symbol: inst.Ticker, Err: errors.New("not found")})
			continue
		}
		results = append(results, provider.PriceResult{
			InstrumentID: inst.ID,
			Price:        m.price,
			Currency:     m.currency,
			Date:         time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC),
			Source:       m.name,
		})
	}
	return results, errs
}

// mockRates implements provider.RateProvider for testing.
type mockRates struct {
	requested []string
	err       error
}

func (m *mockRates) Name() string { return "mock-rates" }

func (m *mockRates) FetchRates(_ context.Context, date time.Time, currencies []string) ([]provider.RateResult, error) {
	m.requested = currencies
	var out []provider.RateResult
	for _, c := range currencies {
		if c == "CHF" {
			continue
		}
		out = append(out, provider.RateResult{Base: c, Target: "HUF", Rate: decimal.NewFromInt(400), Date: date, Source: "mock"})
	}
	return out, m.err
}

func testConfig(snapshots bool) *config.OracleConfig {
	return &config.OracleConfig{
		APIURL:           "http://localhost:8080",
		PipelineAPIKey:   "test-key",
		RequestTimeout:   30 * time.Second,
		ComputeSnapshots: snapshots,
		FXCurrencies:     []string{"EUR"},
	}
}

func newTestOracle(c PipelineClient, providers []provider.PriceProvider, rates provider.RateProvider, cfg *config.OracleConfig) *Oracle {
	o := NewOracle(c, providers, rates, cfg, zap.NewNop().Sugar())
	o.now = func() time.Time { return time.Date(2024, 3, 15, 17, 0, 0, 0, time.UTC) }
	return o
}

func TestOracle_Run_FullFlow(t *testing.T) {
	mc := &mockClient{
		instruments: []client.Instrument{
			{ID: "i-1", ISIN: "HU0000061726", Ticker: "OTP", Source: "bse", InstrumentType: "equity", Currency: "HUF"},
			{ID: "i-2", ISIN: "HU0000123096", Ticker: "RICHT", Source: "bse", InstrumentType: "equity", Currency: "HUF"},
			{ID: "i-3", ISIN: "IE00BFMXXD54", Ticker: "VUAA.L", InstrumentType: "fund", Currency: "USD"},
		},
	}
	yahoo := &mockProvider{name: "yahoo", types: []string{"equity", "fund"}, price: decimal.NewFromInt(100), currency: "HUF"}
	rates := &mockRates{}

	orc := newTestOracle(mc, []provider.PriceProvider{yahoo}, rates, testConfig(true))
	result, err := orc.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 3, result.InstrumentsFetched)
	assert.Equal(t, 3, result.PricesFetched)
	assert.Equal(t, 3, result.PricesRecorded)
	assert.Equal(t, 2, result.RatesRecorded)
	assert.Empty(t, result.Errors)
	assert.NoError(t, result.RateError)
	require.NotNil(t, result.DailyClose)
	assert.Equal(t, []string{"2024-03-15"}, mc.closeDates)
	assert.Positive(t, result.Duration)

	// Configured EUR plus the USD instrument; HUF is never requested.
	assert.Equal(t, []string{"EUR", "USD"}, rates.requested)

	require.Len(t, mc.prices, 3)
	assert.Equal(t, "2024-03-15", mc.prices[0].PriceDate)
	assert.True(t, mc.prices[0].Price.Equal(decimal.NewFromInt(100)))
	require.Len(t, mc.rates, 2)
	assert.Equal(t, "HUF", mc.rates[0].TargetCurrency)
}

func TestOracle_Run_GroupsByProvider(t *testing.T) {
	mc := &mockClient{
		instruments: []client.Instrument{
			{ID: "i-1", Ticker: "OTP", InstrumentType: "equity", Currency: "HUF"},
			{ID: "i-2", Ticker: "FUND", InstrumentType: "fund", Currency: "HUF"},
			{ID: "i-3", ISIN: "HU0000402037", InstrumentType: "bond", Currency: "HUF"},
		},
	}
	equities := &mockProvider{name: "equities", types: []string{"equity"}, price: decimal.NewFromInt(1), currency: "HUF"}
	funds := &mockProvider{name: "funds", types: []string{"fund", "equity"}, price: decimal.NewFromInt(2), currency: "HUF"}

	orc := newTestOracle(mc, []provider.PriceProvider{equities, funds}, nil, testConfig(false))
	result, err := orc.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{"i-1"}, equities.seen)
	assert.Equal(t, []string{"i-2"}, funds.seen)
	assert.Equal(t, 2, result.PricesRecorded)
	assert.Nil(t, result.DailyClose)
	assert.Empty(t, mc.closeDates)
}

func TestOracle_Run_PartialFailures(t *testing.T) {
	mc := &mockClient{
		instruments: []client.Instrument{
			{ID: "i-1", Ticker: "OTP", InstrumentType: "equity", Currency: "HUF"},
			{ID: "i-2", Ticker: "GONE", InstrumentType: "equity", Currency: "HUF"},
		},
	}
	yahoo := &mockProvider{name: "yahoo", types: []string{"equity"}, price: decimal.NewFromInt(1), currency: "HUF", failIDs: map[string]bool{"i-2": true}}
	cfg := testConfig(false)
	cfg.FXCurrencies = []string{"EUR", "CHF"}
	rates := &mockRates{err: errors.New("no rate for CHF")}

	orc := newTestOracle(mc, []provider.PriceProvider{yahoo}, rates, cfg)
	result, err := orc.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, result.PricesRecorded)
	require.Len(t, result.Errors, 1)
	assert.Equal(t, "i-2", result.Errors[0].InstrumentID)
	assert.Error(t, result.RateError)
	assert.Equal(t, 1, result.RatesRecorded)
}

func TestOracle_Run_NoInstrumentsStillRecordsRates(t *testing.T) {
	mc := &mockClient{}
	rates := &mockRates{}

	orc := newTestOracle(mc, nil, rates, testConfig(true))
	result, err := orc.Run(context.Background())
	require.NoError(t, err)

	assert.Zero(t, result.PricesRecorded)
	assert.Nil(t, mc.prices)
	assert.Equal(t, 1, result.RatesRecorded)
	assert.Len(t, mc.closeDates, 1)
}

func TestOracle_Run_Errors(t *testing.T) {
	t.Run("get_instruments_fails", func(t *testing.T) {
		mc := &mockClient{getErr: errors.New("connection refused")}

		_, err := newTestOracle(mc, nil, nil, testConfig(true)).Run(context.Background())

		assert.EqualError(t, err, "connection refused")
	})

	t.Run("record_prices_fails", func(t *testing.T) {
		mc := &mockClient{
			instruments: []client.Instrument{{ID: "i-1", Ticker: "OTP", InstrumentType: "equity", Currency: "HUF"}},
			recordErr:   errors.New("unexpected status 500"),
		}
		yahoo := &mockProvider{name: "yahoo", types: []string{"equity"}, price: decimal.NewFromInt(1), currency: "HUF"}

		_, err := newTestOracle(mc, []provider.PriceProvider{yahoo}, nil, testConfig(true)).Run(context.Background())

		assert.Error(t, err)
		assert.Empty(t, mc.closeDates)
	})

	t.Run("daily_close_failure_is_not_fatal", func(t *testing.T) {
		mc := &mockClient{closeErr: errors.New("timeout")}

		result, err := newTestOracle(mc, nil, nil, testConfig(true)).Run(context.Background())

		require.NoError(t, err)
		assert.Nil(t, result.DailyClose)
	})
}
