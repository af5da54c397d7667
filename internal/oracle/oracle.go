// Package oracle orchestrates fetching prices and FX rates from providers and
// pushing them to the wealthbook pipeline API.
package oracle

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"wealthbook/internal/client"
	"wealthbook/internal/config"
	"wealthbook/internal/dates"
	"wealthbook/internal/provider"
)

// PipelineClient defines the wealthbook API operations needed by the oracle.
type PipelineClient interface {
	GetInstruments(ctx context.Context) ([]client.Instrument, error)
	RecordPrices(ctx context.Context, prices []client.PriceEntry) (*client.BatchResult, error)
	RecordRates(ctx context.Context, rates []client.RateEntry) (*client.BatchResult, error)
	RunDailyClose(ctx context.Context, date string) (*client.DailyCloseResult, error)
}

// RunResult contains the outcome of an oracle run.
type RunResult struct {
	Date               time.Time
	InstrumentsFetched int
	PricesFetched      int
	PricesRecorded     int
	RatesRecorded      int
	DailyClose         *client.DailyCloseResult
	Errors             []provider.FetchError
	RateError          error
	Issues             []client.Issue
	Duration           time.Duration
}

// Oracle fetches market data from external providers and records it via the
// pipeline API.
type Oracle struct {
	client    PipelineClient
	providers []provider.PriceProvider
	rates     provider.RateProvider
	config    *config.OracleConfig
	logger    *zap.SugaredLogger
	now       func() time.Time
}

// NewOracle creates a new Oracle instance. rates may be nil to skip FX.
func NewOracle(c PipelineClient, providers []provider.PriceProvider, rates provider.RateProvider, cfg *config.OracleConfig, logger *zap.SugaredLogger) *Oracle {
	return &Oracle{
		client:    c,
		providers: providers,
		rates:     rates,
		config:    cfg,
		logger:    logger,
		now:       time.Now,
	}
}

// Run executes a single oracle cycle: fetch instruments, fetch prices and
// rates, record them, then optionally trigger the daily close.
func (o *Oracle) Run(ctx context.Context) (*RunResult, error) {
	start := time.Now()
	today := dates.Day(o.now().UTC())
	result := &RunResult{Date: today}

	// 1. Fetch tracked instruments.
	instruments, err := o.client.GetInstruments(ctx)
	if err != nil {
		return nil, err
	}
	result.InstrumentsFetched = len(instruments)

	// 2. Fetch prices from each provider concurrently.
	prices := o.fetchPrices(ctx, instruments, result)
	result.PricesFetched = len(prices)

	// 3. Fetch FX rates for configured currencies plus every non-HUF
	// currency seen on instruments and prices.
	currencies := o.rateCurrencies(instruments, prices)
	if o.rates != nil && len(currencies) > 0 {
		rates, err := o.rates.FetchRates(ctx, today, currencies)
		if err != nil {
			o.logger.Warnw("fx rate fetch incomplete", "provider", o.rates.Name(), "error", err)
			result.RateError = err
		}
		if len(rates) > 0 {
			entries := make([]client.RateEntry, len(rates))
			for i, r := range rates {
				entries[i] = client.RateEntry{
					BaseCurrency:   r.Base,
					TargetCurrency: r.Target,
					RateDate:       dates.Format(r.Date),
					Rate:           r.Rate,
					Source:         r.Source,
				}
			}
			recorded, err := o.client.RecordRates(ctx, entries)
			if err != nil {
				return nil, err
			}
			result.RatesRecorded = recorded.Succeeded
			result.Issues = append(result.Issues, recorded.Issues...)
		}
	}

	// 4. Record prices.
	if len(prices) > 0 {
		entries := make([]client.PriceEntry, len(prices))
		for i, p := range prices {
			entries[i] = client.PriceEntry{
				InstrumentID: p.InstrumentID,
				PriceDate:    dates.Format(p.Date),
				Price:        p.Price,
				Currency:     p.Currency,
				Source:       p.Source,
			}
		}
		recorded, err := o.client.RecordPrices(ctx, entries)
		if err != nil {
			return nil, err
		}
		result.PricesRecorded = recorded.Succeeded
		result.Issues = append(result.Issues, recorded.Issues...)
	} else {
		o.logger.Info("no prices fetched")
	}

	// 5. Trigger the daily close if configured.
	if o.config.ComputeSnapshots {
		closeResult, err := o.client.RunDailyClose(ctx, dates.Format(today))
		if err != nil {
			o.logger.Warnw("failed to run daily close", "error", err)
		} else {
			result.DailyClose = closeResult
		}
	}

	result.Duration = time.Since(start)
	return result, nil
}

func (o *Oracle) fetchPrices(ctx context.Context, instruments []client.Instrument, result *RunResult) []provider.PriceResult {
	groups := make(map[int][]provider.Instrument) // provider index -> instruments
	for _, inst := range instruments {
		pi := provider.Instrument{
			ID:             inst.ID,
			ISIN:           inst.ISIN,
			Ticker:         inst.Ticker,
			Source:         inst.Source,
			InstrumentType: inst.InstrumentType,
			Currency:       inst.Currency,
		}
		matched := false
		for i, p := range o.providers {
			if p.Supports(pi.InstrumentType) {
				groups[i] = append(groups[i], pi)
				matched = true
				break
			}
		}
		if !matched {
			o.logger.Warnw("no provider supports instrument type", "isin", inst.ISIN, "instrument_type", inst.InstrumentType)
		}
	}

	var mu sync.Mutex
	var all []provider.PriceResult

	var wg sync.WaitGroup
	for i, insts := range groups {
		wg.Add(1)
		go func(p provider.PriceProvider, insts []provider.Instrument) {
			defer wg.Done()
			o.logger.Infow("fetching prices", "provider", p.Name(), "count", len(insts))
			prices, fetchErrors := p.FetchPrices(ctx, insts)
			for _, fe := range fetchErrors {
				o.logger.Warnw("price fetch failed", "provider", p.Name(), "instrument_id", fe.InstrumentID, "symbol", fe.Symbol, "error", fe.Err)
			}
			mu.Lock()
			all = append(all, prices...)
			result.Errors = append(result.Errors, fetchErrors...)
			mu.Unlock()
		}(o.providers[i], insts)
	}
	wg.Wait()

	return all
}

func (o *Oracle) rateCurrencies(instruments []client.Instrument, prices []provider.PriceResult) []string {
	set := make(map[string]bool)
	add := func(code string) {
		code = strings.ToUpper(code)
		if code != "" && code != provider.QuoteCurrency {
			set[code] = true
		}
	}
	for _, c := range o.config.FXCurrencies {
		add(c)
	}
	for _, inst := range instruments {
		add(inst.Currency)
	}
	for _, p := range prices {
		add(p.Currency)
	}

	out := make([]string, 0, len(set))
	for c := range set {
		out = append(out, c)
	}
	sort.Strings(out)
	return out
}
