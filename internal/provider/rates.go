package provider

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/shopspring/decimal"

	"wealthbook/internal/dates"
)

// QuoteCurrency is the currency every fetched rate is expressed in.
const QuoteCurrency = "HUF"

const (
	exchangeRateAPIBaseURL = "https://api.exchangerate-api.com/v4"
	frankfurterBaseURL     = "https://api.frankfurter.app"

	SourceExchangeRateAPI = "exchangerate-api"
	SourceFrankfurter     = "frankfurter"

	ratePrecision = 8
)

// ErrLatestOnly is returned by providers that cannot serve historical dates.
var ErrLatestOnly = errors.New("provider serves latest rates only")

// ExchangeRateAPIProvider reads the latest HUF-based table and inverts it
// into HUF per unit of each currency.
type ExchangeRateAPIProvider struct {
	options
	now func() time.Time
}

// NewExchangeRateAPIProvider creates a provider for api.exchangerate-api.com.
func NewExchangeRateAPIProvider(opts ...Option) *ExchangeRateAPIProvider {
	return &ExchangeRateAPIProvider{options: newOptions(exchangeRateAPIBaseURL, opts), now: time.Now}
}

func (p *ExchangeRateAPIProvider) Name() string { return "ExchangeRate-API" }

type exchangeRateAPIResponse struct {
	Base  string             `json:"base"`
	Date  string             `json:"date"`
	Rates map[string]float64 `json:"rates"`
}

// FetchRates returns rates for date, which must be today.
func (p *ExchangeRateAPIProvider) FetchRates(ctx context.Context, date time.Time, currencies []string) ([]RateResult, error) {
	if !dates.Day(date).Equal(dates.Day(p.now().UTC())) {
		return nil, ErrLatestOnly
	}

	resp, err := p.get(ctx, p.baseURL+"/latest/"+QuoteCurrency)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	var table exchangeRateAPIResponse
	if err := json.NewDecoder(resp.Body).Decode(&table); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}

	one := decimal.NewFromInt(1)
	var results []RateResult
	for _, code := range currencies {
		perHUF, ok := table.Rates[code]
		if !ok || perHUF <= 0 {
			continue
		}
		results = append(results, RateResult{
			Base:   code,
			Target: QuoteCurrency,
			Rate:   one.DivRound(decimal.NewFromFloat(perHUF), ratePrecision),
			Date:   dates.Day(date),
			Source: SourceExchangeRateAPI,
		})
	}
	return results, nil
}

// FrankfurterProvider reads ECB reference rates, including historical ones.
type FrankfurterProvider struct {
	options
}

// NewFrankfurterProvider creates a provider for api.frankfurter.app.
func NewFrankfurterProvider(opts ...Option) *FrankfurterProvider {
	return &FrankfurterProvider{options: newOptions(frankfurterBaseURL, opts)}
}

func (p *FrankfurterProvider) Name() string { return "Frankfurter" }

type frankfurterResponse struct {
	Amount float64            `json:"amount"`
	Base   string             `json:"base"`
	Date   string             `json:"date"`
	Rates  map[string]float64 `json:"rates"`
}

// FetchRates issues one request per currency. The ECB publishes no rates
// on weekends; the most recent published rate is recorded for date.
func (p *FrankfurterProvider) FetchRates(ctx context.Context, date time.Time, currencies []string) ([]RateResult, error) {
	var results []RateResult
	var errs []error

	for _, code := range currencies {
		q := url.Values{}
		q.Set("from", code)
		q.Set("to", QuoteCurrency)

		rate, err := p.fetchOne(ctx, p.baseURL+"/"+dates.Format(date)+"?"+q.Encode())
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", code, err))
			if ctx.Err() != nil {
				break
			}
			continue
		}
		results = append(results, RateResult{
			Base:   code,
			Target: QuoteCurrency,
			Rate:   rate,
			Date:   dates.Day(date),
			Source: SourceFrankfurter,
		})
	}

	if len(results) == 0 && len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return results, nil
}

func (p *FrankfurterProvider) fetchOne(ctx context.Context, u string) (decimal.Decimal, error) {
	resp, err := p.get(ctx, u)
	if err != nil {
		return decimal.Zero, err
	}
	defer func() { _ = resp.Body.Close() }()

	var body frankfurterResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return decimal.Zero, fmt.Errorf("decoding response: %w", err)
	}
	r, ok := body.Rates[QuoteCurrency]
	if !ok || r <= 0 {
		return decimal.Zero, fmt.Errorf("no %s rate in response", QuoteCurrency)
	}
	amount := body.Amount
	if amount <= 0 {
		amount = 1
	}
	return decimal.NewFromFloat(r).DivRound(decimal.NewFromFloat(amount), ratePrecision), nil
}

// RateChain tries each provider in order until every currency has a rate.
// Results are cached per currency and date.
type RateChain struct {
	providers []RateProvider
	cache     *cache.Cache
}

// NewRateChain creates a chain over providers, caching results for ttl.
func NewRateChain(ttl time.Duration, providers ...RateProvider) *RateChain {
	return &RateChain{
		providers: providers,
		cache:     cache.New(ttl, 2*ttl),
	}
}

func (c *RateChain) Name() string {
	names := make([]string, len(c.providers))
	for i, p := range c.providers {
		names[i] = p.Name()
	}
	return strings.Join(names, " > ")
}

func rateCacheKey(code string, date time.Time) string {
	return code + "@" + dates.Format(date)
}

// FetchRates returns every rate it could obtain. The error lists the
// currencies no provider could serve.
func (c *RateChain) FetchRates(ctx context.Context, date time.Time, currencies []string) ([]RateResult, error) {
	var results []RateResult
	var pending []string
	for _, code := range currencies {
		if cached, ok := c.cache.Get(rateCacheKey(code, date)); ok {
			results = append(results, cached.(RateResult))
			continue
		}
		pending = append(pending, code)
	}

	var errs []error
	for _, p := range c.providers {
		if len(pending) == 0 {
			break
		}
		fetched, err := p.FetchRates(ctx, date, pending)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", p.Name(), err))
			if ctx.Err() != nil {
				break
			}
		}

		found := make(map[string]bool, len(fetched))
		for _, r := range fetched {
			c.cache.SetDefault(rateCacheKey(r.Base, date), r)
			results = append(results, r)
			found[r.Base] = true
		}
		var still []string
		for _, code := range pending {
			if !found[code] {
				still = append(still, code)
			}
		}
		pending = still
	}

	if len(pending) > 0 {
		errs = append(errs, fmt.Errorf("no rate for %s on %s", strings.Join(pending, ","), dates.Format(date)))
		return results, errors.Join(errs...)
	}
	return results, nil
}
