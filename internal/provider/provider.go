// Package provider fetches market prices and FX rates from external sources.
package provider

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/time/rate"
)

// Instrument is the subset of an instrument a price provider needs.
type Instrument struct {
	ID             string
	ISIN           string
	Ticker         string
	Source         string // exchange code, e.g. "bse"
	InstrumentType string
	Currency       string
}

// PriceResult is a successfully fetched price.
type PriceResult struct {
	InstrumentID string
	Price        decimal.Decimal
	Currency     string
	Date         time.Time
	Source       string
}

// FetchError is a failed price fetch for one instrument.
type FetchError struct {
	InstrumentID string
	Symbol       string
	Err          error
}

// Error implements the error interface.
func (e *FetchError) Error() string {
	return fmt.Sprintf("failed to fetch price for %s (ID %s): %v", e.Symbol, e.InstrumentID, e.Err)
}

// Unwrap returns the underlying error.
func (e *FetchError) Unwrap() error { return e.Err }

// PriceProvider fetches current market prices for a set of instruments.
type PriceProvider interface {
	// Name returns the provider's display name.
	Name() string

	// Supports reports whether this provider can price the instrument type.
	Supports(instrumentType string) bool

	// FetchPrices returns as many prices as possible plus one FetchError per
	// instrument that could not be priced.
	FetchPrices(ctx context.Context, instruments []Instrument) ([]PriceResult, []FetchError)
}

// RateResult is one FX rate: Rate units of Target per unit of Base.
type RateResult struct {
	Base   string
	Target string
	Rate   decimal.Decimal
	Date   time.Time
	Source string
}

// RateProvider fetches FX rates of currencies against a quote currency.
// Currencies it cannot serve are simply missing from the result.
type RateProvider interface {
	Name() string
	FetchRates(ctx context.Context, date time.Time, currencies []string) ([]RateResult, error)
}

const (
	defaultTimeout   = 10 * time.Second
	defaultRateLimit = 2 // requests per second
	userAgent        = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36"
)

type options struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
}

// Option configures a provider.
type Option func(*options)

// WithBaseURL overrides the provider endpoint.
func WithBaseURL(baseURL string) Option {
	return func(o *options) {
		o.baseURL = baseURL
	}
}

// WithHTTPClient sets the HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(o *options) {
		o.httpClient = c
	}
}

// WithRateLimit caps outgoing requests per second.
func WithRateLimit(requestsPerSecond float64) Option {
	return func(o *options) {
		burst := int(requestsPerSecond)
		if burst < 1 {
			burst = 1
		}
		o.limiter = rate.NewLimiter(rate.Limit(requestsPerSecond), burst)
	}
}

func newOptions(baseURL string, opts []Option) options {
	o := options{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: defaultTimeout},
		limiter:    rate.NewLimiter(rate.Limit(defaultRateLimit), defaultRateLimit),
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// get performs a rate-limited GET and returns the response for status 200.
func (o *options) get(ctx context.Context, url string) (*http.Response, error) {
	if err := o.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := o.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http request: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		_ = resp.Body.Close()
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return resp, nil
}
