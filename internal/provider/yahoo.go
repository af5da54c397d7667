package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"wealthbook/internal/dates"
)

const yahooBaseURL = "https://query1.finance.yahoo.com/v8/finance/chart"

// SourceYahoo is the price source recorded for Yahoo Finance quotes.
const SourceYahoo = "yahoo"

// exchangeSuffixes maps instrument source codes to Yahoo Finance ticker suffixes.
var exchangeSuffixes = map[string]string{
	"bse":      ".BD", // Budapest
	"bet":      ".BD",
	"xetra":    ".DE",
	"fra":      ".F",
	"lse":      ".L",
	"six":      ".SW",
	"euronext": ".PA",
	"wse":      ".WA",
	"pse":      ".PR",
	"vse":      ".VI",
}

type yahooChartResponse struct {
	Chart struct {
		Result []struct {
			Meta struct {
				Symbol             string  `json:"symbol"`
				Currency           string  `json:"currency"`
				RegularMarketPrice float64 `json:"regularMarketPrice"`
				RegularMarketTime  int64   `json:"regularMarketTime"`
			} `json:"meta"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

// YahooProvider fetches prices from the Yahoo Finance chart API, one
// request per instrument.
type YahooProvider struct {
	options
	now func() time.Time
}

// NewYahooProvider creates a new Yahoo Finance price provider.
func NewYahooProvider(opts ...Option) *YahooProvider {
	return &YahooProvider{options: newOptions(yahooBaseURL, opts), now: time.Now}
}

// Name returns the provider's display name.
func (p *YahooProvider) Name() string { return "Yahoo Finance" }

// Supports returns true for equities and exchange-traded funds.
func (p *YahooProvider) Supports(instrumentType string) bool {
	switch instrumentType {
	case "equity", "fund":
		return true
	default:
		return false
	}
}

// yahooSymbol converts an instrument to a Yahoo ticker. A ticker that
// already carries a suffix is used as is.
func yahooSymbol(inst Instrument) string {
	if inst.Ticker == "" {
		return ""
	}
	if strings.Contains(inst.Ticker, ".") {
		return inst.Ticker
	}
	if suffix, ok := exchangeSuffixes[strings.ToLower(inst.Source)]; ok {
		return inst.Ticker + suffix
	}
	return inst.Ticker
}

// FetchPrices fetches current prices from Yahoo Finance.
func (p *YahooProvider) FetchPrices(ctx context.Context, instruments []Instrument) ([]PriceResult, []FetchError) {
	var results []PriceResult
	var fetchErrors []FetchError

	for _, inst := range instruments {
		symbol := yahooSymbol(inst)
		if symbol == "" {
			fetchErrors = append(fetchErrors, FetchError{InstrumentID: inst.ID, Symbol: inst.ISIN, Err: fmt.Errorf("no ticker")})
			continue
		}

		res, err := p.fetchOne(ctx, inst, symbol)
		if err != nil {
			fetchErrors = append(fetchErrors, FetchError{InstrumentID: inst.ID, Symbol: symbol, Err: err})
			if ctx.Err() != nil {
				break
			}
			continue
		}
		results = append(results, *res)
	}

	return results, fetchErrors
}

func (p *YahooProvider) fetchOne(ctx context.Context, inst Instrument, symbol string) (*PriceResult, error) {
	resp, err := p.get(ctx, p.baseURL+"/"+symbol+"?interval=1d&range=1d")
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	var chart yahooChartResponse
	if err := json.NewDecoder(resp.Body).Decode(&chart); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}
	if chart.Chart.Error != nil {
		return nil, fmt.Errorf("chart error: %s: %s", chart.Chart.Error.Code, chart.Chart.Error.Description)
	}
	if len(chart.Chart.Result) == 0 {
		return nil, fmt.Errorf("symbol %s not found in response", symbol)
	}

	meta := chart.Chart.Result[0].Meta
	if meta.RegularMarketPrice <= 0 {
		return nil, fmt.Errorf("invalid price %v for %s", meta.RegularMarketPrice, symbol)
	}

	price := decimal.NewFromFloat(meta.RegularMarketPrice)
	currency := meta.Currency
	if currency == "GBp" {
		price = price.Div(decimal.NewFromInt(100))
		currency = "GBP"
	}
	currency = strings.ToUpper(currency)
	if currency == "" {
		currency = inst.Currency
	}

	date := dates.Day(p.now())
	if meta.RegularMarketTime > 0 {
		date = dates.Day(time.Unix(meta.RegularMarketTime, 0))
	}

	return &PriceResult{
		InstrumentID: inst.ID,
		Price:        price,
		Currency:     currency,
		Date:         date,
		Source:       SourceYahoo,
	}, nil
}
