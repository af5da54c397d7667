// Package client provides an HTTP client for the wealthbook pipeline API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/shopspring/decimal"
)

// Instrument represents a tracked instrument returned by the pipeline API.
type Instrument struct {
	ID             string `json:"id"`
	ISIN           string `json:"isin"`
	Name           string `json:"name"`
	Currency       string `json:"currency"`
	InstrumentType string `json:"instrument_type"`
	Ticker         string `json:"ticker"`
	Source         string `json:"source"`
}

// PriceEntry is a single market price to submit.
type PriceEntry struct {
	InstrumentID string          `json:"instrument_id"`
	PriceDate    string          `json:"price_date"` // YYYY-MM-DD
	Price        decimal.Decimal `json:"price"`
	Currency     string          `json:"currency"`
	Source       string          `json:"source"`
}

// RateEntry is a single FX rate to submit.
type RateEntry struct {
	BaseCurrency   string          `json:"base_currency"`
	TargetCurrency string          `json:"target_currency"`
	RateDate       string          `json:"rate_date"` // YYYY-MM-DD
	Rate           decimal.Decimal `json:"rate"`
	Source         string          `json:"source"`
}

// Issue explains why one item of a batch was not written.
type Issue struct {
	Key     string `json:"key"`
	Code    string `json:"code"`
	Reason  string `json:"reason"`
	Outcome string `json:"outcome"`
}

// BatchResult is the server's account of a batch write.
type BatchResult struct {
	Succeeded int     `json:"succeeded"`
	Skipped   int     `json:"skipped"`
	Failed    int     `json:"failed"`
	Issues    []Issue `json:"issues"`
}

// SnapshotResult is the response of a wealth snapshot run.
type SnapshotResult struct {
	Snapshot struct {
		SnapshotDate string          `json:"snapshot_date"`
		NetWealthHUF decimal.Decimal `json:"net_wealth_huf"`
	} `json:"snapshot"`
	Result *BatchResult `json:"result"`
}

// DailyCloseResult is the response of a daily close run.
type DailyCloseResult struct {
	Date      string       `json:"date"`
	Valuation *BatchResult `json:"valuation"`
	Wealth    *BatchResult `json:"wealth"`
}

// APIError is a non-2xx response from the API.
type APIError struct {
	Status  int
	Code    string
	Message string
}

func (e *APIError) Error() string {
	if e.Code == "" {
		return fmt.Sprintf("unexpected status %d", e.Status)
	}
	return fmt.Sprintf("unexpected status %d: %s: %s", e.Status, e.Code, e.Message)
}

// WealthbookClient communicates with the wealthbook pipeline API.
type WealthbookClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewWealthbookClient creates a new pipeline API client.
func NewWealthbookClient(baseURL, apiKey string, httpClient *http.Client) *WealthbookClient {
	return &WealthbookClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: httpClient,
	}
}

// GetInstruments fetches every instrument with an open holding.
func (c *WealthbookClient) GetInstruments(ctx context.Context) ([]Instrument, error) {
	var result struct {
		Instruments []Instrument `json:"instruments"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/v1/pipeline/instruments", nil, &result); err != nil {
		return nil, fmt.Errorf("fetching instruments: %w", err)
	}
	return result.Instruments, nil
}

// RecordPrices submits market prices.
func (c *WealthbookClient) RecordPrices(ctx context.Context, prices []PriceEntry) (*BatchResult, error) {
	body := struct {
		Prices []PriceEntry `json:"prices"`
	}{Prices: prices}

	var result BatchResult
	if err := c.do(ctx, http.MethodPost, "/api/v1/pipeline/prices", body, &result); err != nil {
		return nil, fmt.Errorf("recording prices: %w", err)
	}
	return &result, nil
}

// RecordRates submits FX rates.
func (c *WealthbookClient) RecordRates(ctx context.Context, rates []RateEntry) (*BatchResult, error) {
	body := struct {
		Rates []RateEntry `json:"rates"`
	}{Rates: rates}

	var result BatchResult
	if err := c.do(ctx, http.MethodPost, "/api/v1/pipeline/fx-rates", body, &result); err != nil {
		return nil, fmt.Errorf("recording rates: %w", err)
	}
	return &result, nil
}

type runRequest struct {
	Date string `json:"date,omitempty"`
}

// RunValuations values every portfolio on date (YYYY-MM-DD, empty for today).
func (c *WealthbookClient) RunValuations(ctx context.Context, date string) (*BatchResult, error) {
	var result BatchResult
	if err := c.do(ctx, http.MethodPost, "/api/v1/pipeline/valuations", runRequest{Date: date}, &result); err != nil {
		return nil, fmt.Errorf("running valuations: %w", err)
	}
	return &result, nil
}

// RunSnapshot computes the total wealth snapshot on date.
func (c *WealthbookClient) RunSnapshot(ctx context.Context, date string) (*SnapshotResult, error) {
	var result SnapshotResult
	if err := c.do(ctx, http.MethodPost, "/api/v1/pipeline/snapshots", runRequest{Date: date}, &result); err != nil {
		return nil, fmt.Errorf("computing snapshot: %w", err)
	}
	return &result, nil
}

// RunDailyClose runs valuations and the wealth snapshot for date.
func (c *WealthbookClient) RunDailyClose(ctx context.Context, date string) (*DailyCloseResult, error) {
	var result DailyCloseResult
	if err := c.do(ctx, http.MethodPost, "/api/v1/pipeline/daily", runRequest{Date: date}, &result); err != nil {
		return nil, fmt.Errorf("running daily close: %w", err)
	}
	return &result, nil
}

func (c *WealthbookClient) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshaling request: %w", err)
		}
		reader = bytes.NewReader(jsonBody)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("X-API-Key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		apiErr := &APIError{Status: resp.StatusCode}
		var envelope struct {
			Error struct {
				Code    string `json:"code"`
				Message string `json:"message"`
			} `json:"error"`
		}
		if json.NewDecoder(resp.Body).Decode(&envelope) == nil {
			apiErr.Code = envelope.Error.Code
			apiErr.Message = envelope.Error.Message
		}
		return apiErr
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}
