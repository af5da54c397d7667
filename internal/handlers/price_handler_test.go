package handlers

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	apperrors "wealthbook/internal/errors"
	"wealthbook/internal/models"
	"wealthbook/internal/pricing"
	"wealthbook/internal/services"
)

func setupPriceRouter(prices *PriceHandler, fx *FxRateHandler) *gin.Engine {
	r := gin.New()
	r.POST("/pipeline/prices", prices.RecordPrices)
	r.POST("/pipeline/fx-rates", fx.RecordRates)
	auth := r.Group("", injectOwner("anna"))
	auth.PUT("/instruments/:id/manual-prices", prices.SetManualPrice)
	auth.GET("/instruments/:id/manual-prices", prices.ListManualPrices)
	auth.DELETE("/manual-prices/:id", prices.DeleteManualPrice)
	auth.GET("/instruments/:id/prices", prices.GetPriceHistory)
	auth.GET("/instruments/:id/price", prices.ResolvePrice)
	auth.GET("/fx-rates/:base/:target", fx.GetRateHistory)
	auth.GET("/fx-rates/:base/:target/resolve", fx.ResolveRate)
	return r
}

func TestPriceHandler_RecordPrices(t *testing.T) {
	t.Run("returns_batch_result", func(t *testing.T) {
		var got []services.PriceInput
		svc := &mockPriceService{
			recordPricesFn: func(_ context.Context, prices []services.PriceInput) (*services.BatchResult, error) {
				got = prices
				res := services.NewBatchResult()
				res.Succeed()
				res.Record(prices[1].InstrumentID, apperrors.ErrInstrumentNotFound)
				return res, nil
			},
		}
		r := setupPriceRouter(NewPriceHandler(svc), NewFxRateHandler(&mockFxRateService{}))

		rec := doRequest(r, "POST", "/pipeline/prices", `{"prices":[
			{"instrument_id":"`+testInstrumentID+`","price_date":"2024-01-15","price":"5.25","currency":"USD","source":"Yahoo"},
			{"instrument_id":"`+testPortfolioID+`","price_date":"2024-01-15","price":1,"currency":"HUF","source":"bse"}]}`)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		if len(got) != 2 || got[0].Source != "yahoo" || !got[0].Price.Equal(decimal.RequireFromString("5.25")) {
			t.Errorf("unexpected inputs %+v", got)
		}
		result := parseJSON(t, rec)
		if result["succeeded"].(float64) != 1 || result["failed"].(float64) != 1 {
			t.Errorf("unexpected counts %v", result)
		}
	})

	t.Run("returns_400_empty_batch", func(t *testing.T) {
		r := setupPriceRouter(NewPriceHandler(&mockPriceService{}), NewFxRateHandler(&mockFxRateService{}))

		rec := doRequest(r, "POST", "/pipeline/prices", `{"prices":[]}`)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})

	t.Run("returns_400_bad_date", func(t *testing.T) {
		r := setupPriceRouter(NewPriceHandler(&mockPriceService{}), NewFxRateHandler(&mockFxRateService{}))

		rec := doRequest(r, "POST", "/pipeline/prices",
			`{"prices":[{"instrument_id":"`+testInstrumentID+`","price_date":"15.01.2024","price":"1","currency":"HUF","source":"bse"}]}`)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})
}

func TestPriceHandler_SetManualPrice(t *testing.T) {
	t.Run("defaults_date_and_records_owner", func(t *testing.T) {
		var gotBy string
		var gotDate time.Time
		svc := &mockPriceService{
			setManualPriceFn: func(_ context.Context, id string, date time.Time, price decimal.Decimal, currency, reason, by string) (*models.ManualPrice, error) {
				gotBy, gotDate = by, date
				return &models.ManualPrice{InstrumentID: id, OverrideDate: date, Price: price, Currency: "HUF", Reason: reason}, nil
			},
		}
		r := setupPriceRouter(NewPriceHandler(svc), NewFxRateHandler(&mockFxRateService{}))

		rec := doRequest(r, "PUT", "/instruments/"+testInstrumentID+"/manual-prices", `{"price":"11529.15","reason":"broker statement"}`)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		if gotBy != "anna" || gotDate.IsZero() {
			t.Errorf("unexpected owner %q or date %v", gotBy, gotDate)
		}
	})

	t.Run("returns_400_non_positive_price", func(t *testing.T) {
		r := setupPriceRouter(NewPriceHandler(&mockPriceService{}), NewFxRateHandler(&mockFxRateService{}))

		for _, body := range []string{`{"price":"0"}`, `{"price":"-3"}`, `{}`} {
			rec := doRequest(r, "PUT", "/instruments/"+testInstrumentID+"/manual-prices", body)
			if rec.Code != http.StatusBadRequest {
				t.Errorf("%s: expected 400, got %d", body, rec.Code)
			}
		}
	})

	t.Run("returns_422_currency_mismatch", func(t *testing.T) {
		svc := &mockPriceService{
			setManualPriceFn: func(_ context.Context, _ string, _ time.Time, _ decimal.Decimal, _, _, _ string) (*models.ManualPrice, error) {
				return nil, apperrors.WithMessage(apperrors.ErrInvariantViolation, "currency mismatch")
			},
		}
		r := setupPriceRouter(NewPriceHandler(svc), NewFxRateHandler(&mockFxRateService{}))

		rec := doRequest(r, "PUT", "/instruments/"+testInstrumentID+"/manual-prices", `{"price":"1","currency":"EUR"}`)

		if rec.Code != http.StatusUnprocessableEntity {
			t.Fatalf("expected 422, got %d", rec.Code)
		}
	})
}

func TestPriceHandler_DeleteManualPrice(t *testing.T) {
	svc := &mockPriceService{
		deleteManualFn: func(_ string) error {
			return apperrors.WithMessage(apperrors.ErrNotFound, "manual price not found")
		},
	}
	r := setupPriceRouter(NewPriceHandler(svc), NewFxRateHandler(&mockFxRateService{}))

	rec := doRequest(r, "DELETE", "/manual-prices/"+testInstrumentID, "")

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestPriceHandler_ResolvePrice(t *testing.T) {
	t.Run("returns_quote", func(t *testing.T) {
		svc := &mockPriceService{
			resolvePriceFn: func(_ context.Context, id string, date time.Time) (*pricing.Quote, error) {
				return &pricing.Quote{
					InstrumentID: id, Price: decimal.RequireFromString("11529.15"), Currency: "HUF",
					Date: day("2024-01-10"), Source: "bse", Tier: "market",
				}, nil
			},
		}
		r := setupPriceRouter(NewPriceHandler(svc), NewFxRateHandler(&mockFxRateService{}))

		rec := doRequest(r, "GET", "/instruments/"+testInstrumentID+"/price?date=2024-01-15", "")

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		quote := parseJSON(t, rec)["quote"].(map[string]interface{})
		if quote["price"] != "11529.15" || quote["tier"] != "market" {
			t.Errorf("unexpected quote %v", quote)
		}
	})

	t.Run("returns_404_missing_price", func(t *testing.T) {
		svc := &mockPriceService{
			resolvePriceFn: func(_ context.Context, _ string, _ time.Time) (*pricing.Quote, error) {
				return nil, apperrors.Wrap(apperrors.ErrMissingPrice, pricing.ErrNoPrice)
			},
		}
		r := setupPriceRouter(NewPriceHandler(svc), NewFxRateHandler(&mockFxRateService{}))

		rec := doRequest(r, "GET", "/instruments/"+testInstrumentID+"/price", "")

		if rec.Code != http.StatusNotFound {
			t.Fatalf("expected 404, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "MISSING_PRICE")
	})
}

func TestFxRateHandler(t *testing.T) {
	t.Run("record_rates", func(t *testing.T) {
		var got []services.FxRateInput
		fx := &mockFxRateService{
			recordRatesFn: func(_ context.Context, rates []services.FxRateInput) (*services.BatchResult, error) {
				got = rates
				res := services.NewBatchResult()
				res.Succeed()
				return res, nil
			},
		}
		r := setupPriceRouter(NewPriceHandler(&mockPriceService{}), NewFxRateHandler(fx))

		rec := doRequest(r, "POST", "/pipeline/fx-rates",
			`{"rates":[{"base_currency":"USD","target_currency":"HUF","rate_date":"2024-01-15","rate":"350","source":"ECB"}]}`)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		if len(got) != 1 || got[0].Source != "ecb" || !got[0].Rate.Equal(decimal.NewFromInt(350)) {
			t.Errorf("unexpected inputs %+v", got)
		}
	})

	t.Run("resolve_uppercases_pair", func(t *testing.T) {
		var base, target string
		fx := &mockFxRateService{
			resolveRateFn: func(_ context.Context, b, tg string, _ time.Time) (decimal.Decimal, error) {
				base, target = b, tg
				return decimal.RequireFromString("395.5"), nil
			},
		}
		r := setupPriceRouter(NewPriceHandler(&mockPriceService{}), NewFxRateHandler(fx))

		rec := doRequest(r, "GET", "/fx-rates/eur/huf/resolve?date=2024-03-31", "")

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		if base != "EUR" || target != "HUF" {
			t.Errorf("expected EUR/HUF, got %s/%s", base, target)
		}
		if parseJSON(t, rec)["rate"] != "395.5" {
			t.Errorf("unexpected rate")
		}
	})

	t.Run("resolve_404_missing_rate", func(t *testing.T) {
		fx := &mockFxRateService{
			resolveRateFn: func(_ context.Context, _, _ string, _ time.Time) (decimal.Decimal, error) {
				return decimal.Zero, apperrors.Wrap(apperrors.ErrMissingFXRate, pricing.ErrNoRate)
			},
		}
		r := setupPriceRouter(NewPriceHandler(&mockPriceService{}), NewFxRateHandler(fx))

		rec := doRequest(r, "GET", "/fx-rates/USD/HUF/resolve", "")

		if rec.Code != http.StatusNotFound {
			t.Fatalf("expected 404, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "MISSING_FX_RATE")
	})
}
