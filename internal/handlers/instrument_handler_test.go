package handlers

import (
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"

	apperrors "wealthbook/internal/errors"
	"wealthbook/internal/models"
	"wealthbook/internal/pagination"
	"wealthbook/internal/services"
)

func setupInstrumentRouter(handler *InstrumentHandler) *gin.Engine {
	r := gin.New()
	r.GET("/pipeline/instruments", handler.ListTrackedInstruments)
	auth := r.Group("", injectOwner("anna"))
	auth.POST("/instruments", handler.CreateInstrument)
	auth.GET("/instruments", handler.ListInstruments)
	auth.GET("/instruments/:id", handler.GetInstrument)
	auth.PATCH("/instruments/:id", handler.UpdateInstrument)
	auth.GET("/instruments/isin/:isin", handler.GetInstrumentByISIN)
	return r
}

func TestInstrumentHandler_CreateInstrument(t *testing.T) {
	t.Run("returns_201_on_success", func(t *testing.T) {
		svc := &mockInstrumentService{
			createInstrumentFn: func(isin, name, currency string, typ models.InstrumentType, ticker, source string) (*models.Instrument, error) {
				return &models.Instrument{
					Base: models.Base{ID: testInstrumentID}, ISIN: isin, Name: name,
					Currency: currency, InstrumentType: typ, Ticker: ticker, Source: source,
				}, nil
			},
		}
		r := setupInstrumentRouter(NewInstrumentHandler(svc))

		rec := doRequest(r, "POST", "/instruments",
			`{"isin":"HU0000123096","name":"Richter Gedeon","currency":"HUF","ticker":"RICHTER","source":"yahoo"}`)

		if rec.Code != http.StatusCreated {
			t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
		}
		inst := parseJSON(t, rec)["instrument"].(map[string]interface{})
		if inst["isin"] != "HU0000123096" {
			t.Errorf("expected isin=HU0000123096, got %v", inst["isin"])
		}
		if inst["instrument_type"] != "equity" {
			t.Errorf("expected default instrument_type=equity, got %v", inst["instrument_type"])
		}
	})

	tests := []struct {
		name string
		body string
	}{
		{"missing_isin", `{"name":"X","currency":"HUF"}`},
		{"malformed_isin", `{"isin":"RICHTER","name":"X","currency":"HUF"}`},
		{"unknown_currency", `{"isin":"HU0000123096","name":"X","currency":"ZZZ"}`},
		{"unknown_type", `{"isin":"HU0000123096","name":"X","currency":"HUF","instrument_type":"crypto"}`},
	}
	for _, tt := range tests {
		t.Run("returns_400_"+tt.name, func(t *testing.T) {
			r := setupInstrumentRouter(NewInstrumentHandler(&mockInstrumentService{}))

			rec := doRequest(r, "POST", "/instruments", tt.body)

			if rec.Code != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d: %s", rec.Code, rec.Body.String())
			}
			assertErrorCode(t, parseJSON(t, rec), "INVALID_INPUT")
		})
	}

	t.Run("returns_409_duplicate", func(t *testing.T) {
		svc := &mockInstrumentService{
			createInstrumentFn: func(_, _, _ string, _ models.InstrumentType, _, _ string) (*models.Instrument, error) {
				return nil, apperrors.ErrDuplicateISIN
			},
		}
		r := setupInstrumentRouter(NewInstrumentHandler(svc))

		rec := doRequest(r, "POST", "/instruments", `{"isin":"HU0000123096","name":"X","currency":"HUF"}`)

		if rec.Code != http.StatusConflict {
			t.Fatalf("expected 409, got %d: %s", rec.Code, rec.Body.String())
		}
		assertErrorCode(t, parseJSON(t, rec), "DUPLICATE_ISIN")
	})
}

func TestInstrumentHandler_ListInstruments(t *testing.T) {
	t.Run("passes_search_and_page", func(t *testing.T) {
		var gotSearch string
		var gotPage pagination.PageRequest
		svc := &mockInstrumentService{
			listInstrumentsFn: func(search string, page pagination.PageRequest) (*pagination.PageResponse[models.Instrument], error) {
				gotSearch, gotPage = search, page
				resp := pagination.NewPageResponse([]models.Instrument{{ISIN: "HU0000123096"}}, page.Page, page.PageSize, 1)
				return &resp, nil
			},
		}
		r := setupInstrumentRouter(NewInstrumentHandler(svc))

		rec := doRequest(r, "GET", "/instruments?search=richter&page=2&page_size=5", "")

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		if gotSearch != "richter" || gotPage.Page != 2 || gotPage.PageSize != 5 {
			t.Errorf("unexpected arguments %q %+v", gotSearch, gotPage)
		}
	})

	t.Run("returns_400_page_size_too_large", func(t *testing.T) {
		r := setupInstrumentRouter(NewInstrumentHandler(&mockInstrumentService{}))

		rec := doRequest(r, "GET", "/instruments?page_size=500", "")

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})
}

func TestInstrumentHandler_GetInstrument(t *testing.T) {
	t.Run("returns_400_invalid_id", func(t *testing.T) {
		r := setupInstrumentRouter(NewInstrumentHandler(&mockInstrumentService{}))

		rec := doRequest(r, "GET", "/instruments/42", "")

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "INVALID_INPUT")
	})

	t.Run("returns_404_not_found", func(t *testing.T) {
		svc := &mockInstrumentService{
			getInstrumentByIDFn: func(_ string) (*models.Instrument, error) {
				return nil, apperrors.ErrInstrumentNotFound
			},
		}
		r := setupInstrumentRouter(NewInstrumentHandler(svc))

		rec := doRequest(r, "GET", "/instruments/"+testInstrumentID, "")

		if rec.Code != http.StatusNotFound {
			t.Fatalf("expected 404, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "INSTRUMENT_NOT_FOUND")
	})

	t.Run("uppercases_isin_lookup", func(t *testing.T) {
		var got string
		svc := &mockInstrumentService{
			getInstrumentByISINFn: func(isin string) (*models.Instrument, error) {
				got = isin
				return &models.Instrument{ISIN: isin}, nil
			},
		}
		r := setupInstrumentRouter(NewInstrumentHandler(svc))

		rec := doRequest(r, "GET", "/instruments/isin/hu0000123096", "")

		if rec.Code != http.StatusOK || got != "HU0000123096" {
			t.Fatalf("expected upper-cased lookup, got %d %q", rec.Code, got)
		}
	})
}

func TestInstrumentHandler_UpdateInstrument(t *testing.T) {
	t.Run("only_sends_given_fields", func(t *testing.T) {
		var got services.InstrumentUpdate
		svc := &mockInstrumentService{
			updateInstrumentFn: func(_ string, update services.InstrumentUpdate) (*models.Instrument, error) {
				got = update
				return &models.Instrument{}, nil
			},
		}
		r := setupInstrumentRouter(NewInstrumentHandler(svc))

		rec := doRequest(r, "PATCH", "/instruments/"+testInstrumentID, `{"ticker":"RICHT.BD"}`)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		if got.Ticker == nil || *got.Ticker != "RICHT.BD" || got.Name != nil {
			t.Errorf("unexpected update %+v", got)
		}
	})
}

func TestInstrumentHandler_ListTrackedInstruments(t *testing.T) {
	svc := &mockInstrumentService{
		listTrackedInstrumentsFn: func() ([]models.Instrument, error) {
			return []models.Instrument{{ISIN: "HU0000123096", Ticker: "RICHTER"}}, nil
		},
	}
	r := setupInstrumentRouter(NewInstrumentHandler(svc))

	rec := doRequest(r, "GET", "/pipeline/instruments", "")

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	list := parseJSON(t, rec)["instruments"].([]interface{})
	if len(list) != 1 {
		t.Errorf("expected 1 instrument, got %d", len(list))
	}
}
