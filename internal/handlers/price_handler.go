package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"wealthbook/internal/dates"
	"wealthbook/internal/pagination"
	"wealthbook/internal/services"
)

// PriceHandler handles fetched prices, manual overrides and price resolution.
type PriceHandler struct {
	priceService services.PriceServicer
}

// NewPriceHandler creates a new PriceHandler.
func NewPriceHandler(priceService services.PriceServicer) *PriceHandler {
	return &PriceHandler{priceService: priceService}
}

// RecordPricesRequest represents the request payload for bulk price recording.
type RecordPricesRequest struct {
	Prices []RecordPriceEntry `json:"prices" binding:"required,min=1,max=1000,dive"`
}

// RecordPriceEntry represents a single fetched price.
type RecordPriceEntry struct {
	InstrumentID string          `json:"instrument_id" binding:"required,uuid"`
	PriceDate    string          `json:"price_date" binding:"required"`
	Price        decimal.Decimal `json:"price"`
	Currency     string          `json:"currency" binding:"required,iso4217"`
	Source       string          `json:"source" binding:"required,max=30"`
}

// SetManualPriceRequest represents the request payload for a manual override.
type SetManualPriceRequest struct {
	OverrideDate string          `json:"override_date,omitempty"`
	Price        decimal.Decimal `json:"price" binding:"required,gt=0"`
	Currency     string          `json:"currency" binding:"omitempty,iso4217"`
	Reason       string          `json:"reason,omitempty" binding:"max=500"`
}

// RecordPrices handles a batch of fetched prices. Invalid rows are reported
// in the result instead of failing the batch.
// @Summary     Record prices
// @Tags        pipeline
// @Accept      json
// @Produce     json
// @Security    ApiKeyAuth
// @Param       request body RecordPricesRequest true "Fetched prices"
// @Success     200 {object} services.BatchResult
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Invalid API key"
// @Failure     503 {object} ErrorResponse "Pipeline not configured"
// @Router      /pipeline/prices [post]
func (h *PriceHandler) RecordPrices(c *gin.Context) {
	var req RecordPricesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, bindError(err))
		return
	}

	inputs := make([]services.PriceInput, 0, len(req.Prices))
	for _, p := range req.Prices {
		date, err := dates.Parse(p.PriceDate)
		if err != nil {
			respondWithError(c, bindError(err))
			return
		}
		inputs = append(inputs, services.PriceInput{
			InstrumentID: p.InstrumentID,
			PriceDate:    date,
			Price:        p.Price,
			Currency:     p.Currency,
			Source:       strings.ToLower(p.Source),
		})
	}

	result, err := h.priceService.RecordPrices(c.Request.Context(), inputs)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// SetManualPrice handles creating or replacing the manual override of an instrument on a date.
// @Summary     Set manual price
// @Tags        prices
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Instrument ID"
// @Param       request body SetManualPriceRequest true "Override details"
// @Success     200 {object} models.ManualPrice
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     404 {object} ErrorResponse "Instrument not found"
// @Failure     422 {object} ErrorResponse "Currency mismatch"
// @Router      /instruments/{id}/manual-prices [put]
func (h *PriceHandler) SetManualPrice(c *gin.Context) {
	instrumentID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req SetManualPriceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, bindError(err))
		return
	}
	date, err := parseBodyDate(req.OverrideDate)
	if err != nil {
		respondWithError(c, err)
		return
	}

	mp, err := h.priceService.SetManualPrice(c.Request.Context(), instrumentID, date, req.Price, req.Currency, req.Reason, getOwner(c))
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"manual_price": mp})
}

// ListManualPrices handles listing the manual overrides of an instrument.
// @Summary     List manual prices
// @Tags        prices
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Instrument ID"
// @Param       page query int false "Page number"
// @Param       page_size query int false "Page size"
// @Success     200 {object} pagination.PageResponse[models.ManualPrice]
// @Router      /instruments/{id}/manual-prices [get]
func (h *PriceHandler) ListManualPrices(c *gin.Context) {
	instrumentID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var page pagination.PageRequest
	if err := c.ShouldBindQuery(&page); err != nil {
		respondWithError(c, bindError(err))
		return
	}
	page.Defaults()

	result, err := h.priceService.ListManualPrices(instrumentID, page)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// DeleteManualPrice handles removing a manual override.
// @Summary     Delete manual price
// @Tags        prices
// @Security    BearerAuth
// @Param       id path string true "Manual price ID"
// @Success     204 "Deleted"
// @Failure     404 {object} ErrorResponse "Manual price not found"
// @Router      /manual-prices/{id} [delete]
func (h *PriceHandler) DeleteManualPrice(c *gin.Context) {
	id, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	if err := h.priceService.DeleteManualPrice(id); err != nil {
		respondWithError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// GetPriceHistory handles listing fetched prices of an instrument over a range.
// @Summary     Price history
// @Tags        prices
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Instrument ID"
// @Param       from query string false "Start date"
// @Param       to query string false "End date"
// @Param       page query int false "Page number"
// @Param       page_size query int false "Page size"
// @Success     200 {object} pagination.PageResponse[models.Price]
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Router      /instruments/{id}/prices [get]
func (h *PriceHandler) GetPriceHistory(c *gin.Context) {
	instrumentID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}
	from, to, err := parseDateRange(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var page pagination.PageRequest
	if err := c.ShouldBindQuery(&page); err != nil {
		respondWithError(c, bindError(err))
		return
	}
	page.Defaults()

	result, err := h.priceService.GetPriceHistory(instrumentID, from, to, page)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// ResolvePrice handles resolving the effective price of an instrument on a date.
// @Summary     Resolve price
// @Description Applies the manual, market and fallback tiers in order
// @Tags        prices
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Instrument ID"
// @Param       date query string false "Date (YYYY-MM-DD), defaults to today"
// @Success     200 {object} pricing.Quote
// @Failure     404 {object} ErrorResponse "Missing price"
// @Router      /instruments/{id}/price [get]
func (h *PriceHandler) ResolvePrice(c *gin.Context) {
	instrumentID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}
	date, err := parseQueryDate(c, "date", dates.Today())
	if err != nil {
		respondWithError(c, err)
		return
	}

	quote, err := h.priceService.ResolvePrice(c.Request.Context(), instrumentID, date)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"quote": quote})
}
