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

// FxRateHandler handles FX rate pushes and reads.
type FxRateHandler struct {
	fxService services.FxRateServicer
}

// NewFxRateHandler creates a new FxRateHandler.
func NewFxRateHandler(fxService services.FxRateServicer) *FxRateHandler {
	return &FxRateHandler{fxService: fxService}
}

// RecordRatesRequest represents the request payload for bulk FX rate recording.
type RecordRatesRequest struct {
	Rates []RecordRateEntry `json:"rates" binding:"required,min=1,max=1000,dive"`
}

// RecordRateEntry is one rate: units of target per unit of base.
type RecordRateEntry struct {
	BaseCurrency   string          `json:"base_currency" binding:"required,len=3"`
	TargetCurrency string          `json:"target_currency" binding:"required,len=3"`
	RateDate       string          `json:"rate_date" binding:"required"`
	Rate           decimal.Decimal `json:"rate"`
	Source         string          `json:"source" binding:"required,max=30"`
}

// RecordRates handles a batch of fetched FX rates.
// @Summary     Record FX rates
// @Tags        pipeline
// @Accept      json
// @Produce     json
// @Security    ApiKeyAuth
// @Param       request body RecordRatesRequest true "Fetched rates"
// @Success     200 {object} services.BatchResult
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Invalid API key"
// @Router      /pipeline/fx-rates [post]
func (h *FxRateHandler) RecordRates(c *gin.Context) {
	var req RecordRatesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, bindError(err))
		return
	}

	inputs := make([]services.FxRateInput, 0, len(req.Rates))
	for _, r := range req.Rates {
		date, err := dates.Parse(r.RateDate)
		if err != nil {
			respondWithError(c, bindError(err))
			return
		}
		inputs = append(inputs, services.FxRateInput{
			BaseCurrency:   r.BaseCurrency,
			TargetCurrency: r.TargetCurrency,
			RateDate:       date,
			Rate:           r.Rate,
			Source:         strings.ToLower(r.Source),
		})
	}

	result, err := h.fxService.RecordRates(c.Request.Context(), inputs)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// GetRateHistory handles listing stored rates of a pair over a range.
// @Summary     FX rate history
// @Tags        fx-rates
// @Produce     json
// @Security    BearerAuth
// @Param       base path string true "Base currency"
// @Param       target path string true "Target currency"
// @Param       from query string false "Start date"
// @Param       to query string false "End date"
// @Success     200 {object} pagination.PageResponse[models.FxRate]
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Router      /fx-rates/{base}/{target} [get]
func (h *FxRateHandler) GetRateHistory(c *gin.Context) {
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

	base, target := strings.ToUpper(c.Param("base")), strings.ToUpper(c.Param("target"))
	result, err := h.fxService.GetRateHistory(base, target, from, to, page)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// ResolveRate handles resolving the latest rate of a pair on or before a date.
// @Summary     Resolve FX rate
// @Tags        fx-rates
// @Produce     json
// @Security    BearerAuth
// @Param       base path string true "Base currency"
// @Param       target path string true "Target currency"
// @Param       date query string false "Date (YYYY-MM-DD), defaults to today"
// @Success     200 {object} map[string]interface{}
// @Failure     404 {object} ErrorResponse "Missing FX rate"
// @Router      /fx-rates/{base}/{target}/resolve [get]
func (h *FxRateHandler) ResolveRate(c *gin.Context) {
	date, err := parseQueryDate(c, "date", dates.Today())
	if err != nil {
		respondWithError(c, err)
		return
	}

	base, target := strings.ToUpper(c.Param("base")), strings.ToUpper(c.Param("target"))
	rate, err := h.fxService.ResolveRate(c.Request.Context(), base, target, date)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"base_currency":   base,
		"target_currency": target,
		"date":            dates.Format(date),
		"rate":            rate,
	})
}
