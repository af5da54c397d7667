package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"wealthbook/internal/dates"
	apperrors "wealthbook/internal/errors"
	"wealthbook/internal/services"
)

// MaxBackfillDays caps the inclusive range of one backfill request. Longer
// ranges go through `wealthctl backfill`.
const MaxBackfillDays = 366

// PipelineHandler exposes the batch jobs to the fetch oracle and schedulers.
type PipelineHandler struct {
	pipeline   services.PipelineServicer
	valuation  services.ValuationServicer
	wealth     services.WealthServicer
	reductions services.LoanReductionServicer
}

// NewPipelineHandler creates a new PipelineHandler.
func NewPipelineHandler(
	pipeline services.PipelineServicer,
	valuation services.ValuationServicer,
	wealth services.WealthServicer,
	reductions services.LoanReductionServicer,
) *PipelineHandler {
	return &PipelineHandler{pipeline: pipeline, valuation: valuation, wealth: wealth, reductions: reductions}
}

// RunDateRequest names the date a job runs for. Empty means today.
type RunDateRequest struct {
	Date        string `json:"date,omitempty"`
	PortfolioID string `json:"portfolio_id,omitempty" binding:"omitempty,uuid"`
}

// BackfillRequest selects the dates to rerun: an inclusive range, or every
// date that carries a wealth value.
type BackfillRequest struct {
	From        string `json:"from,omitempty"`
	To          string `json:"to,omitempty"`
	WealthDates bool   `json:"wealth_dates,omitempty"`
}

// LoanReductionsRequest applies repayments on a date.
type LoanReductionsRequest struct {
	Date       string                 `json:"date,omitempty"`
	Reductions []LoanReductionRequest `json:"reductions" binding:"required,min=1,dive"`
}

// LoanReductionRequest is one repayment.
type LoanReductionRequest struct {
	Category string `json:"category" binding:"required"`
	Amount   string `json:"amount" binding:"required,decimal"`
}

// RunValuations handles valuing every portfolio, or one, for a date.
// @Summary     Run valuations
// @Tags        pipeline
// @Accept      json
// @Produce     json
// @Security    ApiKeyAuth
// @Param       request body RunDateRequest false "Date and optional portfolio"
// @Success     200 {object} services.BatchResult
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Invalid API key"
// @Router      /pipeline/valuations [post]
func (h *PipelineHandler) RunValuations(c *gin.Context) {
	req, ok := bindRunDate(c)
	if !ok {
		return
	}
	date, err := parseBodyDate(req.Date)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var result *services.BatchResult
	if req.PortfolioID != "" {
		result, err = h.valuation.ValuePortfolio(c.Request.Context(), req.PortfolioID, date)
	} else {
		result, err = h.valuation.ValueAll(c.Request.Context(), date)
	}
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// RunSnapshot handles aggregating the wealth snapshot of a date.
// @Summary     Run wealth snapshot
// @Tags        pipeline
// @Accept      json
// @Produce     json
// @Security    ApiKeyAuth
// @Param       request body RunDateRequest false "Date"
// @Success     200 {object} map[string]interface{} "Snapshot and batch result"
// @Failure     401 {object} ErrorResponse "Invalid API key"
// @Router      /pipeline/snapshots [post]
func (h *PipelineHandler) RunSnapshot(c *gin.Context) {
	req, ok := bindRunDate(c)
	if !ok {
		return
	}
	date, err := parseBodyDate(req.Date)
	if err != nil {
		respondWithError(c, err)
		return
	}

	snap, result, err := h.wealth.AggregateSnapshot(c.Request.Context(), date)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"snapshot": snap, "result": result})
}

// RunDailyClose handles the full daily close of a date.
// @Summary     Run daily close
// @Description Loan reductions on the first of the month, then valuation and aggregation
// @Tags        pipeline
// @Accept      json
// @Produce     json
// @Security    ApiKeyAuth
// @Param       request body RunDateRequest false "Date"
// @Success     200 {object} services.DailyCloseResult
// @Failure     401 {object} ErrorResponse "Invalid API key"
// @Router      /pipeline/daily [post]
func (h *PipelineHandler) RunDailyClose(c *gin.Context) {
	req, ok := bindRunDate(c)
	if !ok {
		return
	}
	date, err := parseBodyDate(req.Date)
	if err != nil {
		respondWithError(c, err)
		return
	}

	result, err := h.pipeline.DailyClose(c.Request.Context(), date)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// RunBackfill handles rerunning valuation and aggregation over many dates.
// @Summary     Run backfill
// @Tags        pipeline
// @Accept      json
// @Produce     json
// @Security    ApiKeyAuth
// @Param       request body BackfillRequest true "Range or wealth_dates"
// @Success     200 {object} services.BackfillResult
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Invalid API key"
// @Router      /pipeline/backfill [post]
func (h *PipelineHandler) RunBackfill(c *gin.Context) {
	var req BackfillRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, bindError(err))
		return
	}

	if req.WealthDates {
		result, err := h.pipeline.BackfillWealthDates(c.Request.Context())
		if err != nil {
			respondWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, result)
		return
	}

	if req.From == "" {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "from is required unless wealth_dates is set"))
		return
	}
	from, err := dates.Parse(req.From)
	if err != nil {
		respondWithError(c, bindError(err))
		return
	}
	to, err := parseBodyDate(req.To)
	if err != nil {
		respondWithError(c, err)
		return
	}
	if days := int(to.Sub(from).Hours()/24) + 1; days > MaxBackfillDays {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput,
			fmt.Sprintf("backfill covers %d days, at most %d per request", days, MaxBackfillDays)))
		return
	}

	result, err := h.pipeline.Backfill(c.Request.Context(), from, to)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// ApplyLoanReductions handles applying ad-hoc repayments on a date.
// @Summary     Apply loan reductions
// @Tags        pipeline
// @Accept      json
// @Produce     json
// @Security    ApiKeyAuth
// @Param       request body LoanReductionsRequest true "Repayments"
// @Success     200 {object} services.BatchResult
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Invalid API key"
// @Router      /pipeline/loan-reductions [post]
func (h *PipelineHandler) ApplyLoanReductions(c *gin.Context) {
	var req LoanReductionsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, bindError(err))
		return
	}
	date, err := parseBodyDate(req.Date)
	if err != nil {
		respondWithError(c, err)
		return
	}

	reductions := make([]services.LoanReduction, len(req.Reductions))
	for i, r := range req.Reductions {
		reductions[i] = services.LoanReduction{Category: r.Category, Amount: decimal.RequireFromString(r.Amount)}
	}

	result, err := h.reductions.ApplyLoanReductions(c.Request.Context(), date, reductions)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// bindRunDate binds an optional body. An empty body runs for today.
func bindRunDate(c *gin.Context) (RunDateRequest, bool) {
	var req RunDateRequest
	if c.Request.ContentLength == 0 {
		return req, true
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, bindError(err))
		return req, false
	}
	return req, true
}
