package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"wealthbook/internal/dates"
	apperrors "wealthbook/internal/errors"
	"wealthbook/internal/models"
	"wealthbook/internal/services"
)

// PortfolioHandler handles portfolio, holding and valuation read requests.
type PortfolioHandler struct {
	portfolioService services.PortfolioServicer
	valuationService services.ValuationServicer
}

// NewPortfolioHandler creates a new PortfolioHandler.
func NewPortfolioHandler(portfolioService services.PortfolioServicer, valuationService services.ValuationServicer) *PortfolioHandler {
	return &PortfolioHandler{portfolioService: portfolioService, valuationService: valuationService}
}

// CreatePortfolioRequest represents the request payload for creating a portfolio.
type CreatePortfolioRequest struct {
	Name     string `json:"name" binding:"required,min=1,max=100"`
	Currency string `json:"currency" binding:"omitempty,iso4217"`
}

// OpenHoldingRequest represents the request payload for opening a holding.
type OpenHoldingRequest struct {
	InstrumentID     string              `json:"instrument_id" binding:"required,uuid"`
	Quantity         decimal.Decimal     `json:"quantity" binding:"omitempty,gte=0"`
	AcquisitionDate  string              `json:"acquisition_date,omitempty"`
	AcquisitionPrice decimal.NullDecimal `json:"acquisition_price" binding:"omitempty,gt=0"`
}

// CreatePortfolio handles creating a portfolio owned by the caller.
// @Summary     Create portfolio
// @Tags        portfolios
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body CreatePortfolioRequest true "Portfolio details"
// @Success     201 {object} models.Portfolio "Portfolio created"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Router      /portfolios [post]
func (h *PortfolioHandler) CreatePortfolio(c *gin.Context) {
	var req CreatePortfolioRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, bindError(err))
		return
	}

	portfolio, err := h.portfolioService.CreatePortfolio(req.Name, getOwner(c), req.Currency)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"portfolio": portfolio})
}

// ListPortfolios handles listing all portfolios.
// @Summary     List portfolios
// @Tags        portfolios
// @Produce     json
// @Security    BearerAuth
// @Success     200 {object} map[string][]models.Portfolio
// @Router      /portfolios [get]
func (h *PortfolioHandler) ListPortfolios(c *gin.Context) {
	portfolios, err := h.portfolioService.ListPortfolios()
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"portfolios": portfolios})
}

// GetPortfolio handles fetching a portfolio by ID.
// @Summary     Get portfolio
// @Tags        portfolios
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Portfolio ID"
// @Success     200 {object} models.Portfolio
// @Failure     404 {object} ErrorResponse "Portfolio not found"
// @Router      /portfolios/{id} [get]
func (h *PortfolioHandler) GetPortfolio(c *gin.Context) {
	id, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	portfolio, err := h.portfolioService.GetPortfolioByID(id)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"portfolio": portfolio})
}

// ListHoldings handles listing the current holdings of a portfolio.
// @Summary     List holdings
// @Tags        portfolios
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Portfolio ID"
// @Success     200 {object} map[string][]models.Holding
// @Failure     404 {object} ErrorResponse "Portfolio not found"
// @Router      /portfolios/{id}/holdings [get]
func (h *PortfolioHandler) ListHoldings(c *gin.Context) {
	id, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	holdings, err := h.portfolioService.ListHoldings(id)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"holdings": holdings})
}

// OpenHolding handles opening a holding without a transaction, e.g. for a migrated position.
// @Summary     Open holding
// @Tags        portfolios
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Portfolio ID"
// @Param       request body OpenHoldingRequest true "Holding details"
// @Success     201 {object} models.Holding "Holding opened"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     404 {object} ErrorResponse "Portfolio or instrument not found"
// @Router      /portfolios/{id}/holdings [post]
func (h *PortfolioHandler) OpenHolding(c *gin.Context) {
	id, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req OpenHoldingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, bindError(err))
		return
	}

	var acquired *time.Time
	if req.AcquisitionDate != "" {
		d, err := dates.Parse(req.AcquisitionDate)
		if err != nil {
			respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
			return
		}
		acquired = &d
	}

	holding, err := h.portfolioService.OpenHolding(id, req.InstrumentID, req.Quantity, acquired, req.AcquisitionPrice)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"holding": holding})
}

// GetSnapshot handles fetching the valuation rows of a portfolio on a date.
// @Summary     Portfolio snapshot
// @Tags        portfolios
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Portfolio ID"
// @Param       date query string false "Date (YYYY-MM-DD), defaults to today"
// @Success     200 {object} map[string][]models.PortfolioValueDaily
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     404 {object} ErrorResponse "Portfolio not found"
// @Router      /portfolios/{id}/snapshot [get]
func (h *PortfolioHandler) GetSnapshot(c *gin.Context) {
	id, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}
	date, err := parseQueryDate(c, "date", dates.Today())
	if err != nil {
		respondWithError(c, err)
		return
	}

	rows, err := h.portfolioService.GetSnapshot(id, date)
	if err != nil {
		respondWithError(c, err)
		return
	}
	if rows == nil {
		rows = []models.PortfolioValueDaily{}
	}

	c.JSON(http.StatusOK, gin.H{"snapshot_date": dates.Format(date), "positions": rows})
}

// GetSummary handles fetching the total value of a portfolio on a date.
// @Summary     Portfolio summary
// @Tags        portfolios
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Portfolio ID"
// @Param       date query string false "Date (YYYY-MM-DD), defaults to today"
// @Success     200 {object} services.PortfolioSummary
// @Failure     404 {object} ErrorResponse "Portfolio not found"
// @Router      /portfolios/{id}/summary [get]
func (h *PortfolioHandler) GetSummary(c *gin.Context) {
	id, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}
	date, err := parseQueryDate(c, "date", dates.Today())
	if err != nil {
		respondWithError(c, err)
		return
	}

	summary, err := h.portfolioService.GetSummary(id, date)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, summary)
}

// GetHistory handles fetching daily portfolio totals over a range.
// @Summary     Portfolio history
// @Tags        portfolios
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Portfolio ID"
// @Param       from query string false "Start date, defaults to one year before to"
// @Param       to query string false "End date, defaults to today"
// @Success     200 {object} map[string][]services.PortfolioHistoryPoint
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     404 {object} ErrorResponse "Portfolio not found"
// @Router      /portfolios/{id}/history [get]
func (h *PortfolioHandler) GetHistory(c *gin.Context) {
	id, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}
	from, to, err := parseDateRange(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	points, err := h.portfolioService.GetHistory(id, from, to)
	if err != nil {
		respondWithError(c, err)
		return
	}
	if points == nil {
		points = []services.PortfolioHistoryPoint{}
	}

	c.JSON(http.StatusOK, gin.H{"history": points})
}

// ValuePortfolio handles revaluing one portfolio for a date.
// @Summary     Value portfolio
// @Description Values every holding of the portfolio and upserts the daily rows
// @Tags        portfolios
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Portfolio ID"
// @Param       date query string false "Date (YYYY-MM-DD), defaults to today"
// @Success     200 {object} services.BatchResult
// @Failure     404 {object} ErrorResponse "Portfolio not found"
// @Router      /portfolios/{id}/valuations [post]
func (h *PortfolioHandler) ValuePortfolio(c *gin.Context) {
	id, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}
	date, err := parseQueryDate(c, "date", dates.Today())
	if err != nil {
		respondWithError(c, err)
		return
	}

	result, err := h.valuationService.ValuePortfolio(c.Request.Context(), id, date)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}
