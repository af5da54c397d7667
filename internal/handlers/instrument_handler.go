package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"wealthbook/internal/models"
	"wealthbook/internal/pagination"
	"wealthbook/internal/services"
)

// InstrumentHandler handles instrument catalogue requests.
type InstrumentHandler struct {
	instrumentService services.InstrumentServicer
}

// NewInstrumentHandler creates a new InstrumentHandler.
func NewInstrumentHandler(instrumentService services.InstrumentServicer) *InstrumentHandler {
	return &InstrumentHandler{instrumentService: instrumentService}
}

// CreateInstrumentRequest represents the request payload for creating an instrument.
type CreateInstrumentRequest struct {
	ISIN           string                `json:"isin" binding:"required,isin"`
	Name           string                `json:"name" binding:"required,min=1,max=200"`
	Currency       string                `json:"currency" binding:"required,iso4217"`
	InstrumentType models.InstrumentType `json:"instrument_type" binding:"omitempty,instrument_type"`
	Ticker         string                `json:"ticker,omitempty" binding:"max=30"`
	Source         string                `json:"source,omitempty" binding:"max=30"`
}

// UpdateInstrumentRequest represents the request payload for updating instrument metadata.
type UpdateInstrumentRequest struct {
	Name           *string                `json:"name" binding:"omitempty,min=1,max=200"`
	InstrumentType *models.InstrumentType `json:"instrument_type" binding:"omitempty,instrument_type"`
	Ticker         *string                `json:"ticker" binding:"omitempty,max=30"`
	Source         *string                `json:"source" binding:"omitempty,max=30"`
}

// ListInstrumentsQuery holds the instrument list filters.
type ListInstrumentsQuery struct {
	pagination.PageRequest
	Search string `form:"search"`
}

// CreateInstrument handles creating a new instrument.
// @Summary     Create instrument
// @Description Register a tradable instrument by ISIN
// @Tags        instruments
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body CreateInstrumentRequest true "Instrument details"
// @Success     201 {object} models.Instrument "Instrument created"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     409 {object} ErrorResponse "Duplicate ISIN"
// @Router      /instruments [post]
func (h *InstrumentHandler) CreateInstrument(c *gin.Context) {
	var req CreateInstrumentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, bindError(err))
		return
	}
	if req.InstrumentType == "" {
		req.InstrumentType = models.InstrumentTypeEquity
	}

	instrument, err := h.instrumentService.CreateInstrument(
		req.ISIN, req.Name, req.Currency, req.InstrumentType, req.Ticker, req.Source,
	)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"instrument": instrument})
}

// ListInstruments handles listing instruments.
// @Summary     List instruments
// @Tags        instruments
// @Produce     json
// @Security    BearerAuth
// @Param       search query string false "Name, ISIN or ticker contains"
// @Param       page query int false "Page number"
// @Param       page_size query int false "Page size"
// @Success     200 {object} pagination.PageResponse[models.Instrument]
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Router      /instruments [get]
func (h *InstrumentHandler) ListInstruments(c *gin.Context) {
	var q ListInstrumentsQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		respondWithError(c, bindError(err))
		return
	}
	q.Defaults()

	result, err := h.instrumentService.ListInstruments(q.Search, q.PageRequest)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// GetInstrument handles fetching an instrument by ID.
// @Summary     Get instrument
// @Tags        instruments
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Instrument ID"
// @Success     200 {object} models.Instrument
// @Failure     404 {object} ErrorResponse "Instrument not found"
// @Router      /instruments/{id} [get]
func (h *InstrumentHandler) GetInstrument(c *gin.Context) {
	id, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	instrument, err := h.instrumentService.GetInstrumentByID(id)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"instrument": instrument})
}

// GetInstrumentByISIN handles fetching an instrument by ISIN.
// @Summary     Get instrument by ISIN
// @Tags        instruments
// @Produce     json
// @Security    BearerAuth
// @Param       isin path string true "ISIN"
// @Success     200 {object} models.Instrument
// @Failure     404 {object} ErrorResponse "Instrument not found"
// @Router      /instruments/isin/{isin} [get]
func (h *InstrumentHandler) GetInstrumentByISIN(c *gin.Context) {
	instrument, err := h.instrumentService.GetInstrumentByISIN(strings.ToUpper(c.Param("isin")))
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"instrument": instrument})
}

// UpdateInstrument handles updating instrument metadata. The ISIN cannot change.
// @Summary     Update instrument
// @Tags        instruments
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Instrument ID"
// @Param       request body UpdateInstrumentRequest true "Fields to change"
// @Success     200 {object} models.Instrument
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     404 {object} ErrorResponse "Instrument not found"
// @Router      /instruments/{id} [patch]
func (h *InstrumentHandler) UpdateInstrument(c *gin.Context) {
	id, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req UpdateInstrumentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, bindError(err))
		return
	}

	instrument, err := h.instrumentService.UpdateInstrument(id, services.InstrumentUpdate{
		Name:           req.Name,
		InstrumentType: req.InstrumentType,
		Ticker:         req.Ticker,
		Source:         req.Source,
	})
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"instrument": instrument})
}

// ListTrackedInstruments returns the instruments the fetchers should price.
// @Summary     List tracked instruments
// @Description Instruments with a ticker, for the price fetchers
// @Tags        pipeline
// @Produce     json
// @Security    ApiKeyAuth
// @Success     200 {object} map[string][]models.Instrument
// @Failure     401 {object} ErrorResponse "Invalid API key"
// @Failure     503 {object} ErrorResponse "Pipeline not configured"
// @Router      /pipeline/instruments [get]
func (h *InstrumentHandler) ListTrackedInstruments(c *gin.Context) {
	instruments, err := h.instrumentService.ListTrackedInstruments()
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"instruments": instruments})
}
