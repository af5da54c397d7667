package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"wealthbook/internal/models"
	"wealthbook/internal/pagination"
	"wealthbook/internal/services"
)

// TransactionHandler handles holding transactions.
type TransactionHandler struct {
	transactionService services.TransactionServicer
}

// NewTransactionHandler creates a new TransactionHandler.
func NewTransactionHandler(transactionService services.TransactionServicer) *TransactionHandler {
	return &TransactionHandler{transactionService: transactionService}
}

// CreateTransactionRequest represents the request payload for recording a transaction.
// Quantity is the traded amount for BUY and SELL and the new position for ADJUST.
type CreateTransactionRequest struct {
	InstrumentID    string                 `json:"instrument_id" binding:"required,uuid"`
	TransactionType models.TransactionType `json:"transaction_type" binding:"required,transaction_type"`
	Quantity        decimal.Decimal        `json:"quantity" binding:"gte=0"`
	Price           decimal.NullDecimal    `json:"price" binding:"omitempty,gte=0"`
	TransactionDate string                 `json:"transaction_date,omitempty"`
	Notes           string                 `json:"notes,omitempty" binding:"max=500"`
}

// CreateTransaction handles recording a transaction and moving the holding.
// @Summary     Record transaction
// @Description BUY adds, SELL subtracts and ADJUST sets the holding quantity
// @Tags        transactions
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Portfolio ID"
// @Param       request body CreateTransactionRequest true "Transaction details"
// @Success     201 {object} map[string]interface{} "Transaction and resulting holding"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     404 {object} ErrorResponse "Portfolio or instrument not found"
// @Failure     422 {object} ErrorResponse "Insufficient quantity"
// @Router      /portfolios/{id}/transactions [post]
func (h *TransactionHandler) CreateTransaction(c *gin.Context) {
	portfolioID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req CreateTransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, bindError(err))
		return
	}

	date, err := parseBodyDate(req.TransactionDate)
	if err != nil {
		respondWithError(c, err)
		return
	}

	txn, holding, err := h.transactionService.RecordTransaction(services.TransactionInput{
		PortfolioID:     portfolioID,
		InstrumentID:    req.InstrumentID,
		TransactionDate: date,
		Type:            req.TransactionType,
		Quantity:        req.Quantity,
		Price:           req.Price,
		Notes:           req.Notes,
		CreatedBy:       getOwner(c),
	})
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"transaction": txn, "holding": holding})
}

// ListTransactions handles listing the transactions of a portfolio.
// @Summary     List transactions
// @Tags        transactions
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Portfolio ID"
// @Param       page query int false "Page number"
// @Param       page_size query int false "Page size"
// @Success     200 {object} pagination.PageResponse[models.Transaction]
// @Failure     404 {object} ErrorResponse "Portfolio not found"
// @Router      /portfolios/{id}/transactions [get]
func (h *TransactionHandler) ListTransactions(c *gin.Context) {
	portfolioID, err := parsePathID(c, "id")
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

	result, err := h.transactionService.ListTransactions(portfolioID, page)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// GetTransaction handles fetching a transaction by ID.
// @Summary     Get transaction
// @Tags        transactions
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Transaction ID"
// @Success     200 {object} models.Transaction
// @Failure     404 {object} ErrorResponse "Transaction not found"
// @Router      /transactions/{id} [get]
func (h *TransactionHandler) GetTransaction(c *gin.Context) {
	id, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	txn, err := h.transactionService.GetTransactionByID(id)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"transaction": txn})
}
