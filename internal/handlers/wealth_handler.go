package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"wealthbook/internal/dates"
	"wealthbook/internal/models"
	"wealthbook/internal/pagination"
	"wealthbook/internal/services"
)

// WealthHandler handles wealth categories, values and snapshots.
type WealthHandler struct {
	wealthService services.WealthServicer
}

// NewWealthHandler creates a new WealthHandler.
func NewWealthHandler(wealthService services.WealthServicer) *WealthHandler {
	return &WealthHandler{wealthService: wealthService}
}

// CreateCategoryRequest represents the request payload for creating a wealth category.
type CreateCategoryRequest struct {
	CategoryType models.CategoryType `json:"category_type" binding:"required,wealth_category_type"`
	Name         string              `json:"name" binding:"required,min=1,max=200"`
	Currency     string              `json:"currency" binding:"omitempty,iso4217"`
	IsLiability  bool                `json:"is_liability"`
}

// UpdateCategoryRequest represents the request payload for updating a wealth category.
type UpdateCategoryRequest struct {
	Name        *string `json:"name" binding:"omitempty,min=1,max=200"`
	Currency    *string `json:"currency" binding:"omitempty,iso4217"`
	IsLiability *bool   `json:"is_liability"`
}

// UpsertValueRequest sets the present value of a category on a date.
// The value may be zero or negative.
type UpsertValueRequest struct {
	CategoryID   string          `json:"category_id" binding:"required,uuid"`
	ValueDate    string          `json:"value_date,omitempty"`
	PresentValue decimal.Decimal `json:"present_value"`
	Note         string          `json:"note,omitempty" binding:"max=500"`
}

// CategoryTypeQuery filters by category type.
type CategoryTypeQuery struct {
	Type string `form:"type" binding:"omitempty,wealth_category_type"`
}

// ListValuesQuery filters the values of a date.
type ListValuesQuery struct {
	CategoryTypeQuery
	Date string `form:"date"`
}

// CreateCategory handles creating a wealth category.
// @Summary     Create wealth category
// @Tags        wealth
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body CreateCategoryRequest true "Category details"
// @Success     201 {object} models.WealthCategory "Category created"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     409 {object} ErrorResponse "Duplicate category"
// @Router      /wealth/categories [post]
func (h *WealthHandler) CreateCategory(c *gin.Context) {
	var req CreateCategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, bindError(err))
		return
	}

	cat, err := h.wealthService.CreateCategory(req.CategoryType, req.Name, req.Currency, req.IsLiability)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"category": cat})
}

// ListCategories handles listing wealth categories.
// @Summary     List wealth categories
// @Tags        wealth
// @Produce     json
// @Security    BearerAuth
// @Param       type query string false "Category type"
// @Success     200 {object} map[string][]models.WealthCategory
// @Router      /wealth/categories [get]
func (h *WealthHandler) ListCategories(c *gin.Context) {
	var q CategoryTypeQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		respondWithError(c, bindError(err))
		return
	}

	cats, err := h.wealthService.ListCategories(q.Type)
	if err != nil {
		respondWithError(c, err)
		return
	}
	if cats == nil {
		cats = []models.WealthCategory{}
	}

	c.JSON(http.StatusOK, gin.H{"categories": cats})
}

// GetCategory handles fetching a wealth category.
// @Summary     Get wealth category
// @Tags        wealth
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Category ID"
// @Success     200 {object} models.WealthCategory
// @Failure     404 {object} ErrorResponse "Category not found"
// @Router      /wealth/categories/{id} [get]
func (h *WealthHandler) GetCategory(c *gin.Context) {
	id, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	cat, err := h.wealthService.GetCategory(id)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"category": cat})
}

// UpdateCategory handles updating a wealth category.
// @Summary     Update wealth category
// @Tags        wealth
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Category ID"
// @Param       request body UpdateCategoryRequest true "Fields to change"
// @Success     200 {object} models.WealthCategory
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     404 {object} ErrorResponse "Category not found"
// @Router      /wealth/categories/{id} [put]
func (h *WealthHandler) UpdateCategory(c *gin.Context) {
	id, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req UpdateCategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, bindError(err))
		return
	}

	cat, err := h.wealthService.UpdateCategory(id, services.CategoryUpdate{
		Name:        req.Name,
		Currency:    req.Currency,
		IsLiability: req.IsLiability,
	})
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"category": cat})
}

// DeleteCategory handles deleting a wealth category and its values.
// @Summary     Delete wealth category
// @Tags        wealth
// @Security    BearerAuth
// @Param       id path string true "Category ID"
// @Success     204 "Deleted"
// @Failure     404 {object} ErrorResponse "Category not found"
// @Router      /wealth/categories/{id} [delete]
func (h *WealthHandler) DeleteCategory(c *gin.Context) {
	id, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	if err := h.wealthService.DeleteCategory(id); err != nil {
		respondWithError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// UpsertValue handles setting the value of a category on a date.
// @Summary     Set wealth value
// @Tags        wealth
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body UpsertValueRequest true "Value details"
// @Success     200 {object} models.WealthValue
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     404 {object} ErrorResponse "Category not found"
// @Router      /wealth/values [put]
func (h *WealthHandler) UpsertValue(c *gin.Context) {
	var req UpsertValueRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, bindError(err))
		return
	}
	date, err := parseBodyDate(req.ValueDate)
	if err != nil {
		respondWithError(c, err)
		return
	}

	value, err := h.wealthService.UpsertValue(c.Request.Context(), req.CategoryID, date, req.PresentValue, req.Note)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"value": value})
}

// ListValues handles listing the values recorded on a date.
// @Summary     List wealth values
// @Tags        wealth
// @Produce     json
// @Security    BearerAuth
// @Param       date query string false "Date (YYYY-MM-DD), defaults to today"
// @Param       type query string false "Category type"
// @Success     200 {object} map[string][]services.WealthValueView
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Router      /wealth/values [get]
func (h *WealthHandler) ListValues(c *gin.Context) {
	var q ListValuesQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		respondWithError(c, bindError(err))
		return
	}
	date, err := parseBodyDate(q.Date)
	if err != nil {
		respondWithError(c, err)
		return
	}

	values, err := h.wealthService.ListValues(date, q.Type)
	if err != nil {
		respondWithError(c, err)
		return
	}
	if values == nil {
		values = []services.WealthValueView{}
	}

	c.JSON(http.StatusOK, gin.H{"value_date": dates.Format(date), "values": values})
}

// GetValueHistory handles listing the values of one category over a range.
// @Summary     Wealth value history
// @Tags        wealth
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Category ID"
// @Param       from query string false "Start date"
// @Param       to query string false "End date"
// @Success     200 {object} map[string][]models.WealthValue
// @Failure     404 {object} ErrorResponse "Category not found"
// @Router      /wealth/categories/{id}/values [get]
func (h *WealthHandler) GetValueHistory(c *gin.Context) {
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

	values, err := h.wealthService.GetValueHistory(id, from, to)
	if err != nil {
		respondWithError(c, err)
		return
	}
	if values == nil {
		values = []models.WealthValue{}
	}

	c.JSON(http.StatusOK, gin.H{"values": values})
}

// DeleteValue handles deleting a wealth value.
// @Summary     Delete wealth value
// @Tags        wealth
// @Security    BearerAuth
// @Param       id path string true "Value ID"
// @Success     204 "Deleted"
// @Failure     404 {object} ErrorResponse "Value not found"
// @Router      /wealth/values/{id} [delete]
func (h *WealthHandler) DeleteValue(c *gin.Context) {
	id, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	if err := h.wealthService.DeleteValue(id); err != nil {
		respondWithError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// GetTotalWealth handles previewing the aggregation of a date without storing it.
// @Summary     Total wealth preview
// @Tags        wealth
// @Produce     json
// @Security    BearerAuth
// @Param       date path string true "Date (YYYY-MM-DD)"
// @Success     200 {object} services.WealthBreakdown
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Router      /wealth/total/{date} [get]
func (h *WealthHandler) GetTotalWealth(c *gin.Context) {
	date, err := parsePathDate(c, "date")
	if err != nil {
		respondWithError(c, err)
		return
	}

	breakdown, err := h.wealthService.ComputeTotalWealth(c.Request.Context(), date)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, breakdown)
}

// CreateSnapshot handles aggregating and storing the snapshot of a date.
// @Summary     Aggregate wealth snapshot
// @Tags        wealth
// @Produce     json
// @Security    BearerAuth
// @Param       date path string true "Date (YYYY-MM-DD)"
// @Success     200 {object} map[string]interface{} "Snapshot and batch result"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Router      /wealth/snapshots/{date} [post]
func (h *WealthHandler) CreateSnapshot(c *gin.Context) {
	date, err := parsePathDate(c, "date")
	if err != nil {
		respondWithError(c, err)
		return
	}

	snap, result, err := h.wealthService.AggregateSnapshot(c.Request.Context(), date)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"snapshot": snap, "result": result})
}

// GetSnapshot handles fetching the stored snapshot of a date.
// @Summary     Get wealth snapshot
// @Tags        wealth
// @Produce     json
// @Security    BearerAuth
// @Param       date path string true "Date (YYYY-MM-DD)"
// @Success     200 {object} models.TotalWealthSnapshot
// @Failure     404 {object} ErrorResponse "Snapshot not found"
// @Router      /wealth/snapshots/{date} [get]
func (h *WealthHandler) GetSnapshot(c *gin.Context) {
	date, err := parsePathDate(c, "date")
	if err != nil {
		respondWithError(c, err)
		return
	}

	snap, err := h.wealthService.GetSnapshot(date)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"snapshot": snap})
}

// ListSnapshots handles listing stored snapshots, newest first.
// @Summary     List wealth snapshots
// @Tags        wealth
// @Produce     json
// @Security    BearerAuth
// @Param       from query string false "Start date"
// @Param       to query string false "End date"
// @Param       page query int false "Page number"
// @Param       page_size query int false "Page size"
// @Success     200 {object} pagination.PageResponse[models.TotalWealthSnapshot]
// @Router      /wealth/snapshots [get]
func (h *WealthHandler) ListSnapshots(c *gin.Context) {
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

	result, err := h.wealthService.ListSnapshots(from, to, page)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// GetYoYChange handles comparing net wealth with the previous year.
// @Summary     Year-over-year change
// @Tags        wealth
// @Produce     json
// @Security    BearerAuth
// @Param       date path string true "Date (YYYY-MM-DD)"
// @Success     200 {object} services.YoYChange
// @Failure     404 {object} ErrorResponse "Snapshot not found"
// @Router      /wealth/yoy/{date} [get]
func (h *WealthHandler) GetYoYChange(c *gin.Context) {
	date, err := parsePathDate(c, "date")
	if err != nil {
		respondWithError(c, err)
		return
	}

	change, err := h.wealthService.GetYoYChange(date)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, change)
}

// ListValueDates handles listing the dates that carry wealth values.
// @Summary     Wealth value dates
// @Tags        wealth
// @Produce     json
// @Security    BearerAuth
// @Success     200 {object} map[string][]string
// @Router      /wealth/dates [get]
func (h *WealthHandler) ListValueDates(c *gin.Context) {
	days, err := h.wealthService.ValueDates()
	if err != nil {
		respondWithError(c, err)
		return
	}

	out := make([]string, len(days))
	for i, d := range days {
		out[i] = dates.Format(d)
	}

	c.JSON(http.StatusOK, gin.H{"dates": out})
}
