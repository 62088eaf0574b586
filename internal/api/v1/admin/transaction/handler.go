package transaction

import (
	"fmt"
	"net/http"
	"time"

	"ugcads-backend/internal/services"
	"ugcads-backend/internal/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type Handler struct {
	ledger *services.Ledger
	log    *zap.Logger
}

func NewHandler(ledger *services.Ledger, log *zap.Logger) *Handler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Handler{ledger: ledger, log: log}
}

// ListTransactions godoc
// @Summary List transactions
// @Description Get a paginated list of ledger credits with filtering. Admin only.
// @Tags admin
// @Produce json
// @Security WhopToken
// @Param page query int false "Page number" default(1)
// @Param page_size query int false "Items per page" default(20)
// @Param user_id query string false "Filter by user ID"
// @Param start_time query string false "Filter by start time (RFC3339)"
// @Param end_time query string false "Filter by end time (RFC3339)"
// @Success 200 {object} utils.Response{data=utils.Page}
// @Failure 400 {object} utils.Response
// @Failure 401 {object} utils.Response
// @Failure 403 {object} utils.Response
// @Failure 500 {object} utils.Response
// @Router /admin/transactions [get]
func (h *Handler) ListTransactions(c *gin.Context) {
	filter, q, ok := h.bindFilter(c)
	if !ok {
		return
	}
	page, pageSize := services.NormalizePage(q.Page, q.PageSize)

	txns, total, err := h.ledger.ListTransactions(c.Request.Context(), filter, page, pageSize)
	if err != nil {
		h.log.Error("Failed to fetch transactions", zap.Error(err))
		c.JSON(http.StatusInternalServerError, utils.NewErrorResponse(http.StatusInternalServerError, "Failed to fetch transactions"))
		return
	}

	c.JSON(http.StatusOK, utils.NewSuccessResponse("Transactions retrieved successfully", utils.Page{
		Items:    txns,
		Total:    total,
		Page:     page,
		PageSize: pageSize,
	}))
}

// ExportTransactions godoc
// @Summary Export transactions
// @Description Export matching transactions to CSV. Admin only.
// @Tags admin
// @Produce text/csv
// @Security WhopToken
// @Param user_id query string false "Filter by user ID"
// @Param start_time query string false "Filter by start time (RFC3339)"
// @Param end_time query string false "Filter by end time (RFC3339)"
// @Success 200 {string} string "CSV content"
// @Failure 400 {object} utils.Response
// @Failure 401 {object} utils.Response
// @Failure 403 {object} utils.Response
// @Failure 500 {object} utils.Response
// @Router /admin/transactions/export [get]
func (h *Handler) ExportTransactions(c *gin.Context) {
	filter, _, ok := h.bindFilter(c)
	if !ok {
		return
	}

	csvContent, err := h.ledger.ExportTransactions(c.Request.Context(), filter)
	if err != nil {
		h.log.Error("Failed to export transactions", zap.Error(err))
		c.JSON(http.StatusInternalServerError, utils.NewErrorResponse(http.StatusInternalServerError, "Failed to generate CSV"))
		return
	}

	filename := fmt.Sprintf("transactions_%s.csv", time.Now().Format("20060102150405"))
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s", filename))
	c.Data(http.StatusOK, "text/csv", csvContent)
}

func (h *Handler) bindFilter(c *gin.Context) (services.TransactionFilter, FilterQuery, bool) {
	var q FilterQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		c.JSON(http.StatusBadRequest, utils.NewErrorResponse(http.StatusBadRequest, "Invalid query parameters"))
		return services.TransactionFilter{}, q, false
	}
	filter, err := q.filter()
	if err != nil {
		c.JSON(http.StatusBadRequest, utils.NewErrorResponse(http.StatusBadRequest, err.Error()))
		return services.TransactionFilter{}, q, false
	}
	return filter, q, true
}
