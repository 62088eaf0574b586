package token

import (
	"errors"
	"net/http"

	"ugcads-backend/internal/middleware"
	"ugcads-backend/internal/services"
	"ugcads-backend/internal/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type Handler struct {
	ledger      *services.Ledger
	payments    *services.PaymentService
	purchaseURL string
	log         *zap.Logger
}

func NewHandler(ledger *services.Ledger, payments *services.PaymentService, purchaseURL string, log *zap.Logger) *Handler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Handler{ledger: ledger, payments: payments, purchaseURL: purchaseURL, log: log}
}

// GetBalance godoc
// @Summary Get token balance
// @Tags tokens
// @Produce json
// @Security WhopToken
// @Success 200 {object} utils.Response{data=token.BalanceResponse}
// @Failure 401 {object} utils.Response
// @Failure 404 {object} utils.Response
// @Router /tokens/balance [get]
func (h *Handler) GetBalance(c *gin.Context) {
	userID := middleware.CurrentUserID(c)

	balance, err := h.ledger.GetBalance(c.Request.Context(), userID)
	if err != nil {
		if errors.Is(err, services.ErrUserNotFound) {
			c.JSON(http.StatusNotFound, utils.NewErrorResponse(http.StatusNotFound, "User not found"))
			return
		}
		h.log.Error("Failed to read balance", zap.String("user_id", userID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, utils.NewErrorResponse(http.StatusInternalServerError, "Failed to read balance"))
		return
	}

	c.JSON(http.StatusOK, utils.NewSuccessResponse("Balance retrieved successfully", BalanceResponse{TokenBalance: balance}))
}

// ListTransactions godoc
// @Summary List token purchases
// @Description Newest first
// @Tags tokens
// @Produce json
// @Security WhopToken
// @Param page query int false "Page number" default(1)
// @Param page_size query int false "Items per page" default(20)
// @Success 200 {object} utils.Response{data=utils.Page}
// @Router /tokens/transactions [get]
func (h *Handler) ListTransactions(c *gin.Context) {
	var q ListQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		c.JSON(http.StatusBadRequest, utils.NewErrorResponse(http.StatusBadRequest, "Invalid paging parameters"))
		return
	}
	page, pageSize := services.NormalizePage(q.Page, q.PageSize)

	userID := middleware.CurrentUserID(c)
	txns, total, err := h.ledger.History(c.Request.Context(), userID, page, pageSize)
	if err != nil {
		h.log.Error("Failed to list transactions", zap.String("user_id", userID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, utils.NewErrorResponse(http.StatusInternalServerError, "Failed to list transactions"))
		return
	}

	c.JSON(http.StatusOK, utils.NewSuccessResponse("Transactions retrieved successfully", utils.Page{
		Items:    txns,
		Total:    total,
		Page:     page,
		PageSize: pageSize,
	}))
}

// ListPackages godoc
// @Summary List token packages
// @Tags tokens
// @Produce json
// @Success 200 {object} utils.Response{data=token.PackagesResponse}
// @Router /tokens/packages [get]
func (h *Handler) ListPackages(c *gin.Context) {
	c.JSON(http.StatusOK, utils.NewSuccessResponse("Packages retrieved successfully", PackagesResponse{
		Packages:    h.payments.Packages(),
		PurchaseURL: h.purchaseURL,
	}))
}
