package user

import (
	"errors"
	"net/http"
	"time"

	"ugcads-backend/internal/middleware"
	"ugcads-backend/internal/services"
	"ugcads-backend/internal/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type Handler struct {
	users  *services.UserService
	ledger *services.Ledger
	blocks *services.Blocklist
	log    *zap.Logger
}

// NewHandler builds the handler. blocks may be nil when Redis is not configured.
func NewHandler(users *services.UserService, ledger *services.Ledger, blocks *services.Blocklist, log *zap.Logger) *Handler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Handler{users: users, ledger: ledger, blocks: blocks, log: log}
}

// ListUsers godoc
// @Summary List all users
// @Description Get a paginated list of users, newest first. Admin only.
// @Tags admin
// @Produce json
// @Security WhopToken
// @Param page query int false "Page number" default(1)
// @Param page_size query int false "Items per page" default(20)
// @Success 200 {object} utils.Response{data=utils.Page}
// @Failure 400 {object} utils.Response
// @Failure 401 {object} utils.Response
// @Failure 403 {object} utils.Response
// @Failure 500 {object} utils.Response
// @Router /admin/users [get]
func (h *Handler) ListUsers(c *gin.Context) {
	var q ListQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		c.JSON(http.StatusBadRequest, utils.NewErrorResponse(http.StatusBadRequest, "Invalid paging parameters"))
		return
	}
	page, pageSize := services.NormalizePage(q.Page, q.PageSize)

	users, total, err := h.users.ListUsers(c.Request.Context(), page, pageSize)
	if err != nil {
		h.log.Error("Failed to fetch users", zap.Error(err))
		c.JSON(http.StatusInternalServerError, utils.NewErrorResponse(http.StatusInternalServerError, "Failed to fetch users"))
		return
	}

	items := make([]UserListItem, 0, len(users))
	for _, u := range users {
		items = append(items, UserListItem{
			ID:           u.ID,
			Email:        u.Email,
			TokenBalance: u.TokenBalance,
			CreatedAt:    u.CreatedAt,
			UpdatedAt:    u.UpdatedAt,
		})
	}

	c.JSON(http.StatusOK, utils.NewSuccessResponse("Users retrieved successfully", utils.Page{
		Items:    items,
		Total:    total,
		Page:     page,
		PageSize: pageSize,
	}))
}

// GrantTokens godoc
// @Summary Grant tokens to a user
// @Description Credits tokens without a payment. A repeated reference is rejected. Admin only.
// @Tags admin
// @Accept json
// @Produce json
// @Security WhopToken
// @Param id path string true "User ID"
// @Param request body GrantRequest true "Grant"
// @Success 200 {object} utils.Response{data=GrantResponse}
// @Failure 400 {object} utils.Response
// @Failure 403 {object} utils.Response
// @Failure 404 {object} utils.Response
// @Failure 409 {object} utils.Response
// @Router /admin/users/{id}/tokens [post]
func (h *Handler) GrantTokens(c *gin.Context) {
	userID := c.Param("id")

	var req GrantRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}

	ctx := c.Request.Context()
	if _, err := h.users.FindUserByID(ctx, userID); err != nil {
		if errors.Is(err, services.ErrUserNotFound) {
			c.JSON(http.StatusNotFound, utils.NewErrorResponse(http.StatusNotFound, "User not found"))
			return
		}
		h.log.Error("Failed to load user", zap.String("user_id", userID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, utils.NewErrorResponse(http.StatusInternalServerError, "Failed to load user"))
		return
	}

	operator := middleware.CurrentUserID(c)
	balance, err := h.ledger.Grant(ctx, userID, req.Tokens, req.Reference, req.Reason, operator)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrDuplicatePayment):
			c.JSON(http.StatusConflict, utils.NewErrorResponse(http.StatusConflict, "Grant reference already used"))
		case errors.Is(err, services.ErrLedgerBusy):
			c.JSON(http.StatusServiceUnavailable, utils.NewErrorResponse(http.StatusServiceUnavailable, err.Error()))
		default:
			h.log.Error("Failed to grant tokens", zap.String("user_id", userID), zap.Error(err))
			c.JSON(http.StatusInternalServerError, utils.NewErrorResponse(http.StatusInternalServerError, "Failed to grant tokens"))
		}
		return
	}

	h.log.Info("Tokens granted",
		zap.String("user_id", userID),
		zap.String("operator", operator),
		zap.Int64("tokens", req.Tokens),
		zap.String("reason", req.Reason),
	)
	c.JSON(http.StatusOK, utils.NewSuccessResponse("Tokens granted successfully", GrantResponse{
		UserID:       userID,
		TokenBalance: balance,
	}))
}

// BlockUser godoc
// @Summary Suspend a user
// @Description Blocks a user from the member API, optionally for a limited time. Admin only.
// @Tags admin
// @Accept json
// @Produce json
// @Security WhopToken
// @Param id path string true "User ID"
// @Param request body BlockRequest true "Block"
// @Success 200 {object} utils.Response
// @Failure 400 {object} utils.Response
// @Failure 404 {object} utils.Response
// @Failure 503 {object} utils.Response
// @Router /admin/users/{id}/block [post]
func (h *Handler) BlockUser(c *gin.Context) {
	if h.blocks == nil {
		c.JSON(http.StatusServiceUnavailable, utils.NewErrorResponse(http.StatusServiceUnavailable, "Blocklist is not configured"))
		return
	}

	var req BlockRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}

	userID := c.Param("id")
	ctx := c.Request.Context()
	if _, err := h.users.FindUserByID(ctx, userID); err != nil {
		if errors.Is(err, services.ErrUserNotFound) {
			c.JSON(http.StatusNotFound, utils.NewErrorResponse(http.StatusNotFound, "User not found"))
			return
		}
		h.log.Error("Failed to load user", zap.String("user_id", userID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, utils.NewErrorResponse(http.StatusInternalServerError, "Failed to load user"))
		return
	}

	ttl := time.Duration(req.DurationHours) * time.Hour
	if err := h.blocks.Block(ctx, userID, req.Reason, ttl); err != nil {
		h.log.Error("Failed to block user", zap.String("user_id", userID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, utils.NewErrorResponse(http.StatusInternalServerError, "Failed to block user"))
		return
	}

	h.log.Warn("User blocked",
		zap.String("user_id", userID),
		zap.String("operator", middleware.CurrentUserID(c)),
		zap.Duration("ttl", ttl),
		zap.String("reason", req.Reason),
	)
	c.JSON(http.StatusOK, utils.NewSuccessResponse("User blocked successfully", nil))
}

// UnblockUser godoc
// @Summary Lift a suspension
// @Tags admin
// @Produce json
// @Security WhopToken
// @Param id path string true "User ID"
// @Success 200 {object} utils.Response
// @Failure 503 {object} utils.Response
// @Router /admin/users/{id}/block [delete]
func (h *Handler) UnblockUser(c *gin.Context) {
	if h.blocks == nil {
		c.JSON(http.StatusServiceUnavailable, utils.NewErrorResponse(http.StatusServiceUnavailable, "Blocklist is not configured"))
		return
	}

	userID := c.Param("id")
	if err := h.blocks.Unblock(c.Request.Context(), userID); err != nil {
		h.log.Error("Failed to unblock user", zap.String("user_id", userID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, utils.NewErrorResponse(http.StatusInternalServerError, "Failed to unblock user"))
		return
	}

	h.log.Info("User unblocked", zap.String("user_id", userID), zap.String("operator", middleware.CurrentUserID(c)))
	c.JSON(http.StatusOK, utils.NewSuccessResponse("User unblocked successfully", nil))
}
