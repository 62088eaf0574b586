package user

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
	users *services.UserService
	log   *zap.Logger
}

func NewHandler(users *services.UserService, log *zap.Logger) *Handler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Handler{users: users, log: log}
}

// Me godoc
// @Summary Get current user
// @Description Returns the caller's platform profile and token balance
// @Tags user
// @Produce json
// @Security WhopToken
// @Success 200 {object} utils.Response{data=user.MeResponse}
// @Failure 401 {object} utils.Response
// @Failure 502 {object} utils.Response
// @Router /me [get]
func (h *Handler) Me(c *gin.Context) {
	userID := middleware.CurrentUserID(c)
	ctx := c.Request.Context()

	profile, err := h.users.Profile(ctx, userID)
	if err != nil {
		h.log.Warn("Failed to load profile", zap.String("user_id", userID), zap.Error(err))
		if errors.Is(err, services.ErrUpstreamFailure) {
			c.JSON(http.StatusBadGateway, utils.NewErrorResponse(http.StatusBadGateway, "Failed to load profile"))
			return
		}
		c.JSON(http.StatusInternalServerError, utils.NewErrorResponse(http.StatusInternalServerError, "Failed to load profile"))
		return
	}

	// Re-read after Profile, which may have filled in the email.
	u, err := h.users.FindUserByID(ctx, userID)
	if err != nil {
		h.log.Error("Failed to load user", zap.String("user_id", userID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, utils.NewErrorResponse(http.StatusInternalServerError, "Failed to load user"))
		return
	}

	c.JSON(http.StatusOK, utils.NewSuccessResponse("User information retrieved successfully", MeResponse{
		ID:           u.ID,
		Email:        u.Email,
		TokenBalance: u.TokenBalance,
		Profile:      profile,
	}))
}
