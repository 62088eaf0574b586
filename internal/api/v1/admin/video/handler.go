// Package video exposes operator tools for jobs the generation backend never
// settled.
package video

import (
	"errors"
	"net/http"

	"ugcads-backend/internal/middleware"
	"ugcads-backend/internal/services"
	"ugcads-backend/internal/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type FailRequest struct {
	Reason string `json:"reason" binding:"required,max=2000"`
}

type Handler struct {
	videos *services.VideoService
	log    *zap.Logger
}

func NewHandler(videos *services.VideoService, log *zap.Logger) *Handler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Handler{videos: videos, log: log}
}

// GetVideo godoc
// @Summary Get any video
// @Tags admin
// @Produce json
// @Security WhopToken
// @Param id path string true "Video ID"
// @Success 200 {object} utils.Response{data=models.Video}
// @Failure 403 {object} utils.Response
// @Failure 404 {object} utils.Response
// @Router /admin/videos/{id} [get]
func (h *Handler) GetVideo(c *gin.Context) {
	video, err := h.videos.FindVideo(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, utils.NewSuccessResponse("Video retrieved successfully", video))
}

// FailVideo godoc
// @Summary Fail a stuck video
// @Description Marks a processing video failed and refunds its owner. Admin only.
// @Tags admin
// @Accept json
// @Produce json
// @Security WhopToken
// @Param id path string true "Video ID"
// @Param request body FailRequest true "Reason"
// @Success 200 {object} utils.Response{data=models.Video}
// @Failure 400 {object} utils.Response
// @Failure 403 {object} utils.Response
// @Failure 404 {object} utils.Response
// @Failure 409 {object} utils.Response
// @Router /admin/videos/{id}/fail [post]
func (h *Handler) FailVideo(c *gin.Context) {
	var req FailRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}

	videoID := c.Param("id")
	video, err := h.videos.FailVideo(c.Request.Context(), videoID, req.Reason)
	if err != nil {
		h.writeError(c, err)
		return
	}

	h.log.Info("Video failed by operator",
		zap.String("video_id", videoID),
		zap.String("operator", middleware.CurrentUserID(c)),
	)
	c.JSON(http.StatusOK, utils.NewSuccessResponse("Video failed and refunded", video))
}

func (h *Handler) writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrVideoNotFound):
		c.JSON(http.StatusNotFound, utils.NewErrorResponse(http.StatusNotFound, "Video not found"))
	case errors.Is(err, services.ErrInvalidTransition):
		c.JSON(http.StatusConflict, utils.NewErrorResponse(http.StatusConflict, "Video is not processing"))
	case errors.Is(err, services.ErrLedgerBusy):
		c.JSON(http.StatusServiceUnavailable, utils.NewErrorResponse(http.StatusServiceUnavailable, err.Error()))
	default:
		h.log.Error("Admin video operation failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, utils.NewErrorResponse(http.StatusInternalServerError, "Internal server error"))
	}
}
