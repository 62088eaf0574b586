package generation

import (
	"errors"
	"net/http"

	"ugcads-backend/internal/models"
	"ugcads-backend/internal/services"
	"ugcads-backend/internal/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// CallbackRequest is the generation backend's report on a job.
type CallbackRequest struct {
	VideoID  string `json:"video_id" binding:"required"`
	Status   string `json:"status" binding:"required,oneof=completed failed"`
	VideoURL string `json:"video_url" binding:"required_if=Status completed,max=2048"`
	Error    string `json:"error" binding:"max=2000"`
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

// Callback godoc
// @Summary Report a generation result
// @Description Moves a processing video to completed or failed. Failed videos are refunded.
// @Tags generation
// @Accept json
// @Produce json
// @Param X-Generation-Secret header string true "Shared secret"
// @Param request body CallbackRequest true "Result"
// @Success 200 {object} utils.Response{data=models.Video}
// @Failure 404 {object} utils.Response
// @Failure 409 {object} utils.Response
// @Router /generation/callback [post]
func (h *Handler) Callback(c *gin.Context) {
	var req CallbackRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}

	var (
		video *models.Video
		err   error
	)
	ctx := c.Request.Context()
	if req.Status == string(models.VideoStatusCompleted) {
		video, err = h.videos.CompleteVideo(ctx, req.VideoID, req.VideoURL)
	} else {
		reason := req.Error
		if reason == "" {
			reason = "generation failed"
		}
		video, err = h.videos.FailVideo(ctx, req.VideoID, reason)
	}

	switch {
	case err == nil:
		c.JSON(http.StatusOK, utils.NewSuccessResponse("Video updated successfully", video))
	case errors.Is(err, services.ErrVideoNotFound):
		c.JSON(http.StatusNotFound, utils.NewErrorResponse(http.StatusNotFound, "Video not found"))
	case errors.Is(err, services.ErrInvalidTransition):
		c.JSON(http.StatusConflict, utils.NewErrorResponse(http.StatusConflict, "Video is not processing"))
	default:
		h.log.Error("Callback failed", zap.String("video_id", req.VideoID), zap.String("status", req.Status), zap.Error(err))
		c.JSON(http.StatusInternalServerError, utils.NewErrorResponse(http.StatusInternalServerError, "Failed to update video"))
	}
}
