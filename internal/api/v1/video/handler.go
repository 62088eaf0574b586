package video

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"ugcads-backend/internal/middleware"
	"ugcads-backend/internal/models"
	"ugcads-backend/internal/notify"
	"ugcads-backend/internal/services"
	"ugcads-backend/internal/utils"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

type Config struct {
	PurchaseURL    string
	UploadMaxBytes int64
	AllowedOrigins []string
}

type Handler struct {
	videos   *services.VideoService
	hub      *notify.Hub
	cfg      Config
	upgrader websocket.Upgrader
	log      *zap.Logger
}

// NewHandler wires the video endpoints. hub may be nil, which disables the
// websocket endpoint.
func NewHandler(videos *services.VideoService, hub *notify.Hub, cfg Config, log *zap.Logger) *Handler {
	if log == nil {
		log = zap.NewNop()
	}
	h := &Handler{videos: videos, hub: hub, cfg: cfg, log: log}
	h.upgrader = websocket.Upgrader{CheckOrigin: h.checkOrigin}
	return h
}

// CreateVideo godoc
// @Summary Create a video
// @Description Charges the generation cost and queues the video. Responds 402 when the balance is too low.
// @Tags videos
// @Accept json
// @Produce json
// @Security WhopToken
// @Param request body CreateVideoRequest true "Prompt"
// @Success 200 {object} utils.Response{data=models.Video}
// @Failure 400 {object} utils.Response{data=utils.ValidationErrorData}
// @Failure 402 {object} utils.Response{data=video.InsufficientTokensData}
// @Failure 500 {object} utils.Response
// @Router /videos/create [post]
func (h *Handler) CreateVideo(c *gin.Context) {
	var req CreateVideoRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}
	if len(req.PromptData.Scenes) == 0 && len(req.PromptData.Segments) == 0 {
		c.JSON(http.StatusBadRequest, utils.NewResponse(http.StatusBadRequest, "Invalid request parameters", utils.ValidationErrorData{
			Errors: []utils.ValidationErrorDetail{{
				Field:    "scenes",
				Message:  "At least one scene or segment is required",
				Expected: "1-4 items",
				Received: 0,
			}},
		}))
		return
	}

	video, err := h.videos.CreateVideo(c.Request.Context(), middleware.CurrentUserID(c), req.PromptData.toModel())
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, utils.NewSuccessResponse("Video job created successfully", video))
}

// UploadVideo godoc
// @Summary Upload a finished video
// @Tags videos
// @Accept multipart/form-data
// @Produce json
// @Security WhopToken
// @Param video formData file true "Video file"
// @Param prompt_data formData string false "Prompt as JSON"
// @Success 200 {object} utils.Response{data=models.Video}
// @Failure 400 {object} utils.Response
// @Failure 402 {object} utils.Response{data=video.InsufficientTokensData}
// @Failure 413 {object} utils.Response
// @Router /videos/upload [post]
func (h *Handler) UploadVideo(c *gin.Context) {
	if h.cfg.UploadMaxBytes > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.cfg.UploadMaxBytes+(1<<20))
	}

	fileHeader, err := c.FormFile("video")
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			c.JSON(http.StatusRequestEntityTooLarge, utils.NewErrorResponse(http.StatusRequestEntityTooLarge, "Video is too large"))
			return
		}
		c.JSON(http.StatusBadRequest, utils.NewErrorResponse(http.StatusBadRequest, "Field 'video' is required"))
		return
	}
	if h.cfg.UploadMaxBytes > 0 && fileHeader.Size > h.cfg.UploadMaxBytes {
		c.JSON(http.StatusRequestEntityTooLarge, utils.NewErrorResponse(http.StatusRequestEntityTooLarge, "Video is too large"))
		return
	}

	contentType := fileHeader.Header.Get("Content-Type")
	if !strings.HasPrefix(contentType, "video/") {
		c.JSON(http.StatusBadRequest, utils.NewErrorResponse(http.StatusBadRequest, "File must be a video"))
		return
	}

	var prompt PromptRequest
	if raw := c.PostForm("prompt_data"); raw != "" {
		if err := json.Unmarshal([]byte(raw), &prompt); err != nil {
			c.JSON(http.StatusBadRequest, utils.NewErrorResponse(http.StatusBadRequest, "Field 'prompt_data' must be a JSON object"))
			return
		}
		if err := binding.Validator.ValidateStruct(&prompt); err != nil {
			c.JSON(http.StatusBadRequest, utils.NewResponse(http.StatusBadRequest, "Invalid request parameters", utils.ValidationErrorData{
				Errors: utils.DescribeBindError(err),
			}))
			return
		}
	}

	file, err := fileHeader.Open()
	if err != nil {
		h.log.Error("Failed to open upload", zap.Error(err))
		c.JSON(http.StatusInternalServerError, utils.NewErrorResponse(http.StatusInternalServerError, "Failed to read upload"))
		return
	}
	defer file.Close()

	video, err := h.videos.UploadVideo(c.Request.Context(), middleware.CurrentUserID(c), services.Upload{
		Filename:    fileHeader.Filename,
		ContentType: contentType,
		Size:        fileHeader.Size,
		Body:        file,
	}, prompt.toModel())
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, utils.NewSuccessResponse("Video uploaded successfully", video))
}

// ListVideos godoc
// @Summary List videos
// @Description The caller's videos, newest first
// @Tags videos
// @Produce json
// @Security WhopToken
// @Param status query string false "processing, completed or failed"
// @Param page query int false "Page number" default(1)
// @Param page_size query int false "Items per page" default(20)
// @Success 200 {object} utils.Response{data=utils.Page}
// @Router /videos [get]
func (h *Handler) ListVideos(c *gin.Context) {
	var q ListQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		c.JSON(http.StatusBadRequest, utils.NewResponse(http.StatusBadRequest, "Invalid request parameters", utils.ValidationErrorData{
			Errors: utils.DescribeBindError(err),
		}))
		return
	}
	page, pageSize := services.NormalizePage(q.Page, q.PageSize)

	videos, total, err := h.videos.ListVideos(c.Request.Context(), middleware.CurrentUserID(c), models.VideoStatus(q.Status), page, pageSize)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, utils.NewSuccessResponse("Videos retrieved successfully", utils.Page{
		Items:    videos,
		Total:    total,
		Page:     page,
		PageSize: pageSize,
	}))
}

// GetVideo godoc
// @Summary Get a video
// @Tags videos
// @Produce json
// @Security WhopToken
// @Param id path string true "Video ID"
// @Success 200 {object} utils.Response{data=models.Video}
// @Failure 404 {object} utils.Response
// @Router /videos/{id} [get]
func (h *Handler) GetVideo(c *gin.Context) {
	video, err := h.videos.GetVideo(c.Request.Context(), middleware.CurrentUserID(c), c.Param("id"))
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, utils.NewSuccessResponse("Video retrieved successfully", video))
}

// Subscribe upgrades to a websocket that receives the caller's video events.
func (h *Handler) Subscribe(c *gin.Context) {
	if h.hub == nil {
		c.JSON(http.StatusNotFound, utils.NewErrorResponse(http.StatusNotFound, "Live updates are disabled"))
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Warn("Websocket upgrade failed", zap.Error(err))
		return
	}

	client := notify.NewClient(h.hub, conn, middleware.CurrentUserID(c))
	h.hub.Register(client)
	go client.Serve()
}

func (h *Handler) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" || len(h.cfg.AllowedOrigins) == 0 {
		return true
	}
	for _, allowed := range h.cfg.AllowedOrigins {
		if allowed == "*" || strings.EqualFold(allowed, origin) {
			return true
		}
	}
	return false
}

func (h *Handler) writeError(c *gin.Context, err error) {
	var shortfall *services.InsufficientBalanceError
	switch {
	case errors.As(err, &shortfall):
		c.JSON(http.StatusPaymentRequired, utils.NewResponse(http.StatusPaymentRequired, "Insufficient token balance", InsufficientTokensData{
			PurchaseURL: h.cfg.PurchaseURL,
			Required:    shortfall.Required,
			Balance:     shortfall.Balance,
		}))
	case errors.Is(err, services.ErrInsufficientBalance):
		c.JSON(http.StatusPaymentRequired, utils.NewResponse(http.StatusPaymentRequired, "Insufficient token balance", InsufficientTokensData{
			PurchaseURL: h.cfg.PurchaseURL,
		}))
	case errors.Is(err, services.ErrUnauthenticated):
		c.JSON(http.StatusUnauthorized, utils.NewErrorResponse(http.StatusUnauthorized, "Unauthorized"))
	case errors.Is(err, services.ErrVideoNotFound):
		c.JSON(http.StatusNotFound, utils.NewErrorResponse(http.StatusNotFound, "Video not found"))
	case errors.Is(err, services.ErrUserNotFound):
		c.JSON(http.StatusNotFound, utils.NewErrorResponse(http.StatusNotFound, "User not found"))
	case errors.Is(err, services.ErrLedgerBusy):
		c.JSON(http.StatusServiceUnavailable, utils.NewErrorResponse(http.StatusServiceUnavailable, "Please retry shortly"))
	default:
		h.log.Error("Video request failed", zap.String("user_id", middleware.CurrentUserID(c)), zap.Error(err))
		c.JSON(http.StatusInternalServerError, utils.NewErrorResponse(http.StatusInternalServerError, "Failed to process video"))
	}
}
