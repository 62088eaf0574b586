package upload

import (
	"errors"
	"net/http"
	"strings"

	"ugcads-backend/internal/middleware"
	"ugcads-backend/internal/services"
	"ugcads-backend/internal/storage/oss"
	"ugcads-backend/internal/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// CredentialIssuer mints short-lived credentials for direct bucket uploads.
type CredentialIssuer interface {
	Issue() (*oss.Credentials, error)
}

type ImageResponse struct {
	URL string `json:"url"`
}

// TokenResponse scopes the issued credentials to the caller's key prefix.
type TokenResponse struct {
	*oss.Credentials
	Prefix string `json:"prefix"`
}

type Handler struct {
	videos   *services.VideoService
	issuer   CredentialIssuer
	maxBytes int64
	log      *zap.Logger
}

// NewHandler builds the upload endpoints. issuer may be nil when the storage
// driver has no direct upload support.
func NewHandler(videos *services.VideoService, issuer CredentialIssuer, maxBytes int64, log *zap.Logger) *Handler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Handler{videos: videos, issuer: issuer, maxBytes: maxBytes, log: log}
}

// UploadImage godoc
// @Summary Upload a product image
// @Description Stores the image and returns its public URL for use as product_image_url
// @Tags common
// @Accept multipart/form-data
// @Produce json
// @Security WhopToken
// @Param image formData file true "Image file"
// @Success 200 {object} utils.Response{data=upload.ImageResponse}
// @Failure 400 {object} utils.Response
// @Failure 413 {object} utils.Response
// @Router /uploads/image [post]
func (h *Handler) UploadImage(c *gin.Context) {
	if h.maxBytes > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxBytes+(1<<20))
	}

	fileHeader, err := c.FormFile("image")
	if err != nil {
		c.JSON(http.StatusBadRequest, utils.NewErrorResponse(http.StatusBadRequest, "Field 'image' is required"))
		return
	}
	if h.maxBytes > 0 && fileHeader.Size > h.maxBytes {
		c.JSON(http.StatusRequestEntityTooLarge, utils.NewErrorResponse(http.StatusRequestEntityTooLarge, "Image is too large"))
		return
	}
	contentType := fileHeader.Header.Get("Content-Type")
	if !strings.HasPrefix(contentType, "image/") {
		c.JSON(http.StatusBadRequest, utils.NewErrorResponse(http.StatusBadRequest, "File must be an image"))
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusInternalServerError, utils.NewErrorResponse(http.StatusInternalServerError, "Failed to read upload"))
		return
	}
	defer file.Close()

	url, err := h.videos.UploadImage(c.Request.Context(), middleware.CurrentUserID(c), services.Upload{
		Filename:    fileHeader.Filename,
		ContentType: contentType,
		Size:        fileHeader.Size,
		Body:        file,
	})
	if err != nil {
		if errors.Is(err, services.ErrUpstreamFailure) {
			c.JSON(http.StatusBadGateway, utils.NewErrorResponse(http.StatusBadGateway, "Storage unavailable"))
			return
		}
		h.log.Error("Image upload failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, utils.NewErrorResponse(http.StatusInternalServerError, "Failed to upload image"))
		return
	}

	c.JSON(http.StatusOK, utils.NewSuccessResponse("Image uploaded successfully", ImageResponse{URL: url}))
}

// GetToken godoc
// @Summary Get OSS STS Token
// @Description Get STS credentials for uploading straight to Alibaba Cloud OSS
// @Tags common
// @Produce json
// @Security WhopToken
// @Success 200 {object} utils.Response{data=upload.TokenResponse}
// @Failure 404 {object} utils.Response
// @Router /uploads/token [get]
func (h *Handler) GetToken(c *gin.Context) {
	if h.issuer == nil {
		c.JSON(http.StatusNotFound, utils.NewErrorResponse(http.StatusNotFound, "Direct uploads are not available"))
		return
	}

	creds, err := h.issuer.Issue()
	if err != nil {
		h.log.Error("Failed to issue STS credentials", zap.Error(err))
		c.JSON(http.StatusBadGateway, utils.NewErrorResponse(http.StatusBadGateway, "Failed to get upload token"))
		return
	}

	c.JSON(http.StatusOK, utils.NewSuccessResponse("OSS token retrieved successfully", TokenResponse{
		Credentials: creds,
		Prefix:      middleware.CurrentUserID(c) + "/",
	}))
}
