package video_test

import (
	"context"
	"net/http"
	"testing"

	"ugcads-backend/internal/api/apitest"
	"ugcads-backend/internal/api/v1/admin/video"
	"ugcads-backend/internal/models"
	"ugcads-backend/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func setup(t *testing.T) (*gin.Engine, *gorm.DB, *services.VideoService) {
	t.Helper()
	db := apitest.OpenDB(t)
	apitest.SeedUser(t, db, "user_1", 300)

	svc := services.NewVideoService(services.VideoDeps{
		DB:      db,
		Ledger:  services.NewLedger(db, nil, nil),
		Pricing: services.DefaultPricing(),
	})

	r, group := apitest.Router("admin_1")
	video.RegisterRoutes(group.Group("/admin"), video.NewHandler(svc, nil))
	return r, db, svc
}

func TestFailVideoRefunds(t *testing.T) {
	r, db, svc := setup(t)
	v, err := svc.CreateVideo(context.Background(), "user_1", models.PromptData{Scenes: make([]models.Scene, 2)})
	require.NoError(t, err)
	require.Equal(t, int64(100), apitest.Balance(t, db, "user_1"))

	w := apitest.Do(r, http.MethodPost, "/api/v1/admin/videos/"+v.ID+"/fail", video.FailRequest{Reason: "stuck in backend"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var got models.Video
	apitest.Decode(t, w, &got)
	assert.Equal(t, models.VideoStatusFailed, got.Status)
	assert.Equal(t, "stuck in backend", got.ErrorMessage)
	assert.Equal(t, int64(300), apitest.Balance(t, db, "user_1"))

	w = apitest.Do(r, http.MethodPost, "/api/v1/admin/videos/"+v.ID+"/fail", video.FailRequest{Reason: "again"})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, int64(300), apitest.Balance(t, db, "user_1"))
}

func TestFailVideoRejects(t *testing.T) {
	r, _, _ := setup(t)

	tests := []struct {
		name       string
		path       string
		body       interface{}
		wantStatus int
	}{
		{name: "unknown video", path: "/api/v1/admin/videos/missing/fail", body: video.FailRequest{Reason: "x"}, wantStatus: http.StatusNotFound},
		{name: "missing reason", path: "/api/v1/admin/videos/missing/fail", body: gin.H{}, wantStatus: http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := apitest.Do(r, http.MethodPost, tt.path, tt.body)
			assert.Equal(t, tt.wantStatus, w.Code)
		})
	}
}

func TestGetVideoAnyOwner(t *testing.T) {
	r, _, svc := setup(t)
	v, err := svc.CreateVideo(context.Background(), "user_1", models.PromptData{Scenes: make([]models.Scene, 1)})
	require.NoError(t, err)

	w := apitest.Do(r, http.MethodGet, "/api/v1/admin/videos/"+v.ID, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var got models.Video
	apitest.Decode(t, w, &got)
	assert.Equal(t, "user_1", got.UserID)

	w = apitest.Do(r, http.MethodGet, "/api/v1/admin/videos/missing", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
