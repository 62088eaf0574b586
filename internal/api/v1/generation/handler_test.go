package generation_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"ugcads-backend/internal/api/apitest"
	"ugcads-backend/internal/api/v1/generation"
	"ugcads-backend/internal/middleware"
	"ugcads-backend/internal/models"
	"ugcads-backend/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

const secret = "gen-secret"

func setup(t *testing.T) (*gin.Engine, *gorm.DB, *models.Video) {
	t.Helper()
	db := apitest.OpenDB(t)
	apitest.SeedUser(t, db, "user_1", 300)

	svc := services.NewVideoService(services.VideoDeps{
		DB:      db,
		Ledger:  services.NewLedger(db, nil, nil),
		Pricing: services.DefaultPricing(),
	})
	video, err := svc.CreateVideo(context.Background(), "user_1", models.PromptData{Scenes: make([]models.Scene, 2)})
	require.NoError(t, err)

	r, _ := apitest.Router("")
	generation.RegisterRoutes(r.Group("/api/v1"), generation.NewHandler(svc, nil), secret)
	return r, db, video
}

func callback(r http.Handler, key string, body interface{}) *httptest.ResponseRecorder {
	data, _ := json.Marshal(body)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/generation/callback", bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	if key != "" {
		req.Header.Set(middleware.CallbackSecretHeader, key)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestCallbackCompleted(t *testing.T) {
	r, db, video := setup(t)

	w := callback(r, secret, gin.H{"video_id": video.ID, "status": "completed", "video_url": "https://cdn.example/out.mp4"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var got models.Video
	apitest.Decode(t, w, &got)
	assert.Equal(t, models.VideoStatusCompleted, got.Status)
	assert.Equal(t, "https://cdn.example/out.mp4", got.VideoURL)
	assert.Equal(t, int64(100), apitest.Balance(t, db, "user_1"))

	w = callback(r, secret, gin.H{"video_id": video.ID, "status": "failed"})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, int64(100), apitest.Balance(t, db, "user_1"))
}

func TestCallbackFailedRefundsOnce(t *testing.T) {
	r, db, video := setup(t)

	w := callback(r, secret, gin.H{"video_id": video.ID, "status": "failed", "error": "model overloaded"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, int64(300), apitest.Balance(t, db, "user_1"))

	var stored models.Video
	require.NoError(t, db.Where("id = ?", video.ID).Take(&stored).Error)
	assert.Equal(t, models.VideoStatusFailed, stored.Status)
	assert.Equal(t, "model overloaded", stored.ErrorMessage)

	w = callback(r, secret, gin.H{"video_id": video.ID, "status": "failed"})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, int64(300), apitest.Balance(t, db, "user_1"))
}

func TestCallbackRejected(t *testing.T) {
	r, db, video := setup(t)

	tests := []struct {
		name           string
		key            string
		body           gin.H
		expectedStatus int
	}{
		{"missing secret", "", gin.H{"video_id": video.ID, "status": "failed"}, http.StatusUnauthorized},
		{"wrong secret", "nope", gin.H{"video_id": video.ID, "status": "failed"}, http.StatusUnauthorized},
		{"unknown status", secret, gin.H{"video_id": video.ID, "status": "queued"}, http.StatusBadRequest},
		{"completed without url", secret, gin.H{"video_id": video.ID, "status": "completed"}, http.StatusBadRequest},
		{"unknown video", secret, gin.H{"video_id": "missing", "status": "failed"}, http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := callback(r, tt.key, tt.body)
			assert.Equal(t, tt.expectedStatus, w.Code)
		})
	}

	assert.Equal(t, int64(100), apitest.Balance(t, db, "user_1"))
}
