// Package apitest holds helpers shared by the handler tests.
package apitest

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"ugcads-backend/internal/middleware"
	"ugcads-backend/internal/models"
	"ugcads-backend/internal/utils"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Envelope mirrors utils.Response with the data left raw.
type Envelope struct {
	Status  int             `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

// OpenDB returns a migrated in-memory database private to t.
func OpenDB(t *testing.T) *gorm.DB {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", name)), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(&models.User{}, &models.Video{}, &models.Transaction{}))
	return db
}

func SeedUser(t *testing.T, db *gorm.DB, id string, balance int64) {
	t.Helper()
	require.NoError(t, db.Create(&models.User{ID: id, TokenBalance: balance}).Error)
}

func Balance(t *testing.T, db *gorm.DB, id string) int64 {
	t.Helper()
	var user models.User
	require.NoError(t, db.Where("id = ?", id).Take(&user).Error)
	return user.TokenBalance
}

// Router returns a test-mode engine whose /api/v1 group is authenticated as
// userID. An empty userID leaves the group anonymous.
func Router(userID string) (*gin.Engine, *gin.RouterGroup) {
	gin.SetMode(gin.TestMode)
	utils.RegisterValidators()

	r := gin.New()
	group := r.Group("/api/v1")
	if userID != "" {
		group.Use(func(c *gin.Context) {
			c.Set(middleware.ContextUserIDKey, userID)
			c.Next()
		})
	}
	return r, group
}

// Do sends a request with an optional JSON body and returns the recorder.
func Do(r http.Handler, method, path string, body interface{}) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != nil {
		switch b := body.(type) {
		case string:
			reader = strings.NewReader(b)
		case []byte:
			reader = bytes.NewReader(b)
		default:
			data, _ := json.Marshal(b)
			reader = bytes.NewReader(data)
		}
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

// Decode parses the response envelope and, when out is non-nil, its data.
func Decode(t *testing.T, w *httptest.ResponseRecorder, out interface{}) Envelope {
	t.Helper()
	var env Envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	if out != nil {
		require.NoError(t, json.Unmarshal(env.Data, out))
	}
	return env
}
