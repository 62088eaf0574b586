package services

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"testing"

	"ugcads-backend/internal/models"
	"ugcads-backend/internal/payment"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// setupTestDB opens a private in-memory database for the test.
func setupTestDB(t *testing.T) *gorm.DB {
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

func seedUser(t *testing.T, db *gorm.DB, id string, balance int64) {
	t.Helper()
	require.NoError(t, db.Create(&models.User{ID: id, TokenBalance: balance}).Error)
}

func balanceOf(t *testing.T, db *gorm.DB, id string) int64 {
	t.Helper()
	var user models.User
	require.NoError(t, db.Where("id = ?", id).Take(&user).Error)
	return user.TokenBalance
}

type mockStorage struct {
	mock.Mock
}

func (m *mockStorage) Upload(ctx context.Context, key string, r io.Reader, size int64, contentType string) (string, error) {
	args := m.Called(ctx, key, r, size, contentType)
	return args.String(0), args.Error(1)
}

func (m *mockStorage) Delete(ctx context.Context, key string) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}

type mockQueue struct {
	mock.Mock
}

func (m *mockQueue) Enqueue(ctx context.Context, videoID string) error {
	args := m.Called(ctx, videoID)
	return args.Error(0)
}

type recordingNotifier struct {
	events []VideoEvent
}

func (n *recordingNotifier) Notify(userID string, event interface{}) {
	if e, ok := event.(VideoEvent); ok {
		n.events = append(n.events, e)
	}
}

type mockDriver struct {
	mock.Mock
}

func (m *mockDriver) Charge(ctx context.Context, req payment.ChargeRequest) (*payment.ChargeResult, error) {
	args := m.Called(ctx, req)
	res, _ := args.Get(0).(*payment.ChargeResult)
	return res, args.Error(1)
}

func (m *mockDriver) ParseWebhook(header http.Header, body []byte) (*payment.WebhookEvent, error) {
	args := m.Called(header, body)
	res, _ := args.Get(0).(*payment.WebhookEvent)
	return res, args.Error(1)
}
