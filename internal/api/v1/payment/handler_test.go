package payment_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"ugcads-backend/internal/api/apitest"
	paymentapi "ugcads-backend/internal/api/v1/payment"
	"ugcads-backend/internal/models"
	"ugcads-backend/internal/payment/whop"
	"ugcads-backend/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

const secret = "whsec_handler"

func setup(t *testing.T, providerURL string) (*gin.Engine, *gorm.DB) {
	t.Helper()
	db := apitest.OpenDB(t)

	client := whop.NewClient(whop.Config{APIKey: "key", BaseURL: providerURL, WebhookSecret: secret}, nil, nil)
	payments := services.NewPaymentService(client, services.NewLedger(db, nil, nil), services.DefaultPricing(), nil)
	h := paymentapi.NewHandler(payments, nil)

	r, authorized := apitest.Router("user_1")
	paymentapi.RegisterRoutes(authorized, h)
	paymentapi.RegisterWebhookRoutes(r.Group("/api/v1"), h)
	return r, db
}

func deliver(r http.Handler, body []byte, signature string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/webhooks/whop", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if signature != "" {
		req.Header.Set(whop.SignatureHeader, signature)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func paymentEvent(action, paymentID, userID string, amount float64, metadata map[string]interface{}) []byte {
	data := gin.H{
		"id":           paymentID,
		"final_amount": amount,
		"currency":     "usd",
		"metadata":     metadata,
	}
	if userID != "" {
		data["user_id"] = userID
	}
	body, _ := json.Marshal(gin.H{"action": action, "data": data})
	return body
}

func TestWebhookCreditsOnce(t *testing.T) {
	r, db := setup(t, "http://unused")
	body := paymentEvent("payment.succeeded", "pay_1", "user_9", 2500, map[string]interface{}{"tokens": 600})

	for i := 0; i < 3; i++ {
		w := deliver(r, body, whop.SignatureHeaderValue(secret, time.Now(), body))
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "OK", w.Body.String())
	}

	assert.Equal(t, int64(600), apitest.Balance(t, db, "user_9"))
	var count int64
	require.NoError(t, db.Model(&models.Transaction{}).Where("payment_id = ?", "pay_1").Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestWebhookTierFallback(t *testing.T) {
	r, db := setup(t, "http://unused")
	body := paymentEvent("payment.succeeded", "pay_2", "user_9", 10000, nil)

	w := deliver(r, body, whop.SignatureHeaderValue(secret, time.Now(), body))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, int64(1500), apitest.Balance(t, db, "user_9"))
}

func TestWebhookRejectsBadSignature(t *testing.T) {
	r, db := setup(t, "http://unused")
	body := paymentEvent("payment.succeeded", "pay_3", "user_9", 1000, nil)

	w := deliver(r, body, whop.SignatureHeaderValue("wrong", time.Now(), body))
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = deliver(r, body, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	var count int64
	require.NoError(t, db.Model(&models.User{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestWebhookAcknowledgesUnprocessable(t *testing.T) {
	r, db := setup(t, "http://unused")

	for _, body := range [][]byte{
		paymentEvent("membership.went_valid", "mem_1", "user_9", 0, nil),
		paymentEvent("payment.succeeded", "pay_zero", "user_9", 0, nil),
		[]byte(`not json`),
	} {
		w := deliver(r, body, whop.SignatureHeaderValue(secret, time.Now(), body))
		assert.Equal(t, http.StatusOK, w.Code)
	}

	var count int64
	require.NoError(t, db.Model(&models.Transaction{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestCreateCharge(t *testing.T) {
	var got map[string]interface{}
	provider := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/payments/charge_user", r.URL.Path)
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"needs_action","in_app_purchase":{"id":"ch_1","plan_id":"plan_1"}}`))
	}))
	defer provider.Close()

	r, _ := setup(t, provider.URL)

	w := apitest.Do(r, http.MethodPost, "/api/v1/payments/charge", gin.H{"package_id": "growth"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var outcome services.ChargeOutcome
	apitest.Decode(t, w, &outcome)
	assert.Equal(t, int64(600), outcome.Package.Tokens)
	require.NotNil(t, outcome.Result.InAppPurchase)
	assert.Equal(t, "ch_1", outcome.Result.InAppPurchase.ID)

	assert.Equal(t, "user_1", got["user_id"])
	assert.Equal(t, 25.0, got["amount"])
	assert.Equal(t, "growth", got["metadata"].(map[string]interface{})["package_id"])
}

func TestCreateChargeErrors(t *testing.T) {
	provider := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusServiceUnavailable)
	}))
	defer provider.Close()

	r, _ := setup(t, provider.URL)

	w := apitest.Do(r, http.MethodPost, "/api/v1/payments/charge", gin.H{"package_id": "enterprise"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = apitest.Do(r, http.MethodPost, "/api/v1/payments/charge", gin.H{"package_id": "starter"})
	assert.Equal(t, http.StatusBadGateway, w.Code)
}

func TestWebhookWithoutUserIsAcknowledged(t *testing.T) {
	r, db := setup(t, "http://unused")
	body := paymentEvent("payment.succeeded", "pay_anon", "", 2500, map[string]interface{}{"tokens": 600})

	w := deliver(r, body, whop.SignatureHeaderValue(secret, time.Now(), body))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "OK", w.Body.String())

	var txns, users int64
	require.NoError(t, db.Model(&models.Transaction{}).Count(&txns).Error)
	require.NoError(t, db.Model(&models.User{}).Count(&users).Error)
	assert.Zero(t, txns)
	assert.Zero(t, users)
}
