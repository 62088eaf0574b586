package payment

import (
	"context"
	"errors"
	"net/http"
)

const ActionPaymentSucceeded = "payment.succeeded"

var ErrInvalidSignature = errors.New("invalid webhook signature")

// ChargeRequest asks the provider to bill a user. Metadata is echoed back on
// the payment's webhook.
type ChargeRequest struct {
	UserID      string
	AmountCents int64
	Currency    string
	Metadata    map[string]interface{}
}

// ChargeResult is either settled immediately or carries an in-app purchase the
// client must complete.
type ChargeResult struct {
	Status        string         `json:"status"`
	InAppPurchase *InAppPurchase `json:"in_app_purchase,omitempty"`
}

type InAppPurchase struct {
	ID     string `json:"id"`
	PlanID string `json:"plan_id"`
}

// WebhookEvent is a verified provider notification.
type WebhookEvent struct {
	Action string      `json:"action"`
	Data   PaymentData `json:"data"`
}

type PaymentData struct {
	ID              string                 `json:"id"`
	UserID          string                 `json:"user_id"`
	FinalAmount     float64                `json:"final_amount"`
	AmountAfterFees float64                `json:"amount_after_fees"`
	Currency        string                 `json:"currency"`
	Metadata        map[string]interface{} `json:"metadata"`
}

// Driver is the interface that all payment drivers must implement
type Driver interface {
	// Charge starts a payment for the user.
	Charge(ctx context.Context, req ChargeRequest) (*ChargeResult, error)

	// ParseWebhook verifies the request signature and decodes the event.
	// It returns ErrInvalidSignature when verification fails.
	ParseWebhook(header http.Header, body []byte) (*WebhookEvent, error)
}
