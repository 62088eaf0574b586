package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"

	"ugcads-backend/internal/models"
	"ugcads-backend/internal/payment"

	"go.uber.org/zap"
)

// PaymentService sells token packages and credits settled payments.
type PaymentService struct {
	driver  payment.Driver
	ledger  *Ledger
	pricing Pricing
	log     *zap.Logger
}

func NewPaymentService(driver payment.Driver, ledger *Ledger, pricing Pricing, log *zap.Logger) *PaymentService {
	if log == nil {
		log = zap.NewNop()
	}
	return &PaymentService{driver: driver, ledger: ledger, pricing: pricing, log: log}
}

// ChargeOutcome is what the client needs to finish a purchase.
type ChargeOutcome struct {
	Package Package               `json:"package"`
	Result  *payment.ChargeResult `json:"result"`
}

// WebhookResult reports what a webhook delivery did to the ledger.
type WebhookResult struct {
	Credited  int64  `json:"credited"`
	Balance   int64  `json:"balance"`
	Duplicate bool   `json:"duplicate,omitempty"`
	Ignored   bool   `json:"ignored,omitempty"`
	PaymentID string `json:"payment_id,omitempty"`
}

func (s *PaymentService) Packages() []Package {
	return s.pricing.Packages
}

// CreateCharge starts a purchase of the package. The package id and token
// count ride along as metadata so the webhook can credit the exact amount.
func (s *PaymentService) CreateCharge(ctx context.Context, userID, packageID string) (*ChargeOutcome, error) {
	if userID == "" {
		return nil, ErrUnauthenticated
	}
	pkg, err := s.pricing.FindPackage(packageID)
	if err != nil {
		return nil, err
	}

	result, err := s.driver.Charge(ctx, payment.ChargeRequest{
		UserID:      userID,
		AmountCents: pkg.PriceCents,
		Currency:    pkg.Currency,
		Metadata: map[string]interface{}{
			"package_id": pkg.ID,
			"tokens":     pkg.Tokens,
		},
	})
	if err != nil {
		s.log.Error("Charge failed", zap.String("user_id", userID), zap.String("package_id", pkg.ID), zap.Error(err))
		return nil, fmt.Errorf("%w: %v", ErrUpstreamFailure, err)
	}
	return &ChargeOutcome{Package: pkg, Result: result}, nil
}

// VerifyWebhook checks the delivery's signature and decodes it.
func (s *PaymentService) VerifyWebhook(header http.Header, body []byte) (*payment.WebhookEvent, error) {
	return s.driver.ParseWebhook(header, body)
}

// HandleWebhook credits a payment.succeeded event exactly once per payment id.
// Other actions are ignored. A redelivered payment is reported as a duplicate
// without error.
func (s *PaymentService) HandleWebhook(ctx context.Context, event *payment.WebhookEvent) (*WebhookResult, error) {
	if event.Action != payment.ActionPaymentSucceeded {
		s.log.Debug("Ignoring webhook action", zap.String("action", event.Action))
		return &WebhookResult{Ignored: true}, nil
	}

	data := event.Data
	if data.ID == "" || data.UserID == "" {
		return nil, errors.New("payment event missing id or user_id")
	}

	metadata := models.Metadata(data.Metadata)
	amountCents := int64(math.Round(data.FinalAmount))
	tokens := s.tokensFor(metadata, amountCents)
	if tokens <= 0 {
		s.log.Warn("Payment maps to no tokens",
			zap.String("payment_id", data.ID),
			zap.Int64("amount_cents", amountCents),
		)
		return nil, ErrInvalidAmount
	}

	balance, err := s.ledger.RecordPurchase(ctx, Purchase{
		UserID:      data.UserID,
		PaymentID:   data.ID,
		Tokens:      tokens,
		AmountCents: amountCents,
		Currency:    data.Currency,
		Metadata:    metadata,
	})
	if errors.Is(err, ErrDuplicatePayment) {
		s.log.Info("Duplicate payment delivery", zap.String("payment_id", data.ID))
		return &WebhookResult{Duplicate: true, PaymentID: data.ID}, nil
	}
	if err != nil {
		return nil, err
	}

	return &WebhookResult{Credited: tokens, Balance: balance, PaymentID: data.ID}, nil
}

// tokensFor prefers the token count stamped at charge time and falls back to
// the amount tiers.
func (s *PaymentService) tokensFor(metadata models.Metadata, amountCents int64) int64 {
	if n, ok := metadata.Int64("tokens"); ok && n > 0 {
		return n
	}
	return s.pricing.TokensForAmount(amountCents)
}
