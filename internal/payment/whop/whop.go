// Package whop talks to the Whop REST API: charging users, looking up
// profiles and verifying webhook deliveries.
package whop

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"ugcads-backend/internal/models"
	"ugcads-backend/internal/payment"

	"go.uber.org/zap"
)

const (
	SignatureHeader = "x-whop-signature"

	defaultTolerance = 5 * time.Minute
)

type Config struct {
	APIKey        string
	AppID         string
	BaseURL       string
	WebhookSecret string
}

type Client struct {
	cfg        Config
	httpClient *http.Client
	tolerance  time.Duration
	now        func() time.Time
	log        *zap.Logger
}

func NewClient(cfg Config, httpClient *http.Client, log *zap.Logger) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}
	if log == nil {
		log = zap.NewNop()
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	return &Client{
		cfg:        cfg,
		httpClient: httpClient,
		tolerance:  defaultTolerance,
		now:        time.Now,
		log:        log,
	}
}

type chargeBody struct {
	UserID   string                 `json:"user_id"`
	Amount   float64                `json:"amount"`
	Currency string                 `json:"currency"`
	Metadata map[string]interface{} `json:"metadata,omitempty"`
}

// Charge bills the user. Amounts are sent in major currency units.
func (c *Client) Charge(ctx context.Context, req payment.ChargeRequest) (*payment.ChargeResult, error) {
	if req.AmountCents <= 0 {
		return nil, fmt.Errorf("charge amount must be positive, got %d", req.AmountCents)
	}

	body := chargeBody{
		UserID:   req.UserID,
		Amount:   float64(req.AmountCents) / 100,
		Currency: strings.ToLower(req.Currency),
		Metadata: req.Metadata,
	}

	var result payment.ChargeResult
	if err := c.do(ctx, http.MethodPost, "/payments/charge_user", body, &result); err != nil {
		return nil, err
	}

	c.log.Info("Whop charge created",
		zap.String("user_id", req.UserID),
		zap.Int64("amount_cents", req.AmountCents),
		zap.String("status", result.Status),
	)
	return &result, nil
}

type userResponse struct {
	ID                string `json:"id"`
	Email             string `json:"email"`
	Name              string `json:"name"`
	Username          string `json:"username"`
	ProfilePictureURL string `json:"profile_pic_url"`
}

// GetUser fetches the public profile of a Whop user.
func (c *Client) GetUser(ctx context.Context, userID string) (*models.Profile, error) {
	var u userResponse
	if err := c.do(ctx, http.MethodGet, "/users/"+url.PathEscape(userID), nil, &u); err != nil {
		return nil, err
	}
	return &models.Profile{
		ID:        u.ID,
		Email:     u.Email,
		Name:      u.Name,
		Username:  u.Username,
		AvatarURL: u.ProfilePictureURL,
	}, nil
}

func (c *Client) do(ctx context.Context, method, path string, in, out interface{}) error {
	var reader io.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.cfg.BaseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.cfg.AppID != "" {
		req.Header.Set("x-whop-app-id", c.cfg.AppID)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("whop %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("whop %s %s: status %d: %s", method, path, resp.StatusCode, truncate(data, 300))
	}
	if out == nil {
		return nil
	}
	return json.Unmarshal(data, out)
}

// ParseWebhook verifies the x-whop-signature header, of the form
// "t=<unix seconds>,v1=<hex hmac-sha256 of t.body>", and decodes the event.
// Deliveries older than five minutes are rejected.
func (c *Client) ParseWebhook(header http.Header, body []byte) (*payment.WebhookEvent, error) {
	if err := c.verify(header.Get(SignatureHeader), body); err != nil {
		c.log.Warn("Rejected webhook", zap.Error(err))
		return nil, payment.ErrInvalidSignature
	}

	var event payment.WebhookEvent
	if err := json.Unmarshal(body, &event); err != nil {
		return nil, fmt.Errorf("decode webhook: %w", err)
	}
	return &event, nil
}

func (c *Client) verify(signature string, body []byte) error {
	if c.cfg.WebhookSecret == "" {
		return fmt.Errorf("webhook secret not configured")
	}

	var timestamp string
	var sigs []string
	for _, part := range strings.Split(signature, ",") {
		k, v, ok := strings.Cut(strings.TrimSpace(part), "=")
		if !ok {
			continue
		}
		switch k {
		case "t":
			timestamp = v
		case "v1":
			sigs = append(sigs, v)
		}
	}
	if timestamp == "" || len(sigs) == 0 {
		return fmt.Errorf("malformed signature header")
	}

	ts, err := strconv.ParseInt(timestamp, 10, 64)
	if err != nil {
		return fmt.Errorf("bad timestamp: %w", err)
	}
	if age := c.now().Sub(time.Unix(ts, 0)); math.Abs(float64(age)) > float64(c.tolerance) {
		return fmt.Errorf("timestamp outside tolerance: %s", age)
	}

	expected := Sign(c.cfg.WebhookSecret, timestamp, body)
	for _, sig := range sigs {
		if hmac.Equal([]byte(sig), []byte(expected)) {
			return nil
		}
	}
	return fmt.Errorf("signature mismatch")
}

// Sign computes the v1 signature for a payload sent at timestamp.
func Sign(secret, timestamp string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(timestamp))
	mac.Write([]byte("."))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

// SignatureHeaderValue builds a complete x-whop-signature header value.
func SignatureHeaderValue(secret string, at time.Time, body []byte) string {
	ts := strconv.FormatInt(at.Unix(), 10)
	return "t=" + ts + ",v1=" + Sign(secret, ts, body)
}

func truncate(b []byte, n int) string {
	if len(b) > n {
		return string(b[:n]) + "..."
	}
	return string(b)
}
