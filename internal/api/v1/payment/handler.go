package payment

import (
	"errors"
	"io"
	"net/http"

	"ugcads-backend/internal/middleware"
	"ugcads-backend/internal/payment"
	"ugcads-backend/internal/services"
	"ugcads-backend/internal/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const maxWebhookBody = 1 << 20

type Handler struct {
	payments *services.PaymentService
	log      *zap.Logger
}

func NewHandler(payments *services.PaymentService, log *zap.Logger) *Handler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Handler{payments: payments, log: log}
}

// CreateCharge godoc
// @Summary Buy a token package
// @Description Starts a charge through the platform. The tokens are credited when the payment webhook arrives.
// @Tags payments
// @Accept json
// @Produce json
// @Security WhopToken
// @Param request body ChargeRequest true "Package"
// @Success 200 {object} utils.Response{data=services.ChargeOutcome}
// @Failure 400 {object} utils.Response
// @Failure 502 {object} utils.Response
// @Router /payments/charge [post]
func (h *Handler) CreateCharge(c *gin.Context) {
	var req ChargeRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}

	outcome, err := h.payments.CreateCharge(c.Request.Context(), middleware.CurrentUserID(c), req.PackageID)
	switch {
	case err == nil:
		c.JSON(http.StatusOK, utils.NewSuccessResponse("Charge created successfully", outcome))
	case errors.Is(err, services.ErrUnknownPackage):
		c.JSON(http.StatusBadRequest, utils.NewErrorResponse(http.StatusBadRequest, "Unknown package"))
	case errors.Is(err, services.ErrUnauthenticated):
		c.JSON(http.StatusUnauthorized, utils.NewErrorResponse(http.StatusUnauthorized, "Unauthorized"))
	case errors.Is(err, services.ErrUpstreamFailure):
		c.JSON(http.StatusBadGateway, utils.NewErrorResponse(http.StatusBadGateway, "Payment provider unavailable"))
	default:
		h.log.Error("Charge failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, utils.NewErrorResponse(http.StatusInternalServerError, "Failed to create charge"))
	}
}

// Webhook receives payment notifications. Once the signature checks out the
// answer is always 200 so the provider stops redelivering; failures are only
// logged.
func (h *Handler) Webhook(c *gin.Context) {
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBody))
	if err != nil {
		c.String(http.StatusBadRequest, "Bad Request")
		return
	}

	event, err := h.payments.VerifyWebhook(c.Request.Header, body)
	if errors.Is(err, payment.ErrInvalidSignature) {
		c.String(http.StatusUnauthorized, "Unauthorized")
		return
	}
	if err != nil {
		h.log.Error("Undecodable webhook", zap.Error(err))
		c.String(http.StatusOK, "OK")
		return
	}

	result, err := h.payments.HandleWebhook(c.Request.Context(), event)
	if err != nil {
		h.log.Error("Webhook processing failed",
			zap.String("action", event.Action),
			zap.String("payment_id", event.Data.ID),
			zap.String("user_id", event.Data.UserID),
			zap.Error(err),
		)
		c.String(http.StatusOK, "OK")
		return
	}

	if result.Credited > 0 {
		h.log.Info("Payment credited",
			zap.String("payment_id", result.PaymentID),
			zap.String("user_id", event.Data.UserID),
			zap.Int64("tokens", result.Credited),
			zap.Int64("balance", result.Balance),
		)
	}
	c.String(http.StatusOK, "OK")
}
