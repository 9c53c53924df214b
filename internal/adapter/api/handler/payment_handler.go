package handler

import (
	"crypto/subtle"

	"github.com/labstack/echo/v4"

	"vendra/internal/usecase"
	"vendra/pkg/errors"
	"vendra/pkg/logger"
	"vendra/pkg/response"
)

// PaymentHandler receives capture callbacks from the payment
// collaborator. The endpoint is outside user auth; callers prove
// themselves with the shared webhook key instead.
type PaymentHandler struct {
	engagementUseCase *usecase.EngagementUseCase
	webhookKey        string
}

func NewPaymentHandler(engagementUseCase *usecase.EngagementUseCase, webhookKey string) *PaymentHandler {
	return &PaymentHandler{
		engagementUseCase: engagementUseCase,
		webhookKey:        webhookKey,
	}
}

type captureWebhookRequest struct {
	EngagementID string  `json:"engagement_id" validate:"required"`
	Reference    string  `json:"reference" validate:"required"`
	Amount       float64 `json:"amount" validate:"required,gt=0"`
}

func (h *PaymentHandler) HandleCapture(c echo.Context) error {
	key := c.Request().Header.Get("X-Webhook-Key")
	if h.webhookKey == "" || subtle.ConstantTimeCompare([]byte(key), []byte(h.webhookKey)) != 1 {
		return response.Error(c, errors.Unauthorized("Invalid webhook key", nil))
	}

	var req captureWebhookRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, err)
	}
	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	logger.Info("payment capture received: engagement=%s reference=%s", req.EngagementID, req.Reference)

	engagement, err := h.engagementUseCase.RecordPaymentCaptured(c.Request().Context(), req.EngagementID, req.Reference, req.Amount)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, map[string]interface{}{
		"engagement_id":  engagement.ID,
		"payment_status": engagement.PaymentStatus,
	})
}
