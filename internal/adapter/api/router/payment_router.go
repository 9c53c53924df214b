package router

import (
	"github.com/labstack/echo/v4"

	"vendra/internal/adapter/api/handler"
)

// SetupPaymentRouter wires the payment collaborator webhook. The route
// stays outside the auth middleware; the handler checks the shared
// webhook key itself.
func SetupPaymentRouter(e *echo.Echo, paymentHandler *handler.PaymentHandler) {
	e.POST("/v1/payments/capture", paymentHandler.HandleCapture)
}
