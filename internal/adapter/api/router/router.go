package router

import (
	"github.com/labstack/echo/v4"

	"vendra/internal/adapter/api/handler"
	"vendra/internal/adapter/api/middleware"
)

func Setup(
	e *echo.Echo,
	authMiddleware *middleware.AuthMiddleware,
	envelopeHandler *handler.EnvelopeHandler,
	engagementHandler *handler.EngagementHandler,
	ledgerHandler *handler.LedgerHandler,
	paymentHandler *handler.PaymentHandler,
	wsHandler *handler.WebSocketHandler,
	healthHandler *handler.HealthHandler,
) {
	SetupEnvelopeRouter(e, envelopeHandler, authMiddleware)
	SetupEngagementRouter(e, engagementHandler, authMiddleware)
	SetupLedgerRouter(e, ledgerHandler, authMiddleware)
	SetupPaymentRouter(e, paymentHandler)
	SetupWebSocketRouter(e, wsHandler)
	SetupHealthRouter(e, healthHandler)
}
