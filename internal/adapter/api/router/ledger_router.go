package router

import (
	"github.com/labstack/echo/v4"

	"vendra/internal/adapter/api/handler"
	"vendra/internal/adapter/api/middleware"
)

func SetupLedgerRouter(e *echo.Echo, ledgerHandler *handler.LedgerHandler, authMiddleware *middleware.AuthMiddleware) {
	earningGroup := e.Group("/v1/earnings")
	earningGroup.Use(authMiddleware.Authenticate)

	earningGroup.GET("", ledgerHandler.ListEarnings)
	earningGroup.POST("/withdraw", ledgerHandler.Withdraw)
}
