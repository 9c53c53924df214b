package router

import (
	"github.com/labstack/echo/v4"

	"vendra/internal/adapter/api/handler"
	"vendra/internal/adapter/api/middleware"
)

func SetupEngagementRouter(e *echo.Echo, engagementHandler *handler.EngagementHandler, authMiddleware *middleware.AuthMiddleware) {
	engagementGroup := e.Group("/v1/engagements")
	engagementGroup.Use(authMiddleware.Authenticate)

	engagementGroup.GET("", engagementHandler.ListEngagements)
	engagementGroup.GET("/:id", engagementHandler.GetEngagement)
	engagementGroup.POST("/:id/complete", engagementHandler.CompleteEngagement)
	engagementGroup.POST("/:id/cancel", engagementHandler.CancelEngagement)
}
