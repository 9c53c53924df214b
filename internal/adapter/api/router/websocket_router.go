package router

import (
	"github.com/labstack/echo/v4"

	"vendra/internal/adapter/api/handler"
)

// SetupWebSocketRouter wires the realtime endpoint. No auth middleware
// here; the handler verifies the query-parameter token itself.
func SetupWebSocketRouter(e *echo.Echo, wsHandler *handler.WebSocketHandler) {
	e.GET("/v1/ws", wsHandler.HandleWebSocket)
}
