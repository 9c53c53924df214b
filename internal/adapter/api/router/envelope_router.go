package router

import (
	"github.com/labstack/echo/v4"

	"vendra/internal/adapter/api/handler"
	"vendra/internal/adapter/api/middleware"
)

// SetupEnvelopeRouter wires the message and conversation endpoints.
func SetupEnvelopeRouter(e *echo.Echo, envelopeHandler *handler.EnvelopeHandler, authMiddleware *middleware.AuthMiddleware) {
	messageGroup := e.Group("/v1/messages")
	messageGroup.Use(authMiddleware.Authenticate)

	messageGroup.POST("", envelopeHandler.SendMessage)
	messageGroup.POST("/attachments", envelopeHandler.UploadAttachment)
	messageGroup.PUT("/:id/read", envelopeHandler.MarkMessageRead)
	messageGroup.POST("/:id/accept", envelopeHandler.AcceptMessage)
	messageGroup.POST("/:id/reject", envelopeHandler.RejectMessage)
	messageGroup.PUT("/:id", envelopeHandler.EditMessage)
	messageGroup.DELETE("/:id", envelopeHandler.DeleteMessage)

	conversationGroup := e.Group("/v1/conversations")
	conversationGroup.Use(authMiddleware.Authenticate)

	conversationGroup.GET("", envelopeHandler.ListConversations)
	conversationGroup.GET("/:id/messages", envelopeHandler.ListMessages)
	conversationGroup.PUT("/:id/read", envelopeHandler.MarkConversationRead)
}
