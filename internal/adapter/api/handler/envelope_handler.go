package handler

import (
	"github.com/labstack/echo/v4"

	"vendra/internal/infrastructure/storage"
	"vendra/internal/usecase"
	"vendra/pkg/errors"
	"vendra/pkg/response"
	"vendra/pkg/utils"
)

type EnvelopeHandler struct {
	envelopeUseCase *usecase.EnvelopeUseCase
	attachments     *storage.AttachmentStore
}

func NewEnvelopeHandler(envelopeUseCase *usecase.EnvelopeUseCase, attachments *storage.AttachmentStore) *EnvelopeHandler {
	return &EnvelopeHandler{
		envelopeUseCase: envelopeUseCase,
		attachments:     attachments,
	}
}

type sendMessageRequest struct {
	ReceiverID    string   `json:"receiver_id" validate:"required"`
	Kind          string   `json:"kind" validate:"required,oneof=chat service_request hire_request service_offer"`
	Body          string   `json:"body"`
	AttachmentURL string   `json:"attachment_url,omitempty" validate:"omitempty,url"`
	Services      []string `json:"services,omitempty"`
	EventID       string   `json:"event_id,omitempty"`
	ProposedPrice float64  `json:"proposed_price,omitempty" validate:"omitempty,gte=0"`
}

type editMessageRequest struct {
	Body string `json:"body" validate:"required"`
}

// SendMessage creates a chat message or proposal envelope.
func (h *EnvelopeHandler) SendMessage(c echo.Context) error {
	var req sendMessageRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, err)
	}
	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	userID := c.Get("uid").(string)

	envelope, err := h.envelopeUseCase.Send(c.Request().Context(), userID, usecase.SendEnvelopeInput{
		ReceiverID:    req.ReceiverID,
		Kind:          req.Kind,
		Body:          req.Body,
		AttachmentURL: req.AttachmentURL,
		Services:      req.Services,
		EventID:       req.EventID,
		ProposedPrice: req.ProposedPrice,
	})
	if err != nil {
		return response.Error(c, err)
	}

	return response.Created(c, envelope)
}

// UploadAttachment stores a chat attachment and returns its URL for a
// follow-up SendMessage call.
func (h *EnvelopeHandler) UploadAttachment(c echo.Context) error {
	if h.attachments == nil {
		return response.Error(c, errors.Internal("Attachment storage is not configured", nil))
	}

	userID := c.Get("uid").(string)

	fileHeader, err := c.FormFile("file")
	if err != nil {
		return response.Error(c, errors.BadRequest("File is required", err))
	}
	if fileHeader.Size > 10*1024*1024 {
		return response.Error(c, errors.BadRequest("File exceeds the 10MB limit", nil))
	}

	file, err := fileHeader.Open()
	if err != nil {
		return response.Error(c, errors.Internal("Failed to read file", err))
	}
	defer file.Close()

	conversationID := c.FormValue("conversation_id")
	if conversationID == "" {
		conversationID = userID
	}

	url, err := h.attachments.Upload(c.Request().Context(), file, fileHeader.Header.Get("Content-Type"), conversationID)
	if err != nil {
		return response.Error(c, errors.ExternalDependency("Failed to store attachment", err))
	}

	return response.Created(c, map[string]string{"url": url})
}

func (h *EnvelopeHandler) ListConversations(c echo.Context) error {
	userID := c.Get("uid").(string)
	pagination := utils.GetPaginationParams(c)

	conversations, total, err := h.envelopeUseCase.ListConversations(c.Request().Context(), userID, pagination.PageSize, pagination.Offset)
	if err != nil {
		return response.Error(c, err)
	}

	return response.SuccessPaginated(c, conversations, total, pagination.PageSize, pagination.Offset)
}

func (h *EnvelopeHandler) ListMessages(c echo.Context) error {
	userID := c.Get("uid").(string)
	conversationID := c.Param("id")
	pagination := utils.GetPaginationParams(c)

	messages, total, err := h.envelopeUseCase.ListMessages(c.Request().Context(), userID, conversationID, pagination.PageSize, pagination.Offset)
	if err != nil {
		return response.Error(c, err)
	}

	return response.SuccessPaginated(c, messages, total, pagination.PageSize, pagination.Offset)
}

func (h *EnvelopeHandler) MarkConversationRead(c echo.Context) error {
	userID := c.Get("uid").(string)
	conversationID := c.Param("id")

	if err := h.envelopeUseCase.MarkConversationRead(c.Request().Context(), userID, conversationID); err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, map[string]string{"status": "read"})
}

func (h *EnvelopeHandler) MarkMessageRead(c echo.Context) error {
	userID := c.Get("uid").(string)
	envelopeID := c.Param("id")

	if err := h.envelopeUseCase.MarkRead(c.Request().Context(), envelopeID, userID); err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, map[string]string{"status": "read"})
}

// AcceptMessage resolves a proposal envelope and returns the engagement
// it created (or the one a concurrent accept already created).
func (h *EnvelopeHandler) AcceptMessage(c echo.Context) error {
	userID := c.Get("uid").(string)
	envelopeID := c.Param("id")

	engagement, err := h.envelopeUseCase.Accept(c.Request().Context(), envelopeID, userID)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Created(c, engagement)
}

func (h *EnvelopeHandler) RejectMessage(c echo.Context) error {
	userID := c.Get("uid").(string)
	envelopeID := c.Param("id")

	if err := h.envelopeUseCase.Reject(c.Request().Context(), envelopeID, userID); err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, map[string]string{"status": "rejected"})
}

func (h *EnvelopeHandler) EditMessage(c echo.Context) error {
	var req editMessageRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, err)
	}
	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	userID := c.Get("uid").(string)
	envelopeID := c.Param("id")

	envelope, err := h.envelopeUseCase.Edit(c.Request().Context(), envelopeID, userID, req.Body)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, envelope)
}

func (h *EnvelopeHandler) DeleteMessage(c echo.Context) error {
	userID := c.Get("uid").(string)
	envelopeID := c.Param("id")

	if err := h.envelopeUseCase.Delete(c.Request().Context(), envelopeID, userID); err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, map[string]string{"status": "deleted"})
}
