package usecase

import (
	"context"
	"time"

	"vendra/internal/domain/entity"
	"vendra/internal/domain/repository"
	"vendra/internal/domain/service"
	ws "vendra/internal/infrastructure/websocket"
	"vendra/pkg/errors"
	"vendra/pkg/logger"
)

type EnvelopeUseCase struct {
	envelopeRepo     repository.EnvelopeRepository
	conversationRepo repository.ConversationRepository
	engagementRepo   repository.EngagementRepository
	events           service.EventDirectory
	profiles         service.ProfileDirectory
	engagementUC     *EngagementUseCase
	publisher        EventPublisher
	notifier         Notifier
}

func NewEnvelopeUseCase(
	envelopeRepo repository.EnvelopeRepository,
	conversationRepo repository.ConversationRepository,
	engagementRepo repository.EngagementRepository,
	events service.EventDirectory,
	profiles service.ProfileDirectory,
	engagementUC *EngagementUseCase,
	publisher EventPublisher,
	notifier Notifier,
) *EnvelopeUseCase {
	return &EnvelopeUseCase{
		envelopeRepo:     envelopeRepo,
		conversationRepo: conversationRepo,
		engagementRepo:   engagementRepo,
		events:           events,
		profiles:         profiles,
		engagementUC:     engagementUC,
		publisher:        publisher,
		notifier:         notifier,
	}
}

type SendEnvelopeInput struct {
	ReceiverID    string
	Kind          string
	Body          string
	AttachmentURL string
	Services      []string
	EventID       string
	ProposedPrice float64
}

// Send creates an envelope and threads it into the pair's conversation,
// creating the conversation lazily on first contact.
func (uc *EnvelopeUseCase) Send(ctx context.Context, senderID string, input SendEnvelopeInput) (*entity.Envelope, error) {
	envelope := &entity.Envelope{
		ConversationID: entity.ConversationID(senderID, input.ReceiverID),
		SenderID:       senderID,
		ReceiverID:     input.ReceiverID,
		Kind:           input.Kind,
		Body:           input.Body,
		AttachmentURL:  input.AttachmentURL,
		Status:         entity.EnvelopeStatusUnread,
	}
	if input.Kind != entity.EnvelopeKindChat {
		envelope.Proposal = &entity.Proposal{
			Services:      input.Services,
			EventID:       input.EventID,
			ProposedPrice: input.ProposedPrice,
		}
	}
	if err := envelope.Validate(); err != nil {
		return nil, err
	}

	if _, err := uc.profiles.GetProfile(ctx, input.ReceiverID); err != nil {
		return nil, err
	}

	if envelope.IsProposal() {
		if _, err := uc.events.GetEvent(ctx, input.EventID); err != nil {
			return nil, err
		}
		// At most one open proposal per (sender, receiver, event).
		if _, err := uc.envelopeRepo.FindOpenProposal(ctx, senderID, input.ReceiverID, input.EventID); err == nil {
			return nil, errors.Conflict("An open proposal for this event already exists")
		} else if !errors.Is(err, "NOT_FOUND") {
			return nil, err
		}
	}

	if err := uc.envelopeRepo.Create(ctx, envelope); err != nil {
		return nil, err
	}

	if err := uc.threadIntoConversation(ctx, envelope); err != nil {
		return nil, err
	}

	uc.publisher.PublishToUser(input.ReceiverID, ws.EventMessageNew, map[string]interface{}{
		"conversation_id": envelope.ConversationID,
		"message":         envelope,
	})

	return envelope, nil
}

func (uc *EnvelopeUseCase) threadIntoConversation(ctx context.Context, envelope *entity.Envelope) error {
	conversation, err := uc.conversationRepo.GetByID(ctx, envelope.ConversationID)
	if err != nil {
		if !errors.Is(err, "NOT_FOUND") {
			return err
		}
		participants := []string{envelope.SenderID, envelope.ReceiverID}
		if participants[0] > participants[1] {
			participants[0], participants[1] = participants[1], participants[0]
		}
		conversation = &entity.Conversation{
			ID:           envelope.ConversationID,
			Participants: participants,
			UnreadCount:  make(map[string]int),
		}
	}

	conversation.LastMessage = envelope.Body
	conversation.LastMessageAt = envelope.CreatedAt
	if conversation.UnreadCount == nil {
		conversation.UnreadCount = make(map[string]int)
	}
	conversation.UnreadCount[envelope.ReceiverID]++
	if envelope.IsProposal() && conversation.EventID == "" {
		conversation.EventID = envelope.Proposal.EventID
	}

	return uc.conversationRepo.Upsert(ctx, conversation)
}

// MarkRead flips unread to read. Informational only: it never affects
// accept/reject eligibility and is a no-op once the envelope is read or
// resolved.
func (uc *EnvelopeUseCase) MarkRead(ctx context.Context, envelopeID, actorID string) error {
	envelope, err := uc.envelopeRepo.GetByID(ctx, envelopeID)
	if err != nil {
		return err
	}
	if envelope.ReceiverID != actorID {
		return errors.Forbidden("Only the receiver can mark a message read", nil)
	}
	if envelope.Status != entity.EnvelopeStatusUnread {
		return nil
	}
	if err := uc.envelopeRepo.MarkRead(ctx, envelopeID); err != nil {
		return err
	}

	uc.publisher.PublishToUser(envelope.SenderID, ws.EventEnvelopeStatus, map[string]interface{}{
		"envelope_id": envelopeID,
		"status":      entity.EnvelopeStatusRead,
	})
	return nil
}

// Accept resolves a proposal envelope and creates its engagement in the
// same transaction; no envelope may end up accepted without one. Losing
// the race against another accept returns the engagement the winner
// created; losing against a reject returns Conflict.
func (uc *EnvelopeUseCase) Accept(ctx context.Context, envelopeID, actorID string) (*entity.Engagement, error) {
	envelope, err := uc.envelopeRepo.GetByID(ctx, envelopeID)
	if err != nil {
		return nil, err
	}
	if !envelope.IsProposal() {
		return nil, errors.BadRequest("Only proposal messages can be accepted", nil)
	}
	if envelope.Deleted {
		return nil, errors.NotFound("Message", nil)
	}
	if envelope.ReceiverID != actorID {
		return nil, errors.Forbidden("Only the receiver can accept a request", nil)
	}
	if envelope.IsTerminal() {
		return nil, errors.IllegalState("Request was already " + envelope.Status)
	}

	engagement, err := uc.engagementUC.buildFromEnvelope(ctx, envelope)
	if err != nil {
		return nil, err
	}

	if err := uc.envelopeRepo.Resolve(ctx, envelopeID, entity.EnvelopeStatusAccepted, engagement); err != nil {
		if !errors.Is(err, "CONFLICT") {
			return nil, err
		}
		// Lost the CAS race; report the state the winner left behind.
		current, getErr := uc.envelopeRepo.GetByID(ctx, envelopeID)
		if getErr != nil {
			return nil, getErr
		}
		if current.Status == entity.EnvelopeStatusAccepted {
			return uc.engagementRepo.GetByEnvelopeID(ctx, envelopeID)
		}
		return nil, errors.Conflict("Request was already rejected")
	}

	uc.bindConversation(ctx, envelope, engagement)
	uc.announceResolution(ctx, envelope, entity.EnvelopeStatusAccepted, engagement)

	return engagement, nil
}

// Reject resolves a proposal envelope without creating an engagement.
// A new proposal for the same (sender, receiver, event) may be created
// afterwards; only concurrent open duplicates are blocked.
func (uc *EnvelopeUseCase) Reject(ctx context.Context, envelopeID, actorID string) error {
	envelope, err := uc.envelopeRepo.GetByID(ctx, envelopeID)
	if err != nil {
		return err
	}
	if !envelope.IsProposal() {
		return errors.BadRequest("Only proposal messages can be rejected", nil)
	}
	if envelope.Deleted {
		return errors.NotFound("Message", nil)
	}
	if envelope.ReceiverID != actorID {
		return errors.Forbidden("Only the receiver can reject a request", nil)
	}
	if envelope.IsTerminal() {
		return errors.IllegalState("Request was already " + envelope.Status)
	}

	if err := uc.envelopeRepo.Resolve(ctx, envelopeID, entity.EnvelopeStatusRejected, nil); err != nil {
		if !errors.Is(err, "CONFLICT") {
			return err
		}
		current, getErr := uc.envelopeRepo.GetByID(ctx, envelopeID)
		if getErr != nil {
			return getErr
		}
		if current.Status == entity.EnvelopeStatusRejected {
			return nil
		}
		return errors.Conflict("Request was already accepted")
	}

	uc.announceResolution(ctx, envelope, entity.EnvelopeStatusRejected, nil)
	return nil
}

func (uc *EnvelopeUseCase) bindConversation(ctx context.Context, envelope *entity.Envelope, engagement *entity.Engagement) {
	conversation, err := uc.conversationRepo.GetByID(ctx, envelope.ConversationID)
	if err != nil {
		logger.Warn("failed to load conversation %s for engagement binding: %v", envelope.ConversationID, err)
		return
	}
	conversation.EngagementID = engagement.ID
	if err := uc.conversationRepo.Upsert(ctx, conversation); err != nil {
		logger.Warn("failed to bind engagement %s to conversation %s: %v", engagement.ID, conversation.ID, err)
	}
}

func (uc *EnvelopeUseCase) announceResolution(ctx context.Context, envelope *entity.Envelope, status string, engagement *entity.Engagement) {
	payload := map[string]interface{}{
		"envelope_id": envelope.ID,
		"status":      status,
	}
	if engagement != nil {
		payload["engagement_id"] = engagement.ID
	}
	uc.publisher.PublishToUser(envelope.SenderID, ws.EventEnvelopeStatus, payload)
	uc.publisher.PublishToUser(envelope.ReceiverID, ws.EventEnvelopeStatus, payload)
	uc.notifier.Notify(ctx, envelope.SenderID, "request_"+status, payload)
}

// Edit rewrites the body of a chat envelope and flags it edited.
// Proposals are immutable; a changed offer is a new proposal.
func (uc *EnvelopeUseCase) Edit(ctx context.Context, envelopeID, actorID, body string) (*entity.Envelope, error) {
	envelope, err := uc.envelopeRepo.GetByID(ctx, envelopeID)
	if err != nil {
		return nil, err
	}
	if envelope.SenderID != actorID {
		return nil, errors.Forbidden("Only the sender can edit a message", nil)
	}
	if envelope.Deleted {
		return nil, errors.NotFound("Message", nil)
	}
	if envelope.Kind != entity.EnvelopeKindChat {
		return nil, errors.IllegalState("Proposal messages cannot be edited")
	}
	if body == "" {
		return nil, errors.BadRequest("Message body must not be empty", nil)
	}

	envelope.Body = body
	envelope.Edited = true
	if err := uc.envelopeRepo.Update(ctx, envelope); err != nil {
		return nil, err
	}

	uc.publisher.PublishToUser(envelope.ReceiverID, ws.EventMessageEdited, map[string]interface{}{
		"conversation_id": envelope.ConversationID,
		"message":         envelope,
	})
	return envelope, nil
}

// Delete soft-deletes an envelope; the record stays for the
// conversation history but is flagged.
func (uc *EnvelopeUseCase) Delete(ctx context.Context, envelopeID, actorID string) error {
	envelope, err := uc.envelopeRepo.GetByID(ctx, envelopeID)
	if err != nil {
		return err
	}
	if envelope.SenderID != actorID {
		return errors.Forbidden("Only the sender can delete a message", nil)
	}
	if envelope.Deleted {
		return nil
	}

	envelope.Deleted = true
	if err := uc.envelopeRepo.Update(ctx, envelope); err != nil {
		return err
	}

	uc.publisher.PublishToUser(envelope.ReceiverID, ws.EventMessageDeleted, map[string]interface{}{
		"conversation_id": envelope.ConversationID,
		"envelope_id":     envelope.ID,
	})
	return nil
}

func (uc *EnvelopeUseCase) ListConversations(ctx context.Context, userID string, limit, offset int) ([]*entity.Conversation, int64, error) {
	return uc.conversationRepo.ListByUserID(ctx, userID, limit, offset)
}

func (uc *EnvelopeUseCase) ListMessages(ctx context.Context, userID, conversationID string, limit, offset int) ([]*entity.Envelope, int64, error) {
	conversation, err := uc.conversationRepo.GetByID(ctx, conversationID)
	if err != nil {
		return nil, 0, err
	}
	if !conversation.HasParticipant(userID) {
		return nil, 0, errors.Forbidden("User is not a participant in this conversation", nil)
	}
	return uc.envelopeRepo.ListByConversation(ctx, conversationID, limit, offset)
}

func (uc *EnvelopeUseCase) MarkConversationRead(ctx context.Context, userID, conversationID string) error {
	conversation, err := uc.conversationRepo.GetByID(ctx, conversationID)
	if err != nil {
		return err
	}
	if !conversation.HasParticipant(userID) {
		return errors.Forbidden("User is not a participant in this conversation", nil)
	}
	return uc.conversationRepo.ResetUnread(ctx, conversationID, userID)
}

// UnreadSummary is the authoritative snapshot pushed to a client on
// connect and resync, so missed pushes never leave stale unread badges.
func (uc *EnvelopeUseCase) UnreadSummary(ctx context.Context, userID string) (interface{}, error) {
	conversations, _, err := uc.conversationRepo.ListByUserID(ctx, userID, 0, 0)
	if err != nil {
		return nil, err
	}

	unread := make(map[string]int)
	totalUnread := 0
	for _, c := range conversations {
		if n := c.UnreadCount[userID]; n > 0 {
			unread[c.ID] = n
			totalUnread += n
		}
	}

	return map[string]interface{}{
		"generated_at": time.Now().UTC().Format(time.RFC3339),
		"unread":       unread,
		"total_unread": totalUnread,
	}, nil
}
