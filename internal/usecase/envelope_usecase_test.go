package usecase

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vendra/internal/domain/entity"
	ws "vendra/internal/infrastructure/websocket"
	"vendra/pkg/errors"
)

func TestSendChatCreatesConversation(t *testing.T) {
	s := newTestStack()
	ctx := context.Background()

	envelope, err := s.envelopeUC.Send(ctx, "organizer", SendEnvelopeInput{
		ReceiverID: "pro",
		Kind:       entity.EnvelopeKindChat,
		Body:       "hello",
	})
	require.NoError(t, err)
	assert.Equal(t, entity.EnvelopeStatusUnread, envelope.Status)

	conversations, total, err := s.envelopeUC.ListConversations(ctx, "pro", 20, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Equal(t, 1, conversations[0].UnreadCount["pro"])
	assert.Equal(t, 0, conversations[0].UnreadCount["organizer"])

	// Both directions thread into the same conversation.
	_, err = s.envelopeUC.Send(ctx, "pro", SendEnvelopeInput{
		ReceiverID: "organizer",
		Kind:       entity.EnvelopeKindChat,
		Body:       "hi back",
	})
	require.NoError(t, err)

	conversations, total, err = s.envelopeUC.ListConversations(ctx, "organizer", 20, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Equal(t, 1, conversations[0].UnreadCount["organizer"])

	pushed := s.publisher.byType(ws.EventMessageNew)
	assert.Len(t, pushed, 2)
}

func TestSendProposalValidation(t *testing.T) {
	s := newTestStack()
	ctx := context.Background()

	_, err := s.envelopeUC.Send(ctx, "organizer", SendEnvelopeInput{
		ReceiverID: "pro",
		Kind:       entity.EnvelopeKindHireRequest,
		EventID:    "event-1",
	})
	assert.True(t, errors.Is(err, "BAD_REQUEST"), "proposal without services must be rejected")

	_, err = s.envelopeUC.Send(ctx, "organizer", SendEnvelopeInput{
		ReceiverID: "pro",
		Kind:       entity.EnvelopeKindHireRequest,
		Services:   []string{"sound"},
		EventID:    "missing-event",
	})
	assert.True(t, errors.Is(err, "NOT_FOUND"), "proposal against unknown event must fail")

	_, err = s.envelopeUC.Send(ctx, "organizer", SendEnvelopeInput{
		ReceiverID: "ghost",
		Kind:       entity.EnvelopeKindChat,
		Body:       "anyone there?",
	})
	assert.True(t, errors.Is(err, "NOT_FOUND"), "unknown receiver must fail")
}

func TestDuplicateOpenProposalRejected(t *testing.T) {
	s := newTestStack()
	ctx := context.Background()

	first, err := s.sendProposal(ctx, 5000)
	require.NoError(t, err)

	_, err = s.sendProposal(ctx, 6000)
	assert.True(t, errors.Is(err, "CONFLICT"), "second open proposal for the same event must conflict")

	// Once the first is resolved a new proposal is allowed again.
	require.NoError(t, s.envelopeUC.Reject(ctx, first.ID, "pro"))
	_, err = s.sendProposal(ctx, 6000)
	assert.NoError(t, err)
}

func TestDeletedProposalFreesTheSlot(t *testing.T) {
	s := newTestStack()
	ctx := context.Background()

	first, err := s.sendProposal(ctx, 5000)
	require.NoError(t, err)

	// A retracted proposal no longer occupies the (sender, receiver,
	// event) slot.
	require.NoError(t, s.envelopeUC.Delete(ctx, first.ID, "organizer"))
	_, err = s.sendProposal(ctx, 6000)
	assert.NoError(t, err)
}

func TestMarkReadIsReceiverOnlyAndIdempotent(t *testing.T) {
	s := newTestStack()
	ctx := context.Background()

	envelope, err := s.sendProposal(ctx, 5000)
	require.NoError(t, err)

	err = s.envelopeUC.MarkRead(ctx, envelope.ID, "organizer")
	assert.True(t, errors.Is(err, "FORBIDDEN"))

	require.NoError(t, s.envelopeUC.MarkRead(ctx, envelope.ID, "pro"))
	require.NoError(t, s.envelopeUC.MarkRead(ctx, envelope.ID, "pro"))

	// Only the first transition notifies the sender.
	assert.Len(t, s.publisher.byType(ws.EventEnvelopeStatus), 1)
}

func TestAcceptCreatesEngagement(t *testing.T) {
	s := newTestStack()
	ctx := context.Background()

	envelope, err := s.sendProposal(ctx, 5000)
	require.NoError(t, err)

	// Reading first is allowed but not required.
	require.NoError(t, s.envelopeUC.MarkRead(ctx, envelope.ID, "pro"))

	engagement, err := s.envelopeUC.Accept(ctx, envelope.ID, "pro")
	require.NoError(t, err)

	assert.Equal(t, envelope.ID, engagement.EnvelopeID)
	assert.Equal(t, "pro", engagement.ProfessionalID)
	assert.Equal(t, "organizer", engagement.OrganizerID)
	assert.Equal(t, "event-1", engagement.EventID)
	assert.Equal(t, float64(5000), engagement.Price)
	assert.Equal(t, entity.EngagementStatusActive, engagement.Status)
	assert.Equal(t, entity.PaymentStatusPending, engagement.PaymentStatus)
	assert.Equal(t, "Riverside Hall", engagement.Location)

	stored, err := s.mem.Envelopes().GetByID(ctx, envelope.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.EnvelopeStatusAccepted, stored.Status)

	// The conversation now points at the engagement.
	conversation, err := s.mem.Conversations().GetByID(ctx, envelope.ConversationID)
	require.NoError(t, err)
	assert.Equal(t, engagement.ID, conversation.EngagementID)
}

func TestAcceptGuards(t *testing.T) {
	s := newTestStack()
	ctx := context.Background()

	chat, err := s.envelopeUC.Send(ctx, "organizer", SendEnvelopeInput{
		ReceiverID: "pro",
		Kind:       entity.EnvelopeKindChat,
		Body:       "hello",
	})
	require.NoError(t, err)

	_, err = s.envelopeUC.Accept(ctx, chat.ID, "pro")
	assert.True(t, errors.Is(err, "BAD_REQUEST"), "chat messages are not acceptable")

	proposal, err := s.sendProposal(ctx, 5000)
	require.NoError(t, err)

	_, err = s.envelopeUC.Accept(ctx, proposal.ID, "organizer")
	assert.True(t, errors.Is(err, "FORBIDDEN"), "only the receiver may accept")

	_, err = s.envelopeUC.Accept(ctx, proposal.ID, "pro")
	require.NoError(t, err)

	// A fresh accept of a resolved request is an illegal transition.
	_, err = s.envelopeUC.Accept(ctx, proposal.ID, "pro")
	assert.True(t, errors.Is(err, "ILLEGAL_STATE_TRANSITION"))

	err = s.envelopeUC.Reject(ctx, proposal.ID, "pro")
	assert.True(t, errors.Is(err, "ILLEGAL_STATE_TRANSITION"), "reject after accept is illegal")
}

func TestConcurrentAcceptCreatesOneEngagement(t *testing.T) {
	s := newTestStack()
	ctx := context.Background()

	envelope, err := s.sendProposal(ctx, 5000)
	require.NoError(t, err)

	const attempts = 8
	results := make([]*entity.Engagement, attempts)
	errs := make([]error, attempts)

	var wg sync.WaitGroup
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = s.envelopeUC.Accept(ctx, envelope.ID, "pro")
		}(i)
	}
	wg.Wait()

	// Exactly one engagement exists; every racer that got past the
	// pre-check observed the same one.
	engagement, err := s.mem.Engagements().GetByEnvelopeID(ctx, envelope.ID)
	require.NoError(t, err)

	for i := 0; i < attempts; i++ {
		if errs[i] != nil {
			assert.True(t, errors.Is(errs[i], "ILLEGAL_STATE_TRANSITION"))
			continue
		}
		assert.Equal(t, engagement.ID, results[i].ID)
	}

	engagements, total, err := s.mem.Engagements().ListByUserID(ctx, "pro", 100, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Len(t, engagements, 1)
}

func TestRejectIsTerminalWithoutEngagement(t *testing.T) {
	s := newTestStack()
	ctx := context.Background()

	envelope, err := s.sendProposal(ctx, 5000)
	require.NoError(t, err)

	require.NoError(t, s.envelopeUC.Reject(ctx, envelope.ID, "pro"))

	stored, err := s.mem.Envelopes().GetByID(ctx, envelope.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.EnvelopeStatusRejected, stored.Status)

	_, err = s.mem.Engagements().GetByEnvelopeID(ctx, envelope.ID)
	assert.True(t, errors.Is(err, "NOT_FOUND"))

	_, err = s.envelopeUC.Accept(ctx, envelope.ID, "pro")
	assert.True(t, errors.Is(err, "ILLEGAL_STATE_TRANSITION"))
}

func TestEditOnlyChatMessages(t *testing.T) {
	s := newTestStack()
	ctx := context.Background()

	chat, err := s.envelopeUC.Send(ctx, "organizer", SendEnvelopeInput{
		ReceiverID: "pro",
		Kind:       entity.EnvelopeKindChat,
		Body:       "original",
	})
	require.NoError(t, err)

	_, err = s.envelopeUC.Edit(ctx, chat.ID, "pro", "hijacked")
	assert.True(t, errors.Is(err, "FORBIDDEN"), "only the sender may edit")

	edited, err := s.envelopeUC.Edit(ctx, chat.ID, "organizer", "corrected")
	require.NoError(t, err)
	assert.Equal(t, "corrected", edited.Body)
	assert.True(t, edited.Edited)

	proposal, err := s.sendProposal(ctx, 5000)
	require.NoError(t, err)

	_, err = s.envelopeUC.Edit(ctx, proposal.ID, "organizer", "actually 4000")
	assert.True(t, errors.Is(err, "ILLEGAL_STATE_TRANSITION"), "proposals are immutable")
}

func TestDeleteSoftDeletes(t *testing.T) {
	s := newTestStack()
	ctx := context.Background()

	chat, err := s.envelopeUC.Send(ctx, "organizer", SendEnvelopeInput{
		ReceiverID: "pro",
		Kind:       entity.EnvelopeKindChat,
		Body:       "oops",
	})
	require.NoError(t, err)

	require.NoError(t, s.envelopeUC.Delete(ctx, chat.ID, "organizer"))

	stored, err := s.mem.Envelopes().GetByID(ctx, chat.ID)
	require.NoError(t, err)
	assert.True(t, stored.Deleted)

	_, err = s.envelopeUC.Edit(ctx, chat.ID, "organizer", "too late")
	assert.True(t, errors.Is(err, "NOT_FOUND"))
}

func TestMarkConversationReadResetsUnread(t *testing.T) {
	s := newTestStack()
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := s.envelopeUC.Send(ctx, "organizer", SendEnvelopeInput{
			ReceiverID: "pro",
			Kind:       entity.EnvelopeKindChat,
			Body:       "ping",
		})
		require.NoError(t, err)
	}

	conversationID := entity.ConversationID("organizer", "pro")

	err := s.envelopeUC.MarkConversationRead(ctx, "stranger", conversationID)
	assert.True(t, errors.Is(err, "FORBIDDEN"))

	require.NoError(t, s.envelopeUC.MarkConversationRead(ctx, "pro", conversationID))

	summary, err := s.envelopeUC.UnreadSummary(ctx, "pro")
	require.NoError(t, err)
	assert.Equal(t, 0, summary.(map[string]interface{})["total_unread"])
}

func TestUnreadSummaryCountsPerConversation(t *testing.T) {
	s := newTestStack()
	ctx := context.Background()

	s.directory.profiles["second"] = &entity.Profile{ID: "second", Username: "sam", Role: "organizer"}

	for i := 0; i < 2; i++ {
		_, err := s.envelopeUC.Send(ctx, "organizer", SendEnvelopeInput{
			ReceiverID: "pro",
			Kind:       entity.EnvelopeKindChat,
			Body:       "ping",
		})
		require.NoError(t, err)
	}
	_, err := s.envelopeUC.Send(ctx, "second", SendEnvelopeInput{
		ReceiverID: "pro",
		Kind:       entity.EnvelopeKindChat,
		Body:       "ping",
	})
	require.NoError(t, err)

	summary, err := s.envelopeUC.UnreadSummary(ctx, "pro")
	require.NoError(t, err)

	snapshot := summary.(map[string]interface{})
	assert.Equal(t, 3, snapshot["total_unread"])
	unread := snapshot["unread"].(map[string]int)
	assert.Equal(t, 2, unread[entity.ConversationID("organizer", "pro")])
	assert.Equal(t, 1, unread[entity.ConversationID("second", "pro")])
}
