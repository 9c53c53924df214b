package repository

import (
	"context"

	"vendra/internal/domain/entity"
)

type EnvelopeRepository interface {
	Create(ctx context.Context, envelope *entity.Envelope) error
	GetByID(ctx context.Context, id string) (*entity.Envelope, error)
	Update(ctx context.Context, envelope *entity.Envelope) error
	ListByConversation(ctx context.Context, conversationID string, limit, offset int) ([]*entity.Envelope, int64, error)

	// FindOpenProposal returns the non-terminal proposal envelope for a
	// (sender, receiver, event) triple, or NotFound when none is open.
	FindOpenProposal(ctx context.Context, senderID, receiverID, eventID string) (*entity.Envelope, error)

	// MarkRead flips unread -> read if and only if the envelope is still
	// unread; terminal envelopes are left untouched.
	MarkRead(ctx context.Context, id string) error

	// Resolve performs the compare-and-set from a non-terminal status to
	// the given terminal status, creating the engagement (when non-nil)
	// in the same transaction. Both writes succeed or fail together.
	// Returns Conflict when another caller resolved the envelope first.
	Resolve(ctx context.Context, envelopeID, toStatus string, engagement *entity.Engagement) error
}
