package repository

import (
	"context"

	"vendra/internal/domain/entity"
)

type ConversationRepository interface {
	GetByID(ctx context.Context, id string) (*entity.Conversation, error)
	Upsert(ctx context.Context, conversation *entity.Conversation) error
	ListByUserID(ctx context.Context, userID string, limit, offset int) ([]*entity.Conversation, int64, error)

	// ResetUnread zeroes the unread counter for one participant.
	ResetUnread(ctx context.Context, conversationID, userID string) error
}
