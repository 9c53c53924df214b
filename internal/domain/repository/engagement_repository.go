package repository

import (
	"context"

	"vendra/internal/domain/entity"
)

type EngagementRepository interface {
	GetByID(ctx context.Context, id string) (*entity.Engagement, error)
	GetByEnvelopeID(ctx context.Context, envelopeID string) (*entity.Engagement, error)
	ListByUserID(ctx context.Context, userID string, limit, offset int) ([]*entity.Engagement, int64, error)

	// UpdateStatusCAS transitions status only when the current value
	// matches fromStatus; returns Conflict otherwise.
	UpdateStatusCAS(ctx context.Context, id, fromStatus, toStatus string) (*entity.Engagement, error)

	// RecordCapture persists the capture reference and marks the
	// engagement paid in one transaction. A reference seen before
	// returns the engagement unchanged with duplicate=true.
	RecordCapture(ctx context.Context, capture *entity.PaymentCapture) (engagement *entity.Engagement, duplicate bool, err error)
}
