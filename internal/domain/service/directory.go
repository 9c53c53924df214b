package service

import (
	"context"

	"vendra/internal/domain/entity"
)

// EventDirectory resolves event ids to their immutable fields. Backed by
// the event CRUD subsystem, which is outside this pipeline; the pipeline
// only checks existence and copies fields at engagement creation.
type EventDirectory interface {
	GetEvent(ctx context.Context, eventID string) (*entity.Event, error)
}

// ProfileDirectory resolves user ids. Used to confirm a counterparty
// exists before an envelope is created.
type ProfileDirectory interface {
	GetProfile(ctx context.Context, userID string) (*entity.Profile, error)
}
