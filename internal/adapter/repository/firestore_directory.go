package repository

import (
	"context"

	"cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"vendra/internal/domain/entity"
	"vendra/internal/domain/service"
	"vendra/pkg/errors"
)

// firestoreDirectory is the read-only adapter over the event and profile
// collections owned by the CRUD subsystem. The pipeline only resolves
// ids and copies immutable fields; it never writes here.
type firestoreDirectory struct {
	client *firestore.Client
}

func NewFirestoreDirectory(client *firestore.Client) interface {
	service.EventDirectory
	service.ProfileDirectory
} {
	return &firestoreDirectory{
		client: client,
	}
}

func (d *firestoreDirectory) GetEvent(ctx context.Context, eventID string) (*entity.Event, error) {
	doc, err := d.client.Collection("events").Doc(eventID).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, errors.NotFound("Event", err)
		}
		return nil, errors.ExternalDependency("Event directory unavailable", err)
	}

	var event entity.Event
	if err := doc.DataTo(&event); err != nil {
		return nil, errors.Internal("Failed to parse event data", err)
	}

	return &event, nil
}

func (d *firestoreDirectory) GetProfile(ctx context.Context, userID string) (*entity.Profile, error) {
	doc, err := d.client.Collection("users").Doc(userID).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, errors.NotFound("User", err)
		}
		return nil, errors.ExternalDependency("Profile directory unavailable", err)
	}

	var profile entity.Profile
	if err := doc.DataTo(&profile); err != nil {
		return nil, errors.Internal("Failed to parse profile data", err)
	}

	return &profile, nil
}
