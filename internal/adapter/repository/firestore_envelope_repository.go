package repository

import (
	"context"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/google/uuid"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"vendra/internal/domain/entity"
	"vendra/internal/domain/repository"
	"vendra/pkg/errors"
)

type firestoreEnvelopeRepository struct {
	client *firestore.Client
}

func NewFirestoreEnvelopeRepository(client *firestore.Client) repository.EnvelopeRepository {
	return &firestoreEnvelopeRepository{
		client: client,
	}
}

func (r *firestoreEnvelopeRepository) Create(ctx context.Context, envelope *entity.Envelope) error {
	if envelope.ID == "" {
		envelope.ID = uuid.New().String()
	}

	now := time.Now()
	envelope.CreatedAt = now
	envelope.UpdatedAt = now

	_, err := r.client.Collection("envelopes").Doc(envelope.ID).Set(ctx, envelope)
	if err != nil {
		return errors.Internal("Failed to create message", err)
	}

	return nil
}

func (r *firestoreEnvelopeRepository) GetByID(ctx context.Context, id string) (*entity.Envelope, error) {
	doc, err := r.client.Collection("envelopes").Doc(id).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, errors.NotFound("Message", err)
		}
		return nil, errors.Internal("Failed to get message", err)
	}

	var envelope entity.Envelope
	if err := doc.DataTo(&envelope); err != nil {
		return nil, errors.Internal("Failed to parse message data", err)
	}

	return &envelope, nil
}

func (r *firestoreEnvelopeRepository) Update(ctx context.Context, envelope *entity.Envelope) error {
	envelope.UpdatedAt = time.Now()

	_, err := r.client.Collection("envelopes").Doc(envelope.ID).Set(ctx, envelope)
	if err != nil {
		return errors.Internal("Failed to update message", err)
	}

	return nil
}

func (r *firestoreEnvelopeRepository) ListByConversation(ctx context.Context, conversationID string, limit, offset int) ([]*entity.Envelope, int64, error) {
	query := r.client.Collection("envelopes").
		Where("conversationId", "==", conversationID).
		OrderBy("createdAt", firestore.Desc)

	countDocs, err := query.Documents(ctx).GetAll()
	if err != nil {
		return nil, 0, errors.Internal("Failed to count messages", err)
	}
	total := int64(len(countDocs))

	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}

	iter := query.Documents(ctx)
	var envelopes []*entity.Envelope

	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, 0, errors.Internal("Failed to iterate messages", err)
		}

		var envelope entity.Envelope
		if err := doc.DataTo(&envelope); err != nil {
			return nil, 0, errors.Internal("Failed to parse message data", err)
		}
		envelopes = append(envelopes, &envelope)
	}

	return envelopes, total, nil
}

func (r *firestoreEnvelopeRepository) FindOpenProposal(ctx context.Context, senderID, receiverID, eventID string) (*entity.Envelope, error) {
	query := r.client.Collection("envelopes").
		Where("senderId", "==", senderID).
		Where("receiverId", "==", receiverID).
		Where("proposal.eventId", "==", eventID).
		Where("status", "in", []string{entity.EnvelopeStatusUnread, entity.EnvelopeStatusRead}).
		Where("deleted", "==", false).
		Limit(1)

	iter := query.Documents(ctx)
	doc, err := iter.Next()
	if err != nil {
		if err == iterator.Done {
			return nil, errors.NotFound("Open proposal", nil)
		}
		return nil, errors.Internal("Failed to query open proposals", err)
	}

	var envelope entity.Envelope
	if err := doc.DataTo(&envelope); err != nil {
		return nil, errors.Internal("Failed to parse message data", err)
	}

	return &envelope, nil
}

func (r *firestoreEnvelopeRepository) MarkRead(ctx context.Context, id string) error {
	ref := r.client.Collection("envelopes").Doc(id)

	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		doc, err := tx.Get(ref)
		if err != nil {
			if status.Code(err) == codes.NotFound {
				return errors.NotFound("Message", err)
			}
			return errors.Internal("Failed to get message", err)
		}

		var envelope entity.Envelope
		if err := doc.DataTo(&envelope); err != nil {
			return errors.Internal("Failed to parse message data", err)
		}

		if envelope.Status != entity.EnvelopeStatusUnread {
			return nil
		}

		return tx.Update(ref, []firestore.Update{
			{Path: "status", Value: entity.EnvelopeStatusRead},
			{Path: "updatedAt", Value: time.Now()},
		})
	})
	if err != nil {
		if _, ok := err.(*errors.AppError); ok {
			return err
		}
		return errors.Internal("Failed to mark message read", err)
	}
	return nil
}

// Resolve is the one multi-entity transaction in the pipeline: the
// envelope status CAS and the engagement creation commit together or
// not at all.
func (r *firestoreEnvelopeRepository) Resolve(ctx context.Context, envelopeID, toStatus string, engagement *entity.Engagement) error {
	envRef := r.client.Collection("envelopes").Doc(envelopeID)

	if engagement != nil && engagement.ID == "" {
		engagement.ID = uuid.New().String()
	}

	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		doc, err := tx.Get(envRef)
		if err != nil {
			if status.Code(err) == codes.NotFound {
				return errors.NotFound("Message", err)
			}
			return errors.Internal("Failed to get message", err)
		}

		var envelope entity.Envelope
		if err := doc.DataTo(&envelope); err != nil {
			return errors.Internal("Failed to parse message data", err)
		}

		if envelope.IsTerminal() {
			return errors.Conflict("Request was already resolved")
		}

		now := time.Now()
		if err := tx.Update(envRef, []firestore.Update{
			{Path: "status", Value: toStatus},
			{Path: "updatedAt", Value: now},
		}); err != nil {
			return errors.Internal("Failed to update message status", err)
		}

		if engagement != nil {
			engagement.CreatedAt = now
			engagement.UpdatedAt = now
			gigRef := r.client.Collection("engagements").Doc(engagement.ID)
			if err := tx.Create(gigRef, engagement); err != nil {
				return errors.Internal("Failed to create engagement", err)
			}
		}
		return nil
	})
	if err != nil {
		if _, ok := err.(*errors.AppError); ok {
			return err
		}
		return errors.Internal("Failed to resolve message", err)
	}
	return nil
}
