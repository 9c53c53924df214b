package repository

import (
	"context"
	"sort"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"vendra/internal/domain/entity"
	"vendra/internal/domain/repository"
	"vendra/pkg/errors"
)

type firestoreEngagementRepository struct {
	client *firestore.Client
}

func NewFirestoreEngagementRepository(client *firestore.Client) repository.EngagementRepository {
	return &firestoreEngagementRepository{
		client: client,
	}
}

func (r *firestoreEngagementRepository) GetByID(ctx context.Context, id string) (*entity.Engagement, error) {
	doc, err := r.client.Collection("engagements").Doc(id).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, errors.NotFound("Engagement", err)
		}
		return nil, errors.Internal("Failed to get engagement", err)
	}

	var engagement entity.Engagement
	if err := doc.DataTo(&engagement); err != nil {
		return nil, errors.Internal("Failed to parse engagement data", err)
	}

	return &engagement, nil
}

func (r *firestoreEngagementRepository) GetByEnvelopeID(ctx context.Context, envelopeID string) (*entity.Engagement, error) {
	query := r.client.Collection("engagements").Where("envelopeId", "==", envelopeID).Limit(1)
	iter := query.Documents(ctx)
	doc, err := iter.Next()
	if err != nil {
		if err == iterator.Done {
			return nil, errors.NotFound("Engagement", nil)
		}
		return nil, errors.Internal("Failed to query engagement by envelope", err)
	}

	var engagement entity.Engagement
	if err := doc.DataTo(&engagement); err != nil {
		return nil, errors.Internal("Failed to parse engagement data", err)
	}

	return &engagement, nil
}

func (r *firestoreEngagementRepository) ListByUserID(ctx context.Context, userID string, limit, offset int) ([]*entity.Engagement, int64, error) {
	// A user can appear on either side; Firestore has no OR queries, so
	// run one query per side and merge.
	var all []*entity.Engagement
	for _, field := range []string{"professionalId", "organizerId"} {
		docs, err := r.client.Collection("engagements").Where(field, "==", userID).Documents(ctx).GetAll()
		if err != nil {
			return nil, 0, errors.Internal("Failed to fetch engagements", err)
		}
		for _, doc := range docs {
			var engagement entity.Engagement
			if err := doc.DataTo(&engagement); err != nil {
				continue
			}
			all = append(all, &engagement)
		}
	}

	sort.Slice(all, func(i, j int) bool {
		return all[i].CreatedAt.After(all[j].CreatedAt)
	})

	total := int64(len(all))
	start := offset
	if start > len(all) {
		start = len(all)
	}
	end := len(all)
	if limit > 0 && start+limit < end {
		end = start + limit
	}

	return all[start:end], total, nil
}

func (r *firestoreEngagementRepository) UpdateStatusCAS(ctx context.Context, id, fromStatus, toStatus string) (*entity.Engagement, error) {
	ref := r.client.Collection("engagements").Doc(id)

	var result entity.Engagement
	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		doc, err := tx.Get(ref)
		if err != nil {
			if status.Code(err) == codes.NotFound {
				return errors.NotFound("Engagement", err)
			}
			return errors.Internal("Failed to get engagement", err)
		}

		var engagement entity.Engagement
		if err := doc.DataTo(&engagement); err != nil {
			return errors.Internal("Failed to parse engagement data", err)
		}

		if engagement.Status != fromStatus {
			return errors.Conflict("Engagement is no longer " + fromStatus)
		}

		now := time.Now()
		engagement.Status = toStatus
		engagement.UpdatedAt = now
		switch toStatus {
		case entity.EngagementStatusCompleted:
			engagement.CompletedAt = &now
		case entity.EngagementStatusCancelled:
			engagement.CancelledAt = &now
		}

		if err := tx.Set(ref, &engagement); err != nil {
			return errors.Internal("Failed to update engagement", err)
		}
		result = engagement
		return nil
	})
	if err != nil {
		if _, ok := err.(*errors.AppError); ok {
			return nil, err
		}
		return nil, errors.Internal("Failed to update engagement status", err)
	}
	return &result, nil
}

// RecordCapture stores the capture reference and flips paymentStatus in
// one transaction. The reference doc id is the idempotency key: a
// duplicate delivery reads the existing doc and leaves everything else
// untouched.
func (r *firestoreEngagementRepository) RecordCapture(ctx context.Context, capture *entity.PaymentCapture) (*entity.Engagement, bool, error) {
	capRef := r.client.Collection("payment_captures").Doc(capture.Reference)
	gigRef := r.client.Collection("engagements").Doc(capture.EngagementID)

	var result entity.Engagement
	duplicate := false

	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		duplicate = false

		gigDoc, err := tx.Get(gigRef)
		if err != nil {
			if status.Code(err) == codes.NotFound {
				return errors.NotFound("Engagement", err)
			}
			return errors.Internal("Failed to get engagement", err)
		}

		var engagement entity.Engagement
		if err := gigDoc.DataTo(&engagement); err != nil {
			return errors.Internal("Failed to parse engagement data", err)
		}

		_, err = tx.Get(capRef)
		if err == nil {
			duplicate = true
			result = engagement
			return nil
		}
		if status.Code(err) != codes.NotFound {
			return errors.Internal("Failed to check capture reference", err)
		}

		now := time.Now()
		capture.CreatedAt = now
		if err := tx.Create(capRef, capture); err != nil {
			return errors.Internal("Failed to record capture", err)
		}

		if engagement.Status != entity.EngagementStatusCancelled && engagement.PaymentStatus == entity.PaymentStatusPending {
			engagement.PaymentStatus = entity.PaymentStatusPaid
			engagement.PaidAt = &now
			engagement.UpdatedAt = now
			if err := tx.Set(gigRef, &engagement); err != nil {
				return errors.Internal("Failed to update payment status", err)
			}
		}
		result = engagement
		return nil
	})
	if err != nil {
		if _, ok := err.(*errors.AppError); ok {
			return nil, false, err
		}
		return nil, false, errors.Internal("Failed to record payment capture", err)
	}
	return &result, duplicate, nil
}
