package repository

import (
	"context"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/google/uuid"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"vendra/internal/domain/entity"
	"vendra/internal/domain/repository"
	"vendra/pkg/errors"
)

type firestoreEarningRepository struct {
	client *firestore.Client
}

func NewFirestoreEarningRepository(client *firestore.Client) repository.EarningRepository {
	return &firestoreEarningRepository{
		client: client,
	}
}

// Earnings are keyed by engagement id, which is the ledger's uniqueness
// constraint: tx.Create fails when an entry already exists.
func (r *firestoreEarningRepository) Create(ctx context.Context, earning *entity.Earning) (*entity.Earning, bool, error) {
	ref := r.client.Collection("earnings").Doc(earning.EngagementID)

	var result entity.Earning
	existed := false

	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		existed = false

		doc, err := tx.Get(ref)
		if err == nil {
			existed = true
			return doc.DataTo(&result)
		}
		if status.Code(err) != codes.NotFound {
			return errors.Internal("Failed to check ledger entry", err)
		}

		if earning.ID == "" {
			earning.ID = uuid.New().String()
		}
		now := time.Now()
		earning.CreatedAt = now
		earning.UpdatedAt = now

		if err := tx.Create(ref, earning); err != nil {
			return errors.Internal("Failed to create ledger entry", err)
		}
		result = *earning
		return nil
	})
	if err != nil {
		if _, ok := err.(*errors.AppError); ok {
			return nil, false, err
		}
		return nil, false, errors.Internal("Failed to create ledger entry", err)
	}
	return &result, existed, nil
}

func (r *firestoreEarningRepository) GetByEngagementID(ctx context.Context, engagementID string) (*entity.Earning, error) {
	doc, err := r.client.Collection("earnings").Doc(engagementID).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, errors.NotFound("Earning", err)
		}
		return nil, errors.Internal("Failed to get ledger entry", err)
	}

	var earning entity.Earning
	if err := doc.DataTo(&earning); err != nil {
		return nil, errors.Internal("Failed to parse ledger entry", err)
	}

	return &earning, nil
}

func (r *firestoreEarningRepository) ListByProfessional(ctx context.Context, professionalID string) ([]*entity.Earning, error) {
	query := r.client.Collection("earnings").
		Where("professionalId", "==", professionalID).
		OrderBy("createdAt", firestore.Asc)

	docs, err := query.Documents(ctx).GetAll()
	if err != nil {
		return nil, errors.Internal("Failed to fetch ledger entries", err)
	}

	var earnings []*entity.Earning
	for _, doc := range docs {
		var earning entity.Earning
		if err := doc.DataTo(&earning); err != nil {
			continue
		}
		earnings = append(earnings, &earning)
	}

	return earnings, nil
}

func (r *firestoreEarningRepository) MarkAvailable(ctx context.Context, engagementID string) (bool, error) {
	ref := r.client.Collection("earnings").Doc(engagementID)

	flipped := false
	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		flipped = false

		doc, err := tx.Get(ref)
		if err != nil {
			if status.Code(err) == codes.NotFound {
				return errors.NotFound("Earning", err)
			}
			return errors.Internal("Failed to get ledger entry", err)
		}

		var earning entity.Earning
		if err := doc.DataTo(&earning); err != nil {
			return errors.Internal("Failed to parse ledger entry", err)
		}

		if earning.Status != entity.EarningStatusPending {
			return nil
		}

		flipped = true
		return tx.Update(ref, []firestore.Update{
			{Path: "status", Value: entity.EarningStatusAvailable},
			{Path: "updatedAt", Value: time.Now()},
		})
	})
	if err != nil {
		if _, ok := err.(*errors.AppError); ok {
			return false, err
		}
		return false, errors.Internal("Failed to mark ledger entry available", err)
	}
	return flipped, nil
}

// Withdraw moves the whole batch to withdrawn in one transaction, so a
// partial batch can never commit. The withdrawal doc is keyed by the
// caller's batch id; resubmission reads the stored result back.
func (r *firestoreEarningRepository) Withdraw(ctx context.Context, withdrawal *entity.Withdrawal) (*entity.Withdrawal, bool, error) {
	batchRef := r.client.Collection("withdrawals").Doc(withdrawal.ID)

	var result entity.Withdrawal
	duplicate := false

	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		duplicate = false

		doc, err := tx.Get(batchRef)
		if err == nil {
			duplicate = true
			return doc.DataTo(&result)
		}
		if status.Code(err) != codes.NotFound {
			return errors.Internal("Failed to check withdrawal batch", err)
		}

		now := time.Now()
		var totalNet float64
		earnings := make([]*entity.Earning, 0, len(withdrawal.EarningIDs))
		refs := make([]*firestore.DocumentRef, 0, len(withdrawal.EarningIDs))

		for _, engagementID := range withdrawal.EarningIDs {
			ref := r.client.Collection("earnings").Doc(engagementID)
			doc, err := tx.Get(ref)
			if err != nil {
				if status.Code(err) == codes.NotFound {
					return errors.NotFound("Earning", err)
				}
				return errors.Internal("Failed to get ledger entry", err)
			}

			var earning entity.Earning
			if err := doc.DataTo(&earning); err != nil {
				return errors.Internal("Failed to parse ledger entry", err)
			}
			if earning.ProfessionalID != withdrawal.ProfessionalID {
				return errors.Forbidden("Earning belongs to another professional", nil)
			}
			if earning.StatusAt(now) != entity.EarningStatusAvailable {
				return errors.IllegalState("Earning is not yet available for withdrawal")
			}

			totalNet += earning.NetAmount
			earnings = append(earnings, &earning)
			refs = append(refs, ref)
		}

		for i, earning := range earnings {
			earning.Status = entity.EarningStatusWithdrawn
			earning.WithdrawalID = withdrawal.ID
			earning.WithdrawnAt = &now
			earning.UpdatedAt = now
			if err := tx.Set(refs[i], earning); err != nil {
				return errors.Internal("Failed to update ledger entry", err)
			}
		}

		withdrawal.TotalNet = totalNet
		withdrawal.CreatedAt = now
		if err := tx.Create(batchRef, withdrawal); err != nil {
			return errors.Internal("Failed to record withdrawal batch", err)
		}
		result = *withdrawal
		return nil
	})
	if err != nil {
		if _, ok := err.(*errors.AppError); ok {
			return nil, false, err
		}
		return nil, false, errors.Internal("Failed to withdraw earnings", err)
	}
	return &result, duplicate, nil
}

func (r *firestoreEarningRepository) GetWithdrawal(ctx context.Context, batchID string) (*entity.Withdrawal, error) {
	doc, err := r.client.Collection("withdrawals").Doc(batchID).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, errors.NotFound("Withdrawal", err)
		}
		return nil, errors.Internal("Failed to get withdrawal batch", err)
	}

	var withdrawal entity.Withdrawal
	if err := doc.DataTo(&withdrawal); err != nil {
		return nil, errors.Internal("Failed to parse withdrawal data", err)
	}

	return &withdrawal, nil
}
