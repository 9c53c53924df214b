package repository

import (
	"context"

	"vendra/internal/domain/entity"
)

type EarningRepository interface {
	// Create inserts the entry keyed by engagement id. When an entry for
	// the engagement already exists it is returned unchanged with
	// existed=true; the ledger is append-only.
	Create(ctx context.Context, earning *entity.Earning) (stored *entity.Earning, existed bool, err error)

	GetByEngagementID(ctx context.Context, engagementID string) (*entity.Earning, error)
	ListByProfessional(ctx context.Context, professionalID string) ([]*entity.Earning, error)

	// MarkAvailable persists the lazy pending -> available flip. Returns
	// false when another reader already persisted it.
	MarkAvailable(ctx context.Context, engagementID string) (bool, error)

	// Withdraw atomically moves all entries to withdrawn under the given
	// batch. Every entry must be available; a partial batch never
	// commits. A batch id seen before returns the stored withdrawal
	// unchanged with duplicate=true.
	Withdraw(ctx context.Context, withdrawal *entity.Withdrawal) (stored *entity.Withdrawal, duplicate bool, err error)

	GetWithdrawal(ctx context.Context, batchID string) (*entity.Withdrawal, error)
}
