package usecase

import (
	"context"
	"math"
	"time"

	"github.com/google/uuid"

	"vendra/internal/domain/entity"
	"vendra/internal/domain/repository"
	ws "vendra/internal/infrastructure/websocket"
	"vendra/pkg/errors"
	"vendra/pkg/logger"
)

// LedgerUseCase manages the escrow ledger. Entries are created once per
// engagement, amounts are fixed at creation, and maturity is evaluated
// lazily at read time rather than by a background sweeper.
type LedgerUseCase struct {
	earningRepo repository.EarningRepository
	publisher   EventPublisher
	notifier    Notifier
	feeRate     float64
	holdPeriod  time.Duration

	now func() time.Time
}

func NewLedgerUseCase(
	earningRepo repository.EarningRepository,
	publisher EventPublisher,
	notifier Notifier,
	feeRate float64,
	holdPeriod time.Duration,
) *LedgerUseCase {
	return &LedgerUseCase{
		earningRepo: earningRepo,
		publisher:   publisher,
		notifier:    notifier,
		feeRate:     feeRate,
		holdPeriod:  holdPeriod,
		now:         time.Now,
	}
}

// CreateEntry records the professional's earning for an engagement. The
// gross is the engagement's agreed price, not the captured total. Safe
// to call more than once; only the first call writes.
func (uc *LedgerUseCase) CreateEntry(ctx context.Context, engagement *entity.Engagement) (*entity.Earning, error) {
	now := uc.now()
	gross := engagement.Price
	fee := math.Round(gross * uc.feeRate)

	earning := &entity.Earning{
		ID:             uuid.New().String(),
		ProfessionalID: engagement.ProfessionalID,
		EngagementID:   engagement.ID,
		GrossAmount:    gross,
		ServiceFee:     fee,
		NetAmount:      gross - fee,
		Status:         entity.EarningStatusPending,
		AvailableDate:  now.Add(uc.holdPeriod),
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	stored, existed, err := uc.earningRepo.Create(ctx, earning)
	if err != nil {
		return nil, err
	}
	if existed {
		return stored, nil
	}

	payload := map[string]interface{}{
		"engagement_id":  stored.EngagementID,
		"net_amount":     stored.NetAmount,
		"available_date": stored.AvailableDate,
	}
	uc.notifier.Notify(ctx, stored.ProfessionalID, "earning_created", payload)
	return stored, nil
}

// EarningTotals summarizes a professional's ledger by effective status.
type EarningTotals struct {
	Pending   float64 `json:"pending"`
	Available float64 `json:"available"`
	Withdrawn float64 `json:"withdrawn"`
}

// List returns the professional's ledger with maturity materialized:
// any entry whose hold period has elapsed is persisted as available and
// announced, once, on the first read that observes it.
func (uc *LedgerUseCase) List(ctx context.Context, professionalID string) ([]*entity.Earning, *EarningTotals, error) {
	earnings, err := uc.earningRepo.ListByProfessional(ctx, professionalID)
	if err != nil {
		return nil, nil, err
	}

	now := uc.now()
	totals := &EarningTotals{}
	for _, earning := range earnings {
		effective := earning.StatusAt(now)
		if effective == entity.EarningStatusAvailable && earning.Status == entity.EarningStatusPending {
			flipped, err := uc.earningRepo.MarkAvailable(ctx, earning.EngagementID)
			if err != nil {
				logger.Error("persisting maturity for engagement %s: %v", earning.EngagementID, err)
			} else if flipped {
				uc.publisher.PublishToUser(professionalID, ws.EventEarningMatured, map[string]interface{}{
					"engagement_id": earning.EngagementID,
					"net_amount":    earning.NetAmount,
				})
			}
			earning.Status = entity.EarningStatusAvailable
		}

		switch effective {
		case entity.EarningStatusPending:
			totals.Pending += earning.NetAmount
		case entity.EarningStatusAvailable:
			totals.Available += earning.NetAmount
		case entity.EarningStatusWithdrawn:
			totals.Withdrawn += earning.NetAmount
		}
	}

	return earnings, totals, nil
}

// Withdraw moves the named entries to withdrawn as one batch. Every
// entry must belong to the caller and be available (maturity is
// materialized first); a partial batch never commits. Resubmitting the
// same batch id returns the stored result unchanged.
func (uc *LedgerUseCase) Withdraw(ctx context.Context, professionalID, batchID string, engagementIDs []string) (*entity.Withdrawal, error) {
	if batchID == "" {
		return nil, errors.BadRequest("Batch id is required", nil)
	}
	if len(engagementIDs) == 0 {
		return nil, errors.BadRequest("At least one earning is required", nil)
	}

	now := uc.now()
	var totalNet float64
	for _, engagementID := range engagementIDs {
		earning, err := uc.earningRepo.GetByEngagementID(ctx, engagementID)
		if err != nil {
			return nil, err
		}
		if earning.ProfessionalID != professionalID {
			return nil, errors.Forbidden("Earning does not belong to this professional", nil)
		}
		if earning.StatusAt(now) == entity.EarningStatusAvailable && earning.Status == entity.EarningStatusPending {
			if _, err := uc.earningRepo.MarkAvailable(ctx, engagementID); err != nil {
				return nil, err
			}
		}
		totalNet += earning.NetAmount
	}

	withdrawal := &entity.Withdrawal{
		ID:             batchID,
		ProfessionalID: professionalID,
		EarningIDs:     engagementIDs,
		TotalNet:       totalNet,
		CreatedAt:      now,
	}

	stored, duplicate, err := uc.earningRepo.Withdraw(ctx, withdrawal)
	if err != nil {
		return nil, err
	}
	if duplicate {
		logger.Info("duplicate withdrawal batch %s for professional %s", batchID, professionalID)
		return stored, nil
	}

	uc.notifier.Notify(ctx, professionalID, "withdrawal_completed", map[string]interface{}{
		"batch_id":  stored.ID,
		"total_net": stored.TotalNet,
	})
	return stored, nil
}
