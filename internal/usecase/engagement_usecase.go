package usecase

import (
	"context"

	"vendra/internal/domain/entity"
	"vendra/internal/domain/repository"
	"vendra/internal/domain/service"
	ws "vendra/internal/infrastructure/websocket"
	"vendra/pkg/errors"
	"vendra/pkg/logger"
)

// EngagementUseCase owns the engagement lifecycle. Engagements are
// created only through the accept path and mutated only here, in
// response to explicit actor actions or the payment-capture event.
type EngagementUseCase struct {
	engagementRepo repository.EngagementRepository
	events         service.EventDirectory
	ledgerUC       *LedgerUseCase
	publisher      EventPublisher
	notifier       Notifier
}

func NewEngagementUseCase(
	engagementRepo repository.EngagementRepository,
	events service.EventDirectory,
	ledgerUC *LedgerUseCase,
	publisher EventPublisher,
	notifier Notifier,
) *EngagementUseCase {
	return &EngagementUseCase{
		engagementRepo: engagementRepo,
		events:         events,
		ledgerUC:       ledgerUC,
		publisher:      publisher,
		notifier:       notifier,
	}
}

// buildFromEnvelope assembles the engagement an accepted proposal will
// create. The event directory is consulted so a stale event reference
// fails fast here instead of surfacing at read time; the organizer is
// derived from the event, the professional is the other party.
func (uc *EngagementUseCase) buildFromEnvelope(ctx context.Context, envelope *entity.Envelope) (*entity.Engagement, error) {
	event, err := uc.events.GetEvent(ctx, envelope.Proposal.EventID)
	if err != nil {
		return nil, err
	}

	var professionalID string
	switch event.OrganizerID {
	case envelope.SenderID:
		professionalID = envelope.ReceiverID
	case envelope.ReceiverID:
		professionalID = envelope.SenderID
	default:
		return nil, errors.Forbidden("Event does not belong to either party", nil)
	}

	services := make([]string, len(envelope.Proposal.Services))
	copy(services, envelope.Proposal.Services)

	return &entity.Engagement{
		EnvelopeID:     envelope.ID,
		ProfessionalID: professionalID,
		OrganizerID:    event.OrganizerID,
		EventID:        event.ID,
		Services:       services,
		Price:          envelope.Proposal.ProposedPrice,
		Status:         entity.EngagementStatusActive,
		PaymentStatus:  entity.PaymentStatusPending,
		ScheduledAt:    event.StartTime,
		Location:       event.Location,
	}, nil
}

func (uc *EngagementUseCase) GetByID(ctx context.Context, engagementID, actorID string) (*entity.Engagement, error) {
	engagement, err := uc.engagementRepo.GetByID(ctx, engagementID)
	if err != nil {
		return nil, err
	}
	if !engagement.IsParty(actorID) {
		return nil, errors.Forbidden("User is not a party to this engagement", nil)
	}
	return engagement, nil
}

func (uc *EngagementUseCase) ListByUser(ctx context.Context, userID string, limit, offset int) ([]*entity.Engagement, int64, error) {
	return uc.engagementRepo.ListByUserID(ctx, userID, limit, offset)
}

// Complete marks the work done. Payment may still be pending; when the
// capture already arrived, completion is the later of the two and
// triggers ledger entry creation (idempotent if capture got there
// first).
func (uc *EngagementUseCase) Complete(ctx context.Context, engagementID, actorID string) (*entity.Engagement, error) {
	engagement, err := uc.engagementRepo.GetByID(ctx, engagementID)
	if err != nil {
		return nil, err
	}
	if engagement.ProfessionalID != actorID {
		return nil, errors.Forbidden("Only the professional can complete an engagement", nil)
	}
	if engagement.Status != entity.EngagementStatusActive {
		return nil, errors.IllegalState("Engagement is " + engagement.Status)
	}

	engagement, err = uc.engagementRepo.UpdateStatusCAS(ctx, engagementID, entity.EngagementStatusActive, entity.EngagementStatusCompleted)
	if err != nil {
		return nil, err
	}

	if engagement.PaymentStatus == entity.PaymentStatusPaid {
		if _, err := uc.ledgerUC.CreateEntry(ctx, engagement); err != nil {
			logger.Error("ledger entry creation failed for engagement %s: %v", engagementID, err)
			return nil, err
		}
	}

	uc.announceStatus(ctx, engagement)
	return engagement, nil
}

// Cancel ends an active engagement. A cancelled engagement never has a
// ledger entry: captures arriving after cancellation are logged no-ops,
// and once a capture has landed (the entry exists) cancellation is no
// longer allowed. Unwinding captured funds is the payment
// collaborator's job, not the ledger's.
func (uc *EngagementUseCase) Cancel(ctx context.Context, engagementID, actorID string) (*entity.Engagement, error) {
	engagement, err := uc.engagementRepo.GetByID(ctx, engagementID)
	if err != nil {
		return nil, err
	}
	if !engagement.IsParty(actorID) {
		return nil, errors.Forbidden("User is not a party to this engagement", nil)
	}
	if engagement.Status != entity.EngagementStatusActive {
		return nil, errors.IllegalState("Engagement is " + engagement.Status)
	}
	if engagement.PaymentStatus == entity.PaymentStatusPaid {
		return nil, errors.IllegalState("Engagement has a captured payment and can no longer be cancelled")
	}

	engagement, err = uc.engagementRepo.UpdateStatusCAS(ctx, engagementID, entity.EngagementStatusActive, entity.EngagementStatusCancelled)
	if err != nil {
		return nil, err
	}

	uc.announceStatus(ctx, engagement)
	return engagement, nil
}

// RecordPaymentCaptured handles the inbound capture event from the
// payment collaborator. Idempotent per reference; captures against a
// cancelled or already-paid engagement are logged no-ops, never errors,
// so collaborator retries stay safe.
func (uc *EngagementUseCase) RecordPaymentCaptured(ctx context.Context, engagementID, reference string, amount float64) (*entity.Engagement, error) {
	if reference == "" {
		return nil, errors.BadRequest("Capture reference is required", nil)
	}
	if amount <= 0 {
		return nil, errors.BadRequest("Capture amount must be positive", nil)
	}

	engagement, duplicate, err := uc.engagementRepo.RecordCapture(ctx, &entity.PaymentCapture{
		Reference:    reference,
		EngagementID: engagementID,
		Amount:       amount,
	})
	if err != nil {
		return nil, err
	}
	if duplicate {
		logger.Info("duplicate capture reference %s for engagement %s ignored", reference, engagementID)
		return engagement, nil
	}

	if engagement.Status == entity.EngagementStatusCancelled {
		logger.Warn("capture %s arrived for cancelled engagement %s; no ledger entry created", reference, engagementID)
		return engagement, nil
	}

	// The ledger entry is keyed to the engagement's fixed price, not
	// the captured total, which may include buyer-side charges.
	if _, err := uc.ledgerUC.CreateEntry(ctx, engagement); err != nil {
		logger.Error("ledger entry creation failed for engagement %s: %v", engagementID, err)
		return nil, err
	}

	payload := map[string]interface{}{
		"engagement_id":  engagement.ID,
		"payment_status": engagement.PaymentStatus,
	}
	uc.publisher.PublishToUser(engagement.ProfessionalID, ws.EventEngagementStatus, payload)
	uc.publisher.PublishToUser(engagement.OrganizerID, ws.EventEngagementStatus, payload)

	return engagement, nil
}

func (uc *EngagementUseCase) announceStatus(ctx context.Context, engagement *entity.Engagement) {
	payload := map[string]interface{}{
		"engagement_id":  engagement.ID,
		"status":         engagement.Status,
		"payment_status": engagement.PaymentStatus,
	}
	uc.publisher.PublishToUser(engagement.ProfessionalID, ws.EventEngagementStatus, payload)
	uc.publisher.PublishToUser(engagement.OrganizerID, ws.EventEngagementStatus, payload)
	uc.notifier.Notify(ctx, engagement.OrganizerID, "engagement_"+engagement.Status, payload)
}
