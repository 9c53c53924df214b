// In-memory repositories backing local development and the usecase test
// suites. All stores share one mutex, which makes the envelope-resolve
// plus engagement-create boundary trivially atomic, matching the
// Firestore transaction in the production adapters.
package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"vendra/internal/domain/entity"
	"vendra/internal/domain/repository"
	"vendra/pkg/errors"
)

type Memory struct {
	mu                   sync.Mutex
	envelopes            map[string]*entity.Envelope
	conversations        map[string]*entity.Conversation
	engagements          map[string]*entity.Engagement
	engagementByEnvelope map[string]string
	captures             map[string]*entity.PaymentCapture
	earnings             map[string]*entity.Earning // keyed by engagement id
	withdrawals          map[string]*entity.Withdrawal
}

func NewMemory() *Memory {
	return &Memory{
		envelopes:            make(map[string]*entity.Envelope),
		conversations:        make(map[string]*entity.Conversation),
		engagements:          make(map[string]*entity.Engagement),
		engagementByEnvelope: make(map[string]string),
		captures:             make(map[string]*entity.PaymentCapture),
		earnings:             make(map[string]*entity.Earning),
		withdrawals:          make(map[string]*entity.Withdrawal),
	}
}

func (m *Memory) Envelopes() repository.EnvelopeRepository {
	return &memoryEnvelopeRepository{m}
}

func (m *Memory) Conversations() repository.ConversationRepository {
	return &memoryConversationRepository{m}
}

func (m *Memory) Engagements() repository.EngagementRepository {
	return &memoryEngagementRepository{m}
}

func (m *Memory) Earnings() repository.EarningRepository {
	return &memoryEarningRepository{m}
}

type memoryEnvelopeRepository struct{ m *Memory }

func (r *memoryEnvelopeRepository) Create(ctx context.Context, envelope *entity.Envelope) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	if envelope.ID == "" {
		envelope.ID = uuid.New().String()
	}
	now := time.Now()
	envelope.CreatedAt = now
	envelope.UpdatedAt = now

	cp := *envelope
	r.m.envelopes[envelope.ID] = &cp
	return nil
}

func (r *memoryEnvelopeRepository) GetByID(ctx context.Context, id string) (*entity.Envelope, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	e, ok := r.m.envelopes[id]
	if !ok {
		return nil, errors.NotFound("Message", nil)
	}
	cp := *e
	return &cp, nil
}

func (r *memoryEnvelopeRepository) Update(ctx context.Context, envelope *entity.Envelope) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	if _, ok := r.m.envelopes[envelope.ID]; !ok {
		return errors.NotFound("Message", nil)
	}
	envelope.UpdatedAt = time.Now()
	cp := *envelope
	r.m.envelopes[envelope.ID] = &cp
	return nil
}

func (r *memoryEnvelopeRepository) ListByConversation(ctx context.Context, conversationID string, limit, offset int) ([]*entity.Envelope, int64, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	var all []*entity.Envelope
	for _, e := range r.m.envelopes {
		if e.ConversationID == conversationID {
			cp := *e
			all = append(all, &cp)
		}
	}
	sort.Slice(all, func(i, j int) bool {
		return all[i].CreatedAt.After(all[j].CreatedAt)
	})
	return paginate(all, limit, offset)
}

func (r *memoryEnvelopeRepository) FindOpenProposal(ctx context.Context, senderID, receiverID, eventID string) (*entity.Envelope, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	for _, e := range r.m.envelopes {
		if e.Kind == entity.EnvelopeKindChat || e.Deleted || e.IsTerminal() {
			continue
		}
		if e.SenderID == senderID && e.ReceiverID == receiverID && e.Proposal != nil && e.Proposal.EventID == eventID {
			cp := *e
			return &cp, nil
		}
	}
	return nil, errors.NotFound("Open proposal", nil)
}

func (r *memoryEnvelopeRepository) MarkRead(ctx context.Context, id string) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	e, ok := r.m.envelopes[id]
	if !ok {
		return errors.NotFound("Message", nil)
	}
	if e.Status == entity.EnvelopeStatusUnread {
		e.Status = entity.EnvelopeStatusRead
		e.UpdatedAt = time.Now()
	}
	return nil
}

func (r *memoryEnvelopeRepository) Resolve(ctx context.Context, envelopeID, toStatus string, engagement *entity.Engagement) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	e, ok := r.m.envelopes[envelopeID]
	if !ok {
		return errors.NotFound("Message", nil)
	}
	if e.IsTerminal() {
		return errors.Conflict("Request was already resolved")
	}

	now := time.Now()
	e.Status = toStatus
	e.UpdatedAt = now

	if engagement != nil {
		if engagement.ID == "" {
			engagement.ID = uuid.New().String()
		}
		engagement.CreatedAt = now
		engagement.UpdatedAt = now
		cp := *engagement
		r.m.engagements[engagement.ID] = &cp
		r.m.engagementByEnvelope[envelopeID] = engagement.ID
	}
	return nil
}

type memoryConversationRepository struct{ m *Memory }

func (r *memoryConversationRepository) GetByID(ctx context.Context, id string) (*entity.Conversation, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	c, ok := r.m.conversations[id]
	if !ok {
		return nil, errors.NotFound("Conversation", nil)
	}
	cp := *c
	cp.UnreadCount = copyCounts(c.UnreadCount)
	return &cp, nil
}

func (r *memoryConversationRepository) Upsert(ctx context.Context, conversation *entity.Conversation) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	now := time.Now()
	if existing, ok := r.m.conversations[conversation.ID]; ok {
		conversation.CreatedAt = existing.CreatedAt
	} else {
		conversation.CreatedAt = now
	}
	conversation.UpdatedAt = now

	cp := *conversation
	cp.UnreadCount = copyCounts(conversation.UnreadCount)
	r.m.conversations[conversation.ID] = &cp
	return nil
}

func (r *memoryConversationRepository) ListByUserID(ctx context.Context, userID string, limit, offset int) ([]*entity.Conversation, int64, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	var all []*entity.Conversation
	for _, c := range r.m.conversations {
		if c.HasParticipant(userID) {
			cp := *c
			cp.UnreadCount = copyCounts(c.UnreadCount)
			all = append(all, &cp)
		}
	}
	sort.Slice(all, func(i, j int) bool {
		return all[i].UpdatedAt.After(all[j].UpdatedAt)
	})
	return paginate(all, limit, offset)
}

func (r *memoryConversationRepository) ResetUnread(ctx context.Context, conversationID, userID string) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	c, ok := r.m.conversations[conversationID]
	if !ok {
		return errors.NotFound("Conversation", nil)
	}
	if c.UnreadCount != nil {
		c.UnreadCount[userID] = 0
	}
	return nil
}

type memoryEngagementRepository struct{ m *Memory }

func (r *memoryEngagementRepository) GetByID(ctx context.Context, id string) (*entity.Engagement, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	return r.getLocked(id)
}

func (r *memoryEngagementRepository) getLocked(id string) (*entity.Engagement, error) {
	g, ok := r.m.engagements[id]
	if !ok {
		return nil, errors.NotFound("Engagement", nil)
	}
	cp := *g
	return &cp, nil
}

func (r *memoryEngagementRepository) GetByEnvelopeID(ctx context.Context, envelopeID string) (*entity.Engagement, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	id, ok := r.m.engagementByEnvelope[envelopeID]
	if !ok {
		return nil, errors.NotFound("Engagement", nil)
	}
	return r.getLocked(id)
}

func (r *memoryEngagementRepository) ListByUserID(ctx context.Context, userID string, limit, offset int) ([]*entity.Engagement, int64, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	var all []*entity.Engagement
	for _, g := range r.m.engagements {
		if g.IsParty(userID) {
			cp := *g
			all = append(all, &cp)
		}
	}
	sort.Slice(all, func(i, j int) bool {
		return all[i].CreatedAt.After(all[j].CreatedAt)
	})
	return paginate(all, limit, offset)
}

func (r *memoryEngagementRepository) UpdateStatusCAS(ctx context.Context, id, fromStatus, toStatus string) (*entity.Engagement, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	g, ok := r.m.engagements[id]
	if !ok {
		return nil, errors.NotFound("Engagement", nil)
	}
	if g.Status != fromStatus {
		return nil, errors.Conflict("Engagement is no longer " + fromStatus)
	}

	now := time.Now()
	g.Status = toStatus
	g.UpdatedAt = now
	switch toStatus {
	case entity.EngagementStatusCompleted:
		g.CompletedAt = &now
	case entity.EngagementStatusCancelled:
		g.CancelledAt = &now
	}
	cp := *g
	return &cp, nil
}

func (r *memoryEngagementRepository) RecordCapture(ctx context.Context, capture *entity.PaymentCapture) (*entity.Engagement, bool, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	g, ok := r.m.engagements[capture.EngagementID]
	if !ok {
		return nil, false, errors.NotFound("Engagement", nil)
	}

	if _, seen := r.m.captures[capture.Reference]; seen {
		cp := *g
		return &cp, true, nil
	}

	now := time.Now()
	capture.CreatedAt = now
	capCp := *capture
	r.m.captures[capture.Reference] = &capCp

	if g.Status != entity.EngagementStatusCancelled && g.PaymentStatus == entity.PaymentStatusPending {
		g.PaymentStatus = entity.PaymentStatusPaid
		g.PaidAt = &now
		g.UpdatedAt = now
	}
	cp := *g
	return &cp, false, nil
}

type memoryEarningRepository struct{ m *Memory }

func (r *memoryEarningRepository) Create(ctx context.Context, earning *entity.Earning) (*entity.Earning, bool, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	if existing, ok := r.m.earnings[earning.EngagementID]; ok {
		cp := *existing
		return &cp, true, nil
	}

	if earning.ID == "" {
		earning.ID = uuid.New().String()
	}
	now := time.Now()
	earning.CreatedAt = now
	earning.UpdatedAt = now

	cp := *earning
	r.m.earnings[earning.EngagementID] = &cp
	result := cp
	return &result, false, nil
}

func (r *memoryEarningRepository) GetByEngagementID(ctx context.Context, engagementID string) (*entity.Earning, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	e, ok := r.m.earnings[engagementID]
	if !ok {
		return nil, errors.NotFound("Earning", nil)
	}
	cp := *e
	return &cp, nil
}

func (r *memoryEarningRepository) ListByProfessional(ctx context.Context, professionalID string) ([]*entity.Earning, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	var all []*entity.Earning
	for _, e := range r.m.earnings {
		if e.ProfessionalID == professionalID {
			cp := *e
			all = append(all, &cp)
		}
	}
	sort.Slice(all, func(i, j int) bool {
		return all[i].CreatedAt.Before(all[j].CreatedAt)
	})
	return all, nil
}

func (r *memoryEarningRepository) MarkAvailable(ctx context.Context, engagementID string) (bool, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	e, ok := r.m.earnings[engagementID]
	if !ok {
		return false, errors.NotFound("Earning", nil)
	}
	if e.Status != entity.EarningStatusPending {
		return false, nil
	}
	e.Status = entity.EarningStatusAvailable
	e.UpdatedAt = time.Now()
	return true, nil
}

func (r *memoryEarningRepository) Withdraw(ctx context.Context, withdrawal *entity.Withdrawal) (*entity.Withdrawal, bool, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	if existing, ok := r.m.withdrawals[withdrawal.ID]; ok {
		cp := *existing
		return &cp, true, nil
	}

	now := time.Now()

	// Validate the whole batch before mutating anything: a partial
	// batch must never commit.
	entries := make([]*entity.Earning, 0, len(withdrawal.EarningIDs))
	var totalNet float64
	for _, engagementID := range withdrawal.EarningIDs {
		e, ok := r.m.earnings[engagementID]
		if !ok {
			return nil, false, errors.NotFound("Earning", nil)
		}
		if e.ProfessionalID != withdrawal.ProfessionalID {
			return nil, false, errors.Forbidden("Earning belongs to another professional", nil)
		}
		if e.StatusAt(now) != entity.EarningStatusAvailable {
			return nil, false, errors.IllegalState("Earning is not yet available for withdrawal")
		}
		entries = append(entries, e)
		totalNet += e.NetAmount
	}

	for _, e := range entries {
		e.Status = entity.EarningStatusWithdrawn
		e.WithdrawalID = withdrawal.ID
		e.WithdrawnAt = &now
		e.UpdatedAt = now
	}

	withdrawal.TotalNet = totalNet
	withdrawal.CreatedAt = now
	cp := *withdrawal
	r.m.withdrawals[withdrawal.ID] = &cp
	result := cp
	return &result, false, nil
}

func (r *memoryEarningRepository) GetWithdrawal(ctx context.Context, batchID string) (*entity.Withdrawal, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	w, ok := r.m.withdrawals[batchID]
	if !ok {
		return nil, errors.NotFound("Withdrawal", nil)
	}
	cp := *w
	return &cp, nil
}

func copyCounts(counts map[string]int) map[string]int {
	if counts == nil {
		return nil
	}
	cp := make(map[string]int, len(counts))
	for k, v := range counts {
		cp[k] = v
	}
	return cp
}

func paginate[T any](all []T, limit, offset int) ([]T, int64, error) {
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
