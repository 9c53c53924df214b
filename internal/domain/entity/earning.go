package entity

import "time"

// Earning statuses move strictly pending -> available -> withdrawn.
const (
	EarningStatusPending   = "pending"
	EarningStatusAvailable = "available"
	EarningStatusWithdrawn = "withdrawn"
)

// Earning is an append-only escrow ledger entry, created at most once
// per engagement on payment capture. Net always equals gross minus fee;
// the amounts are never recomputed after creation.
type Earning struct {
	ID             string     `json:"id" firestore:"id"`
	ProfessionalID string     `json:"professional_id" firestore:"professionalId"`
	EngagementID   string     `json:"engagement_id" firestore:"engagementId"`
	GrossAmount    float64    `json:"gross_amount" firestore:"grossAmount"`
	ServiceFee     float64    `json:"service_fee" firestore:"serviceFee"`
	NetAmount      float64    `json:"net_amount" firestore:"netAmount"`
	Status         string     `json:"status" firestore:"status"`
	AvailableDate  time.Time  `json:"available_date" firestore:"availableDate"`
	WithdrawalID   string     `json:"withdrawal_id,omitempty" firestore:"withdrawalId,omitempty"`
	CreatedAt      time.Time  `json:"created_at" firestore:"createdAt"`
	UpdatedAt      time.Time  `json:"updated_at" firestore:"updatedAt"`
	WithdrawnAt    *time.Time `json:"withdrawn_at,omitempty" firestore:"withdrawnAt,omitempty"`
}

// StatusAt evaluates the hold-period predicate lazily: a pending entry
// becomes available once the hold period has elapsed. Withdrawn entries
// are unaffected. The predicate is pure and monotonic, so no background
// sweeper is needed.
func (e *Earning) StatusAt(now time.Time) string {
	if e.Status == EarningStatusPending && !now.Before(e.AvailableDate) {
		return EarningStatusAvailable
	}
	return e.Status
}

// Withdrawal records an atomic batch of earning withdrawals, keyed by
// the caller-supplied batch id so resubmission is idempotent.
type Withdrawal struct {
	ID             string    `json:"id" firestore:"id"`
	ProfessionalID string    `json:"professional_id" firestore:"professionalId"`
	EarningIDs     []string  `json:"earning_ids" firestore:"earningIds"`
	TotalNet       float64   `json:"total_net" firestore:"totalNet"`
	CreatedAt      time.Time `json:"created_at" firestore:"createdAt"`
}
