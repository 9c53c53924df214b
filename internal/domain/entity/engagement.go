package entity

import "time"

// Engagement statuses. active is the only non-terminal state.
const (
	EngagementStatusActive    = "active"
	EngagementStatusCompleted = "completed"
	EngagementStatusCancelled = "cancelled"
)

// Payment axis, independent of the engagement status.
const (
	PaymentStatusPending = "pending"
	PaymentStatusPaid    = "paid"
)

// Engagement is a binding, priced agreement created from an accepted
// proposal envelope. Price is fixed at creation and immutable.
type Engagement struct {
	ID             string     `json:"id" firestore:"id"`
	EnvelopeID     string     `json:"envelope_id" firestore:"envelopeId"`
	ProfessionalID string     `json:"professional_id" firestore:"professionalId"`
	OrganizerID    string     `json:"organizer_id" firestore:"organizerId"`
	EventID        string     `json:"event_id" firestore:"eventId"`
	Services       []string   `json:"services" firestore:"services"`
	Price          float64    `json:"price" firestore:"price"`
	Status         string     `json:"status" firestore:"status"`
	PaymentStatus  string     `json:"payment_status" firestore:"paymentStatus"`
	ScheduledAt    time.Time  `json:"scheduled_at" firestore:"scheduledAt"`
	Location       string     `json:"location,omitempty" firestore:"location,omitempty"`
	CreatedAt      time.Time  `json:"created_at" firestore:"createdAt"`
	UpdatedAt      time.Time  `json:"updated_at" firestore:"updatedAt"`
	CompletedAt    *time.Time `json:"completed_at,omitempty" firestore:"completedAt,omitempty"`
	CancelledAt    *time.Time `json:"cancelled_at,omitempty" firestore:"cancelledAt,omitempty"`
	PaidAt         *time.Time `json:"paid_at,omitempty" firestore:"paidAt,omitempty"`
}

// IsParty reports whether the user is the professional or the organizer.
func (g *Engagement) IsParty(userID string) bool {
	return userID == g.ProfessionalID || userID == g.OrganizerID
}
