package entity

import "time"

// PaymentCapture records an inbound capture event from the payment
// collaborator, keyed by the collaborator's reference so duplicate
// deliveries are no-ops.
type PaymentCapture struct {
	Reference    string    `json:"reference" firestore:"reference"`
	EngagementID string    `json:"engagement_id" firestore:"engagementId"`
	Amount       float64   `json:"amount" firestore:"amount"`
	CreatedAt    time.Time `json:"created_at" firestore:"createdAt"`
}
