package entity

import (
	"time"

	"vendra/pkg/errors"
)

// Envelope kinds. A chat envelope is plain conversation; the other three
// kinds carry a structured proposal payload.
const (
	EnvelopeKindChat           = "chat"
	EnvelopeKindServiceRequest = "service_request"
	EnvelopeKindHireRequest    = "hire_request"
	EnvelopeKindServiceOffer   = "service_offer"
)

// Envelope statuses. unread and read are non-terminal; accepted and
// rejected are terminal and immutable.
const (
	EnvelopeStatusUnread   = "unread"
	EnvelopeStatusRead     = "read"
	EnvelopeStatusAccepted = "accepted"
	EnvelopeStatusRejected = "rejected"
)

// Envelope is a single message between two users: either plain chat or a
// proposal (service request, hire request, service offer).
type Envelope struct {
	ID             string    `json:"id" firestore:"id"`
	ConversationID string    `json:"conversation_id" firestore:"conversationId"`
	SenderID       string    `json:"sender_id" firestore:"senderId"`
	ReceiverID     string    `json:"receiver_id" firestore:"receiverId"`
	Kind           string    `json:"kind" firestore:"kind"`
	Body           string    `json:"body" firestore:"body"`
	AttachmentURL  string    `json:"attachment_url,omitempty" firestore:"attachmentUrl,omitempty"`
	Status         string    `json:"status" firestore:"status"`
	Deleted        bool      `json:"deleted" firestore:"deleted"`
	Edited         bool      `json:"edited" firestore:"edited"`
	CreatedAt      time.Time `json:"created_at" firestore:"createdAt"`
	UpdatedAt      time.Time `json:"updated_at" firestore:"updatedAt"`

	// Proposal payload, present only for non-chat kinds.
	Proposal *Proposal `json:"proposal,omitempty" firestore:"proposal,omitempty"`
}

// Proposal is the fixed payload shape shared by all proposal kinds.
// Validated at the boundary so downstream code never branches on
// field presence.
type Proposal struct {
	Services      []string `json:"services" firestore:"services"`
	EventID       string   `json:"event_id" firestore:"eventId"`
	ProposedPrice float64  `json:"proposed_price,omitempty" firestore:"proposedPrice,omitempty"`
}

// IsProposal reports whether the envelope carries a proposal payload.
func (e *Envelope) IsProposal() bool {
	return e.Kind != EnvelopeKindChat
}

// IsTerminal reports whether the envelope has been resolved.
func (e *Envelope) IsTerminal() bool {
	return e.Status == EnvelopeStatusAccepted || e.Status == EnvelopeStatusRejected
}

// Validate enforces the per-kind payload shape.
func (e *Envelope) Validate() error {
	switch e.Kind {
	case EnvelopeKindChat:
		if e.Proposal != nil {
			return errors.BadRequest("Chat messages must not carry a proposal payload", nil)
		}
		if e.Body == "" && e.AttachmentURL == "" {
			return errors.BadRequest("Chat messages require a body or attachment", nil)
		}
	case EnvelopeKindServiceRequest, EnvelopeKindHireRequest, EnvelopeKindServiceOffer:
		if e.Proposal == nil {
			return errors.BadRequest("Proposal envelopes require a payload", nil)
		}
		if len(e.Proposal.Services) == 0 {
			return errors.BadRequest("Proposal requires at least one service", nil)
		}
		if e.Proposal.EventID == "" {
			return errors.BadRequest("Proposal requires a related event", nil)
		}
		if e.Proposal.ProposedPrice < 0 {
			return errors.BadRequest("Proposed price must not be negative", nil)
		}
	default:
		return errors.BadRequest("Unknown envelope kind", nil)
	}
	if e.SenderID == "" || e.ReceiverID == "" {
		return errors.BadRequest("Envelope requires sender and receiver", nil)
	}
	if e.SenderID == e.ReceiverID {
		return errors.BadRequest("Sender and receiver must differ", nil)
	}
	return nil
}
