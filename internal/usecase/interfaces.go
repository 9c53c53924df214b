package usecase

import "context"

// EventPublisher pushes domain events to connected clients. Delivery is
// at-least-once at best; clients resync authoritative state on
// reconnect.
type EventPublisher interface {
	PublishToUser(userID, eventType string, payload interface{})
	Broadcast(eventType string, payload interface{})
}

// Notifier hands domain events to the notification/email collaborator,
// which owns formatting and delivery of human-facing messages.
type Notifier interface {
	Notify(ctx context.Context, userID, kind string, payload map[string]interface{})
}
