package websocket

// Server-push event types. Delivery is at-least-once: the channel does
// not guarantee a client was connected at emission time, and clients
// resynchronize authoritative state on reconnect instead of relying on
// replay.
const (
	EventMessageNew       = "message:new"
	EventMessageEdited    = "message:edited"
	EventMessageDeleted   = "message:deleted"
	EventEnvelopeStatus   = "envelope:status"
	EventEngagementStatus = "engagement:status"
	EventEarningMatured   = "earning:matured"
	EventUserOnline       = "user:online"
	EventUserOffline      = "user:offline"
	EventUserAway         = "user:away"
	EventNotification     = "notification"
	EventSync             = "sync"
	EventPong             = "pong"
	EventError            = "error"
)

// Client frame types.
const (
	FramePing   = "ping"
	FrameAway   = "away"
	FrameResync = "resync"
)

// Event is the wire schema for server pushes: event name, typed payload
// and a per-process monotonic id clients can deduplicate on.
type Event struct {
	ID        uint64      `json:"id"`
	Type      string      `json:"type"`
	Payload   interface{} `json:"payload,omitempty"`
	Timestamp string      `json:"timestamp"`
}

// Frame is an inbound client message.
type Frame struct {
	Type string `json:"type"`
	Away bool   `json:"away,omitempty"`
}

// PresencePayload accompanies user:online, user:offline and user:away.
type PresencePayload struct {
	UserID   string `json:"user_id"`
	LastSeen string `json:"last_seen,omitempty"`
	Away     bool   `json:"away,omitempty"`
}
