package websocket

import (
	"context"
	"encoding/json"
	"sync"
	"sync/atomic"
	"time"

	"vendra/internal/infrastructure/presence"
	"vendra/pkg/logger"
)

// SyncFunc builds the authoritative state snapshot pushed to a client on
// connect and on an explicit resync frame.
type SyncFunc func(ctx context.Context, userID string) (interface{}, error)

// Manager multiplexes every live connection. A user may hold several
// connections (multi-tab, multi-device); online/offline transitions fire
// on the 0->1 and 1->0 edges of the per-user connection count, with a
// grace window on the way down to absorb page-refresh flaps.
type Manager struct {
	mu          sync.RWMutex
	clients     map[string]map[string]*Client // userID -> connID -> client
	graceTimers map[string]*time.Timer

	store presence.Store
	grace time.Duration
	ttl   time.Duration
	seq   atomic.Uint64

	syncFn SyncFunc
}

func NewManager(store presence.Store, grace, ttl time.Duration) *Manager {
	return &Manager{
		clients:     make(map[string]map[string]*Client),
		graceTimers: make(map[string]*time.Timer),
		store:       store,
		grace:       grace,
		ttl:         ttl,
	}
}

// SetSyncFunc wires the resync snapshot provider. Set once during
// startup, before any connection is accepted.
func (m *Manager) SetSyncFunc(fn SyncFunc) {
	m.syncFn = fn
}

// Register adds a connection. Duplicate registrations of the same
// connection id are no-ops so a connection is never counted twice.
func (m *Manager) Register(client *Client) {
	m.mu.Lock()
	conns, ok := m.clients[client.UserID]
	if !ok {
		conns = make(map[string]*Client)
		m.clients[client.UserID] = conns
	}
	if _, dup := conns[client.ConnID]; dup {
		m.mu.Unlock()
		return
	}
	wentOnline := len(conns) == 0
	conns[client.ConnID] = client
	if timer, ok := m.graceTimers[client.UserID]; ok {
		timer.Stop()
		delete(m.graceTimers, client.UserID)
		// Reconnected within the grace window; no offline was emitted
		// and no online should be re-emitted.
		wentOnline = false
	}
	m.mu.Unlock()

	if err := m.store.Touch(context.Background(), client.UserID, client.ConnID, m.ttl); err != nil {
		logger.Warn("presence touch failed for %s: %v", client.UserID, err)
	}

	if wentOnline {
		m.Broadcast(EventUserOnline, PresencePayload{UserID: client.UserID})
	}

	m.pushSync(client)
	logger.Info("websocket client registered: user=%s conn=%s", client.UserID, client.ConnID)
}

// Unregister removes a connection. When the user's count reaches zero a
// grace timer is started; user:offline is emitted exactly once if no
// reconnect happens before it fires.
func (m *Manager) Unregister(client *Client) {
	m.mu.Lock()
	conns, ok := m.clients[client.UserID]
	if !ok {
		m.mu.Unlock()
		return
	}
	registered, ok := conns[client.ConnID]
	if !ok || registered != client {
		m.mu.Unlock()
		return
	}
	delete(conns, client.ConnID)
	close(client.Send)
	lastConn := len(conns) == 0
	if lastConn {
		delete(m.clients, client.UserID)
		userID := client.UserID
		m.graceTimers[userID] = time.AfterFunc(m.grace, func() {
			m.emitOffline(userID)
		})
	}
	m.mu.Unlock()

	if err := m.store.Remove(context.Background(), client.UserID, client.ConnID); err != nil {
		logger.Warn("presence remove failed for %s: %v", client.UserID, err)
	}
	logger.Info("websocket client unregistered: user=%s conn=%s", client.UserID, client.ConnID)
}

func (m *Manager) emitOffline(userID string) {
	m.mu.Lock()
	if _, pending := m.graceTimers[userID]; !pending {
		m.mu.Unlock()
		return
	}
	delete(m.graceTimers, userID)
	if len(m.clients[userID]) > 0 {
		// Reconnected while the timer was firing.
		m.mu.Unlock()
		return
	}
	m.mu.Unlock()

	payload := PresencePayload{UserID: userID}
	if ts, ok, err := m.store.LastSeen(context.Background(), userID); err == nil && ok {
		payload.LastSeen = ts.UTC().Format(time.RFC3339)
	}
	m.Broadcast(EventUserOffline, payload)
}

// Touch refreshes the presence TTL for a connection; driven by client
// heartbeats.
func (m *Manager) Touch(client *Client) {
	if err := m.store.Touch(context.Background(), client.UserID, client.ConnID, m.ttl); err != nil {
		logger.Warn("presence touch failed for %s: %v", client.UserID, err)
	}
}

// SetAway relays a page-visibility signal without touching the
// connection count.
func (m *Manager) SetAway(client *Client, away bool) {
	m.Broadcast(EventUserAway, PresencePayload{UserID: client.UserID, Away: away})
}

// IsOnline answers from the shared presence store, so the result is
// correct across instances.
func (m *Manager) IsOnline(ctx context.Context, userID string) (bool, error) {
	return m.store.IsOnline(ctx, userID)
}

func (m *Manager) nextEvent(eventType string, payload interface{}) Event {
	return Event{
		ID:        m.seq.Add(1),
		Type:      eventType,
		Payload:   payload,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
}

// PublishToUser pushes an event to every live connection of one user.
// Delivery is at-least-once at best: a user with no connections simply
// misses the push and resyncs on reconnect.
func (m *Manager) PublishToUser(userID, eventType string, payload interface{}) {
	data, err := json.Marshal(m.nextEvent(eventType, payload))
	if err != nil {
		logger.Error("failed to marshal %s event: %v", eventType, err)
		return
	}

	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, client := range m.clients[userID] {
		client.trySend(data)
	}
}

// Broadcast pushes an event to every connected client.
func (m *Manager) Broadcast(eventType string, payload interface{}) {
	data, err := json.Marshal(m.nextEvent(eventType, payload))
	if err != nil {
		logger.Error("failed to marshal %s event: %v", eventType, err)
		return
	}

	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, conns := range m.clients {
		for _, client := range conns {
			client.trySend(data)
		}
	}
}

func (m *Manager) pushSync(client *Client) {
	if m.syncFn == nil {
		return
	}
	snapshot, err := m.syncFn(context.Background(), client.UserID)
	if err != nil {
		logger.Warn("sync snapshot failed for %s: %v", client.UserID, err)
		return
	}
	data, err := json.Marshal(m.nextEvent(EventSync, snapshot))
	if err != nil {
		logger.Error("failed to marshal sync event: %v", err)
		return
	}
	client.trySend(data)
}

func (m *Manager) sendEvent(client *Client, eventType string, payload interface{}) {
	data, err := json.Marshal(m.nextEvent(eventType, payload))
	if err != nil {
		logger.Error("failed to marshal %s event: %v", eventType, err)
		return
	}
	client.trySend(data)
}
