package usecase

import (
	"context"
	"sync"
	"time"

	"vendra/internal/adapter/repository"
	"vendra/internal/domain/entity"
	"vendra/pkg/errors"
)

// Test fixtures shared by the usecase suites. Repositories are the
// in-memory adapters; directories, publisher and notifier are local
// stubs.

type stubDirectory struct {
	events   map[string]*entity.Event
	profiles map[string]*entity.Profile
}

func newStubDirectory() *stubDirectory {
	return &stubDirectory{
		events:   make(map[string]*entity.Event),
		profiles: make(map[string]*entity.Profile),
	}
}

func (d *stubDirectory) GetEvent(ctx context.Context, eventID string) (*entity.Event, error) {
	if e, ok := d.events[eventID]; ok {
		return e, nil
	}
	return nil, errors.NotFound("Event", nil)
}

func (d *stubDirectory) GetProfile(ctx context.Context, userID string) (*entity.Profile, error) {
	if p, ok := d.profiles[userID]; ok {
		return p, nil
	}
	return nil, errors.NotFound("User", nil)
}

type publishedEvent struct {
	UserID    string
	EventType string
	Payload   interface{}
}

type stubPublisher struct {
	mu     sync.Mutex
	events []publishedEvent
}

func (p *stubPublisher) PublishToUser(userID, eventType string, payload interface{}) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, publishedEvent{UserID: userID, EventType: eventType, Payload: payload})
}

func (p *stubPublisher) Broadcast(eventType string, payload interface{}) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, publishedEvent{EventType: eventType, Payload: payload})
}

func (p *stubPublisher) byType(eventType string) []publishedEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []publishedEvent
	for _, e := range p.events {
		if e.EventType == eventType {
			out = append(out, e)
		}
	}
	return out
}

type stubNotifier struct {
	mu    sync.Mutex
	kinds []string
}

func (n *stubNotifier) Notify(ctx context.Context, userID, kind string, payload map[string]interface{}) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.kinds = append(n.kinds, kind)
}

type testStack struct {
	mem          *repository.Memory
	directory    *stubDirectory
	publisher    *stubPublisher
	notifier     *stubNotifier
	envelopeUC   *EnvelopeUseCase
	engagementUC *EngagementUseCase
	ledgerUC     *LedgerUseCase
}

func newTestStack() *testStack {
	mem := repository.NewMemory()
	directory := newStubDirectory()
	publisher := &stubPublisher{}
	notifier := &stubNotifier{}

	ledgerUC := NewLedgerUseCase(mem.Earnings(), publisher, notifier, 0.05, 7*24*time.Hour)
	engagementUC := NewEngagementUseCase(mem.Engagements(), directory, ledgerUC, publisher, notifier)
	envelopeUC := NewEnvelopeUseCase(mem.Envelopes(), mem.Conversations(), mem.Engagements(), directory, directory, engagementUC, publisher, notifier)

	// Standard cast: organizer hosts the event, pro provides services.
	directory.profiles["organizer"] = &entity.Profile{ID: "organizer", Username: "olive", Role: "organizer"}
	directory.profiles["pro"] = &entity.Profile{ID: "pro", Username: "pat", Role: "professional"}
	directory.events["event-1"] = &entity.Event{
		ID:          "event-1",
		OrganizerID: "organizer",
		StartTime:   time.Date(2026, 10, 12, 18, 0, 0, 0, time.UTC),
		Location:    "Riverside Hall",
	}

	return &testStack{
		mem:          mem,
		directory:    directory,
		publisher:    publisher,
		notifier:     notifier,
		envelopeUC:   envelopeUC,
		engagementUC: engagementUC,
		ledgerUC:     ledgerUC,
	}
}

// sendProposal is the common setup step: organizer asks pro to work
// event-1 for the given price.
func (s *testStack) sendProposal(ctx context.Context, price float64) (*entity.Envelope, error) {
	return s.envelopeUC.Send(ctx, "organizer", SendEnvelopeInput{
		ReceiverID:    "pro",
		Kind:          entity.EnvelopeKindHireRequest,
		Body:          "Available for our opening night?",
		Services:      []string{"sound", "lighting"},
		EventID:       "event-1",
		ProposedPrice: price,
	})
}
