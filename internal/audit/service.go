package audit

import (
	"context"
	"sync"
	"time"
)

// Store is append-only. Shipping events off-box is a collaborator concern; a
// publisher would implement this interface.
type Store interface {
	Append(ctx context.Context, event Event) error
	ListByAsset(ctx context.Context, assetID string) ([]Event, error)
}

// Service captures structured audit events. It is append-only and uses the
// store interface for persistence so tests can swap sinks easily.
type Service struct {
	store Store
	now   func() time.Time
}

func NewService(store Store) *Service {
	return &Service{store: store, now: time.Now}
}

// WithClock substitutes the timestamp source, for deterministic tests.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

func (s *Service) Record(ctx context.Context, event Event) error {
	if event.Timestamp.IsZero() {
		event.Timestamp = s.now()
	}
	return s.store.Append(ctx, event)
}

func (s *Service) ListByAsset(ctx context.Context, assetID string) ([]Event, error) {
	return s.store.ListByAsset(ctx, assetID)
}

// InMemoryStore is the default sink.
type InMemoryStore struct {
	mu     sync.RWMutex
	events []Event
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{}
}

func (s *InMemoryStore) Append(_ context.Context, event Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
	return nil
}

func (s *InMemoryStore) ListByAsset(_ context.Context, assetID string) ([]Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []Event{}
	for _, e := range s.events {
		if e.AssetID == assetID {
			out = append(out, e)
		}
	}
	return out, nil
}
