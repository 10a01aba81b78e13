package storage

import (
	"context"
	"sort"
	"sync"

	"github.com/Vodeneev/keepgaming/internal/pkg/models"
)

var _ EventStore = (*MemoryEventStore)(nil)

// MemoryEventStore keeps events in process memory. Used for dry runs and tests.
type MemoryEventStore struct {
	mu     sync.Mutex
	events map[string]*models.Event
}

func NewMemoryEventStore() *MemoryEventStore {
	return &MemoryEventStore{events: make(map[string]*models.Event)}
}

func (s *MemoryEventStore) FindEvent(_ context.Context, eventID string) (*models.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ev, ok := s.events[eventID]
	if !ok {
		return nil, ErrEventNotFound
	}
	return ev.Clone(), nil
}

func (s *MemoryEventStore) InsertEvent(_ context.Context, ev *models.Event) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.events[ev.EventID]; ok {
		return false, nil
	}
	s.events[ev.EventID] = ev.Clone()
	return true, nil
}

func (s *MemoryEventStore) AppendSnapshot(_ context.Context, eventID string, snap models.LineSnapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	ev, ok := s.events[eventID]
	if !ok {
		return ErrEventNotFound
	}
	ev.AddSnapshot(snap)
	return nil
}

func (s *MemoryEventStore) FreezeEvent(_ context.Context, eventID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	ev, ok := s.events[eventID]
	if !ok {
		return ErrEventNotFound
	}
	ev.Frozen = true
	return nil
}

func (s *MemoryEventStore) SetIdentity(_ context.Context, id models.Identity) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	ev, ok := s.events[id.EventID]
	if !ok {
		return ErrEventNotFound
	}
	ev.Identity, _ = ev.Identity.Merge(id)
	return nil
}

func (s *MemoryEventStore) SetBettingChoices(_ context.Context, eventID string, choices models.BettingChoices) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	ev, ok := s.events[eventID]
	if !ok {
		return ErrEventNotFound
	}
	ev.Choices = choices
	return nil
}

func (s *MemoryEventStore) SetOutcome(_ context.Context, eventID string, outcome models.Outcome) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	ev, ok := s.events[eventID]
	if !ok {
		return ErrEventNotFound
	}
	if ev.Outcome != nil {
		return ErrOutcomeAlreadySet
	}
	ev.Outcome = &outcome
	return nil
}

// EventIDs returns the stored ids in sorted order.
func (s *MemoryEventStore) EventIDs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := make([]string, 0, len(s.events))
	for id := range s.events {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func (s *MemoryEventStore) Close() error {
	return nil
}
