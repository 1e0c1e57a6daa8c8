package doubt

import (
	"context"
	"sort"
	"sync"
	"time"

	"tutorhub/pkg/platform/sentinel"
)

// InMemoryStore keeps the doubt collection behind a mutex. It backs unit
// tests and databaseless local runs with the same check-and-set semantics the
// PostgreSQL store gets from conditional updates.
type InMemoryStore struct {
	mu     sync.RWMutex
	doubts map[string]*Doubt
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{doubts: make(map[string]*Doubt)}
}

func (s *InMemoryStore) Create(_ context.Context, d *Doubt) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.doubts[d.ID.String()]; exists {
		return sentinel.ErrConflict
	}
	clone := *d
	s.doubts[d.ID.String()] = &clone
	return nil
}

func (s *InMemoryStore) FindByID(_ context.Context, id string) (*Doubt, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	d, ok := s.doubts[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	clone := *d
	return &clone, nil
}

func (s *InMemoryStore) List(_ context.Context, filter Filter) ([]*Doubt, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	matched := make([]*Doubt, 0, len(s.doubts))
	for _, d := range s.doubts {
		if filter.Matches(d) {
			clone := *d
			matched = append(matched, &clone)
		}
	}
	sort.Slice(matched, func(i, j int) bool {
		if matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			// Tie-break on id so identical timestamps still order stably.
			return matched[i].ID.String() > matched[j].ID.String()
		}
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})
	return matched, nil
}

func (s *InMemoryStore) Claim(_ context.Context, id, tutorID, tutorName string, now time.Time) (*Doubt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.doubts[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	if d.Status != StatusOpen {
		return nil, sentinel.ErrInvalidState
	}
	d.ApplyClaim(tutorID, tutorName, now)
	clone := *d
	return &clone, nil
}

func (s *InMemoryStore) Resolve(_ context.Context, id, tutorID string, rating *int, now time.Time) (*Doubt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.doubts[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	if d.Status != StatusInProgress {
		return nil, sentinel.ErrInvalidState
	}
	if d.TutorID != tutorID {
		return nil, sentinel.ErrNotOwner
	}
	d.ApplyResolve(rating, now)
	clone := *d
	return &clone, nil
}

func (s *InMemoryStore) IncrementResponses(_ context.Context, id string, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.doubts[id]
	if !ok {
		return sentinel.ErrNotFound
	}
	d.Responses++
	d.UpdatedAt = now
	return nil
}
