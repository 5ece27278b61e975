package store

import (
	"context"
	"sort"
	"sync"

	"rosterhub/internal/roster"
	"rosterhub/pkg/platform/sentinel"
)

// InMemory keeps the full roster in process memory. Used in tests and when no
// database is configured. All methods return copies so callers can never
// mutate shared state.
type InMemory struct {
	mu         sync.RWMutex
	activities map[string]*roster.Activity
}

func NewInMemory() *InMemory {
	return &InMemory{activities: make(map[string]*roster.Activity)}
}

func (s *InMemory) FindActivity(_ context.Context, name string) (*roster.Activity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.activities[name]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return copyActivity(a), nil
}

func (s *InMemory) ListActivities(_ context.Context) ([]*roster.Activity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	names := make([]string, 0, len(s.activities))
	for name := range s.activities {
		names = append(names, name)
	}
	sort.Strings(names)
	out := make([]*roster.Activity, 0, len(names))
	for _, name := range names {
		out = append(out, copyActivity(s.activities[name]))
	}
	return out, nil
}

func (s *InMemory) InsertActivity(_ context.Context, a *roster.Activity) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.activities[a.Name]; ok {
		return sentinel.ErrConflict
	}
	s.activities[a.Name] = copyActivity(a)
	return nil
}

func (s *InMemory) UpdateActivity(_ context.Context, name string, description, schedule string, maxParticipants int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.activities[name]
	if !ok {
		return sentinel.ErrNotFound
	}
	a.Description = description
	a.Schedule = schedule
	a.MaxParticipants = maxParticipants
	return nil
}

func (s *InMemory) InsertParticipant(_ context.Context, activity string, p roster.Participant) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.activities[activity]
	if !ok {
		return sentinel.ErrNotFound
	}
	for _, existing := range a.Participants {
		if existing.Email == p.Email {
			return sentinel.ErrConflict
		}
	}
	a.Participants = append(a.Participants, p)
	return nil
}

func (s *InMemory) DeleteParticipant(_ context.Context, activity, email string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.activities[activity]
	if !ok {
		return sentinel.ErrNotFound
	}
	for i, existing := range a.Participants {
		if existing.Email == email {
			a.Participants = append(a.Participants[:i], a.Participants[i+1:]...)
			return nil
		}
	}
	return sentinel.ErrNotFound
}

func copyActivity(a *roster.Activity) *roster.Activity {
	out := *a
	out.Participants = append([]roster.Participant(nil), a.Participants...)
	return &out
}
