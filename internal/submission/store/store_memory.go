// Package store provides application persistence and idempotency backends.
package store

import (
	"context"
	"sort"
	"sync"

	"govnav/internal/submission"
	id "govnav/pkg/domain"
	"govnav/pkg/platform/sentinel"
)

// MemoryStore keeps applications in memory for development and tests.
type MemoryStore struct {
	mu        sync.RWMutex
	apps      map[id.ApplicationID]submission.Application
	bySession map[id.SessionID]id.ApplicationID
}

// NewMemory constructs an in-memory application store.
func NewMemory() *MemoryStore {
	return &MemoryStore{
		apps:      make(map[id.ApplicationID]submission.Application),
		bySession: make(map[id.SessionID]id.ApplicationID),
	}
}

func (s *MemoryStore) Create(_ context.Context, app submission.Application) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.apps[app.ID]; exists {
		return sentinel.ErrConflict
	}
	if _, exists := s.bySession[app.SessionID]; exists {
		return sentinel.ErrConflict
	}
	s.apps[app.ID] = cloneApplication(app)
	s.bySession[app.SessionID] = app.ID
	return nil
}

func (s *MemoryStore) Get(_ context.Context, applicationID id.ApplicationID) (submission.Application, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	app, ok := s.apps[applicationID]
	if !ok {
		return submission.Application{}, sentinel.ErrNotFound
	}
	return cloneApplication(app), nil
}

func (s *MemoryStore) GetBySession(_ context.Context, sessionID id.SessionID) (submission.Application, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	appID, ok := s.bySession[sessionID]
	if !ok {
		return submission.Application{}, sentinel.ErrNotFound
	}
	return cloneApplication(s.apps[appID]), nil
}

func (s *MemoryStore) UpdateStatus(_ context.Context, applicationID id.ApplicationID, change submission.StatusChange) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	app, ok := s.apps[applicationID]
	if !ok {
		return sentinel.ErrNotFound
	}
	app.Status = change.To
	app.History = append(app.History, change)
	app.UpdatedAt = change.At
	s.apps[applicationID] = app
	return nil
}

func (s *MemoryStore) ListByUser(_ context.Context, userID id.UserID) ([]submission.Application, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []submission.Application
	for _, app := range s.apps {
		if app.UserID == userID {
			out = append(out, cloneApplication(app))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SubmittedAt.After(out[j].SubmittedAt) })
	return out, nil
}

func cloneApplication(app submission.Application) submission.Application {
	out := app
	out.History = append([]submission.StatusChange(nil), app.History...)
	return out
}
