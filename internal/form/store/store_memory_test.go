package store

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"govnav/internal/form"
	id "govnav/pkg/domain"
	"govnav/pkg/platform/sentinel"
)

func newStoredSession(t *testing.T, s *MemoryStore, userID id.UserID) form.FormSession {
	t.Helper()
	session := form.NewSession(userID, "svc", 1, time.Now())
	require.NoError(t, s.Create(context.Background(), session))
	return session
}

func TestMemoryStoreCreateAndGet(t *testing.T) {
	s := NewMemory()
	session := newStoredSession(t, s, id.NewUserID())

	got, err := s.Get(context.Background(), session.ID)
	require.NoError(t, err)
	assert.Equal(t, session.ID, got.ID)

	assert.ErrorIs(t, s.Create(context.Background(), session), sentinel.ErrConflict)

	_, err = s.Get(context.Background(), id.NewSessionID())
	assert.ErrorIs(t, err, sentinel.ErrNotFound)
}

func TestMemoryStoreGetReturnsSnapshot(t *testing.T) {
	s := NewMemory()
	session := newStoredSession(t, s, id.NewUserID())

	got, err := s.Get(context.Background(), session.ID)
	require.NoError(t, err)
	got.Values["field"] = "mutated"

	again, err := s.Get(context.Background(), session.ID)
	require.NoError(t, err)
	assert.NotContains(t, again.Values, id.FieldID("field"))
}

func TestMemoryStoreUpdateVersionCheck(t *testing.T) {
	s := NewMemory()
	session := newStoredSession(t, s, id.NewUserID())

	next := session.Clone()
	next.Version++
	require.NoError(t, s.Update(context.Background(), next, session.Version))

	// The same prior version cannot win twice.
	assert.ErrorIs(t, s.Update(context.Background(), next, session.Version), sentinel.ErrConflict)

	missing := form.NewSession(id.NewUserID(), "svc", 1, time.Now())
	assert.ErrorIs(t, s.Update(context.Background(), missing, 1), sentinel.ErrNotFound)
}

func TestMemoryStoreConcurrentUpdatesExactlyOneWins(t *testing.T) {
	s := NewMemory()
	session := newStoredSession(t, s, id.NewUserID())

	const writers = 16
	var wg sync.WaitGroup
	results := make(chan error, writers)
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			next := session.Clone()
			next.Version++
			results <- s.Update(context.Background(), next, session.Version)
		}()
	}
	wg.Wait()
	close(results)

	wins := 0
	for err := range results {
		if err == nil {
			wins++
		} else {
			assert.ErrorIs(t, err, sentinel.ErrConflict)
		}
	}
	assert.Equal(t, 1, wins)
}

func TestMemoryStoreListByUser(t *testing.T) {
	s := NewMemory()
	userID := id.NewUserID()

	older := form.NewSession(userID, "svc", 1, time.Now().Add(-time.Hour))
	newer := form.NewSession(userID, "svc", 1, time.Now())
	other := form.NewSession(id.NewUserID(), "svc", 1, time.Now())
	for _, session := range []form.FormSession{older, newer, other} {
		require.NoError(t, s.Create(context.Background(), session))
	}

	sessions, err := s.ListByUser(context.Background(), userID)
	require.NoError(t, err)
	require.Len(t, sessions, 2)
	assert.Equal(t, newer.ID, sessions[0].ID)
	assert.Equal(t, older.ID, sessions[1].ID)
}
