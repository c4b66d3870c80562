package audit

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	id "govnav/pkg/domain"
)

func TestPublisherEmitStampsTimestamp(t *testing.T) {
	publisher := NewPublisher(4, slog.Default())

	publisher.Emit(context.Background(), Event{
		Action: ActionSessionStarted,
		UserID: id.NewUserID(),
	})

	select {
	case event := <-publisher.Inbox():
		assert.Equal(t, ActionSessionStarted, event.Action)
		assert.False(t, event.Timestamp.IsZero())
	default:
		t.Fatal("expected a queued event")
	}
}

func TestPublisherEmitKeepsExistingTimestamp(t *testing.T) {
	publisher := NewPublisher(4, slog.Default())
	stamped := time.Date(2026, 1, 15, 8, 0, 0, 0, time.UTC)

	publisher.Emit(context.Background(), Event{Action: ActionFormSubmitted, Timestamp: stamped})

	event := <-publisher.Inbox()
	assert.True(t, event.Timestamp.Equal(stamped))
}

func TestPublisherDropsWhenFull(t *testing.T) {
	publisher := NewPublisher(1, slog.Default())

	publisher.Emit(context.Background(), Event{Action: ActionSessionStarted})
	// The buffer is full; this must return without blocking.
	done := make(chan struct{})
	go func() {
		publisher.Emit(context.Background(), Event{Action: ActionFormSubmitted})
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("emit blocked on a full buffer")
	}

	assert.Len(t, publisher.Inbox(), 1)
}

func TestPublisherEmitAfterCloseDropsEvent(t *testing.T) {
	publisher := NewPublisher(4, slog.Default())
	publisher.Close()

	assert.NotPanics(t, func() {
		publisher.Emit(context.Background(), Event{Action: ActionSessionStarted})
	})
	_, ok := <-publisher.Inbox()
	assert.False(t, ok)
}

func TestPublisherConcurrentEmitAndClose(t *testing.T) {
	publisher := NewPublisher(1, slog.Default())
	go func() {
		for range publisher.Inbox() {
		}
	}()

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 200; i++ {
			publisher.Emit(context.Background(), Event{Action: ActionSessionStarted})
		}
	}()
	publisher.Close()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("emit blocked against a closing publisher")
	}
}

func TestWorkerPersistsEvents(t *testing.T) {
	store := NewInMemoryStore()
	publisher := NewPublisher(16, slog.Default())
	worker := NewWorker(store, publisher.Inbox(), slog.Default())

	done := make(chan error, 1)
	go func() { done <- worker.Run(context.Background()) }()

	userID := id.NewUserID()
	publisher.Emit(context.Background(), Event{Action: ActionSessionStarted, UserID: userID})
	publisher.Emit(context.Background(), Event{Action: ActionFormSubmitted, UserID: userID})
	publisher.Close()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("worker did not stop after the inbox closed")
	}

	events, err := store.ListByUser(context.Background(), userID)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, ActionSessionStarted, events[0].Action)
	assert.Equal(t, ActionFormSubmitted, events[1].Action)
}

func TestWorkerStopsOnContextCancel(t *testing.T) {
	publisher := NewPublisher(1, slog.Default())
	worker := NewWorker(NewInMemoryStore(), publisher.Inbox(), slog.Default())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- worker.Run(ctx) }()

	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("worker did not stop on cancellation")
	}
}
