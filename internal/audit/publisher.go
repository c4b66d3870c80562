package audit

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"govnav/pkg/requestcontext"
)

// Publisher queues audit events for background persistence. Emission is
// fail-open: a full buffer drops the event with a warning rather than
// blocking the request path.
type Publisher struct {
	inbox  chan Event
	logger *slog.Logger

	mu     sync.Mutex
	closed bool
}

// NewPublisher creates a publisher with the given buffer size.
func NewPublisher(buffer int, logger *slog.Logger) *Publisher {
	return &Publisher{
		inbox:  make(chan Event, buffer),
		logger: logger,
	}
}

// Inbox exposes the event channel for the worker.
func (p *Publisher) Inbox() <-chan Event { return p.inbox }

// Emit enqueues an event, stamping timestamp and request id from context when
// not already set. Emit after Close drops the event.
func (p *Publisher) Emit(ctx context.Context, event Event) {
	if event.Timestamp.IsZero() {
		event.Timestamp = requestcontext.Now(ctx)
	}
	if event.RequestID == "" {
		event.RequestID = requestcontext.RequestID(ctx)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		if p.logger != nil {
			p.logger.WarnContext(ctx, "audit publisher closed, event dropped",
				"action", event.Action,
				"session_id", event.SessionID,
			)
		}
		return
	}
	select {
	case p.inbox <- event:
	default:
		if p.logger != nil {
			p.logger.WarnContext(ctx, "audit buffer full, event dropped",
				"action", event.Action,
				"session_id", event.SessionID,
			)
		}
	}
}

// drainTimeout bounds how long Close waits for the worker to catch up.
const drainTimeout = 2 * time.Second

// Close stops accepting events and gives the worker a moment to drain.
// Close is idempotent and safe against concurrent Emit calls.
func (p *Publisher) Close() {
	deadline := time.After(drainTimeout)
	for {
		select {
		case <-deadline:
			p.shut()
			return
		default:
			if len(p.inbox) == 0 {
				p.shut()
				return
			}
			time.Sleep(10 * time.Millisecond)
		}
	}
}

func (p *Publisher) shut() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return
	}
	p.closed = true
	close(p.inbox)
}
