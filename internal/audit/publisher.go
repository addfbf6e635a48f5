package audit

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"
)

// Publisher fans audit events into a bounded inbox drained by a Worker.
// Emit never blocks the caller: when the inbox is full the event is dropped
// and counted, because a slow audit pipeline must not slow a state
// transition.
type Publisher struct {
	inbox   chan Event
	logger  *slog.Logger
	dropped atomic.Int64
	onDrop  func()
}

type PublisherOption func(*Publisher)

func WithPublisherLogger(logger *slog.Logger) PublisherOption {
	return func(p *Publisher) { p.logger = logger }
}

// WithDropHook registers a callback invoked once per dropped event,
// typically a metrics counter increment.
func WithDropHook(fn func()) PublisherOption {
	return func(p *Publisher) { p.onDrop = fn }
}

func NewPublisher(buffer int, opts ...PublisherOption) *Publisher {
	if buffer <= 0 {
		buffer = 1024
	}
	p := &Publisher{inbox: make(chan Event, buffer)}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Emit enqueues an event for background persistence. Always returns nil so
// call sites can discard the result without a second thought; drops are
// observable via Dropped and the drop hook.
func (p *Publisher) Emit(ctx context.Context, event Event) error {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	select {
	case p.inbox <- event:
	default:
		p.dropped.Add(1)
		if p.onDrop != nil {
			p.onDrop()
		}
		if p.logger != nil {
			p.logger.WarnContext(ctx, "audit inbox full, event dropped",
				"action", string(event.Action),
				"target_id", event.TargetID,
			)
		}
	}
	return nil
}

// Dropped returns how many events have been discarded due to a full inbox.
func (p *Publisher) Dropped() int64 {
	return p.dropped.Load()
}

// Inbox exposes the receive side for the Worker.
func (p *Publisher) Inbox() <-chan Event {
	return p.inbox
}

// Worker consumes audit events from the publisher inbox and persists them.
// Append failures are logged and the event is lost; the audit sink is
// best-effort by contract.
type Worker struct {
	store  Store
	inbox  <-chan Event
	logger *slog.Logger
}

func NewWorker(store Store, inbox <-chan Event, logger *slog.Logger) *Worker {
	return &Worker{store: store, inbox: inbox, logger: logger}
}

func (w *Worker) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event := <-w.inbox:
			if err := w.store.Append(ctx, event); err != nil && w.logger != nil {
				w.logger.ErrorContext(ctx, "failed to persist audit event",
					"action", string(event.Action),
					"target_id", event.TargetID,
					"error", err,
				)
			}
		}
	}
}
