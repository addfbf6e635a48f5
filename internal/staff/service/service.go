// Package service implements the staff account lifecycle: registration with
// compensating rollback, peer approval and rejection, activation toggling,
// and formal term ending. Services validate guards against the currently
// persisted status, commit through the account store, and only then fan out
// best-effort audit and notification side effects.
package service

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"curia/internal/audit"
	"curia/internal/notify"
	staffmetrics "curia/internal/staff/metrics"
	"curia/pkg/attrs"
	"curia/pkg/requestcontext"
)

// AuditPublisher accepts audit events. Emissions are best-effort; the
// default implementation never blocks.
type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

// deps are the optional collaborators shared by every service. All of them
// are nil-safe so unit tests can construct services with only a store.
type deps struct {
	logger   *slog.Logger
	auditor  AuditPublisher
	notifier notify.Sink
	metrics  *staffmetrics.Metrics
	clock    func() time.Time
	tracer   trace.Tracer

	// effects tracks detached side-effect goroutines so shutdown (and tests)
	// can drain them.
	effects sync.WaitGroup
}

type Option func(*deps)

func WithLogger(logger *slog.Logger) Option {
	return func(d *deps) { d.logger = logger }
}

func WithAuditPublisher(publisher AuditPublisher) Option {
	return func(d *deps) { d.auditor = publisher }
}

func WithNotifier(sink notify.Sink) Option {
	return func(d *deps) { d.notifier = sink }
}

func WithMetrics(m *staffmetrics.Metrics) Option {
	return func(d *deps) { d.metrics = m }
}

// WithClock overrides time.Now, used by tests for deterministic timestamps.
func WithClock(clock func() time.Time) Option {
	return func(d *deps) { d.clock = clock }
}

func newDeps(opts []Option) *deps {
	d := &deps{
		tracer: otel.Tracer("curia/staff"),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// now prefers an injected clock, then the request-scoped time, then the wall
// clock (requestcontext.Now falls back to time.Now itself).
func (d *deps) now(ctx context.Context) time.Time {
	if d.clock != nil {
		return d.clock()
	}
	return requestcontext.Now(ctx)
}

// spawn runs a side effect on a detached goroutine. The effect gets a
// context shielded from the caller's cancellation: the primary mutation has
// already committed, so abandoning the request must not abandon the effect.
// Failures and panics are logged and swallowed.
func (d *deps) spawn(ctx context.Context, name string, fn func(ctx context.Context) error) {
	detached := context.WithoutCancel(ctx)
	d.effects.Add(1)
	go func() {
		defer d.effects.Done()
		defer func() {
			if r := recover(); r != nil && d.logger != nil {
				d.logger.Error("side effect panicked", "effect", name, "panic", r)
			}
		}()
		if err := fn(detached); err != nil && d.logger != nil {
			d.logger.ErrorContext(detached, "side effect failed", "effect", name, "error", err)
		}
	}()
}

// drain blocks until all spawned side effects finish. Exposed through each
// service's Wait method for graceful shutdown and deterministic tests.
func (d *deps) drain() {
	d.effects.Wait()
}

// logAudit writes the structured audit log line and forwards the event to
// the audit publisher. Mirrors are independent: a nil publisher still logs,
// a nil logger still publishes.
func (d *deps) logAudit(ctx context.Context, event audit.Event, attributes ...any) {
	if requestID := requestcontext.RequestID(ctx); requestID != "" {
		event.RequestID = requestID
		attributes = append(attributes, "request_id", requestID)
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = d.now(ctx)
	}
	args := append(attributes, "event", string(event.Action), "log_type", "audit")
	if d.logger != nil {
		d.logger.InfoContext(ctx, string(event.Action), args...)
	}
	if d.auditor == nil {
		return
	}
	if event.ResourceName == "" {
		event.ResourceName = attrs.ExtractString(attributes, "name")
	}
	_ = d.auditor.Emit(ctx, event)
}
