package audit

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/twmb/franz-go/pkg/kgo"
)

// OutboxWorker publishes committed audit events from the outbox table to
// Kafka. Rows are claimed with FOR UPDATE SKIP LOCKED so multiple replicas
// can drain the same outbox, and a row is only marked published after Kafka
// acknowledges the batch.
type OutboxWorker struct {
	db       *sql.DB
	client   *kgo.Client
	topic    string
	interval time.Duration
	batch    int
	logger   *slog.Logger
}

type OutboxOption func(*OutboxWorker)

// WithOutboxInterval overrides the default 2s poll interval.
func WithOutboxInterval(interval time.Duration) OutboxOption {
	return func(w *OutboxWorker) {
		if interval > 0 {
			w.interval = interval
		}
	}
}

// WithOutboxBatch overrides the default batch size of 100 rows.
func WithOutboxBatch(batch int) OutboxOption {
	return func(w *OutboxWorker) {
		if batch > 0 {
			w.batch = batch
		}
	}
}

func NewOutboxWorker(db *sql.DB, client *kgo.Client, topic string, logger *slog.Logger, opts ...OutboxOption) *OutboxWorker {
	w := &OutboxWorker{
		db:       db,
		client:   client,
		topic:    topic,
		interval: 2 * time.Second,
		batch:    100,
		logger:   logger,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

func (w *OutboxWorker) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := w.drainOnce(ctx); err != nil && w.logger != nil {
				w.logger.ErrorContext(ctx, "outbox drain failed", "error", err)
			}
		}
	}
}

func (w *OutboxWorker) drainOnce(ctx context.Context) error {
	tx, err := w.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin outbox tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	rows, err := tx.QueryContext(ctx, `
		SELECT id, event_id, payload
		FROM audit_outbox
		WHERE published_at IS NULL
		ORDER BY created_at
		LIMIT $1
		FOR UPDATE SKIP LOCKED`, w.batch)
	if err != nil {
		return fmt.Errorf("claim outbox rows: %w", err)
	}

	var (
		ids     []uuid.UUID
		records []*kgo.Record
	)
	for rows.Next() {
		var (
			rowID   uuid.UUID
			eventID uuid.UUID
			payload []byte
		)
		if err := rows.Scan(&rowID, &eventID, &payload); err != nil {
			rows.Close()
			return fmt.Errorf("scan outbox row: %w", err)
		}
		ids = append(ids, rowID)
		records = append(records, &kgo.Record{
			Topic: w.topic,
			Key:   []byte(eventID.String()),
			Value: payload,
		})
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate outbox rows: %w", err)
	}
	if len(records) == 0 {
		return nil
	}

	if err := w.client.ProduceSync(ctx, records...).FirstErr(); err != nil {
		return fmt.Errorf("publish outbox batch: %w", err)
	}

	now := time.Now()
	for _, rowID := range ids {
		if _, err := tx.ExecContext(ctx,
			`UPDATE audit_outbox SET published_at = $2 WHERE id = $1`, rowID, now); err != nil {
			return fmt.Errorf("mark outbox row published: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit outbox batch: %w", err)
	}

	if w.logger != nil {
		w.logger.DebugContext(ctx, "outbox batch published", "count", len(records))
	}
	return nil
}
