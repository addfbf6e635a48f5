package audit

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	id "curia/pkg/domain"
)

// Postgres implements Store with a transactional outbox. Each Append writes
// the queryable audit_events row and an outbox row in one transaction; the
// outbox worker publishes outbox rows to Kafka and marks them published.
// Kafka delivery is therefore at-least-once and never on the caller's path.
type Postgres struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

func (s *Postgres) Append(ctx context.Context, event Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal audit payload: %w", err)
	}

	changes, err := json.Marshal(event.Changes)
	if err != nil {
		return fmt.Errorf("marshal audit changes: %w", err)
	}
	metadata, err := json.Marshal(event.Metadata)
	if err != nil {
		return fmt.Errorf("marshal audit metadata: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin audit tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	eventID := uuid.New()

	var actorID sql.Null[uuid.UUID]
	if !event.ActorID.IsNil() {
		actorID = sql.Null[uuid.UUID]{V: uuid.UUID(event.ActorID), Valid: true}
	}

	insertEvent := `
		INSERT INTO audit_events (
			id, actor_id, actor, action, target_type, target_id,
			resource_name, changes, metadata, request_id, occurred_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`
	if _, err := tx.ExecContext(ctx, insertEvent,
		eventID, actorID, event.Actor, string(event.Action), event.TargetType,
		event.TargetID, event.ResourceName, changes, metadata, event.RequestID,
		event.Timestamp,
	); err != nil {
		return fmt.Errorf("insert audit event: %w", err)
	}

	insertOutbox := `
		INSERT INTO audit_outbox (id, event_id, payload, created_at)
		VALUES ($1, $2, $3, $4)`
	if _, err := tx.ExecContext(ctx, insertOutbox,
		uuid.New(), eventID, payload, time.Now(),
	); err != nil {
		return fmt.Errorf("insert outbox entry: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit audit tx: %w", err)
	}
	return nil
}

func (s *Postgres) ListByTarget(ctx context.Context, targetType, targetID string) ([]Event, error) {
	query := `
		SELECT actor_id, actor, action, target_type, target_id,
		       resource_name, changes, metadata, request_id, occurred_at
		FROM audit_events
		WHERE target_type = $1 AND target_id = $2
		ORDER BY occurred_at DESC`

	rows, err := s.db.QueryContext(ctx, query, targetType, targetID)
	if err != nil {
		return nil, fmt.Errorf("query audit events: %w", err)
	}
	defer rows.Close()

	var out []Event
	for rows.Next() {
		var (
			event    Event
			actorID  sql.Null[uuid.UUID]
			action   string
			changes  []byte
			metadata []byte
		)
		if err := rows.Scan(&actorID, &event.Actor, &action, &event.TargetType,
			&event.TargetID, &event.ResourceName, &changes, &metadata,
			&event.RequestID, &event.Timestamp); err != nil {
			return nil, fmt.Errorf("scan audit event: %w", err)
		}
		if actorID.Valid {
			event.ActorID = id.StaffID(actorID.V)
		}
		event.Action = ActionKind(action)
		if len(changes) > 0 {
			if err := json.Unmarshal(changes, &event.Changes); err != nil {
				return nil, fmt.Errorf("unmarshal audit changes: %w", err)
			}
		}
		if len(metadata) > 0 {
			if err := json.Unmarshal(metadata, &event.Metadata); err != nil {
				return nil, fmt.Errorf("unmarshal audit metadata: %w", err)
			}
		}
		out = append(out, event)
	}
	return out, rows.Err()
}

func (s *Postgres) TermStats(ctx context.Context, staffID id.StaffID, from, to time.Time) (Stats, error) {
	query := `
		SELECT action, count(*)
		FROM audit_events
		WHERE actor_id = $1 AND occurred_at >= $2 AND occurred_at <= $3
		GROUP BY action`

	rows, err := s.db.QueryContext(ctx, query, uuid.UUID(staffID), from, to)
	if err != nil {
		return Stats{}, fmt.Errorf("query term stats: %w", err)
	}
	defer rows.Close()

	stats := Stats{ByKind: make(map[string]int64)}
	for rows.Next() {
		var (
			action string
			count  int64
		)
		if err := rows.Scan(&action, &count); err != nil {
			return Stats{}, fmt.Errorf("scan term stats: %w", err)
		}
		stats.ByKind[action] = count
		stats.TotalActions += count
	}
	return stats, rows.Err()
}
