package notify

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// Message kinds on the mailer queue.
const (
	KindPendingApproval = "pending_approval"
	KindApproved        = "approved"
)

type envelope struct {
	Kind    string          `json:"kind"`
	Payload json.RawMessage `json:"payload"`
}

// RedisSink enqueues notifications as JSON onto a Redis list consumed by the
// mailer.
type RedisSink struct {
	client *redis.Client
	queue  string
}

func NewRedisSink(client *redis.Client, queue string) *RedisSink {
	return &RedisSink{client: client, queue: queue}
}

func (s *RedisSink) NotifyPendingApproval(ctx context.Context, msg PendingApproval) error {
	return s.push(ctx, KindPendingApproval, msg)
}

func (s *RedisSink) NotifyApproved(ctx context.Context, msg Approved) error {
	return s.push(ctx, KindApproved, msg)
}

func (s *RedisSink) push(ctx context.Context, kind string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal %s notification: %w", kind, err)
	}
	wrapped, err := json.Marshal(envelope{Kind: kind, Payload: body})
	if err != nil {
		return fmt.Errorf("marshal %s envelope: %w", kind, err)
	}
	if err := s.client.LPush(ctx, s.queue, wrapped).Err(); err != nil {
		return fmt.Errorf("enqueue %s notification: %w", kind, err)
	}
	return nil
}
