// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package mail

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"
)

// outboxKey is the Valkey list an external delivery worker drains with
// BRPOP.
const outboxKey = "mail:outbox"

// Queue pushes rendered messages onto the Valkey outbox list.
type Queue struct {
	client *redis.Client
}

// NewQueue creates a queue backed by the given Valkey client.
func NewQueue(client *redis.Client) *Queue {
	return &Queue{client: client}
}

// Enqueue pushes a message onto the outbox. Returns an error so callers
// in a transaction-adjacent path can surface the failure.
func (q *Queue) Enqueue(ctx context.Context, msg *Message) error {
	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal mail message: %w", err)
	}
	if err := q.client.LPush(ctx, outboxKey, payload).Err(); err != nil {
		return fmt.Errorf("enqueue mail: %w", err)
	}
	return nil
}

// Dispatch is the fire-and-forget variant used on request paths where a
// broken outbox must not fail the user's action. Failures are logged.
func (q *Queue) Dispatch(ctx context.Context, msg *Message) {
	if err := q.Enqueue(ctx, msg); err != nil {
		slog.Error("mail dispatch failed", "template", msg.Template, "to", msg.To, "error", err)
		return
	}
	slog.Info("mail queued", "template", msg.Template, "to", msg.To)
}

// Pending returns the number of messages waiting in the outbox.
func (q *Queue) Pending(ctx context.Context) (int64, error) {
	n, err := q.client.LLen(ctx, outboxKey).Result()
	if err != nil {
		return 0, fmt.Errorf("outbox length: %w", err)
	}
	return n, nil
}
