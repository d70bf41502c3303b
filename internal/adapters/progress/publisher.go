// Package progress publishes migration progress events over Redis Pub/Sub.
// Events are tagged with the operation id; the topic doubles as the
// correlation key for subscribers tailing a run.
package progress

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"legacy_migrator/internal/adapters/observability"
	"legacy_migrator/internal/domain"
)

// Topic returns the pub/sub channel for one operation id.
func Topic(operationID string) string { return "migration:" + operationID }

type Publisher struct{ c *redis.Client }

func New(addr, pass string, db int) *Publisher {
	return &Publisher{c: redis.NewClient(&redis.Options{Addr: addr, Password: pass, DB: db})}
}

func (p *Publisher) Publish(ctx context.Context, ev domain.ProgressEvent) error {
	b, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal progress event: %w", err)
	}
	observability.ObserveProgress(ev.Type)
	return p.c.Publish(ctx, Topic(ev.OperationID), b).Err()
}
