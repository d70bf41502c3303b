package progress_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"legacy_migrator/internal/adapters/progress"
	"legacy_migrator/internal/domain"
)

func TestPublish_DeliversOnOperationTopic(t *testing.T) {
	mr := miniredis.RunT(t)

	sub := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer sub.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	ps := sub.Subscribe(ctx, progress.Topic("op-1"))
	defer ps.Close()
	if _, err := ps.Receive(ctx); err != nil { // wait for subscription ack
		t.Fatalf("subscribe: %v", err)
	}

	pub := progress.New(mr.Addr(), "", 0)
	ev := domain.ProgressEvent{
		Type:        "hotel:start",
		OperationID: "op-1",
		Timestamp:   time.Now().UTC(),
		Data:        map[string]any{"index": 0},
	}
	if err := pub.Publish(ctx, ev); err != nil {
		t.Fatalf("publish: %v", err)
	}

	msg, err := ps.ReceiveMessage(ctx)
	if err != nil {
		t.Fatalf("receive: %v", err)
	}
	var got domain.ProgressEvent
	if err := json.Unmarshal([]byte(msg.Payload), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.Type != "hotel:start" || got.OperationID != "op-1" {
		t.Fatalf("unexpected event: %+v", got)
	}
	if got.Timestamp.IsZero() {
		t.Fatal("timestamp must survive the wire")
	}
}
