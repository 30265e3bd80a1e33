package redisadapter

import (
	"context"
	"testing"

	"github.com/redis/go-redis/v9"
)

func TestNewPublisherRejectsBadURL(t *testing.T) {
	if _, err := NewPublisher(context.Background(), "", "", nil); err == nil {
		t.Fatalf("expected empty url error")
	}
	if _, err := NewPublisher(context.Background(), "http://localhost:6379", "", nil); err == nil {
		t.Fatalf("expected unsupported scheme error")
	}
}

func TestPublisherKeys(t *testing.T) {
	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:0"})
	defer client.Close()

	publisher := NewPublisherFromClient(client, "", nil)
	if got := publisher.Channel("conflict.detected"); got != "nodandknow:session:conflict.detected" {
		t.Fatalf("unexpected channel %q", got)
	}
	if got := publisher.LatestKey(" vote.recorded "); got != "nodandknow:session:latest:vote.recorded" {
		t.Fatalf("unexpected latest key %q", got)
	}

	custom := NewPublisherFromClient(client, "kiosk-3", nil)
	if got := custom.Channel("session.reset"); got != "kiosk-3:session.reset" {
		t.Fatalf("unexpected custom channel %q", got)
	}
}
