package redisadapter

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	application "nodandknow/contexts/live-session/session-engine/application"
	"nodandknow/contexts/live-session/session-engine/ports"

	"github.com/redis/go-redis/v9"
)

const (
	defaultChannelPrefix = "nodandknow:session"
	// LatestTTL bounds how long the last event per topic stays readable for
	// dashboards that connect late.
	LatestTTL = 40 * time.Minute
)

// Publisher fans session events out over Redis pub/sub and keeps the latest
// event of each topic under a key.
type Publisher struct {
	client *redis.Client
	prefix string
	logger *slog.Logger
}

// NewPublisher connects to redisURL and verifies the connection.
func NewPublisher(ctx context.Context, redisURL string, prefix string, logger *slog.Logger) (*Publisher, error) {
	if strings.TrimSpace(redisURL) == "" {
		return nil, fmt.Errorf("redis url is required")
	}
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if _, err := client.Ping(ctx).Result(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	return NewPublisherFromClient(client, prefix, logger), nil
}

func NewPublisherFromClient(client *redis.Client, prefix string, logger *slog.Logger) *Publisher {
	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		prefix = defaultChannelPrefix
	}
	return &Publisher{
		client: client,
		prefix: prefix,
		logger: application.ResolveLogger(logger),
	}
}

// Channel returns the pub/sub channel for a topic.
func (p *Publisher) Channel(topic string) string {
	return p.prefix + ":" + strings.TrimSpace(topic)
}

// LatestKey returns the key holding the last event of a topic.
func (p *Publisher) LatestKey(topic string) string {
	return p.prefix + ":latest:" + strings.TrimSpace(topic)
}

func (p *Publisher) Publish(ctx context.Context, topic string, event ports.EventEnvelope) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}
	pipe := p.client.TxPipeline()
	pipe.Publish(ctx, p.Channel(topic), payload)
	pipe.Set(ctx, p.LatestKey(topic), payload, LatestTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		p.logger.Warn("redis publish failed",
			"event", "session_redis_publish_failed",
			"module", application.ModuleName,
			"layer", "adapter",
			"topic", topic,
			"event_id", event.EventID,
			"error", err.Error(),
		)
		return fmt.Errorf("failed to publish event: %w", err)
	}
	p.logger.Debug("redis event published",
		"event", "session_redis_published",
		"module", application.ModuleName,
		"layer", "adapter",
		"topic", topic,
		"event_id", event.EventID,
	)
	return nil
}

// Latest reads the last event published on topic. ok is false when none is
// stored.
func (p *Publisher) Latest(ctx context.Context, topic string) (ports.EventEnvelope, bool, error) {
	raw, err := p.client.Get(ctx, p.LatestKey(topic)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return ports.EventEnvelope{}, false, nil
		}
		return ports.EventEnvelope{}, false, fmt.Errorf("failed to read latest event: %w", err)
	}
	var event ports.EventEnvelope
	if err := json.Unmarshal(raw, &event); err != nil {
		return ports.EventEnvelope{}, false, fmt.Errorf("failed to decode latest event: %w", err)
	}
	return event, true, nil
}

func (p *Publisher) Close() error {
	if p == nil || p.client == nil {
		return nil
	}
	return p.client.Close()
}

var _ ports.EventPublisher = (*Publisher)(nil)
