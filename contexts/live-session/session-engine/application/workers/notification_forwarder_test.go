package workers

import (
	"context"
	"errors"
	"testing"

	"nodandknow/contexts/live-session/session-engine/ports"
)

type inlineSubscriber struct {
	handlers map[string]func(context.Context, ports.EventEnvelope) error
}

func (s *inlineSubscriber) Subscribe(
	_ context.Context,
	topic string,
	_ string,
	handler func(context.Context, ports.EventEnvelope) error,
) error {
	if s.handlers == nil {
		s.handlers = make(map[string]func(context.Context, ports.EventEnvelope) error)
	}
	s.handlers[topic] = handler
	return nil
}

type recordingPublisher struct {
	err    error
	topics []string
}

func (p *recordingPublisher) Publish(_ context.Context, topic string, _ ports.EventEnvelope) error {
	p.topics = append(p.topics, topic)
	return p.err
}

func TestNotificationForwarderRelaysEvents(t *testing.T) {
	subscriber := &inlineSubscriber{}
	publisher := &recordingPublisher{}
	forwarder := NotificationForwarder{
		Subscriber: subscriber,
		Publisher:  publisher,
		Topics:     []string{"conflict.detected", "minority.detected"},
	}
	if err := forwarder.Start(context.Background()); err != nil {
		t.Fatalf("start failed: %v", err)
	}
	if len(subscriber.handlers) != 2 {
		t.Fatalf("expected two subscriptions, got %d", len(subscriber.handlers))
	}

	event := ports.EventEnvelope{EventID: "n-1", EventType: "conflict.detected"}
	if err := subscriber.handlers["conflict.detected"](context.Background(), event); err != nil {
		t.Fatalf("forward failed: %v", err)
	}
	if len(publisher.topics) != 1 || publisher.topics[0] != "conflict.detected" {
		t.Fatalf("unexpected forwarded topics %v", publisher.topics)
	}

	publisher.err = errors.New("redis down")
	if err := subscriber.handlers["minority.detected"](context.Background(), ports.EventEnvelope{EventType: "minority.detected"}); err == nil {
		t.Fatalf("expected forward error to surface to the bus")
	}
}

func TestNotificationForwarderDisabledWithoutPublisher(t *testing.T) {
	subscriber := &inlineSubscriber{}
	forwarder := NotificationForwarder{Subscriber: subscriber, Topics: []string{"vote.recorded"}}
	if err := forwarder.Start(context.Background()); err != nil {
		t.Fatalf("start failed: %v", err)
	}
	if len(subscriber.handlers) != 0 {
		t.Fatalf("expected no subscriptions without publisher")
	}
}
