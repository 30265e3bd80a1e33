package eventbus

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"nodandknow/contexts/live-session/session-engine/domain/entities"
	"nodandknow/contexts/live-session/session-engine/ports"
)

type capturePublisher struct {
	topic string
	event ports.EventEnvelope
}

func (c *capturePublisher) Publish(_ context.Context, topic string, event ports.EventEnvelope) error {
	c.topic = topic
	c.event = event
	return nil
}

func TestNotificationPublisherWrapsEnvelope(t *testing.T) {
	capture := &capturePublisher{}
	publisher := NotificationPublisher{Publisher: capture}
	occurredAt := time.Date(2026, time.March, 1, 9, 0, 5, 0, time.UTC)

	err := publisher.Publish(context.Background(), entities.Notification{
		NotificationID: "n-1",
		Kind:           entities.NotificationConflict,
		QuestionIndex:  3,
		Identity:       -9,
		Choice:         entities.ChoiceNo,
		Tally:          entities.VoteTally{Yes: 2, No: 1},
		Message:        "Matched with an opposite viewpoint! Join the discussion.",
		OccurredAt:     occurredAt,
	})
	if err != nil {
		t.Fatalf("publish failed: %v", err)
	}
	if capture.topic != "conflict.detected" || capture.event.EventID != "n-1" || capture.event.EntityID != "3" {
		t.Fatalf("unexpected envelope %+v on %s", capture.event, capture.topic)
	}
	if capture.event.SourceService != "session-engine" {
		t.Fatalf("expected default source service, got %s", capture.event.SourceService)
	}

	var payload NotificationPayload
	if err := json.Unmarshal(capture.event.Payload, &payload); err != nil {
		t.Fatalf("decode payload failed: %v", err)
	}
	if payload.Yes != 2 || payload.No != 1 || !payload.Synthetic || payload.Choice != "no" {
		t.Fatalf("unexpected payload %+v", payload)
	}
}
