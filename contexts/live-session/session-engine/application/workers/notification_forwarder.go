package workers

import (
	"context"
	"log/slog"
	"strings"

	application "nodandknow/contexts/live-session/session-engine/application"
	"nodandknow/contexts/live-session/session-engine/ports"
)

const defaultForwarderCG = "session-engine-notification-forwarder"

// NotificationForwarder relays session notifications from the in-process bus
// to an external publisher such as Redis. Forwarding failures are logged and
// never reach the session.
type NotificationForwarder struct {
	Subscriber    ports.EventSubscriber
	Publisher     ports.EventPublisher
	Topics        []string
	ConsumerGroup string
	Logger        *slog.Logger
}

// Start subscribes to every topic. Delivery runs until ctx is cancelled.
func (f NotificationForwarder) Start(ctx context.Context) error {
	logger := application.ResolveLogger(f.Logger)
	group := strings.TrimSpace(f.ConsumerGroup)
	if group == "" {
		group = defaultForwarderCG
	}
	if f.Publisher == nil {
		logger.Info("notification forwarder disabled without publisher",
			"event", "session_forwarder_disabled",
			"module", application.ModuleName,
			"layer", "worker",
		)
		return nil
	}
	for _, topic := range f.Topics {
		if err := f.Subscriber.Subscribe(ctx, topic, group, f.forward); err != nil {
			logger.Error("notification forwarder subscribe failed",
				"event", "session_forwarder_subscribe_failed",
				"module", application.ModuleName,
				"layer", "worker",
				"topic", topic,
				"consumer_group", group,
				"error", err.Error(),
			)
			return err
		}
	}
	logger.Info("notification forwarder subscribed",
		"event", "session_forwarder_started",
		"module", application.ModuleName,
		"layer", "worker",
		"topics", len(f.Topics),
		"consumer_group", group,
	)
	return nil
}

func (f NotificationForwarder) forward(ctx context.Context, event ports.EventEnvelope) error {
	if err := f.Publisher.Publish(ctx, event.EventType, event); err != nil {
		application.ResolveLogger(f.Logger).Warn("notification forward failed",
			"event", "session_forwarder_publish_failed",
			"module", application.ModuleName,
			"layer", "worker",
			"event_id", event.EventID,
			"event_type", event.EventType,
			"error", err.Error(),
		)
		return err
	}
	return nil
}
