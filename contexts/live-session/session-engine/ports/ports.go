package ports

import (
	"context"
	"time"

	"nodandknow/contexts/live-session/session-engine/domain/entities"
	"nodandknow/internal/shared/events"
)

// VoteStore is the persistence collaborator. The session uses it as a
// write-through target and must stay correct when it is nil or failing.
type VoteStore interface {
	PersistVote(ctx context.Context, vote entities.Vote) error
	LoadStats(ctx context.Context) (entities.SessionStats, error)
	ExportAnonymized(ctx context.Context) (entities.AnonymizedExport, error)
	ClearAll(ctx context.Context) error
}

// PersistenceQueue hands admitted votes and clears to the store without
// blocking the session loop. Jobs are applied in submission order.
type PersistenceQueue interface {
	EnqueueVote(vote entities.Vote) bool
	EnqueueClear() bool
	FallbackMode() bool
}

// NotificationSink receives session notifications. Implementations must not
// block the caller.
type NotificationSink interface {
	Publish(ctx context.Context, notification entities.Notification) error
}

type EventEnvelope = events.Envelope

type EventPublisher interface {
	Publish(ctx context.Context, topic string, event EventEnvelope) error
}

type EventSubscriber interface {
	Subscribe(
		ctx context.Context,
		topic string,
		consumerGroup string,
		handler func(context.Context, EventEnvelope) error,
	) error
}

type Timer interface {
	Stop() bool
}

type Clock interface {
	Now() time.Time
	AfterFunc(d time.Duration, fn func()) Timer
}

type IDGenerator interface {
	NewID(ctx context.Context) (string, error)
}
