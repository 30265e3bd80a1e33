package eventbus

import (
	"context"
	"strconv"
	"strings"
	"time"

	"nodandknow/contexts/live-session/session-engine/domain/entities"
	"nodandknow/contexts/live-session/session-engine/ports"
	"nodandknow/internal/shared/events"
)

const (
	defaultSourceService = "session-engine"
	entityTypeQuestion   = "question"
)

// NotificationTopics lists the bus topics session notifications are
// published on. The topic is the notification kind.
var NotificationTopics = []string{
	string(entities.NotificationMinority),
	string(entities.NotificationConflict),
	string(entities.NotificationPhaseChanged),
	string(entities.NotificationVoteRecorded),
	string(entities.NotificationSessionReset),
}

// NotificationPayload is the wire form of a session notification.
type NotificationPayload struct {
	Kind          string    `json:"kind"`
	QuestionIndex int       `json:"question_index"`
	Phase         string    `json:"phase,omitempty"`
	PreviousPhase string    `json:"previous_phase,omitempty"`
	InfoIndex     int       `json:"info_index"`
	Choice        string    `json:"choice,omitempty"`
	Synthetic     bool      `json:"synthetic,omitempty"`
	Yes           int       `json:"yes"`
	No            int       `json:"no"`
	FPS           float64   `json:"fps,omitempty"`
	Message       string    `json:"message,omitempty"`
	OccurredAt    time.Time `json:"occurred_at"`
}

// NotificationPublisher wraps session notifications in event envelopes and
// hands them to an event publisher such as the in-process bus.
type NotificationPublisher struct {
	Publisher     ports.EventPublisher
	SourceService string
}

func (p NotificationPublisher) Publish(ctx context.Context, notification entities.Notification) error {
	envelope, err := NotificationEnvelope(p.sourceService(), notification)
	if err != nil {
		return err
	}
	return p.Publisher.Publish(ctx, envelope.EventType, envelope)
}

func (p NotificationPublisher) sourceService() string {
	if source := strings.TrimSpace(p.SourceService); source != "" {
		return source
	}
	return defaultSourceService
}

// NotificationEnvelope builds the envelope for a notification. Raw
// identities never leave the session; only the synthetic flag does.
func NotificationEnvelope(sourceService string, n entities.Notification) (events.Envelope, error) {
	return events.NewEnvelope(
		n.NotificationID,
		string(n.Kind),
		sourceService,
		entityTypeQuestion,
		strconv.Itoa(n.QuestionIndex),
		n.OccurredAt,
		NotificationPayload{
			Kind:          string(n.Kind),
			QuestionIndex: n.QuestionIndex,
			Phase:         string(n.Phase),
			PreviousPhase: string(n.PreviousPhase),
			InfoIndex:     n.InfoIndex,
			Choice:        string(n.Choice),
			Synthetic:     n.Identity.IsSynthetic(),
			Yes:           n.Tally.Yes,
			No:            n.Tally.No,
			FPS:           n.FPS,
			Message:       n.Message,
			OccurredAt:    n.OccurredAt.UTC(),
		},
	)
}

var _ ports.NotificationSink = NotificationPublisher{}
