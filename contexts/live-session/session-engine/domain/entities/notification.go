package entities

import "time"

type NotificationKind string

const (
	NotificationMinority     NotificationKind = "minority.detected"
	NotificationConflict     NotificationKind = "conflict.detected"
	NotificationPhaseChanged NotificationKind = "phase.changed"
	NotificationVoteRecorded NotificationKind = "vote.recorded"
	NotificationSessionReset NotificationKind = "session.reset"
)

// Notification is an event emitted for UI or log consumers. Delivery is fire
// and forget; no internal state depends on it being received.
type Notification struct {
	NotificationID string
	Kind           NotificationKind
	QuestionIndex  int
	Phase          Phase
	PreviousPhase  Phase
	InfoIndex      int
	Identity       Identity
	Choice         Choice
	Tally          VoteTally
	FPS            float64
	Message        string
	OccurredAt     time.Time
}
