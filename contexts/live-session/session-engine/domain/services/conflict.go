package services

import "nodandknow/contexts/live-session/session-engine/domain/entities"

// ConflictDetector fires a single invite per question once both choices have
// been cast on it since the question was last armed.
type ConflictDetector struct {
	fired    map[int]struct{}
	baseline map[int]entities.VoteTally
}

func NewConflictDetector() *ConflictDetector {
	d := &ConflictDetector{}
	d.Reset()
	return d
}

// Evaluate returns a conflict notification the first time tally holds at
// least one new vote for each choice on questionIndex, counted from the
// tally recorded when the question was armed.
func (d *ConflictDetector) Evaluate(vote entities.Vote, tally entities.VoteTally) *entities.Notification {
	base := d.baseline[vote.QuestionIndex]
	if tally.Yes <= base.Yes || tally.No <= base.No {
		return nil
	}
	if _, latched := d.fired[vote.QuestionIndex]; latched {
		return nil
	}
	d.fired[vote.QuestionIndex] = struct{}{}
	return &entities.Notification{
		Kind:          entities.NotificationConflict,
		QuestionIndex: vote.QuestionIndex,
		Identity:      vote.Identity,
		Choice:        vote.Choice,
		Tally:         tally,
		Message:       "Matched with an opposite viewpoint! Join the discussion.",
		OccurredAt:    vote.CastAt,
	}
}

func (d *ConflictDetector) Fired(questionIndex int) bool {
	_, ok := d.fired[questionIndex]
	return ok
}

// ResetQuestion re-arms the latch when the session moves to questionIndex.
// current is the tally the question already holds; only votes on top of it
// can form a new opposing pair.
func (d *ConflictDetector) ResetQuestion(questionIndex int, current entities.VoteTally) {
	delete(d.fired, questionIndex)
	d.baseline[questionIndex] = current
}

func (d *ConflictDetector) Reset() {
	d.fired = make(map[int]struct{})
	d.baseline = make(map[int]entities.VoteTally)
}
