package services

import (
	"time"

	"nodandknow/contexts/live-session/session-engine/domain/entities"
	domainerrors "nodandknow/contexts/live-session/session-engine/domain/errors"
)

type TransitionKind string

const (
	TransitionPhase    TransitionKind = "phase"
	TransitionRotation TransitionKind = "rotation"
)

// Transition describes one state change applied by PhaseScheduler.Advance.
type Transition struct {
	Kind             TransitionKind
	From             entities.Phase
	To               entities.Phase
	QuestionIndex    int
	InfoIndex        int
	QuestionAdvanced bool
	InfoAdvanced     bool
	At               time.Time
}

// PhaseScheduler is the wall-clock driven INFO -> QUESTION -> RESULTS cycle.
// It holds only start timestamps and durations; callers feed it the current
// time and it reports which transitions became due. It never replays missed
// transitions: a late call applies at most one phase change and the new phase
// starts at the time of that call.
type PhaseScheduler struct {
	durations     entities.Durations
	questionCount int
	infoCount     int

	phase           entities.Phase
	questionIndex   int
	infoIndex       int
	phaseStarted    time.Time
	questionChanged time.Time
}

func NewPhaseScheduler(durations entities.Durations, questionCount, infoCount int, now time.Time) (*PhaseScheduler, error) {
	if questionCount <= 0 || infoCount <= 0 {
		return nil, domainerrors.ErrInvalidCatalog
	}
	if durations.Info <= 0 || durations.Question <= 0 || durations.Results <= 0 || durations.RotationInterval < 0 {
		return nil, domainerrors.ErrInvalidDuration
	}
	s := &PhaseScheduler{
		durations:     durations,
		questionCount: questionCount,
		infoCount:     infoCount,
	}
	s.Reset(now)
	return s, nil
}

func (s *PhaseScheduler) Phase() entities.Phase { return s.phase }
func (s *PhaseScheduler) QuestionIndex() int    { return s.questionIndex }
func (s *PhaseScheduler) InfoIndex() int        { return s.infoIndex }
func (s *PhaseScheduler) PhaseStarted() time.Time {
	return s.phaseStarted
}

func (s *PhaseScheduler) PhaseDuration() time.Duration {
	return s.durations.For(s.phase)
}

// PhaseDeadline is when the active phase ends.
func (s *PhaseScheduler) PhaseDeadline() time.Time {
	return s.phaseStarted.Add(s.durations.For(s.phase))
}

// RotationDeadline reports when the independent rotation next advances the
// question. ok is false when rotation is disabled.
func (s *PhaseScheduler) RotationDeadline() (time.Time, bool) {
	if s.durations.RotationInterval <= 0 {
		return time.Time{}, false
	}
	return s.questionChanged.Add(s.durations.RotationInterval), true
}

// NextDeadline is the earliest instant at which Advance has work to do.
func (s *PhaseScheduler) NextDeadline() time.Time {
	deadline := s.PhaseDeadline()
	if rotation, ok := s.RotationDeadline(); ok && rotation.Before(deadline) {
		return rotation
	}
	return deadline
}

// TimeRemaining returns whole seconds left in the active phase, rounded up
// and clamped at zero.
func (s *PhaseScheduler) TimeRemaining(now time.Time) int {
	return RemainingSeconds(s.PhaseDeadline(), now)
}

// Advance applies every transition due at now.
func (s *PhaseScheduler) Advance(now time.Time) []Transition {
	var out []Transition
	if !now.Before(s.PhaseDeadline()) {
		out = append(out, s.nextPhase(now))
	}
	if rotation, ok := s.RotationDeadline(); ok && !now.Before(rotation) {
		out = append(out, s.rotate(now))
	}
	return out
}

func (s *PhaseScheduler) nextPhase(now time.Time) Transition {
	from := s.phase
	to := from.Next()
	tr := Transition{
		Kind: TransitionPhase,
		From: from,
		To:   to,
		At:   now,
	}
	if from == entities.PhaseResults {
		s.infoIndex = (s.infoIndex + 1) % s.infoCount
		s.questionIndex = (s.questionIndex + 1) % s.questionCount
		s.questionChanged = now
		tr.InfoAdvanced = true
		tr.QuestionAdvanced = true
	}
	s.phase = to
	s.phaseStarted = now
	tr.QuestionIndex = s.questionIndex
	tr.InfoIndex = s.infoIndex
	return tr
}

func (s *PhaseScheduler) rotate(now time.Time) Transition {
	s.questionIndex = (s.questionIndex + 1) % s.questionCount
	s.questionChanged = now
	return Transition{
		Kind:             TransitionRotation,
		From:             s.phase,
		To:               s.phase,
		QuestionIndex:    s.questionIndex,
		InfoIndex:        s.infoIndex,
		QuestionAdvanced: true,
		At:               now,
	}
}

// Reset returns to INFO with both indexes at zero, starting at now.
func (s *PhaseScheduler) Reset(now time.Time) {
	s.phase = entities.PhaseInfo
	s.questionIndex = 0
	s.infoIndex = 0
	s.phaseStarted = now
	s.questionChanged = now
}

// RemainingSeconds is the countdown rule shared with lock-free readers.
func RemainingSeconds(deadline, now time.Time) int {
	remaining := deadline.Sub(now)
	if remaining <= 0 {
		return 0
	}
	seconds := remaining / time.Second
	if remaining%time.Second != 0 {
		seconds++
	}
	return int(seconds)
}

