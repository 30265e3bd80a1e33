package commands

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"sync/atomic"
	"time"

	application "nodandknow/contexts/live-session/session-engine/application"
	"nodandknow/contexts/live-session/session-engine/domain/entities"
	domainerrors "nodandknow/contexts/live-session/session-engine/domain/errors"
	"nodandknow/contexts/live-session/session-engine/domain/services"
	"nodandknow/contexts/live-session/session-engine/ports"
)

const defaultCommandBuffer = 256

// Config is the static session setup. A zero MinorityThreshold or
// MinorityMinVotes selects the default signal settings.
type Config struct {
	Catalog           entities.Catalog
	Durations         entities.Durations
	MinorityThreshold float64
	MinorityMinVotes  int
	CommandBuffer     int
}

// Dependencies are the collaborators of a session. Every field except Clock
// may be nil; a nil Persistence keeps the session in memory-only mode.
type Dependencies struct {
	Clock         ports.Clock
	IDGen         ports.IDGenerator
	Notifications ports.NotificationSink
	Persistence   ports.PersistenceQueue
	Logger        *slog.Logger
}

// GestureResult is returned to the sensing layer for every gesture.
type GestureResult struct {
	QuestionIndex int
	Tally         entities.VoteTally
	Admitted      bool
	VoteID        string
	// Notifications lists minority and conflict signals triggered by this vote.
	Notifications []entities.Notification
}

// sessionView is the state published for lock-free readers.
type sessionView struct {
	phase         entities.Phase
	questionIndex int
	infoIndex     int
	deadline      time.Time
}

// SessionOrchestrator composes the ledger, aggregator, conflict detector and
// scheduler. Run owns all of them: gestures, telemetry, timer fires and resets
// are funneled into its goroutine as commands, so no two mutations
// interleave.
type SessionOrchestrator struct {
	catalog       entities.Catalog
	clock         ports.Clock
	idGen         ports.IDGenerator
	notifications ports.NotificationSink
	persistence   ports.PersistenceQueue
	logger        *slog.Logger

	cmds    chan func()
	done    chan struct{}
	running atomic.Bool
	view    atomic.Pointer[sessionView]

	// Owned by the Run goroutine.
	ledger    *services.VoteLedger
	stats     *services.StatsAggregator
	conflict  *services.ConflictDetector
	scheduler *services.PhaseScheduler
	telemetry entities.SensingTelemetry
	timer     ports.Timer
	epoch     uint64
	idSeq     uint64
	loopCtx   context.Context
}

func NewSessionOrchestrator(cfg Config, deps Dependencies) (*SessionOrchestrator, error) {
	if len(cfg.Catalog.Questions) == 0 || len(cfg.Catalog.Infos) == 0 {
		return nil, domainerrors.ErrInvalidCatalog
	}
	if deps.Clock == nil {
		return nil, domainerrors.ErrInvalidDuration
	}
	if cfg.MinorityThreshold < 0 || cfg.MinorityThreshold > 0.5 {
		return nil, fmt.Errorf("%w: threshold %v", domainerrors.ErrInvalidThreshold, cfg.MinorityThreshold)
	}
	if cfg.MinorityMinVotes < 0 {
		return nil, fmt.Errorf("%w: minimum votes %d", domainerrors.ErrInvalidThreshold, cfg.MinorityMinVotes)
	}
	scheduler, err := services.NewPhaseScheduler(
		cfg.Durations,
		len(cfg.Catalog.Questions),
		len(cfg.Catalog.Infos),
		deps.Clock.Now(),
	)
	if err != nil {
		return nil, err
	}
	buffer := cfg.CommandBuffer
	if buffer <= 0 {
		buffer = defaultCommandBuffer
	}
	o := &SessionOrchestrator{
		catalog: entities.Catalog{
			Questions: append([]string(nil), cfg.Catalog.Questions...),
			Infos:     append([]string(nil), cfg.Catalog.Infos...),
		},
		clock:         deps.Clock,
		idGen:         deps.IDGen,
		notifications: deps.Notifications,
		persistence:   deps.Persistence,
		logger:        application.ResolveLogger(deps.Logger),
		cmds:          make(chan func(), buffer),
		done:          make(chan struct{}),
		ledger:        services.NewVoteLedger(len(cfg.Catalog.Questions)),
		stats:         services.NewStatsAggregator(cfg.MinorityThreshold, cfg.MinorityMinVotes),
		conflict:      services.NewConflictDetector(),
		scheduler:     scheduler,
		loopCtx:       context.Background(),
	}
	o.publishView()
	return o, nil
}

// Run processes commands until ctx is cancelled. The phase cycle starts when
// Run starts. Run may be called once.
func (o *SessionOrchestrator) Run(ctx context.Context) error {
	if !o.running.CompareAndSwap(false, true) {
		return domainerrors.ErrSessionRunning
	}
	defer close(o.done)

	o.loopCtx = ctx
	o.scheduler.Reset(o.clock.Now())
	o.armTimer()
	o.publishView()
	o.logger.Info("session loop started",
		"event", "session_loop_started",
		"module", application.ModuleName,
		"layer", "application",
		"questions", len(o.catalog.Questions),
		"infos", len(o.catalog.Infos),
		"minority_threshold", o.stats.Threshold(),
		"minority_min_votes", o.stats.MinVotes(),
	)

	for {
		select {
		case <-ctx.Done():
			o.stopTimer()
			o.logger.Info("session loop stopped",
				"event", "session_loop_stopped",
				"module", application.ModuleName,
				"layer", "application",
			)
			return nil
		case fn := <-o.cmds:
			fn()
		}
	}
}

// RecordGesture admits a vote for the question that is current when the
// gesture is enqueued. A later question change does not re-attribute it.
func (o *SessionOrchestrator) RecordGesture(ctx context.Context, identity entities.Identity, choice entities.Choice) (GestureResult, error) {
	return o.RecordVote(ctx, o.view.Load().questionIndex, identity, choice)
}

// RecordVote admits a vote for an explicit question index.
func (o *SessionOrchestrator) RecordVote(
	ctx context.Context,
	questionIndex int,
	identity entities.Identity,
	choice entities.Choice,
) (GestureResult, error) {
	vote := entities.Vote{
		QuestionIndex: questionIndex,
		Identity:      identity,
		Choice:        choice,
		CastAt:        o.clock.Now().UTC(),
	}
	var (
		result GestureResult
		err    error
	)
	if callErr := o.call(ctx, func() { result, err = o.admit(vote) }); callErr != nil {
		return GestureResult{}, callErr
	}
	return result, err
}

// Advance stores the latest sensing telemetry. It never touches the ledger.
func (o *SessionOrchestrator) Advance(ctx context.Context, faces []entities.FaceDetection, fps float64) error {
	telemetry := entities.SensingTelemetry{
		Faces:      append([]entities.FaceDetection(nil), faces...),
		FPS:        fps,
		ObservedAt: o.clock.Now().UTC(),
	}
	return o.submit(ctx, func() { o.telemetry = telemetry })
}

// ResetSession erases every vote, all statistics and conflict latches,
// returns both indexes to zero and restarts the cycle at INFO. It is the only
// path that erases vote history.
func (o *SessionOrchestrator) ResetSession(ctx context.Context) error {
	return o.call(ctx, o.reset)
}

// Snapshot returns a consistent copy of the session state.
func (o *SessionOrchestrator) Snapshot(ctx context.Context) (entities.SessionState, error) {
	var state entities.SessionState
	if err := o.call(ctx, func() { state = o.snapshot() }); err != nil {
		return entities.SessionState{}, err
	}
	return state, nil
}

// Votes returns the admitted votes of this session in admission order.
func (o *SessionOrchestrator) Votes(ctx context.Context) ([]entities.Vote, error) {
	var votes []entities.Vote
	if err := o.call(ctx, func() { votes = o.ledger.Votes() }); err != nil {
		return nil, err
	}
	return votes, nil
}

// TimeRemaining reports whole seconds left in the active phase without
// entering the session loop.
func (o *SessionOrchestrator) TimeRemaining() int {
	return services.RemainingSeconds(o.view.Load().deadline, o.clock.Now())
}

func (o *SessionOrchestrator) CurrentPhase() entities.Phase {
	return o.view.Load().phase
}

func (o *SessionOrchestrator) CurrentQuestionIndex() int {
	return o.view.Load().questionIndex
}

func (o *SessionOrchestrator) CurrentInfoIndex() int {
	return o.view.Load().infoIndex
}

func (o *SessionOrchestrator) Catalog() entities.Catalog {
	return o.catalog
}

// Done is closed once Run has returned.
func (o *SessionOrchestrator) Done() <-chan struct{} {
	return o.done
}

func (o *SessionOrchestrator) admit(vote entities.Vote) (GestureResult, error) {
	tally, admitted, err := o.ledger.AddVote(vote)
	if err != nil {
		o.logger.Warn("gesture rejected",
			"event", "session_gesture_rejected",
			"module", application.ModuleName,
			"layer", "application",
			"question_index", vote.QuestionIndex,
			"identity", vote.Identity.String(),
			"choice", string(vote.Choice),
			"error", err.Error(),
		)
		return GestureResult{}, err
	}
	result := GestureResult{
		QuestionIndex: vote.QuestionIndex,
		Tally:         tally,
		Admitted:      admitted,
	}
	if !admitted {
		o.logger.Debug("duplicate gesture ignored",
			"event", "session_gesture_duplicate",
			"module", application.ModuleName,
			"layer", "application",
			"question_index", vote.QuestionIndex,
			"identity", vote.Identity.String(),
		)
		return result, nil
	}

	vote.VoteID = o.newID()
	result.VoteID = vote.VoteID

	if n := o.stats.Observe(vote, tally); n != nil {
		result.Notifications = append(result.Notifications, o.stamp(*n))
	}
	if n := o.conflict.Evaluate(vote, tally); n != nil {
		result.Notifications = append(result.Notifications, o.stamp(*n))
	}
	o.persist(vote)

	o.logger.Info("vote recorded",
		"event", "session_vote_recorded",
		"module", application.ModuleName,
		"layer", "application",
		"vote_id", vote.VoteID,
		"question_index", vote.QuestionIndex,
		"identity", vote.Identity.String(),
		"synthetic", vote.Identity.IsSynthetic(),
		"choice", string(vote.Choice),
		"yes", tally.Yes,
		"no", tally.No,
		"fps", o.telemetry.FPS,
	)

	o.dispatch(o.stamp(entities.Notification{
		Kind:          entities.NotificationVoteRecorded,
		QuestionIndex: vote.QuestionIndex,
		Phase:         o.scheduler.Phase(),
		Identity:      vote.Identity,
		Choice:        vote.Choice,
		Tally:         tally,
		FPS:           o.telemetry.FPS,
		OccurredAt:    vote.CastAt,
	}))
	for _, n := range result.Notifications {
		o.dispatch(n)
	}
	return result, nil
}

func (o *SessionOrchestrator) persist(vote entities.Vote) {
	if o.persistence == nil {
		return
	}
	if !o.persistence.EnqueueVote(vote) {
		o.logger.Warn("vote persistence skipped; continuing in memory",
			"event", "session_vote_persist_skipped",
			"module", application.ModuleName,
			"layer", "application",
			"vote_id", vote.VoteID,
			"question_index", vote.QuestionIndex,
		)
	}
}

func (o *SessionOrchestrator) reset() {
	now := o.clock.Now()
	o.ledger.Clear()
	o.stats.Reset()
	o.conflict.Reset()
	o.scheduler.Reset(now)
	o.armTimer()
	o.publishView()
	if o.persistence != nil && !o.persistence.EnqueueClear() {
		o.logger.Warn("store clear skipped; continuing in memory",
			"event", "session_store_clear_skipped",
			"module", application.ModuleName,
			"layer", "application",
		)
	}
	o.logger.Info("session reset",
		"event", "session_reset",
		"module", application.ModuleName,
		"layer", "application",
	)
	o.dispatch(o.stamp(entities.Notification{
		Kind:       entities.NotificationSessionReset,
		Phase:      o.scheduler.Phase(),
		OccurredAt: now.UTC(),
	}))
}

func (o *SessionOrchestrator) snapshot() entities.SessionState {
	now := o.clock.Now()
	question := o.scheduler.QuestionIndex()
	info := o.scheduler.InfoIndex()
	telemetry := o.telemetry
	telemetry.Faces = append([]entities.FaceDetection(nil), o.telemetry.Faces...)
	return entities.SessionState{
		Phase:         o.scheduler.Phase(),
		QuestionIndex: question,
		InfoIndex:     info,
		Question:      o.catalog.Question(question),
		Info:          o.catalog.Info(info),
		PhaseStarted:  o.scheduler.PhaseStarted(),
		TimeRemaining: o.scheduler.TimeRemaining(now),
		PhaseDuration: o.scheduler.PhaseDuration(),
		Tally:         o.ledger.TallyFor(question),
		Stats:         o.stats.Snapshot(),
		Telemetry:     telemetry,
		FallbackMode:  o.persistence == nil || o.persistence.FallbackMode(),
	}
}

// armTimer replaces the single pending timer with one for the next deadline.
// Bumping the epoch turns any callback already in flight into a no-op.
func (o *SessionOrchestrator) armTimer() {
	o.stopTimer()
	o.epoch++
	epoch := o.epoch
	wait := o.scheduler.NextDeadline().Sub(o.clock.Now())
	if wait < 0 {
		wait = 0
	}
	o.timer = o.clock.AfterFunc(wait, func() {
		select {
		case o.cmds <- func() { o.onTimer(epoch) }:
		case <-o.done:
		}
	})
}

func (o *SessionOrchestrator) stopTimer() {
	if o.timer != nil {
		o.timer.Stop()
		o.timer = nil
	}
}

func (o *SessionOrchestrator) onTimer(epoch uint64) {
	if epoch != o.epoch {
		o.logger.Debug("stale timer ignored",
			"event", "session_timer_stale",
			"module", application.ModuleName,
			"layer", "application",
			"epoch", epoch,
			"current_epoch", o.epoch,
		)
		return
	}
	now := o.clock.Now()
	for _, tr := range o.scheduler.Advance(now) {
		o.applyTransition(tr)
	}
	o.publishView()
	o.armTimer()
}

func (o *SessionOrchestrator) applyTransition(tr services.Transition) {
	if tr.QuestionAdvanced {
		o.conflict.ResetQuestion(tr.QuestionIndex, o.ledger.TallyFor(tr.QuestionIndex))
	}
	o.logger.Info("session transition applied",
		"event", "session_transition_applied",
		"module", application.ModuleName,
		"layer", "application",
		"kind", string(tr.Kind),
		"from", string(tr.From),
		"to", string(tr.To),
		"question_index", tr.QuestionIndex,
		"info_index", tr.InfoIndex,
	)
	o.dispatch(o.stamp(entities.Notification{
		Kind:          entities.NotificationPhaseChanged,
		Phase:         tr.To,
		PreviousPhase: tr.From,
		QuestionIndex: tr.QuestionIndex,
		InfoIndex:     tr.InfoIndex,
		Tally:         o.ledger.TallyFor(tr.QuestionIndex),
		OccurredAt:    tr.At.UTC(),
	}))
}

func (o *SessionOrchestrator) publishView() {
	o.view.Store(&sessionView{
		phase:         o.scheduler.Phase(),
		questionIndex: o.scheduler.QuestionIndex(),
		infoIndex:     o.scheduler.InfoIndex(),
		deadline:      o.scheduler.PhaseDeadline(),
	})
}

// dispatch is fire and forget: sink failures are logged and never change
// session state.
func (o *SessionOrchestrator) dispatch(n entities.Notification) {
	if o.notifications == nil {
		return
	}
	if err := o.notifications.Publish(o.loopCtx, n); err != nil {
		o.logger.Warn("notification delivery failed",
			"event", "session_notification_failed",
			"module", application.ModuleName,
			"layer", "application",
			"kind", string(n.Kind),
			"notification_id", n.NotificationID,
			"error", err.Error(),
		)
	}
}

func (o *SessionOrchestrator) stamp(n entities.Notification) entities.Notification {
	n.NotificationID = o.newID()
	if n.OccurredAt.IsZero() {
		n.OccurredAt = o.clock.Now().UTC()
	}
	return n
}

// newID falls back to a session-local sequence when no generator is wired
// or it fails.
func (o *SessionOrchestrator) newID() string {
	if o.idGen != nil {
		if id, err := o.idGen.NewID(o.loopCtx); err == nil && id != "" {
			return id
		}
	}
	o.idSeq++
	return "session-" + strconv.FormatUint(o.idSeq, 10)
}

// submit enqueues fn without waiting for it to run.
func (o *SessionOrchestrator) submit(ctx context.Context, fn func()) error {
	select {
	case <-o.done:
		return domainerrors.ErrSessionClosed
	default:
	}
	select {
	case o.cmds <- fn:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-o.done:
		return domainerrors.ErrSessionClosed
	}
}

// call enqueues fn and waits until the loop has run it.
func (o *SessionOrchestrator) call(ctx context.Context, fn func()) error {
	finished := make(chan struct{})
	if err := o.submit(ctx, func() {
		defer close(finished)
		fn()
	}); err != nil {
		return err
	}
	select {
	case <-finished:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-o.done:
		select {
		case <-finished:
			return nil
		default:
			return domainerrors.ErrSessionClosed
		}
	}
}
