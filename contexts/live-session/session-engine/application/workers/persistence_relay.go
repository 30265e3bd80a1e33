package workers

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	application "nodandknow/contexts/live-session/session-engine/application"
	"nodandknow/contexts/live-session/session-engine/domain/entities"
	"nodandknow/contexts/live-session/session-engine/ports"
)

const (
	defaultQueueSize    = 256
	defaultWriteTimeout = 5 * time.Second
)

type persistJob struct {
	vote  entities.Vote
	clear bool
}

// PersistenceRelay writes admitted votes and clears to the vote store off the
// session loop. Jobs are applied in submission order, so a clear lands after
// every vote queued before it.
//
// A failed write or a full queue switches the relay into fallback mode; the
// session keeps running from memory. A successful ClearAll leaves fallback
// mode since store and memory are both empty again.
type PersistenceRelay struct {
	store        ports.VoteStore
	jobs         chan persistJob
	writeTimeout time.Duration
	fallback     atomic.Bool
	logger       *slog.Logger
}

func NewPersistenceRelay(store ports.VoteStore, queueSize int, logger *slog.Logger) *PersistenceRelay {
	if queueSize <= 0 {
		queueSize = defaultQueueSize
	}
	r := &PersistenceRelay{
		store:        store,
		jobs:         make(chan persistJob, queueSize),
		writeTimeout: defaultWriteTimeout,
		logger:       application.ResolveLogger(logger),
	}
	if store == nil {
		r.fallback.Store(true)
	}
	return r
}

func (r *PersistenceRelay) EnqueueVote(vote entities.Vote) bool {
	return r.enqueue(persistJob{vote: vote})
}

func (r *PersistenceRelay) EnqueueClear() bool {
	return r.enqueue(persistJob{clear: true})
}

func (r *PersistenceRelay) FallbackMode() bool {
	return r.fallback.Load()
}

// Pending reports queued jobs not yet applied.
func (r *PersistenceRelay) Pending() int {
	return len(r.jobs)
}

func (r *PersistenceRelay) enqueue(job persistJob) bool {
	if r.store == nil {
		return false
	}
	select {
	case r.jobs <- job:
		return true
	default:
		r.fallback.Store(true)
		r.logger.Warn("persistence queue full; dropping write",
			"event", "session_persist_queue_full",
			"module", application.ModuleName,
			"layer", "worker",
			"clear", job.clear,
			"question_index", job.vote.QuestionIndex,
			"queue_size", cap(r.jobs),
		)
		return false
	}
}

// Run applies queued jobs until ctx is cancelled, then drains what is left
// with a bounded timeout.
func (r *PersistenceRelay) Run(ctx context.Context) error {
	if r.store == nil {
		r.logger.Info("persistence relay disabled without store",
			"event", "session_persist_relay_disabled",
			"module", application.ModuleName,
			"layer", "worker",
		)
		<-ctx.Done()
		return nil
	}
	r.logger.Info("persistence relay started",
		"event", "session_persist_relay_started",
		"module", application.ModuleName,
		"layer", "worker",
		"queue_size", cap(r.jobs),
	)
	for {
		select {
		case <-ctx.Done():
			r.drain(context.WithoutCancel(ctx))
			return nil
		case job := <-r.jobs:
			r.apply(ctx, job)
		}
	}
}

// RunOnce applies every job queued at call time.
func (r *PersistenceRelay) RunOnce(ctx context.Context) int {
	applied := 0
	for {
		select {
		case job := <-r.jobs:
			r.apply(ctx, job)
			applied++
		default:
			return applied
		}
	}
}

func (r *PersistenceRelay) drain(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, r.writeTimeout)
	defer cancel()
	applied := r.RunOnce(ctx)
	r.logger.Info("persistence relay stopped",
		"event", "session_persist_relay_stopped",
		"module", application.ModuleName,
		"layer", "worker",
		"drained_count", applied,
	)
}

func (r *PersistenceRelay) apply(ctx context.Context, job persistJob) {
	writeCtx, cancel := context.WithTimeout(ctx, r.writeTimeout)
	defer cancel()

	if job.clear {
		if err := r.store.ClearAll(writeCtx); err != nil {
			r.fail("session_store_clear_failed", err, "clear", true)
			return
		}
		if r.fallback.Swap(false) {
			r.logger.Info("vote store back in sync after clear",
				"event", "session_store_resynced",
				"module", application.ModuleName,
				"layer", "worker",
			)
		}
		return
	}
	if err := r.store.PersistVote(writeCtx, job.vote); err != nil {
		r.fail("session_vote_persist_failed", err,
			"vote_id", job.vote.VoteID,
			"question_index", job.vote.QuestionIndex,
		)
	}
}

func (r *PersistenceRelay) fail(event string, err error, attrs ...any) {
	r.fallback.Store(true)
	args := append([]any{
		"event", event,
		"module", application.ModuleName,
		"layer", "worker",
		"error", err.Error(),
	}, attrs...)
	r.logger.Error("vote store write failed; continuing in memory", args...)
}

var _ ports.PersistenceQueue = (*PersistenceRelay)(nil)
