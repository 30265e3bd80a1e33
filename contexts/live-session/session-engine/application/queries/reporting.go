package queries

import (
	"context"
	"log/slog"
	"time"

	application "nodandknow/contexts/live-session/session-engine/application"
	"nodandknow/contexts/live-session/session-engine/domain/entities"
	domainerrors "nodandknow/contexts/live-session/session-engine/domain/errors"
	"nodandknow/contexts/live-session/session-engine/domain/services"
	"nodandknow/contexts/live-session/session-engine/ports"
)

// LiveVotes is the in-memory vote history of a running session.
type LiveVotes interface {
	Votes(ctx context.Context) ([]entities.Vote, error)
}

// FallbackState reports whether store writes have been lost, so the store no
// longer holds every admitted vote.
type FallbackState interface {
	FallbackMode() bool
}

// ReportingUseCase serves dashboard statistics and anonymized exports. The
// store is preferred; the live session answers when the store is absent,
// failing on read, or out of sync after lost writes.
type ReportingUseCase struct {
	Store    ports.VoteStore
	Live     LiveVotes
	Fallback FallbackState
	Catalog  entities.Catalog
	Clock    ports.Clock
	Logger   *slog.Logger
}

func (uc ReportingUseCase) LoadStats(ctx context.Context) (entities.SessionStats, error) {
	if uc.readStore("session_stats_store_skipped") {
		stats, err := uc.Store.LoadStats(ctx)
		if err == nil {
			return stats, nil
		}
		uc.logFallback("session_stats_store_failed", err)
	}
	votes, err := uc.liveVotes(ctx)
	if err != nil {
		return entities.SessionStats{}, err
	}
	return services.StatsFromVotes(votes), nil
}

func (uc ReportingUseCase) ExportAnonymized(ctx context.Context) (entities.AnonymizedExport, error) {
	var (
		out entities.AnonymizedExport
		ok  bool
	)
	if uc.readStore("session_export_store_skipped") {
		exported, err := uc.Store.ExportAnonymized(ctx)
		if err == nil {
			out, ok = exported, true
		} else {
			uc.logFallback("session_export_store_failed", err)
		}
	}
	if !ok {
		votes, err := uc.liveVotes(ctx)
		if err != nil {
			return entities.AnonymizedExport{}, err
		}
		out = services.BuildAnonymizedExport(votes, uc.now())
	}
	for i := range out.Questions {
		if out.Questions[i].Question == "" {
			out.Questions[i].Question = uc.Catalog.Question(out.Questions[i].QuestionIndex)
		}
	}
	return out, nil
}

// readStore reports whether reads may go to the store. While writes are in
// fallback the live session is the only complete source.
func (uc ReportingUseCase) readStore(event string) bool {
	if uc.Store == nil {
		return false
	}
	if uc.Live == nil || uc.Fallback == nil || !uc.Fallback.FallbackMode() {
		return true
	}
	application.ResolveLogger(uc.Logger).Debug("vote store out of sync; reading live session",
		"event", event,
		"module", application.ModuleName,
		"layer", "application",
	)
	return false
}

func (uc ReportingUseCase) liveVotes(ctx context.Context) ([]entities.Vote, error) {
	if uc.Live == nil {
		return nil, domainerrors.ErrStoreUnavailable
	}
	return uc.Live.Votes(ctx)
}

func (uc ReportingUseCase) now() time.Time {
	if uc.Clock == nil {
		return time.Now().UTC()
	}
	return uc.Clock.Now().UTC()
}

func (uc ReportingUseCase) logFallback(event string, err error) {
	application.ResolveLogger(uc.Logger).Warn("vote store read failed; using live session",
		"event", event,
		"module", application.ModuleName,
		"layer", "application",
		"error", err.Error(),
	)
}
