package services

import (
	"testing"
	"time"

	"nodandknow/contexts/live-session/session-engine/domain/entities"
)

func TestBuildAnonymizedExport(t *testing.T) {
	castAt := time.Date(2026, time.March, 1, 9, 30, 0, 0, time.UTC)
	votes := []entities.Vote{
		{QuestionIndex: 2, Identity: 11, Choice: entities.ChoiceNo, CastAt: castAt},
		{QuestionIndex: 0, Identity: 11, Choice: entities.ChoiceYes, CastAt: castAt},
		{QuestionIndex: 0, Identity: -4, Choice: entities.ChoiceNo, CastAt: castAt},
	}

	out := BuildAnonymizedExport(votes, castAt.Add(time.Hour))
	if out.TotalVotes != 3 || out.UniqueParticipants != 2 {
		t.Fatalf("unexpected totals %+v", out)
	}
	if len(out.Questions) != 2 || out.Questions[0].QuestionIndex != 0 || out.Questions[1].QuestionIndex != 2 {
		t.Fatalf("expected questions sorted by index, got %+v", out.Questions)
	}
	if out.Questions[0].Yes != 1 || out.Questions[0].No != 1 || out.Questions[0].Participants != 2 {
		t.Fatalf("unexpected question 0 export %+v", out.Questions[0])
	}
	if !out.Votes[2].Synthetic || out.Votes[0].Synthetic {
		t.Fatalf("expected synthetic flag only on negative identity")
	}
	if got := out.SuggestedFileName(); got != "securematch_data_2026-03-01.json" {
		t.Fatalf("unexpected file name %q", got)
	}
}

func TestBuildAnonymizedExportEmpty(t *testing.T) {
	out := BuildAnonymizedExport(nil, time.Now())
	if out.TotalVotes != 0 || out.Questions == nil || out.Votes == nil {
		t.Fatalf("expected empty but non-nil export, got %+v", out)
	}
}

func TestStatsFromVotes(t *testing.T) {
	stats := StatsFromVotes([]entities.Vote{
		vote(0, 1, entities.ChoiceYes),
		vote(0, 2, entities.ChoiceNo),
		vote(1, 1, entities.ChoiceNo),
	})
	if stats.TotalVotes != 3 || stats.UniqueParticipants != 2 || stats.QuestionsAnswered != 2 || stats.NoVotes != 2 {
		t.Fatalf("unexpected stats %+v", stats)
	}
}
