package memory

import (
	"context"
	"testing"
	"time"

	"nodandknow/contexts/live-session/session-engine/domain/entities"
)

func TestStoreIgnoresDuplicateVotes(t *testing.T) {
	store := NewStore(nil)
	ctx := context.Background()
	castAt := time.Date(2026, time.March, 1, 9, 0, 0, 0, time.UTC)

	for _, vote := range []entities.Vote{
		{QuestionIndex: 0, Identity: 1, Choice: entities.ChoiceYes, CastAt: castAt},
		{QuestionIndex: 0, Identity: 1, Choice: entities.ChoiceNo, CastAt: castAt.Add(time.Second)},
		{QuestionIndex: 1, Identity: 1, Choice: entities.ChoiceNo, CastAt: castAt.Add(2 * time.Second)},
	} {
		if err := store.PersistVote(ctx, vote); err != nil {
			t.Fatalf("persist failed: %v", err)
		}
	}
	votes, err := store.ListVotes(ctx)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(votes) != 2 || votes[0].Choice != entities.ChoiceYes {
		t.Fatalf("expected first vote kept and duplicate dropped, got %+v", votes)
	}
	if votes[0].VoteID == "" {
		t.Fatalf("expected generated vote id")
	}
}

func TestStoreStatsExportAndClear(t *testing.T) {
	store := NewStore([]entities.Vote{
		{QuestionIndex: 0, Identity: 1, Choice: entities.ChoiceYes},
		{QuestionIndex: 0, Identity: -2, Choice: entities.ChoiceNo},
	})
	ctx := context.Background()

	stats, err := store.LoadStats(ctx)
	if err != nil {
		t.Fatalf("load stats failed: %v", err)
	}
	if stats.TotalVotes != 2 || stats.UniqueParticipants != 2 {
		t.Fatalf("unexpected stats %+v", stats)
	}
	exported, err := store.ExportAnonymized(ctx)
	if err != nil {
		t.Fatalf("export failed: %v", err)
	}
	if exported.TotalVotes != 2 || len(exported.Questions) != 1 {
		t.Fatalf("unexpected export %+v", exported)
	}

	if err := store.ClearAll(ctx); err != nil {
		t.Fatalf("clear failed: %v", err)
	}
	if stats, _ := store.LoadStats(ctx); stats.TotalVotes != 0 {
		t.Fatalf("expected empty store after clear")
	}
}

func TestStoreRejectsInvalidChoice(t *testing.T) {
	store := NewStore(nil)
	if err := store.PersistVote(context.Background(), entities.Vote{Choice: "maybe"}); err == nil {
		t.Fatalf("expected invalid choice error")
	}
}
