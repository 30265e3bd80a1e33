package services

import (
	"testing"

	"nodandknow/contexts/live-session/session-engine/domain/entities"
)

func feed(t *testing.T, ledger *VoteLedger, stats *StatsAggregator, votes []entities.Vote) []*entities.Notification {
	t.Helper()
	out := make([]*entities.Notification, 0, len(votes))
	for _, item := range votes {
		tally, admitted, err := ledger.AddVote(item)
		if err != nil {
			t.Fatalf("add vote failed: %v", err)
		}
		if !admitted {
			out = append(out, nil)
			continue
		}
		out = append(out, stats.Observe(item, tally))
	}
	return out
}

func TestMinorityFiresOnCrossingVote(t *testing.T) {
	ledger := NewVoteLedger(1)
	stats := NewStatsAggregator(0, 0)

	votes := []entities.Vote{vote(0, 1, entities.ChoiceYes)}
	for i := 2; i <= 10; i++ {
		votes = append(votes, vote(0, entities.Identity(i), entities.ChoiceNo))
	}
	results := feed(t, ledger, stats, votes)

	// Votes 1-4: total <= 3 or yes share is exactly 25%.
	for i := 0; i < 4; i++ {
		if results[i] != nil {
			t.Fatalf("expected no minority signal on vote %d, got %+v", i+1, results[i])
		}
	}
	crossing := results[4]
	if crossing == nil {
		t.Fatalf("expected minority signal on vote 5 (1 yes / 4 no)")
	}
	if crossing.Kind != entities.NotificationMinority || crossing.Choice != entities.ChoiceYes {
		t.Fatalf("unexpected minority notification: %+v", crossing)
	}
	for i := 5; i < len(results); i++ {
		if results[i] == nil {
			t.Fatalf("expected minority signal re-evaluated on vote %d", i+1)
		}
	}
}

func TestMinorityDoesNotFireOnEvenSplit(t *testing.T) {
	ledger := NewVoteLedger(1)
	stats := NewStatsAggregator(DefaultMinorityThreshold, DefaultMinorityMinVotes)
	results := feed(t, ledger, stats, []entities.Vote{
		vote(0, 1, entities.ChoiceYes),
		vote(0, 2, entities.ChoiceNo),
		vote(0, 3, entities.ChoiceYes),
		vote(0, 4, entities.ChoiceNo),
	})
	for i, result := range results {
		if result != nil {
			t.Fatalf("expected no minority signal for 2/2 split, got one on vote %d", i+1)
		}
	}
}

func TestMinorityNotEmittedForDuplicate(t *testing.T) {
	ledger := NewVoteLedger(1)
	stats := NewStatsAggregator(0, 0)
	votes := []entities.Vote{
		vote(0, 1, entities.ChoiceYes),
		vote(0, 2, entities.ChoiceNo),
		vote(0, 3, entities.ChoiceNo),
		vote(0, 4, entities.ChoiceNo),
		vote(0, 5, entities.ChoiceNo),
		vote(0, 5, entities.ChoiceNo),
	}
	results := feed(t, ledger, stats, votes)
	if results[4] == nil {
		t.Fatalf("expected minority on vote 5")
	}
	if results[5] != nil {
		t.Fatalf("expected duplicate vote to produce no notification")
	}
}

func TestStatsSnapshotIsCopy(t *testing.T) {
	ledger := NewVoteLedger(3)
	stats := NewStatsAggregator(0, 0)
	feed(t, ledger, stats, []entities.Vote{
		vote(0, 1, entities.ChoiceYes),
		vote(0, 2, entities.ChoiceNo),
		vote(2, 1, entities.ChoiceNo),
	})

	snapshot := stats.Snapshot()
	if snapshot.TotalVotes != 3 || snapshot.YesVotes != 1 || snapshot.NoVotes != 2 {
		t.Fatalf("unexpected totals: %+v", snapshot)
	}
	if snapshot.UniqueParticipants != 2 {
		t.Fatalf("expected 2 unique participants, got %d", snapshot.UniqueParticipants)
	}
	if snapshot.QuestionsAnswered != 2 {
		t.Fatalf("expected 2 answered questions, got %d", snapshot.QuestionsAnswered)
	}
	if snapshot.PerQuestion[0].Participants != 2 || snapshot.PerQuestion[0].Tally != (entities.VoteTally{Yes: 1, No: 1}) {
		t.Fatalf("unexpected question 0 stats: %+v", snapshot.PerQuestion[0])
	}

	snapshot.PerQuestion[0] = entities.QuestionStats{}
	delete(snapshot.PerQuestion, 2)
	again := stats.Snapshot()
	if again.PerQuestion[0].Participants != 2 || len(again.PerQuestion) != 2 {
		t.Fatalf("mutating a snapshot leaked into aggregator state")
	}
}

func TestStatsRebuildMatchesIncremental(t *testing.T) {
	ledger := NewVoteLedger(2)
	stats := NewStatsAggregator(0, 0)
	feed(t, ledger, stats, []entities.Vote{
		vote(0, 1, entities.ChoiceYes),
		vote(1, 1, entities.ChoiceYes),
		vote(1, 2, entities.ChoiceNo),
	})
	want := stats.Snapshot()

	rebuilt := NewStatsAggregator(0, 0)
	rebuilt.Rebuild(ledger.Votes())
	got := rebuilt.Snapshot()
	if got.TotalVotes != want.TotalVotes || got.UniqueParticipants != want.UniqueParticipants ||
		got.PerQuestion[1].Tally != want.PerQuestion[1].Tally {
		t.Fatalf("rebuild mismatch: got %+v want %+v", got, want)
	}

	rebuilt.Rebuild(nil)
	if empty := rebuilt.Snapshot(); empty.TotalVotes != 0 || len(empty.PerQuestion) != 0 {
		t.Fatalf("expected empty stats after rebuild from nothing, got %+v", empty)
	}
}

func TestStatsAggregatorHonorsConfiguredMinVotes(t *testing.T) {
	stats := NewStatsAggregator(0.25, 1)
	if stats.MinVotes() != 1 || stats.Threshold() != 0.25 {
		t.Fatalf("unexpected settings threshold=%v min=%d", stats.Threshold(), stats.MinVotes())
	}
	if n := stats.Observe(vote(0, 1, entities.ChoiceNo), entities.VoteTally{No: 1}); n != nil {
		t.Fatalf("expected no signal at the minimum vote count")
	}
	n := stats.Observe(vote(0, 2, entities.ChoiceNo), entities.VoteTally{No: 2})
	if n == nil || n.Choice != entities.ChoiceYes {
		t.Fatalf("expected yes minority once above the minimum, got %+v", n)
	}

	defaults := NewStatsAggregator(0, 0)
	if defaults.MinVotes() != DefaultMinorityMinVotes || defaults.Threshold() != DefaultMinorityThreshold {
		t.Fatalf("expected unset settings to use defaults")
	}
}
