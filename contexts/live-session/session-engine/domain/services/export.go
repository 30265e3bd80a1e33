package services

import (
	"sort"
	"time"

	"nodandknow/contexts/live-session/session-engine/domain/entities"
)

// BuildAnonymizedExport turns admitted votes into the export record. Raw
// identities are dropped; only the synthetic flag survives.
func BuildAnonymizedExport(votes []entities.Vote, exportedAt time.Time) entities.AnonymizedExport {
	out := entities.AnonymizedExport{
		ExportedAt: exportedAt.UTC(),
		Questions:  []entities.QuestionExport{},
		Votes:      make([]entities.AnonymizedVote, 0, len(votes)),
	}
	participants := make(map[entities.Identity]struct{})
	byQuestion := make(map[int]*entities.QuestionExport)
	for _, vote := range votes {
		participants[vote.Identity] = struct{}{}
		question, ok := byQuestion[vote.QuestionIndex]
		if !ok {
			question = &entities.QuestionExport{QuestionIndex: vote.QuestionIndex}
			byQuestion[vote.QuestionIndex] = question
		}
		switch vote.Choice {
		case entities.ChoiceYes:
			question.Yes++
		case entities.ChoiceNo:
			question.No++
		}
		question.Participants++
		out.Votes = append(out.Votes, entities.AnonymizedVote{
			QuestionIndex: vote.QuestionIndex,
			Choice:        vote.Choice,
			CastAt:        vote.CastAt.UTC(),
			Synthetic:     vote.Identity.IsSynthetic(),
		})
	}
	for _, question := range byQuestion {
		out.Questions = append(out.Questions, *question)
	}
	sort.Slice(out.Questions, func(i, j int) bool {
		return out.Questions[i].QuestionIndex < out.Questions[j].QuestionIndex
	})
	out.TotalVotes = len(votes)
	out.UniqueParticipants = len(participants)
	return out
}

// StatsFromVotes recomputes session counters from stored votes.
func StatsFromVotes(votes []entities.Vote) entities.SessionStats {
	aggregator := NewStatsAggregator(DefaultMinorityThreshold, DefaultMinorityMinVotes)
	aggregator.Rebuild(votes)
	return aggregator.Snapshot()
}
