package services

import (
	"fmt"

	"nodandknow/contexts/live-session/session-engine/domain/entities"
)

const (
	DefaultMinorityThreshold = 0.25
	DefaultMinorityMinVotes  = 3
)

// StatsAggregator keeps running session counters and evaluates the minority
// opinion signal on every admitted vote.
type StatsAggregator struct {
	threshold float64
	minVotes  int

	stats        entities.SessionStats
	participants map[entities.Identity]struct{}
}

// NewStatsAggregator treats zero or negative arguments as unset and uses
// the defaults.
func NewStatsAggregator(threshold float64, minVotes int) *StatsAggregator {
	if threshold <= 0 {
		threshold = DefaultMinorityThreshold
	}
	if minVotes <= 0 {
		minVotes = DefaultMinorityMinVotes
	}
	a := &StatsAggregator{
		threshold: threshold,
		minVotes:  minVotes,
	}
	a.Reset()
	return a
}

// Observe folds an admitted vote into the counters. tally is the question
// tally after admission. A minority notification is returned whenever the
// tally has more than minVotes votes and either share is below threshold.
func (a *StatsAggregator) Observe(vote entities.Vote, tally entities.VoteTally) *entities.Notification {
	a.stats.TotalVotes++
	switch vote.Choice {
	case entities.ChoiceYes:
		a.stats.YesVotes++
	case entities.ChoiceNo:
		a.stats.NoVotes++
	}
	if _, ok := a.participants[vote.Identity]; !ok {
		a.participants[vote.Identity] = struct{}{}
		a.stats.UniqueParticipants = len(a.participants)
	}

	question, ok := a.stats.PerQuestion[vote.QuestionIndex]
	if !ok {
		question = entities.QuestionStats{
			QuestionIndex: vote.QuestionIndex,
			FirstVoteAt:   vote.CastAt,
		}
		a.stats.QuestionsAnswered++
	}
	question.Tally = tally
	question.Participants++
	question.LastVoteAt = vote.CastAt
	a.stats.PerQuestion[vote.QuestionIndex] = question

	return a.evaluateMinority(vote, tally)
}

func (a *StatsAggregator) evaluateMinority(vote entities.Vote, tally entities.VoteTally) *entities.Notification {
	if tally.Total() <= a.minVotes {
		return nil
	}
	yesShare := tally.Share(entities.ChoiceYes)
	noShare := tally.Share(entities.ChoiceNo)
	if yesShare >= a.threshold && noShare >= a.threshold {
		return nil
	}
	minority := entities.ChoiceYes
	share := yesShare
	if noShare < yesShare {
		minority = entities.ChoiceNo
		share = noShare
	}
	return &entities.Notification{
		Kind:          entities.NotificationMinority,
		QuestionIndex: vote.QuestionIndex,
		Identity:      vote.Identity,
		Choice:        minority,
		Tally:         tally,
		Message:       fmt.Sprintf("Minority viewpoint detected: %q holds %.0f%% of votes", minority, share*100),
		OccurredAt:    vote.CastAt,
	}
}

// Snapshot returns a copy of the counters.
func (a *StatsAggregator) Snapshot() entities.SessionStats {
	return a.stats.Clone()
}

func (a *StatsAggregator) Reset() {
	a.stats = entities.SessionStats{PerQuestion: make(map[int]entities.QuestionStats)}
	a.participants = make(map[entities.Identity]struct{})
}

// Rebuild recomputes the counters from admitted votes in order. Minority
// signals are not re-emitted.
func (a *StatsAggregator) Rebuild(votes []entities.Vote) {
	a.Reset()
	tallies := make(map[int]entities.VoteTally)
	for _, vote := range votes {
		tally := tallies[vote.QuestionIndex].With(vote.Choice)
		tallies[vote.QuestionIndex] = tally
		a.Observe(vote, tally)
	}
}

func (a *StatsAggregator) Threshold() float64 {
	return a.threshold
}

func (a *StatsAggregator) MinVotes() int {
	return a.minVotes
}
