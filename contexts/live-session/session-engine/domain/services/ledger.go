package services

import (
	"nodandknow/contexts/live-session/session-engine/domain/entities"
	domainerrors "nodandknow/contexts/live-session/session-engine/domain/errors"
)

// VoteLedger records votes per question and enforces at most one vote per
// identity per question. It is the only place a Vote is admitted.
//
// VoteLedger is not safe for concurrent use; the session orchestrator owns it
// from a single goroutine.
type VoteLedger struct {
	questionCount int
	voters        map[int]map[entities.Identity]struct{}
	tallies       map[int]entities.VoteTally
	votes         []entities.Vote
}

func NewVoteLedger(questionCount int) *VoteLedger {
	return &VoteLedger{
		questionCount: questionCount,
		voters:        make(map[int]map[entities.Identity]struct{}),
		tallies:       make(map[int]entities.VoteTally),
	}
}

// AddVote admits vote if its identity has not voted on the question yet. A
// duplicate is not an error: the current tally is returned with admitted set
// to false.
func (l *VoteLedger) AddVote(vote entities.Vote) (entities.VoteTally, bool, error) {
	if vote.QuestionIndex < 0 || vote.QuestionIndex >= l.questionCount {
		return entities.VoteTally{}, false, domainerrors.ErrInvalidQuestion
	}
	if !vote.Choice.Valid() {
		return l.tallies[vote.QuestionIndex], false, domainerrors.ErrInvalidChoice
	}

	voters, ok := l.voters[vote.QuestionIndex]
	if !ok {
		voters = make(map[entities.Identity]struct{})
		l.voters[vote.QuestionIndex] = voters
	}
	if _, seen := voters[vote.Identity]; seen {
		return l.tallies[vote.QuestionIndex], false, nil
	}

	voters[vote.Identity] = struct{}{}
	tally := l.tallies[vote.QuestionIndex].With(vote.Choice)
	l.tallies[vote.QuestionIndex] = tally
	l.votes = append(l.votes, vote)
	return tally, true, nil
}

func (l *VoteLedger) TallyFor(questionIndex int) entities.VoteTally {
	return l.tallies[questionIndex]
}

func (l *VoteLedger) HasVoted(questionIndex int, identity entities.Identity) bool {
	_, ok := l.voters[questionIndex][identity]
	return ok
}

// VoterCount returns how many distinct identities voted on the question.
func (l *VoteLedger) VoterCount(questionIndex int) int {
	return len(l.voters[questionIndex])
}

// Votes returns admitted votes in admission order.
func (l *VoteLedger) Votes() []entities.Vote {
	return append([]entities.Vote(nil), l.votes...)
}

func (l *VoteLedger) QuestionCount() int {
	return l.questionCount
}

// Clear drops every vote and identity set. Only a session reset calls it.
func (l *VoteLedger) Clear() {
	l.voters = make(map[int]map[entities.Identity]struct{})
	l.tallies = make(map[int]entities.VoteTally)
	l.votes = nil
}
