package entities

import "time"

type Vote struct {
	VoteID        string
	QuestionIndex int
	Identity      Identity
	Choice        Choice
	CastAt        time.Time
}

type VoteTally struct {
	Yes int
	No  int
}

func (t VoteTally) Total() int {
	return t.Yes + t.No
}

// Share returns the fraction of votes cast for choice, or zero when the tally
// is empty.
func (t VoteTally) Share(choice Choice) float64 {
	total := t.Total()
	if total == 0 {
		return 0
	}
	switch choice {
	case ChoiceYes:
		return float64(t.Yes) / float64(total)
	case ChoiceNo:
		return float64(t.No) / float64(total)
	default:
		return 0
	}
}

func (t VoteTally) With(choice Choice) VoteTally {
	switch choice {
	case ChoiceYes:
		t.Yes++
	case ChoiceNo:
		t.No++
	}
	return t
}

type QuestionStats struct {
	QuestionIndex int
	Tally         VoteTally
	Participants  int
	FirstVoteAt   time.Time
	LastVoteAt    time.Time
}

type SessionStats struct {
	TotalVotes         int
	YesVotes           int
	NoVotes            int
	UniqueParticipants int
	QuestionsAnswered  int
	PerQuestion        map[int]QuestionStats
}

// Clone returns a deep copy so callers never share the aggregator's maps.
func (s SessionStats) Clone() SessionStats {
	out := s
	out.PerQuestion = make(map[int]QuestionStats, len(s.PerQuestion))
	for index, item := range s.PerQuestion {
		out.PerQuestion[index] = item
	}
	return out
}

// AnonymizedVote is an exported vote without the raw identity token.
type AnonymizedVote struct {
	QuestionIndex int       `json:"question_index"`
	Choice        Choice    `json:"choice"`
	CastAt        time.Time `json:"cast_at"`
	Synthetic     bool      `json:"synthetic"`
}

type QuestionExport struct {
	QuestionIndex int    `json:"question_index"`
	Question      string `json:"question,omitempty"`
	Yes           int    `json:"yes"`
	No            int    `json:"no"`
	Participants  int    `json:"participants"`
}

type AnonymizedExport struct {
	ExportedAt         time.Time        `json:"exported_at"`
	TotalVotes         int              `json:"total_votes"`
	UniqueParticipants int              `json:"unique_participants"`
	Questions          []QuestionExport `json:"questions"`
	Votes              []AnonymizedVote `json:"votes"`
}

// SuggestedFileName returns the dated export file name used by front ends.
func (e AnonymizedExport) SuggestedFileName() string {
	return "securematch_data_" + e.ExportedAt.UTC().Format("2006-01-02") + ".json"
}
