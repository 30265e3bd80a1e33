package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"nodandknow/contexts/live-session/session-engine/domain/entities"
	domainerrors "nodandknow/contexts/live-session/session-engine/domain/errors"
	"nodandknow/contexts/live-session/session-engine/domain/services"
	"nodandknow/contexts/live-session/session-engine/ports"

	"github.com/google/uuid"
)

type voteKey struct {
	questionIndex int
	identity      entities.Identity
}

// Store is a process-local VoteStore. Writes for an already stored
// (question, identity) pair are ignored like the database unique index.
type Store struct {
	mu sync.RWMutex

	votes map[voteKey]entities.Vote
	order []voteKey
}

func NewStore(seed []entities.Vote) *Store {
	s := &Store{votes: make(map[voteKey]entities.Vote, len(seed))}
	for _, vote := range seed {
		s.insert(vote)
	}
	return s
}

func (s *Store) PersistVote(_ context.Context, vote entities.Vote) error {
	if !vote.Choice.Valid() {
		return domainerrors.ErrInvalidChoice
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.insert(vote)
	return nil
}

func (s *Store) LoadStats(ctx context.Context) (entities.SessionStats, error) {
	votes, err := s.ListVotes(ctx)
	if err != nil {
		return entities.SessionStats{}, err
	}
	return services.StatsFromVotes(votes), nil
}

func (s *Store) ExportAnonymized(ctx context.Context) (entities.AnonymizedExport, error) {
	votes, err := s.ListVotes(ctx)
	if err != nil {
		return entities.AnonymizedExport{}, err
	}
	return services.BuildAnonymizedExport(votes, s.Now()), nil
}

func (s *Store) ClearAll(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.votes = make(map[voteKey]entities.Vote)
	s.order = nil
	return nil
}

// ListVotes returns stored votes ordered by cast time.
func (s *Store) ListVotes(_ context.Context) ([]entities.Vote, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	items := make([]entities.Vote, 0, len(s.order))
	for _, key := range s.order {
		items = append(items, s.votes[key])
	}
	sortVotesByCast(items)
	return items, nil
}

func (s *Store) Now() time.Time {
	return time.Now().UTC()
}

func (s *Store) NewID(_ context.Context) (string, error) {
	return uuid.NewString(), nil
}

func (s *Store) insert(vote entities.Vote) {
	key := voteKey{questionIndex: vote.QuestionIndex, identity: vote.Identity}
	if _, exists := s.votes[key]; exists {
		return
	}
	if vote.VoteID == "" {
		vote.VoteID = uuid.NewString()
	}
	s.votes[key] = vote
	s.order = append(s.order, key)
}

func sortVotesByCast(items []entities.Vote) {
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].CastAt.Before(items[j].CastAt)
	})
}

var (
	_ ports.VoteStore   = (*Store)(nil)
	_ ports.IDGenerator = (*Store)(nil)
)
