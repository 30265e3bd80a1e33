package postgresadapter

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	application "nodandknow/contexts/live-session/session-engine/application"
	"nodandknow/contexts/live-session/session-engine/domain/entities"
	"nodandknow/contexts/live-session/session-engine/domain/services"
	"nodandknow/contexts/live-session/session-engine/ports"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Repository struct {
	db     *gorm.DB
	logger *slog.Logger
}

func NewRepository(db *gorm.DB, logger *slog.Logger) *Repository {
	if logger == nil {
		logger = slog.Default()
	}
	return &Repository{
		db:     db,
		logger: logger,
	}
}

// EnsureSchema creates the vote table and its (question, identity) unique
// index when missing.
func (r *Repository) EnsureSchema(ctx context.Context) error {
	if err := r.db.WithContext(ctx).AutoMigrate(&voteModel{}); err != nil {
		return r.logError("session_repo_migrate_failed", err)
	}
	return nil
}

// PersistVote inserts the vote once. A row for the same question and
// identity already present is left untouched.
func (r *Repository) PersistVote(ctx context.Context, vote entities.Vote) error {
	row := voteModelFromEntity(vote)
	create := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "question_index"}, {Name: "identity"}},
		DoNothing: true,
	}).Create(&row)
	if create.Error != nil {
		if isUniqueViolation(create.Error) {
			return nil
		}
		return r.logError("session_repo_persist_vote_failed", create.Error,
			"vote_id", row.ID,
			"question_index", vote.QuestionIndex,
		)
	}
	return nil
}

func (r *Repository) LoadStats(ctx context.Context) (entities.SessionStats, error) {
	votes, err := r.ListVotes(ctx)
	if err != nil {
		return entities.SessionStats{}, err
	}
	return services.StatsFromVotes(votes), nil
}

func (r *Repository) ExportAnonymized(ctx context.Context) (entities.AnonymizedExport, error) {
	votes, err := r.ListVotes(ctx)
	if err != nil {
		return entities.AnonymizedExport{}, err
	}
	return services.BuildAnonymizedExport(votes, r.Now()), nil
}

func (r *Repository) ClearAll(ctx context.Context) error {
	err := r.db.WithContext(ctx).
		Session(&gorm.Session{AllowGlobalUpdate: true}).
		Delete(&voteModel{}).
		Error
	if err != nil {
		if isUndefinedTable(err) {
			return nil
		}
		return r.logError("session_repo_clear_failed", err)
	}
	return nil
}

// ListVotes returns every stored vote by cast time. A missing table reads as
// an empty session.
func (r *Repository) ListVotes(ctx context.Context) ([]entities.Vote, error) {
	var rows []voteModel
	if err := r.db.WithContext(ctx).
		Order("cast_at ASC").
		Order("id ASC").
		Find(&rows).Error; err != nil {
		if isUndefinedTable(err) {
			return []entities.Vote{}, nil
		}
		return nil, r.logError("session_repo_list_votes_failed", err)
	}
	return toVoteEntities(rows), nil
}

func (r *Repository) Now() time.Time {
	return time.Now().UTC()
}

func (r *Repository) NewID(_ context.Context) (string, error) {
	return uuid.NewString(), nil
}

func (r *Repository) logError(event string, err error, attrs ...any) error {
	fields := make([]any, 0, len(attrs)+8)
	fields = append(fields,
		"event", event,
		"module", application.ModuleName,
		"layer", "adapter",
		"error", err.Error(),
	)
	fields = append(fields, attrs...)
	r.logger.Error("session repository operation failed", fields...)
	return err
}

type voteModel struct {
	ID            string    `gorm:"column:id;primaryKey"`
	QuestionIndex int       `gorm:"column:question_index;not null;uniqueIndex:idx_session_votes_question_identity"`
	Identity      int64     `gorm:"column:identity;not null;uniqueIndex:idx_session_votes_question_identity"`
	Choice        string    `gorm:"column:choice;not null"`
	Synthetic     bool      `gorm:"column:synthetic;not null;default:false"`
	CastAt        time.Time `gorm:"column:cast_at;not null;index"`
}

func (voteModel) TableName() string {
	return "session_votes"
}

func voteModelFromEntity(vote entities.Vote) voteModel {
	row := voteModel{
		ID:            strings.TrimSpace(vote.VoteID),
		QuestionIndex: vote.QuestionIndex,
		Identity:      int64(vote.Identity),
		Choice:        string(vote.Choice),
		Synthetic:     vote.Identity.IsSynthetic(),
		CastAt:        vote.CastAt.UTC(),
	}
	if row.ID == "" {
		row.ID = uuid.NewString()
	}
	if row.CastAt.IsZero() {
		row.CastAt = time.Now().UTC()
	}
	return row
}

func (m voteModel) toEntity() entities.Vote {
	return entities.Vote{
		VoteID:        m.ID,
		QuestionIndex: m.QuestionIndex,
		Identity:      entities.Identity(m.Identity),
		Choice:        entities.Choice(m.Choice),
		CastAt:        m.CastAt.UTC(),
	}
}

func toVoteEntities(rows []voteModel) []entities.Vote {
	items := make([]entities.Vote, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toEntity())
	}
	return items
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

func isUndefinedTable(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "42P01"
}

var _ ports.VoteStore = (*Repository)(nil)
var _ ports.IDGenerator = (*Repository)(nil)
