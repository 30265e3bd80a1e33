// Package sqlite provides a SQLite-backed session vote store.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"nodandknow/contexts/live-session/session-engine/adapters/sqlite/migrations"
	"nodandknow/contexts/live-session/session-engine/domain/entities"
	domainerrors "nodandknow/contexts/live-session/session-engine/domain/errors"
	"nodandknow/contexts/live-session/session-engine/domain/services"
	"nodandknow/contexts/live-session/session-engine/ports"

	"github.com/google/uuid"
	msqlite "modernc.org/sqlite"
	sqlite3lib "modernc.org/sqlite/lib"
)

// Store persists admitted votes in SQLite.
type Store struct {
	sqlDB *sql.DB
}

func toMillis(value time.Time) int64 {
	return value.UTC().UnixMilli()
}

func fromMillis(value int64) time.Time {
	return time.UnixMilli(value).UTC()
}

// Open opens a SQLite vote store and applies embedded migrations.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	cleanPath := filepath.Clean(path)
	dsn := cleanPath + "?_journal_mode=WAL&_foreign_keys=ON&_busy_timeout=5000&_synchronous=NORMAL"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if err := applyMigrations(sqlDB, migrations.FS); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return &Store{sqlDB: sqlDB}, nil
}

// Close closes the SQLite handle.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

// PersistVote inserts one vote. A stored vote for the same question and
// identity wins; the new one is ignored.
func (s *Store) PersistVote(ctx context.Context, vote entities.Vote) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return domainerrors.ErrStoreUnavailable
	}
	if !vote.Choice.Valid() {
		return domainerrors.ErrInvalidChoice
	}
	voteID := strings.TrimSpace(vote.VoteID)
	if voteID == "" {
		voteID = uuid.NewString()
	}
	castAt := vote.CastAt.UTC()
	if castAt.IsZero() {
		castAt = time.Now().UTC()
	}
	synthetic := 0
	if vote.Identity.IsSynthetic() {
		synthetic = 1
	}

	_, err := s.sqlDB.ExecContext(
		ctx,
		`INSERT INTO session_votes (
		   id,
		   question_index,
		   identity,
		   choice,
		   synthetic,
		   cast_at
		 ) VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT (question_index, identity) DO NOTHING`,
		voteID,
		vote.QuestionIndex,
		int64(vote.Identity),
		string(vote.Choice),
		synthetic,
		toMillis(castAt),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return nil
		}
		return fmt.Errorf("persist vote: %w", err)
	}
	return nil
}

// ListVotes returns stored votes ordered by cast time.
func (s *Store) ListVotes(ctx context.Context) ([]entities.Vote, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s == nil || s.sqlDB == nil {
		return nil, domainerrors.ErrStoreUnavailable
	}
	rows, err := s.sqlDB.QueryContext(
		ctx,
		`SELECT id, question_index, identity, choice, cast_at
		   FROM session_votes
		  ORDER BY cast_at ASC, rowid ASC`,
	)
	if err != nil {
		return nil, fmt.Errorf("list votes: %w", err)
	}
	defer rows.Close()

	votes := make([]entities.Vote, 0)
	for rows.Next() {
		var (
			vote     entities.Vote
			identity int64
			choice   string
			castAt   int64
		)
		if err := rows.Scan(&vote.VoteID, &vote.QuestionIndex, &identity, &choice, &castAt); err != nil {
			return nil, fmt.Errorf("scan vote: %w", err)
		}
		vote.Identity = entities.Identity(identity)
		vote.Choice = entities.Choice(choice)
		vote.CastAt = fromMillis(castAt)
		votes = append(votes, vote)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate votes: %w", err)
	}
	return votes, nil
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
	return services.BuildAnonymizedExport(votes, time.Now().UTC()), nil
}

// ClearAll deletes every stored vote.
func (s *Store) ClearAll(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return domainerrors.ErrStoreUnavailable
	}
	if _, err := s.sqlDB.ExecContext(ctx, `DELETE FROM session_votes`); err != nil {
		return fmt.Errorf("clear votes: %w", err)
	}
	return nil
}

// applyMigrations runs every embedded .sql file in name order. Statements
// are idempotent so reopening an existing database is safe.
func applyMigrations(sqlDB *sql.DB, migrationFS fs.FS) error {
	names, err := fs.Glob(migrationFS, "*.sql")
	if err != nil {
		return fmt.Errorf("list migrations: %w", err)
	}
	sort.Strings(names)
	for _, name := range names {
		content, err := fs.ReadFile(migrationFS, name)
		if err != nil {
			return fmt.Errorf("read migration %s: %w", name, err)
		}
		for _, statement := range strings.Split(string(content), ";") {
			statement = strings.TrimSpace(statement)
			if statement == "" {
				continue
			}
			if _, err := sqlDB.Exec(statement); err != nil {
				return fmt.Errorf("exec migration %s: %w", name, err)
			}
		}
	}
	return nil
}

func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	var sqliteErr *msqlite.Error
	if errors.As(err, &sqliteErr) {
		switch sqliteErr.Code() {
		case sqlite3lib.SQLITE_CONSTRAINT_PRIMARYKEY, sqlite3lib.SQLITE_CONSTRAINT_UNIQUE:
			return true
		}
	}
	return strings.Contains(strings.ToLower(err.Error()), "unique constraint failed")
}

var _ ports.VoteStore = (*Store)(nil)
