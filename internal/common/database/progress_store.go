// internal/common/database/progress_store.go
package database

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"time"

	"study-assistant-workers/internal/models"
)

const progressSchema = `
CREATE TABLE IF NOT EXISTS subject_progress (
	user_id          TEXT        NOT NULL,
	subject          TEXT        NOT NULL,
	progress_percent INTEGER     NOT NULL CHECK (progress_percent BETWEEN 0 AND 100),
	last_updated_at  TIMESTAMPTZ,
	snapshot_id      UUID        NOT NULL,
	recorded_at      TIMESTAMPTZ NOT NULL,
	PRIMARY KEY (user_id, subject)
)`

const upsertProgressSQL = `
INSERT INTO subject_progress (user_id, subject, progress_percent, last_updated_at, snapshot_id, recorded_at)
VALUES ($1, $2, $3, $4, $5, $6)
ON CONFLICT (user_id, subject) DO UPDATE SET
	progress_percent = EXCLUDED.progress_percent,
	last_updated_at  = EXCLUDED.last_updated_at,
	snapshot_id      = EXCLUDED.snapshot_id,
	recorded_at      = EXCLUDED.recorded_at`

// ProgressSnapshot is one extracted progress mapping for a user.
type ProgressSnapshot struct {
	ID         string
	UserID     string
	Subjects   map[string]models.SubjectProgress
	RecordedAt time.Time
}

// ProgressStore keeps the latest percentage per (user, subject). Writing a
// snapshot overwrites every subject it names and leaves the others alone.
type ProgressStore struct {
	db *sql.DB
}

func NewProgressStore(db *sql.DB) *ProgressStore {
	return &ProgressStore{db: db}
}

func (s *ProgressStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, progressSchema); err != nil {
		return fmt.Errorf("create subject_progress: %w", err)
	}
	return nil
}

// SaveSnapshot upserts all subjects of snap in one transaction, in subject
// order, and returns the number of rows written.
func (s *ProgressStore) SaveSnapshot(ctx context.Context, snap ProgressSnapshot) (int, error) {
	subjects := make([]string, 0, len(snap.Subjects))
	for name := range snap.Subjects {
		subjects = append(subjects, name)
	}
	sort.Strings(subjects)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin: %w", err)
	}

	for _, name := range subjects {
		sp := snap.Subjects[name]
		var updated interface{}
		if sp.LastUpdatedAt != nil {
			updated = sp.LastUpdatedAt.UTC()
		}
		if _, err := tx.ExecContext(ctx, upsertProgressSQL,
			snap.UserID, name, sp.ProgressPercent, updated, snap.ID, snap.RecordedAt.UTC(),
		); err != nil {
			_ = tx.Rollback()
			return 0, fmt.Errorf("upsert %q: %w", name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	return len(subjects), nil
}
