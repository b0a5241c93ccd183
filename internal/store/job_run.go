package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

type JobRunStore struct {
	db *sql.DB
}

func NewJobRunStore(db *sql.DB) *JobRunStore {
	return &JobRunStore{db: db}
}

// Claim records that job ran for the week starting at weekStart. It returns
// false if the job was already recorded for that week.
func (s *JobRunStore) Claim(ctx context.Context, job string, weekStart time.Time) (bool, error) {
	result, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO job_runs (job, week_start) VALUES (?, ?)`,
		job, weekStart.UTC(),
	)
	if err != nil {
		return false, fmt.Errorf("claim job run: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return n > 0, nil
}

// Release removes a claim so the job can run again for that week.
func (s *JobRunStore) Release(ctx context.Context, job string, weekStart time.Time) error {
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM job_runs WHERE job = ? AND week_start = ?`, job, weekStart.UTC(),
	)
	if err != nil {
		return fmt.Errorf("release job run: %w", err)
	}
	return nil
}
