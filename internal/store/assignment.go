package store

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"time"

	sq "github.com/Masterminds/squirrel"

	"github.com/dukerupert/choreshare/internal/model"
	"github.com/dukerupert/choreshare/internal/week"
)

type AssignmentStore struct {
	db *sql.DB
}

func NewAssignmentStore(db *sql.DB) *AssignmentStore {
	return &AssignmentStore{db: db}
}

// AssignmentFilter selects assignments by equality and range predicates.
// Zero values leave a predicate out.
type AssignmentFilter struct {
	HouseID int64
	UserID  int64
	Status  model.AssignmentStatus

	// Covering matches assignments whose stored interval fully brackets it.
	Covering *week.Interval

	// StartFrom and StartBefore bound week_start to [StartFrom, StartBefore).
	StartFrom   time.Time
	StartBefore time.Time

	// EndFrom and EndUntil bound week_end to [EndFrom, EndUntil].
	EndFrom  time.Time
	EndUntil time.Time
}

func (f AssignmentFilter) where() sq.And {
	cond := sq.And{}
	if f.HouseID != 0 {
		cond = append(cond, sq.Eq{"house_id": f.HouseID})
	}
	if f.UserID != 0 {
		cond = append(cond, sq.Eq{"user_id": f.UserID})
	}
	if f.Status != "" {
		cond = append(cond, sq.Eq{"status": string(f.Status)})
	}
	if f.Covering != nil {
		c := f.Covering.UTC()
		cond = append(cond, sq.LtOrEq{"week_start": c.Start}, sq.GtOrEq{"week_end": c.End})
	}
	if !f.StartFrom.IsZero() {
		cond = append(cond, sq.GtOrEq{"week_start": f.StartFrom.UTC()})
	}
	if !f.StartBefore.IsZero() {
		cond = append(cond, sq.Lt{"week_start": f.StartBefore.UTC()})
	}
	if !f.EndFrom.IsZero() {
		cond = append(cond, sq.GtOrEq{"week_end": f.EndFrom.UTC()})
	}
	if !f.EndUntil.IsZero() {
		cond = append(cond, sq.LtOrEq{"week_end": f.EndUntil.UTC()})
	}
	return cond
}

func scanAssignment(s scanner) (*model.Assignment, error) {
	var a model.Assignment
	var completedAt sql.NullTime

	err := s.Scan(
		&a.ID, &a.ChoreID, &a.ChoreName, &a.UserID, &a.UserName, &a.HouseID,
		&a.WeekStart, &a.WeekEnd, &a.Status, &completedAt, &a.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	if completedAt.Valid {
		a.CompletedAt = &completedAt.Time
	}
	return &a, nil
}

const assignmentCols = `id, chore_id, chore_name, user_id, user_name, house_id, week_start, week_end, status, completed_at, created_at`

func (s *AssignmentStore) query(ctx context.Context, b sq.SelectBuilder) ([]model.Assignment, error) {
	query, args, err := b.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build assignment query: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list assignments: %w", err)
	}
	defer rows.Close()

	var assignments []model.Assignment
	for rows.Next() {
		a, err := scanAssignment(rows)
		if err != nil {
			return nil, fmt.Errorf("scan assignment: %w", err)
		}
		assignments = append(assignments, *a)
	}
	return assignments, rows.Err()
}

// Find returns the assignments matching f in id order.
func (s *AssignmentStore) Find(ctx context.Context, f AssignmentFilter) ([]model.Assignment, error) {
	return s.query(ctx, sq.Select(assignmentCols).From("assignments").Where(f.where()).OrderBy("id ASC"))
}

// ListCompleted returns a house's completed assignments, most recent first.
func (s *AssignmentStore) ListCompleted(ctx context.Context, houseID int64, limit int) ([]model.Assignment, error) {
	b := sq.Select(assignmentCols).From("assignments").
		Where(sq.Eq{"house_id": houseID, "status": string(model.AssignmentCompleted)}).
		OrderBy("completed_at DESC", "id DESC")
	if limit > 0 {
		b = b.Limit(uint64(limit))
	}
	return s.query(ctx, b)
}

func (s *AssignmentStore) GetByID(ctx context.Context, id int64) (*model.Assignment, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+assignmentCols+` FROM assignments WHERE id = ?`, id)
	a, err := scanAssignment(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get assignment: %w", err)
	}
	return a, nil
}

// CreateWeek persists a house's assignment set for w in one transaction.
// The (house, week) marker row is written first; if it already exists the
// transaction is abandoned and ErrWeekAlreadyGenerated is returned.
func (s *AssignmentStore) CreateWeek(ctx context.Context, houseID int64, w week.Interval, assignments []model.Assignment) ([]model.Assignment, error) {
	w = w.UTC()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx,
		`INSERT OR IGNORE INTO generated_weeks (house_id, week_start) VALUES (?, ?)`,
		houseID, w.Start,
	)
	if err != nil {
		return nil, fmt.Errorf("insert week marker: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return nil, ErrWeekAlreadyGenerated
	}

	created := make([]model.Assignment, 0, len(assignments))
	for _, a := range assignments {
		a.HouseID = houseID
		a.WeekStart = w.Start
		a.WeekEnd = w.End
		if a.Status == "" {
			a.Status = model.AssignmentPending
		}
		a.CreatedAt = a.CreatedAt.UTC()

		res, err := tx.ExecContext(ctx,
			`INSERT INTO assignments (chore_id, chore_name, user_id, user_name, house_id, week_start, week_end, status, created_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			a.ChoreID, a.ChoreName, a.UserID, a.UserName, a.HouseID, a.WeekStart, a.WeekEnd, a.Status, a.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("insert assignment for chore %d: %w", a.ChoreID, err)
		}
		if a.ID, err = res.LastInsertId(); err != nil {
			return nil, fmt.Errorf("last insert id: %w", err)
		}
		created = append(created, a)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return created, nil
}

// Complete marks a pending assignment completed by its assignee and credits
// the user's lifetime count. Returns nil, nil when the assignment does not
// exist.
func (s *AssignmentStore) Complete(ctx context.Context, id, userID int64, at time.Time) (*model.Assignment, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	row := tx.QueryRowContext(ctx, `SELECT `+assignmentCols+` FROM assignments WHERE id = ?`, id)
	a, err := scanAssignment(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get assignment: %w", err)
	}
	if a.UserID != userID {
		return nil, ErrNotAssignee
	}
	if a.Status != model.AssignmentPending {
		return nil, ErrNotPending
	}

	at = at.UTC()
	if _, err := tx.ExecContext(ctx,
		`UPDATE assignments SET status = ?, completed_at = ? WHERE id = ?`,
		model.AssignmentCompleted, at, id,
	); err != nil {
		return nil, fmt.Errorf("complete assignment: %w", err)
	}
	if err := recordCompletion(ctx, tx, userID, at); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}

	a.Status = model.AssignmentCompleted
	a.CompletedAt = &at
	return a, nil
}

// MarkMissed flags every pending assignment whose week ended before cutoff.
func (s *AssignmentStore) MarkMissed(ctx context.Context, cutoff time.Time) (int64, error) {
	query, args, err := sq.Update("assignments").
		Set("status", string(model.AssignmentMissed)).
		Where(sq.Eq{"status": string(model.AssignmentPending)}).
		Where(sq.Lt{"week_end": cutoff.UTC()}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("build missed update: %w", err)
	}

	result, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("mark missed: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return n, nil
}

// Leaderboard ranks the current members of a house by completed
// assignments, then streak, then name.
func (s *AssignmentStore) Leaderboard(ctx context.Context, houseID int64) ([]model.LeaderboardEntry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT u.id, u.name, u.streak,
		        COUNT(a.id),
		        COALESCE(SUM(CASE WHEN a.status = 'completed' THEN 1 ELSE 0 END), 0)
		 FROM users u
		 LEFT JOIN assignments a ON a.user_id = u.id AND a.house_id = u.house_id
		 WHERE u.house_id = ?
		 GROUP BY u.id, u.name, u.streak`,
		houseID,
	)
	if err != nil {
		return nil, fmt.Errorf("leaderboard: %w", err)
	}
	defer rows.Close()

	var entries []model.LeaderboardEntry
	for rows.Next() {
		var e model.LeaderboardEntry
		if err := rows.Scan(&e.UserID, &e.Name, &e.Streak, &e.Total, &e.Completed); err != nil {
			return nil, fmt.Errorf("scan leaderboard entry: %w", err)
		}
		if e.Total > 0 {
			e.CompletionRate = float64(e.Completed) / float64(e.Total)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].Completed != entries[j].Completed {
			return entries[i].Completed > entries[j].Completed
		}
		if entries[i].Streak != entries[j].Streak {
			return entries[i].Streak > entries[j].Streak
		}
		return entries[i].Name < entries[j].Name
	})
	for i := range entries {
		entries[i].Rank = i + 1
	}
	return entries, nil
}
