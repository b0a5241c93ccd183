package store

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/dukerupert/choreshare/internal/model"
	"github.com/dukerupert/choreshare/internal/week"
)

type ChoreStore struct {
	db *sql.DB
}

func NewChoreStore(db *sql.DB) *ChoreStore {
	return &ChoreStore{db: db}
}

// ChoreInput carries the writable fields of a chore.
type ChoreInput struct {
	Name             string
	Category         model.ChoreCategory
	Description      string
	EstimatedMinutes int
	Frequency        model.Frequency
	RepeatDays       []int
	StartDate        time.Time
	EndDate          *time.Time
	Priority         model.Priority
	AssignedTo       *int64
}

func scanChore(s scanner) (*model.Chore, error) {
	var c model.Chore
	var repeatDays string
	var endDate sql.NullTime
	var assignedTo sql.NullInt64

	err := s.Scan(
		&c.ID, &c.HouseID, &c.Name, &c.Category, &c.Description, &c.EstimatedMinutes,
		&c.Frequency, &repeatDays, &c.StartDate, &endDate, &c.Priority, &assignedTo,
		&c.Deleted, &c.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	c.RepeatDays, err = parseRepeatDays(repeatDays)
	if err != nil {
		return nil, err
	}
	if endDate.Valid {
		c.EndDate = &endDate.Time
	}
	if assignedTo.Valid {
		c.AssignedTo = &assignedTo.Int64
	}
	return &c, nil
}

const choreCols = `id, house_id, name, category, description, estimated_minutes, frequency, repeat_days, start_date, end_date, priority, assigned_to, deleted, created_at`

func formatRepeatDays(days []int) string {
	parts := make([]string, len(days))
	for i, d := range days {
		parts[i] = strconv.Itoa(d)
	}
	return strings.Join(parts, ",")
}

func parseRepeatDays(s string) ([]int, error) {
	if s == "" {
		return nil, nil
	}
	parts := strings.Split(s, ",")
	days := make([]int, 0, len(parts))
	for _, p := range parts {
		d, err := strconv.Atoi(p)
		if err != nil {
			return nil, fmt.Errorf("parse repeat day %q: %w", p, err)
		}
		days = append(days, d)
	}
	return days, nil
}

func (s *ChoreStore) Create(ctx context.Context, houseID int64, in ChoreInput) (*model.Chore, error) {
	result, err := s.db.ExecContext(ctx,
		`INSERT INTO chores (house_id, name, category, description, estimated_minutes, frequency, repeat_days, start_date, end_date, priority, assigned_to)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		houseID, in.Name, in.Category, in.Description, in.EstimatedMinutes, in.Frequency,
		formatRepeatDays(in.RepeatDays), in.StartDate.UTC(), nullTimePtr(in.EndDate), in.Priority,
		nullInt64Ptr(in.AssignedTo),
	)
	if err != nil {
		return nil, fmt.Errorf("insert chore: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(ctx, id)
}

func (s *ChoreStore) GetByID(ctx context.Context, id int64) (*model.Chore, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+choreCols+` FROM chores WHERE id = ?`, id)
	c, err := scanChore(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get chore: %w", err)
	}
	return c, nil
}

func (s *ChoreStore) listWhere(ctx context.Context, where string, args ...any) ([]model.Chore, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+choreCols+` FROM chores WHERE `+where+` ORDER BY id ASC`, args...)
	if err != nil {
		return nil, fmt.Errorf("list chores: %w", err)
	}
	defer rows.Close()

	var chores []model.Chore
	for rows.Next() {
		c, err := scanChore(rows)
		if err != nil {
			return nil, fmt.Errorf("scan chore: %w", err)
		}
		chores = append(chores, *c)
	}
	return chores, rows.Err()
}

// ListByHouse returns the house's chores that have not been deleted.
func (s *ChoreStore) ListByHouse(ctx context.Context, houseID int64) ([]model.Chore, error) {
	return s.listWhere(ctx, `house_id = ? AND deleted = 0`, houseID)
}

// ListActive returns the chores that should be rotated during w: not
// deleted, started on or before the week's end and not ended before its
// start. Order is creation order.
func (s *ChoreStore) ListActive(ctx context.Context, houseID int64, w week.Interval) ([]model.Chore, error) {
	w = w.UTC()
	return s.listWhere(ctx,
		`house_id = ? AND deleted = 0 AND start_date <= ? AND (end_date IS NULL OR end_date >= ?)`,
		houseID, w.End, w.Start,
	)
}

// SoftDelete flags the chore as deleted. Past assignments keep their
// denormalized chore name.
func (s *ChoreStore) SoftDelete(ctx context.Context, id int64) error {
	_, err := s.db.ExecContext(ctx, `UPDATE chores SET deleted = 1 WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete chore: %w", err)
	}
	return nil
}
