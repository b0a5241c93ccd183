package model

import "time"

type AssignmentStatus string

const (
	AssignmentPending   AssignmentStatus = "pending"
	AssignmentCompleted AssignmentStatus = "completed"
	AssignmentMissed    AssignmentStatus = "missed"
)

type Assignment struct {
	ID          int64            `json:"id"`
	ChoreID     int64            `json:"chore_id"`
	ChoreName   string           `json:"chore_name"`
	UserID      int64            `json:"user_id"`
	UserName    string           `json:"user_name"`
	HouseID     int64            `json:"house_id"`
	WeekStart   time.Time        `json:"week_start"`
	WeekEnd     time.Time        `json:"week_end"`
	Status      AssignmentStatus `json:"status"`
	CompletedAt *time.Time       `json:"completed_at"`
	CreatedAt   time.Time        `json:"created_at"`
}
