package model

import "time"

const (
	NotifTypeAssignment = "assignment"
	NotifTypeReminder   = "reminder"
	NotifTypeCompleted  = "completed"
	NotifTypeSystem     = "system"
)

type Notification struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"user_id"`
	Title     string    `json:"title"`
	Body      string    `json:"body"`
	Type      string    `json:"type"`
	RefID     string    `json:"ref_id"`
	Read      bool      `json:"read"`
	CreatedAt time.Time `json:"created_at"`
}

// LeaderboardEntry summarizes one roommate's assignment record.
type LeaderboardEntry struct {
	Rank           int     `json:"rank"`
	UserID         int64   `json:"user_id"`
	Name           string  `json:"name"`
	Completed      int     `json:"completed"`
	Total          int     `json:"total"`
	CompletionRate float64 `json:"completion_rate"`
	Streak         int     `json:"streak"`
}
