// Package chore derives calendar views of a week's assignments from each
// chore's frequency.
package chore

import (
	"slices"
	"time"

	"github.com/dukerupert/choreshare/internal/model"
	"github.com/dukerupert/choreshare/internal/week"
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusCompleted Status = "completed"
	StatusMissed    Status = "missed"
	StatusOverdue   Status = "overdue"
)

// AssignmentWithDue is an assignment annotated with the days its chore is
// due within the assignment's week.
type AssignmentWithDue struct {
	model.Assignment
	Category model.ChoreCategory `json:"category"`
	Priority model.Priority      `json:"priority"`
	DueDays  []time.Time         `json:"due_days"`
	Display  Status              `json:"display_status"`
}

// DueDays returns the local midnights in w on which c is due. Days before
// the chore's start date or after its end date are excluded. When no day
// qualifies the chore is due on the last day of the week, since every
// assignment must be done by then.
func DueDays(c model.Chore, w week.Interval) []time.Time {
	loc := w.Start.Location()
	first := startOfDay(c.StartDate.In(loc))

	var due []time.Time
	for _, day := range w.Days() {
		if day.Before(first) {
			continue
		}
		if c.EndDate != nil && day.After(*c.EndDate) {
			continue
		}
		if isDue(c, first, day) {
			due = append(due, day)
		}
	}

	if len(due) == 0 {
		days := w.Days()
		return days[len(days)-1:]
	}
	return due
}

func isDue(c model.Chore, first, day time.Time) bool {
	switch c.Frequency {
	case model.FrequencyDaily:
		return true
	case model.FrequencyWeekly:
		return day.Weekday() == first.Weekday()
	case model.FrequencyMonthly:
		return day.Day() == monthlyDay(first.Day(), day)
	case model.FrequencyCustom:
		return slices.Contains(c.RepeatDays, int(day.Weekday()))
	case model.FrequencyOnce:
		return day.Equal(first)
	}
	return false
}

// monthlyDay clamps a day-of-month to the length of day's month, so a chore
// started on the 31st is due on the 30th in a 30-day month.
func monthlyDay(dom int, day time.Time) int {
	last := time.Date(day.Year(), day.Month()+1, 0, 0, 0, 0, 0, day.Location()).Day()
	return min(dom, last)
}

// ComputeStatus reports how an assignment should be displayed on today. A
// pending assignment whose last due day has passed is overdue.
func ComputeStatus(a model.Assignment, due []time.Time, today time.Time) Status {
	switch a.Status {
	case model.AssignmentCompleted:
		return StatusCompleted
	case model.AssignmentMissed:
		return StatusMissed
	}
	if len(due) > 0 && due[len(due)-1].Before(startOfDay(today.In(due[0].Location()))) {
		return StatusOverdue
	}
	return StatusPending
}

// Annotate builds the calendar entries for a week's assignments. Assignments
// whose chore is unknown are due on the week's last day.
func Annotate(assignments []model.Assignment, chores map[int64]model.Chore, w week.Interval, today time.Time) []AssignmentWithDue {
	out := make([]AssignmentWithDue, 0, len(assignments))
	for _, a := range assignments {
		entry := AssignmentWithDue{Assignment: a}
		if c, ok := chores[a.ChoreID]; ok {
			entry.Category = c.Category
			entry.Priority = c.Priority
			entry.DueDays = DueDays(c, w)
		} else {
			days := w.Days()
			entry.DueDays = days[len(days)-1:]
		}
		entry.Display = ComputeStatus(a, entry.DueDays, today)
		out = append(out, entry)
	}
	return out
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
