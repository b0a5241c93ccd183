// Package notify records in-app notifications and pushes them to connected
// house members.
package notify

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/dukerupert/choreshare/internal/model"
	"github.com/dukerupert/choreshare/internal/store"
	"github.com/dukerupert/choreshare/internal/websocket"
)

// DefaultReminderWindow is how far ahead of a week's end reminders go out.
const DefaultReminderWindow = 24 * time.Hour

type NotificationWriter interface {
	Create(ctx context.Context, userID int64, notifType, refID, title, body string) (bool, error)
}

type AssignmentFinder interface {
	Find(ctx context.Context, f store.AssignmentFilter) ([]model.Assignment, error)
}

// Broadcaster delivers change messages to a house's live connections, or to
// one member's.
type Broadcaster interface {
	Broadcast(houseID int64, msg websocket.Message)
	SendToUser(userID int64, msg websocket.Message)
}

// Dispatcher writes notifications for rotation and completion events.
type Dispatcher struct {
	notifications NotificationWriter
	assignments   AssignmentFinder
	hub           Broadcaster
	window        time.Duration
	now           func() time.Time
	logger        *slog.Logger
}

func NewDispatcher(notifications NotificationWriter, assignments AssignmentFinder, hub Broadcaster, window time.Duration, logger *slog.Logger) *Dispatcher {
	if window <= 0 {
		window = DefaultReminderWindow
	}
	return &Dispatcher{
		notifications: notifications,
		assignments:   assignments,
		hub:           hub,
		window:        window,
		now:           time.Now,
		logger:        logger.With("component", "notify"),
	}
}

// AssignmentsGenerated records an assignment notification for each new
// assignment and tells the house that the week's rotation is ready.
func (d *Dispatcher) AssignmentsGenerated(ctx context.Context, houseID int64, assignments []model.Assignment) {
	for _, a := range assignments {
		if d.create(ctx, a.UserID, model.NotifTypeAssignment, a.ID,
			"New chore assigned",
			fmt.Sprintf("You have been assigned %q this week.", a.ChoreName)) {
			d.push(a, model.NotifTypeAssignment)
		}
	}
	if d.hub != nil {
		d.hub.Broadcast(houseID, websocket.NewMessage("assignment", "generated", 0, map[string]any{
			"count": len(assignments),
		}))
	}
}

// AssignmentCompleted records a completion notification for the assignee.
func (d *Dispatcher) AssignmentCompleted(ctx context.Context, a model.Assignment) {
	if d.create(ctx, a.UserID, model.NotifTypeCompleted, a.ID,
		"Chore completed",
		fmt.Sprintf("Nice work! %q is done.", a.ChoreName)) {
		d.push(a, model.NotifTypeCompleted)
	}
}

// SendReminders notifies the assignee of every pending assignment whose week
// ends within the reminder window. Each assignment is reminded at most once.
func (d *Dispatcher) SendReminders(ctx context.Context) (int, error) {
	now := d.now()
	pending, err := d.assignments.Find(ctx, store.AssignmentFilter{
		Status:   model.AssignmentPending,
		EndFrom:  now,
		EndUntil: now.Add(d.window),
	})
	if err != nil {
		return 0, fmt.Errorf("list assignments due soon: %w", err)
	}

	sent := 0
	for _, a := range pending {
		if d.create(ctx, a.UserID, model.NotifTypeReminder, a.ID,
			"Chore Reminder",
			fmt.Sprintf("Your chore %q is due soon!", a.ChoreName)) {
			sent++
			d.push(a, model.NotifTypeReminder)
		}
	}
	return sent, nil
}

// push tells the assignee's open connections that a notification arrived.
func (d *Dispatcher) push(a model.Assignment, notifType string) {
	if d.hub == nil {
		return
	}
	d.hub.SendToUser(a.UserID, websocket.NewMessage("notification", "created", a.ID, map[string]any{
		"type": notifType,
	}))
}

func (d *Dispatcher) create(ctx context.Context, userID int64, notifType string, ref int64, title, body string) bool {
	created, err := d.notifications.Create(ctx, userID, notifType, strconv.FormatInt(ref, 10), title, body)
	if err != nil {
		d.logger.Error("create notification", "user_id", userID, "type", notifType, "ref_id", ref, "error", err)
		return false
	}
	return created
}
