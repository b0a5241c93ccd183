package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/dukerupert/choreshare/internal/auth"
	"github.com/dukerupert/choreshare/internal/chore"
	"github.com/dukerupert/choreshare/internal/model"
	"github.com/dukerupert/choreshare/internal/store"
	"github.com/dukerupert/choreshare/internal/websocket"
	"github.com/dukerupert/choreshare/internal/week"
)

const historyLimit = 100

// CompletionNotifier is told about assignments marked completed.
type CompletionNotifier interface {
	AssignmentCompleted(ctx context.Context, a model.Assignment)
}

type AssignmentHandler struct {
	assignmentStore *store.AssignmentStore
	choreStore      *store.ChoreStore
	notifier        CompletionNotifier
	hub             Broadcaster
	currentWeek     func() week.Interval
	logger          *slog.Logger
}

func NewAssignmentHandler(as *store.AssignmentStore, cs *store.ChoreStore, notifier CompletionNotifier, hub Broadcaster, currentWeek func() week.Interval, logger *slog.Logger) *AssignmentHandler {
	return &AssignmentHandler{
		assignmentStore: as,
		choreStore:      cs,
		notifier:        notifier,
		hub:             hub,
		currentWeek:     currentWeek,
		logger:          logger,
	}
}

// List returns the house's assignments for ?week=current (default),
// previous or all.
func (h *AssignmentHandler) List(w http.ResponseWriter, r *http.Request) {
	filter := store.AssignmentFilter{HouseID: auth.HouseID(r.Context())}

	switch r.URL.Query().Get("week") {
	case "", "current":
		cur := h.currentWeek()
		filter.Covering = &cur
	case "previous":
		prev := h.currentWeek().Previous()
		filter.Covering = &prev
	case "all":
	default:
		writeError(w, http.StatusBadRequest, "week must be current, previous or all")
		return
	}

	assignments, err := h.assignmentStore.Find(r.Context(), filter)
	if err != nil {
		h.logger.Error("list assignments", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list assignments")
		return
	}
	if assignments == nil {
		assignments = []model.Assignment{}
	}
	writeJSON(w, http.StatusOK, assignments)
}

func (h *AssignmentHandler) Complete(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	houseID := auth.HouseID(r.Context())
	existing, err := h.assignmentStore.GetByID(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to get assignment")
		return
	}
	if existing == nil || existing.HouseID != houseID {
		writeError(w, http.StatusNotFound, "assignment not found")
		return
	}

	a, err := h.assignmentStore.Complete(r.Context(), id, auth.UserID(r.Context()), time.Now())
	switch {
	case errors.Is(err, store.ErrNotAssignee):
		writeError(w, http.StatusForbidden, "only the assignee can complete this chore")
		return
	case errors.Is(err, store.ErrNotPending):
		writeError(w, http.StatusConflict, "assignment is not pending")
		return
	case err != nil:
		h.logger.Error("complete assignment", "assignment_id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to complete assignment")
		return
	case a == nil:
		writeError(w, http.StatusNotFound, "assignment not found")
		return
	}

	if h.notifier != nil {
		h.notifier.AssignmentCompleted(r.Context(), *a)
	}
	broadcast(h.hub, houseID, websocket.NewMessage("assignment", "completed", a.ID, nil))
	writeJSON(w, http.StatusOK, a)
}

// History returns the house's completed assignments, newest first.
func (h *AssignmentHandler) History(w http.ResponseWriter, r *http.Request) {
	assignments, err := h.assignmentStore.ListCompleted(r.Context(), auth.HouseID(r.Context()), historyLimit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list history")
		return
	}
	if assignments == nil {
		assignments = []model.Assignment{}
	}
	writeJSON(w, http.StatusOK, assignments)
}

// Calendar returns the current week's assignments with the days each chore
// is due and a display status.
func (h *AssignmentHandler) Calendar(w http.ResponseWriter, r *http.Request) {
	houseID := auth.HouseID(r.Context())
	cur := h.currentWeek()

	assignments, err := h.assignmentStore.Find(r.Context(), store.AssignmentFilter{HouseID: houseID, Covering: &cur})
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list assignments")
		return
	}

	chores, err := h.choreStore.ListByHouse(r.Context(), houseID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list chores")
		return
	}
	byID := make(map[int64]model.Chore, len(chores))
	for _, c := range chores {
		byID[c.ID] = c
	}

	today := time.Now().In(cur.Start.Location())
	writeJSON(w, http.StatusOK, map[string]any{
		"week_start":  cur.Start,
		"week_end":    cur.End,
		"assignments": chore.Annotate(assignments, byID, cur, today),
	})
}

func (h *AssignmentHandler) Leaderboard(w http.ResponseWriter, r *http.Request) {
	entries, err := h.assignmentStore.Leaderboard(r.Context(), auth.HouseID(r.Context()))
	if err != nil {
		h.logger.Error("leaderboard", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to build leaderboard")
		return
	}
	if entries == nil {
		entries = []model.LeaderboardEntry{}
	}
	writeJSON(w, http.StatusOK, entries)
}
