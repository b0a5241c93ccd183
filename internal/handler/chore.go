package handler

import (
	"log/slog"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/dukerupert/choreshare/internal/auth"
	"github.com/dukerupert/choreshare/internal/chore"
	"github.com/dukerupert/choreshare/internal/model"
	"github.com/dukerupert/choreshare/internal/store"
	"github.com/dukerupert/choreshare/internal/websocket"
)

type ChoreHandler struct {
	choreStore *store.ChoreStore
	userStore  *store.UserStore
	hub        Broadcaster
	logger     *slog.Logger
}

func NewChoreHandler(cs *store.ChoreStore, us *store.UserStore, hub Broadcaster, logger *slog.Logger) *ChoreHandler {
	return &ChoreHandler{choreStore: cs, userStore: us, hub: hub, logger: logger}
}

type choreRequest struct {
	Name             string              `json:"name"`
	Category         model.ChoreCategory `json:"category"`
	Description      string              `json:"description"`
	EstimatedMinutes int                 `json:"estimated_minutes"`
	Frequency        model.Frequency     `json:"frequency"`
	RepeatDays       []int               `json:"repeat_days"`
	StartDate        *time.Time          `json:"start_date"`
	EndDate          *time.Time          `json:"end_date"`
	Priority         model.Priority      `json:"priority"`
	AssignedTo       *int64              `json:"assigned_to"`
}

// validate applies defaults and reports the first invalid field.
func (req *choreRequest) validate(now time.Time) string {
	req.Name = strings.TrimSpace(req.Name)
	req.Description = strings.TrimSpace(req.Description)
	if req.Name == "" {
		return "name is required"
	}
	if req.Category == "" {
		req.Category = chore.Categorize(req.Name)
	}
	if !req.Category.Valid() {
		return "invalid category"
	}
	if req.Frequency == "" {
		req.Frequency = model.FrequencyWeekly
	}
	if !req.Frequency.Valid() {
		return "invalid frequency"
	}
	if req.Priority == "" {
		req.Priority = model.PriorityMedium
	}
	if !req.Priority.Valid() {
		return "invalid priority"
	}
	if req.EstimatedMinutes < 0 {
		return "estimated_minutes must not be negative"
	}
	for _, d := range req.RepeatDays {
		if d < 0 || d > 6 {
			return "repeat_days must be between 0 (Sunday) and 6 (Saturday)"
		}
	}
	if req.Frequency == model.FrequencyCustom && len(req.RepeatDays) == 0 {
		return "custom frequency needs repeat_days"
	}
	slices.Sort(req.RepeatDays)
	req.RepeatDays = slices.Compact(req.RepeatDays)
	if req.StartDate == nil {
		today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
		req.StartDate = &today
	}
	if req.EndDate != nil && req.EndDate.Before(*req.StartDate) {
		return "end_date must not be before start_date"
	}
	return ""
}

func (h *ChoreHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req choreRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if msg := req.validate(time.Now()); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	houseID := auth.HouseID(r.Context())
	if req.AssignedTo != nil {
		member, err := h.userStore.GetByID(r.Context(), *req.AssignedTo)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "failed to check roommate")
			return
		}
		if member == nil || member.HouseID == nil || *member.HouseID != houseID {
			writeError(w, http.StatusBadRequest, "assigned_to is not a roommate")
			return
		}
	}

	created, err := h.choreStore.Create(r.Context(), houseID, store.ChoreInput{
		Name:             req.Name,
		Category:         req.Category,
		Description:      req.Description,
		EstimatedMinutes: req.EstimatedMinutes,
		Frequency:        req.Frequency,
		RepeatDays:       req.RepeatDays,
		StartDate:        *req.StartDate,
		EndDate:          req.EndDate,
		Priority:         req.Priority,
		AssignedTo:       req.AssignedTo,
	})
	if err != nil {
		h.logger.Error("create chore", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to create chore")
		return
	}

	broadcast(h.hub, houseID, websocket.NewMessage("chore", "created", created.ID, nil))
	writeJSON(w, http.StatusCreated, created)
}

func (h *ChoreHandler) List(w http.ResponseWriter, r *http.Request) {
	chores, err := h.choreStore.ListByHouse(r.Context(), auth.HouseID(r.Context()))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list chores")
		return
	}
	if chores == nil {
		chores = []model.Chore{}
	}
	writeJSON(w, http.StatusOK, chores)
}

func (h *ChoreHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	houseID := auth.HouseID(r.Context())
	existing, err := h.choreStore.GetByID(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to get chore")
		return
	}
	if existing == nil || existing.HouseID != houseID || existing.Deleted {
		writeError(w, http.StatusNotFound, "chore not found")
		return
	}

	if err := h.choreStore.SoftDelete(r.Context(), id); err != nil {
		h.logger.Error("delete chore", "chore_id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to delete chore")
		return
	}

	broadcast(h.hub, houseID, websocket.NewMessage("chore", "deleted", id, nil))
	w.WriteHeader(http.StatusNoContent)
}
