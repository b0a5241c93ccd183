package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/dukerupert/choreshare/internal/auth"
	"github.com/dukerupert/choreshare/internal/rotation"
)

// WeeklyGenerator produces a house's assignments for the current week.
type WeeklyGenerator interface {
	GenerateWeekly(ctx context.Context, houseID int64) (rotation.Result, error)
}

type RotationHandler struct {
	generator WeeklyGenerator
	logger    *slog.Logger
}

func NewRotationHandler(g WeeklyGenerator, logger *slog.Logger) *RotationHandler {
	return &RotationHandler{generator: g, logger: logger}
}

// Run generates the caller's house assignments for the current week. A week
// that was already generated is reported as skipped, not as an error.
func (h *RotationHandler) Run(w http.ResponseWriter, r *http.Request) {
	houseID := auth.HouseID(r.Context())
	result, err := h.generator.GenerateWeekly(r.Context(), houseID)
	if err != nil {
		h.logger.Error("generate weekly assignments", "house_id", houseID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to generate assignments")
		return
	}
	writeJSON(w, http.StatusOK, result)
}
