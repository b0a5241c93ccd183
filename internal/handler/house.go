package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/dukerupert/choreshare/internal/auth"
	"github.com/dukerupert/choreshare/internal/model"
	"github.com/dukerupert/choreshare/internal/store"
	"github.com/dukerupert/choreshare/internal/websocket"
)

type HouseHandler struct {
	houseStore *store.HouseStore
	userStore  *store.UserStore
	hub        Broadcaster
	logger     *slog.Logger
}

func NewHouseHandler(hs *store.HouseStore, us *store.UserStore, hub Broadcaster, logger *slog.Logger) *HouseHandler {
	return &HouseHandler{houseStore: hs, userStore: us, hub: hub, logger: logger}
}

type houseRequest struct {
	Name string `json:"name"`
}

type joinRequest struct {
	InviteCode string `json:"invite_code"`
}

type houseResponse struct {
	House   *model.House `json:"house"`
	Members []model.User `json:"members"`
}

func (h *HouseHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req houseRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}

	house, err := h.houseStore.Create(r.Context(), req.Name, auth.UserID(r.Context()))
	if errors.Is(err, store.ErrAlreadyInHouse) {
		writeError(w, http.StatusConflict, "leave your current house first")
		return
	}
	if err != nil {
		h.logger.Error("create house", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to create house")
		return
	}
	writeJSON(w, http.StatusCreated, house)
}

func (h *HouseHandler) Join(w http.ResponseWriter, r *http.Request) {
	var req joinRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if strings.TrimSpace(req.InviteCode) == "" {
		writeError(w, http.StatusBadRequest, "invite_code is required")
		return
	}

	userID := auth.UserID(r.Context())
	house, err := h.houseStore.Join(r.Context(), userID, req.InviteCode)
	switch {
	case errors.Is(err, store.ErrInviteCodeNotFound):
		writeError(w, http.StatusNotFound, "invalid invite code")
		return
	case errors.Is(err, store.ErrAlreadyInHouse):
		writeError(w, http.StatusConflict, "leave your current house first")
		return
	case err != nil:
		h.logger.Error("join house", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to join house")
		return
	}

	broadcast(h.hub, house.ID, websocket.NewMessage("member", "joined", userID, nil))
	writeJSON(w, http.StatusOK, house)
}

func (h *HouseHandler) Leave(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())
	houseID, err := h.houseStore.Leave(r.Context(), userID)
	if errors.Is(err, store.ErrCreatorMustStay) {
		writeError(w, http.StatusConflict, "the house creator cannot leave while other roommates remain")
		return
	}
	if err != nil {
		h.logger.Error("leave house", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to leave house")
		return
	}
	if houseID == 0 {
		writeError(w, http.StatusBadRequest, "not in a house")
		return
	}

	broadcast(h.hub, houseID, websocket.NewMessage("member", "left", userID, nil))
	w.WriteHeader(http.StatusNoContent)
}

func (h *HouseHandler) Get(w http.ResponseWriter, r *http.Request) {
	houseID := auth.HouseID(r.Context())
	house, err := h.houseStore.GetByID(r.Context(), houseID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to get house")
		return
	}
	if house == nil {
		writeError(w, http.StatusNotFound, "house not found")
		return
	}

	members, err := h.userStore.ListByHouse(r.Context(), houseID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list roommates")
		return
	}
	if members == nil {
		members = []model.User{}
	}
	writeJSON(w, http.StatusOK, houseResponse{House: house, Members: members})
}

func (h *HouseHandler) Rename(w http.ResponseWriter, r *http.Request) {
	var req houseRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}

	houseID := auth.HouseID(r.Context())
	house, err := h.houseStore.Rename(r.Context(), houseID, req.Name)
	if err != nil {
		h.logger.Error("rename house", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to rename house")
		return
	}

	broadcast(h.hub, houseID, websocket.NewMessage("house", "updated", houseID, nil))
	writeJSON(w, http.StatusOK, house)
}
