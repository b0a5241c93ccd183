package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/dukerupert/choreshare/internal/auth"
	"github.com/dukerupert/choreshare/internal/model"
	"github.com/dukerupert/choreshare/internal/store"
	"github.com/dukerupert/choreshare/internal/websocket"
)

type ShoppingHandler struct {
	shoppingStore *store.ShoppingStore
	userStore     *store.UserStore
	hub           Broadcaster
	logger        *slog.Logger
}

func NewShoppingHandler(ss *store.ShoppingStore, us *store.UserStore, hub Broadcaster, logger *slog.Logger) *ShoppingHandler {
	return &ShoppingHandler{shoppingStore: ss, userStore: us, hub: hub, logger: logger}
}

type shoppingRequest struct {
	Name     string `json:"name"`
	Quantity int    `json:"quantity"`
}

func (h *ShoppingHandler) List(w http.ResponseWriter, r *http.Request) {
	status := model.ShoppingStatus(r.URL.Query().Get("status"))
	if status != "" && status != model.ShoppingPending && status != model.ShoppingPurchased {
		writeError(w, http.StatusBadRequest, "status must be pending or purchased")
		return
	}

	items, err := h.shoppingStore.List(r.Context(), auth.HouseID(r.Context()), status)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list shopping items")
		return
	}
	if items == nil {
		items = []model.ShoppingItem{}
	}
	writeJSON(w, http.StatusOK, items)
}

func (h *ShoppingHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req shoppingRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}
	if req.Quantity == 0 {
		req.Quantity = 1
	}
	if req.Quantity < 0 {
		writeError(w, http.StatusBadRequest, "quantity must be positive")
		return
	}

	userID := auth.UserID(r.Context())
	user, err := h.userStore.GetByID(r.Context(), userID)
	if err != nil || user == nil {
		writeError(w, http.StatusInternalServerError, "failed to get user")
		return
	}

	houseID := auth.HouseID(r.Context())
	item, err := h.shoppingStore.Create(r.Context(), houseID, req.Name, req.Quantity, userID, user.Name)
	if err != nil {
		h.logger.Error("create shopping item", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to create shopping item")
		return
	}

	broadcast(h.hub, houseID, websocket.NewMessage("shopping", "created", item.ID, nil))
	writeJSON(w, http.StatusCreated, item)
}

func (h *ShoppingHandler) Purchase(w http.ResponseWriter, r *http.Request) {
	id, ok := h.ownedItem(w, r)
	if !ok {
		return
	}

	item, err := h.shoppingStore.Purchase(r.Context(), id, auth.UserID(r.Context()), time.Now())
	if errors.Is(err, store.ErrAlreadyPurchased) {
		writeError(w, http.StatusConflict, "item already purchased")
		return
	}
	if err != nil {
		h.logger.Error("purchase shopping item", "item_id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to purchase item")
		return
	}
	if item == nil {
		writeError(w, http.StatusNotFound, "item not found")
		return
	}

	broadcast(h.hub, item.HouseID, websocket.NewMessage("shopping", "purchased", item.ID, nil))
	writeJSON(w, http.StatusOK, item)
}

func (h *ShoppingHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := h.ownedItem(w, r)
	if !ok {
		return
	}

	if err := h.shoppingStore.Delete(r.Context(), id); err != nil {
		h.logger.Error("delete shopping item", "item_id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to delete item")
		return
	}

	broadcast(h.hub, auth.HouseID(r.Context()), websocket.NewMessage("shopping", "deleted", id, nil))
	w.WriteHeader(http.StatusNoContent)
}

// ownedItem resolves the {id} path value to an item in the caller's house,
// writing the error response when it cannot.
func (h *ShoppingHandler) ownedItem(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return 0, false
	}
	item, err := h.shoppingStore.GetByID(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to get item")
		return 0, false
	}
	if item == nil || item.HouseID != auth.HouseID(r.Context()) {
		writeError(w, http.StatusNotFound, "item not found")
		return 0, false
	}
	return id, true
}
