package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/dukerupert/choreshare/internal/websocket"
)

// Broadcaster pushes change messages to a house's live connections.
type Broadcaster interface {
	Broadcast(houseID int64, msg websocket.Message)
}

func broadcast(b Broadcaster, houseID int64, msg websocket.Message) {
	if b != nil {
		b.Broadcast(houseID, msg)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

const maxBodyBytes = 1 << 20

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	return json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(v)
}

func parseIDParam(r *http.Request) (int64, error) {
	return strconv.ParseInt(r.PathValue("id"), 10, 64)
}
