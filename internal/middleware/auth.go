package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/dukerupert/choreshare/internal/auth"
	"github.com/dukerupert/choreshare/internal/model"
)

// SessionCookieName is the cookie carrying the session token.
const SessionCookieName = "choreshare_session"

type SessionReader interface {
	GetByToken(ctx context.Context, token string) (*model.Session, error)
}

type UserReader interface {
	GetByID(ctx context.Context, id int64) (*model.User, error)
}

// TokenFromRequest returns the session token from the session cookie or an
// Authorization: Bearer header.
func TokenFromRequest(r *http.Request) string {
	if c, err := r.Cookie(SessionCookieName); err == nil && c.Value != "" {
		return c.Value
	}
	if h := r.Header.Get("Authorization"); strings.HasPrefix(h, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(h, "Bearer "))
	}
	return ""
}

// RequireAuth validates the session token and populates AuthContext. The
// house is read from the user row on every request so joining or leaving
// takes effect immediately.
func RequireAuth(sessions SessionReader, users UserReader) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := TokenFromRequest(r)
			if token == "" {
				writeError(w, http.StatusUnauthorized, "authentication required")
				return
			}

			sess, err := sessions.GetByToken(r.Context(), token)
			if err != nil || sess == nil {
				writeError(w, http.StatusUnauthorized, "invalid or expired session")
				return
			}

			u, err := users.GetByID(r.Context(), sess.UserID)
			if err != nil || u == nil {
				writeError(w, http.StatusUnauthorized, "invalid or expired session")
				return
			}

			ac := auth.AuthContext{UserID: u.ID, SessionID: sess.ID}
			if u.HouseID != nil {
				ac.HouseID = *u.HouseID
			}

			ctx := auth.WithAuth(r.Context(), ac)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireHouse rejects callers who have not joined a house.
func RequireHouse(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if auth.HouseID(r.Context()) == 0 {
			writeError(w, http.StatusForbidden, "join or create a house first")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
