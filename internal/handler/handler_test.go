package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dukerupert/choreshare/internal/auth"
	"github.com/dukerupert/choreshare/internal/database"
	"github.com/dukerupert/choreshare/internal/model"
	"github.com/dukerupert/choreshare/internal/store"
	"github.com/dukerupert/choreshare/internal/websocket"
	"github.com/dukerupert/choreshare/internal/week"
)

type fixture struct {
	users         *store.UserStore
	sessions      *store.SessionStore
	houses        *store.HouseStore
	chores        *store.ChoreStore
	assignments   *store.AssignmentStore
	shopping      *store.ShoppingStore
	notifications *store.NotificationStore
	hub           *recordingHub
	logger        *slog.Logger

	house *model.House
	alice *model.User
	bob   *model.User
	week  week.Interval
}

// setupFixture opens an in-memory database with a house created by alice
// that bob has joined.
func setupFixture(t *testing.T) *fixture {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	f := &fixture{
		users:         store.NewUserStore(db),
		sessions:      store.NewSessionStore(db),
		houses:        store.NewHouseStore(db),
		chores:        store.NewChoreStore(db),
		assignments:   store.NewAssignmentStore(db),
		shopping:      store.NewShoppingStore(db),
		notifications: store.NewNotificationStore(db),
		hub:           &recordingHub{},
		logger:        slog.New(slog.NewTextHandler(io.Discard, nil)),
		week:          week.Of(time.Now(), time.UTC),
	}

	ctx := context.Background()
	if f.alice, err = f.users.Create(ctx, "alice@example.com", "Alice", "hash"); err != nil {
		t.Fatalf("create alice: %v", err)
	}
	if f.bob, err = f.users.Create(ctx, "bob@example.com", "Bob", "hash"); err != nil {
		t.Fatalf("create bob: %v", err)
	}
	if f.house, err = f.houses.Create(ctx, "Maple St", f.alice.ID); err != nil {
		t.Fatalf("create house: %v", err)
	}
	if f.house, err = f.houses.Join(ctx, f.bob.ID, f.house.InviteCode); err != nil {
		t.Fatalf("join house: %v", err)
	}
	return f
}

func (f *fixture) as(u *model.User) auth.AuthContext {
	return auth.AuthContext{UserID: u.ID, HouseID: f.house.ID}
}

func (f *fixture) currentWeek() week.Interval {
	return f.week
}

func (f *fixture) createChore(t *testing.T, name string) *model.Chore {
	t.Helper()
	c, err := f.chores.Create(context.Background(), f.house.ID, store.ChoreInput{
		Name:      name,
		Category:  model.CategoryKitchen,
		Frequency: model.FrequencyWeekly,
		StartDate: f.week.Start,
		Priority:  model.PriorityMedium,
	})
	if err != nil {
		t.Fatalf("create chore: %v", err)
	}
	return c
}

// recordingHub captures broadcasts.
type recordingHub struct {
	houses   []int64
	messages []websocket.Message
}

func (h *recordingHub) Broadcast(houseID int64, msg websocket.Message) {
	h.houses = append(h.houses, houseID)
	h.messages = append(h.messages, msg)
}

func (h *recordingHub) last() websocket.Message {
	if len(h.messages) == 0 {
		return websocket.Message{}
	}
	return h.messages[len(h.messages)-1]
}

func newRequest(t *testing.T, method, target string, body any, ac *auth.AuthContext) *http.Request {
	t.Helper()
	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		r = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, target, r)
	if ac != nil {
		req = req.WithContext(auth.WithAuth(req.Context(), *ac))
	}
	return req
}

func serve(fn http.HandlerFunc, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	fn(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(rec.Body).Decode(&v); err != nil {
		t.Fatalf("decode response: %v (body %q)", err, rec.Body.String())
	}
	return v
}

func errorMessage(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	return decodeBody[map[string]string](t, rec)["error"]
}

func ptr[T any](v T) *T {
	return &v
}
