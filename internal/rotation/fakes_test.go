package rotation

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/dukerupert/choreshare/internal/model"
	"github.com/dukerupert/choreshare/internal/store"
	"github.com/dukerupert/choreshare/internal/week"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// memStore is an in-memory implementation of every rotation collaborator.
type memStore struct {
	mu          sync.Mutex
	houses      map[int64]*model.House
	users       map[int64]*model.User
	chores      []model.Chore
	assignments []model.Assignment
	weeks       map[string]bool
	nextID      int64

	// failures injected by tests
	createErr    map[int64]error
	findErr      error
	setStreakErr map[int64]error
}

func newMemStore() *memStore {
	return &memStore{
		houses:       make(map[int64]*model.House),
		users:        make(map[int64]*model.User),
		weeks:        make(map[string]bool),
		createErr:    make(map[int64]error),
		setStreakErr: make(map[int64]error),
	}
}

func (m *memStore) id() int64 {
	m.nextID++
	return m.nextID
}

func (m *memStore) addHouse(name string) int64 {
	id := m.id()
	m.houses[id] = &model.House{ID: id, Name: name}
	return id
}

func (m *memStore) addUser(houseID int64, name string) int64 {
	id := m.id()
	hid := houseID
	m.users[id] = &model.User{ID: id, Name: name, HouseID: &hid}
	m.houses[houseID].Members = append(m.houses[houseID].Members, id)
	return id
}

func (m *memStore) addChore(houseID int64, name string) int64 {
	id := m.id()
	m.chores = append(m.chores, model.Chore{ID: id, HouseID: houseID, Name: name})
	return id
}

func (m *memStore) addAssignment(a model.Assignment) {
	a.ID = m.id()
	m.assignments = append(m.assignments, a)
}

type houseReader struct{ *memStore }

func (h houseReader) GetByID(_ context.Context, id int64) (*model.House, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if house, ok := h.houses[id]; ok {
		cp := *house
		return &cp, nil
	}
	return nil, nil
}

func (h houseReader) ListIDs(_ context.Context) ([]int64, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	var ids []int64
	for id := range h.houses {
		ids = append(ids, id)
	}
	sortIDs(ids)
	return ids, nil
}

type userStore struct{ *memStore }

func (u userStore) ListByHouse(_ context.Context, houseID int64) ([]model.User, error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	var ids []int64
	for id, user := range u.users {
		if user.HouseID != nil && *user.HouseID == houseID {
			ids = append(ids, id)
		}
	}
	sortIDs(ids)
	users := make([]model.User, 0, len(ids))
	for _, id := range ids {
		users = append(users, *u.users[id])
	}
	return users, nil
}

func (u userStore) GetByID(_ context.Context, id int64) (*model.User, error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	if user, ok := u.users[id]; ok {
		cp := *user
		return &cp, nil
	}
	return nil, nil
}

func (u userStore) SetStreak(_ context.Context, id int64, streak int) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	if err := u.setStreakErr[id]; err != nil {
		return err
	}
	u.users[id].Streak = streak
	return nil
}

type choreReader struct{ *memStore }

func (c choreReader) ListActive(_ context.Context, houseID int64, _ week.Interval) ([]model.Chore, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	var chores []model.Chore
	for _, ch := range c.chores {
		if ch.HouseID == houseID && !ch.Deleted {
			chores = append(chores, ch)
		}
	}
	return chores, nil
}

type assignmentStore struct{ *memStore }

func (a assignmentStore) Find(_ context.Context, f store.AssignmentFilter) ([]model.Assignment, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.findErr != nil {
		return nil, a.findErr
	}
	var out []model.Assignment
	for _, as := range a.assignments {
		if f.HouseID != 0 && as.HouseID != f.HouseID {
			continue
		}
		if f.UserID != 0 && as.UserID != f.UserID {
			continue
		}
		if f.Status != "" && as.Status != f.Status {
			continue
		}
		if f.Covering != nil && !(week.Interval{Start: as.WeekStart, End: as.WeekEnd}).Covers(*f.Covering) {
			continue
		}
		if !f.StartFrom.IsZero() && as.WeekStart.Before(f.StartFrom) {
			continue
		}
		if !f.StartBefore.IsZero() && !as.WeekStart.Before(f.StartBefore) {
			continue
		}
		out = append(out, as)
	}
	return out, nil
}

func (a assignmentStore) CreateWeek(_ context.Context, houseID int64, w week.Interval, in []model.Assignment) ([]model.Assignment, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if err := a.createErr[houseID]; err != nil {
		return nil, err
	}
	key := weekKey(houseID, w)
	if a.weeks[key] {
		return nil, store.ErrWeekAlreadyGenerated
	}
	a.weeks[key] = true

	created := make([]model.Assignment, 0, len(in))
	for _, as := range in {
		as.ID = a.id()
		as.HouseID = houseID
		as.WeekStart, as.WeekEnd = w.Start, w.End
		a.assignments = append(a.assignments, as)
		created = append(created, as)
	}
	return created, nil
}

func (a assignmentStore) MarkMissed(_ context.Context, cutoff time.Time) (int64, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	var n int64
	for i := range a.assignments {
		if a.assignments[i].Status == model.AssignmentPending && a.assignments[i].WeekEnd.Before(cutoff) {
			a.assignments[i].Status = model.AssignmentMissed
			n++
		}
	}
	return n, nil
}

func weekKey(houseID int64, w week.Interval) string {
	return fmt.Sprintf("%d/%s", houseID, w.Start.UTC().Format(time.RFC3339))
}

func sortIDs(ids []int64) {
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
}

type recordingNotifier struct {
	calls map[int64][]model.Assignment
}

func (n *recordingNotifier) AssignmentsGenerated(_ context.Context, houseID int64, as []model.Assignment) {
	if n.calls == nil {
		n.calls = make(map[int64][]model.Assignment)
	}
	n.calls[houseID] = as
}

var errBoom = errors.New("boom")

// fixedClock is Wednesday 21 October 2026, 10:00 UTC.
func fixedClock() time.Time {
	return time.Date(2026, 10, 21, 10, 0, 0, 0, time.UTC)
}

func newTestService(m *memStore, opts ...Option) *Service {
	base := []Option{WithClock(fixedClock), WithLocation(time.UTC)}
	return NewService(houseReader{m}, userStore{m}, choreReader{m}, assignmentStore{m}, discardLogger(), append(base, opts...)...)
}
