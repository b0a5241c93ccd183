package rotation

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/dukerupert/choreshare/internal/model"
	"github.com/dukerupert/choreshare/internal/store"
	"github.com/dukerupert/choreshare/internal/week"
)

func currentWeek() week.Interval {
	return week.Of(fixedClock(), time.UTC)
}

// pastAssignment records a pending assignment for user n weeks before the
// current week.
func pastAssignment(m *memStore, houseID, userID int64, weeksAgo int) {
	w := currentWeek().Shift(-weeksAgo)
	m.addAssignment(model.Assignment{
		HouseID: houseID, UserID: userID, ChoreID: 999,
		WeekStart: w.Start, WeekEnd: w.End, Status: model.AssignmentPending,
	})
}

func assignees(as []model.Assignment) map[int64]int64 {
	out := make(map[int64]int64, len(as))
	for _, a := range as {
		out[a.ChoreID] = a.UserID
	}
	return out
}

func TestGenerateWeeklyRoundRobinOverLoadOrder(t *testing.T) {
	m := newMemStore()
	h := m.addHouse("H")
	a := m.addUser(h, "A")
	b := m.addUser(h, "B")
	c1 := m.addChore(h, "C1")
	c2 := m.addChore(h, "C2")
	c3 := m.addChore(h, "C3")
	pastAssignment(m, h, b, 1)
	pastAssignment(m, h, b, 2)

	svc := newTestService(m)
	ctx := context.Background()

	res, err := svc.GenerateWeekly(ctx, h)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if res.Skipped != "" {
		t.Fatalf("skipped = %q, want generation", res.Skipped)
	}

	got := assignees(res.Assignments)
	want := map[int64]int64{c1: a, c2: b, c3: a}
	for chore, user := range want {
		if got[chore] != user {
			t.Errorf("chore %d assigned to %d, want %d", chore, got[chore], user)
		}
	}

	before := len(m.assignments)
	res, err = svc.GenerateWeekly(ctx, h)
	if err != nil {
		t.Fatalf("second generate: %v", err)
	}
	if res.Skipped != SkipAlreadyGenerated {
		t.Errorf("second run skipped = %q, want %q", res.Skipped, SkipAlreadyGenerated)
	}
	if len(m.assignments) != before {
		t.Errorf("assignments after second run = %d, want %d", len(m.assignments), before)
	}
}

func TestGenerateWeeklyCoverage(t *testing.T) {
	m := newMemStore()
	h := m.addHouse("H")
	for _, name := range []string{"A", "B", "C"} {
		m.addUser(h, name)
	}
	chores := make(map[int64]bool)
	for _, name := range []string{"dishes", "bins", "floors", "bathroom", "laundry"} {
		chores[m.addChore(h, name)] = true
	}

	res, err := newTestService(m).GenerateWeekly(context.Background(), h)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if len(res.Assignments) != len(chores) {
		t.Fatalf("assignments = %d, want %d", len(res.Assignments), len(chores))
	}

	w := currentWeek()
	seen := make(map[int64]bool)
	for _, a := range res.Assignments {
		if !chores[a.ChoreID] {
			t.Errorf("assignment for unknown chore %d", a.ChoreID)
		}
		if seen[a.ChoreID] {
			t.Errorf("chore %d assigned twice", a.ChoreID)
		}
		seen[a.ChoreID] = true
		if a.Status != model.AssignmentPending {
			t.Errorf("status = %q, want pending", a.Status)
		}
		if !a.WeekStart.Equal(w.Start) || !a.WeekEnd.Equal(w.End) {
			t.Errorf("interval = %v..%v, want %s", a.WeekStart, a.WeekEnd, w)
		}
		if !a.CreatedAt.Equal(fixedClock()) {
			t.Errorf("created_at = %v, want %v", a.CreatedAt, fixedClock())
		}
		if a.UserName == "" || a.ChoreName == "" {
			t.Errorf("assignment missing names: %+v", a)
		}
	}
}

func TestGenerateWeeklyFavorsLowerLoad(t *testing.T) {
	m := newMemStore()
	h := m.addHouse("H")
	heavy := m.addUser(h, "Heavy")
	light := m.addUser(h, "Light")
	chore := m.addChore(h, "dishes")
	for i := 1; i <= 3; i++ {
		pastAssignment(m, h, heavy, i)
	}
	pastAssignment(m, h, light, 1)

	res, err := newTestService(m).GenerateWeekly(context.Background(), h)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if got := assignees(res.Assignments)[chore]; got != light {
		t.Errorf("assigned to %d, want lower-loaded %d", got, light)
	}
}

func TestGenerateWeeklyIgnoresHistoryOutsideWindow(t *testing.T) {
	m := newMemStore()
	h := m.addHouse("H")
	a := m.addUser(h, "A")
	b := m.addUser(h, "B")
	chore := m.addChore(h, "dishes")
	for i := 0; i < 3; i++ {
		pastAssignment(m, h, a, HistoryWeeks+1)
	}
	pastAssignment(m, h, b, HistoryWeeks)

	res, err := newTestService(m).GenerateWeekly(context.Background(), h)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if got := assignees(res.Assignments)[chore]; got != a {
		t.Errorf("assigned to %d, want %d", got, a)
	}
}

func TestGenerateWeeklyFixedAssignee(t *testing.T) {
	m := newMemStore()
	h := m.addHouse("H")
	a := m.addUser(h, "A")
	b := m.addUser(h, "B")
	c1 := m.addChore(h, "C1")
	c2 := m.addChore(h, "C2")
	c3 := m.addChore(h, "C3")
	m.chores[0].AssignedTo = &b

	res, err := newTestService(m).GenerateWeekly(context.Background(), h)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	got := assignees(res.Assignments)
	want := map[int64]int64{c1: b, c2: a, c3: b}
	for chore, user := range want {
		if got[chore] != user {
			t.Errorf("chore %d assigned to %d, want %d", chore, got[chore], user)
		}
	}
}

func TestGenerateWeeklyFixedAssigneeNotMember(t *testing.T) {
	m := newMemStore()
	h := m.addHouse("H")
	a := m.addUser(h, "A")
	other := m.addHouse("Other")
	stranger := m.addUser(other, "Stranger")
	chore := m.addChore(h, "dishes")
	m.chores[0].AssignedTo = &stranger

	res, err := newTestService(m).GenerateWeekly(context.Background(), h)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if got := assignees(res.Assignments)[chore]; got != a {
		t.Errorf("assigned to %d, want member %d", got, a)
	}
}

func TestGenerateWeeklyNoOps(t *testing.T) {
	tests := []struct {
		name  string
		setup func(m *memStore) int64
		want  SkipReason
	}{
		{
			name:  "missing house",
			setup: func(m *memStore) int64 { return 42 },
			want:  SkipNoHouse,
		},
		{
			name: "no members",
			setup: func(m *memStore) int64 {
				h := m.addHouse("H")
				m.addChore(h, "dishes")
				return h
			},
			want: SkipNoMembers,
		},
		{
			name: "no chores",
			setup: func(m *memStore) int64 {
				h := m.addHouse("H")
				m.addUser(h, "A")
				return h
			},
			want: SkipNoChores,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := newMemStore()
			h := tt.setup(m)
			res, err := newTestService(m).GenerateWeekly(context.Background(), h)
			if err != nil {
				t.Fatalf("generate: %v", err)
			}
			if res.Skipped != tt.want {
				t.Errorf("skipped = %q, want %q", res.Skipped, tt.want)
			}
			if len(res.Assignments) != 0 || len(m.assignments) != 0 {
				t.Errorf("assignments written = %d, want 0", len(m.assignments))
			}
		})
	}
}

func TestGenerateWeeklyLostRace(t *testing.T) {
	m := newMemStore()
	h := m.addHouse("H")
	m.addUser(h, "A")
	m.addChore(h, "dishes")
	m.weeks[weekKey(h, currentWeek())] = true

	n := &recordingNotifier{}
	res, err := newTestService(m, WithNotifier(n)).GenerateWeekly(context.Background(), h)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if res.Skipped != SkipAlreadyGenerated {
		t.Errorf("skipped = %q, want %q", res.Skipped, SkipAlreadyGenerated)
	}
	if len(n.calls) != 0 {
		t.Error("notifier should not be called when nothing was written")
	}
}

func TestGenerateWeeklyWriteFailure(t *testing.T) {
	m := newMemStore()
	h := m.addHouse("H")
	m.addUser(h, "A")
	m.addChore(h, "dishes")
	m.createErr[h] = errBoom

	n := &recordingNotifier{}
	_, err := newTestService(m, WithNotifier(n)).GenerateWeekly(context.Background(), h)
	if !errors.Is(err, errBoom) {
		t.Fatalf("err = %v, want wrapped errBoom", err)
	}
	if len(m.assignments) != 0 {
		t.Errorf("assignments = %d, want 0", len(m.assignments))
	}
	if len(n.calls) != 0 {
		t.Error("notifier should not be called on failure")
	}
}

func TestGenerateWeeklyNotifies(t *testing.T) {
	m := newMemStore()
	h := m.addHouse("H")
	m.addUser(h, "A")
	m.addChore(h, "dishes")
	m.addChore(h, "bins")

	n := &recordingNotifier{}
	res, err := newTestService(m, WithNotifier(n)).GenerateWeekly(context.Background(), h)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if len(n.calls[h]) != len(res.Assignments) {
		t.Errorf("notified = %d, want %d", len(n.calls[h]), len(res.Assignments))
	}
	for _, a := range n.calls[h] {
		if a.ID == 0 {
			t.Error("notified assignment should carry its stored id")
		}
	}
}

func TestRotateAllContinuesPastFailures(t *testing.T) {
	m := newMemStore()
	ok := m.addHouse("ok")
	m.addUser(ok, "A")
	m.addChore(ok, "dishes")

	broken := m.addHouse("broken")
	m.addUser(broken, "B")
	m.addChore(broken, "bins")
	m.createErr[broken] = errBoom

	empty := m.addHouse("empty")
	m.addUser(empty, "C")

	later := m.addHouse("later")
	m.addUser(later, "D")
	m.addChore(later, "floors")
	m.addChore(later, "windows")

	reg := prometheus.NewRegistry()
	metrics := NewMetrics(reg)
	sum, err := newTestService(m, WithMetrics(metrics)).RotateAll(context.Background())
	if err != nil {
		t.Fatalf("rotate all: %v", err)
	}

	if sum.Houses != 4 || sum.Generated != 2 || sum.Skipped != 1 || sum.Failed != 1 {
		t.Errorf("summary = %+v, want 4 houses, 2 generated, 1 skipped, 1 failed", sum)
	}
	if sum.Created != 3 {
		t.Errorf("created = %d, want 3", sum.Created)
	}
	if sum.RunID == "" {
		t.Error("expected run id")
	}

	if got := testutil.ToFloat64(metrics.assignmentsCreated); got != 3 {
		t.Errorf("assignments_created_total = %v, want 3", got)
	}
	if got := testutil.ToFloat64(metrics.houses.WithLabelValues("failed")); got != 1 {
		t.Errorf("houses_total{failed} = %v, want 1", got)
	}
	if got := testutil.ToFloat64(metrics.houses.WithLabelValues("generated")); got != 2 {
		t.Errorf("houses_total{generated} = %v, want 2", got)
	}
}

func TestUpdateStreaks(t *testing.T) {
	m := newMemStore()
	h := m.addHouse("H")
	u1 := m.addUser(h, "U1")
	u2 := m.addUser(h, "U2")
	u3 := m.addUser(h, "U3")
	u4 := m.addUser(h, "U4")
	m.users[u1].Streak = 3

	prev := currentWeek().Previous()
	add := func(user int64, w week.Interval, status model.AssignmentStatus) {
		m.addAssignment(model.Assignment{HouseID: h, UserID: user, WeekStart: w.Start, WeekEnd: w.End, Status: status})
	}
	add(u1, prev, model.AssignmentCompleted)
	add(u1, prev, model.AssignmentPending)
	add(u2, prev, model.AssignmentPending)
	add(u3, prev, model.AssignmentMissed)
	add(u2, currentWeek(), model.AssignmentCompleted)
	add(u4, prev.Previous(), model.AssignmentCompleted)

	sum, err := newTestService(m).UpdateStreaks(context.Background())
	if err != nil {
		t.Fatalf("update streaks: %v", err)
	}
	if sum.Qualified != 1 || sum.Incremented != 1 || sum.Failed != 0 {
		t.Errorf("summary = %+v, want 1 qualified, 1 incremented", sum)
	}

	want := map[int64]int{u1: 4, u2: 0, u3: 0, u4: 0}
	for id, streak := range want {
		if got := m.users[id].Streak; got != streak {
			t.Errorf("user %d streak = %d, want %d", id, got, streak)
		}
	}
}

func TestUpdateStreaksIsolatesFailures(t *testing.T) {
	m := newMemStore()
	h := m.addHouse("H")
	u1 := m.addUser(h, "U1")
	u2 := m.addUser(h, "U2")
	prev := currentWeek().Previous()
	for _, u := range []int64{u1, u2, 777} {
		m.addAssignment(model.Assignment{HouseID: h, UserID: u, WeekStart: prev.Start, WeekEnd: prev.End, Status: model.AssignmentCompleted})
	}
	m.setStreakErr[u1] = errBoom

	sum, err := newTestService(m).UpdateStreaks(context.Background())
	if err != nil {
		t.Fatalf("update streaks: %v", err)
	}
	if sum.Qualified != 3 || sum.Incremented != 1 || sum.Failed != 1 {
		t.Errorf("summary = %+v, want 3 qualified, 1 incremented, 1 failed", sum)
	}
	if got := m.users[u2].Streak; got != 1 {
		t.Errorf("u2 streak = %d, want 1", got)
	}
}

func TestUpdateStreaksFindError(t *testing.T) {
	m := newMemStore()
	m.findErr = errBoom
	if _, err := newTestService(m).UpdateStreaks(context.Background()); !errors.Is(err, errBoom) {
		t.Errorf("err = %v, want errBoom", err)
	}
}

func TestMarkMissed(t *testing.T) {
	m := newMemStore()
	h := m.addHouse("H")
	u := m.addUser(h, "U")
	pastAssignment(m, h, u, 1)
	pastAssignment(m, h, u, 0)

	reg := prometheus.NewRegistry()
	metrics := NewMetrics(reg)
	n, err := newTestService(m, WithMetrics(metrics)).MarkMissed(context.Background())
	if err != nil {
		t.Fatalf("mark missed: %v", err)
	}
	if n != 1 {
		t.Errorf("marked = %d, want 1", n)
	}
	if m.assignments[0].Status != model.AssignmentMissed {
		t.Errorf("previous week status = %q, want missed", m.assignments[0].Status)
	}
	if m.assignments[1].Status != model.AssignmentPending {
		t.Errorf("current week status = %q, want pending", m.assignments[1].Status)
	}
	if got := testutil.ToFloat64(metrics.assignmentsMissed); got != 1 {
		t.Errorf("assignments_missed_total = %v, want 1", got)
	}
}

func TestCurrentWeekUsesLocation(t *testing.T) {
	// Monday 02:00 UTC is still Sunday in UTC-5.
	clock := func() time.Time { return time.Date(2026, 10, 19, 2, 0, 0, 0, time.UTC) }
	loc := time.FixedZone("UTC-5", -5*60*60)
	svc := NewService(houseReader{newMemStore()}, nil, nil, nil, discardLogger(), WithClock(clock), WithLocation(loc))

	got := svc.CurrentWeek()
	want := time.Date(2026, 10, 12, 0, 0, 0, 0, loc)
	if !got.Start.Equal(want) {
		t.Errorf("week start = %v, want %v", got.Start, want)
	}
}

var _ AssignmentStore = (*store.AssignmentStore)(nil)
var _ UserStore = (*store.UserStore)(nil)
var _ HouseReader = (*store.HouseStore)(nil)
var _ ChoreReader = (*store.ChoreStore)(nil)
var _ JobClaimer = (*store.JobRunStore)(nil)
