package store

import (
	"context"
	"testing"
	"time"

	"github.com/dukerupert/choreshare/internal/model"
	"github.com/dukerupert/choreshare/internal/week"
)

func setupChoreTest(t *testing.T) (*ChoreStore, *model.House, *model.User) {
	t.Helper()
	db := setupTestDB(t)
	us, hs := NewUserStore(db), NewHouseStore(db)
	alice := mustCreateUser(t, us, "alice@example.com", "Alice")
	h := mustCreateHouse(t, hs, "Flat", alice.ID)
	return NewChoreStore(db), h, alice
}

func TestChoreCreate(t *testing.T) {
	cs, h, alice := setupChoreTest(t)
	ctx := context.Background()

	start := time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC)
	c, err := cs.Create(ctx, h.ID, ChoreInput{
		Name:             "Take out bins",
		Category:         model.CategoryTrash,
		Description:      "Blue bin on Thursdays",
		EstimatedMinutes: 10,
		Frequency:        model.FrequencyCustom,
		RepeatDays:       []int{1, 4},
		StartDate:        start,
		Priority:         model.PriorityHigh,
		AssignedTo:       &alice.ID,
	})
	if err != nil {
		t.Fatalf("create chore: %v", err)
	}
	if c.Name != "Take out bins" || c.Category != model.CategoryTrash {
		t.Errorf("chore = %+v", c)
	}
	if c.HouseID != h.ID {
		t.Errorf("house_id = %d, want %d", c.HouseID, h.ID)
	}
	if len(c.RepeatDays) != 2 || c.RepeatDays[0] != 1 || c.RepeatDays[1] != 4 {
		t.Errorf("repeat_days = %v, want [1 4]", c.RepeatDays)
	}
	if !c.StartDate.Equal(start) {
		t.Errorf("start_date = %v, want %v", c.StartDate, start)
	}
	if c.EndDate != nil {
		t.Errorf("end_date = %v, want nil", c.EndDate)
	}
	if c.AssignedTo == nil || *c.AssignedTo != alice.ID {
		t.Errorf("assigned_to = %v, want %d", c.AssignedTo, alice.ID)
	}
	if c.Deleted {
		t.Error("new chore should not be deleted")
	}
}

func TestChoreSoftDelete(t *testing.T) {
	cs, h, _ := setupChoreTest(t)
	ctx := context.Background()

	c, _ := cs.Create(ctx, h.ID, ChoreInput{Name: "Dishes", Category: model.CategoryKitchen, Frequency: model.FrequencyDaily, Priority: model.PriorityMedium, StartDate: time.Now()})
	if err := cs.SoftDelete(ctx, c.ID); err != nil {
		t.Fatalf("soft delete: %v", err)
	}

	got, err := cs.GetByID(ctx, c.ID)
	if err != nil {
		t.Fatalf("get chore: %v", err)
	}
	if got == nil || !got.Deleted {
		t.Fatalf("chore after delete = %+v, want deleted flag", got)
	}

	list, _ := cs.ListByHouse(ctx, h.ID)
	if len(list) != 0 {
		t.Errorf("list = %d chores, want 0", len(list))
	}
}

func TestChoreListActive(t *testing.T) {
	cs, h, _ := setupChoreTest(t)
	ctx := context.Background()

	w := week.Of(time.Date(2026, 10, 21, 0, 0, 0, 0, time.UTC), time.UTC)
	create := func(name string, start time.Time, end *time.Time) *model.Chore {
		c, err := cs.Create(ctx, h.ID, ChoreInput{
			Name: name, Category: model.CategoryOther, Frequency: model.FrequencyWeekly,
			Priority: model.PriorityLow, StartDate: start, EndDate: end,
		})
		if err != nil {
			t.Fatalf("create %s: %v", name, err)
		}
		return c
	}

	ended := w.Start.AddDate(0, 0, -1)
	endsMidweek := w.Start.AddDate(0, 0, 3)

	current := create("current", w.Start.AddDate(0, -1, 0), nil)
	startsSunday := create("starts sunday", w.Start.AddDate(0, 0, 6), nil)
	create("future", w.End.Add(time.Hour), nil)
	create("ended", w.Start.AddDate(0, -1, 0), &ended)
	midweek := create("ends midweek", w.Start.AddDate(0, -1, 0), &endsMidweek)
	deleted := create("deleted", w.Start.AddDate(0, -1, 0), nil)
	cs.SoftDelete(ctx, deleted.ID)

	active, err := cs.ListActive(ctx, h.ID, w)
	if err != nil {
		t.Fatalf("list active: %v", err)
	}

	want := []int64{current.ID, startsSunday.ID, midweek.ID}
	if len(active) != len(want) {
		t.Fatalf("active = %d chores, want %d", len(active), len(want))
	}
	for i, id := range want {
		if active[i].ID != id {
			t.Errorf("active[%d] = %d (%s), want %d", i, active[i].ID, active[i].Name, id)
		}
	}
}
