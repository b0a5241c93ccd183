package rotation

import (
	"sort"
	"time"

	"github.com/dukerupert/choreshare/internal/model"
)

// tally counts history assignments per current member. Members with no
// history count zero and assignments of former members are ignored.
func tally(members []model.User, history []model.Assignment) map[int64]int {
	counts := make(map[int64]int, len(members))
	for _, m := range members {
		counts[m.ID] = 0
	}
	for _, a := range history {
		if _, ok := counts[a.UserID]; ok {
			counts[a.UserID]++
		}
	}
	return counts
}

// orderByLoad sorts members ascending by tally. Ties keep fetch order.
func orderByLoad(members []model.User, counts map[int64]int) []model.User {
	ordered := make([]model.User, len(members))
	copy(ordered, members)
	sort.SliceStable(ordered, func(i, j int) bool {
		return counts[ordered[i].ID] < counts[ordered[j].ID]
	})
	return ordered
}

// distribute pairs each chore with an assignee. A chore with a fixed
// assignee who is still a member goes to them; the rest cycle through
// ordered, least loaded first.
func distribute(chores []model.Chore, ordered []model.User, now time.Time) []model.Assignment {
	byID := make(map[int64]model.User, len(ordered))
	for _, m := range ordered {
		byID[m.ID] = m
	}

	planned := make([]model.Assignment, 0, len(chores))
	k := 0
	for _, c := range chores {
		var assignee model.User
		if fixed, ok := fixedAssignee(c, byID); ok {
			assignee = fixed
		} else {
			assignee = ordered[k%len(ordered)]
			k++
		}
		planned = append(planned, model.Assignment{
			ChoreID:   c.ID,
			ChoreName: c.Name,
			UserID:    assignee.ID,
			UserName:  assignee.Name,
			HouseID:   c.HouseID,
			Status:    model.AssignmentPending,
			CreatedAt: now,
		})
	}
	return planned
}

func fixedAssignee(c model.Chore, members map[int64]model.User) (model.User, bool) {
	if c.AssignedTo == nil {
		return model.User{}, false
	}
	m, ok := members[*c.AssignedTo]
	return m, ok
}
