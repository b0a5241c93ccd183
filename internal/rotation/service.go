// Package rotation generates weekly chore assignments for each house and
// maintains completion streaks.
package rotation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/dukerupert/choreshare/internal/model"
	"github.com/dukerupert/choreshare/internal/store"
	"github.com/dukerupert/choreshare/internal/week"
)

// HistoryWeeks is how many past weeks feed the load-balancing tally.
const HistoryWeeks = 4

type HouseReader interface {
	GetByID(ctx context.Context, id int64) (*model.House, error)
	ListIDs(ctx context.Context) ([]int64, error)
}

// UserStore lists a house's members in id order and updates streaks.
type UserStore interface {
	ListByHouse(ctx context.Context, houseID int64) ([]model.User, error)
	GetByID(ctx context.Context, id int64) (*model.User, error)
	SetStreak(ctx context.Context, id int64, streak int) error
}

type ChoreReader interface {
	ListActive(ctx context.Context, houseID int64, w week.Interval) ([]model.Chore, error)
}

type AssignmentStore interface {
	Find(ctx context.Context, f store.AssignmentFilter) ([]model.Assignment, error)
	CreateWeek(ctx context.Context, houseID int64, w week.Interval, assignments []model.Assignment) ([]model.Assignment, error)
	MarkMissed(ctx context.Context, cutoff time.Time) (int64, error)
}

// Notifier is told about every freshly generated assignment set.
type Notifier interface {
	AssignmentsGenerated(ctx context.Context, houseID int64, assignments []model.Assignment)
}

// SkipReason explains why GenerateWeekly wrote nothing.
type SkipReason string

const (
	SkipAlreadyGenerated SkipReason = "already_generated"
	SkipNoHouse          SkipReason = "no_house"
	SkipNoMembers        SkipReason = "no_members"
	SkipNoChores         SkipReason = "no_chores"
)

// Result is the outcome of generating one house's week.
type Result struct {
	HouseID     int64              `json:"house_id"`
	Week        week.Interval      `json:"week"`
	Assignments []model.Assignment `json:"assignments"`
	Skipped     SkipReason         `json:"skipped,omitempty"`
}

// Summary counts the outcomes of a RotateAll sweep.
type Summary struct {
	RunID     string `json:"run_id"`
	Houses    int    `json:"houses"`
	Generated int    `json:"generated"`
	Skipped   int    `json:"skipped"`
	Failed    int    `json:"failed"`
	Created   int    `json:"created"`
}

// StreakSummary counts the outcomes of an UpdateStreaks pass.
type StreakSummary struct {
	Week        week.Interval `json:"week"`
	Qualified   int           `json:"qualified"`
	Incremented int           `json:"incremented"`
	Failed      int           `json:"failed"`
}

type Service struct {
	houses      HouseReader
	users       UserStore
	chores      ChoreReader
	assignments AssignmentStore
	notifier    Notifier
	metrics     *Metrics
	now         func() time.Time
	loc         *time.Location
	logger      *slog.Logger
}

type Option func(*Service)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithLocation sets the zone in which week boundaries are computed.
func WithLocation(loc *time.Location) Option {
	return func(s *Service) { s.loc = loc }
}

func WithNotifier(n Notifier) Option {
	return func(s *Service) { s.notifier = n }
}

func WithMetrics(m *Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func NewService(houses HouseReader, users UserStore, chores ChoreReader, assignments AssignmentStore, logger *slog.Logger, opts ...Option) *Service {
	s := &Service{
		houses:      houses,
		users:       users,
		chores:      chores,
		assignments: assignments,
		now:         time.Now,
		loc:         time.Local,
		logger:      logger.With("component", "rotation"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CurrentWeek returns the week containing the service clock's now.
func (s *Service) CurrentWeek() week.Interval {
	return week.Of(s.now(), s.loc)
}

// GenerateWeekly creates the current week's assignments for a house. It is
// idempotent: a week that already has assignments is skipped, as is a house
// with no members or no active chores. A skip is not an error.
func (s *Service) GenerateWeekly(ctx context.Context, houseID int64) (Result, error) {
	now := s.now()
	current := week.Of(now, s.loc)
	res := Result{HouseID: houseID, Week: current}
	log := s.logger.With("house_id", houseID, "week", current.String())

	existing, err := s.assignments.Find(ctx, store.AssignmentFilter{HouseID: houseID, Covering: &current})
	if err != nil {
		return res, fmt.Errorf("check existing assignments: %w", err)
	}
	if len(existing) > 0 {
		log.Info("assignments already generated", "count", len(existing))
		return s.skip(res, SkipAlreadyGenerated), nil
	}

	house, err := s.houses.GetByID(ctx, houseID)
	if err != nil {
		return res, fmt.Errorf("get house: %w", err)
	}
	if house == nil {
		log.Warn("house not found")
		return s.skip(res, SkipNoHouse), nil
	}

	members, err := s.users.ListByHouse(ctx, houseID)
	if err != nil {
		return res, fmt.Errorf("list members: %w", err)
	}
	if len(members) == 0 {
		log.Warn("house has no members")
		return s.skip(res, SkipNoMembers), nil
	}

	chores, err := s.chores.ListActive(ctx, houseID, current)
	if err != nil {
		return res, fmt.Errorf("list active chores: %w", err)
	}
	if len(chores) == 0 {
		log.Info("house has no active chores")
		return s.skip(res, SkipNoChores), nil
	}

	history, err := s.assignments.Find(ctx, store.AssignmentFilter{
		HouseID:     houseID,
		StartFrom:   current.Shift(-HistoryWeeks).Start,
		StartBefore: current.Start,
	})
	if err != nil {
		return res, fmt.Errorf("load assignment history: %w", err)
	}

	ordered := orderByLoad(members, tally(members, history))
	planned := distribute(chores, ordered, now)

	created, err := s.assignments.CreateWeek(ctx, houseID, current, planned)
	if errors.Is(err, store.ErrWeekAlreadyGenerated) {
		log.Info("week generated concurrently")
		return s.skip(res, SkipAlreadyGenerated), nil
	}
	if err != nil {
		return res, fmt.Errorf("create assignments: %w", err)
	}

	res.Assignments = created
	s.metrics.generated(len(created))
	log.Info("assignments generated", "count", len(created), "members", len(members))

	if s.notifier != nil {
		s.notifier.AssignmentsGenerated(ctx, houseID, created)
	}
	return res, nil
}

func (s *Service) skip(res Result, reason SkipReason) Result {
	res.Skipped = reason
	s.metrics.skipped()
	return res
}

// RotateAll runs GenerateWeekly for every house. A failing house is logged
// and counted; the sweep always continues.
func (s *Service) RotateAll(ctx context.Context) (Summary, error) {
	sum := Summary{RunID: uuid.NewString()}
	log := s.logger.With("run_id", sum.RunID)

	ids, err := s.houses.ListIDs(ctx)
	if err != nil {
		return sum, fmt.Errorf("list houses: %w", err)
	}
	sum.Houses = len(ids)

	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return sum, err
		}
		res, err := s.GenerateWeekly(ctx, id)
		switch {
		case err != nil:
			sum.Failed++
			s.metrics.failed()
			log.Error("generate weekly assignments", "house_id", id, "error", err)
		case res.Skipped != "":
			sum.Skipped++
		default:
			sum.Generated++
			sum.Created += len(res.Assignments)
		}
	}

	log.Info("rotation complete",
		"houses", sum.Houses, "generated", sum.Generated,
		"skipped", sum.Skipped, "failed", sum.Failed, "created", sum.Created)
	return sum, nil
}

// UpdateStreaks increments the streak of every user who completed at least
// one assignment during the previous week. Other users are left alone.
func (s *Service) UpdateStreaks(ctx context.Context) (StreakSummary, error) {
	prev := week.Of(s.now(), s.loc).Previous()
	sum := StreakSummary{Week: prev}
	log := s.logger.With("week", prev.String())

	assignments, err := s.assignments.Find(ctx, store.AssignmentFilter{Covering: &prev})
	if err != nil {
		return sum, fmt.Errorf("list previous week assignments: %w", err)
	}

	qualified := make(map[int64]bool)
	for _, a := range assignments {
		if a.Status == model.AssignmentCompleted {
			qualified[a.UserID] = true
		}
	}
	userIDs := make([]int64, 0, len(qualified))
	for id := range qualified {
		userIDs = append(userIDs, id)
	}
	sort.Slice(userIDs, func(i, j int) bool { return userIDs[i] < userIDs[j] })
	sum.Qualified = len(userIDs)

	for _, id := range userIDs {
		if err := ctx.Err(); err != nil {
			return sum, err
		}
		u, err := s.users.GetByID(ctx, id)
		if err != nil {
			sum.Failed++
			log.Error("get user for streak", "user_id", id, "error", err)
			continue
		}
		if u == nil {
			continue
		}
		if err := s.users.SetStreak(ctx, id, u.Streak+1); err != nil {
			sum.Failed++
			log.Error("update streak", "user_id", id, "error", err)
			continue
		}
		sum.Incremented++
	}

	s.metrics.streaks(sum.Incremented)
	log.Info("streaks updated", "qualified", sum.Qualified, "incremented", sum.Incremented, "failed", sum.Failed)
	return sum, nil
}

// MarkMissed flags pending assignments from weeks that have already ended.
func (s *Service) MarkMissed(ctx context.Context) (int64, error) {
	current := week.Of(s.now(), s.loc)
	n, err := s.assignments.MarkMissed(ctx, current.Start)
	if err != nil {
		return 0, fmt.Errorf("mark missed assignments: %w", err)
	}
	s.metrics.missed(n)
	if n > 0 {
		s.logger.Info("assignments marked missed", "count", n, "before", current.Start)
	}
	return n, nil
}
