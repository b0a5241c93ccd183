// Package week computes Monday-start calendar week intervals.
package week

import "time"

// Interval is a calendar week: Monday 00:00:00 through Sunday 23:59:59,
// both bounds inclusive.
type Interval struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Of returns the week containing t, evaluated in loc.
func Of(t time.Time, loc *time.Location) Interval {
	if loc == nil {
		loc = time.Local
	}
	t = t.In(loc)
	offset := (int(t.Weekday()) + 6) % 7
	start := time.Date(t.Year(), t.Month(), t.Day()-offset, 0, 0, 0, 0, loc)
	return fromStart(start)
}

func fromStart(start time.Time) Interval {
	return Interval{
		Start: start,
		End:   start.AddDate(0, 0, 7).Add(-time.Second),
	}
}

// Shift moves the interval by n weeks. Calendar arithmetic keeps the bounds
// on local midnight across DST changes.
func (w Interval) Shift(n int) Interval {
	return fromStart(w.Start.AddDate(0, 0, 7*n))
}

func (w Interval) Previous() Interval { return w.Shift(-1) }

func (w Interval) Next() Interval { return w.Shift(1) }

// Covers reports whether w fully brackets other.
func (w Interval) Covers(other Interval) bool {
	return !w.Start.After(other.Start) && !w.End.Before(other.End)
}

func (w Interval) Contains(t time.Time) bool {
	return !t.Before(w.Start) && !t.After(w.End)
}

// Days returns the seven local midnights of the week, Monday first.
func (w Interval) Days() []time.Time {
	days := make([]time.Time, 7)
	for i := range days {
		days[i] = w.Start.AddDate(0, 0, i)
	}
	return days
}

// UTC returns the interval with both bounds converted to UTC, the form
// stored in the database.
func (w Interval) UTC() Interval {
	return Interval{Start: w.Start.UTC(), End: w.End.UTC()}
}

func (w Interval) String() string {
	return w.Start.Format("2006-01-02") + ".." + w.End.Format("2006-01-02")
}
