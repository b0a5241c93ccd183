package rotation

import "github.com/prometheus/client_golang/prometheus"

// Metrics holds the rotation counters. A nil *Metrics records nothing.
type Metrics struct {
	assignmentsCreated prometheus.Counter
	houses             *prometheus.CounterVec
	streaksIncremented prometheus.Counter
	assignmentsMissed  prometheus.Counter
}

// NewMetrics creates the rotation counters and registers them on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		assignmentsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "choreshare",
			Subsystem: "rotation",
			Name:      "assignments_created_total",
			Help:      "Assignments written by weekly generation.",
		}),
		houses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "choreshare",
			Subsystem: "rotation",
			Name:      "houses_total",
			Help:      "Houses processed by weekly generation, by outcome.",
		}, []string{"outcome"}),
		streaksIncremented: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "choreshare",
			Subsystem: "rotation",
			Name:      "streaks_incremented_total",
			Help:      "User streaks incremented after a week with a completed assignment.",
		}),
		assignmentsMissed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "choreshare",
			Subsystem: "rotation",
			Name:      "assignments_missed_total",
			Help:      "Pending assignments marked missed after their week ended.",
		}),
	}
	reg.MustRegister(m.assignmentsCreated, m.houses, m.streaksIncremented, m.assignmentsMissed)
	return m
}

func (m *Metrics) generated(created int) {
	if m == nil {
		return
	}
	m.houses.WithLabelValues("generated").Inc()
	m.assignmentsCreated.Add(float64(created))
}

func (m *Metrics) skipped() {
	if m == nil {
		return
	}
	m.houses.WithLabelValues("skipped").Inc()
}

func (m *Metrics) failed() {
	if m == nil {
		return
	}
	m.houses.WithLabelValues("failed").Inc()
}

func (m *Metrics) streaks(n int) {
	if m == nil {
		return
	}
	m.streaksIncremented.Add(float64(n))
}

func (m *Metrics) missed(n int64) {
	if m == nil {
		return
	}
	m.assignmentsMissed.Add(float64(n))
}
