package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the game-flow instruments. A nil *Metrics is valid and records nothing.
type Metrics struct {
	Advances            *prometheus.CounterVec
	AdvancesDropped     prometheus.Counter
	ScoringDuration     prometheus.Histogram
	ActiveRooms         prometheus.Gauge
	PersistenceFailures *prometheus.CounterVec
}

func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Advances: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "payoffquiz",
			Name:      "advances_total",
			Help:      "Scoring passes run, by trigger reason.",
		}, []string{"reason"}),
		AdvancesDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "payoffquiz",
			Name:      "advances_dropped_total",
			Help:      "Advance requests dropped because another advance was in flight or stale.",
		}),
		ScoringDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "payoffquiz",
			Name:      "scoring_duration_seconds",
			Help:      "Time spent computing one scoring result.",
			Buckets:   prometheus.ExponentialBuckets(0.00005, 4, 8),
		}),
		ActiveRooms: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "payoffquiz",
			Name:      "active_rooms",
			Help:      "Rooms currently held in memory.",
		}),
		PersistenceFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "payoffquiz",
			Name:      "persistence_failures_total",
			Help:      "Failed writes to the result store, by operation.",
		}, []string{"op"}),
	}
	if reg != nil {
		reg.MustRegister(m.Advances, m.AdvancesDropped, m.ScoringDuration, m.ActiveRooms, m.PersistenceFailures)
	}
	return m
}

func (m *Metrics) Advance(reason string) {
	if m == nil {
		return
	}
	m.Advances.WithLabelValues(reason).Inc()
}

func (m *Metrics) Dropped() {
	if m == nil {
		return
	}
	m.AdvancesDropped.Inc()
}

func (m *Metrics) ObserveScoring(seconds float64) {
	if m == nil {
		return
	}
	m.ScoringDuration.Observe(seconds)
}

func (m *Metrics) RoomsChanged(delta float64) {
	if m == nil {
		return
	}
	m.ActiveRooms.Add(delta)
}

func (m *Metrics) PersistFailed(op string) {
	if m == nil {
		return
	}
	m.PersistenceFailures.WithLabelValues(op).Inc()
}
