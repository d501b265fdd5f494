// Package metrics exposes engine activity as Prometheus counters, fed from
// the notification bus.
package metrics

import (
	"strconv"

	"github.com/AdamBeresnev/bracket-engine/internal/notify"
	"github.com/prometheus/client_golang/prometheus"
)

type Metrics struct {
	Declarations         *prometheus.CounterVec
	Disputes             *prometheus.CounterVec
	MatchesCompleted     *prometheus.CounterVec
	TournamentsCompleted prometheus.Counter
	IntegrityWarnings    prometheus.Counter
}

func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Declarations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "bracket",
			Name:      "score_declarations_total",
			Help:      "Accepted score declarations by resulting state.",
		}, []string{"outcome"}),
		Disputes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "bracket",
			Name:      "score_disputes_total",
			Help:      "Declarations that ended in a dispute.",
		}, []string{"level"}),
		MatchesCompleted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "bracket",
			Name:      "matches_completed_total",
			Help:      "Finalized matches.",
		}, []string{"override"}),
		TournamentsCompleted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "bracket",
			Name:      "tournaments_completed_total",
			Help:      "Tournaments that reached completed.",
		}),
		IntegrityWarnings: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "bracket",
			Name:      "integrity_warnings_total",
			Help:      "Routing steps skipped because the topology had no destination.",
		}),
	}
	reg.MustRegister(m.Declarations, m.Disputes, m.MatchesCompleted, m.TournamentsCompleted, m.IntegrityWarnings)
	return m
}

// Subscribe counts bus events until the returned func is called.
func (m *Metrics) Subscribe(b *notify.Bus) func() {
	cancels := []func(){
		notify.Subscribe(b, func(ev notify.ScoreDeclared) {
			m.Declarations.WithLabelValues(ev.Outcome).Inc()
		}),
		notify.Subscribe(b, func(ev notify.ScoreDisputed) {
			level := "match"
			if ev.GameID != nil {
				level = "game"
			}
			m.Disputes.WithLabelValues(level).Inc()
		}),
		notify.Subscribe(b, func(ev notify.MatchResult) {
			m.MatchesCompleted.WithLabelValues(strconv.FormatBool(ev.Override)).Inc()
		}),
		notify.Subscribe(b, func(notify.TournamentCompleted) {
			m.TournamentsCompleted.Inc()
		}),
		notify.Subscribe(b, func(notify.IntegrityWarning) {
			m.IntegrityWarnings.Inc()
		}),
	}
	return func() {
		for _, cancel := range cancels {
			cancel()
		}
	}
}
