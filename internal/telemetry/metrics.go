package telemetry

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics collects Prometheus metrics for the moltbot scheduler.
type Metrics struct {
	CyclesTotal      *prometheus.CounterVec // status: completed|skipped
	PersonaRunsTotal *prometheus.CounterVec // persona, status: done|errored
	ActionsTotal     *prometheus.CounterVec // persona, action: visit|endorse|comment|author
	CycleDuration    prometheus.Histogram
}

// NewMetrics creates and registers the moltbot metric set.
// Pass prometheus.DefaultRegisterer outside of tests.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		CyclesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "moltbot",
			Name:      "scheduler_cycles_total",
			Help:      "Scheduler trigger firings by outcome.",
		}, []string{"status"}),
		PersonaRunsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "moltbot",
			Name:      "persona_runs_total",
			Help:      "Persona work cycles by terminal state.",
		}, []string{"persona", "status"}),
		ActionsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "moltbot",
			Name:      "persona_actions_total",
			Help:      "Forum actions performed, by persona and kind.",
		}, []string{"persona", "action"}),
		CycleDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: "moltbot",
			Name:      "scheduler_cycle_duration_seconds",
			Help:      "Wall-clock duration of one full scheduler cycle.",
			Buckets:   []float64{1, 5, 15, 30, 60, 120, 300, 600, 1800},
		}),
	}
}

// ObserveCycle records one completed scheduler cycle.
func (m *Metrics) ObserveCycle(d time.Duration) {
	m.CyclesTotal.WithLabelValues("completed").Inc()
	m.CycleDuration.Observe(d.Seconds())
}

// ObserveSkippedCycle records a trigger firing that was ignored
// because a cycle was already in progress.
func (m *Metrics) ObserveSkippedCycle() {
	m.CyclesTotal.WithLabelValues("skipped").Inc()
}
