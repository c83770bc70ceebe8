package statsync

import (
	"time"

	"player-statistics/core/workerpool"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const metricsNamespace = "player_statistics"

const (
	resultSuccess = "success"
	resultFailure = "failure"
	resultSkipped = "skipped"
)

// Phase labels.
const (
	phaseInitialize = "initialize"
	phaseUpsert     = "upsert"
	phaseNicknames  = "nicknames"
	phaseRanking    = "ranking"
	phaseHallOfFame = "hall_of_fame"
	phaseCommit     = "commit"
)

// Metrics exposes pass and phase counters. A nil *Metrics records nothing.
type Metrics struct {
	passes        *prometheus.CounterVec
	phaseDuration *prometheus.HistogramVec
	phaseTasks    *prometheus.CounterVec
	lastSuccess   prometheus.Gauge
}

// NewMetrics registers the sync metrics on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		passes: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "passes_total",
			Help:      "Total number of sync passes by result",
		}, []string{"result"}),
		phaseDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Name:      "phase_duration_seconds",
			Help:      "Duration of each sync phase",
			Buckets:   prometheus.ExponentialBuckets(0.01, 4, 8),
		}, []string{"phase"}),
		phaseTasks: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "phase_tasks_total",
			Help:      "Worker pool tasks by phase and outcome",
		}, []string{"phase", "outcome"}),
		lastSuccess: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Name:      "last_success_timestamp_seconds",
			Help:      "Unix time of the last committed pass",
		}),
	}
}

func (m *Metrics) observePass(result string, committed time.Time) {
	if m == nil {
		return
	}
	m.passes.WithLabelValues(result).Inc()
	if !committed.IsZero() {
		m.lastSuccess.Set(float64(committed.Unix()))
	}
}

func (m *Metrics) observePhase(phase string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.phaseDuration.WithLabelValues(phase).Observe(elapsed.Seconds())
}

func (m *Metrics) observePool(phase string, res workerpool.Result) {
	if m == nil {
		return
	}
	m.observePhase(phase, res.Elapsed)
	m.phaseTasks.WithLabelValues(phase, "completed").Add(float64(res.Completed))
	m.phaseTasks.WithLabelValues(phase, "failed").Add(float64(res.Failed))
	m.phaseTasks.WithLabelValues(phase, "cancelled").Add(float64(res.Cancelled))
}
