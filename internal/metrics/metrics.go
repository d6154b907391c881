package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "martis"

// Metrics tracks episode outcomes. A nil *Metrics is valid and records
// nothing.
type Metrics struct {
	Episodes         *prometheus.CounterVec
	Steps            *prometheus.CounterVec
	EpisodeReward    prometheus.Histogram
	EvaluatorSeconds prometheus.Histogram
}

// New creates the collectors and registers them with reg. A nil reg skips
// registration.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Episodes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "episodes_total",
			Help:      "Finished episodes by outcome.",
		}, []string{"outcome"}),
		Steps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "steps_total",
			Help:      "Environment steps by action.",
		}, []string{"action"}),
		EpisodeReward: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "episode_reward",
			Help:      "Terminal reward per episode.",
			Buckets:   prometheus.LinearBuckets(-1, 0.2, 11),
		}),
		EvaluatorSeconds: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "evaluator_seconds",
			Help:      "Time spent scoring submitted programs.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 4, 10),
		}),
	}
	if reg != nil {
		reg.MustRegister(m.Episodes, m.Steps, m.EpisodeReward, m.EvaluatorSeconds)
	}
	return m
}

func (m *Metrics) ObserveStep(action string) {
	if m == nil {
		return
	}
	m.Steps.WithLabelValues(action).Inc()
}

// ObserveEpisode counts an outcome. Failed episodes have no reward sample.
func (m *Metrics) ObserveEpisode(outcome string, reward float64, hasReward bool) {
	if m == nil {
		return
	}
	m.Episodes.WithLabelValues(outcome).Inc()
	if hasReward {
		m.EpisodeReward.Observe(reward)
	}
}

func (m *Metrics) ObserveEvaluation(d time.Duration) {
	if m == nil {
		return
	}
	m.EvaluatorSeconds.Observe(d.Seconds())
}
