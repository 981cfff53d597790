package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	// OutcomeSuccess labels refreshes that produced a new snapshot.
	OutcomeSuccess = "success"
	// OutcomeError labels refreshes that failed to load records.
	OutcomeError = "error"

	// ReasonNoMatch labels dependency declarations that matched no service.
	ReasonNoMatch = "no_match"
	// ReasonInvalidPattern labels declarations that are not valid patterns.
	ReasonInvalidPattern = "invalid_pattern"
)

var (
	pipelineRunsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "mirador_status",
			Name:      "pipeline_runs_total",
			Help:      "Total number of group pipeline runs, partitioned by outcome.",
		},
		[]string{"outcome"},
	)

	pipelineDurationSeconds = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "mirador_status",
			Name:      "pipeline_seconds",
			Help:      "Group pipeline latency in seconds.",
			Buckets:   []float64{0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 1},
		},
	)

	groupOnline = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "mirador_status",
			Name:      "group_online",
			Help:      "1 when the rolled-up group status is online, 0 otherwise.",
		},
		[]string{"group"},
	)

	unresolvedDependencies = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "mirador_status",
			Name:      "unresolved_dependencies",
			Help:      "Dependency declarations in the latest snapshot that contributed no dependency, partitioned by reason.",
		},
		[]string{"reason"},
	)
)

// Register attaches mirador-status collectors to the supplied Prometheus registerer.
func Register(reg prometheus.Registerer) error {
	collectors := []prometheus.Collector{
		pipelineRunsTotal,
		pipelineDurationSeconds,
		groupOnline,
		unresolvedDependencies,
	}

	for _, collector := range collectors {
		if err := reg.Register(collector); err != nil {
			if _, ok := err.(prometheus.AlreadyRegisteredError); ok {
				continue
			}
			return err
		}
	}
	return nil
}

// ObservePipeline records a pipeline duration and outcome label.
func ObservePipeline(duration time.Duration, outcome string) {
	label := outcome
	if label != OutcomeError {
		label = OutcomeSuccess
	}
	pipelineRunsTotal.WithLabelValues(label).Inc()
	if duration < 0 {
		duration = 0
	}
	pipelineDurationSeconds.Observe(duration.Seconds())
}

// SetUnresolvedDependencies publishes the unresolved declarations of the
// latest snapshot. Values are replaced, not accumulated, so repeated refreshes
// of the same records report the same numbers.
func SetUnresolvedDependencies(noMatch, invalidPattern int) {
	unresolvedDependencies.WithLabelValues(ReasonNoMatch).Set(float64(noMatch))
	unresolvedDependencies.WithLabelValues(ReasonInvalidPattern).Set(float64(invalidPattern))
}

// SetGroupOnline publishes the rolled-up state of every group. Groups that are
// not part of the latest snapshot are dropped first.
func SetGroupOnline(states map[string]bool) {
	groupOnline.Reset()
	for id, online := range states {
		v := 0.0
		if online {
			v = 1
		}
		groupOnline.WithLabelValues(id).Set(v)
	}
}
