package launch

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// verdictAborted labels runs that stopped before any server was launched.
const verdictAborted = "aborted"

// MetricsRegistry holds the launch metrics. The CLI writes it to a
// textfile when asked to.
var MetricsRegistry = prometheus.NewRegistry()

var (
	runsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "facetctl",
			Subsystem: "launch",
			Name:      "runs_total",
			Help:      "Total number of launch runs by cluster and verdict",
		},
		[]string{"cluster", "verdict"},
	)

	nodesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "facetctl",
			Subsystem: "launch",
			Name:      "nodes_total",
			Help:      "Total number of node outcomes by cluster and outcome",
		},
		[]string{"cluster", "outcome"},
	)

	stageDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "facetctl",
			Subsystem: "launch",
			Name:      "stage_duration_seconds",
			Help:      "Duration of per-node launch stages in seconds",
			Buckets:   prometheus.ExponentialBuckets(0.5, 2, 12), // 500ms to ~17min
		},
		[]string{"stage", "result"},
	)

	readinessAttempts = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "facetctl",
			Subsystem: "launch",
			Name:      "readiness_attempts",
			Help:      "Reachability attempts needed per node",
			Buckets:   prometheus.LinearBuckets(1, 2, 10),
		},
	)
)

func init() {
	MetricsRegistry.MustRegister(runsTotal, nodesTotal, stageDuration, readinessAttempts)
}

func result(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}

// recordStage records how long one node stage took.
func recordStage(stage Stage, start time.Time, err error) {
	stageDuration.WithLabelValues(string(stage), result(err)).Observe(time.Since(start).Seconds())
}

// recordReadinessAttempts records the attempts of one readiness wait.
func recordReadinessAttempts(attempts int) {
	if attempts > 0 {
		readinessAttempts.Observe(float64(attempts))
	}
}

// recordRun records a finished run and its node outcomes.
func recordRun(clusterName, verdict string, outcomes map[string]int) {
	runsTotal.WithLabelValues(clusterName, verdict).Inc()
	for outcome, n := range outcomes {
		nodesTotal.WithLabelValues(clusterName, outcome).Add(float64(n))
	}
}
