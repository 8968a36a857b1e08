// internal/metrics/metrics.go
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	// AnalysesTotal counts finished analyses by result ("ok", a failure kind or "panic").
	AnalysesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "mealscan",
		Subsystem: "analysis",
		Name:      "total",
		Help:      "Total number of meal photo analyses, labeled by result.",
	}, []string{"result"})

	// AnalysisDurationSeconds is the end-to-end time of one Analyze call.
	AnalysisDurationSeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "mealscan",
		Subsystem: "analysis",
		Name:      "duration_seconds",
		Help:      "End-to-end time of a meal photo analysis, including model retries.",
		Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 20, 60, 120},
	}, []string{"result"})

	// ModelRetriesTotal counts repeated model requests after transient failures.
	ModelRetriesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "mealscan",
		Subsystem: "model",
		Name:      "retries_total",
		Help:      "Total number of vision model requests retried after a transient failure.",
	})
)

// Register adds the collectors to the default registry. Safe to call more than once.
func Register() {
	once.Do(func() {
		prometheus.MustRegister(
			AnalysesTotal,
			AnalysisDurationSeconds,
			ModelRetriesTotal,
		)
	})
}
