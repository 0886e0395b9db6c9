package queue

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Outcomes recorded per task run.
const (
	statusOK      = "ok"
	statusError   = "error"
	statusSkipped = "skipped"
)

var (
	ProcessedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "roller_jobs_processed_total",
		Help: "Background jobs processed grouped by task type and status",
	}, []string{"task", "status"})

	JobDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "roller_jobs_duration_seconds",
		Help:    "Wall time of background job runs that did work",
		Buckets: []float64{0.01, 0.05, 0.25, 1, 5, 30},
	}, []string{"task"})

	LastRunTimestamp = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "roller_jobs_last_run_timestamp_seconds",
		Help: "Unix time of the last completed run per task type",
	}, []string{"task"})
)

// record counts one run of task. Successful runs also update the duration
// and last-run series.
func record(task, status string, started, finished time.Time) {
	ProcessedTotal.WithLabelValues(task, status).Inc()
	if status != statusOK {
		return
	}
	JobDuration.WithLabelValues(task).Observe(finished.Sub(started).Seconds())
	LastRunTimestamp.WithLabelValues(task).Set(float64(finished.Unix()))
}
