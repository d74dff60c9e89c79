package metrics

import (
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	registerOnce sync.Once

	taskStarted = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "shokofin",
		Name:      "tasks_started_total",
		Help:      "Total number of scheduled tasks started by key",
	}, []string{"task"})
	taskCompleted = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "shokofin",
		Name:      "tasks_completed_total",
		Help:      "Total number of scheduled tasks successfully completed by key",
	}, []string{"task"})
	taskFailed = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "shokofin",
		Name:      "tasks_failed_total",
		Help:      "Total number of scheduled tasks failed by key",
	}, []string{"task"})
	taskCanceled = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "shokofin",
		Name:      "tasks_canceled_total",
		Help:      "Total number of scheduled tasks canceled by key",
	}, []string{"task"})
	taskDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "shokofin",
		Name:      "task_duration_seconds",
		Help:      "Histogram of scheduled task durations in seconds by key",
		Buckets:   prometheus.ExponentialBuckets(0.05, 2, 12), // 50ms up to a few minutes
	}, []string{"task"})

	syncEpisodes = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "shokofin",
		Name:      "sync_episodes_total",
		Help:      "Total number of episodes examined by user data sync by direction",
	}, []string{"direction"})
	syncChanges = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "shokofin",
		Name:      "sync_changes_total",
		Help:      "Total number of user data entries changed by sync by direction",
	}, []string{"direction"})
	lastSyncGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "shokofin",
		Name:      "last_sync_timestamp_seconds",
		Help:      "Unix time of the last finished user data sync",
	})
)

// Register initializes metrics with the global Prometheus registry (idempotent)
func Register() {
	registerOnce.Do(func() {
		prometheus.MustRegister(taskStarted, taskCompleted, taskFailed, taskCanceled, taskDuration,
			syncEpisodes, syncChanges, lastSyncGauge)
	})
}

// Handler returns the HTTP handler exposing the registered metrics
func Handler() http.Handler {
	return promhttp.Handler()
}

// Task lifecycle helpers
func IncTaskStarted(key string)   { taskStarted.WithLabelValues(key).Inc() }
func IncTaskCompleted(key string) { taskCompleted.WithLabelValues(key).Inc() }
func IncTaskFailed(key string)    { taskFailed.WithLabelValues(key).Inc() }
func IncTaskCanceled(key string)  { taskCanceled.WithLabelValues(key).Inc() }
func ObserveTaskDuration(key string, d time.Duration) {
	taskDuration.WithLabelValues(key).Observe(d.Seconds())
}

// Sync helpers
func AddSyncEpisodes(direction string, n int) { syncEpisodes.WithLabelValues(direction).Add(float64(n)) }
func AddSyncChanges(direction string, n int)  { syncChanges.WithLabelValues(direction).Add(float64(n)) }
func SetLastSync(t time.Time)                 { lastSyncGauge.Set(float64(t.Unix())) }
