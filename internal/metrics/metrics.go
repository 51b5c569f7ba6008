// Package metrics provides Prometheus metrics for monitoring the analytics pipeline.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	AnalysesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "taskpulse_analyses_total",
			Help: "Total number of analytics computations by kind",
		},
		[]string{"kind"},
	)
	AnalysisDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "taskpulse_analysis_duration_seconds",
			Help:    "Analytics computation duration in seconds",
			Buckets: []float64{.0005, .001, .0025, .005, .01, .025, .05, .1, .25, .5, 1, 2.5},
		},
		[]string{"kind"},
	)
	AlertsGenerated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "taskpulse_alerts_generated_total",
			Help: "Total number of proactive alerts generated",
		},
		[]string{"type", "severity"},
	)
	CacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "taskpulse_cache_hits_total",
			Help: "Total number of analytics cache hits",
		},
		[]string{"kind"},
	)
	CacheMisses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "taskpulse_cache_misses_total",
			Help: "Total number of analytics cache misses",
		},
		[]string{"kind"},
	)
	RefreshRuns = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "taskpulse_refresh_runs_total",
			Help: "Total number of cache refresh cycles",
		},
	)
	RefreshedUsers = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "taskpulse_refreshed_users",
			Help: "Number of users refreshed in the last cycle",
		},
	)
	TasksAnalyzed = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "taskpulse_tasks_analyzed",
			Help:    "Task snapshot sizes handed to the analytics core",
			Buckets: []float64{0, 5, 10, 25, 50, 100, 250, 500, 1000, 2500},
		},
	)
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "taskpulse_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "taskpulse_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint"},
	)
)

func RecordAnalysis(kind string, duration time.Duration) {
	AnalysesTotal.WithLabelValues(kind).Inc()
	AnalysisDuration.WithLabelValues(kind).Observe(duration.Seconds())
}

func RecordAlert(alertType, severity string) {
	AlertsGenerated.WithLabelValues(alertType, severity).Inc()
}

func RecordCacheHit(kind string) {
	CacheHits.WithLabelValues(kind).Inc()
}

func RecordCacheMiss(kind string) {
	CacheMisses.WithLabelValues(kind).Inc()
}

func RecordRefresh(userCount int) {
	RefreshRuns.Inc()
	RefreshedUsers.Set(float64(userCount))
}

func RecordSnapshotSize(taskCount int) {
	TasksAnalyzed.Observe(float64(taskCount))
}

func RecordHTTPRequest(method, endpoint, status string, duration time.Duration) {
	HTTPRequestsTotal.WithLabelValues(method, endpoint, status).Inc()
	HTTPRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}
