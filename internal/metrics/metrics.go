package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Registry holds the application-specific Prometheus collectors.
	Registry = prometheus.NewRegistry()

	httpInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "ecopoints",
			Subsystem: "http",
			Name:      "inflight_requests",
			Help:      "Current number of in-flight HTTP requests.",
		},
	)

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "ecopoints",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests handled.",
		},
		[]string{"method", "path", "status"},
	)

	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "ecopoints",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10), // 5ms to ~5s
		},
		[]string{"method", "path"},
	)

	TasksRecorded = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "ecopoints",
			Subsystem: "ledger",
			Name:      "tasks_recorded_total",
			Help:      "Ledger entries created, by task category.",
		},
		[]string{"category"},
	)

	PointsAwarded = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "ecopoints",
			Subsystem: "ledger",
			Name:      "points_awarded_total",
			Help:      "Points added to user totals by new ledger entries.",
		},
	)

	LevelUps = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "ecopoints",
			Subsystem: "ledger",
			Name:      "level_ups_total",
			Help:      "Accruals that moved a user to a higher level.",
		},
	)

	MembershipChanges = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "ecopoints",
			Subsystem: "groups",
			Name:      "membership_changes_total",
			Help:      "Group joins and leaves.",
		},
		[]string{"action"},
	)

	AchievementsAwarded = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "ecopoints",
			Subsystem: "achievements",
			Name:      "awarded_total",
			Help:      "Achievements awarded to users.",
		},
	)
)

func init() {
	Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		httpInFlight,
		httpRequests,
		httpDuration,
		TasksRecorded,
		PointsAwarded,
		LevelUps,
		MembershipChanges,
		AchievementsAwarded,
	)
}

// Handler exposes the registry in the Prometheus text format.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

func IncrementInFlight() { httpInFlight.Inc() }
func DecrementInFlight() { httpInFlight.Dec() }

func RecordHTTPRequest(method, path, status string, duration time.Duration) {
	httpRequests.WithLabelValues(method, path, status).Inc()
	httpDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}
