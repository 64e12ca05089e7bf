package metrics

import (
	"database/sql"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog"
)

const (
	metricPrefix = "dashboard_"

	resultSuccess = "success"
	resultError   = "error"

	pollRan              = "ran"
	pollSkippedNoSession = "skipped_no_session"
	pollSkippedOverlap   = "skipped_overlap"
)

var (
	registerOnce sync.Once

	httpRequests *prometheus.CounterVec
	httpLatency  *prometheus.HistogramVec

	adminAPIRequests *prometheus.CounterVec
	adminAPILatency  *prometheus.HistogramVec
	breakerState     *prometheus.GaugeVec

	dashboardBuildTotal   *prometheus.CounterVec
	dashboardBuildLatency *prometheus.HistogramVec
	dashboardOrders       prometheus.Gauge
	dashboardExportTotal  *prometheus.CounterVec

	notificationOps     *prometheus.CounterVec
	notificationLatency *prometheus.HistogramVec
	notificationsUnread prometheus.Gauge
	pollTicks           *prometheus.CounterVec
	noticesTotal        *prometheus.CounterVec
)

// Init registers dashboard metrics and, when db is set, connection pool gauges.
func Init(db *sql.DB, logger zerolog.Logger) {
	registerOnce.Do(func() {
		httpRequests = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "http_requests_total",
				Help: "Total HTTP requests by route and status",
			},
			[]string{"method", "route", "status"},
		)
		httpLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "http_request_duration_seconds",
				Help:    "HTTP request latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		)

		adminAPIRequests = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "admin_api_requests_total",
				Help: "Total admin API calls by operation and result",
			},
			[]string{"operation", "result"},
		)
		adminAPILatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "admin_api_latency_seconds",
				Help:    "Admin API call latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		)
		breakerState = prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: metricPrefix + "admin_api_breaker_open",
				Help: "1 while the admin API circuit breaker is not closed",
			},
			[]string{"breaker"},
		)

		dashboardBuildTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "build_total",
				Help: "Total dashboard metric computations by result",
			},
			[]string{"result"},
		)
		dashboardBuildLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "build_latency_seconds",
				Help:    "Dashboard build latency in seconds, including the order fetch",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"result"},
		)
		dashboardOrders = prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: metricPrefix + "orders_aggregated",
				Help: "Number of orders in the last dashboard computation",
			},
		)
		dashboardExportTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "export_total",
				Help: "Total dashboard exports by format and result",
			},
			[]string{"format", "result"},
		)

		notificationOps = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "notification_operations_total",
				Help: "Total notification store operations by operation and outcome",
			},
			[]string{"operation", "outcome"},
		)
		notificationLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "notification_operation_latency_seconds",
				Help:    "Notification store operation latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		)
		notificationsUnread = prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: metricPrefix + "notifications_unread",
				Help: "Current unread notification count",
			},
		)
		pollTicks = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "notification_poll_ticks_total",
				Help: "Notification poll ticks by result",
			},
			[]string{"result"},
		)
		noticesTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "notices_total",
				Help: "User-facing notices by level",
			},
			[]string{"level"},
		)

		prometheus.MustRegister(
			httpRequests,
			httpLatency,
			adminAPIRequests,
			adminAPILatency,
			breakerState,
			dashboardBuildTotal,
			dashboardBuildLatency,
			dashboardOrders,
			dashboardExportTotal,
			notificationOps,
			notificationLatency,
			notificationsUnread,
			pollTicks,
			noticesTotal,
		)

		if db != nil {
			registerDBMetrics(db, logger)
		}
	})
}

func registerDBMetrics(db *sql.DB, logger zerolog.Logger) {
	if err := prometheus.Register(collectors.NewDBStatsCollector(db, "audit")); err != nil {
		logger.Warn().Err(err).Msg("register db stats collector")
	}
}

// ObserveHTTPRequest records one served request.
func ObserveHTTPRequest(method, route string, status int, duration time.Duration) {
	if route == "" {
		route = "unmatched"
	}
	if httpRequests != nil {
		httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	}
	if httpLatency != nil {
		httpLatency.WithLabelValues(method, route).Observe(duration.Seconds())
	}
}

// ObserveAdminAPI records an admin API call.
func ObserveAdminAPI(operation string, err error, duration time.Duration) {
	if operation == "" {
		operation = "unknown"
	}
	if adminAPIRequests != nil {
		adminAPIRequests.WithLabelValues(operation, resultOf(err)).Inc()
	}
	if adminAPILatency != nil {
		adminAPILatency.WithLabelValues(operation).Observe(duration.Seconds())
	}
}

// SetBreakerState exports the breaker state as 0 (closed) or 1 (open or half-open).
func SetBreakerState(name, state string) {
	if breakerState == nil {
		return
	}
	value := 0.0
	if state != "closed" {
		value = 1
	}
	breakerState.WithLabelValues(name).Set(value)
}

// ObserveDashboardBuild records a dashboard computation.
func ObserveDashboardBuild(err error, orders int, duration time.Duration) {
	result := resultOf(err)
	if dashboardBuildTotal != nil {
		dashboardBuildTotal.WithLabelValues(result).Inc()
	}
	if dashboardBuildLatency != nil {
		dashboardBuildLatency.WithLabelValues(result).Observe(duration.Seconds())
	}
	if err == nil && dashboardOrders != nil {
		dashboardOrders.Set(float64(orders))
	}
}

// IncDashboardExport counts an export by format and result.
func IncDashboardExport(format string, err error) {
	if format == "" {
		format = "unknown"
	}
	if dashboardExportTotal != nil {
		dashboardExportTotal.WithLabelValues(format, resultOf(err)).Inc()
	}
}

// ObserveNotificationOperation records a store operation outcome.
func ObserveNotificationOperation(operation, outcome string, duration time.Duration) {
	if outcome == "" {
		outcome = "unknown"
	}
	if notificationOps != nil {
		notificationOps.WithLabelValues(operation, outcome).Inc()
	}
	if notificationLatency != nil {
		notificationLatency.WithLabelValues(operation).Observe(duration.Seconds())
	}
}

// SetUnreadNotifications sets the unread gauge.
func SetUnreadNotifications(count int) {
	if count < 0 {
		count = 0
	}
	if notificationsUnread != nil {
		notificationsUnread.Set(float64(count))
	}
}

// IncPollTick counts a poll tick by result.
func IncPollTick(result string) {
	if result == "" {
		result = "unknown"
	}
	if pollTicks != nil {
		pollTicks.WithLabelValues(result).Inc()
	}
}

// IncNotice counts a user-facing notice.
func IncNotice(level string) {
	if level == "" {
		level = "unknown"
	}
	if noticesTotal != nil {
		noticesTotal.WithLabelValues(level).Inc()
	}
}

func resultOf(err error) string {
	if err != nil {
		return resultError
	}
	return resultSuccess
}

// Exported constants for callers.
const (
	ResultSuccess = resultSuccess
	ResultError   = resultError

	PollRan              = pollRan
	PollSkippedNoSession = pollSkippedNoSession
	PollSkippedOverlap   = pollSkippedOverlap
)
