package metrics

import (
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Hub Metrics
var (
	// HubConnectedSessions tracks current authenticated live connections
	HubConnectedSessions = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "hub_connected_sessions",
			Help: "Current number of authenticated live connections",
		},
	)

	// HubRoomsCurrent tracks current number of non-empty group rooms
	HubRoomsCurrent = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "hub_rooms_current",
			Help: "Current number of non-empty group rooms",
		},
	)

	// HubConnectionsTotal tracks connection attempts by result
	HubConnectionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hub_connections_total",
			Help: "Total WebSocket connection attempts by result (success/auth_missing/auth_invalid/auth_expired/error)",
		},
		[]string{"result"},
	)

	// HubBroadcastsTotal tracks broadcast invocations
	HubBroadcastsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "hub_broadcasts_total",
			Help: "Total broadcast invocations",
		},
	)

	// HubMessagesSentTotal tracks frames handed to session writers
	HubMessagesSentTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "hub_messages_sent_total",
			Help: "Total frames handed to session writers",
		},
	)

	// HubFramesDropped tracks frames dropped because a session buffer was full
	HubFramesDropped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "hub_frames_dropped_total",
			Help: "Total frames dropped because a session send buffer was full",
		},
	)

	// HubHeartbeatEvictions tracks sessions evicted for failing a probe cycle
	HubHeartbeatEvictions = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "hub_heartbeat_evictions_total",
			Help: "Total sessions evicted after failing a heartbeat probe cycle",
		},
	)

	// HubMalformedMessages tracks inbound frames that failed to parse
	HubMalformedMessages = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "hub_malformed_messages_total",
			Help: "Total inbound frames ignored because they failed to parse",
		},
	)

	// WebSocketConnectionDuration tracks connection lifetime
	WebSocketConnectionDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "websocket_connection_duration_seconds",
			Help:    "WebSocket connection duration in seconds",
			Buckets: []float64{1, 5, 10, 30, 60, 300, 600, 1800, 3600},
		},
	)

	// WebSocketConnectionsRejected tracks rejected connection attempts by reason
	WebSocketConnectionsRejected = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "websocket_connections_rejected_total",
			Help: "Total WebSocket connections rejected by reason (rate_limit/ip_limit/global_limit)",
		},
		[]string{"reason"},
	)

	// WebSocketConnectionCapacity tracks global capacity utilization as percentage
	WebSocketConnectionCapacity = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "websocket_connection_capacity_percent",
			Help: "Current WebSocket connection capacity utilization (0-100%)",
		},
	)

	// WebSocketUniqueIPs tracks number of unique IP addresses with active connections
	WebSocketUniqueIPs = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "websocket_unique_ips",
			Help: "Number of unique IP addresses with active WebSocket connections",
		},
	)
)

// Selection & Conflict Metrics
var (
	// SelectionsTotal tracks selection writes by action
	SelectionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "selections_total",
			Help: "Total selection writes by action (added/removed)",
		},
		[]string{"action"},
	)

	// ConflictChecksTotal tracks conflict detector invocations
	ConflictChecksTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "conflict_checks_total",
			Help: "Total conflict detector invocations",
		},
	)

	// ConflictsFoundTotal tracks conflicts reported across all checks
	ConflictsFoundTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "conflicts_found_total",
			Help: "Total conflicts reported across all checks",
		},
	)

	// InvitesCreatedTotal tracks minted invite codes
	InvitesCreatedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "invites_created_total",
			Help: "Total invite codes minted",
		},
	)

	// InviteRedemptionsTotal tracks invite redemption attempts by result
	InviteRedemptionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "invite_redemptions_total",
			Help: "Total invite redemption attempts by result (success/not_found/error)",
		},
		[]string{"result"},
	)

	// PlaylistBuildsTotal tracks playlist build attempts by result
	PlaylistBuildsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "playlist_builds_total",
			Help: "Total playlist build attempts by result (local/external/error)",
		},
		[]string{"result"},
	)
)

// Redis Operations Metrics
var (
	// RedisOpsTotal tracks total Redis operations by operation type and status
	RedisOpsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "redis_operations_total",
			Help: "Total Redis operations by operation and status",
		},
		[]string{"operation", "status"},
	)

	// RedisOpDuration tracks Redis operation latency in seconds
	RedisOpDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "redis_operation_duration_seconds",
			Help:    "Redis operation duration in seconds",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
		},
		[]string{"operation"},
	)

	// RedisConnectionErrors tracks Redis connection errors
	RedisConnectionErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "redis_connection_errors_total",
			Help: "Total Redis connection errors",
		},
	)

	// CircuitBreakerStateChanges tracks circuit breaker state transitions
	CircuitBreakerStateChanges = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_state_changes_total",
			Help: "Circuit breaker state transitions by component and new state",
		},
		[]string{"component", "state"},
	)

	// CircuitBreakerState tracks current circuit breaker state (0=closed, 1=half-open, 2=open)
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Current circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"component"},
	)
)

// Database Metrics
var (
	// DBQueryDuration tracks database query duration by query name
	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "db_query_duration_seconds",
			Help:    "Database query duration in seconds",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
		},
		[]string{"query"},
	)

	// DBConnectionsCurrent tracks current database connections by state
	DBConnectionsCurrent = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "db_connections_current",
			Help: "Current database connections by state (active/idle)",
		},
		[]string{"state"},
	)

	// DBErrorsTotal tracks database errors by query name
	DBErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "db_errors_total",
			Help: "Total database errors by query",
		},
		[]string{"query"},
	)
)

// HTTP Request Metrics
var (
	// HTTPRequestDuration tracks request duration by method, route and status
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route", "status_code"},
	)

	// HTTPRequestsTotal tracks requests by method, route and status
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "status_code"},
	)

	// HTTPInFlightRequests tracks requests currently being processed
	HTTPInFlightRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "http_in_flight_requests",
			Help: "Number of HTTP requests currently being processed",
		},
	)
)

// Build Information Metrics
var (
	// BuildInfo is a gauge that always returns 1, with build metadata as labels
	BuildInfo = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "build_info",
			Help: "Build information with version, commit, build_time, and go_version labels (value is always 1)",
		},
		[]string{"version", "commit", "build_time", "go_version"},
	)
)

// HTTPMiddleware returns an Echo middleware that records HTTP request
// metrics. It skips /metrics and /health/* endpoints.
func HTTPMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			path := c.Path()
			if path == "/metrics" || strings.HasPrefix(path, "/health/") {
				return next(c)
			}

			HTTPInFlightRequests.Inc()
			defer HTTPInFlightRequests.Dec()

			timer := prometheus.NewTimer(prometheus.ObserverFunc(func(v float64) {
				status := strconv.Itoa(c.Response().Status)
				HTTPRequestDuration.WithLabelValues(c.Request().Method, path, status).Observe(v)
				HTTPRequestsTotal.WithLabelValues(c.Request().Method, path, status).Inc()
			}))

			err := next(c)
			timer.ObserveDuration()
			return err
		}
	}
}

// HTTP Error Metrics
// Note: http_errors_total{type} is provided by internal/errors package
