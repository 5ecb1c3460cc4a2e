// Dino - Multi-node Real-time Chat Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/dino

package metrics

import (
	"errors"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	gobreaker "github.com/sony/gobreaker/v2"
)

var (
	// Repository Metrics
	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "dino_db_query_duration_seconds",
			Help:    "Duration of repository operations in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)

	DBQueryErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dino_db_query_errors_total",
			Help: "Total number of failed repository operations",
		},
		[]string{"operation"},
	)

	// Cache Metrics
	CacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dino_cache_hits_total",
			Help: "Cache hits by tier",
		},
		[]string{"tier"},
	)

	CacheMisses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dino_cache_misses_total",
			Help: "Cache misses by tier",
		},
		[]string{"tier"},
	)

	// HTTP Metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dino_http_requests_total",
			Help: "Total number of REST requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "dino_http_request_duration_seconds",
			Help:    "REST request latency in seconds",
			Buckets: []float64{.001, .005, .01, .05, .1, .5, 1, 5, 10},
		},
		[]string{"method", "endpoint"},
	)

	APIActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "dino_http_requests_in_flight",
			Help: "Number of REST requests being served",
		},
	)

	// Socket Metrics
	ConnectedSockets = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "dino_connected_sockets",
			Help: "Sockets bound to a user on this node",
		},
	)

	OpenConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "dino_open_connections",
			Help: "Open websocket connections including unauthenticated ones",
		},
	)

	EventsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dino_events_total",
			Help: "Client events handled, by verb and reply code",
		},
		[]string{"verb", "code"},
	)

	EventDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "dino_event_duration_seconds",
			Help:    "Time to handle a client event",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"verb"},
	)

	EventsRateLimited = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "dino_events_rate_limited_total",
			Help: "Client events rejected by the per-socket rate limiter",
		},
	)

	OutboundDropped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "dino_outbound_dropped_total",
			Help: "Frames dropped because a socket send buffer was full",
		},
	)

	// Routing Metrics
	MessagesRouted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dino_messages_routed_total",
			Help: "Messages accepted by the router, by target type",
		},
		[]string{"target_type"},
	)

	BlacklistHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "dino_blacklist_hits_total",
			Help: "Messages containing a blacklisted word",
		},
	)

	WhisperDenied = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dino_whisper_denied_total",
			Help: "Whispers rejected, by reason",
		},
		[]string{"reason"},
	)

	// Moderation Metrics
	ModerationActions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dino_moderation_actions_total",
			Help: "Kicks and bans applied, by action and scope",
		},
		[]string{"action", "scope"},
	)

	LocalEnforcements = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dino_local_enforcements_total",
			Help: "Cluster moderation events enforced on local sockets",
		},
		[]string{"action"},
	)

	// Bus Metrics
	BusPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dino_bus_published_total",
			Help: "Events published on the bus",
		},
		[]string{"topic"},
	)

	BusPublishFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dino_bus_publish_failures_total",
			Help: "Publish attempts that failed",
		},
		[]string{"topic"},
	)

	BusFallbacks = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "dino_bus_external_fallbacks_total",
			Help: "External events rerouted to the internal bus after retries",
		},
	)

	BusConsumed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dino_bus_consumed_total",
			Help: "Events consumed from the bus",
		},
		[]string{"topic"},
	)

	BusDeduplicated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "dino_bus_deduplicated_total",
			Help: "Internal events skipped as duplicates",
		},
	)

	BusRevisionDropped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "dino_bus_revision_dropped_total",
			Help: "Internal events dropped after reaching the revision cap",
		},
	)

	BusDelegated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "dino_bus_delegated_total",
			Help: "Internal events republished with an incremented revision",
		},
	)

	BusParseFailed = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "dino_bus_parse_failed_total",
			Help: "Bus payloads that could not be decoded",
		},
	)

	// Heartbeat Metrics
	HeartbeatExpired = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "dino_heartbeat_expired_total",
			Help: "Users disconnected by the heartbeat reaper",
		},
	)

	HeartbeatTracked = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "dino_heartbeat_tracked_users",
			Help: "Users in the reaper's last-seen table",
		},
	)

	// Circuit Breaker Metrics
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "dino_circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dino_circuit_breaker_requests_total",
			Help: "Total number of requests through circuit breaker",
		},
		[]string{"name", "result"}, // result: "success", "failure", "rejected"
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dino_circuit_breaker_state_transitions_total",
			Help: "Total number of circuit breaker state transitions",
		},
		[]string{"name", "from_state", "to_state"},
	)

	// System Metrics
	AppInfo = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "dino_app_info",
			Help: "Application version and node id",
		},
		[]string{"version", "node_id"},
	)

	AppUptime = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "dino_app_uptime_seconds",
			Help: "Application uptime in seconds",
		},
	)
)

// RecordDBQuery records a repository operation.
func RecordDBQuery(operation string, duration time.Duration, err error) {
	DBQueryDuration.WithLabelValues(operation).Observe(duration.Seconds())
	if err != nil {
		DBQueryErrors.WithLabelValues(operation).Inc()
	}
}

// RecordCache records a lookup against a cache tier.
func RecordCache(tier string, hit bool) {
	if hit {
		CacheHits.WithLabelValues(tier).Inc()
	} else {
		CacheMisses.WithLabelValues(tier).Inc()
	}
}

// RecordAPIRequest records a REST request.
func RecordAPIRequest(method, endpoint, statusCode string, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, statusCode).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// TrackActiveRequest tracks in-flight REST requests.
func TrackActiveRequest(inc bool) {
	if inc {
		APIActiveRequests.Inc()
	} else {
		APIActiveRequests.Dec()
	}
}

// RecordEvent records a handled client event.
func RecordEvent(verb string, code int, duration time.Duration) {
	EventsTotal.WithLabelValues(verb, strconv.Itoa(code)).Inc()
	EventDuration.WithLabelValues(verb).Observe(duration.Seconds())
}

// RecordPublish records a publish attempt on topic.
func RecordPublish(topic string, err error) {
	if err != nil {
		BusPublishFailures.WithLabelValues(topic).Inc()
		return
	}
	BusPublished.WithLabelValues(topic).Inc()
}

// BreakerStateString names a gobreaker state.
func BreakerStateString(s gobreaker.State) string {
	switch s {
	case gobreaker.StateClosed:
		return "closed"
	case gobreaker.StateHalfOpen:
		return "half-open"
	case gobreaker.StateOpen:
		return "open"
	default:
		return "unknown"
	}
}

func breakerStateValue(s gobreaker.State) float64 {
	switch s {
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return 0
	}
}

// RecordBreakerTransition is meant for gobreaker.Settings.OnStateChange.
func RecordBreakerTransition(name string, from, to gobreaker.State) {
	CircuitBreakerState.WithLabelValues(name).Set(breakerStateValue(to))
	CircuitBreakerTransitions.WithLabelValues(name, BreakerStateString(from), BreakerStateString(to)).Inc()
}

// RecordBreakerResult classifies the outcome of a call made through a
// breaker.
func RecordBreakerResult(name string, err error) {
	switch {
	case err == nil:
		CircuitBreakerRequests.WithLabelValues(name, "success").Inc()
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		CircuitBreakerRequests.WithLabelValues(name, "rejected").Inc()
	default:
		CircuitBreakerRequests.WithLabelValues(name, "failure").Inc()
	}
}
