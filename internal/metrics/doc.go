// Dino - Multi-node Real-time Chat Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/dino

/*
Package metrics provides Prometheus collectors for the chat node.

Collectors are registered on the default registry through promauto and
exposed by the REST server at stats.path (default /metrics) when
stats.enabled is set.

# Available Metrics

Sockets and events:
  - dino_open_connections, dino_connected_sockets (gauges)
  - dino_events_total{verb,code}, dino_event_duration_seconds{verb}
  - dino_events_rate_limited_total, dino_outbound_dropped_total

Routing and moderation:
  - dino_messages_routed_total{target_type}
  - dino_blacklist_hits_total, dino_whisper_denied_total{reason}
  - dino_moderation_actions_total{action,scope}
  - dino_local_enforcements_total{action}

Bus:
  - dino_bus_published_total{topic}, dino_bus_publish_failures_total{topic}
  - dino_bus_consumed_total{topic}, dino_bus_deduplicated_total
  - dino_bus_delegated_total, dino_bus_revision_dropped_total
  - dino_bus_external_fallbacks_total, dino_bus_parse_failed_total

Storage and resilience:
  - dino_db_query_duration_seconds{operation}, dino_db_query_errors_total
  - dino_cache_hits_total{tier}, dino_cache_misses_total{tier}
  - dino_circuit_breaker_state{name}, dino_circuit_breaker_requests_total,
    dino_circuit_breaker_state_transitions_total

REST:
  - dino_http_requests_total{method,endpoint,status}
  - dino_http_request_duration_seconds{method,endpoint}
  - dino_http_requests_in_flight
*/
package metrics
