// Dino - Multi-node Real-time Chat Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/dino

// Package bus carries activities between Dino nodes and to downstream
// consumers.
//
// Two logical topics exist:
//
//   - internal: a fan-out topic every node consumes. Moderation events,
//     room removals, cross-node frames and disconnects travel here.
//   - external: events for analytics and integrations (login, disconnect,
//     message summaries, bans, restarts). Nodes only publish to it.
//
// # Transports
//
// Both topics are Watermill publishers and subscribers, selected per topic
// by queue.type:
//
//	nats   watermill-nats over core NATS (no JetStream), optionally against
//	       an embedded nats-server for single node deployments
//	redis  go-redis PUBLISH/SUBSCRIBE
//	mock   an in-process gochannel pub/sub, shared by tests
//
// # Delivery rules
//
// Publishing never blocks the caller: activities are queued and a worker
// per topic sends them through a circuit breaker, retrying failed sends
// per topic (retries, retry_gap). External events are also suppressed when
// their id was sent recently, and rerouted onto the internal topic when
// every attempt fails so a peer can try again.
//
// Internal events are de-duplicated by id against two bounded LRUs:
// recently handled and recently delegated. A kick or ban whose user has no
// socket on the consuming node is republished once with revision+1, and
// dropped (acked and counted) once the revision passes queue.revision_cap.
package bus
