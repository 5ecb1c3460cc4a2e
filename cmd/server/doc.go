// Dino - Multi-node Real-time Chat Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/dino

/*
Command server runs one Dino chat node.

Every node is identical. Nodes share the repository (PostgreSQL), the
shared cache tier (Redis) and the internal event bus (NATS or Redis
pub/sub); any number of them can sit behind a load balancer.

# Startup

 1. Configuration: koanf v2 (defaults, config.yaml, DINO_ environment)
 2. Logging: zerolog, bridged to slog for the supervisor
 3. Repository: PostgreSQL with migrations, or in-memory
 4. Shared tier: Redis or in-memory, under the local TTL cache
 5. Sessions and roles: memory, Redis or Badger sessions; casbin roles
 6. Bus: embedded NATS when requested, internal and external transports
 7. Chat service, heartbeat reaper, remote whisper and spam clients
 8. Socket hub, REST router, health and metrics on one HTTP listener
 9. Supervisor tree, then a restart announcement to the other nodes

# Supervisor tree

	dino
	├── data-layer       heartbeat reaper
	├── messaging-layer  nats-server, bus-publisher, bus-consumer, chat-socket-hub
	└── api-layer        http-server

# Flags

	-config path     config file (overrides CONFIG_PATH and the search path)
	-admin-token id  print a signed admin token for the REST API and exit

# Signals

SIGINT and SIGTERM cancel the tree. The HTTP server drains, the hub closes
every socket, the publisher sends what is still queued, then the stores
are closed.
*/
package main
