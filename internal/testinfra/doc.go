// Dino - Multi-node Real-time Chat Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/dino

// Package testinfra starts the backing services of a chat node in Docker
// for integration tests.
//
// Everything here is behind the integration build tag:
//
//	go test -tags integration ./internal/database/... ./internal/sharedstore/...
//
// Each helper skips the test when Docker is not reachable and registers
// container cleanup with t.Cleanup:
//
//	func TestRedisStore(t *testing.T) {
//	    addr := testinfra.StartRedis(t)
//	    client, err := sharedstore.NewRedisClient(ctx, sharedstore.RedisConfig{Addr: addr})
//	    ...
//	}
package testinfra
