// Dino - Multi-node Real-time Chat Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/dino

// Package database is the durable repository of the chat fabric.
//
// # Overview
//
// The Repository interface is the contract every other component programs
// against. It owns users, channels, rooms, roles, ACLs, bans, the canonical
// message log and the word blacklist.
//
// # Implementations
//
//   - DB: PostgreSQL through a pgx connection pool, schema managed by
//     golang-migrate with migrations embedded in the binary
//   - Memory: an in-process implementation used by tests and single-node
//     development setups
//
// # Contract Notes
//
//   - Every operation is bounded by the configured operation timeout
//     (5 seconds by default).
//   - Ban creation is idempotent on (user, scope, scope id): banning again
//     only moves the end time.
//   - Message storage is idempotent on the message id.
//   - ACL updates with an empty value remove the ACL type.
//   - Write paths never touch caches; callers invalidate the cache after a
//     successful write.
//
// # Errors
//
// Lookups that find nothing return errors wrapping ErrNotFound (ErrNoSuchUser,
// ErrNoSuchRoom, ErrNoSuchChannel, ErrNoSuchMessage). Name collisions inside a
// channel return ErrRoomExists.
package database
