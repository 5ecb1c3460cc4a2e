// Dino - Multi-node Real-time Chat Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/dino

/*
Package models defines the domain entities of the chat fabric.

Key Components:

  - User and UserStatus: identity and presence status values
  - Session: per-connection attribute bag used by ACL evaluation
  - Channel and Room: the two-level hierarchy, each carrying ACLs and roles
  - UserRoles: denormalised role view (global, per channel, per room)
  - Ban and BanStatus: scoped bans with wall-clock expiry
  - Message and AckState: persisted chat messages and per-recipient acks

Ownership:

The repository owns every entity here; caches hold copies with bounded TTL.
Socket bindings are not modelled here because they live only on the node
that holds the socket (see internal/presence).
*/
package models
