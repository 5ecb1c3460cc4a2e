// Dino - Multi-node Real-time Chat Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/dino

// Package presence tracks which users are online and which sockets on this
// node belong to them.
//
// The tracker keeps two views:
//
//   - the local binding table (user -> sockets, socket -> user), consulted by
//     IsOnThisNode and by moderation when a cluster event arrives
//   - the shared status sets in the cache (online set, online bitmap,
//     multicast set), consulted by every node
//
// Status writes and socket (un)binding for one user are serialised by a
// striped per-user lock.
package presence
