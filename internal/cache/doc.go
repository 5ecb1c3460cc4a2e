// Dino - Multi-node Real-time Chat Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/dino

/*
Package cache implements the two-tier cache of the chat fabric.

Tiers:

  - Local: a process-local TTL map (ttlcache) with per-key jitter. Holds
    roles, ACL sets, room metadata, short-lived room listings, the blacklist
    automaton and positive whisper decisions.
  - Shared: a sharedstore.Store holding cross-node truths: online set and
    bitmap, multicast set, status scalars, the sid map, ban timestamps,
    name maps, last-read times and heartbeat keys.

Every getter returns ok=false on a miss and callers fall back to the
repository. Invalidation is explicit: write paths call the matching Reset
method after the repository commit.

Supporting structures:

  - LRU: bounded recency set used for bus de-duplication
  - Keywords: Aho-Corasick automaton used for blacklist matching
*/
package cache
