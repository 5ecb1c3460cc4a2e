// Dino - Multi-node Real-time Chat Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/dino

/*
Package acl evaluates typed ACL predicates attached to (room|channel, action).

Evaluation:

 1. If the actor holds a bypass role for the target (see internal/authz),
    the request is allowed without looking at the ACLs.
 2. Every (type, value) pair of the target's ACL set is handed to the
    validator registered for that type. The first denial wins and its
    reason is returned.
 3. Otherwise the request is allowed.

Built-in validator kinds:

  - str_in_csv: the session attribute named by the type must be one of the
    comma separated values; a token prefixed with ! excludes that value
  - range: "min:max", either bound optional, inclusive, numeric
  - samechannel / sameroom: the actor's room (actor.url) and the target
    room share a channel, or are the same room
  - disallow: always denies
  - accepted_pattern: a boolean expression over session attributes, see
    ParsePattern
  - is_admin / is_super_user / is_room_owner: role checks

Evaluation is synchronous and performs no I/O beyond the channel lookup
needed by samechannel, which is served from cache in practice.
*/
package acl
