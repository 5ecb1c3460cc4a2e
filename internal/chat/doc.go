// Dino - Multi-node Real-time Chat Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/dino

/*
Package chat implements the real-time event fabric of a node: the
per-connection state machine, the verb dispatcher with its middleware chain,
request validation, message routing, moderation and the handling of
cluster-internal events.

Architecture:

	websocket.Hub ── frames ──▶ Gateway ──▶ Service.HandleFrame
	                                           │
	                                           ▼
	                               Dispatcher (per-verb chain)
	                    validate ─▶ plugins ─▶ handler ─▶ subscribers
	                                           │
	       ┌───────────────┬───────────────────┼──────────────────┐
	       ▼               ▼                   ▼                  ▼
	  database.Repository  cache.Cache   presence.Tracker    Publisher (bus)

Connection States:

	DISCONNECTED → CONNECTED → AUTHENTICATED → LIVE → DISCONNECTING

A connected socket accepts only login. Login binds the socket to a user,
runs the entry actions (status, external login event, autojoin) and moves
the connection to LIVE where the full verb set is accepted.

Middleware:

Every verb is registered with its own chain. The dispatcher wraps each
chain with the common checks (actor must match the session user, server
assigned id and published time) and a recover that turns handler panics
into UNKNOWN_ERROR. Subscribers run after a successful handler in
registration order; a failing subscriber is logged and does not change the
reply.

Cluster Events:

Moderation and room removal are applied on every node through
HandleInternal. Frames for rooms and users are emitted locally and mirrored
as send_to_node events so members connected to other nodes receive them.
*/
package chat
