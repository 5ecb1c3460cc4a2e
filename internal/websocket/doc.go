// Dino - Multi-node Real-time Chat Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/dino

/*
Package websocket is the socket transport of a chat node.

It owns connections and local rooms; it knows nothing about users, ACLs or
verbs. Those live in internal/chat, which implements Handler.

Key Components:

  - Hub: registered clients plus the node-local room index
    (room -> sockets, socket -> rooms)
  - Client: one gorilla/websocket connection with a read pump and a write
    pump, a buffered send queue and an inbound rate limiter
  - Server: HTTP handler that upgrades requests and starts clients

Frames:

Every frame in either direction is a JSON object {"event": ..., "data": ...}.
Client events are named after verbs ("login", "join", ...); the reply to a
verb is emitted as "gn_<verb>".

Ordering:

  - The read pump calls Handler.OnEvent synchronously, so events from one
    socket are handled in the order they arrived.
  - Emits to a room are serialised per room and enqueued into each member's
    send queue under that room's lock, so a later emit to a room cannot
    overtake an earlier one on this node.

Architecture:

	         ┌───────────┐
	HTTP ───▶│  Server   │── upgrade ──▶ Client ──▶ Handler.OnEvent
	         └───────────┘                 ▲
	                                       │ send queue
	┌──────────────────────────────────────┴───────┐
	│ Hub: clients, rooms, RunWithContext loop      │
	└──────────────────────────────────────────────┘
*/
package websocket
