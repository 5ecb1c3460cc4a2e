// Dino - Multi-node Real-time Chat Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/dino

// Package activity defines the wire-level event model shared by every
// component of the chat fabric.
//
// Clients and nodes exchange ActivityStreams-shaped JSON objects. Each object
// carries a verb, an actor and verb-specific object/target/provider entities.
// User supplied text (message bodies, room names, display names, reasons) is
// base64 encoded on the wire; this package offers the helpers to decode it and
// classify bad input as NOT_BASE64.
//
// # Replies
//
// Every client event receives a structured reply:
//
//	{"status_code": 200, "data": {...}}
//	{"status_code": 705, "msg": "not allowed to join"}
//
// The numeric codes are stable across releases and grouped as follows:
//
//   - 2xx: OK / unknown error
//   - 5xx: missing required fields
//   - 6xx: invalid values
//   - 7xx: semantic denials
//   - 8xx: not found
//
// Validators and handlers return a Result value instead of panicking, and the
// gateway converts Results into Reply frames.
package activity
