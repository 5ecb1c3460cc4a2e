// Dino - Multi-node Real-time Chat Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/dino

// Package logging is the zerolog-based structured logger shared by every
// Dino component.
//
// # Overview
//
// The package provides:
//   - A global zerolog logger configured once from the logging config section
//   - JSON output for production and console output for development
//   - Context helpers carrying request, correlation, user and socket ids
//   - An slog.Handler so the suture supervisor logs through zerolog
//   - A watermill.LoggerAdapter so the inter-node bus logs through zerolog
//
// # Quick Start
//
//	logging.Init(logging.Config{Level: "info", Format: "json"})
//
//	logging.Info().Str("node_id", nodeID).Msg("Node starting")
//	logging.Ctx(ctx).Warn().Str("verb", "join").Msg("Denied")
//
//	gw := logging.WithComponent("gateway")
//	gw.Debug().Str("sid", sid).Msg("Socket bound")
//
// # Conventions
//
// Every long-lived component logs with a "component" field. Chat handlers add
// "user_id", "sid" and "verb". Always terminate chains with Msg or Send.
//
// Tests silence output with:
//
//	logging.Init(logging.Config{Output: io.Discard})
package logging
