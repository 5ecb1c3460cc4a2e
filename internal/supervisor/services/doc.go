// Dino - Multi-node Real-time Chat Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/dino

// Package services adapts node components to suture.Service.
//
// The bus consumer and the heartbeat reaper already have a
// Serve(ctx) error method and are added to the tree directly. The wrappers
// here cover components with a different lifecycle: the HTTP server
// (ListenAndServe / Shutdown), the socket hub (RunWithContext), the bus
// publisher (drain on stop) and the embedded NATS server (started before
// the tree, stopped with it).
package services
