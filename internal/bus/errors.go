// Dino - Multi-node Real-time Chat Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/dino

package bus

import "errors"

var (
	// ErrPublishFailed is returned when every publish attempt failed.
	ErrPublishFailed = errors.New("bus: publish failed")

	// ErrClosed is returned by publishers and transports after Close.
	ErrClosed = errors.New("bus: closed")

	// ErrUnknownBackend is returned for an unsupported queue.type.
	ErrUnknownBackend = errors.New("bus: unknown backend")

	// ErrNilHandler is returned when a consumer is built without a handler.
	ErrNilHandler = errors.New("bus: handler cannot be nil")
)
