// Dino - Multi-node Real-time Chat Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/dino

package services

import (
	"context"
	"errors"
	"time"

	"github.com/tomtom215/dino/internal/logging"
)

// ErrNATSStopped is returned when the embedded server stops on its own.
var ErrNATSStopped = errors.New("embedded NATS server stopped")

// EmbeddedNATS is satisfied by *bus.EmbeddedServer.
type EmbeddedNATS interface {
	IsRunning() bool
	Shutdown(ctx context.Context) error
}

// NATSServerService watches an embedded NATS server that was started
// before the tree (the bus transports connect to it during startup) and
// shuts it down when the tree stops.
type NATSServerService struct {
	server          EmbeddedNATS
	checkInterval   time.Duration
	shutdownTimeout time.Duration
}

// NewNATSServerService wraps server.
func NewNATSServerService(server EmbeddedNATS, shutdownTimeout time.Duration) *NATSServerService {
	if shutdownTimeout <= 0 {
		shutdownTimeout = 10 * time.Second
	}
	return &NATSServerService{server: server, checkInterval: 5 * time.Second, shutdownTimeout: shutdownTimeout}
}

// Serve implements suture.Service. A server that stops while the tree is
// running is reported as a failure; it is not restarted, so suture
// eventually gives up on it and the bus breakers take over.
func (s *NATSServerService) Serve(ctx context.Context) error {
	ticker := time.NewTicker(s.checkInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.shutdownTimeout)
			defer cancel()
			if err := s.server.Shutdown(shutdownCtx); err != nil {
				logging.Warn().Err(err).Msg("Embedded NATS shutdown did not finish")
			}
			return ctx.Err()
		case <-ticker.C:
			if !s.server.IsRunning() {
				return ErrNATSStopped
			}
		}
	}
}

func (s *NATSServerService) String() string {
	return "nats-server"
}
