// Dino - Multi-node Real-time Chat Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/dino

package services

import (
	"context"
	"fmt"

	"github.com/tomtom215/dino/internal/logging"
)

// SocketHub is the chat socket hub. *websocket.Hub satisfies it.
type SocketHub interface {
	RunWithContext(ctx context.Context) error
	GetClientCount() int
}

// SocketHubService runs the chat socket hub in the messaging layer. On
// shutdown the hub closes every chat socket and each close goes through
// the chat disconnect path, so presence and room memberships are released
// while the bus is still up.
type SocketHubService struct {
	hub SocketHub
}

// NewSocketHubService wraps hub.
func NewSocketHubService(hub SocketHub) *SocketHubService {
	return &SocketHubService{hub: hub}
}

// Serve implements suture.Service. A hub that stops on its own is reported
// as an error so the supervisor restarts it.
func (s *SocketHubService) Serve(ctx context.Context) error {
	err := s.hub.RunWithContext(ctx)
	if ctx.Err() != nil {
		return ctx.Err()
	}
	logging.Warn().Err(err).Int("sockets", s.hub.GetClientCount()).Msg("Chat socket hub stopped")
	if err == nil {
		err = fmt.Errorf("socket hub returned without shutdown")
	}
	return err
}

func (s *SocketHubService) String() string {
	return "chat-socket-hub"
}
