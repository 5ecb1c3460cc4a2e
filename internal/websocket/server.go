// Dino - Multi-node Real-time Chat Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/dino

package websocket

import (
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"github.com/tomtom215/dino/internal/logging"
)

// ServerOptions configures the upgrade endpoint.
type ServerOptions struct {
	// AllowedOrigins lists accepted Origin headers; "*" accepts any. An
	// empty list accepts requests without an Origin header only.
	AllowedOrigins  []string
	MaxMessageSize  int64
	EventsPerSecond float64
	Burst           int
}

// Server upgrades HTTP requests to chat sockets.
type Server struct {
	hub      *Hub
	handler  Handler
	opts     ServerOptions
	upgrader websocket.Upgrader
}

// NewServer creates the upgrade handler.
func NewServer(hub *Hub, handler Handler, opts ServerOptions) *Server {
	s := &Server{hub: hub, handler: handler, opts: opts}
	s.upgrader = websocket.Upgrader{
		ReadBufferSize:   1024,
		WriteBufferSize:  1024,
		CheckOrigin:      s.checkOrigin,
		HandshakeTimeout: 10 * time.Second,
	}
	return s
}

func (s *Server) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		// Native clients do not send an Origin header.
		return true
	}
	for _, allowed := range s.opts.AllowedOrigins {
		if allowed == "*" || strings.EqualFold(allowed, origin) {
			return true
		}
	}
	logging.Warn().Str("origin", sanitizeLogValue(origin)).Msg("WebSocket connection rejected from unauthorized origin")
	return false
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logging.Debug().Err(err).Msg("WebSocket upgrade error")
		return
	}

	client := NewClient(s.hub, conn, s.handler, ClientOptions{
		MaxMessageSize:  s.opts.MaxMessageSize,
		EventsPerSecond: s.opts.EventsPerSecond,
		Burst:           s.opts.Burst,
		RemoteAddr:      r.RemoteAddr,
	})
	if !s.hub.Register(client) {
		_ = conn.Close()
		return
	}
	s.handler.OnConnect(client)
	client.Start()
}

// sanitizeLogValue strips control characters and caps the length.
func sanitizeLogValue(s string) string {
	s = strings.Map(func(r rune) rune {
		if r < 0x20 || r == 0x7f {
			return -1
		}
		return r
	}, s)
	if len(s) > 200 {
		s = s[:200]
	}
	return s
}
