// Dino - Multi-node Real-time Chat Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/dino

package chat

import (
	"github.com/goccy/go-json"

	"github.com/tomtom215/dino/internal/activity"
	"github.com/tomtom215/dino/internal/logging"
	"github.com/tomtom215/dino/internal/websocket"
)

// Gateway adapts a Service to the websocket hub callbacks.
type Gateway struct {
	svc *Service
}

// NewGateway returns the websocket handler for svc.
func NewGateway(svc *Service) *Gateway { return &Gateway{svc: svc} }

var _ websocket.Handler = (*Gateway)(nil)

// OnConnect implements websocket.Handler.
func (g *Gateway) OnConnect(c *websocket.Client) { g.svc.Connect(c) }

// OnEvent implements websocket.Handler.
func (g *Gateway) OnEvent(c *websocket.Client, event string, data []byte) {
	g.svc.HandleFrame(c, event, data)
}

// OnDisconnect implements websocket.Handler.
func (g *Gateway) OnDisconnect(c *websocket.Client) { g.svc.Disconnect(c) }

type connectReply struct {
	SID  string `json:"sid"`
	Node string `json:"node"`
}

// Connect registers a new socket in CONNECTED state.
func (s *Service) Connect(peer Peer) *Conn {
	c := newConn(peer, s.now())
	s.mu.Lock()
	s.conns[peer.ID()] = c
	s.mu.Unlock()

	peer.Emit(activity.EventConnect, connectReply{SID: peer.ID(), Node: s.nodeID})
	return c
}

// HandleFrame parses and dispatches one client event, then replies with
// gn_<verb>. The event name is authoritative for the verb.
func (s *Service) HandleFrame(peer Peer, event string, data []byte) activity.Result {
	c, ok := s.conn(peer.ID())
	if !ok {
		c = s.Connect(peer)
	}

	verb := activity.ParseVerb(event)
	a, err := parseFrame(data)
	if err != nil {
		res := activity.Fail(activity.ValidationError, "malformed activity")
		peer.Reply(event, res)
		return res
	}
	a.Verb = verb

	if !c.accepts(activity.IsLiveVerb(verb), verb == activity.VerbLogin) {
		res := s.rejectForState(c, verb)
		peer.Reply(event, res)
		return res
	}

	ctx := logging.ContextWithSession(peer.Context(), c.UserID(), peer.ID())
	req := &Request{Ctx: ctx, Conn: c, Activity: a, Session: c.Session()}
	res := s.dispatcher.Dispatch(req)

	if verb != activity.VerbDisconnect {
		peer.Reply(event, res)
	}
	return res
}

func parseFrame(data []byte) (*activity.Activity, error) {
	if len(data) == 0 || string(data) == "null" {
		return &activity.Activity{}, nil
	}
	var a activity.Activity
	if err := json.Unmarshal(data, &a); err != nil {
		return nil, err
	}
	return &a, nil
}

func (s *Service) rejectForState(c *Conn, verb activity.Verb) activity.Result {
	switch c.State() {
	case StateConnected:
		return activity.Fail(activity.NoUserInSession, "login first")
	case StateLive:
		if verb == activity.VerbLogin {
			return activity.Fail(activity.NotAllowed, "already logged in")
		}
		return activity.Failf(activity.InvalidVerb, "unknown verb %q", verb)
	default:
		return activity.Failf(activity.NotAllowed, "socket is %s", c.State())
	}
}

// Disconnect runs the disconnect flow for a closing socket. It is
// idempotent.
func (s *Service) Disconnect(peer Peer) {
	s.mu.Lock()
	c, ok := s.conns[peer.ID()]
	delete(s.conns, peer.ID())
	s.mu.Unlock()
	if !ok {
		return
	}

	wasAuthenticated := c.State() == StateAuthenticated || c.State() == StateLive
	if err := c.transition(StateDisconnecting); err != nil {
		return
	}
	if wasAuthenticated {
		ctx, cancel := s.opCtx()
		defer cancel()
		ctx = logging.ContextWithSession(ctx, c.UserID(), peer.ID())
		s.disconnectSocket(ctx, c.UserID(), peer.ID())
	}
	_ = c.transition(StateDisconnected)
}
