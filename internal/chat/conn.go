// Dino - Multi-node Real-time Chat Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/dino

package chat

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/tomtom215/dino/internal/models"
)

// State is the lifecycle state of one connection.
type State int

// Connection states.
const (
	StateDisconnected State = iota
	StateConnected
	StateAuthenticated
	StateLive
	StateDisconnecting
)

func (s State) String() string {
	switch s {
	case StateConnected:
		return "CONNECTED"
	case StateAuthenticated:
		return "AUTHENTICATED"
	case StateLive:
		return "LIVE"
	case StateDisconnecting:
		return "DISCONNECTING"
	default:
		return "DISCONNECTED"
	}
}

// ErrInvalidTransition is returned for a state change the machine forbids.
var ErrInvalidTransition = errors.New("invalid state transition")

var transitions = map[State][]State{
	StateDisconnected:  {StateConnected},
	StateConnected:     {StateAuthenticated, StateDisconnecting},
	StateAuthenticated: {StateLive, StateDisconnecting},
	StateLive:          {StateDisconnecting},
	StateDisconnecting: {StateDisconnected},
}

// Conn is the server-side view of one socket.
type Conn struct {
	peer Peer

	mu          sync.RWMutex
	state       State
	session     *models.Session
	connectedAt time.Time
}

func newConn(peer Peer, now time.Time) *Conn {
	return &Conn{peer: peer, state: StateConnected, connectedAt: now}
}

// Peer returns the socket.
func (c *Conn) Peer() Peer { return c.peer }

// SID returns the socket id.
func (c *Conn) SID() string { return c.peer.ID() }

// State returns the current state.
func (c *Conn) State() State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

// UserID returns the bound user, empty before login.
func (c *Conn) UserID() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.session == nil {
		return ""
	}
	return c.session.UserID
}

// Session returns the session bound at login.
func (c *Conn) Session() *models.Session {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.session
}

func (c *Conn) transition(to State) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.transitionLocked(to)
}

func (c *Conn) transitionLocked(to State) error {
	for _, allowed := range transitions[c.state] {
		if allowed == to {
			c.state = to
			return nil
		}
	}
	return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, c.state, to)
}

// authenticate binds the session and enters AUTHENTICATED. The session user
// id never changes afterwards.
func (c *Conn) authenticate(session *models.Session) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.transitionLocked(StateAuthenticated); err != nil {
		return err
	}
	c.session = session
	return nil
}

// accepts reports whether verb may be handled in the current state.
func (c *Conn) accepts(live bool, isLogin bool) bool {
	switch c.State() {
	case StateConnected:
		return isLogin
	case StateLive:
		return live && !isLogin
	default:
		return false
	}
}
