// Dino - Multi-node Real-time Chat Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/dino

package chat

import (
	"errors"
	"testing"
	"time"

	"github.com/tomtom215/dino/internal/activity"
	"github.com/tomtom215/dino/internal/models"
)

func TestConn_Transitions(t *testing.T) {
	c := newConn(newFakePeer("s1"), time.Now())
	if c.State() != StateConnected {
		t.Fatalf("initial state = %s", c.State())
	}

	if err := c.transition(StateLive); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("CONNECTED -> LIVE err = %v", err)
	}
	if err := c.authenticate(models.NewSession("1")); err != nil {
		t.Fatalf("authenticate: %v", err)
	}
	if c.UserID() != "1" {
		t.Errorf("UserID = %q", c.UserID())
	}
	if err := c.authenticate(models.NewSession("2")); err == nil {
		t.Fatal("second authenticate succeeded")
	}
	if c.UserID() != "1" {
		t.Errorf("user id changed to %q", c.UserID())
	}
	for _, to := range []State{StateLive, StateDisconnecting, StateDisconnected} {
		if err := c.transition(to); err != nil {
			t.Fatalf("-> %s: %v", to, err)
		}
	}
	if err := c.transition(StateConnected); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("DISCONNECTED -> CONNECTED err = %v", err)
	}
}

func TestConn_Accepts(t *testing.T) {
	c := newConn(newFakePeer("s1"), time.Now())
	if !c.accepts(false, true) {
		t.Error("CONNECTED must accept login")
	}
	if c.accepts(true, false) {
		t.Error("CONNECTED must reject live verbs")
	}

	_ = c.authenticate(models.NewSession("1"))
	if c.accepts(true, false) || c.accepts(false, true) {
		t.Error("AUTHENTICATED must reject client verbs")
	}

	_ = c.transition(StateLive)
	if !c.accepts(true, false) {
		t.Error("LIVE must accept live verbs")
	}
	if c.accepts(false, true) {
		t.Error("LIVE must reject login")
	}
}

func TestService_VerbBeforeLogin(t *testing.T) {
	n := newTestNode(t)
	n.seedRoom("C1", "R1", "lobby")
	p := n.connect()

	res := n.join(p, "1", "R1")
	wantCode(t, res, activity.NoUserInSession)
	if len(p.replies) != 1 || p.replies[0].verb != "join" {
		t.Fatalf("replies = %+v", p.replies)
	}
}

func TestService_DisconnectIsIdempotent(t *testing.T) {
	n := newTestNode(t)
	p := n.login("1", "alice", nil)

	n.svc.Disconnect(p)
	n.svc.Disconnect(p)

	if n.svc.ConnectionCount() != 0 {
		t.Errorf("ConnectionCount = %d", n.svc.ConnectionCount())
	}
	if got := n.pub.externalVerb(activity.VerbDisconnect); len(got) != 1 {
		t.Errorf("external disconnects = %d, want 1", len(got))
	}
}
