// Dino - Multi-node Real-time Chat Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/dino

package websocket

import (
	"context"
	"testing"
	"time"

	"github.com/goccy/go-json"
)

type nopHandler struct{}

func (nopHandler) OnConnect(*Client)               {}
func (nopHandler) OnEvent(*Client, string, []byte) {}
func (nopHandler) OnDisconnect(*Client)            {}

func newTestClient(t *testing.T, h *Hub) *Client {
	t.Helper()
	c := NewClient(h, nil, nopHandler{}, ClientOptions{})
	if !h.Register(c) {
		t.Fatal("Register() = false on running hub")
	}
	return c
}

type decodedFrame struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

func recvFrame(t *testing.T, c *Client) decodedFrame {
	t.Helper()
	select {
	case payload := <-c.send:
		var f decodedFrame
		if err := json.Unmarshal(payload, &f); err != nil {
			t.Fatalf("invalid frame %s: %v", payload, err)
		}
		return f
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for frame")
		return decodedFrame{}
	}
}

func TestHub_JoinLeave(t *testing.T) {
	h := NewHub()
	a := newTestClient(t, h)
	b := newTestClient(t, h)

	if !h.Join(a.ID(), "r1") || !h.Join(b.ID(), "r1") || !h.Join(a.ID(), "r2") {
		t.Fatal("Join() failed for registered clients")
	}
	if h.Join("unknown", "r1") {
		t.Error("Join() for unknown sid should fail")
	}
	if got := len(h.Members("r1")); got != 2 {
		t.Errorf("Members(r1) = %d, want 2", got)
	}
	if got := h.RoomsForSid(a.ID()); len(got) != 2 || got[0] != "r1" || got[1] != "r2" {
		t.Errorf("RoomsForSid() = %v", got)
	}

	h.Leave(b.ID(), "r1")
	if got := len(h.Members("r1")); got != 1 {
		t.Errorf("Members(r1) after leave = %d, want 1", got)
	}

	left := h.LeaveAll(a.ID())
	if len(left) != 2 {
		t.Errorf("LeaveAll() = %v, want two rooms", left)
	}
	if h.Members("r1") != nil {
		t.Error("empty room should be removed")
	}
}

func TestHub_EmitToRoomSkipsAndOrders(t *testing.T) {
	h := NewHub()
	a := newTestClient(t, h)
	b := newTestClient(t, h)
	h.Join(a.ID(), "r1")
	h.Join(b.ID(), "r1")

	for i := 0; i < 5; i++ {
		if n := h.EmitToRoom("r1", "gn_message", map[string]int{"seq": i}, a.ID()); n != 1 {
			t.Fatalf("EmitToRoom() = %d, want 1", n)
		}
	}

	for i := 0; i < 5; i++ {
		f := recvFrame(t, b)
		if f.Event != "gn_message" {
			t.Fatalf("event = %q", f.Event)
		}
		var data struct{ Seq int }
		if err := json.Unmarshal(f.Data, &data); err != nil {
			t.Fatal(err)
		}
		if data.Seq != i {
			t.Fatalf("frame %d carried seq %d", i, data.Seq)
		}
	}

	select {
	case <-a.send:
		t.Error("skipped socket received a frame")
	default:
	}
}

func TestHub_UnregisterRemovesFromRooms(t *testing.T) {
	h := NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- h.RunWithContext(ctx) }()

	a := newTestClient(t, h)
	h.Join(a.ID(), "r1")
	h.unregister(a)

	deadline := time.Now().Add(time.Second)
	for h.GetClientCount() != 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if h.GetClientCount() != 0 {
		t.Fatal("client still registered")
	}
	if h.Members("r1") != nil {
		t.Error("room membership survived unregister")
	}
	if a.Emit("gn_message", nil) {
		t.Error("Emit() to unregistered client should fail")
	}

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("hub did not stop")
	}
	if h.Register(NewClient(h, nil, nopHandler{}, ClientOptions{})) {
		t.Error("Register() after stop should fail")
	}
}

func TestHub_Broadcast(t *testing.T) {
	h := NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = h.RunWithContext(ctx) }()

	a := newTestClient(t, h)
	b := newTestClient(t, h)
	h.Broadcast("gn_notice", "hello")

	if f := recvFrame(t, a); f.Event != "gn_notice" {
		t.Errorf("a got %q", f.Event)
	}
	if f := recvFrame(t, b); f.Event != "gn_notice" {
		t.Errorf("b got %q", f.Event)
	}
}

func TestSanitizeLogValue(t *testing.T) {
	if got := sanitizeLogValue("a\nb\x7fc"); got != "abc" {
		t.Errorf("sanitizeLogValue() = %q", got)
	}
}
