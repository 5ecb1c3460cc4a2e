// Dino - Multi-node Real-time Chat Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/dino

package presence

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/tomtom215/dino/internal/cache"
	"github.com/tomtom215/dino/internal/database"
	"github.com/tomtom215/dino/internal/models"
	"github.com/tomtom215/dino/internal/sharedstore"
)

type fakeRooms map[string][]string

func (f fakeRooms) RoomsForSid(sid string) []string { return f[sid] }

func newTestTracker(t *testing.T) (*Tracker, *cache.Cache, *database.Memory) {
	t.Helper()
	local := cache.NewLocal(0, false)
	t.Cleanup(local.Stop)
	c := cache.New(local, sharedstore.NewMemory(), "test:", cache.DefaultTTLs())
	repo := database.NewMemory()
	return NewTracker(c, repo, nil), c, repo
}

func TestTracker_BindUnbind(t *testing.T) {
	ctx := context.Background()
	tr, c, _ := newTestTracker(t)

	if err := tr.Bind(ctx, "1", "s1"); err != nil {
		t.Fatalf("Bind: %v", err)
	}
	_ = tr.Bind(ctx, "1", "s2")

	if got := tr.LocalSids("1"); len(got) != 2 {
		t.Fatalf("LocalSids = %v", got)
	}
	if u, ok := tr.UserForSid("s2"); !ok || u != "1" {
		t.Errorf("UserForSid = %q %v", u, ok)
	}
	shared, _ := c.SidsForUser(ctx, "1")
	if len(shared) != 2 {
		t.Errorf("shared sids = %v", shared)
	}

	n, err := tr.Unbind(ctx, "1", "s1")
	if err != nil || n != 1 {
		t.Fatalf("Unbind = %d, %v", n, err)
	}
	n, _ = tr.Unbind(ctx, "1", "s2")
	if n != 0 || tr.IsOnThisNode("1", "") {
		t.Errorf("user still bound after last unbind")
	}
	if len(tr.LocalUsers()) != 0 {
		t.Errorf("LocalUsers = %v", tr.LocalUsers())
	}
}

func TestTracker_IsOnThisNode_Room(t *testing.T) {
	ctx := context.Background()
	tr, _, _ := newTestTracker(t)
	tr.SetRoomIndex(fakeRooms{"s1": {"R1"}})
	_ = tr.Bind(ctx, "1", "s1")

	if !tr.IsOnThisNode("1", "R1") {
		t.Error("user not found in joined room")
	}
	if tr.IsOnThisNode("1", "R2") {
		t.Error("user found in room it never joined")
	}
	if tr.IsOnThisNode("2", "") {
		t.Error("unknown user on this node")
	}
}

func TestTracker_StatusSets(t *testing.T) {
	ctx := context.Background()
	tr, _, repo := newTestTracker(t)
	_ = repo.CreateUser(ctx, "1", "alice")

	tests := []struct {
		name      string
		set       func(context.Context, string) error
		online    bool
		multicast bool
	}{
		{"online", tr.SetOnline, true, true},
		{"invisible", tr.SetInvisible, false, true},
		{"offline", tr.SetOffline, false, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.set(ctx, "1"); err != nil {
				t.Fatalf("set: %v", err)
			}
			if got := tr.IsOnline(ctx, "1"); got != tt.online {
				t.Errorf("IsOnline = %v, want %v", got, tt.online)
			}
			if got := tr.MulticastEligible(ctx, "1"); got != tt.multicast {
				t.Errorf("MulticastEligible = %v, want %v", got, tt.multicast)
			}
		})
	}

	if last, err := repo.GetLastOnline(ctx, "1"); err != nil || last.IsZero() {
		t.Errorf("last online not recorded: %v %v", last, err)
	}
}

func TestTracker_Disconnect(t *testing.T) {
	ctx := context.Background()
	tr, _, repo := newTestTracker(t)
	_ = repo.CreateUser(ctx, "1", "alice")
	_ = repo.CreateUser(ctx, "2", "bob")

	_ = tr.Bind(ctx, "1", "a")
	_ = tr.Bind(ctx, "1", "b")
	_ = tr.SetOnline(ctx, "1")

	offline, err := tr.Disconnect(ctx, "1", "a")
	if err != nil || offline {
		t.Fatalf("first Disconnect = %v, %v; want still online", offline, err)
	}
	offline, _ = tr.Disconnect(ctx, "1", "b")
	if !offline || tr.IsOnline(ctx, "1") {
		t.Error("user should be offline after last socket")
	}

	// invisible users stay invisible when their last socket closes
	_ = tr.Bind(ctx, "2", "c")
	_ = tr.SetInvisible(ctx, "2")
	offline, _ = tr.Disconnect(ctx, "2", "c")
	if offline || !tr.IsInvisible(ctx, "2") {
		t.Error("invisible user was set offline")
	}
}

func TestTracker_Disconnect_SocketOnOtherNode(t *testing.T) {
	ctx := context.Background()
	shared := sharedstore.NewMemory()
	repo := database.NewMemory()
	_ = repo.CreateUser(ctx, "1", "alice")

	newNode := func() *Tracker {
		local := cache.NewLocal(0, false)
		t.Cleanup(local.Stop)
		return NewTracker(cache.New(local, shared, "test:", cache.DefaultTTLs()), repo, nil)
	}
	nodeA, nodeB := newNode(), newNode()

	_ = nodeA.Bind(ctx, "1", "a1")
	_ = nodeB.Bind(ctx, "1", "b1")
	_ = nodeA.SetOnline(ctx, "1")

	offline, err := nodeA.Disconnect(ctx, "1", "a1")
	if err != nil || offline {
		t.Fatalf("Disconnect on node a = %v, %v; want still online", offline, err)
	}
	for name, tr := range map[string]*Tracker{"a": nodeA, "b": nodeB} {
		if !tr.IsOnline(ctx, "1") || !tr.MulticastEligible(ctx, "1") {
			t.Errorf("node %s: user not online after disconnect on another node", name)
		}
		if got := tr.Status(ctx, "1"); got != models.StatusAvailable {
			t.Errorf("node %s: status = %q, want available", name, got)
		}
	}

	offline, _ = nodeB.Disconnect(ctx, "1", "b1")
	if !offline || nodeA.IsOnline(ctx, "1") {
		t.Error("user should be offline after the last cluster socket")
	}
}

func TestTracker_VisibleUsersInRoom(t *testing.T) {
	ctx := context.Background()
	tr, _, repo := newTestTracker(t)

	_ = repo.CreateChannel(ctx, models.Channel{ID: "C", Name: "c"}, "1")
	_ = repo.CreateRoom(ctx, models.Room{ID: "R", ChannelID: "C", Name: "r"}, "1")
	for id, name := range map[string]string{"1": "on", "2": "inv", "3": "off"} {
		_ = repo.CreateUser(ctx, id, name)
		_ = repo.JoinRoom(ctx, id, name, "R")
	}
	_ = tr.SetOnline(ctx, "1")
	_ = tr.SetInvisible(ctx, "2")
	_ = tr.SetOffline(ctx, "3")

	regular, err := tr.VisibleUsersInRoom(ctx, "R", false)
	if err != nil {
		t.Fatalf("VisibleUsersInRoom: %v", err)
	}
	if len(regular) != 1 || regular["1"] != "on" {
		t.Errorf("regular view = %v", regular)
	}

	super, _ := tr.VisibleUsersInRoom(ctx, "R", true)
	if len(super) != 2 || super["2"] != "inv" {
		t.Errorf("super view = %v", super)
	}
}

func TestUserLocks_Serialises(t *testing.T) {
	locks := NewUserLocks(4)
	counter := 0
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			locks.With("42", func() {
				v := counter
				time.Sleep(time.Microsecond)
				counter = v + 1
			})
		}()
	}
	wg.Wait()
	if counter != 50 {
		t.Errorf("counter = %d, want 50", counter)
	}
}
