// Dino - Multi-node Real-time Chat Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/dino

package database

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/tomtom215/dino/internal/models"
)

func seedRoom(t *testing.T, m *Memory, channelID, roomID, name string) {
	t.Helper()
	ctx := context.Background()
	if ok, _ := m.ChannelExists(ctx, channelID); !ok {
		if err := m.CreateChannel(ctx, models.Channel{ID: channelID, Name: channelID}, ""); err != nil {
			t.Fatalf("CreateChannel() error = %v", err)
		}
	}
	if err := m.CreateRoom(ctx, models.Room{ID: roomID, ChannelID: channelID, Name: name}, "1"); err != nil {
		t.Fatalf("CreateRoom() error = %v", err)
	}
}

func TestMemory_RoomsForUserMatchesMembership(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	m := NewMemory()
	seedRoom(t, m, "C", "R1", "one")
	seedRoom(t, m, "C", "R2", "two")

	if err := m.JoinRoom(ctx, "1234", "alice", "R1"); err != nil {
		t.Fatalf("JoinRoom() error = %v", err)
	}
	if err := m.JoinRoom(ctx, "1234", "alice", "R2"); err != nil {
		t.Fatalf("JoinRoom() error = %v", err)
	}
	if err := m.LeaveRoom(ctx, "1234", "R2"); err != nil {
		t.Fatalf("LeaveRoom() error = %v", err)
	}

	rooms, _ := m.RoomsForUser(ctx, "1234")
	if len(rooms) != 1 || rooms["R1"] != "one" {
		t.Errorf("RoomsForUser() = %v, want only R1", rooms)
	}
	users, _ := m.UsersInRoom(ctx, "R1")
	if users["1234"] != "alice" {
		t.Errorf("UsersInRoom() = %v", users)
	}

	counts, _ := m.CountJoins(ctx, []string{"R1", "R2", "missing"})
	if counts["R1"] != 1 || counts["R2"] != 1 {
		t.Errorf("CountJoins() = %v", counts)
	}
	if _, ok := counts["missing"]; ok {
		t.Error("CountJoins() reported a missing room")
	}
}

func TestMemory_CreateRoomTwiceSameChannel(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	m := NewMemory()
	seedRoom(t, m, "C", "R1", "lobby")

	err := m.CreateRoom(ctx, models.Room{ID: "R9", ChannelID: "C", Name: "lobby"}, "1")
	if !errors.Is(err, ErrRoomExists) {
		t.Fatalf("CreateRoom() error = %v, want ErrRoomExists", err)
	}

	if err := m.CreateChannel(ctx, models.Channel{ID: "D", Name: "D"}, ""); err != nil {
		t.Fatal(err)
	}
	if err := m.CreateRoom(ctx, models.Room{ID: "R9", ChannelID: "D", Name: "lobby"}, "1"); err != nil {
		t.Errorf("same name in another channel rejected: %v", err)
	}

	err = m.CreateRoom(ctx, models.Room{ID: "R10", ChannelID: "nope", Name: "x"}, "1")
	if !errors.Is(err, ErrNoSuchChannel) {
		t.Errorf("CreateRoom() in missing channel error = %v", err)
	}
}

func TestMemory_BanIsIdempotent(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	m := NewMemory()
	seedRoom(t, m, "C", "R", "room")
	now := time.Now()

	first := models.Ban{UserID: "8888", Scope: models.ScopeRoom, ScopeID: "R", Duration: time.Hour, ExpiresAt: now.Add(time.Hour)}
	second := first
	second.Duration = 2 * time.Hour
	second.ExpiresAt = now.Add(2 * time.Hour)

	if err := m.BanUser(ctx, first); err != nil {
		t.Fatal(err)
	}
	if err := m.BanUser(ctx, second); err != nil {
		t.Fatal(err)
	}

	bans, _ := m.GetBans(ctx, now)
	if len(bans) != 1 {
		t.Fatalf("GetBans() returned %d rows, want 1", len(bans))
	}
	if !bans[0].ExpiresAt.Equal(second.ExpiresAt) {
		t.Errorf("end time not updated: %v", bans[0].ExpiresAt)
	}

	status, _ := m.GetUserBanStatus(ctx, "R", "8888")
	if _, _, banned := status.Banned(now); !banned {
		t.Error("room ban not reported")
	}
	if _, _, banned := status.Banned(now.Add(3 * time.Hour)); banned {
		t.Error("expired ban reported")
	}
}

func TestMemory_ChannelBanAppliesToRooms(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	m := NewMemory()
	seedRoom(t, m, "C", "R", "room")

	err := m.BanUser(ctx, models.Ban{UserID: "1", Scope: models.ScopeChannel, ScopeID: "C", ExpiresAt: time.Now().Add(time.Minute)})
	if err != nil {
		t.Fatal(err)
	}
	status, _ := m.GetUserBanStatus(ctx, "R", "1")
	if status.Channel.IsZero() {
		t.Error("channel ban not visible through room")
	}

	if err := m.RemoveBan(ctx, "1", models.ScopeChannel, "C"); err != nil {
		t.Fatal(err)
	}
	status, _ = m.GetUserBanStatus(ctx, "R", "1")
	if !status.Channel.IsZero() {
		t.Error("ban survived RemoveBan")
	}
}

func TestMemory_ACLRoundTrip(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	m := NewMemory()
	seedRoom(t, m, "C", "R", "room")

	_ = m.UpdateACL(ctx, models.ScopeRoom, "R", models.ActionJoin, "gender", "m")
	_ = m.UpdateACL(ctx, models.ScopeRoom, "R", models.ActionJoin, "age", "18:")
	_ = m.UpdateACL(ctx, models.ScopeRoom, "R", models.ActionJoin, "age", "")

	got, _ := m.GetACLsForAction(ctx, models.ScopeRoom, "R", models.ActionJoin)
	if len(got) != 1 || got["gender"] != "m" {
		t.Errorf("GetACLsForAction() = %v, want {gender:m}", got)
	}

	got["gender"] = "f"
	again, _ := m.GetACLsForAction(ctx, models.ScopeRoom, "R", models.ActionJoin)
	if again["gender"] != "m" {
		t.Error("returned set aliases internal state")
	}
}

func TestMemory_HistoryUntilTombstoned(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	m := NewMemory()
	base := time.Now()

	for i, id := range []string{"a", "b", "c"} {
		msg := models.Message{ID: id, FromUserID: "1", TargetID: "R", Body: "aGk=", Published: base.Add(time.Duration(i) * time.Second)}
		if err := m.StoreMessage(ctx, msg); err != nil {
			t.Fatal(err)
		}
	}
	// idempotent on id
	_ = m.StoreMessage(ctx, models.Message{ID: "a", TargetID: "R", Published: base})

	hist, _ := m.GetHistory(ctx, "R", 2)
	if len(hist) != 2 || hist[0].ID != "b" || hist[1].ID != "c" {
		t.Fatalf("GetHistory() = %+v", hist)
	}

	if err := m.DeleteMessage(ctx, "c", true); err != nil {
		t.Fatal(err)
	}
	hist, _ = m.GetHistory(ctx, "R", 10)
	if len(hist) != 2 {
		t.Errorf("tombstoned message still in history: %+v", hist)
	}
	msg, _ := m.GetMessage(ctx, "c")
	if !msg.Deleted || msg.Body != "" {
		t.Errorf("tombstone = %+v", msg)
	}

	ids, _ := m.GetUndeletedMessageIDsForUser(ctx, "1")
	if len(ids) != 2 {
		t.Errorf("GetUndeletedMessageIDsForUser() = %v", ids)
	}

	since, _ := m.GetHistorySince(ctx, "R", base, 10)
	if len(since) != 1 || since[0].ID != "b" {
		t.Errorf("GetHistorySince() = %+v", since)
	}

	if err := m.DeleteMessage(ctx, "zzz", false); !errors.Is(err, ErrNoSuchMessage) {
		t.Errorf("DeleteMessage(missing) error = %v", err)
	}
}

func TestMemory_AckStateIsMonotonic(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	m := NewMemory()
	_ = m.StoreMessage(ctx, models.Message{ID: "m1", TargetID: "R", Published: time.Now()})

	_ = m.SetAckState(ctx, "2", []string{"m1", "unknown"}, models.AckRead)
	_ = m.SetAckState(ctx, "2", []string{"m1"}, models.AckReceived)

	states, _ := m.GetAckStates(ctx, "2", []string{"m1", "unknown"})
	if states["m1"] != models.AckRead {
		t.Errorf("ack state = %v, want read", states["m1"])
	}
	if _, ok := states["unknown"]; ok {
		t.Error("ack recorded for unknown message")
	}
}

func TestMemory_RolesAndPrivateRooms(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	m := NewMemory()
	seedRoom(t, m, "C", "R", "room")
	_ = m.CreateRoom(ctx, models.Room{ID: "P", ChannelID: "C", Name: "private", Ephemeral: true}, "1")

	n, _ := m.CountPrivateRooms(ctx, "1")
	if n != 1 {
		t.Errorf("CountPrivateRooms() = %d, want 1", n)
	}

	_ = m.AddRole(ctx, "7", models.ScopeGlobal, "ignored", models.RoleSuperUser)
	roles, _ := m.GetUserRoles(ctx, "7")
	if !roles.IsSuperUser() {
		t.Error("global role not stored")
	}
	supers, _ := m.UsersWithRole(ctx, models.ScopeGlobal, "", models.RoleSuperUser)
	if len(supers) != 1 || supers[0] != "7" {
		t.Errorf("UsersWithRole() = %v", supers)
	}

	owners, _ := m.UsersWithRole(ctx, models.ScopeRoom, "P", models.RoleOwner)
	if len(owners) != 1 || owners[0] != "1" {
		t.Errorf("room owners = %v", owners)
	}

	if err := m.RemoveRoom(ctx, "P"); err != nil {
		t.Fatal(err)
	}
	owners, _ = m.UsersWithRole(ctx, models.ScopeRoom, "P", models.RoleOwner)
	if len(owners) != 0 {
		t.Error("roles survived room removal")
	}
}

func TestMemory_UsersAndBlacklist(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	m := NewMemory()

	_ = m.CreateUser(ctx, "1234", "kenobi")
	id, err := m.GetUserID(ctx, "kenobi")
	if err != nil || id != "1234" {
		t.Errorf("GetUserID() = %q, %v", id, err)
	}
	if _, err := m.GetUserName(ctx, "999"); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetUserName(missing) error = %v", err)
	}

	_ = m.AddBlacklistWords(ctx, []string{" Foo ", "bar", ""})
	_ = m.RemoveBlacklistWord(ctx, "BAR")
	words, _ := m.GetBlacklist(ctx)
	if len(words) != 1 || words[0] != "foo" {
		t.Errorf("GetBlacklist() = %v", words)
	}
}
