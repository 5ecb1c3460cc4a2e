// Dino - Multi-node Real-time Chat Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/dino

//go:build integration

package database

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/tomtom215/dino/internal/models"
	"github.com/tomtom215/dino/internal/testinfra"
)

func newPostgres(t *testing.T) *DB {
	t.Helper()
	cfg := DefaultConfig()
	cfg.DSN = testinfra.StartPostgres(t)
	db, err := New(context.Background(), cfg)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	t.Cleanup(db.Close)
	return db
}

func TestPostgres_RoomLifecycle(t *testing.T) {
	ctx := context.Background()
	db := newPostgres(t)

	if err := db.CreateUser(ctx, "1234", "alice"); err != nil {
		t.Fatalf("CreateUser() error = %v", err)
	}
	if err := db.CreateChannel(ctx, models.Channel{ID: "C", Name: "general"}, "1234"); err != nil {
		t.Fatalf("CreateChannel() error = %v", err)
	}
	if err := db.CreateRoom(ctx, models.Room{ID: "R", ChannelID: "C", Name: "lobby"}, "1234"); err != nil {
		t.Fatalf("CreateRoom() error = %v", err)
	}
	err := db.CreateRoom(ctx, models.Room{ID: "R2", ChannelID: "C", Name: "lobby"}, "1234")
	if !errors.Is(err, ErrRoomExists) {
		t.Errorf("duplicate CreateRoom() error = %v, want ErrRoomExists", err)
	}

	if err := db.JoinRoom(ctx, "1234", "alice", "R"); err != nil {
		t.Fatalf("JoinRoom() error = %v", err)
	}
	if err := db.JoinRoom(ctx, "1234", "alice", "missing"); !errors.Is(err, ErrNoSuchRoom) {
		t.Errorf("JoinRoom(missing) error = %v", err)
	}
	rooms, err := db.RoomsForUser(ctx, "1234")
	if err != nil || rooms["R"] != "lobby" {
		t.Errorf("RoomsForUser() = %v, %v", rooms, err)
	}
	counts, _ := db.CountJoins(ctx, []string{"R"})
	if counts["R"] != 1 {
		t.Errorf("CountJoins() = %v", counts)
	}

	roles, err := db.GetUserRoles(ctx, "1234")
	if err != nil {
		t.Fatalf("GetUserRoles() error = %v", err)
	}
	if len(roles.Room["R"]) == 0 {
		t.Errorf("room owner role missing: %+v", roles)
	}

	if err := db.UpdateACL(ctx, models.ScopeRoom, "R", models.ActionJoin, "gender", "f"); err != nil {
		t.Fatalf("UpdateACL() error = %v", err)
	}
	acls, _ := db.GetACLs(ctx, models.ScopeRoom, "R")
	if acls[models.ActionJoin]["gender"] != "f" {
		t.Errorf("GetACLs() = %v", acls)
	}

	if err := db.RemoveRoom(ctx, "R"); err != nil {
		t.Fatalf("RemoveRoom() error = %v", err)
	}
	if ok, _ := db.RoomExists(ctx, "R"); ok {
		t.Error("room still exists after RemoveRoom()")
	}
}

func TestPostgres_HistoryAndBans(t *testing.T) {
	ctx := context.Background()
	db := newPostgres(t)
	base := time.Now().UTC().Truncate(time.Millisecond)

	for i, id := range []string{"a", "b", "c"} {
		msg := models.Message{ID: id, FromUserID: "1", FromName: "alice", TargetType: "room", TargetID: "R", Body: "aGk=", Published: base.Add(time.Duration(i) * time.Second)}
		if err := db.StoreMessage(ctx, msg); err != nil {
			t.Fatalf("StoreMessage() error = %v", err)
		}
	}
	hist, err := db.GetHistory(ctx, "R", 2)
	if err != nil || len(hist) != 2 || hist[0].ID != "b" || hist[1].ID != "c" {
		t.Fatalf("GetHistory() = %+v, %v", hist, err)
	}
	if err := db.DeleteMessage(ctx, "c", true); err != nil {
		t.Fatalf("DeleteMessage() error = %v", err)
	}
	since, _ := db.GetHistorySince(ctx, "R", base, 10)
	if len(since) != 1 || since[0].ID != "b" {
		t.Errorf("GetHistorySince() = %+v", since)
	}

	ban := models.Ban{UserID: "1", Scope: models.ScopeGlobal, Duration: time.Hour, ExpiresAt: base.Add(time.Hour), Reason: "spam", BannerID: "0", CreatedAt: base}
	if err := db.BanUser(ctx, ban); err != nil {
		t.Fatalf("BanUser() error = %v", err)
	}
	if err := db.BanUser(ctx, ban); err != nil {
		t.Fatalf("second BanUser() error = %v", err)
	}
	bans, _ := db.GetBans(ctx, base)
	if len(bans) != 1 {
		t.Errorf("GetBans() = %+v", bans)
	}
	status, _ := db.GetUserBanStatus(ctx, "R", "1")
	if status.Global.IsZero() {
		t.Error("global ban not reported")
	}

	if err := db.AddBlacklistWords(ctx, []string{"foo", "bar", "foo"}); err != nil {
		t.Fatalf("AddBlacklistWords() error = %v", err)
	}
	words, _ := db.GetBlacklist(ctx)
	if len(words) != 2 {
		t.Errorf("GetBlacklist() = %v", words)
	}
}
