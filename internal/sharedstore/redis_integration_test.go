// Dino - Multi-node Real-time Chat Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/dino

//go:build integration

package sharedstore

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/tomtom215/dino/internal/testinfra"
)

func TestRedis_Store(t *testing.T) {
	ctx := context.Background()
	client, err := NewRedisClient(ctx, RedisConfig{Addr: testinfra.StartRedis(t)})
	if err != nil {
		t.Fatalf("NewRedisClient() error = %v", err)
	}
	s := NewRedis(client, time.Second)
	t.Cleanup(func() { _ = s.Close() })

	if err := s.Set(ctx, "dino:user:1:name", "alice", time.Minute); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	if v, err := s.Get(ctx, "dino:user:1:name"); err != nil || v != "alice" {
		t.Errorf("Get() = %q, %v", v, err)
	}
	if _, err := s.Get(ctx, "dino:missing"); !errors.Is(err, ErrNil) {
		t.Errorf("Get(missing) error = %v, want ErrNil", err)
	}

	if err := s.HSet(ctx, "dino:room:R:users", map[string]string{"1": "alice", "2": "bob"}); err != nil {
		t.Fatalf("HSet() error = %v", err)
	}
	if all, _ := s.HGetAll(ctx, "dino:room:R:users"); len(all) != 2 {
		t.Errorf("HGetAll() = %v", all)
	}

	if err := s.SAdd(ctx, "dino:online", "1", "2"); err != nil {
		t.Fatalf("SAdd() error = %v", err)
	}
	if ok, _ := s.SIsMember(ctx, "dino:online", "2"); !ok {
		t.Error("SIsMember() = false")
	}

	if err := s.SetBit(ctx, "dino:online:bits", 1234, 1); err != nil {
		t.Fatalf("SetBit() error = %v", err)
	}
	if bit, _ := s.GetBit(ctx, "dino:online:bits", 1234); bit != 1 {
		t.Errorf("GetBit() = %d", bit)
	}

	if err := s.FlushPrefix(ctx, "dino:"); err != nil {
		t.Fatalf("FlushPrefix() error = %v", err)
	}
	if ok, _ := s.Exists(ctx, "dino:user:1:name"); ok {
		t.Error("key survived FlushPrefix()")
	}
}
