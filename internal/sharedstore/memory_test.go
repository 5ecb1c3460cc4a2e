// Dino - Multi-node Real-time Chat Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/dino

package sharedstore

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

func TestMemory_StringTTL(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	m := NewMemory()
	now := time.Now()
	m.SetClock(func() time.Time { return now })

	if err := m.Set(ctx, "hb:1", "1", time.Minute); err != nil {
		t.Fatal(err)
	}
	if v, err := m.Get(ctx, "hb:1"); err != nil || v != "1" {
		t.Fatalf("Get() = %q, %v", v, err)
	}

	now = now.Add(61 * time.Second)
	if _, err := m.Get(ctx, "hb:1"); !errors.Is(err, ErrNil) {
		t.Errorf("Get() after expiry error = %v, want ErrNil", err)
	}
	if ok, _ := m.Exists(ctx, "hb:1"); ok {
		t.Error("expired key still exists")
	}
}

func TestMemory_HashSetBitmap(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	m := NewMemory()

	_ = m.HSet(ctx, "session:1", map[string]string{"gender": "f", "age": "30"})
	_ = m.HDel(ctx, "session:1", "age")
	all, _ := m.HGetAll(ctx, "session:1")
	if len(all) != 1 || all["gender"] != "f" {
		t.Errorf("HGetAll() = %v", all)
	}
	if _, err := m.HGet(ctx, "session:1", "age"); !errors.Is(err, ErrNil) {
		t.Errorf("HGet(deleted) error = %v", err)
	}

	_ = m.SAdd(ctx, "online", "1", "2")
	_ = m.SRem(ctx, "online", "1")
	members, _ := m.SMembers(ctx, "online")
	if len(members) != 1 || members[0] != "2" {
		t.Errorf("SMembers() = %v", members)
	}
	if ok, _ := m.SIsMember(ctx, "online", "2"); !ok {
		t.Error("SIsMember() = false")
	}

	_ = m.SetBit(ctx, "bitmap", 1234, 1)
	if v, _ := m.GetBit(ctx, "bitmap", 1234); v != 1 {
		t.Error("bit not set")
	}
	_ = m.SetBit(ctx, "bitmap", 1234, 0)
	if v, _ := m.GetBit(ctx, "bitmap", 1234); v != 0 {
		t.Error("bit not cleared")
	}
}

func TestMemory_FlushPrefix(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	m := NewMemory()

	_ = m.Set(ctx, "dino:a", "1", 0)
	_ = m.Set(ctx, "dino:b", "1", 0)
	_ = m.Set(ctx, "other", "1", 0)
	_ = m.FlushPrefix(ctx, "dino:")

	if ok, _ := m.Exists(ctx, "dino:a"); ok {
		t.Error("prefixed key survived flush")
	}
	if ok, _ := m.Exists(ctx, "other"); !ok {
		t.Error("unrelated key flushed")
	}
}

func TestMemory_ConcurrentAccess(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	m := NewMemory()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_ = m.SAdd(ctx, "set", string(rune('a'+i%26)))
			_, _ = m.SMembers(ctx, "set")
		}(i)
	}
	wg.Wait()

	members, _ := m.SMembers(ctx, "set")
	if len(members) != 26 {
		t.Errorf("len(SMembers()) = %d, want 26", len(members))
	}
}
