// Dino - Multi-node Real-time Chat Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/dino

package sharedstore

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"
)

type entry struct {
	str     *string
	hash    map[string]string
	set     map[string]struct{}
	bits    map[int64]struct{}
	expires time.Time
}

func (e *entry) expired(now time.Time) bool {
	return !e.expires.IsZero() && !now.Before(e.expires)
}

// Memory is an in-process Store. Several nodes in one test process can share
// a single Memory to simulate a cluster.
type Memory struct {
	mu   sync.Mutex
	data map[string]*entry
	now  func() time.Time
}

var _ Store = (*Memory)(nil)

// NewMemory returns an empty store.
func NewMemory() *Memory {
	return &Memory{data: map[string]*entry{}, now: time.Now}
}

// SetClock replaces the time source; used by tests to advance TTLs.
func (m *Memory) SetClock(now func() time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.now = now
}

// lookup returns a live entry or nil, evicting expired keys.
func (m *Memory) lookup(key string) *entry {
	e, ok := m.data[key]
	if !ok {
		return nil
	}
	if e.expired(m.now()) {
		delete(m.data, key)
		return nil
	}
	return e
}

func (m *Memory) ensure(key string) *entry {
	if e := m.lookup(key); e != nil {
		return e
	}
	e := &entry{}
	m.data[key] = e
	return e
}

// Get returns a string value or ErrNil.
func (m *Memory) Get(_ context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e := m.lookup(key)
	if e == nil || e.str == nil {
		return "", ErrNil
	}
	return *e.str, nil
}

// Set stores a string value.
func (m *Memory) Set(_ context.Context, key, value string, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	e := &entry{str: &value}
	if ttl > 0 {
		e.expires = m.now().Add(ttl)
	}
	m.data[key] = e
	return nil
}

// Del removes keys.
func (m *Memory) Del(_ context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, k := range keys {
		delete(m.data, k)
	}
	return nil
}

// Exists reports whether key is live.
func (m *Memory) Exists(_ context.Context, key string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lookup(key) != nil, nil
}

// Expire sets a TTL on a live key.
func (m *Memory) Expire(_ context.Context, key string, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if e := m.lookup(key); e != nil {
		e.expires = m.now().Add(ttl)
	}
	return nil
}

// HSet writes hash fields.
func (m *Memory) HSet(_ context.Context, key string, values map[string]string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	e := m.ensure(key)
	if e.hash == nil {
		e.hash = map[string]string{}
	}
	for k, v := range values {
		e.hash[k] = v
	}
	return nil
}

// HGet reads a hash field.
func (m *Memory) HGet(_ context.Context, key, field string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e := m.lookup(key)
	if e == nil {
		return "", ErrNil
	}
	v, ok := e.hash[field]
	if !ok {
		return "", ErrNil
	}
	return v, nil
}

// HGetAll copies a hash.
func (m *Memory) HGetAll(_ context.Context, key string) (map[string]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := map[string]string{}
	if e := m.lookup(key); e != nil {
		for k, v := range e.hash {
			out[k] = v
		}
	}
	return out, nil
}

// HDel removes hash fields.
func (m *Memory) HDel(_ context.Context, key string, fields ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if e := m.lookup(key); e != nil {
		for _, f := range fields {
			delete(e.hash, f)
		}
	}
	return nil
}

// SAdd adds members.
func (m *Memory) SAdd(_ context.Context, key string, members ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	e := m.ensure(key)
	if e.set == nil {
		e.set = map[string]struct{}{}
	}
	for _, s := range members {
		e.set[s] = struct{}{}
	}
	return nil
}

// SRem removes members.
func (m *Memory) SRem(_ context.Context, key string, members ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if e := m.lookup(key); e != nil {
		for _, s := range members {
			delete(e.set, s)
		}
	}
	return nil
}

// SIsMember reports membership.
func (m *Memory) SIsMember(_ context.Context, key, member string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e := m.lookup(key)
	if e == nil {
		return false, nil
	}
	_, ok := e.set[member]
	return ok, nil
}

// SMembers lists members in sorted order.
func (m *Memory) SMembers(_ context.Context, key string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e := m.lookup(key)
	if e == nil {
		return []string{}, nil
	}
	out := make([]string, 0, len(e.set))
	for s := range e.set {
		out = append(out, s)
	}
	sort.Strings(out)
	return out, nil
}

// SetBit sets or clears a bit.
func (m *Memory) SetBit(_ context.Context, key string, offset int64, value int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	e := m.ensure(key)
	if e.bits == nil {
		e.bits = map[int64]struct{}{}
	}
	if value != 0 {
		e.bits[offset] = struct{}{}
	} else {
		delete(e.bits, offset)
	}
	return nil
}

// GetBit reads a bit.
func (m *Memory) GetBit(_ context.Context, key string, offset int64) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e := m.lookup(key)
	if e == nil {
		return 0, nil
	}
	if _, ok := e.bits[offset]; ok {
		return 1, nil
	}
	return 0, nil
}

// FlushPrefix deletes keys starting with prefix.
func (m *Memory) FlushPrefix(_ context.Context, prefix string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for k := range m.data {
		if strings.HasPrefix(k, prefix) {
			delete(m.data, k)
		}
	}
	return nil
}

// Ping always succeeds.
func (m *Memory) Ping(context.Context) error { return nil }

// Close is a no-op.
func (m *Memory) Close() error { return nil }
