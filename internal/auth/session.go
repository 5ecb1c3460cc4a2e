// Dino - Multi-node Real-time Chat Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/dino

package auth

import (
	"context"
	"io"
	"maps"
	"sync"
	"time"
)

// SessionStore persists per-user session attributes.
type SessionStore interface {
	// Get returns a copy of the user's attributes or ErrSessionNotFound.
	Get(ctx context.Context, userID string) (map[string]string, error)

	// Put replaces the user's attributes.
	Put(ctx context.Context, userID string, attrs map[string]string) error

	// Update merges attrs into an existing session; empty values delete
	// keys. Returns ErrSessionNotFound when there is nothing to update.
	Update(ctx context.Context, userID string, attrs map[string]string) error

	// Delete drops the session. Deleting a missing session is not an error.
	Delete(ctx context.Context, userID string) error

	io.Closer
}

type memoryEntry struct {
	attrs     map[string]string
	expiresAt time.Time
}

// MemorySessionStore keeps sessions in process memory.
type MemorySessionStore struct {
	mu       sync.RWMutex
	sessions map[string]memoryEntry
	ttl      time.Duration
	now      func() time.Time
}

var _ SessionStore = (*MemorySessionStore)(nil)

// NewMemorySessionStore creates a store whose sessions expire after ttl;
// ttl <= 0 disables expiry.
func NewMemorySessionStore(ttl time.Duration) *MemorySessionStore {
	return &MemorySessionStore{sessions: map[string]memoryEntry{}, ttl: ttl, now: time.Now}
}

func (s *MemorySessionStore) expired(e memoryEntry) bool {
	return !e.expiresAt.IsZero() && s.now().After(e.expiresAt)
}

// Get implements SessionStore.
func (s *MemorySessionStore) Get(_ context.Context, userID string) (map[string]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.sessions[userID]
	if !ok || s.expired(e) {
		return nil, ErrSessionNotFound
	}
	return maps.Clone(e.attrs), nil
}

// Put implements SessionStore.
func (s *MemorySessionStore) Put(_ context.Context, userID string, attrs map[string]string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	e := memoryEntry{attrs: maps.Clone(attrs)}
	if e.attrs == nil {
		e.attrs = map[string]string{}
	}
	if s.ttl > 0 {
		e.expiresAt = s.now().Add(s.ttl)
	}
	s.sessions[userID] = e
	return nil
}

// Update implements SessionStore.
func (s *MemorySessionStore) Update(_ context.Context, userID string, attrs map[string]string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.sessions[userID]
	if !ok || s.expired(e) {
		return ErrSessionNotFound
	}
	mergeAttrs(e.attrs, attrs)
	return nil
}

// Delete implements SessionStore.
func (s *MemorySessionStore) Delete(_ context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, userID)
	return nil
}

// Close implements io.Closer.
func (s *MemorySessionStore) Close() error { return nil }

// CleanupExpired drops expired sessions and returns how many were removed.
func (s *MemorySessionStore) CleanupExpired() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for id, e := range s.sessions {
		if s.expired(e) {
			delete(s.sessions, id)
			n++
		}
	}
	return n
}

func mergeAttrs(dst, src map[string]string) {
	for k, v := range src {
		if v == "" {
			delete(dst, k)
			continue
		}
		dst[k] = v
	}
}
