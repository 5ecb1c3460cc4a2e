// Dino - Multi-node Real-time Chat Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/dino

package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/tomtom215/dino/internal/sharedstore"
)

const sessionKeyPrefix = "session:"

// SharedSessionStore keeps one hash per user in the shared store so every
// node sees the same session.
type SharedSessionStore struct {
	store  sharedstore.Store
	prefix string
	ttl    time.Duration
}

var _ SessionStore = (*SharedSessionStore)(nil)

// NewSharedSessionStore wraps a shared store. prefix namespaces keys.
func NewSharedSessionStore(store sharedstore.Store, prefix string, ttl time.Duration) *SharedSessionStore {
	return &SharedSessionStore{store: store, prefix: prefix, ttl: ttl}
}

func (s *SharedSessionStore) key(userID string) string {
	return s.prefix + sessionKeyPrefix + userID
}

// Get implements SessionStore.
func (s *SharedSessionStore) Get(ctx context.Context, userID string) (map[string]string, error) {
	attrs, err := s.store.HGetAll(ctx, s.key(userID))
	if err != nil {
		return nil, fmt.Errorf("get session %s: %w", userID, err)
	}
	if len(attrs) == 0 {
		return nil, ErrSessionNotFound
	}
	return attrs, nil
}

// Put implements SessionStore.
func (s *SharedSessionStore) Put(ctx context.Context, userID string, attrs map[string]string) error {
	key := s.key(userID)
	if err := s.store.Del(ctx, key); err != nil {
		return fmt.Errorf("reset session %s: %w", userID, err)
	}
	if err := s.store.HSet(ctx, key, attrs); err != nil {
		return fmt.Errorf("put session %s: %w", userID, err)
	}
	if s.ttl > 0 {
		return s.store.Expire(ctx, key, s.ttl)
	}
	return nil
}

// Update implements SessionStore.
func (s *SharedSessionStore) Update(ctx context.Context, userID string, attrs map[string]string) error {
	key := s.key(userID)
	exists, err := s.store.Exists(ctx, key)
	if err != nil {
		return fmt.Errorf("update session %s: %w", userID, err)
	}
	if !exists {
		return ErrSessionNotFound
	}

	set := map[string]string{}
	var del []string
	for k, v := range attrs {
		if v == "" {
			del = append(del, k)
		} else {
			set[k] = v
		}
	}
	if err := s.store.HSet(ctx, key, set); err != nil {
		return err
	}
	return s.store.HDel(ctx, key, del...)
}

// Delete implements SessionStore.
func (s *SharedSessionStore) Delete(ctx context.Context, userID string) error {
	return s.store.Del(ctx, s.key(userID))
}

// Close is a no-op; the shared store is owned by the caller.
func (s *SharedSessionStore) Close() error { return nil }
