// Dino - Multi-node Real-time Chat Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/dino

package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"
)

// BadgerSessionStore persists sessions in BadgerDB so they survive restarts.
// Expiry uses Badger's native entry TTL.
type BadgerSessionStore struct {
	db  *badger.DB
	ttl time.Duration
}

var _ SessionStore = (*BadgerSessionStore)(nil)

// NewBadgerSessionStore wraps an open database.
func NewBadgerSessionStore(db *badger.DB, ttl time.Duration) *BadgerSessionStore {
	return &BadgerSessionStore{db: db, ttl: ttl}
}

// OpenBadger opens a database at path; an empty path opens an in-memory
// instance.
func OpenBadger(path string) (*badger.DB, error) {
	opts := badger.DefaultOptions(path)
	if path == "" {
		opts = opts.WithInMemory(true)
	}
	opts.Logger = nil
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger db for sessions: %w", err)
	}
	return db, nil
}

func badgerKey(userID string) []byte {
	return []byte(sessionKeyPrefix + userID)
}

func (s *BadgerSessionStore) read(txn *badger.Txn, userID string) (map[string]string, error) {
	item, err := txn.Get(badgerKey(userID))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}
	attrs := map[string]string{}
	if err := item.Value(func(val []byte) error {
		return json.Unmarshal(val, &attrs)
	}); err != nil {
		return nil, fmt.Errorf("decode session: %w", err)
	}
	return attrs, nil
}

func (s *BadgerSessionStore) write(txn *badger.Txn, userID string, attrs map[string]string) error {
	data, err := json.Marshal(attrs)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}
	e := badger.NewEntry(badgerKey(userID), data)
	if s.ttl > 0 {
		e = e.WithTTL(s.ttl)
	}
	return txn.SetEntry(e)
}

// Get implements SessionStore.
func (s *BadgerSessionStore) Get(_ context.Context, userID string) (map[string]string, error) {
	var attrs map[string]string
	err := s.db.View(func(txn *badger.Txn) error {
		var err error
		attrs, err = s.read(txn, userID)
		return err
	})
	return attrs, err
}

// Put implements SessionStore.
func (s *BadgerSessionStore) Put(_ context.Context, userID string, attrs map[string]string) error {
	return s.db.Update(func(txn *badger.Txn) error {
		return s.write(txn, userID, attrs)
	})
}

// Update implements SessionStore.
func (s *BadgerSessionStore) Update(_ context.Context, userID string, attrs map[string]string) error {
	return s.db.Update(func(txn *badger.Txn) error {
		current, err := s.read(txn, userID)
		if err != nil {
			return err
		}
		mergeAttrs(current, attrs)
		return s.write(txn, userID, current)
	})
}

// Delete implements SessionStore.
func (s *BadgerSessionStore) Delete(_ context.Context, userID string) error {
	return s.db.Update(func(txn *badger.Txn) error {
		err := txn.Delete(badgerKey(userID))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		return err
	})
}

// Close closes the database.
func (s *BadgerSessionStore) Close() error {
	return s.db.Close()
}
