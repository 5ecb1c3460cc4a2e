// Dino - Multi-node Real-time Chat Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/dino

package auth

import (
	"fmt"
	"time"

	"github.com/tomtom215/dino/internal/logging"
	"github.com/tomtom215/dino/internal/sharedstore"
)

// Session store backend names.
const (
	StoreMemory = "memory"
	StoreRedis  = "redis"
	StoreBadger = "badger"
)

// StoreOptions selects and configures a session store.
type StoreOptions struct {
	Type       string
	BadgerPath string
	TTL        time.Duration
	// Shared and Prefix are required for the redis backend.
	Shared sharedstore.Store
	Prefix string
}

// NewSessionStore builds the configured backend.
func NewSessionStore(opts StoreOptions) (SessionStore, error) {
	var store SessionStore
	switch opts.Type {
	case StoreMemory, "":
		store = NewMemorySessionStore(opts.TTL)
	case StoreRedis:
		if opts.Shared == nil {
			return nil, fmt.Errorf("session store redis: shared store is required")
		}
		store = NewSharedSessionStore(opts.Shared, opts.Prefix, opts.TTL)
	case StoreBadger:
		db, err := OpenBadger(opts.BadgerPath)
		if err != nil {
			return nil, err
		}
		store = NewBadgerSessionStore(db, opts.TTL)
	default:
		return nil, fmt.Errorf("unknown session store type %q", opts.Type)
	}

	logging.Info().
		Str("type", opts.Type).
		Dur("ttl", opts.TTL).
		Msg("Session store initialized")
	return store, nil
}
