// Dino - Multi-node Real-time Chat Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/dino

// Package sharedstore is the cluster-wide key/value tier used for
// cross-node truths: online sets, presence bitmaps, the sid to user map,
// session hashes, ban timestamps and heartbeat keys.
//
// Two implementations exist. Redis is used in production; Memory backs tests
// and single-node deployments. Both honour key TTLs and bound every
// operation by the configured timeout (one second by default).
package sharedstore

import (
	"context"
	"errors"
	"time"
)

// ErrNil is returned by string and hash getters on a missing key or field.
var ErrNil = errors.New("sharedstore: nil")

// Store is the set of distributed primitives the chat fabric relies on:
// strings with TTL, hashes, sets and bitmaps.
type Store interface {
	Get(ctx context.Context, key string) (string, error)
	// Set stores value; ttl <= 0 means no expiry.
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
	Exists(ctx context.Context, key string) (bool, error)
	Expire(ctx context.Context, key string, ttl time.Duration) error

	HSet(ctx context.Context, key string, values map[string]string) error
	HGet(ctx context.Context, key, field string) (string, error)
	HGetAll(ctx context.Context, key string) (map[string]string, error)
	HDel(ctx context.Context, key string, fields ...string) error

	SAdd(ctx context.Context, key string, members ...string) error
	SRem(ctx context.Context, key string, members ...string) error
	SIsMember(ctx context.Context, key, member string) (bool, error)
	SMembers(ctx context.Context, key string) ([]string, error)

	SetBit(ctx context.Context, key string, offset int64, value int) error
	GetBit(ctx context.Context, key string, offset int64) (int, error)

	// FlushPrefix deletes every key starting with prefix.
	FlushPrefix(ctx context.Context, prefix string) error

	Ping(ctx context.Context) error
	Close() error
}

// DefaultOpTimeout bounds a single shared-tier operation.
const DefaultOpTimeout = time.Second
