// Dino - Multi-node Real-time Chat Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/dino

package cache

import (
	"math/rand/v2"
	"strings"
	"time"

	"github.com/jellydator/ttlcache/v3"

	"github.com/tomtom215/dino/internal/metrics"
)

// Jitter bounds as a fraction of the base TTL.
const (
	minJitter = 0.05
	maxJitter = 0.50
)

// Local is the process-local tier: a TTL map whose entries expire at the
// base TTL shifted by a random 5-50% in either direction, so keys written
// together do not all expire together.
type Local struct {
	items  *ttlcache.Cache[string, any]
	jitter bool
}

// NewLocal creates the local tier. Call Start to run the expiry loop.
func NewLocal(capacity uint64, jitter bool) *Local {
	opts := []ttlcache.Option[string, any]{
		ttlcache.WithDisableTouchOnHit[string, any](),
	}
	if capacity > 0 {
		opts = append(opts, ttlcache.WithCapacity[string, any](capacity))
	}
	return &Local{items: ttlcache.New[string, any](opts...), jitter: jitter}
}

// Start runs the expiry loop until Stop is called. It blocks.
func (l *Local) Start() { l.items.Start() }

// Stop ends the expiry loop.
func (l *Local) Stop() { l.items.Stop() }

// Jittered returns ttl shifted by a random 5-50%, never below one millisecond.
func Jittered(ttl time.Duration) time.Duration {
	if ttl <= 0 {
		return ttl
	}
	frac := minJitter + rand.Float64()*(maxJitter-minJitter)
	if rand.IntN(2) == 0 {
		frac = -frac
	}
	out := time.Duration(float64(ttl) * (1 + frac))
	if out < time.Millisecond {
		out = time.Millisecond
	}
	return out
}

// Get returns the value for key or false on miss.
func (l *Local) Get(key string) (any, bool) {
	item := l.items.Get(key)
	if item == nil {
		return nil, false
	}
	return item.Value(), true
}

// Set stores value under key for about ttl.
func (l *Local) Set(key string, value any, ttl time.Duration) {
	if l.jitter {
		ttl = Jittered(ttl)
	}
	l.items.Set(key, value, ttl)
}

// Delete drops keys.
func (l *Local) Delete(keys ...string) {
	for _, k := range keys {
		l.items.Delete(k)
	}
}

// DeletePrefix drops every key starting with prefix.
func (l *Local) DeletePrefix(prefix string) int {
	n := 0
	for _, k := range l.items.Keys() {
		if strings.HasPrefix(k, prefix) {
			l.items.Delete(k)
			n++
		}
	}
	return n
}

// Clear drops everything.
func (l *Local) Clear() { l.items.DeleteAll() }

// Len returns the number of live entries.
func (l *Local) Len() int { return l.items.Len() }

// Metrics returns hit/miss counters.
func (l *Local) Metrics() (hits, misses uint64) {
	m := l.items.Metrics()
	return m.Hits, m.Misses
}

// getAs is a typed Local.Get.
func getAs[T any](l *Local, key string) (T, bool) {
	var zero T
	v, ok := l.Get(key)
	if !ok {
		metrics.RecordCache("local", false)
		return zero, false
	}
	t, ok := v.(T)
	metrics.RecordCache("local", ok)
	return t, ok
}
