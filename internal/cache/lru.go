// Dino - Multi-node Real-time Chat Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/dino

package cache

import (
	"sync"
	"time"
)

// lruNode is an element of the recency list.
type lruNode struct {
	key       string
	seenAt    time.Time
	expiresAt time.Time
	prev      *lruNode
	next      *lruNode
}

// LRU is a bounded, mutex-guarded set of string ids ordered by recency.
//
// The bus uses three of them: "recently handled" and "recently delegated"
// internal event ids, and the last N external ids that were sent. When the
// set is full the least recently touched id is evicted.
//
// A zero ttl means ids never expire and only capacity bounds the set.
type LRU struct {
	mu sync.Mutex

	capacity int
	ttl      time.Duration
	items    map[string]*lruNode

	// head.next is the most recently used, tail.prev the least.
	head *lruNode
	tail *lruNode

	hits   int64
	misses int64
	now    func() time.Time
}

// NewLRU creates a set holding at most capacity ids.
func NewLRU(capacity int, ttl time.Duration) *LRU {
	if capacity <= 0 {
		capacity = 100
	}
	l := &LRU{
		capacity: capacity,
		ttl:      ttl,
		items:    make(map[string]*lruNode, capacity),
		head:     &lruNode{},
		tail:     &lruNode{},
		now:      time.Now,
	}
	l.head.next = l.tail
	l.tail.prev = l.head
	return l
}

func (l *LRU) expired(n *lruNode, now time.Time) bool {
	return l.ttl > 0 && now.After(n.expiresAt)
}

// Contains reports whether id is present without touching its recency.
func (l *LRU) Contains(id string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	n, ok := l.items[id]
	if !ok {
		return false
	}
	if l.expired(n, l.now()) {
		l.unlink(n)
		return false
	}
	return true
}

// Add records id as most recently used.
func (l *LRU) Add(id string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.add(id, l.now())
}

// Seen reports whether id was already present and records it either way.
// It is the check-and-set used to apply an event at most once.
func (l *LRU) Seen(id string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if n, ok := l.items[id]; ok {
		if !l.expired(n, now) {
			l.moveToFront(n)
			l.hits++
			return true
		}
		l.unlink(n)
	}
	l.add(id, now)
	l.misses++
	return false
}

// Remove deletes id, reporting whether it was present.
func (l *LRU) Remove(id string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	if n, ok := l.items[id]; ok {
		l.unlink(n)
		return true
	}
	return false
}

// Len returns the number of ids held, expired ones included until touched.
func (l *LRU) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.items)
}

// Clear empties the set.
func (l *LRU) Clear() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.items = make(map[string]*lruNode, l.capacity)
	l.head.next = l.tail
	l.tail.prev = l.head
}

// Stats returns Seen hit/miss counters and the current size.
func (l *LRU) Stats() (hits, misses int64, size int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.hits, l.misses, len(l.items)
}

// add must be called with the lock held.
func (l *LRU) add(id string, now time.Time) {
	if n, ok := l.items[id]; ok {
		n.seenAt = now
		n.expiresAt = now.Add(l.ttl)
		l.moveToFront(n)
		return
	}
	n := &lruNode{key: id, seenAt: now, expiresAt: now.Add(l.ttl)}
	l.pushFront(n)
	l.items[id] = n
	for len(l.items) > l.capacity {
		oldest := l.tail.prev
		if oldest == l.head {
			break
		}
		l.unlink(oldest)
	}
}

func (l *LRU) pushFront(n *lruNode) {
	n.prev = l.head
	n.next = l.head.next
	l.head.next.prev = n
	l.head.next = n
}

func (l *LRU) moveToFront(n *lruNode) {
	n.prev.next = n.next
	n.next.prev = n.prev
	l.pushFront(n)
}

func (l *LRU) unlink(n *lruNode) {
	n.prev.next = n.next
	n.next.prev = n.prev
	delete(l.items, n.key)
}
