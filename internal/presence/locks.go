// Dino - Multi-node Real-time Chat Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/dino

package presence

import (
	"hash/fnv"
	"sync"
)

// DefaultStripes is the number of mutexes in a UserLocks.
const DefaultStripes = 256

// UserLocks is a striped lock map keyed by user id. Two users may share a
// stripe; a user always maps to the same one.
type UserLocks struct {
	stripes []sync.Mutex
}

// NewUserLocks creates n stripes; n <= 0 uses DefaultStripes.
func NewUserLocks(n int) *UserLocks {
	if n <= 0 {
		n = DefaultStripes
	}
	return &UserLocks{stripes: make([]sync.Mutex, n)}
}

func (l *UserLocks) stripe(userID string) *sync.Mutex {
	h := fnv.New32a()
	_, _ = h.Write([]byte(userID))
	return &l.stripes[h.Sum32()%uint32(len(l.stripes))]
}

// Lock acquires the user's stripe and returns the unlock func.
func (l *UserLocks) Lock(userID string) func() {
	m := l.stripe(userID)
	m.Lock()
	return m.Unlock
}

// With runs fn while holding the user's stripe.
func (l *UserLocks) With(userID string, fn func()) {
	unlock := l.Lock(userID)
	defer unlock()
	fn()
}
