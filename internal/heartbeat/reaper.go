// Dino - Multi-node Real-time Chat Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/dino

// Package heartbeat disconnects users whose clients stopped sending
// heartbeats.
//
// Each node keeps an in-memory user -> last-seen table fed by the heartbeat
// verb, socket logins and REST authentication. Every interval the Reaper
// takes out the entries older than timeout. A user whose cluster heartbeat
// key is still alive (another node heard from them) is refreshed locally
// and kept; every other user is handed to Target.HeartbeatExpired.
package heartbeat

import (
	"context"
	"sync"
	"time"

	"github.com/tomtom215/dino/internal/config"
	"github.com/tomtom215/dino/internal/logging"
	"github.com/tomtom215/dino/internal/metrics"
)

// Target is what the reaper consults and notifies. *chat.Service
// implements it.
type Target interface {
	HasLiveSocket(ctx context.Context, userID string) bool
	HasHeartbeat(ctx context.Context, userID string) bool
	HeartbeatExpired(ctx context.Context, userID string)
}

// Reaper is the per-node heartbeat worker.
type Reaper struct {
	interval time.Duration
	timeout  time.Duration

	mu       sync.Mutex
	lastSeen map[string]time.Time
	target   Target

	now func() time.Time
}

// New creates a reaper. Bind must be called before Serve.
func New(cfg config.HeartbeatConfig) *Reaper {
	interval := cfg.Interval
	if interval <= 0 {
		interval = 5 * time.Second
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &Reaper{
		interval: interval,
		timeout:  timeout,
		lastSeen: make(map[string]time.Time),
		now:      time.Now,
	}
}

// Bind sets the target. The chat service records heartbeats into the
// reaper and the reaper disconnects through the service, so the two are
// tied after both exist.
func (r *Reaper) Bind(t Target) {
	r.mu.Lock()
	r.target = t
	r.mu.Unlock()
}

// SetClock replaces time.Now.
func (r *Reaper) SetClock(now func() time.Time) {
	r.mu.Lock()
	r.now = now
	r.mu.Unlock()
}

// Touch records a heartbeat from userID.
func (r *Reaper) Touch(userID string) {
	if userID == "" {
		return
	}
	r.mu.Lock()
	r.lastSeen[userID] = r.now()
	n := len(r.lastSeen)
	r.mu.Unlock()
	metrics.HeartbeatTracked.Set(float64(n))
}

// Forget stops tracking userID.
func (r *Reaper) Forget(userID string) {
	r.mu.Lock()
	delete(r.lastSeen, userID)
	n := len(r.lastSeen)
	r.mu.Unlock()
	metrics.HeartbeatTracked.Set(float64(n))
}

// Tracked reports whether userID is in the table.
func (r *Reaper) Tracked(userID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.lastSeen[userID]
	return ok
}

// Len returns the number of tracked users.
func (r *Reaper) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.lastSeen)
}

// Serve sweeps every interval until ctx is done. It implements
// suture.Service.
func (r *Reaper) Serve(ctx context.Context) error {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	logging.Info().Dur("interval", r.interval).Dur("timeout", r.timeout).Msg("Heartbeat reaper started")
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			r.Sweep(ctx)
		}
	}
}

// Sweep runs one pass and returns how many users were disconnected.
func (r *Reaper) Sweep(ctx context.Context) int {
	r.mu.Lock()
	target := r.target
	if target == nil {
		r.mu.Unlock()
		return 0
	}
	now := r.now()
	var expired []string
	for userID, seen := range r.lastSeen {
		if now.Sub(seen) > r.timeout {
			expired = append(expired, userID)
			delete(r.lastSeen, userID)
		}
	}
	r.mu.Unlock()

	disconnected := 0
	for _, userID := range expired {
		if ctx.Err() != nil {
			break
		}
		// A connected socket is its own liveness signal.
		if target.HasLiveSocket(ctx, userID) || target.HasHeartbeat(ctx, userID) {
			r.Touch(userID)
			continue
		}
		target.HeartbeatExpired(ctx, userID)
		metrics.HeartbeatExpired.Inc()
		disconnected++
	}

	metrics.HeartbeatTracked.Set(float64(r.Len()))
	if disconnected > 0 {
		logging.Debug().Int("disconnected", disconnected).Int("expired", len(expired)).Msg("Heartbeat sweep finished")
	}
	return disconnected
}
