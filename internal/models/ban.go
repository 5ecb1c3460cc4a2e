// Dino - Multi-node Real-time Chat Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/dino

package models

import (
	"errors"
	"regexp"
	"strconv"
	"time"
)

// ErrInvalidBanDuration is returned for durations not matching \d+[smhd].
var ErrInvalidBanDuration = errors.New("invalid ban duration")

var banDurationRe = regexp.MustCompile(`^(\d+)([smhd])$`)

// ParseBanDuration parses durations like "30s", "10m", "1h", "7d".
// Negative values, zero and unknown units are rejected.
func ParseBanDuration(s string) (time.Duration, error) {
	m := banDurationRe.FindStringSubmatch(s)
	if m == nil {
		return 0, ErrInvalidBanDuration
	}
	n, err := strconv.ParseInt(m[1], 10, 64)
	if err != nil || n <= 0 {
		return 0, ErrInvalidBanDuration
	}
	unit := map[string]time.Duration{
		"s": time.Second,
		"m": time.Minute,
		"h": time.Hour,
		"d": 24 * time.Hour,
	}[m[2]]
	return time.Duration(n) * unit, nil
}

// Ban is a scoped ban. At most one active ban exists per (user, scope,
// scope id); re-banning updates the end time.
type Ban struct {
	UserID    string        `json:"user_id"`
	UserName  string        `json:"user_name"`
	Scope     ACLScope      `json:"scope"`
	ScopeID   string        `json:"scope_id,omitempty"`
	Duration  time.Duration `json:"duration"`
	ExpiresAt time.Time     `json:"expires_at"`
	Reason    string        `json:"reason,omitempty"`
	BannerID  string        `json:"banner_id,omitempty"`
	CreatedAt time.Time     `json:"created_at"`
}

// Active reports whether the ban still applies at now.
func (b Ban) Active(now time.Time) bool {
	return now.Before(b.ExpiresAt)
}

// Remaining returns the time left, or zero once expired.
func (b Ban) Remaining(now time.Time) time.Duration {
	if !b.Active(now) {
		return 0
	}
	return b.ExpiresAt.Sub(now)
}

// BanStatus holds the end time per scope for a (room, user) pair. A zero
// time means no ban in that scope.
type BanStatus struct {
	Global  time.Time `json:"global"`
	Channel time.Time `json:"channel"`
	Room    time.Time `json:"room"`
}

// Banned returns the first active scope and its remaining duration. Expiry
// is evaluated lazily against now.
func (s BanStatus) Banned(now time.Time) (ACLScope, time.Duration, bool) {
	for _, c := range []struct {
		scope ACLScope
		end   time.Time
	}{
		{ScopeGlobal, s.Global},
		{ScopeChannel, s.Channel},
		{ScopeRoom, s.Room},
	} {
		if !c.end.IsZero() && now.Before(c.end) {
			return c.scope, c.end.Sub(now), true
		}
	}
	return "", 0, false
}
