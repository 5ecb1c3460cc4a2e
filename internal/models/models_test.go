// Dino - Multi-node Real-time Chat Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/dino

package models

import (
	"testing"
	"time"
)

func TestParseBanDuration(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in      string
		want    time.Duration
		wantErr bool
	}{
		{"30s", 30 * time.Second, false},
		{"10m", 10 * time.Minute, false},
		{"1h", time.Hour, false},
		{"7d", 7 * 24 * time.Hour, false},
		{"-1h", 0, true},
		{"0m", 0, true},
		{"1w", 0, true},
		{"h", 0, true},
		{"", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseBanDuration(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseBanDuration(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseBanDuration(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestBanStatus_LazyExpiry(t *testing.T) {
	t.Parallel()

	now := time.Now()
	status := BanStatus{
		Global: now.Add(-time.Minute),
		Room:   now.Add(10 * time.Minute),
	}

	scope, remaining, banned := status.Banned(now)
	if !banned || scope != ScopeRoom {
		t.Fatalf("Banned() = %v, %v, want room ban", scope, banned)
	}
	if remaining != 10*time.Minute {
		t.Errorf("remaining = %v", remaining)
	}

	if _, _, banned := status.Banned(now.Add(11 * time.Minute)); banned {
		t.Error("expired ban still reported")
	}
}

func TestUserStatus_Sets(t *testing.T) {
	t.Parallel()

	if !StatusInvisible.IsMulticastEligible() || StatusInvisible.IsOnline() {
		t.Error("invisible must be multicast eligible but not online")
	}
	if StatusUnavailable.IsMulticastEligible() {
		t.Error("unavailable must not be multicast eligible")
	}
	if ParseUserStatus("bogus") != StatusUnknown {
		t.Error("unknown status not mapped")
	}
}

func TestUserRoles(t *testing.T) {
	t.Parallel()

	r := NewUserRoles()
	r.Add(ScopeRoom, "R", RoleOwner)
	r.Add(ScopeRoom, "R", RoleOwner)
	r.Add(ScopeChannel, "C", RoleAdmin)

	if len(r.Room["R"]) != 1 {
		t.Errorf("duplicate role added: %v", r.Room["R"])
	}
	if !r.IsRoomOwner("R") || r.IsRoomOwner("X") {
		t.Error("IsRoomOwner wrong")
	}
	if !r.CanModerateRoom("other", "C") {
		t.Error("channel admin should moderate rooms in channel")
	}
	if r.IsPrivileged() {
		t.Error("no global role expected")
	}
}

func TestSession_TempAndMerge(t *testing.T) {
	t.Parallel()

	s := NewSession("1234")
	s.Token = "secret"
	s.SetTemp("autojoined", "1")
	s.Merge(map[string]string{SessionGender: "f", SessionUserID: "9999", SessionToken: "x"})

	if s.UserID != "1234" || s.Token != "secret" {
		t.Error("claims overwrote server controlled keys")
	}
	if s.Get(SessionGender) != "f" {
		t.Error("claim not merged")
	}

	s.ResetTemp()
	if s.GetTemp("autojoined") != "" {
		t.Error("temp key survived reset")
	}
}

func TestIsValidUserID(t *testing.T) {
	t.Parallel()

	if !IsValidUserID("1234") || IsValidUserID("abc") || IsValidUserID("") {
		t.Error("IsValidUserID wrong")
	}
}
