// Dino - Multi-node Real-time Chat Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/dino

package acl

import (
	"context"
	"testing"

	"github.com/tomtom215/dino/internal/activity"
	"github.com/tomtom215/dino/internal/models"
)

func TestStrInCSV(t *testing.T) {
	tests := []struct {
		have  string
		value string
		want  bool
	}{
		{"m", "m", true},
		{"M", "m,f", true},
		{"f", "m", false},
		{"", "m", false},
		{"cn", "!cn", false},
		{"se", "!cn", true},
		{"", "!cn", true},
		{"se", "se,!cn", true},
		{"de", "se,!cn", false},
	}
	for _, tt := range tests {
		t.Run(tt.have+"/"+tt.value, func(t *testing.T) {
			req := &Request{Session: session(map[string]string{"country": tt.have})}
			if got, _ := (StrInCSV{}).Validate(context.Background(), req, "country", tt.value); got != tt.want {
				t.Errorf("Validate() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestRange(t *testing.T) {
	tests := []struct {
		have  string
		value string
		want  bool
	}{
		{"30", "18:40", true},
		{"18", "18:40", true},
		{"40", "18:40", true},
		{"41", "18:40", false},
		{"17", "18:", false},
		{"99", "18:", true},
		{"5", ":10", true},
		{"abc", "18:40", false},
		{"", "18:40", false},
	}
	for _, tt := range tests {
		t.Run(tt.have+"/"+tt.value, func(t *testing.T) {
			req := &Request{Session: session(map[string]string{"age": tt.have})}
			if got, _ := (Range{}).Validate(context.Background(), req, "age", tt.value); got != tt.want {
				t.Errorf("Validate() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSameRoom(t *testing.T) {
	act := activity.New(activity.VerbMessage)
	act.Actor.URL = "R1"
	act.EnsureTarget().ID = "R1"
	req := &Request{Activity: act}

	if ok, _ := (SameRoom{}).Validate(context.Background(), req, "", ""); !ok {
		t.Error("same room denied")
	}
	act.Target.ID = "R2"
	if ok, _ := (SameRoom{}).Validate(context.Background(), req, "", ""); ok {
		t.Error("different room allowed")
	}
}

func TestRoleChecks(t *testing.T) {
	roles := models.NewUserRoles()
	roles.Add(models.ScopeRoom, "R", models.RoleOwner)
	roles.Add(models.ScopeChannel, "C", models.RoleAdmin)
	req := &Request{Roles: roles, Scope: models.ScopeRoom, TargetID: "R", ChannelID: "C"}
	ctx := context.Background()

	if ok, _ := IsRoomOwner().Validate(ctx, req, "", ""); !ok {
		t.Error("owner check failed")
	}
	if ok, _ := IsAdmin().Validate(ctx, req, "", ""); !ok {
		t.Error("admin check failed")
	}
	if ok, _ := IsSuperUser().Validate(ctx, req, "", ""); ok {
		t.Error("superuser check passed without role")
	}

	req.TargetID = "other"
	if ok, _ := IsRoomOwner().Validate(ctx, req, "", ""); ok {
		t.Error("owner check passed for another room")
	}
	req.Roles = nil
	if ok, _ := IsAdmin().Validate(ctx, req, "", ""); ok {
		t.Error("nil roles passed admin check")
	}
}
