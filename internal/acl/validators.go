// Dino - Multi-node Real-time Chat Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/dino

package acl

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/tomtom215/dino/internal/models"
)

// Validator checks one ACL (type, value) pair against a request.
type Validator interface {
	// Validate returns false and a reason to deny.
	Validate(ctx context.Context, req *Request, aclType, value string) (bool, string)

	// ValidateNew checks the syntax of a value submitted through set_acl.
	ValidateNew(value string) error
}

// ChannelLookup resolves the channel a room belongs to.
type ChannelLookup func(ctx context.Context, roomID string) (string, error)

// StrInCSV allows when the session attribute named by the ACL type is one
// of the listed values and none of the excluded ones.
type StrInCSV struct{}

// Validate implements Validator.
func (StrInCSV) Validate(_ context.Context, req *Request, aclType, value string) (bool, string) {
	have := strings.TrimSpace(req.Session.Get(aclType))

	var positives int
	matched := false
	for _, tok := range splitCSV(value) {
		if neg, ok := strings.CutPrefix(tok, "!"); ok {
			if have != "" && strings.EqualFold(have, neg) {
				return false, fmt.Sprintf("%s %q is excluded", aclType, have)
			}
			continue
		}
		positives++
		if strings.EqualFold(have, tok) {
			matched = true
		}
	}
	if positives > 0 && !matched {
		return false, fmt.Sprintf("%s %q not in [%s]", aclType, have, value)
	}
	return true, ""
}

// ValidateNew implements Validator.
func (StrInCSV) ValidateNew(value string) error {
	for _, tok := range splitCSV(value) {
		if tok == "!" {
			return fmt.Errorf("empty negation in %q", value)
		}
	}
	return nil
}

func splitCSV(value string) []string {
	var out []string
	for _, tok := range strings.Split(value, ",") {
		if tok = strings.TrimSpace(tok); tok != "" {
			out = append(out, tok)
		}
	}
	return out
}

// Range allows when the session attribute parses as a number inside
// "min:max". Either bound may be omitted; bounds are inclusive.
type Range struct{}

// Validate implements Validator.
func (Range) Validate(_ context.Context, req *Request, aclType, value string) (bool, string) {
	lo, hi, err := parseRange(value)
	if err != nil {
		return false, err.Error()
	}
	if ok, reason := inRange(req.Session.Get(aclType), lo, hi); !ok {
		return false, fmt.Sprintf("%s %s", aclType, reason)
	}
	return true, ""
}

// ValidateNew implements Validator.
func (Range) ValidateNew(value string) error {
	_, _, err := parseRange(value)
	return err
}

type bound struct {
	v   float64
	set bool
}

func parseRange(value string) (lo, hi bound, err error) {
	minStr, maxStr, ok := strings.Cut(value, ":")
	if !ok {
		return lo, hi, fmt.Errorf("range %q must be min:max", value)
	}
	if minStr = strings.TrimSpace(minStr); minStr != "" {
		if lo.v, err = strconv.ParseFloat(minStr, 64); err != nil {
			return lo, hi, fmt.Errorf("range %q: bad min", value)
		}
		lo.set = true
	}
	if maxStr = strings.TrimSpace(maxStr); maxStr != "" {
		if hi.v, err = strconv.ParseFloat(maxStr, 64); err != nil {
			return lo, hi, fmt.Errorf("range %q: bad max", value)
		}
		hi.set = true
	}
	if lo.set && hi.set && lo.v > hi.v {
		return lo, hi, fmt.Errorf("range %q: min greater than max", value)
	}
	return lo, hi, nil
}

func inRange(have string, lo, hi bound) (bool, string) {
	n, err := strconv.ParseFloat(strings.TrimSpace(have), 64)
	if err != nil {
		return false, fmt.Sprintf("%q is not a number", have)
	}
	if lo.set && n < lo.v {
		return false, fmt.Sprintf("%v below %v", n, lo.v)
	}
	if hi.set && n > hi.v {
		return false, fmt.Sprintf("%v above %v", n, hi.v)
	}
	return true, ""
}

// SameChannel allows when the actor's room (actor.url) is in the same
// channel as the target room.
type SameChannel struct {
	Lookup ChannelLookup
}

// Validate implements Validator.
func (s SameChannel) Validate(ctx context.Context, req *Request, _, _ string) (bool, string) {
	from := req.Activity.Actor.URL
	to := req.Activity.TargetID()
	if from == "" || to == "" {
		return false, "missing source or target room"
	}
	if from == to {
		return true, ""
	}
	fromCh, err := s.Lookup(ctx, from)
	if err != nil {
		return false, "unknown source room"
	}
	toCh, err := s.Lookup(ctx, to)
	if err != nil {
		return false, "unknown target room"
	}
	if fromCh != toCh {
		return false, "rooms are in different channels"
	}
	return true, ""
}

// ValidateNew implements Validator.
func (SameChannel) ValidateNew(string) error { return nil }

// SameRoom allows only when source and target room are identical.
type SameRoom struct{}

// Validate implements Validator.
func (SameRoom) Validate(_ context.Context, req *Request, _, _ string) (bool, string) {
	if req.Activity.Actor.URL == "" || req.Activity.Actor.URL != req.Activity.TargetID() {
		return false, "source and target room differ"
	}
	return true, ""
}

// ValidateNew implements Validator.
func (SameRoom) ValidateNew(string) error { return nil }

// Disallow always denies.
type Disallow struct{}

// Validate implements Validator.
func (Disallow) Validate(context.Context, *Request, string, string) (bool, string) {
	return false, "not allowed by acl"
}

// ValidateNew implements Validator.
func (Disallow) ValidateNew(string) error { return nil }

// RoleCheck allows when Has returns true for the request's roles.
type RoleCheck struct {
	Name string
	Has  func(req *Request) bool
}

// Validate implements Validator.
func (r RoleCheck) Validate(_ context.Context, req *Request, _, _ string) (bool, string) {
	if req.Roles != nil && r.Has(req) {
		return true, ""
	}
	return false, "user is not " + r.Name
}

// ValidateNew implements Validator.
func (RoleCheck) ValidateNew(string) error { return nil }

// IsSuperUser requires the global superuser role.
func IsSuperUser() RoleCheck {
	return RoleCheck{Name: "super user", Has: func(req *Request) bool {
		return req.Roles.IsSuperUser()
	}}
}

// IsAdmin requires a channel admin role on the target's channel, or a
// privileged global role.
func IsAdmin() RoleCheck {
	return RoleCheck{Name: "admin", Has: func(req *Request) bool {
		return req.Roles.IsPrivileged() || req.Roles.IsChannelAdmin(req.channelID())
	}}
}

// IsRoomOwner requires ownership of the target room.
func IsRoomOwner() RoleCheck {
	return RoleCheck{Name: "room owner", Has: func(req *Request) bool {
		return req.Roles.HasRoomRole(req.roomID(), models.RoleOwner)
	}}
}
