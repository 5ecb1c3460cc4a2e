// Dino - Multi-node Real-time Chat Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/dino

package acl

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ErrBadPattern is returned for malformed accepted_pattern values.
var ErrBadPattern = errors.New("bad accepted pattern")

// Pattern is a parsed accepted_pattern expression: OR of AND groups.
//
// Syntax:
//
//	pattern = group { "|" group }
//	group   = term { "," term }
//	term    = key "=" ["!"] value
//
// A value containing ':' is a numeric range (see Range). Otherwise it is
// compared case-insensitively with the session attribute named by key.
// A leading '!' negates the term.
type Pattern struct {
	groups [][]term
}

type term struct {
	key    string
	value  string
	negate bool
	isRng  bool
	lo, hi bound
}

// ParsePattern parses an accepted_pattern value.
func ParsePattern(s string) (*Pattern, error) {
	p := &Pattern{}
	for _, g := range strings.Split(s, "|") {
		var group []term
		for _, raw := range strings.Split(g, ",") {
			raw = strings.TrimSpace(raw)
			if raw == "" {
				continue
			}
			t, err := parseTerm(raw)
			if err != nil {
				return nil, err
			}
			group = append(group, t)
		}
		if len(group) == 0 {
			return nil, fmt.Errorf("%w: empty group in %q", ErrBadPattern, s)
		}
		p.groups = append(p.groups, group)
	}
	return p, nil
}

func parseTerm(raw string) (term, error) {
	key, value, ok := strings.Cut(raw, "=")
	key = strings.TrimSpace(key)
	value = strings.TrimSpace(value)
	if !ok || key == "" {
		return term{}, fmt.Errorf("%w: term %q must be key=value", ErrBadPattern, raw)
	}

	t := term{key: key}
	if v, neg := strings.CutPrefix(value, "!"); neg {
		t.negate = true
		value = strings.TrimSpace(v)
	}
	if value == "" {
		return term{}, fmt.Errorf("%w: term %q has no value", ErrBadPattern, raw)
	}
	t.value = value

	if strings.Contains(value, ":") {
		lo, hi, err := parseRange(value)
		if err != nil {
			return term{}, fmt.Errorf("%w: %w", ErrBadPattern, err)
		}
		t.isRng, t.lo, t.hi = true, lo, hi
	}
	return t, nil
}

func (t term) match(attrs func(string) string) bool {
	have := attrs(t.key)
	var ok bool
	if t.isRng {
		ok, _ = inRange(have, t.lo, t.hi)
	} else {
		ok = strings.EqualFold(strings.TrimSpace(have), t.value)
	}
	return ok != t.negate
}

// Match reports whether any group has all of its terms satisfied.
func (p *Pattern) Match(attrs func(key string) string) bool {
	for _, g := range p.groups {
		all := true
		for _, t := range g {
			if !t.match(attrs) {
				all = false
				break
			}
		}
		if all {
			return true
		}
	}
	return false
}

// AcceptedPattern evaluates a Pattern against the session.
type AcceptedPattern struct{}

// Validate implements Validator.
func (AcceptedPattern) Validate(_ context.Context, req *Request, _, value string) (bool, string) {
	p, err := ParsePattern(value)
	if err != nil {
		return false, err.Error()
	}
	if !p.Match(req.Session.Get) {
		return false, "session does not match accepted pattern"
	}
	return true, ""
}

// ValidateNew implements Validator.
func (AcceptedPattern) ValidateNew(value string) error {
	_, err := ParsePattern(value)
	return err
}
