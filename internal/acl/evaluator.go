// Dino - Multi-node Real-time Chat Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/dino

package acl

import (
	"context"
	"sort"

	"github.com/tomtom215/dino/internal/activity"
	"github.com/tomtom215/dino/internal/models"
)

// Request is the input of a single evaluation.
type Request struct {
	Activity *activity.Activity
	Session  *models.Session
	Roles    *models.UserRoles

	// Scope is ScopeRoom or ScopeChannel. TargetID is the room or channel
	// id; ChannelID is the channel of a room target (equal to TargetID for
	// channel targets).
	Scope     models.ACLScope
	TargetID  string
	ChannelID string

	Action models.ACLAction
	ACLs   models.ACLSet
}

func (r *Request) roomID() string {
	if r.Scope == models.ScopeRoom {
		return r.TargetID
	}
	return ""
}

func (r *Request) channelID() string {
	if r.Scope == models.ScopeChannel && r.ChannelID == "" {
		return r.TargetID
	}
	return r.ChannelID
}

// Decision is the outcome of an evaluation.
type Decision struct {
	Allowed bool
	Reason  string
	// Bypassed is set when a role short-circuited the ACLs.
	Bypassed bool
}

// Bypasser reports whether roles skip ACL validation on a room or channel.
type Bypasser interface {
	CanBypass(roles *models.UserRoles, roomID, channelID string) bool
}

// Evaluator answers allow/deny for an action on a target.
type Evaluator struct {
	registry *Registry
	bypass   Bypasser
}

// NewEvaluator creates an evaluator. bypass may be nil to disable role
// short-circuiting.
func NewEvaluator(registry *Registry, bypass Bypasser) *Evaluator {
	return &Evaluator{registry: registry, bypass: bypass}
}

// Registry returns the validator registry.
func (e *Evaluator) Registry() *Registry { return e.registry }

// Evaluate runs the bypass check and then every validator for req.ACLs.
// Types are visited in sorted order so the reported reason is stable.
func (e *Evaluator) Evaluate(ctx context.Context, req *Request) Decision {
	if e.bypass != nil && e.bypass.CanBypass(req.Roles, req.roomID(), req.channelID()) {
		return Decision{Allowed: true, Bypassed: true}
	}

	types := make([]string, 0, len(req.ACLs))
	for t := range req.ACLs {
		types = append(types, t)
	}
	sort.Strings(types)

	for _, aclType := range types {
		v, ok := e.registry.Validator(aclType)
		if !ok {
			return Decision{Reason: "no validator for acl type " + aclType}
		}
		if ok, reason := v.Validate(ctx, req, aclType, req.ACLs[aclType]); !ok {
			return Decision{Reason: reason}
		}
	}
	return Decision{Allowed: true}
}

// Allowed is a convenience wrapper returning only the verdict.
func (e *Evaluator) Allowed(ctx context.Context, req *Request) bool {
	return e.Evaluate(ctx, req).Allowed
}
