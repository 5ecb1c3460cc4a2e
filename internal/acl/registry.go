// Dino - Multi-node Real-time Chat Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/dino

package acl

import (
	"fmt"
	"slices"

	"github.com/tomtom215/dino/internal/activity"
	"github.com/tomtom215/dino/internal/config"
	"github.com/tomtom215/dino/internal/models"
)

// Registry maps ACL types to validators and knows which types each
// (target, action) accepts.
type Registry struct {
	validators map[string]Validator
	available  []string
	room       map[string][]string
	channel    map[string][]string
}

// NewRegistry builds the registry from configuration. lookup is used by
// the samechannel validator.
func NewRegistry(cfg *config.ACLConfig, lookup ChannelLookup) (*Registry, error) {
	r := &Registry{
		validators: make(map[string]Validator, len(cfg.Validators)),
		available:  slices.Clone(cfg.Available),
		room:       cfg.Room,
		channel:    cfg.Channel,
	}
	for aclType, kind := range cfg.Validators {
		v, err := newValidator(kind, lookup)
		if err != nil {
			return nil, fmt.Errorf("acl type %s: %w", aclType, err)
		}
		r.validators[aclType] = v
	}
	return r, nil
}

func newValidator(kind string, lookup ChannelLookup) (Validator, error) {
	switch kind {
	case config.ValidatorStrInCSV:
		return StrInCSV{}, nil
	case config.ValidatorRange:
		return Range{}, nil
	case config.ValidatorSameChannel:
		if lookup == nil {
			return nil, fmt.Errorf("samechannel validator needs a channel lookup")
		}
		return SameChannel{Lookup: lookup}, nil
	case config.ValidatorSameRoom:
		return SameRoom{}, nil
	case config.ValidatorDisallow:
		return Disallow{}, nil
	case config.ValidatorAcceptedPattern:
		return AcceptedPattern{}, nil
	case config.ValidatorIsAdmin:
		return IsAdmin(), nil
	case config.ValidatorIsSuperUser:
		return IsSuperUser(), nil
	case config.ValidatorIsRoomOwner:
		return IsRoomOwner(), nil
	default:
		return nil, fmt.Errorf("unknown validator kind %q", kind)
	}
}

// Register adds or replaces a validator.
func (r *Registry) Register(aclType string, v Validator) {
	r.validators[aclType] = v
	if !slices.Contains(r.available, aclType) {
		r.available = append(r.available, aclType)
	}
}

// Validator returns the validator for aclType.
func (r *Registry) Validator(aclType string) (Validator, bool) {
	v, ok := r.validators[aclType]
	return v, ok
}

// Available returns the ACL types accepted by set_acl.
func (r *Registry) Available() []string {
	return slices.Clone(r.available)
}

// TypesFor lists the ACL types allowed on (scope, action).
func (r *Registry) TypesFor(scope models.ACLScope, action models.ACLAction) []string {
	if scope == models.ScopeChannel {
		return r.channel[string(action)]
	}
	return r.room[string(action)]
}

// CheckNew validates an ACL write. The returned code is OK when the write
// may proceed.
func (r *Registry) CheckNew(scope models.ACLScope, action, aclType, value string) (activity.Code, string) {
	if !models.IsValidAction(action) {
		return activity.InvalidACLAction, "unknown acl action " + action
	}
	if !slices.Contains(r.available, aclType) {
		return activity.InvalidACLType, "unknown acl type " + aclType
	}
	if !slices.Contains(r.TypesFor(scope, models.ACLAction(action)), aclType) {
		return activity.InvalidACLType, fmt.Sprintf("acl type %s not allowed for %s on %s", aclType, action, scope)
	}
	if value == "" {
		// Empty value removes the ACL.
		return activity.OK, ""
	}
	v, ok := r.validators[aclType]
	if !ok {
		return activity.InvalidACLType, "no validator for acl type " + aclType
	}
	if err := v.ValidateNew(value); err != nil {
		return activity.InvalidACLValue, err.Error()
	}
	return activity.OK, ""
}
