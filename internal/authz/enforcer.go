// Dino - Multi-node Real-time Chat Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/dino

package authz

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"
	fileadapter "github.com/casbin/casbin/v2/persist/file-adapter"

	"github.com/tomtom215/dino/internal/logging"
	"github.com/tomtom215/dino/internal/models"
)

// ErrNoAdapter is returned by Reload when the built-in policy is in use.
var ErrNoAdapter = errors.New("no policy adapter configured; using built-in policy")

// EnforcerConfig holds configuration for the Casbin enforcer.
type EnforcerConfig struct {
	// PolicyPath is a Casbin CSV policy file. If empty, the built-in
	// policy is used.
	PolicyPath string
}

// Enforcer wraps the Casbin enforcer with role-scope helpers.
type Enforcer struct {
	config    EnforcerConfig
	enforcer  *casbin.SyncedEnforcer
	decisions sync.Map // sub|obj|act -> bool
}

// NewEnforcer creates a new enforcer. A nil config uses the built-in policy.
func NewEnforcer(cfg *EnforcerConfig) (*Enforcer, error) {
	if cfg == nil {
		cfg = &EnforcerConfig{}
	}

	m, err := model.NewModelFromString(modelText)
	if err != nil {
		return nil, fmt.Errorf("failed to load casbin model: %w", err)
	}

	var enforcer *casbin.SyncedEnforcer
	if cfg.PolicyPath != "" && fileExists(cfg.PolicyPath) {
		enforcer, err = casbin.NewSyncedEnforcer(m, fileadapter.NewAdapter(cfg.PolicyPath))
	} else {
		enforcer, err = casbin.NewSyncedEnforcer(m)
		if err == nil {
			err = loadPolicyText(enforcer, defaultPolicy)
		}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create casbin enforcer: %w", err)
	}

	logging.Debug().Str("policy", cfg.PolicyPath).Msg("Role policy loaded")
	return &Enforcer{config: *cfg, enforcer: enforcer}, nil
}

// loadPolicyText parses policy lines of the form "p, sub, obj, act" and
// "g, user, role".
func loadPolicyText(enforcer *casbin.SyncedEnforcer, policy string) error {
	for _, line := range strings.Split(policy, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		parts := strings.Split(line, ",")
		for i := range parts {
			parts[i] = strings.TrimSpace(parts[i])
		}
		rule := parts[1:]

		switch parts[0] {
		case "p":
			if len(rule) >= 3 {
				if _, err := enforcer.AddPolicy(rule[0], rule[1], rule[2]); err != nil {
					return fmt.Errorf("failed to add policy %v: %w", rule, err)
				}
			}
		case "g":
			if len(rule) >= 2 {
				if _, err := enforcer.AddGroupingPolicy(rule[0], rule[1]); err != nil {
					return fmt.Errorf("failed to add grouping policy %v: %w", rule, err)
				}
			}
		}
	}
	return nil
}

// Enforce reports whether role, granted in scope, carries perm.
func (e *Enforcer) Enforce(role models.Role, scope models.ACLScope, perm string) bool {
	key := string(role) + "|" + string(scope) + "|" + perm
	if v, ok := e.decisions.Load(key); ok {
		return v.(bool)
	}

	allowed, err := e.enforcer.Enforce(string(role), string(scope), perm)
	if err != nil {
		logging.Error().Err(err).Str("role", string(role)).Str("perm", perm).Msg("Role enforcement failed")
		return false
	}
	e.decisions.Store(key, allowed)
	return allowed
}

// Reload re-reads the policy file and drops memoized decisions.
func (e *Enforcer) Reload() error {
	if e.config.PolicyPath == "" {
		return ErrNoAdapter
	}
	if err := e.enforcer.LoadPolicy(); err != nil {
		return err
	}
	e.decisions.Clear()
	return nil
}

// Has reports whether any role the user holds, in a scope relevant to the
// given room and channel, carries perm. Empty ids skip that scope.
func (e *Enforcer) Has(roles *models.UserRoles, perm string, roomID, channelID string) bool {
	if roles == nil {
		return false
	}
	if e.anyRole(roles.Global, models.ScopeGlobal, perm) {
		return true
	}
	if channelID != "" && e.anyRole(roles.Channel[channelID], models.ScopeChannel, perm) {
		return true
	}
	if roomID != "" && e.anyRole(roles.Room[roomID], models.ScopeRoom, perm) {
		return true
	}
	return false
}

func (e *Enforcer) anyRole(roles []models.Role, scope models.ACLScope, perm string) bool {
	for _, r := range roles {
		if e.Enforce(r, scope, perm) {
			return true
		}
	}
	return false
}

// CanBypass reports whether ACL validation is skipped for an action on the
// room (roomID set) or the channel (roomID empty).
func (e *Enforcer) CanBypass(roles *models.UserRoles, roomID, channelID string) bool {
	return e.Has(roles, PermBypass, roomID, channelID)
}

// CanModerate reports kick, ban and delete rights in the room.
func (e *Enforcer) CanModerate(roles *models.UserRoles, roomID, channelID string) bool {
	return e.Has(roles, PermModerate, roomID, channelID)
}

// CanSetACL reports whether ACLs on the room or channel may be edited.
func (e *Enforcer) CanSetACL(roles *models.UserRoles, roomID, channelID string) bool {
	return e.Has(roles, PermSetACL, roomID, channelID)
}

// IsProtected reports whether the user is immune to kick and ban.
func (e *Enforcer) IsProtected(roles *models.UserRoles) bool {
	return e.Has(roles, PermProtected, "", "")
}

// fileExists checks if a file exists.
func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
