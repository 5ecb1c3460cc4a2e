// Dino - Multi-node Real-time Chat Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/dino

/*
roles.go - Role Model

Roles are scoped to global, channel or room and are stored denormalised so a
single lookup answers every bypass question during ACL evaluation.

Role Hierarchy:
  - superuser, globalmod: global scope, bypass every ACL
  - owner: room or channel scope, bypasses ACLs on that object
  - admin: channel scope, bypasses ACLs on rooms of that channel
  - moderator: room scope, may kick/ban in that room
*/

package models

import "slices"

// Role is a role name.
type Role string

// Role constants.
const (
	RoleOwner           Role = "owner"
	RoleModerator       Role = "moderator"
	RoleAdmin           Role = "admin"
	RoleSuperUser       Role = "superuser"
	RoleGlobalModerator Role = "globalmod"
)

// ValidRoles contains all valid role names for validation.
var ValidRoles = []Role{RoleOwner, RoleModerator, RoleAdmin, RoleSuperUser, RoleGlobalModerator}

// IsValidRole checks if a role name is valid.
func IsValidRole(role string) bool {
	return slices.Contains(ValidRoles, Role(role))
}

// UserRoles is the denormalised role view of a single user.
type UserRoles struct {
	Global  []Role            `json:"global"`
	Channel map[string][]Role `json:"channel"`
	Room    map[string][]Role `json:"room"`
}

// NewUserRoles returns an empty role set.
func NewUserRoles() *UserRoles {
	return &UserRoles{
		Global:  []Role{},
		Channel: map[string][]Role{},
		Room:    map[string][]Role{},
	}
}

// IsSuperUser reports a global superuser role.
func (r *UserRoles) IsSuperUser() bool {
	return r != nil && slices.Contains(r.Global, RoleSuperUser)
}

// IsGlobalModerator reports a global moderator role.
func (r *UserRoles) IsGlobalModerator() bool {
	return r != nil && slices.Contains(r.Global, RoleGlobalModerator)
}

// IsPrivileged reports superuser or global moderator.
func (r *UserRoles) IsPrivileged() bool {
	return r.IsSuperUser() || r.IsGlobalModerator()
}

// HasRoomRole reports whether the user holds role in room.
func (r *UserRoles) HasRoomRole(roomID string, role Role) bool {
	return r != nil && slices.Contains(r.Room[roomID], role)
}

// HasChannelRole reports whether the user holds role in channel.
func (r *UserRoles) HasChannelRole(channelID string, role Role) bool {
	return r != nil && slices.Contains(r.Channel[channelID], role)
}

// IsRoomOwner reports room ownership.
func (r *UserRoles) IsRoomOwner(roomID string) bool { return r.HasRoomRole(roomID, RoleOwner) }

// IsRoomModerator reports room moderation rights.
func (r *UserRoles) IsRoomModerator(roomID string) bool { return r.HasRoomRole(roomID, RoleModerator) }

// IsChannelOwner reports channel ownership.
func (r *UserRoles) IsChannelOwner(channelID string) bool {
	return r.HasChannelRole(channelID, RoleOwner)
}

// IsChannelAdmin reports the channel admin role.
func (r *UserRoles) IsChannelAdmin(channelID string) bool {
	return r.HasChannelRole(channelID, RoleAdmin)
}

// CanModerateRoom reports whether the user may kick or ban in room: owners,
// moderators, channel owners/admins and privileged global roles.
func (r *UserRoles) CanModerateRoom(roomID, channelID string) bool {
	return r.IsPrivileged() ||
		r.IsRoomOwner(roomID) ||
		r.IsRoomModerator(roomID) ||
		r.IsChannelOwner(channelID) ||
		r.IsChannelAdmin(channelID)
}

// Add grants a role in the given scope. An empty scopeID means global.
func (r *UserRoles) Add(scope ACLScope, scopeID string, role Role) {
	switch scope {
	case ScopeChannel:
		if !slices.Contains(r.Channel[scopeID], role) {
			r.Channel[scopeID] = append(r.Channel[scopeID], role)
		}
	case ScopeRoom:
		if !slices.Contains(r.Room[scopeID], role) {
			r.Room[scopeID] = append(r.Room[scopeID], role)
		}
	default:
		if !slices.Contains(r.Global, role) {
			r.Global = append(r.Global, role)
		}
	}
}
