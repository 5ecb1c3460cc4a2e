// Dino - Multi-node Real-time Chat Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/dino

package models

// ACLScope is the object an ACL rule or a role attaches to.
type ACLScope string

// Scopes.
const (
	ScopeGlobal  ACLScope = "global"
	ScopeChannel ACLScope = "channel"
	ScopeRoom    ACLScope = "room"
)

// ACLAction is an action gated by ACLs.
type ACLAction string

// Actions.
const (
	ActionJoin      ACLAction = "join"
	ActionAutojoin  ACLAction = "autojoin"
	ActionCrossroom ACLAction = "crossroom"
	ActionMessage   ACLAction = "message"
	ActionKick      ACLAction = "kick"
	ActionBan       ACLAction = "ban"
	ActionList      ACLAction = "list"
	ActionHistory   ACLAction = "history"
	ActionSetACL    ACLAction = "setacl"
	ActionCreate    ACLAction = "create"
	ActionWhisper   ACLAction = "whisper"
)

// AllActions lists every ACL action.
var AllActions = []ACLAction{
	ActionJoin, ActionAutojoin, ActionCrossroom, ActionMessage, ActionKick,
	ActionBan, ActionList, ActionHistory, ActionSetACL, ActionCreate, ActionWhisper,
}

// IsValidAction reports whether s names an ACL action.
func IsValidAction(s string) bool {
	for _, a := range AllActions {
		if string(a) == s {
			return true
		}
	}
	return false
}

// Well-known ACL types. Semantic types are backed by session attributes with
// the same key; meta types have dedicated validators.
const (
	ACLTypeGender         = "gender"
	ACLTypeAge            = "age"
	ACLTypeCountry        = "country"
	ACLTypeCity           = "city"
	ACLTypeMembership     = "membership"
	ACLTypeSpokenLanguage = "spoken_language"
	ACLTypeImage          = "image"
	ACLTypeHasWebcam      = "has_webcam"
	ACLTypeFakeChecked    = "fake_checked"

	ACLTypeSameChannel     = "samechannel"
	ACLTypeSameRoom        = "sameroom"
	ACLTypeDisallow        = "disallow"
	ACLTypeSuperUser       = "superuser"
	ACLTypeAdmin           = "admin"
	ACLTypeIsRoomOwner     = "is_room_owner"
	ACLTypeAcceptedPattern = "accepted_pattern"
)

// ACLSet maps acl-type -> acl-value for a single action.
type ACLSet map[string]string

// ACLs maps action -> acl set.
type ACLs map[ACLAction]ACLSet

// Clone returns a deep copy.
func (a ACLs) Clone() ACLs {
	out := make(ACLs, len(a))
	for action, set := range a {
		out[action] = set.Clone()
	}
	return out
}

// Clone returns a copy of the set.
func (s ACLSet) Clone() ACLSet {
	out := make(ACLSet, len(s))
	for k, v := range s {
		out[k] = v
	}
	return out
}
