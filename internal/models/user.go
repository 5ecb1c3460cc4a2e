// Dino - Multi-node Real-time Chat Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/dino

package models

import (
	"strconv"
	"time"
)

// UserStatus is the presence status of a user.
type UserStatus string

// Presence statuses.
const (
	StatusAvailable   UserStatus = "available"
	StatusChat        UserStatus = "chat"
	StatusInvisible   UserStatus = "invisible"
	StatusUnavailable UserStatus = "unavailable"
	StatusUnknown     UserStatus = "unknown"
)

// Client facing status verbs accepted by the status event.
const (
	StatusVerbOnline    = "online"
	StatusVerbOffline   = "offline"
	StatusVerbInvisible = "invisible"
	StatusVerbVisible   = "visible"
)

// ParseUserStatus maps a stored value to a UserStatus.
func ParseUserStatus(s string) UserStatus {
	switch UserStatus(s) {
	case StatusAvailable, StatusChat, StatusInvisible, StatusUnavailable:
		return UserStatus(s)
	default:
		return StatusUnknown
	}
}

// IsOnline reports whether the status makes the user visible as online.
func (s UserStatus) IsOnline() bool {
	return s == StatusAvailable || s == StatusChat
}

// IsMulticastEligible reports whether targeted events may reach the user.
func (s UserStatus) IsMulticastEligible() bool {
	return s.IsOnline() || s == StatusInvisible
}

// User is a chat identity.
type User struct {
	ID         string     `json:"id"`
	Name       string     `json:"name"`
	Status     UserStatus `json:"status"`
	Roles      []Role     `json:"global_roles,omitempty"`
	LastOnline time.Time  `json:"last_online,omitempty"`
}

// IsValidUserID reports whether id parses as a number. Every user id in the
// system must.
func IsValidUserID(id string) bool {
	if id == "" {
		return false
	}
	_, err := strconv.ParseInt(id, 10, 64)
	return err == nil
}
