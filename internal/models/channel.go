// Dino - Multi-node Real-time Chat Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/dino

package models

import "time"

// Channel groups rooms.
type Channel struct {
	ID        string            `json:"id"`
	Name      string            `json:"name"`
	SortOrder int               `json:"sort_order"`
	Tags      []string          `json:"tags,omitempty"`
	ACLs      ACLs              `json:"acls,omitempty"`
	Roles     map[string][]Role `json:"roles,omitempty"`
	Default   bool              `json:"default,omitempty"`
}

// Room is a chat endpoint inside a channel.
type Room struct {
	ID        string            `json:"id"`
	ChannelID string            `json:"channel_id"`
	Name      string            `json:"name"`
	Ephemeral bool              `json:"ephemeral"`
	Admin     bool              `json:"admin"`
	SortOrder int               `json:"sort_order"`
	ACLs      ACLs              `json:"acls,omitempty"`
	Roles     map[string][]Role `json:"roles,omitempty"`
	JoinCount int64             `json:"join_count"`
	Users     int               `json:"users"`
	CreatedAt time.Time         `json:"created_at"`
}
