// Dino - Multi-node Real-time Chat Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/dino

package models

import "time"

// AckState is the per-recipient acknowledgement of a message.
type AckState int

// Ack states, ordered: a message never goes back from read to received.
const (
	AckNotAcked AckState = iota
	AckReceived
	AckRead
)

// String returns the wire name of the state.
func (s AckState) String() string {
	switch s {
	case AckReceived:
		return "received"
	case AckRead:
		return "read"
	default:
		return "not_acked"
	}
}

// Message is a persisted chat message. Body stays base64 encoded.
type Message struct {
	ID         string    `json:"message_id"`
	FromUserID string    `json:"from_user_id"`
	FromName   string    `json:"from_user_name"`
	TargetType string    `json:"target_type"`
	TargetID   string    `json:"target_id"`
	TargetName string    `json:"target_name"`
	ChannelID  string    `json:"channel_id"`
	Body       string    `json:"body"`
	Published  time.Time `json:"timestamp"`
	Deleted    bool      `json:"deleted"`
}
