// Dino - Multi-node Real-time Chat Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/dino

package chat

import (
	"context"
	"time"

	"github.com/tomtom215/dino/internal/activity"
)

// Sockets is the node-local fan-out layer. *websocket.Hub implements it.
type Sockets interface {
	Join(sid, roomID string) bool
	Leave(sid, roomID string)
	LeaveAll(sid string) []string
	RoomsForSid(sid string) []string
	Members(roomID string) []string
	EmitToRoom(roomID, event string, data any, skip ...string) int
	EmitToSid(sid, event string, data any) bool
	Broadcast(event string, data any)
	CloseSid(sid string) bool
}

// Peer is one client socket. *websocket.Client implements it.
type Peer interface {
	ID() string
	Context() context.Context
	Emit(event string, data any) bool
	Reply(verb string, res activity.Result) bool
	SetUserID(userID string)
	Close()
	CloseAfter(d time.Duration)
}

// Publisher sends activities on the inter-node bus. Both calls return
// without waiting for the broker; failures are logged and counted by the
// implementation.
type Publisher interface {
	PublishInternal(ctx context.Context, a *activity.Activity)
	PublishExternal(ctx context.Context, a *activity.Activity)
}

// WhisperDecision is the answer of the remote contact policy.
type WhisperDecision int

const (
	WhisperAllowed WhisperDecision = iota
	WhisperNotAContact
	WhisperDisabled
)

// WhisperPolicy decides whether sender may whisper to target.
type WhisperPolicy interface {
	CanWhisper(ctx context.Context, senderID, targetID string) (WhisperDecision, error)
}

// SpamClassifier flags message bodies.
type SpamClassifier interface {
	IsSpam(ctx context.Context, text string) (bool, error)
}

// HeartbeatRecorder receives heartbeats for the reaper.
type HeartbeatRecorder interface {
	Touch(userID string)
	Forget(userID string)
}

type nopPublisher struct{}

func (nopPublisher) PublishInternal(context.Context, *activity.Activity) {}
func (nopPublisher) PublishExternal(context.Context, *activity.Activity) {}

type allowAllWhispers struct{}

func (allowAllWhispers) CanWhisper(context.Context, string, string) (WhisperDecision, error) {
	return WhisperAllowed, nil
}

type nopHeartbeats struct{}

func (nopHeartbeats) Touch(string)  {}
func (nopHeartbeats) Forget(string) {}
