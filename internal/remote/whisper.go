// Dino - Multi-node Real-time Chat Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/dino

package remote

import (
	"context"
	"fmt"

	"github.com/tomtom215/dino/internal/chat"
	"github.com/tomtom215/dino/internal/config"
)

// Whisper policy answers.
const (
	WhisperStatusAllowed     = "allowed"
	WhisperStatusNotAContact = "not_a_contact"
	WhisperStatusDisabled    = "disabled"
)

var _ chat.WhisperPolicy = (*WhisperPolicy)(nil)

type whisperRequest struct {
	SenderID string `json:"sender_id"`
	TargetID string `json:"target_id"`
}

type whisperResponse struct {
	Status string `json:"status"`
}

// WhisperPolicy asks the contact service whether one user may whisper to
// another.
//
//	POST {url}/can-whisper {"sender_id": "1", "target_id": "2"}
//	200 {"status": "allowed" | "not_a_contact" | "disabled"}
type WhisperPolicy struct {
	c *client
}

// NewWhisperPolicy creates the client from the remote config section.
func NewWhisperPolicy(cfg config.RemoteConfig) *WhisperPolicy {
	return &WhisperPolicy{c: newClient("remote-whisper", cfg.URL, cfg.Timeout, cfg.MaxFailures)}
}

// CanWhisper implements chat.WhisperPolicy.
func (p *WhisperPolicy) CanWhisper(ctx context.Context, senderID, targetID string) (chat.WhisperDecision, error) {
	var resp whisperResponse
	if err := p.c.post(ctx, "/can-whisper", whisperRequest{SenderID: senderID, TargetID: targetID}, &resp); err != nil {
		return chat.WhisperDisabled, fmt.Errorf("whisper policy %s -> %s: %w", senderID, targetID, err)
	}
	switch resp.Status {
	case WhisperStatusAllowed:
		return chat.WhisperAllowed, nil
	case WhisperStatusNotAContact:
		return chat.WhisperNotAContact, nil
	case WhisperStatusDisabled:
		return chat.WhisperDisabled, nil
	default:
		return chat.WhisperDisabled, fmt.Errorf("whisper policy: unknown status %q", resp.Status)
	}
}

// BreakerState reports the state of the policy breaker.
func (p *WhisperPolicy) BreakerState() string {
	return p.c.State()
}
