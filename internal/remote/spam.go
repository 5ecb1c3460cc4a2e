// Dino - Multi-node Real-time Chat Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/dino

package remote

import (
	"context"
	"unicode/utf8"

	"github.com/tomtom215/dino/internal/chat"
	"github.com/tomtom215/dino/internal/config"
)

var _ chat.SpamClassifier = (*SpamClassifier)(nil)

type spamRequest struct {
	Text string `json:"text"`
}

type spamResponse struct {
	Spam bool `json:"spam"`
}

// SpamClassifier posts message bodies to an HTTP classifier. Bodies
// shorter than MinLength or longer than MaxLength are not sent and count
// as ham.
type SpamClassifier struct {
	c        *client
	min, max int
}

// NewSpamClassifier creates the classifier from the spam_classifier config
// section.
func NewSpamClassifier(cfg config.SpamClassifierConfig) *SpamClassifier {
	return &SpamClassifier{
		c:   newClient("spam-classifier", cfg.URL, cfg.Timeout, 0),
		min: cfg.MinLength,
		max: cfg.MaxLength,
	}
}

// IsSpam implements chat.SpamClassifier.
func (s *SpamClassifier) IsSpam(ctx context.Context, text string) (bool, error) {
	n := utf8.RuneCountInString(text)
	if n == 0 || n < s.min || (s.max > 0 && n > s.max) {
		return false, nil
	}
	var resp spamResponse
	if err := s.c.post(ctx, "/classify", spamRequest{Text: text}, &resp); err != nil {
		return false, err
	}
	return resp.Spam, nil
}

// BreakerState reports the state of the classifier breaker.
func (s *SpamClassifier) BreakerState() string {
	return s.c.State()
}
