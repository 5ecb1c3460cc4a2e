// Dino - Multi-node Real-time Chat Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/dino

package auth

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"maps"

	"github.com/tomtom215/dino/internal/logging"
	"github.com/tomtom215/dino/internal/models"
)

// Authenticator checks login tokens against stored sessions.
type Authenticator struct {
	store SessionStore
}

// NewAuthenticator wraps a session store.
func NewAuthenticator(store SessionStore) *Authenticator {
	return &Authenticator{store: store}
}

// Store returns the underlying session store.
func (a *Authenticator) Store() SessionStore { return a.store }

// Register stores the session an integrating platform supplied over REST.
// The token and user id are always written from the arguments, overriding
// anything in attrs.
func (a *Authenticator) Register(ctx context.Context, userID, token string, attrs map[string]string) error {
	if userID == "" || token == "" {
		return ErrMissingCredentials
	}
	if !models.IsValidUserID(userID) {
		return ErrInvalidUserID
	}

	stored := maps.Clone(attrs)
	if stored == nil {
		stored = map[string]string{}
	}
	stored[models.SessionUserID] = userID
	stored[models.SessionToken] = token

	if err := a.store.Put(ctx, userID, stored); err != nil {
		return fmt.Errorf("register session: %w", err)
	}
	logging.Ctx(ctx).Debug().Str("user_id", userID).Msg("Session registered")
	return nil
}

// Authenticate returns the stored session for userID when token matches.
// Client supplied attributes are never consulted.
func (a *Authenticator) Authenticate(ctx context.Context, userID, token string) (*models.Session, error) {
	if userID == "" || token == "" {
		return nil, ErrMissingCredentials
	}
	if !models.IsValidUserID(userID) {
		return nil, ErrInvalidUserID
	}

	attrs, err := a.store.Get(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrSessionNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("load session: %w", err)
	}

	stored := attrs[models.SessionToken]
	if stored == "" || subtle.ConstantTimeCompare([]byte(stored), []byte(token)) != 1 {
		logging.Ctx(ctx).Warn().Str("user_id", userID).Msg("Login rejected: token mismatch")
		return nil, ErrInvalidToken
	}

	session := models.NewSession(userID)
	session.Token = stored
	for k, v := range attrs {
		if k == models.SessionUserID || k == models.SessionToken {
			continue
		}
		session.Attrs[k] = v
	}
	return session, nil
}

// Logout drops the stored session.
func (a *Authenticator) Logout(ctx context.Context, userID string) error {
	return a.store.Delete(ctx, userID)
}
