// Dino - Multi-node Real-time Chat Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/dino

package auth

import "errors"

var (
	// ErrSessionNotFound means no session was stored for the user.
	ErrSessionNotFound = errors.New("auth: no session for user")

	// ErrInvalidToken means the presented token does not match.
	ErrInvalidToken = errors.New("auth: invalid token")

	// ErrMissingCredentials means the user id or token was empty.
	ErrMissingCredentials = errors.New("auth: missing user id or token")

	// ErrInvalidUserID means the user id is not numeric.
	ErrInvalidUserID = errors.New("auth: user id must be numeric")

	// ErrInvalidAdminToken is returned for a bad or expired admin JWT.
	ErrInvalidAdminToken = errors.New("auth: invalid admin token")
)
