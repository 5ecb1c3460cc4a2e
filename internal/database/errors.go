// Dino - Multi-node Real-time Chat Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/dino

package database

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Sentinel errors.
var (
	ErrNotFound      = errors.New("not found")
	ErrNoSuchUser    = fmt.Errorf("user %w", ErrNotFound)
	ErrNoSuchRoom    = fmt.Errorf("room %w", ErrNotFound)
	ErrNoSuchChannel = fmt.Errorf("channel %w", ErrNotFound)
	ErrNoSuchMessage = fmt.Errorf("message %w", ErrNotFound)
	ErrNoAdminRoom   = fmt.Errorf("admin room %w", ErrNotFound)
	ErrRoomExists    = errors.New("room already exists")
	ErrChannelExists = errors.New("channel already exists")
)

const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
)

// isUniqueViolation reports whether the error is a unique constraint violation.
func isUniqueViolation(err error) bool {
	var pg *pgconn.PgError
	return errors.As(err, &pg) && pg.Code == pgUniqueViolation
}

// isForeignKeyViolation reports a missing parent row.
func isForeignKeyViolation(err error) bool {
	var pg *pgconn.PgError
	return errors.As(err, &pg) && pg.Code == pgForeignKeyViolation
}

// notFound maps pgx.ErrNoRows to the given sentinel and wraps everything else.
func notFound(err error, sentinel error, op string) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return sentinel
	}
	return fmt.Errorf("%s: %w", op, err)
}
