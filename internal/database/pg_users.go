// Dino - Multi-node Real-time Chat Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/dino

package database

import (
	"context"
	"fmt"
	"time"

	"github.com/tomtom215/dino/internal/models"
)

// CreateUser inserts the user or refreshes its name.
func (db *DB) CreateUser(ctx context.Context, userID, name string) error {
	ctx, cancel := db.op(ctx)
	defer cancel()

	_, err := db.pool.Exec(ctx,
		`INSERT INTO users (id, name) VALUES ($1, $2)
		 ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name`,
		userID, name)
	if err != nil {
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

// GetUser loads a user with its global roles.
func (db *DB) GetUser(ctx context.Context, userID string) (*models.User, error) {
	ctx, cancel := db.op(ctx)
	defer cancel()

	var (
		u          models.User
		status     string
		lastOnline *time.Time
	)
	err := db.pool.QueryRow(ctx,
		`SELECT id, name, status, last_online FROM users WHERE id = $1`, userID).
		Scan(&u.ID, &u.Name, &status, &lastOnline)
	if err != nil {
		return nil, notFound(err, ErrNoSuchUser, "get user")
	}
	u.Status = models.ParseUserStatus(status)
	if lastOnline != nil {
		u.LastOnline = *lastOnline
	}

	rows, err := db.pool.Query(ctx,
		`SELECT role FROM roles WHERE user_id = $1 AND scope = 'global'`, userID)
	if err != nil {
		return nil, fmt.Errorf("get user roles: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var role string
		if err := rows.Scan(&role); err != nil {
			return nil, fmt.Errorf("scan role: %w", err)
		}
		u.Roles = append(u.Roles, models.Role(role))
	}
	return &u, rows.Err()
}

// UserExists reports whether the user row exists.
func (db *DB) UserExists(ctx context.Context, userID string) (bool, error) {
	ctx, cancel := db.op(ctx)
	defer cancel()

	var exists bool
	err := db.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM users WHERE id = $1)`, userID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("user exists: %w", err)
	}
	return exists, nil
}

// GetUserName returns the display name of a user.
func (db *DB) GetUserName(ctx context.Context, userID string) (string, error) {
	ctx, cancel := db.op(ctx)
	defer cancel()

	var name string
	err := db.pool.QueryRow(ctx, `SELECT name FROM users WHERE id = $1`, userID).Scan(&name)
	if err != nil {
		return "", notFound(err, ErrNoSuchUser, "get user name")
	}
	return name, nil
}

// GetUserID resolves a display name to a user id.
func (db *DB) GetUserID(ctx context.Context, name string) (string, error) {
	ctx, cancel := db.op(ctx)
	defer cancel()

	var id string
	err := db.pool.QueryRow(ctx,
		`SELECT id FROM users WHERE name = $1 ORDER BY id LIMIT 1`, name).Scan(&id)
	if err != nil {
		return "", notFound(err, ErrNoSuchUser, "get user id")
	}
	return id, nil
}

// SetUserStatus persists the presence status.
func (db *DB) SetUserStatus(ctx context.Context, userID string, status models.UserStatus) error {
	ctx, cancel := db.op(ctx)
	defer cancel()

	_, err := db.pool.Exec(ctx,
		`INSERT INTO users (id, status) VALUES ($1, $2)
		 ON CONFLICT (id) DO UPDATE SET status = EXCLUDED.status`,
		userID, string(status))
	if err != nil {
		return fmt.Errorf("set user status: %w", err)
	}
	return nil
}

// SetLastOnline records when the user was last seen.
func (db *DB) SetLastOnline(ctx context.Context, userID string, at time.Time) error {
	ctx, cancel := db.op(ctx)
	defer cancel()

	_, err := db.pool.Exec(ctx,
		`INSERT INTO users (id, last_online) VALUES ($1, $2)
		 ON CONFLICT (id) DO UPDATE SET last_online = EXCLUDED.last_online`,
		userID, at.UTC())
	if err != nil {
		return fmt.Errorf("set last online: %w", err)
	}
	return nil
}

// GetLastOnline returns the zero time when the user never went offline.
func (db *DB) GetLastOnline(ctx context.Context, userID string) (time.Time, error) {
	ctx, cancel := db.op(ctx)
	defer cancel()

	var at *time.Time
	err := db.pool.QueryRow(ctx, `SELECT last_online FROM users WHERE id = $1`, userID).Scan(&at)
	if err != nil {
		return time.Time{}, notFound(err, ErrNoSuchUser, "get last online")
	}
	if at == nil {
		return time.Time{}, nil
	}
	return *at, nil
}
