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

// BanUser creates the ban or moves the end time of the existing one.
func (db *DB) BanUser(ctx context.Context, ban models.Ban) error {
	ctx, cancel := db.op(ctx)
	defer cancel()

	_, err := db.pool.Exec(ctx,
		`INSERT INTO bans (user_id, scope, scope_id, user_name, duration_s, expires_at, reason, banner_id)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 ON CONFLICT (user_id, scope, scope_id) DO UPDATE SET
		   duration_s = EXCLUDED.duration_s,
		   expires_at = EXCLUDED.expires_at,
		   reason     = EXCLUDED.reason,
		   banner_id  = EXCLUDED.banner_id,
		   user_name  = EXCLUDED.user_name`,
		ban.UserID, string(ban.Scope), globalScopeID(ban.Scope, ban.ScopeID), ban.UserName,
		int64(ban.Duration/time.Second), ban.ExpiresAt.UTC(), ban.Reason, ban.BannerID)
	if err != nil {
		return fmt.Errorf("ban user: %w", err)
	}
	return nil
}

// RemoveBan lifts a ban. Lifting a missing ban is a no-op.
func (db *DB) RemoveBan(ctx context.Context, userID string, scope models.ACLScope, scopeID string) error {
	ctx, cancel := db.op(ctx)
	defer cancel()

	_, err := db.pool.Exec(ctx,
		`DELETE FROM bans WHERE user_id = $1 AND scope = $2 AND scope_id = $3`,
		userID, string(scope), globalScopeID(scope, scopeID))
	if err != nil {
		return fmt.Errorf("remove ban: %w", err)
	}
	return nil
}

// GetUserBanStatus returns the end time for each scope relevant to roomID.
func (db *DB) GetUserBanStatus(ctx context.Context, roomID, userID string) (models.BanStatus, error) {
	ctx, cancel := db.op(ctx)
	defer cancel()

	rows, err := db.pool.Query(ctx,
		`SELECT b.scope, b.expires_at FROM bans b
		 WHERE b.user_id = $1 AND (
		   b.scope = 'global'
		   OR (b.scope = 'room' AND b.scope_id = $2)
		   OR (b.scope = 'channel' AND b.scope_id = (SELECT channel_id FROM rooms WHERE id = $2))
		 )`, userID, roomID)
	if err != nil {
		return models.BanStatus{}, fmt.Errorf("get ban status: %w", err)
	}
	defer rows.Close()

	var status models.BanStatus
	for rows.Next() {
		var (
			scope string
			end   time.Time
		)
		if err := rows.Scan(&scope, &end); err != nil {
			return models.BanStatus{}, fmt.Errorf("scan ban: %w", err)
		}
		switch models.ACLScope(scope) {
		case models.ScopeGlobal:
			status.Global = end
		case models.ScopeChannel:
			status.Channel = end
		case models.ScopeRoom:
			status.Room = end
		}
	}
	return status, rows.Err()
}

// GetBans lists active bans.
func (db *DB) GetBans(ctx context.Context, now time.Time) ([]models.Ban, error) {
	ctx, cancel := db.op(ctx)
	defer cancel()

	rows, err := db.pool.Query(ctx,
		`SELECT user_id, user_name, scope, scope_id, duration_s, expires_at, reason, banner_id, created_at
		 FROM bans WHERE expires_at > $1 ORDER BY expires_at`, now.UTC())
	if err != nil {
		return nil, fmt.Errorf("get bans: %w", err)
	}
	defer rows.Close()

	var out []models.Ban
	for rows.Next() {
		var (
			b        models.Ban
			scope    string
			duration int64
		)
		if err := rows.Scan(&b.UserID, &b.UserName, &scope, &b.ScopeID, &duration,
			&b.ExpiresAt, &b.Reason, &b.BannerID, &b.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan ban: %w", err)
		}
		b.Scope = models.ACLScope(scope)
		b.Duration = time.Duration(duration) * time.Second
		out = append(out, b)
	}
	return out, rows.Err()
}
