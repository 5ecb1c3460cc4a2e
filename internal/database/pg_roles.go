// Dino - Multi-node Real-time Chat Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/dino

package database

import (
	"context"
	"fmt"

	"github.com/tomtom215/dino/internal/models"
)

// GetUserRoles returns the denormalised role view of a user.
func (db *DB) GetUserRoles(ctx context.Context, userID string) (*models.UserRoles, error) {
	ctx, cancel := db.op(ctx)
	defer cancel()

	rows, err := db.pool.Query(ctx,
		`SELECT scope, scope_id, role FROM roles WHERE user_id = $1`, userID)
	if err != nil {
		return nil, fmt.Errorf("get user roles: %w", err)
	}
	defer rows.Close()

	roles := models.NewUserRoles()
	for rows.Next() {
		var scope, scopeID, role string
		if err := rows.Scan(&scope, &scopeID, &role); err != nil {
			return nil, fmt.Errorf("scan role: %w", err)
		}
		roles.Add(models.ACLScope(scope), scopeID, models.Role(role))
	}
	return roles, rows.Err()
}

// AddRole grants a role. Granting twice is a no-op.
func (db *DB) AddRole(ctx context.Context, userID string, scope models.ACLScope, scopeID string, role models.Role) error {
	ctx, cancel := db.op(ctx)
	defer cancel()

	_, err := db.pool.Exec(ctx,
		`INSERT INTO roles (user_id, scope, scope_id, role) VALUES ($1, $2, $3, $4)
		 ON CONFLICT DO NOTHING`,
		userID, string(scope), globalScopeID(scope, scopeID), string(role))
	if err != nil {
		return fmt.Errorf("add role: %w", err)
	}
	return nil
}

// RemoveRole revokes a role.
func (db *DB) RemoveRole(ctx context.Context, userID string, scope models.ACLScope, scopeID string, role models.Role) error {
	ctx, cancel := db.op(ctx)
	defer cancel()

	_, err := db.pool.Exec(ctx,
		`DELETE FROM roles WHERE user_id = $1 AND scope = $2 AND scope_id = $3 AND role = $4`,
		userID, string(scope), globalScopeID(scope, scopeID), string(role))
	if err != nil {
		return fmt.Errorf("remove role: %w", err)
	}
	return nil
}

// UsersWithRole lists holders of role in a scope instance.
func (db *DB) UsersWithRole(ctx context.Context, scope models.ACLScope, scopeID string, role models.Role) ([]string, error) {
	ctx, cancel := db.op(ctx)
	defer cancel()

	rows, err := db.pool.Query(ctx,
		`SELECT user_id FROM roles WHERE scope = $1 AND scope_id = $2 AND role = $3 ORDER BY user_id`,
		string(scope), globalScopeID(scope, scopeID), string(role))
	if err != nil {
		return nil, fmt.Errorf("users with role: %w", err)
	}
	return collectStrings(rows)
}
