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

// GetACLsForAction returns acl-type -> value for one action.
func (db *DB) GetACLsForAction(ctx context.Context, scope models.ACLScope, id string, action models.ACLAction) (models.ACLSet, error) {
	ctx, cancel := db.op(ctx)
	defer cancel()

	rows, err := db.pool.Query(ctx,
		`SELECT acl_type, acl_value FROM acls WHERE scope = $1 AND scope_id = $2 AND action = $3`,
		string(scope), id, string(action))
	if err != nil {
		return nil, fmt.Errorf("get acls for action: %w", err)
	}
	pairs, err := collectPairs(rows)
	if err != nil {
		return nil, err
	}
	return models.ACLSet(pairs), nil
}

// GetACLs returns every ACL of the object grouped by action.
func (db *DB) GetACLs(ctx context.Context, scope models.ACLScope, id string) (models.ACLs, error) {
	ctx, cancel := db.op(ctx)
	defer cancel()

	rows, err := db.pool.Query(ctx,
		`SELECT action, acl_type, acl_value FROM acls WHERE scope = $1 AND scope_id = $2`,
		string(scope), id)
	if err != nil {
		return nil, fmt.Errorf("get acls: %w", err)
	}
	defer rows.Close()

	out := models.ACLs{}
	for rows.Next() {
		var action, aclType, value string
		if err := rows.Scan(&action, &aclType, &value); err != nil {
			return nil, fmt.Errorf("scan acl: %w", err)
		}
		set, ok := out[models.ACLAction(action)]
		if !ok {
			set = models.ACLSet{}
			out[models.ACLAction(action)] = set
		}
		set[aclType] = value
	}
	return out, rows.Err()
}

// UpdateACL writes one ACL entry; an empty value removes it.
func (db *DB) UpdateACL(ctx context.Context, scope models.ACLScope, id string, action models.ACLAction, aclType, value string) error {
	ctx, cancel := db.op(ctx)
	defer cancel()

	if value == "" {
		_, err := db.pool.Exec(ctx,
			`DELETE FROM acls WHERE scope = $1 AND scope_id = $2 AND action = $3 AND acl_type = $4`,
			string(scope), id, string(action), aclType)
		if err != nil {
			return fmt.Errorf("remove acl: %w", err)
		}
		return nil
	}

	_, err := db.pool.Exec(ctx,
		`INSERT INTO acls (scope, scope_id, action, acl_type, acl_value) VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (scope, scope_id, action, acl_type) DO UPDATE SET acl_value = EXCLUDED.acl_value`,
		string(scope), id, string(action), aclType, value)
	if err != nil {
		return fmt.Errorf("update acl: %w", err)
	}
	return nil
}
