// Dino - Multi-node Real-time Chat Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/dino

package database

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/tomtom215/dino/internal/models"
)

// CreateChannel inserts the channel and makes ownerID its owner.
func (db *DB) CreateChannel(ctx context.Context, ch models.Channel, ownerID string) error {
	ctx, cancel := db.op(ctx)
	defer cancel()

	tags := ch.Tags
	if tags == nil {
		tags = []string{}
	}
	return db.inTx(ctx, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx,
			`INSERT INTO channels (id, name, sort_order, tags, is_default) VALUES ($1, $2, $3, $4, $5)`,
			ch.ID, ch.Name, ch.SortOrder, tags, ch.Default)
		if err != nil {
			if isUniqueViolation(err) {
				return ErrChannelExists
			}
			return fmt.Errorf("create channel: %w", err)
		}
		if ownerID == "" {
			return nil
		}
		_, err = tx.Exec(ctx,
			`INSERT INTO roles (user_id, scope, scope_id, role) VALUES ($1, 'channel', $2, 'owner')
			 ON CONFLICT DO NOTHING`,
			ownerID, ch.ID)
		if err != nil {
			return fmt.Errorf("create channel owner: %w", err)
		}
		return nil
	})
}

// GetChannel loads a channel with its ACLs.
func (db *DB) GetChannel(ctx context.Context, channelID string) (*models.Channel, error) {
	ctx, cancel := db.op(ctx)
	defer cancel()

	var ch models.Channel
	err := db.pool.QueryRow(ctx,
		`SELECT id, name, sort_order, tags, is_default FROM channels WHERE id = $1`, channelID).
		Scan(&ch.ID, &ch.Name, &ch.SortOrder, &ch.Tags, &ch.Default)
	if err != nil {
		return nil, notFound(err, ErrNoSuchChannel, "get channel")
	}

	acls, err := db.GetACLs(ctx, models.ScopeChannel, channelID)
	if err != nil {
		return nil, err
	}
	ch.ACLs = acls
	return &ch, nil
}

// GetChannels lists channels ordered by sort order.
func (db *DB) GetChannels(ctx context.Context) ([]models.Channel, error) {
	ctx, cancel := db.op(ctx)
	defer cancel()

	rows, err := db.pool.Query(ctx,
		`SELECT id, name, sort_order, tags, is_default FROM channels ORDER BY sort_order, name`)
	if err != nil {
		return nil, fmt.Errorf("get channels: %w", err)
	}
	defer rows.Close()

	var out []models.Channel
	for rows.Next() {
		var ch models.Channel
		if err := rows.Scan(&ch.ID, &ch.Name, &ch.SortOrder, &ch.Tags, &ch.Default); err != nil {
			return nil, fmt.Errorf("scan channel: %w", err)
		}
		out = append(out, ch)
	}
	return out, rows.Err()
}

// ChannelExists reports whether the channel row exists.
func (db *DB) ChannelExists(ctx context.Context, channelID string) (bool, error) {
	ctx, cancel := db.op(ctx)
	defer cancel()

	var exists bool
	err := db.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM channels WHERE id = $1)`, channelID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("channel exists: %w", err)
	}
	return exists, nil
}

// ChannelForRoom returns the id of the channel holding roomID.
func (db *DB) ChannelForRoom(ctx context.Context, roomID string) (string, error) {
	ctx, cancel := db.op(ctx)
	defer cancel()

	var channelID string
	err := db.pool.QueryRow(ctx, `SELECT channel_id FROM rooms WHERE id = $1`, roomID).Scan(&channelID)
	if err != nil {
		return "", notFound(err, ErrNoSuchRoom, "channel for room")
	}
	return channelID, nil
}

// RemoveChannel deletes the channel; rooms cascade.
func (db *DB) RemoveChannel(ctx context.Context, channelID string) error {
	ctx, cancel := db.op(ctx)
	defer cancel()

	return db.inTx(ctx, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx,
			`DELETE FROM acls WHERE scope = 'channel' AND scope_id = $1`, channelID); err != nil {
			return fmt.Errorf("remove channel acls: %w", err)
		}
		if _, err := tx.Exec(ctx,
			`DELETE FROM roles WHERE scope = 'channel' AND scope_id = $1`, channelID); err != nil {
			return fmt.Errorf("remove channel roles: %w", err)
		}
		tag, err := tx.Exec(ctx, `DELETE FROM channels WHERE id = $1`, channelID)
		if err != nil {
			return fmt.Errorf("remove channel: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return ErrNoSuchChannel
		}
		return nil
	})
}
