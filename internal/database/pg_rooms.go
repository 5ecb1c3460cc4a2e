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

// CreateRoom inserts the room and grants ownerID the owner role.
func (db *DB) CreateRoom(ctx context.Context, room models.Room, ownerID string) error {
	ctx, cancel := db.op(ctx)
	defer cancel()

	return db.inTx(ctx, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx,
			`INSERT INTO rooms (id, channel_id, name, ephemeral, is_admin, sort_order)
			 VALUES ($1, $2, $3, $4, $5, $6)`,
			room.ID, room.ChannelID, room.Name, room.Ephemeral, room.Admin, room.SortOrder)
		if err != nil {
			switch {
			case isUniqueViolation(err):
				return ErrRoomExists
			case isForeignKeyViolation(err):
				return ErrNoSuchChannel
			}
			return fmt.Errorf("create room: %w", err)
		}
		if ownerID == "" {
			return nil
		}
		_, err = tx.Exec(ctx,
			`INSERT INTO roles (user_id, scope, scope_id, role) VALUES ($1, 'room', $2, 'owner')
			 ON CONFLICT DO NOTHING`,
			ownerID, room.ID)
		if err != nil {
			return fmt.Errorf("create room owner: %w", err)
		}
		return nil
	})
}

// GetRoom loads a room with its ACLs and current member count.
func (db *DB) GetRoom(ctx context.Context, roomID string) (*models.Room, error) {
	ctx, cancel := db.op(ctx)
	defer cancel()

	var r models.Room
	err := db.pool.QueryRow(ctx,
		`SELECT r.id, r.channel_id, r.name, r.ephemeral, r.is_admin, r.sort_order, r.join_count, r.created_at,
		        (SELECT count(*) FROM room_members m WHERE m.room_id = r.id)
		 FROM rooms r WHERE r.id = $1`, roomID).
		Scan(&r.ID, &r.ChannelID, &r.Name, &r.Ephemeral, &r.Admin, &r.SortOrder, &r.JoinCount, &r.CreatedAt, &r.Users)
	if err != nil {
		return nil, notFound(err, ErrNoSuchRoom, "get room")
	}

	acls, err := db.GetACLs(ctx, models.ScopeRoom, roomID)
	if err != nil {
		return nil, err
	}
	r.ACLs = acls
	return &r, nil
}

// RoomExists reports whether the room row exists.
func (db *DB) RoomExists(ctx context.Context, roomID string) (bool, error) {
	ctx, cancel := db.op(ctx)
	defer cancel()

	var exists bool
	err := db.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM rooms WHERE id = $1)`, roomID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("room exists: %w", err)
	}
	return exists, nil
}

// GetRoomName returns the room name.
func (db *DB) GetRoomName(ctx context.Context, roomID string) (string, error) {
	ctx, cancel := db.op(ctx)
	defer cancel()

	var name string
	err := db.pool.QueryRow(ctx, `SELECT name FROM rooms WHERE id = $1`, roomID).Scan(&name)
	if err != nil {
		return "", notFound(err, ErrNoSuchRoom, "get room name")
	}
	return name, nil
}

// RoomIDsForName returns every room id carrying name.
func (db *DB) RoomIDsForName(ctx context.Context, channelID, name string) ([]string, error) {
	ctx, cancel := db.op(ctx)
	defer cancel()

	var (
		rows pgx.Rows
		err  error
	)
	if channelID == "" {
		rows, err = db.pool.Query(ctx, `SELECT id FROM rooms WHERE name = $1 ORDER BY id`, name)
	} else {
		rows, err = db.pool.Query(ctx,
			`SELECT id FROM rooms WHERE channel_id = $1 AND name = $2 ORDER BY id`, channelID, name)
	}
	if err != nil {
		return nil, fmt.Errorf("room ids for name: %w", err)
	}
	return collectStrings(rows)
}

// RoomsForChannel lists rooms of a channel with member counts.
func (db *DB) RoomsForChannel(ctx context.Context, channelID string) ([]models.Room, error) {
	ctx, cancel := db.op(ctx)
	defer cancel()

	rows, err := db.pool.Query(ctx,
		`SELECT r.id, r.channel_id, r.name, r.ephemeral, r.is_admin, r.sort_order, r.join_count, r.created_at,
		        (SELECT count(*) FROM room_members m WHERE m.room_id = r.id)
		 FROM rooms r WHERE r.channel_id = $1 ORDER BY r.sort_order, r.name`, channelID)
	if err != nil {
		return nil, fmt.Errorf("rooms for channel: %w", err)
	}
	defer rows.Close()

	var out []models.Room
	for rows.Next() {
		var r models.Room
		if err := rows.Scan(&r.ID, &r.ChannelID, &r.Name, &r.Ephemeral, &r.Admin, &r.SortOrder,
			&r.JoinCount, &r.CreatedAt, &r.Users); err != nil {
			return nil, fmt.Errorf("scan room: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// RoomsForUser returns room id -> name for every membership of the user.
func (db *DB) RoomsForUser(ctx context.Context, userID string) (map[string]string, error) {
	ctx, cancel := db.op(ctx)
	defer cancel()

	rows, err := db.pool.Query(ctx,
		`SELECT r.id, r.name FROM room_members m JOIN rooms r ON r.id = m.room_id WHERE m.user_id = $1`, userID)
	if err != nil {
		return nil, fmt.Errorf("rooms for user: %w", err)
	}
	return collectPairs(rows)
}

// UsersInRoom returns user id -> name for every member of the room.
func (db *DB) UsersInRoom(ctx context.Context, roomID string) (map[string]string, error) {
	ctx, cancel := db.op(ctx)
	defer cancel()

	rows, err := db.pool.Query(ctx,
		`SELECT user_id, user_name FROM room_members WHERE room_id = $1`, roomID)
	if err != nil {
		return nil, fmt.Errorf("users in room: %w", err)
	}
	return collectPairs(rows)
}

// JoinRoom adds the membership row and bumps the join count.
func (db *DB) JoinRoom(ctx context.Context, userID, userName, roomID string) error {
	ctx, cancel := db.op(ctx)
	defer cancel()

	return db.inTx(ctx, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx,
			`INSERT INTO room_members (room_id, user_id, user_name) VALUES ($1, $2, $3)
			 ON CONFLICT (room_id, user_id) DO UPDATE SET user_name = EXCLUDED.user_name`,
			roomID, userID, userName)
		if err != nil {
			if isForeignKeyViolation(err) {
				return ErrNoSuchRoom
			}
			return fmt.Errorf("join room: %w", err)
		}
		if _, err := tx.Exec(ctx,
			`UPDATE rooms SET join_count = join_count + 1 WHERE id = $1`, roomID); err != nil {
			return fmt.Errorf("count join: %w", err)
		}
		return nil
	})
}

// LeaveRoom removes the membership row.
func (db *DB) LeaveRoom(ctx context.Context, userID, roomID string) error {
	ctx, cancel := db.op(ctx)
	defer cancel()

	if _, err := db.pool.Exec(ctx,
		`DELETE FROM room_members WHERE room_id = $1 AND user_id = $2`, roomID, userID); err != nil {
		return fmt.Errorf("leave room: %w", err)
	}
	return nil
}

// RemoveRoom deletes the room, its ACLs and its roles.
func (db *DB) RemoveRoom(ctx context.Context, roomID string) error {
	ctx, cancel := db.op(ctx)
	defer cancel()

	return db.inTx(ctx, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx,
			`DELETE FROM acls WHERE scope = 'room' AND scope_id = $1`, roomID); err != nil {
			return fmt.Errorf("remove room acls: %w", err)
		}
		if _, err := tx.Exec(ctx,
			`DELETE FROM roles WHERE scope = 'room' AND scope_id = $1`, roomID); err != nil {
			return fmt.Errorf("remove room roles: %w", err)
		}
		tag, err := tx.Exec(ctx, `DELETE FROM rooms WHERE id = $1`, roomID)
		if err != nil {
			return fmt.Errorf("remove room: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return ErrNoSuchRoom
		}
		return nil
	})
}

// CountPrivateRooms counts ephemeral rooms owned by the user.
func (db *DB) CountPrivateRooms(ctx context.Context, userID string) (int, error) {
	ctx, cancel := db.op(ctx)
	defer cancel()

	var n int
	err := db.pool.QueryRow(ctx,
		`SELECT count(*) FROM rooms r
		 JOIN roles o ON o.scope = 'room' AND o.scope_id = r.id AND o.role = 'owner'
		 WHERE o.user_id = $1 AND r.ephemeral`, userID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count private rooms: %w", err)
	}
	return n, nil
}

// AdminRoom returns the id of the admin room.
func (db *DB) AdminRoom(ctx context.Context) (string, error) {
	ctx, cancel := db.op(ctx)
	defer cancel()

	var id string
	err := db.pool.QueryRow(ctx, `SELECT id FROM rooms WHERE is_admin ORDER BY created_at LIMIT 1`).Scan(&id)
	if err != nil {
		return "", notFound(err, ErrNoAdminRoom, "admin room")
	}
	return id, nil
}

// CountJoins returns the join counter for each room id.
func (db *DB) CountJoins(ctx context.Context, roomIDs []string) (map[string]int64, error) {
	ctx, cancel := db.op(ctx)
	defer cancel()

	rows, err := db.pool.Query(ctx, `SELECT id, join_count FROM rooms WHERE id = ANY($1)`, roomIDs)
	if err != nil {
		return nil, fmt.Errorf("count joins: %w", err)
	}
	defer rows.Close()

	out := make(map[string]int64, len(roomIDs))
	for rows.Next() {
		var (
			id string
			n  int64
		)
		if err := rows.Scan(&id, &n); err != nil {
			return nil, fmt.Errorf("scan join count: %w", err)
		}
		out[id] = n
	}
	return out, rows.Err()
}

func collectStrings(rows pgx.Rows) ([]string, error) {
	defer rows.Close()
	var out []string
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func collectPairs(rows pgx.Rows) (map[string]string, error) {
	defer rows.Close()
	out := map[string]string{}
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		out[k] = v
	}
	return out, rows.Err()
}
