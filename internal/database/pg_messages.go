// Dino - Multi-node Real-time Chat Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/dino

package database

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/tomtom215/dino/internal/database/query"
	"github.com/tomtom215/dino/internal/models"
)

const messageColumns = `id, from_user_id, from_user_name, target_type, target_id, target_name, channel_id, body, published, deleted`

// StoreMessage inserts the message, idempotent on id.
func (db *DB) StoreMessage(ctx context.Context, msg models.Message) error {
	ctx, cancel := db.op(ctx)
	defer cancel()

	_, err := db.pool.Exec(ctx,
		`INSERT INTO messages (`+messageColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, FALSE)
		 ON CONFLICT (id) DO NOTHING`,
		msg.ID, msg.FromUserID, msg.FromName, msg.TargetType, msg.TargetID, msg.TargetName,
		msg.ChannelID, msg.Body, msg.Published.UTC())
	if err != nil {
		return fmt.Errorf("store message: %w", err)
	}
	return nil
}

// GetMessage loads one message.
func (db *DB) GetMessage(ctx context.Context, messageID string) (*models.Message, error) {
	ctx, cancel := db.op(ctx)
	defer cancel()

	row := db.pool.QueryRow(ctx, `SELECT `+messageColumns+` FROM messages WHERE id = $1`, messageID)
	m, err := scanMessage(row)
	if err != nil {
		return nil, notFound(err, ErrNoSuchMessage, "get message")
	}
	return m, nil
}

// DeleteMessage tombstones a message.
func (db *DB) DeleteMessage(ctx context.Context, messageID string, clearBody bool) error {
	ctx, cancel := db.op(ctx)
	defer cancel()

	query := `UPDATE messages SET deleted = TRUE WHERE id = $1`
	if clearBody {
		query = `UPDATE messages SET deleted = TRUE, body = '' WHERE id = $1`
	}
	tag, err := db.pool.Exec(ctx, query, messageID)
	if err != nil {
		return fmt.Errorf("delete message: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNoSuchMessage
	}
	return nil
}

// GetHistory returns the latest limit messages, oldest first.
func (db *DB) GetHistory(ctx context.Context, targetID string, limit int) ([]models.Message, error) {
	msgs, err := db.listMessages(ctx, query.NewWhereBuilder().Eq("target_id", targetID).Live(), "DESC", limit)
	if err != nil {
		return nil, fmt.Errorf("get history: %w", err)
	}
	slices.Reverse(msgs)
	return msgs, nil
}

// GetHistorySince returns messages newer than since, oldest first.
func (db *DB) GetHistorySince(ctx context.Context, targetID string, since time.Time, limit int) ([]models.Message, error) {
	wb := query.NewWhereBuilder().Eq("target_id", targetID).Live().AddClause("published > ?", since.UTC())
	msgs, err := db.listMessages(ctx, wb, "ASC", limit)
	if err != nil {
		return nil, fmt.Errorf("get history since: %w", err)
	}
	return msgs, nil
}

func (db *DB) listMessages(ctx context.Context, wb *query.WhereBuilder, order string, limit int) ([]models.Message, error) {
	ctx, cancel := db.op(ctx)
	defer cancel()

	where, args := wb.BuildWithPrefix()
	sql := `SELECT ` + messageColumns + ` FROM messages ` + where +
		` ORDER BY published ` + order + ` LIMIT ` + wb.Next()
	rows, err := db.pool.Query(ctx, sql, append(args, limit)...)
	if err != nil {
		return nil, err
	}
	return collectMessages(rows)
}

// GetUndeletedMessageIDsForUser lists ids of live messages sent by the user.
func (db *DB) GetUndeletedMessageIDsForUser(ctx context.Context, userID string) ([]string, error) {
	ids, err := db.listMessageIDs(ctx, query.NewWhereBuilder().Eq("from_user_id", userID).Live())
	if err != nil {
		return nil, fmt.Errorf("undeleted messages for user: %w", err)
	}
	return ids, nil
}

// GetUndeletedMessageIDsForUserAndRoom narrows the listing to one room.
func (db *DB) GetUndeletedMessageIDsForUserAndRoom(ctx context.Context, userID, roomID string) ([]string, error) {
	wb := query.NewWhereBuilder().Eq("from_user_id", userID).AddClause("target_id = ?", roomID).Live()
	ids, err := db.listMessageIDs(ctx, wb)
	if err != nil {
		return nil, fmt.Errorf("undeleted messages for user and room: %w", err)
	}
	return ids, nil
}

func (db *DB) listMessageIDs(ctx context.Context, wb *query.WhereBuilder) ([]string, error) {
	ctx, cancel := db.op(ctx)
	defer cancel()

	where, args := wb.BuildWithPrefix()
	rows, err := db.pool.Query(ctx, `SELECT id FROM messages `+where+` ORDER BY published`, args...)
	if err != nil {
		return nil, err
	}
	return collectStrings(rows)
}

// SetAckState raises ack states; GREATEST keeps them monotonic.
func (db *DB) SetAckState(ctx context.Context, userID string, messageIDs []string, state models.AckState) error {
	ctx, cancel := db.op(ctx)
	defer cancel()

	return db.inTx(ctx, func(tx pgx.Tx) error {
		for _, id := range messageIDs {
			_, err := tx.Exec(ctx,
				`INSERT INTO message_acks (message_id, user_id, state) VALUES ($1, $2, $3)
				 ON CONFLICT (message_id, user_id) DO UPDATE SET state = GREATEST(message_acks.state, EXCLUDED.state)`,
				id, userID, int16(state))
			if err != nil {
				if isForeignKeyViolation(err) {
					continue
				}
				return fmt.Errorf("set ack state: %w", err)
			}
		}
		return nil
	})
}

// GetAckStates returns the ack state of each known message id.
func (db *DB) GetAckStates(ctx context.Context, userID string, messageIDs []string) (map[string]models.AckState, error) {
	ctx, cancel := db.op(ctx)
	defer cancel()

	rows, err := db.pool.Query(ctx,
		`SELECT message_id, state FROM message_acks WHERE user_id = $1 AND message_id = ANY($2)`,
		userID, messageIDs)
	if err != nil {
		return nil, fmt.Errorf("get ack states: %w", err)
	}
	defer rows.Close()

	out := make(map[string]models.AckState, len(messageIDs))
	for rows.Next() {
		var (
			id    string
			state int16
		)
		if err := rows.Scan(&id, &state); err != nil {
			return nil, fmt.Errorf("scan ack: %w", err)
		}
		out[id] = models.AckState(state)
	}
	return out, rows.Err()
}

// SetLastRead records the last time the user read the room.
func (db *DB) SetLastRead(ctx context.Context, roomID, userID string, at time.Time) error {
	ctx, cancel := db.op(ctx)
	defer cancel()

	_, err := db.pool.Exec(ctx,
		`INSERT INTO last_reads (room_id, user_id, read_at) VALUES ($1, $2, $3)
		 ON CONFLICT (room_id, user_id) DO UPDATE SET read_at = EXCLUDED.read_at`,
		roomID, userID, at.UTC())
	if err != nil {
		return fmt.Errorf("set last read: %w", err)
	}
	return nil
}

// GetLastRead returns the zero time when the user never read the room.
func (db *DB) GetLastRead(ctx context.Context, roomID, userID string) (time.Time, error) {
	ctx, cancel := db.op(ctx)
	defer cancel()

	var at time.Time
	err := db.pool.QueryRow(ctx,
		`SELECT read_at FROM last_reads WHERE room_id = $1 AND user_id = $2`, roomID, userID).Scan(&at)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return time.Time{}, nil
		}
		return time.Time{}, fmt.Errorf("get last read: %w", err)
	}
	return at, nil
}

func scanMessage(row pgx.Row) (*models.Message, error) {
	var m models.Message
	if err := row.Scan(&m.ID, &m.FromUserID, &m.FromName, &m.TargetType, &m.TargetID,
		&m.TargetName, &m.ChannelID, &m.Body, &m.Published, &m.Deleted); err != nil {
		return nil, err
	}
	return &m, nil
}

func collectMessages(rows pgx.Rows) ([]models.Message, error) {
	defer rows.Close()
	var out []models.Message
	for rows.Next() {
		m, err := scanMessage(rows)
		if err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		out = append(out, *m)
	}
	return out, rows.Err()
}
