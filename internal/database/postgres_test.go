// Dino - Multi-node Real-time Chat Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/dino

package database

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	pgxmock "github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/require"

	"github.com/tomtom215/dino/internal/models"
)

func newMockDB(t *testing.T) (*DB, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	return NewWithPool(mock, time.Second), mock
}

func TestDB_BanUser_Upserts(t *testing.T) {
	db, mock := newMockDB(t)
	defer mock.Close()
	ctx := context.Background()

	ban := models.Ban{
		UserID:    "8888",
		UserName:  "vader",
		Scope:     models.ScopeGlobal,
		ScopeID:   "ignored-for-global",
		Duration:  time.Hour,
		ExpiresAt: time.Now().Add(time.Hour),
		BannerID:  "1",
	}

	mock.ExpectExec(`INSERT INTO bans`).
		WithArgs("8888", "global", "", "vader", int64(3600), pgxmock.AnyArg(), "", "1").
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	require.NoError(t, db.BanUser(ctx, ban))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDB_CreateRoom_UniqueViolation(t *testing.T) {
	db, mock := newMockDB(t)
	defer mock.Close()
	ctx := context.Background()

	mock.ExpectBeginTx(pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	mock.ExpectExec(`INSERT INTO rooms`).
		WithArgs("R", "C", "lobby", true, false, 0).
		WillReturnError(&pgconn.PgError{Code: "23505"})
	mock.ExpectRollback()

	err := db.CreateRoom(ctx, models.Room{ID: "R", ChannelID: "C", Name: "lobby", Ephemeral: true}, "1")
	require.ErrorIs(t, err, ErrRoomExists)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDB_CreateRoom_GrantsOwner(t *testing.T) {
	db, mock := newMockDB(t)
	defer mock.Close()
	ctx := context.Background()

	mock.ExpectBeginTx(pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	mock.ExpectExec(`INSERT INTO rooms`).
		WithArgs("R", "C", "lobby", false, false, 0).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec(`INSERT INTO roles`).
		WithArgs("1", "R").
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectCommit()

	require.NoError(t, db.CreateRoom(ctx, models.Room{ID: "R", ChannelID: "C", Name: "lobby"}, "1"))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDB_GetUserName_NotFound(t *testing.T) {
	db, mock := newMockDB(t)
	defer mock.Close()

	mock.ExpectQuery(`SELECT name FROM users WHERE id = \$1`).
		WithArgs("42").
		WillReturnError(pgx.ErrNoRows)

	_, err := db.GetUserName(context.Background(), "42")
	require.ErrorIs(t, err, ErrNoSuchUser)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestDB_UpdateACL_EmptyValueDeletes(t *testing.T) {
	db, mock := newMockDB(t)
	defer mock.Close()
	ctx := context.Background()

	mock.ExpectExec(`DELETE FROM acls`).
		WithArgs("room", "R", "join", "gender").
		WillReturnResult(pgxmock.NewResult("DELETE", 1))
	require.NoError(t, db.UpdateACL(ctx, models.ScopeRoom, "R", models.ActionJoin, "gender", ""))

	mock.ExpectExec(`INSERT INTO acls`).
		WithArgs("room", "R", "join", "gender", "m").
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	require.NoError(t, db.UpdateACL(ctx, models.ScopeRoom, "R", models.ActionJoin, "gender", "m"))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDB_GetUserBanStatus(t *testing.T) {
	db, mock := newMockDB(t)
	defer mock.Close()

	end := time.Now().Add(time.Hour).UTC()
	mock.ExpectQuery(`SELECT b.scope, b.expires_at FROM bans`).
		WithArgs("8888", "R").
		WillReturnRows(pgxmock.NewRows([]string{"scope", "expires_at"}).
			AddRow("global", end).
			AddRow("room", end))

	status, err := db.GetUserBanStatus(context.Background(), "R", "8888")
	require.NoError(t, err)
	require.True(t, status.Global.Equal(end))
	require.True(t, status.Room.Equal(end))
	require.True(t, status.Channel.IsZero())
}

func TestDB_GetHistory_OldestFirst(t *testing.T) {
	db, mock := newMockDB(t)
	defer mock.Close()

	now := time.Now().UTC()
	cols := []string{"id", "from_user_id", "from_user_name", "target_type", "target_id",
		"target_name", "channel_id", "body", "published", "deleted"}
	mock.ExpectQuery(`SELECT .* FROM messages`).
		WithArgs("R", 2).
		WillReturnRows(pgxmock.NewRows(cols).
			AddRow("m2", "1", "a", "room", "R", "r", "C", "Yg==", now, false).
			AddRow("m1", "1", "a", "room", "R", "r", "C", "YQ==", now.Add(-time.Second), false))

	msgs, err := db.GetHistory(context.Background(), "R", 2)
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	require.Equal(t, "m1", msgs[0].ID)
	require.Equal(t, "m2", msgs[1].ID)
}

func TestDB_DeleteMessage_Missing(t *testing.T) {
	db, mock := newMockDB(t)
	defer mock.Close()

	mock.ExpectExec(`UPDATE messages SET deleted = TRUE, body = ''`).
		WithArgs("nope").
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	err := db.DeleteMessage(context.Background(), "nope", true)
	require.ErrorIs(t, err, ErrNoSuchMessage)
}

func TestToPgx5DSN(t *testing.T) {
	t.Parallel()

	require.Equal(t, "pgx5://u:p@h/db", toPgx5DSN("postgres://u:p@h/db"))
	require.Equal(t, "pgx5://u:p@h/db", toPgx5DSN("postgresql://u:p@h/db"))
	require.Equal(t, "pgx5://x", toPgx5DSN("pgx5://x"))
}
