// Dino - Multi-node Real-time Chat Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/dino

package database

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tomtom215/dino/internal/logging"
)

// PgxPool is the subset of *pgxpool.Pool the repository uses. pgxmock
// implements it in tests.
type PgxPool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	BeginTx(ctx context.Context, txOptions pgx.TxOptions) (pgx.Tx, error)
	Ping(ctx context.Context) error
	Close()
}

// Config holds PostgreSQL connection settings.
type Config struct {
	DSN             string
	MaxConns        int32
	MinConns        int32
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
	OpTimeout       time.Duration
	Migrate         bool
}

// DefaultConfig returns pool settings for a chat node.
func DefaultConfig() Config {
	return Config{
		MaxConns:        25,
		MinConns:        2,
		MaxConnLifetime: time.Hour,
		MaxConnIdleTime: 10 * time.Minute,
		OpTimeout:       5 * time.Second,
		Migrate:         true,
	}
}

const (
	connectTimeout    = 5 * time.Second
	pingTimeout       = 2 * time.Second
	healthCheckPeriod = time.Minute
)

// DB is the PostgreSQL Repository.
type DB struct {
	pool      PgxPool
	opTimeout time.Duration
}

var _ Repository = (*DB)(nil)

// New connects to PostgreSQL, runs migrations when enabled and validates
// connectivity.
func New(ctx context.Context, cfg Config) (*DB, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("postgres: invalid DSN: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolConfig.MaxConns = cfg.MaxConns
	}
	if cfg.MinConns > 0 {
		poolConfig.MinConns = cfg.MinConns
	}
	if cfg.MaxConnLifetime > 0 {
		poolConfig.MaxConnLifetime = cfg.MaxConnLifetime
	}
	if cfg.MaxConnIdleTime > 0 {
		poolConfig.MaxConnIdleTime = cfg.MaxConnIdleTime
	}
	poolConfig.HealthCheckPeriod = healthCheckPeriod
	poolConfig.ConnConfig.ConnectTimeout = connectTimeout

	if cfg.Migrate {
		if err := RunMigrations(cfg.DSN); err != nil {
			return nil, err
		}
	}

	connectCtx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	pool, err := pgxpool.NewWithConfig(connectCtx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("postgres: failed to create pool: %w", err)
	}

	db := NewWithPool(pool, cfg.OpTimeout)
	if err := db.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	stats := pool.Stat()
	logging.Info().
		Int32("max_conns", stats.MaxConns()).
		Int32("total_conns", stats.TotalConns()).
		Msg("PostgreSQL pool connected")

	return db, nil
}

// NewWithPool wraps an existing pool.
func NewWithPool(pool PgxPool, opTimeout time.Duration) *DB {
	if opTimeout <= 0 {
		opTimeout = DefaultConfig().OpTimeout
	}
	return &DB{pool: pool, opTimeout: opTimeout}
}

// Ping verifies that the pool is healthy.
func (db *DB) Ping(ctx context.Context) error {
	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	if err := db.pool.Ping(pingCtx); err != nil {
		return fmt.Errorf("postgres: ping failed: %w", err)
	}
	return nil
}

// Close shuts down the pool.
func (db *DB) Close() {
	db.pool.Close()
}

// op bounds a single repository operation.
func (db *DB) op(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, db.opTimeout)
}

// inTx runs fn inside a read-committed transaction.
func (db *DB) inTx(ctx context.Context, fn func(tx pgx.Tx) error) error {
	tx, err := db.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback(ctx)
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}
