// Dino - Multi-node Real-time Chat Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/dino

package database

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
)

// GetBlacklist returns every blacklisted word.
func (db *DB) GetBlacklist(ctx context.Context) ([]string, error) {
	ctx, cancel := db.op(ctx)
	defer cancel()

	rows, err := db.pool.Query(ctx, `SELECT word FROM blacklist ORDER BY word`)
	if err != nil {
		return nil, fmt.Errorf("get blacklist: %w", err)
	}
	return collectStrings(rows)
}

// AddBlacklistWords stores lowercased words, skipping duplicates.
func (db *DB) AddBlacklistWords(ctx context.Context, words []string) error {
	ctx, cancel := db.op(ctx)
	defer cancel()

	return db.inTx(ctx, func(tx pgx.Tx) error {
		for _, w := range words {
			w = strings.ToLower(strings.TrimSpace(w))
			if w == "" {
				continue
			}
			if _, err := tx.Exec(ctx,
				`INSERT INTO blacklist (word) VALUES ($1) ON CONFLICT DO NOTHING`, w); err != nil {
				return fmt.Errorf("add blacklist word: %w", err)
			}
		}
		return nil
	})
}

// RemoveBlacklistWord deletes a word.
func (db *DB) RemoveBlacklistWord(ctx context.Context, word string) error {
	ctx, cancel := db.op(ctx)
	defer cancel()

	if _, err := db.pool.Exec(ctx,
		`DELETE FROM blacklist WHERE word = $1`, strings.ToLower(strings.TrimSpace(word))); err != nil {
		return fmt.Errorf("remove blacklist word: %w", err)
	}
	return nil
}
