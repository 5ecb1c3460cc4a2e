// Dino - Multi-node Real-time Chat Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/dino

// Package query builds parameterized PostgreSQL WHERE clauses for the
// repository.
//
// Clauses are written with ? placeholders and renumbered to $1, $2, ... when
// the builder is rendered, so optional filters can be combined without
// tracking argument positions by hand:
//
//	wb := query.NewWhereBuilder().
//		Eq("target_id", roomID).
//		Live().
//		After("published", since)
//	where, args := wb.BuildWithPrefix()
//	sql := "SELECT id FROM messages " + where + " ORDER BY published"
//
// Arguments appended after Build (LIMIT values, for example) take the next
// placeholder from Next.
package query
