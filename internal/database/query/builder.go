// Dino - Multi-node Real-time Chat Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/dino

package query

import (
	"strconv"
	"strings"
	"time"
)

// WhereBuilder accumulates AND-ed conditions and their arguments.
type WhereBuilder struct {
	clauses []string
	args    []any
}

// NewWhereBuilder returns an empty builder.
func NewWhereBuilder() *WhereBuilder {
	return &WhereBuilder{}
}

// AddClause adds a raw condition. Each ? in clause consumes one of args.
func (wb *WhereBuilder) AddClause(clause string, args ...any) *WhereBuilder {
	wb.clauses = append(wb.clauses, clause)
	wb.args = append(wb.args, args...)
	return wb
}

// Eq adds "column = ?". An empty string value is skipped.
func (wb *WhereBuilder) Eq(column string, value any) *WhereBuilder {
	if s, ok := value.(string); ok && s == "" {
		return wb
	}
	return wb.AddClause(column+" = ?", value)
}

// Any adds "column = ANY(?)". An empty list is skipped.
func (wb *WhereBuilder) Any(column string, values []string) *WhereBuilder {
	if len(values) == 0 {
		return wb
	}
	return wb.AddClause(column+" = ANY(?)", values)
}

// After adds "column > ?" for a non-zero t, in UTC.
func (wb *WhereBuilder) After(column string, t time.Time) *WhereBuilder {
	if t.IsZero() {
		return wb
	}
	return wb.AddClause(column+" > ?", t.UTC())
}

// Live excludes tombstoned messages.
func (wb *WhereBuilder) Live() *WhereBuilder {
	return wb.AddClause("NOT deleted")
}

// Build renders the conditions joined with AND, with ? renumbered to $n.
// It returns "TRUE" when nothing was added.
func (wb *WhereBuilder) Build() (string, []any) {
	if len(wb.clauses) == 0 {
		return "TRUE", nil
	}
	return renumber(strings.Join(wb.clauses, " AND "), 1), wb.args
}

// BuildWithPrefix is Build with a leading "WHERE ".
func (wb *WhereBuilder) BuildWithPrefix() (string, []any) {
	where, args := wb.Build()
	return "WHERE " + where, args
}

// Next returns the placeholder for the next argument appended after Build.
func (wb *WhereBuilder) Next() string {
	return "$" + strconv.Itoa(len(wb.args)+1)
}

// Count returns the number of conditions.
func (wb *WhereBuilder) Count() int {
	return len(wb.clauses)
}

// IsEmpty reports whether no condition was added.
func (wb *WhereBuilder) IsEmpty() bool {
	return len(wb.clauses) == 0
}

func renumber(s string, first int) string {
	var b strings.Builder
	b.Grow(len(s) + 8)
	n := first
	for i := 0; i < len(s); i++ {
		if s[i] == '?' {
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			n++
			continue
		}
		b.WriteByte(s[i])
	}
	return b.String()
}
