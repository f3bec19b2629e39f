// Copyright 2025 The Rivaas Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package sqlsource runs sitemap model queries against SQL databases through
// database/sql. Tables expose rows as sitemap.Record values for ModelQuery
// sources, and Repository scans rows into typed values for FromModel.
//
// Identifiers are quoted for PostgreSQL. Criteria conditions and ordering
// are inserted verbatim and must come from trusted configuration; values
// belong in Criteria.Args with driver placeholders ($1, $2, ...).
package sqlsource

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5"

	"rivaas.dev/sitemap"
)

// Querier is the subset of *sql.DB, *sql.Conn and *sql.Tx used here.
type Querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// Open opens a database with a registered driver ("pgx" or "postgres") and
// verifies the connection.
func Open(ctx context.Context, driver, dsn string) (*sql.DB, error) {
	db, err := sql.Open(driver, strings.TrimSpace(dsn))
	if err != nil {
		return nil, fmt.Errorf("opening %s database: %w", driver, err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("connecting to %s database: %w", driver, err)
	}

	return db, nil
}

// QuoteIdentifier quotes a possibly schema-qualified identifier: posts.id
// becomes "posts"."id".
func QuoteIdentifier(name string) string {
	return pgx.Identifier(strings.Split(name, ".")).Sanitize()
}

// Select builds a query selecting columns from table narrowed by criteria.
func Select(table string, columns []string, criteria sitemap.Criteria) string {
	var b strings.Builder
	b.WriteString("SELECT ")
	if len(columns) == 0 {
		b.WriteString("*")
	}
	for i, c := range columns {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(QuoteIdentifier(c))
	}
	b.WriteString(" FROM ")
	b.WriteString(QuoteIdentifier(table))
	applyCriteria(&b, criteria)

	return b.String()
}

func applyCriteria(b *strings.Builder, criteria sitemap.Criteria) {
	if c := strings.TrimSpace(criteria.Condition); c != "" {
		b.WriteString(" WHERE ")
		b.WriteString(c)
	}
	if o := strings.TrimSpace(criteria.Order); o != "" {
		b.WriteString(" ORDER BY ")
		b.WriteString(o)
	}
	if criteria.Limit > 0 {
		b.WriteString(" LIMIT ")
		b.WriteString(strconv.Itoa(criteria.Limit))
	}
}

// Table is a sitemap.EntityQuery over one table. Each row becomes a Record
// keyed by column name.
type Table struct {
	DB   Querier
	Name string
	// Columns restricts the selected columns. Empty selects every column.
	Columns []string
}

// FindAll implements sitemap.EntityQuery.
func (t Table) FindAll(ctx context.Context, criteria sitemap.Criteria) ([]sitemap.Record, error) {
	query := Select(t.Name, t.Columns, criteria)
	rows, err := t.DB.QueryContext(ctx, query, criteria.Args...)
	if err != nil {
		return nil, fmt.Errorf("querying %s: %w", t.Name, err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("reading %s columns: %w", t.Name, err)
	}
	var out []sitemap.Record
	for rows.Next() {
		values := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("scanning %s: %w", t.Name, err)
		}
		rec := make(sitemap.Record, len(cols))
		for i, c := range cols {
			if b, ok := values[i].([]byte); ok {
				values[i] = append([]byte(nil), b...)
			}
			rec[c] = values[i]
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating %s: %w", t.Name, err)
	}

	return out, nil
}

// ScanFunc reads the current row into a T.
type ScanFunc[T any] func(rows *sql.Rows) (T, error)

// Repository is a sitemap.Repository running a base query extended by the
// criteria. The base query must not carry WHERE, ORDER BY or LIMIT clauses.
//
//	posts := sqlsource.Repository[Post]{
//	    DB:    db,
//	    Query: `SELECT id, slug FROM posts`,
//	    Scan: func(rows *sql.Rows) (Post, error) {
//	        var p Post
//	        err := rows.Scan(&p.ID, &p.Slug)
//	        return p, err
//	    },
//	}
type Repository[T any] struct {
	DB    Querier
	Query string
	Scan  ScanFunc[T]
}

// FindAll implements sitemap.Repository.
func (r Repository[T]) FindAll(ctx context.Context, criteria sitemap.Criteria) ([]T, error) {
	var b strings.Builder
	b.WriteString(strings.TrimSpace(r.Query))
	applyCriteria(&b, criteria)

	rows, err := r.DB.QueryContext(ctx, b.String(), criteria.Args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []T
	for rows.Next() {
		v, err := r.Scan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}

	return out, rows.Err()
}
