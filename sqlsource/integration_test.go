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

//go:build integration

package sqlsource

import (
	"context"
	"database/sql"
	"fmt"
	"testing"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/lib/pq"
	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/log"
	"github.com/testcontainers/testcontainers-go/wait"

	"rivaas.dev/sitemap"
)

// PostgresTestSuite runs tables and repositories against a real PostgreSQL.
type PostgresTestSuite struct {
	suite.Suite
	container testcontainers.Container
	dsn       string
}

func (s *PostgresTestSuite) SetupSuite() {
	ctx := context.Background()

	container, err := testcontainers.Run(ctx, "postgres:16-alpine",
		testcontainers.WithExposedPorts("5432/tcp"),
		testcontainers.WithEnv(map[string]string{
			"POSTGRES_USER":     "sitemap",
			"POSTGRES_PASSWORD": "sitemap",
			"POSTGRES_DB":       "sitemap",
		}),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(time.Minute),
		),
		testcontainers.WithLogger(log.TestLogger(s.T())),
	)
	s.Require().NoError(err)
	s.container = container

	endpoint, err := container.Endpoint(ctx, "")
	s.Require().NoError(err)
	s.dsn = fmt.Sprintf("postgres://sitemap:sitemap@%s/sitemap?sslmode=disable", endpoint)

	db, err := Open(ctx, "pgx", s.dsn)
	s.Require().NoError(err)
	defer db.Close()

	_, err = db.ExecContext(ctx, `
		CREATE TABLE posts (id BIGINT PRIMARY KEY, slug TEXT NOT NULL, status INT NOT NULL);
		INSERT INTO posts VALUES (1, 'first', 2), (2, 'draft', 1), (3, 'third', 2);
	`)
	s.Require().NoError(err)
}

func (s *PostgresTestSuite) TearDownSuite() {
	if s.container != nil {
		s.Require().NoError(s.container.Terminate(context.Background()))
	}
}

func TestPostgresTestSuite(t *testing.T) {
	suite.Run(t, new(PostgresTestSuite))
}

func (s *PostgresTestSuite) open(driver string) *sql.DB {
	db, err := Open(context.Background(), driver, s.dsn)
	s.Require().NoError(err)
	s.T().Cleanup(func() { _ = db.Close() })

	return db
}

func (s *PostgresTestSuite) TestTableWithBothDrivers() {
	for _, driver := range []string{"pgx", "postgres"} {
		s.Run(driver, func() {
			gen := sitemap.MustNew(
				sitemap.WithEntity("Post", Table{DB: s.open(driver), Name: "posts", Columns: []string{"id", "slug"}}),
				sitemap.WithRoutes(sitemap.RouteSpec{
					Route: "post/view",
					Source: sitemap.ModelQuery{
						Entity:   "Post",
						Criteria: sitemap.Criteria{Condition: "status = $1", Args: []any{2}, Order: "id"},
						Map:      map[string]string{"postId": "id", "slug": "slug"},
					},
				}),
				sitemap.WithAbsoluteURLs(false),
			)

			set, err := gen.Generate(context.Background())
			s.Require().NoError(err)
			s.Equal([]string{
				"/post/view?postId=1&slug=first",
				"/post/view?postId=3&slug=third",
			}, set.URLs())
		})
	}
}

func (s *PostgresTestSuite) TestRepository() {
	repo := Repository[post]{
		DB:    s.open("pgx"),
		Query: "SELECT id, slug FROM posts",
		Scan: func(rows *sql.Rows) (post, error) {
			var p post
			err := rows.Scan(&p.ID, &p.Slug)
			return p, err
		},
	}

	posts, err := repo.FindAll(context.Background(), sitemap.Criteria{Order: "id DESC", Limit: 2})
	s.Require().NoError(err)
	s.Equal([]post{{ID: 3, Slug: "third"}, {ID: 2, Slug: "draft"}}, posts)
}
