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

package redis

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/log"
	"github.com/testcontainers/testcontainers-go/wait"

	"rivaas.dev/sitemap"
)

// RedisStoreTestSuite runs the store against a real Redis server.
type RedisStoreTestSuite struct {
	suite.Suite
	container testcontainers.Container
	store     *Store
}

func (s *RedisStoreTestSuite) SetupSuite() {
	ctx := context.Background()

	container, err := testcontainers.Run(ctx, "redis:7-alpine",
		testcontainers.WithExposedPorts("6379/tcp"),
		testcontainers.WithWaitStrategy(wait.ForLog("Ready to accept connections")),
		testcontainers.WithLogger(log.TestLogger(s.T())),
	)
	s.Require().NoError(err)
	s.container = container

	endpoint, err := container.Endpoint(ctx, "redis")
	s.Require().NoError(err)

	s.store, err = Dial(ctx, endpoint)
	s.Require().NoError(err)
}

func (s *RedisStoreTestSuite) TearDownSuite() {
	if s.store != nil {
		s.Require().NoError(s.store.Close())
	}
	if s.container != nil {
		s.Require().NoError(s.container.Terminate(context.Background()))
	}
}

func TestRedisStoreTestSuite(t *testing.T) {
	suite.Run(t, new(RedisStoreTestSuite))
}

func (s *RedisStoreTestSuite) TestMiss() {
	_, ok, err := s.store.Get(context.Background(), "sitemap:missing")
	s.Require().NoError(err)
	s.False(ok)
}

func (s *RedisStoreTestSuite) TestSetGetExpire() {
	ctx := context.Background()
	s.Require().NoError(s.store.Set(ctx, "sitemap:ttl", []byte("snapshot"), time.Second))

	v, ok, err := s.store.Get(ctx, "sitemap:ttl")
	s.Require().NoError(err)
	s.True(ok)
	s.Equal([]byte("snapshot"), v)

	s.Eventually(func() bool {
		_, ok, err := s.store.Get(ctx, "sitemap:ttl")
		return err == nil && !ok
	}, 5*time.Second, 100*time.Millisecond)
}

func (s *RedisStoreTestSuite) TestSharedBetweenGenerators() {
	ctx := context.Background()
	calls := 0
	source := sitemap.ParamSourceFunc(func(context.Context) ([]sitemap.Params, error) {
		calls++
		return []sitemap.Params{{"postId": "50"}}, nil
	})
	newGen := func() *sitemap.Generator {
		return sitemap.MustNew(
			sitemap.WithRoutes(sitemap.RouteSpec{Route: "post/view", Source: source}),
			sitemap.WithAbsoluteURLs(false),
			sitemap.WithCache(s.store),
			sitemap.WithCacheKeyPrefix("shared-test"),
		)
	}

	first, err := newGen().Generate(ctx)
	s.Require().NoError(err)
	second, err := newGen().Generate(ctx)
	s.Require().NoError(err)

	s.Equal(first.URLs(), second.URLs())
	s.Equal(1, calls)
	s.NoError(s.store.client.Get(ctx, "shared-test:explicit").Err())
}
