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

// Package redis provides a sitemap cache store backed by Redis, so that
// several application instances share generated sitemaps.
package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

// Store is a sitemap.Store that keeps snapshots in Redis with native key expiry.
type Store struct {
	client goredis.UniversalClient
}

// New wraps an existing client. The caller owns the client and closes it.
func New(client goredis.UniversalClient) *Store {
	return &Store{client: client}
}

// Dial parses a redis:// URL, connects and verifies the connection with PING.
func Dial(ctx context.Context, url string) (*Store, error) {
	opts, err := goredis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parsing redis url: %w", err)
	}
	client := goredis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("connecting to redis: %w", err)
	}

	return &Store{client: client}, nil
}

// Get returns the value under key. A missing or expired key is a miss, not an error.
func (s *Store) Get(ctx context.Context, key string) ([]byte, bool, error) {
	bs, err := s.client.Get(ctx, key).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	return bs, true, nil
}

// Set stores value under key. A non-positive ttl keeps the key until it is overwritten.
func (s *Store) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl < 0 {
		ttl = 0
	}

	return s.client.Set(ctx, key, value, ttl).Err()
}

// Close closes the underlying client.
func (s *Store) Close() error {
	return s.client.Close()
}
