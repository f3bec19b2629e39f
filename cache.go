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

package sitemap

import (
	"context"
	"log/slog"
	"time"
)

// Cache keys, relative to the generator's key prefix.
const (
	ExplicitCacheKey   = "explicit"
	DiscoveredCacheKey = "discovered"

	// DefaultCacheKeyPrefix is shared by every generator that does not set its own prefix.
	DefaultCacheKeyPrefix = "sitemap"

	// DefaultCachingDuration is how long generated URL sets stay cached.
	DefaultCachingDuration = time.Hour
)

// Store is a key-value backend with per-entry expiry.
// Get reports false for missing or expired keys.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// NopStore never stores anything. It stands in for disabled caching.
type NopStore struct{}

// Get always misses.
func (NopStore) Get(context.Context, string) ([]byte, bool, error) {
	return nil, false, nil
}

// Set discards the value.
func (NopStore) Set(context.Context, string, []byte, time.Duration) error {
	return nil
}

// resultCache memoizes whole generation passes.
// Backend failures are logged and degrade to regeneration.
type resultCache struct {
	store  Store
	prefix string
	ttl    time.Duration
	logger *slog.Logger
}

func (c *resultCache) enabled() bool {
	if c.ttl <= 0 || c.store == nil {
		return false
	}
	_, nop := c.store.(NopStore)

	return !nop
}

func (c *resultCache) key(name string) string {
	return c.prefix + ":" + name
}

func (c *resultCache) get(ctx context.Context, name string) (*URLSet, bool) {
	if !c.enabled() {
		return nil, false
	}
	key := c.key(name)
	data, ok, err := c.store.Get(ctx, key)
	if err != nil {
		c.logger.WarnContext(ctx, "sitemap cache read failed", "key", key, "error", err)
		return nil, false
	}
	if !ok {
		return nil, false
	}
	set := NewURLSet()
	if err := set.UnmarshalBinary(data); err != nil {
		c.logger.WarnContext(ctx, "sitemap cache entry is corrupt", "key", key, "error", err)
		return nil, false
	}

	return set, true
}

func (c *resultCache) set(ctx context.Context, name string, set *URLSet) {
	if !c.enabled() {
		return
	}
	key := c.key(name)
	data, err := set.MarshalBinary()
	if err != nil {
		c.logger.WarnContext(ctx, "sitemap cache encode failed", "key", key, "error", err)
		return
	}
	if err := c.store.Set(ctx, key, data, c.ttl); err != nil {
		c.logger.WarnContext(ctx, "sitemap cache write failed", "key", key, "error", err)
	}
}
