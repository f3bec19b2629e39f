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

// Package memory provides an in-process sitemap cache store backed by a
// size-bounded LRU with per-entry expiry.
package memory

import (
	"context"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultSize is the number of entries kept when New is given a non-positive size.
const DefaultSize = 64

type entry struct {
	value     []byte
	expiresAt time.Time
}

// Store is a sitemap.Store kept in process memory. Entries are evicted
// least recently used first once the size is reached, and expire after the
// TTL given to Set. Store is safe for concurrent use.
type Store struct {
	mu    sync.Mutex
	cache *lru.Cache[string, entry]
	now   func() time.Time
}

// Option configures a Store.
type Option func(*Store)

// WithClock sets the time source used for expiry.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// New creates a Store holding at most size entries.
func New(size int, opts ...Option) (*Store, error) {
	if size <= 0 {
		size = DefaultSize
	}
	cache, err := lru.New[string, entry](size)
	if err != nil {
		return nil, err
	}
	s := &Store{cache: cache, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}

	return s, nil
}

// MustNew is like New but panics on error.
func MustNew(size int, opts ...Option) *Store {
	s, err := New(size, opts...)
	if err != nil {
		panic(err)
	}

	return s
}

// Get returns the value stored under key unless it has expired.
func (s *Store) Get(_ context.Context, key string) ([]byte, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.cache.Get(key)
	if !ok {
		return nil, false, nil
	}
	if !e.expiresAt.IsZero() && !s.now().Before(e.expiresAt) {
		s.cache.Remove(key)
		return nil, false, nil
	}

	return e.value, true, nil
}

// Set stores a copy of value under key. A non-positive ttl never expires.
func (s *Store) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	e := entry{value: append([]byte(nil), value...)}
	if ttl > 0 {
		e.expiresAt = s.now().Add(ttl)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.cache.Add(key, e)

	return nil
}

// Len returns the number of stored entries, expired ones included.
func (s *Store) Len() int {
	return s.cache.Len()
}
