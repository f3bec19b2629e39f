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
	"fmt"

	"github.com/vmihailenco/msgpack/v5"
)

// Entry is one resolved sitemap URL with its preferences.
type Entry struct {
	Loc         string      `msgpack:"loc"`
	Preferences Preferences `msgpack:"prefs"`
}

// URLSet is the result of a generation pass: URLs mapped to their preferences.
// URLs are unique. Adding a URL that is already present replaces its
// preferences and keeps its original position.
//
// URLSet is not safe for concurrent mutation. Sets returned by a Generator
// are never mutated afterwards.
type URLSet struct {
	entries []Entry
	index   map[string]int
}

// NewURLSet returns an empty set.
func NewURLSet() *URLSet {
	return &URLSet{index: make(map[string]int)}
}

// Add inserts loc with prefs and reports whether an existing entry was replaced.
func (s *URLSet) Add(loc string, prefs Preferences) bool {
	if s.index == nil {
		s.index = make(map[string]int)
	}
	if i, ok := s.index[loc]; ok {
		s.entries[i].Preferences = prefs
		return true
	}
	s.index[loc] = len(s.entries)
	s.entries = append(s.entries, Entry{Loc: loc, Preferences: prefs})

	return false
}

// Get returns the preferences stored for loc.
func (s *URLSet) Get(loc string) (Preferences, bool) {
	if s == nil {
		return Preferences{}, false
	}
	i, ok := s.index[loc]
	if !ok {
		return Preferences{}, false
	}

	return s.entries[i].Preferences, true
}

// Len returns the number of URLs.
func (s *URLSet) Len() int {
	if s == nil {
		return 0
	}

	return len(s.entries)
}

// Entries returns a copy of the entries in insertion order.
func (s *URLSet) Entries() []Entry {
	if s == nil {
		return nil
	}
	out := make([]Entry, len(s.entries))
	copy(out, s.entries)

	return out
}

// URLs returns the URLs in insertion order.
func (s *URLSet) URLs() []string {
	if s == nil {
		return nil
	}
	out := make([]string, 0, len(s.entries))
	for _, e := range s.entries {
		out = append(out, e.Loc)
	}

	return out
}

// MarshalBinary encodes the set as a msgpack snapshot.
func (s *URLSet) MarshalBinary() ([]byte, error) {
	return msgpack.Marshal(s.Entries())
}

// UnmarshalBinary replaces the set's content with a snapshot produced by MarshalBinary.
func (s *URLSet) UnmarshalBinary(data []byte) error {
	var entries []Entry
	if err := msgpack.Unmarshal(data, &entries); err != nil {
		return fmt.Errorf("decoding url set snapshot: %w", err)
	}
	s.entries = nil
	s.index = make(map[string]int, len(entries))
	for _, e := range entries {
		if !e.Preferences.LastMod.IsZero() {
			e.Preferences.LastMod = e.Preferences.LastMod.UTC()
		}
		s.Add(e.Loc, e.Preferences)
	}

	return nil
}
