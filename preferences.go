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
	"strconv"
	"time"
)

// ChangeFreq is the sitemap protocol hint for how often a page changes.
type ChangeFreq string

// Change frequencies defined by the sitemap protocol.
const (
	Always  ChangeFreq = "always"
	Hourly  ChangeFreq = "hourly"
	Daily   ChangeFreq = "daily"
	Weekly  ChangeFreq = "weekly"
	Monthly ChangeFreq = "monthly"
	Yearly  ChangeFreq = "yearly"
	Never   ChangeFreq = "never"
)

// Fallback preferences used when neither the route nor the generator sets a value.
const (
	DefaultChangeFreq = Always
	DefaultPriority   = 0.5
)

// DateLayout is the layout used for <lastmod> values.
const DateLayout = "2006-01-02"

// Valid reports whether f is one of the protocol values.
func (f ChangeFreq) Valid() bool {
	switch f {
	case Always, Hourly, Daily, Weekly, Monthly, Yearly, Never:
		return true
	default:
		return false
	}
}

// ParseChangeFreq converts s into a ChangeFreq.
func ParseChangeFreq(s string) (ChangeFreq, error) {
	f := ChangeFreq(s)
	if !f.Valid() {
		return "", fmt.Errorf("invalid change frequency %q", s)
	}

	return f, nil
}

// Preferences holds the per-URL sitemap metadata.
// A zero field is unset: LastMod.IsZero(), ChangeFreq == "" and Priority == nil.
type Preferences struct {
	LastMod    time.Time  `msgpack:"lastmod"`
	ChangeFreq ChangeFreq `msgpack:"changefreq"`
	Priority   *float64   `msgpack:"priority"`
}

// Priority returns a pointer to p, for use in Preferences literals.
//
//	sitemap.Preferences{Priority: sitemap.Priority(0.8)}
func Priority(p float64) *float64 {
	return &p
}

// Merge overlays override on p. Fields set in override win, unset fields keep p's value.
func (p Preferences) Merge(override Preferences) Preferences {
	out := p
	if !override.LastMod.IsZero() {
		out.LastMod = override.LastMod
	}
	if override.ChangeFreq != "" {
		out.ChangeFreq = override.ChangeFreq
	}
	if override.Priority != nil {
		v := *override.Priority
		out.Priority = &v
	}

	return out
}

// IsZero reports whether no field is set.
func (p Preferences) IsZero() bool {
	return p.LastMod.IsZero() && p.ChangeFreq == "" && p.Priority == nil
}

// LastModString formats LastMod with DateLayout, or returns "" when unset.
func (p Preferences) LastModString() string {
	if p.LastMod.IsZero() {
		return ""
	}

	return p.LastMod.Format(DateLayout)
}

// PriorityString formats Priority without trailing zeros, or returns "" when unset.
func (p Preferences) PriorityString() string {
	if p.Priority == nil {
		return ""
	}

	return strconv.FormatFloat(*p.Priority, 'f', -1, 64)
}

// withFallbacks fills every unset field of p with the hard-coded fallbacks.
func (p Preferences) withFallbacks(now time.Time) Preferences {
	return Preferences{
		LastMod:    truncateDay(now),
		ChangeFreq: DefaultChangeFreq,
		Priority:   Priority(DefaultPriority),
	}.Merge(p)
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
