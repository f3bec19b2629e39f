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

package source

import (
	"context"
	"os"
	"strings"
)

// Env loads configuration from environment variables sharing a prefix.
// The prefix is stripped and the rest of the name is lowercased, so
// SITEMAP_BASE_URL becomes base_url. A double underscore nests keys:
// SITEMAP_ENTITIES__POST__TABLE becomes entities.post.table.
type Env struct {
	prefix  string
	environ func() []string
}

// NewEnv returns an Env source for variables starting with prefix.
func NewEnv(prefix string) *Env {
	return &Env{prefix: prefix, environ: os.Environ}
}

// Load collects the matching variables. Values are kept as strings and
// converted when the configuration is bound.
func (e *Env) Load(context.Context) (map[string]any, error) {
	config := make(map[string]any)
	for _, kv := range e.environ() {
		name, value, ok := strings.Cut(kv, "=")
		if !ok || !strings.HasPrefix(name, e.prefix) {
			continue
		}
		var path []string
		for part := range strings.SplitSeq(strings.ToLower(strings.TrimPrefix(name, e.prefix)), "__") {
			if part = strings.Trim(part, "_"); part != "" {
				path = append(path, part)
			}
		}
		if len(path) == 0 {
			continue
		}
		setPath(config, path, strings.TrimSpace(value))
	}

	return config, nil
}

// setPath stores value under the nested key path, replacing scalars that
// stand in the way.
func setPath(m map[string]any, path []string, value any) {
	for _, key := range path[:len(path)-1] {
		next, ok := m[key].(map[string]any)
		if !ok {
			next = make(map[string]any)
			m[key] = next
		}
		m = next
	}
	m[path[len(path)-1]] = value
}
