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

package config

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/spf13/cast"

	"rivaas.dev/sitemap"
	"rivaas.dev/sitemap/sqlsource"
)

// DefaultCacheID names the cache used when a document sets no cache_id.
const DefaultCacheID = "cache"

// ErrNoDatabase is returned when an entity table is configured but no
// database was bound.
var ErrNoDatabase = errors.New("entity table configured without a database")

// Bindings supplies the runtime pieces a configuration document refers to
// by name.
type Bindings struct {
	// Conditions resolves names used in action conditions.
	Conditions map[string]sitemap.Condition

	// Entities resolves model classes. Entries win over tables listed
	// under "entities" in the document.
	Entities map[string]sitemap.EntityQuery

	// Caches resolves cache_id, DefaultCacheID when unset. An unknown id
	// disables caching.
	Caches map[string]sitemap.Store

	// DB backs the tables listed under "entities".
	DB sqlsource.Querier
}

// Options translates the document into generator options.
func (f *File) Options(b Bindings) ([]sitemap.Option, error) {
	var opts []sitemap.Option

	if f.AbsoluteURLs != nil {
		opts = append(opts, sitemap.WithAbsoluteURLs(*f.AbsoluteURLs))
	}
	if f.BaseURL != "" {
		opts = append(opts, sitemap.WithBaseURL(f.BaseURL))
	}
	if len(f.ProtectedControllers) > 0 {
		opts = append(opts, sitemap.WithProtectedControllers(trimAll(f.ProtectedControllers)...))
	}
	if len(f.ProtectedActions) > 0 {
		opts = append(opts, sitemap.WithProtectedActions(trimAll(f.ProtectedActions)...))
	}
	opts = append(opts, sitemap.WithDefaults(sitemap.Preferences{
		LastMod:    f.LastMod,
		ChangeFreq: sitemap.ChangeFreq(f.ChangeFreq),
		Priority:   f.Priority,
	}))

	cacheID := f.CacheID
	if cacheID == "" {
		cacheID = DefaultCacheID
	}
	if store, ok := b.Caches[cacheID]; ok && store != nil {
		opts = append(opts, sitemap.WithCache(store))
	}
	if f.CachingDuration != nil {
		opts = append(opts, sitemap.WithCachingDuration(*f.CachingDuration))
	}
	if f.CacheKeyPrefix != "" {
		opts = append(opts, sitemap.WithCacheKeyPrefix(f.CacheKeyPrefix))
	}

	for _, name := range slices.Sorted(maps.Keys(f.Entities)) {
		if _, ok := b.Entities[name]; ok {
			continue
		}
		if b.DB == nil {
			return nil, NewFieldError("binding", "entities."+name, "bind", ErrNoDatabase)
		}
		e := f.Entities[name]
		opts = append(opts, sitemap.WithEntity(name, sqlsource.Table{DB: b.DB, Name: e.Table, Columns: e.Columns}))
	}
	for _, name := range slices.Sorted(maps.Keys(b.Entities)) {
		opts = append(opts, sitemap.WithEntity(name, b.Entities[name]))
	}

	specs := make([]sitemap.RouteSpec, 0, len(f.Actions))
	for i, a := range f.Actions {
		spec, err := a.routeSpec(b, f.entityName)
		if err != nil {
			return nil, NewFieldError("binding", fmt.Sprintf("actions[%d]", i), "bind", err)
		}
		specs = append(specs, spec)
	}
	if len(specs) > 0 {
		opts = append(opts, sitemap.WithRoutes(specs...))
	}

	return opts, nil
}

func (a Action) routeSpec(b Bindings, entityName func(class string, b Bindings) string) (sitemap.RouteSpec, error) {
	spec := sitemap.RouteSpec{
		Route: strings.TrimSpace(a.Route),
		Prefs: sitemap.Preferences{
			LastMod:    a.Prefs.LastMod,
			ChangeFreq: sitemap.ChangeFreq(a.Prefs.ChangeFreq),
			Priority:   a.Prefs.Priority,
		},
	}

	if strings.TrimSpace(a.Condition) != "" {
		cond, err := sitemap.ParseCondition(a.Condition, b.Conditions)
		if err != nil {
			return spec, err
		}
		spec.Condition = cond
	}

	switch {
	case a.Params == nil:
	case a.Params.Model != nil:
		m := a.Params.Model
		spec.Source = sitemap.ModelQuery{
			Entity: entityName(m.Class, b),
			Criteria: sitemap.Criteria{
				Condition: m.Criteria.Condition,
				Order:     m.Criteria.Order,
				Limit:     m.Criteria.Limit,
			},
			Map: m.Map,
		}
	default:
		sets := make([]sitemap.Params, 0, len(a.Params.Array))
		for _, raw := range a.Params.Array {
			p := make(sitemap.Params, len(raw))
			for k, v := range raw {
				s, err := cast.ToStringE(v)
				if err != nil {
					return spec, fmt.Errorf("param %q: %w", k, err)
				}
				p[k] = s
			}
			sets = append(sets, p)
		}
		spec.Source = sitemap.Static(sets...)
	}

	return spec, nil
}

// entityName resolves a model class. Bound entities match exactly; document
// entities are keyed in lowercase.
func (f *File) entityName(class string, b Bindings) string {
	if _, ok := b.Entities[class]; ok {
		return class
	}
	if _, ok := f.Entities[strings.ToLower(class)]; ok {
		return strings.ToLower(class)
	}
	return class
}

func trimAll(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
