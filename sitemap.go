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
	"fmt"
	"log/slog"
	"strings"
	"time"

	rerrors "rivaas.dev/errors"
)

// Mode selects how a Generator enumerates URLs.
type Mode int

const (
	// ModeDiscovery lists every eligible action from the ActionSource.
	ModeDiscovery Mode = iota
	// ModeExplicit lists the configured route specs.
	ModeExplicit
)

// String returns "explicit" or "discovery".
func (m Mode) String() string {
	if m == ModeExplicit {
		return "explicit"
	}

	return "discovery"
}

// Generator produces sitemap URL sets. It is immutable after New and safe
// for concurrent use.
type Generator struct {
	routes   []RouteSpec
	absolute bool
	baseURL  string
	defaults Preferences
	builder  URLBuilder
	scanner  *scanner
	cache    *resultCache
	logger   *slog.Logger
	now      func() time.Time
	tel      *telemetry
	problems rerrors.Formatter
}

// New creates a Generator. Route specs are validated before anything else
// runs: a spec without a route, a model query naming an unregistered entity
// or an invalid change frequency returns a *ConfigError.
//
// Example:
//
//	gen, err := sitemap.New(
//	    sitemap.WithRoutes(sitemap.Route("site/index")),
//	    sitemap.WithAbsoluteURLs(false),
//	    sitemap.WithCache(memory.MustNew(128)),
//	)
func New(opts ...Option) (*Generator, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}

	if cfg.defaults.ChangeFreq != "" && !cfg.defaults.ChangeFreq.Valid() {
		return nil, configErr(-1, "", fmt.Errorf("default change frequency %q is invalid", cfg.defaults.ChangeFreq))
	}
	routes, err := bindRoutes(cfg.routes, cfg.entities)
	if err != nil {
		return nil, err
	}

	tel, err := newTelemetry(cfg.tracerProvider, cfg.meterProvider)
	if err != nil {
		return nil, fmt.Errorf("sitemap: initializing telemetry: %w", err)
	}

	builder := cfg.urlBuilder
	if builder == nil {
		builder = PathBuilder{BaseURL: cfg.baseURL}
	}

	return &Generator{
		routes:   routes,
		absolute: cfg.absolute,
		baseURL:  cfg.baseURL,
		defaults: cfg.defaults,
		builder:  builder,
		scanner: &scanner{
			source:               cfg.actions,
			protectedControllers: toSet(cfg.protectedControllers),
			protectedActions:     toSet(cfg.protectedActions),
		},
		cache: &resultCache{
			store:  cfg.store,
			prefix: cfg.cacheKeyPrefix,
			ttl:    cfg.cachingDuration,
			logger: cfg.logger,
		},
		logger:   cfg.logger,
		now:      cfg.now,
		tel:      tel,
		problems: cfg.errorFormatter,
	}, nil
}

// MustNew is like New but panics on error.
func MustNew(opts ...Option) *Generator {
	g, err := New(opts...)
	if err != nil {
		panic(err)
	}

	return g
}

// Mode reports explicit mode when route specs are configured, discovery mode otherwise.
func (g *Generator) Mode() Mode {
	if len(g.routes) > 0 {
		return ModeExplicit
	}

	return ModeDiscovery
}

// Generate returns the URL set for the generator's mode.
func (g *Generator) Generate(ctx context.Context) (*URLSet, error) {
	if g.Mode() == ModeExplicit {
		return g.ExplicitURLs(ctx)
	}

	return g.DiscoveredURLs(ctx)
}

// ExplicitURLs returns the URL set built from the configured route specs,
// served from cache when a fresh snapshot exists.
func (g *Generator) ExplicitURLs(ctx context.Context) (*URLSet, error) {
	return g.cached(ctx, ModeExplicit, ExplicitCacheKey, g.resolveExplicit)
}

// DiscoveredURLs returns the URL set of every eligible, unprotected action,
// served from cache when a fresh snapshot exists.
func (g *Generator) DiscoveredURLs(ctx context.Context) (*URLSet, error) {
	return g.cached(ctx, ModeDiscovery, DiscoveredCacheKey, g.resolveDiscovered)
}

func (g *Generator) cached(ctx context.Context, mode Mode, key string, generate func(context.Context, *URLSet) error) (*URLSet, error) {
	ctx, span := g.tel.start(ctx, mode)
	defer span.End()

	key = g.cacheKey(ctx, key)
	if set, ok := g.cache.get(ctx, key); ok {
		g.tel.cacheResult(ctx, span, mode, true)
		return set, nil
	}
	g.tel.cacheResult(ctx, span, mode, false)

	set := NewURLSet()
	if err := generate(ctx, set); err != nil {
		g.tel.failed(span, err)
		return nil, err
	}
	g.tel.generated(ctx, span, mode, set)
	g.cache.set(ctx, key, set)

	return set, nil
}

// cacheKey scopes key to the request base URL when absolute URLs are built
// from it, so one host never sees URLs generated for another.
func (g *Generator) cacheKey(ctx context.Context, key string) string {
	if !g.absolute || g.baseURL != "" {
		return key
	}
	if base, ok := BaseURLFromContext(ctx); ok {
		return key + "@" + base
	}

	return key
}

// addURL builds the URL for route and params and stores it with the
// defaults merged under override.
func (g *Generator) addURL(ctx context.Context, set *URLSet, defaults Preferences, route string, params Params, override Preferences) error {
	loc, err := g.builder.BuildURL(ctx, route, params, g.absolute)
	if err != nil {
		return err
	}
	if set.Add(loc, defaults.Merge(override)) {
		g.logger.DebugContext(ctx, "sitemap url generated twice, keeping the last preferences",
			"url", loc, "route", route)
	}

	return nil
}

// passDefaults resolves the generator defaults against the hard-coded fallbacks for one pass.
func (g *Generator) passDefaults() Preferences {
	return g.defaults.withFallbacks(g.now().UTC())
}

type sourceValidator interface {
	validate() error
}

// bindRoutes validates specs and binds model queries to registered entities.
func bindRoutes(specs []RouteSpec, entities map[string]EntityQuery) ([]RouteSpec, error) {
	out := make([]RouteSpec, 0, len(specs))
	for i, spec := range specs {
		spec.Route = strings.TrimSpace(spec.Route)
		if spec.Route == "" {
			return nil, configErr(i, "", ErrMissingRoute)
		}
		if f := spec.Prefs.ChangeFreq; f != "" && !f.Valid() {
			return nil, configErr(i, spec.Route, fmt.Errorf("change frequency %q is invalid", f))
		}

		var q *ModelQuery
		switch src := spec.Source.(type) {
		case ModelQuery:
			q = &src
		case *ModelQuery:
			q = src
		case sourceValidator:
			if err := src.validate(); err != nil {
				return nil, withSpec(err, i, spec.Route)
			}
		}
		if q != nil {
			query, ok := entities[q.Entity]
			if !ok || query == nil {
				return nil, &ConfigError{Index: i, Route: spec.Route, Entity: q.Entity, Err: ErrUnknownEntity}
			}
			if len(q.Map) == 0 {
				return nil, &ConfigError{Index: i, Route: spec.Route, Entity: q.Entity, Err: ErrMissingField}
			}
			spec.Source = &boundModelQuery{ModelQuery: *q, query: query}
		}
		out = append(out, spec)
	}

	return out, nil
}

func toSet(values []string) map[string]struct{} {
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		set[v] = struct{}{}
	}

	return set
}
