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
	"io"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	rerrors "rivaas.dev/errors"
)

// Option configures a Generator.
type Option func(*config)

// config holds the generator configuration collected from options.
type config struct {
	routes               []RouteSpec
	absolute             bool
	baseURL              string
	protectedControllers []string
	protectedActions     []string
	defaults             Preferences
	store                Store
	cachingDuration      time.Duration
	cacheKeyPrefix       string
	urlBuilder           URLBuilder
	actions              ActionSource
	entities             map[string]EntityQuery
	logger               *slog.Logger
	now                  func() time.Time
	tracerProvider       trace.TracerProvider
	meterProvider        metric.MeterProvider
	errorFormatter       rerrors.Formatter
}

func defaultConfig() *config {
	return &config{
		absolute:        true,
		cachingDuration: DefaultCachingDuration,
		cacheKeyPrefix:  DefaultCacheKeyPrefix,
		entities:        make(map[string]EntityQuery),
		logger:          slog.New(slog.NewTextHandler(io.Discard, nil)),
		now:             time.Now,
		errorFormatter:  rerrors.NewRFC9457(""),
	}
}

// WithRoutes appends explicit route specs. Configuring at least one route
// switches the generator to explicit mode, where protected controllers and
// actions have no effect.
//
// Example:
//
//	sitemap.New(sitemap.WithRoutes(
//	    sitemap.Route("site/index"),
//	    sitemap.RouteSpec{Route: "post/view", Source: sitemap.Static(sitemap.Params{"postId": "50"})},
//	))
func WithRoutes(specs ...RouteSpec) Option {
	return func(cfg *config) {
		cfg.routes = append(cfg.routes, specs...)
	}
}

// WithAbsoluteURLs controls whether absolute URLs are generated.
// Default: true
func WithAbsoluteURLs(absolute bool) Option {
	return func(cfg *config) {
		cfg.absolute = absolute
	}
}

// WithBaseURL sets the scheme and host used by the default URL builder for
// absolute URLs. Without it the base URL of the current request is used.
func WithBaseURL(base string) Option {
	return func(cfg *config) {
		cfg.baseURL = base
	}
}

// WithProtectedControllers excludes every action of the named controllers in discovery mode.
func WithProtectedControllers(controllers ...string) Option {
	return func(cfg *config) {
		cfg.protectedControllers = append(cfg.protectedControllers, controllers...)
	}
}

// WithProtectedActions excludes "controller/action" routes in discovery mode.
func WithProtectedActions(routes ...string) Option {
	return func(cfg *config) {
		cfg.protectedActions = append(cfg.protectedActions, routes...)
	}
}

// WithDefaults sets the generator-wide preferences. Fields left unset fall
// back to today, "always" and 0.5.
func WithDefaults(prefs Preferences) Option {
	return func(cfg *config) {
		cfg.defaults = cfg.defaults.Merge(prefs)
	}
}

// WithPriority sets the default priority.
func WithPriority(p float64) Option {
	return func(cfg *config) {
		cfg.defaults.Priority = Priority(p)
	}
}

// WithChangeFreq sets the default change frequency.
func WithChangeFreq(f ChangeFreq) Option {
	return func(cfg *config) {
		cfg.defaults.ChangeFreq = f
	}
}

// WithLastMod sets the default last modification date.
func WithLastMod(t time.Time) Option {
	return func(cfg *config) {
		cfg.defaults.LastMod = t
	}
}

// WithCache sets the store used to memoize generated URL sets.
// Without a store caching is disabled.
func WithCache(store Store) Option {
	return func(cfg *config) {
		cfg.store = store
	}
}

// WithCachingDuration sets how long generated URL sets remain cached.
// Zero disables caching. Default: 1 hour
func WithCachingDuration(d time.Duration) Option {
	return func(cfg *config) {
		if d >= 0 {
			cfg.cachingDuration = d
		}
	}
}

// WithCacheKeyPrefix namespaces the cache keys. Generators that share a
// store but differ in configuration should use distinct prefixes.
// Default: "sitemap"
func WithCacheKeyPrefix(prefix string) Option {
	return func(cfg *config) {
		if prefix != "" {
			cfg.cacheKeyPrefix = prefix
		}
	}
}

// WithURLBuilder sets the URL builder. Default: PathBuilder.
func WithURLBuilder(b URLBuilder) Option {
	return func(cfg *config) {
		cfg.urlBuilder = b
	}
}

// WithActionSource sets where discovery mode finds actions.
func WithActionSource(src ActionSource) Option {
	return func(cfg *config) {
		cfg.actions = src
	}
}

// WithEntity registers an entity that ModelQuery route sources can name.
func WithEntity(name string, q EntityQuery) Option {
	return func(cfg *config) {
		cfg.entities[name] = q
	}
}

// WithLogger sets the slog.Logger for cache warnings and debug output.
// If not provided, log output is discarded.
func WithLogger(logger *slog.Logger) Option {
	return func(cfg *config) {
		if logger != nil {
			cfg.logger = logger
		}
	}
}

// WithClock sets the time source used for the default last modification date.
func WithClock(now func() time.Time) Option {
	return func(cfg *config) {
		if now != nil {
			cfg.now = now
		}
	}
}

// WithTracerProvider sets the OpenTelemetry tracer provider. Default: no-op.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(cfg *config) {
		cfg.tracerProvider = tp
	}
}

// WithMeterProvider sets the OpenTelemetry meter provider. Default: no-op.
func WithMeterProvider(mp metric.MeterProvider) Option {
	return func(cfg *config) {
		cfg.meterProvider = mp
	}
}

// WithErrorFormatter sets how the HTTP handler renders errors.
// Default: RFC 9457 problem details.
func WithErrorFormatter(f rerrors.Formatter) Option {
	return func(cfg *config) {
		if f != nil {
			cfg.errorFormatter = f
		}
	}
}
