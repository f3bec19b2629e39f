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
	"errors"
)

// resolveExplicit expands every configured route spec into set.
func (g *Generator) resolveExplicit(ctx context.Context, set *URLSet) error {
	defaults := g.passDefaults()
	for i, spec := range g.routes {
		if spec.Condition != nil {
			ok, err := spec.Condition(ctx)
			if err != nil {
				return &ConditionError{Route: spec.Route, Err: err}
			}
			if !ok {
				g.logger.DebugContext(ctx, "sitemap route skipped by condition", "route", spec.Route)
				continue
			}
		}

		if spec.Source == nil {
			if err := g.addURL(ctx, set, defaults, spec.Route, nil, spec.Prefs); err != nil {
				return err
			}
			continue
		}

		sets, err := spec.Source.Params(ctx)
		if err != nil {
			return withSpec(err, i, spec.Route)
		}
		for _, params := range sets {
			if err := g.addURL(ctx, set, defaults, spec.Route, params, spec.Prefs); err != nil {
				return err
			}
		}
	}

	return nil
}

// resolveDiscovered adds one URL per eligible action, without parameters or overrides.
func (g *Generator) resolveDiscovered(ctx context.Context, set *URLSet) error {
	routes, err := g.scanner.eligible(ctx)
	if err != nil {
		return err
	}
	defaults := g.passDefaults()
	for _, route := range routes {
		if err := g.addURL(ctx, set, defaults, route, nil, Preferences{}); err != nil {
			return err
		}
	}

	return nil
}

// withSpec attaches the spec position and route to a ConfigError raised by a
// parameter source. Other errors are returned unchanged.
func withSpec(err error, index int, route string) error {
	var cerr *ConfigError
	if !errors.As(err, &cerr) || cerr.Index >= 0 {
		return err
	}
	out := *cerr
	out.Index = index
	if out.Route == "" {
		out.Route = route
	}

	return &out
}
