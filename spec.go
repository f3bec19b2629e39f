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
	"maps"
)

// Params is one set of route parameters, parameter name to value.
type Params map[string]string

// Condition decides at generation time whether a route spec is included.
// Returning an error aborts the generation pass.
type Condition func(ctx context.Context) (bool, error)

// ParamSource produces the parameter sets a route spec expands into.
// Every returned set yields one URL.
type ParamSource interface {
	Params(ctx context.Context) ([]Params, error)
}

// ParamSourceFunc adapts a function to ParamSource.
type ParamSourceFunc func(ctx context.Context) ([]Params, error)

// Params calls f(ctx).
func (f ParamSourceFunc) Params(ctx context.Context) ([]Params, error) {
	return f(ctx)
}

// StaticParams is a fixed list of parameter sets.
type StaticParams []Params

// Params returns a copy of the listed sets.
func (s StaticParams) Params(context.Context) ([]Params, error) {
	out := make([]Params, 0, len(s))
	for _, p := range s {
		out = append(out, maps.Clone(p))
	}

	return out, nil
}

// Static returns a ParamSource that yields the given parameter sets.
//
//	sitemap.RouteSpec{
//	    Route:  "post/view",
//	    Source: sitemap.Static(sitemap.Params{"postId": "50"}),
//	}
func Static(sets ...Params) StaticParams {
	return StaticParams(sets)
}

// RouteSpec configures one explicit-mode entry.
type RouteSpec struct {
	// Route identifies the route passed to the URL builder. Required.
	Route string

	// Condition, when set, must return true for the spec to be included.
	Condition Condition

	// Source expands the route into one URL per parameter set.
	// A nil Source yields exactly one URL without parameters.
	Source ParamSource

	// Prefs overrides the generator defaults for every URL of this spec.
	Prefs Preferences
}

// Route returns a RouteSpec for route without condition, parameters or overrides.
func Route(route string) RouteSpec {
	return RouteSpec{Route: route}
}
