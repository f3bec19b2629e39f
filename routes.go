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
	"cmp"
	"context"
	"fmt"
	"net/http"
	"net/url"
	"slices"
	"strings"

	"rivaas.dev/router"
	"rivaas.dev/router/route"
)

// RouterURLBuilder resolves routes as named routes of a rivaas router.
// Parameters that name a path parameter of the route fill the path, the
// rest become the query string. The router must be frozen.
//
// Example:
//
//	r.GET("/posts/:postId", showPost).SetName("post/view")
//	r.Freeze()
//	b := sitemap.RouterURLBuilder{Router: r, BaseURL: "https://example.org"}
//	// post/view {"postId": "50", "page": "2"} -> https://example.org/posts/50?page=2
type RouterURLBuilder struct {
	Router *router.Router

	// BaseURL is prefixed to absolute URLs. When empty the base URL from the
	// context is used.
	BaseURL string
}

// BuildURL implements URLBuilder.
func (b RouterURLBuilder) BuildURL(ctx context.Context, name string, params Params, absolute bool) (string, error) {
	if !b.Router.Frozen() {
		return "", router.ErrRoutesNotFrozen
	}
	rt, ok := b.Router.GetRoute(name)
	if !ok {
		return "", fmt.Errorf("%w: %s", router.ErrRouteNotFound, name)
	}

	pathParams := make(map[string]string)
	for _, seg := range route.ParseReversePattern(rt.Path()).Segments {
		if seg.Static {
			continue
		}
		if v, ok := params[seg.Value]; ok {
			pathParams[seg.Value] = v
		}
	}
	var query url.Values
	for k, v := range params {
		if _, ok := pathParams[k]; ok {
			continue
		}
		if query == nil {
			query = make(url.Values)
		}
		query.Set(k, v)
	}

	u, err := b.Router.URLFor(name, pathParams, query)
	if err != nil {
		return "", err
	}
	if !absolute {
		return u, nil
	}

	return absoluteURL(ctx, b.BaseURL, u)
}

// RouterActions returns an ActionSource over the named GET routes of r whose
// names have the form "controller/action". Path parameters become action
// parameters without defaults, so only parameterless routes are eligible for
// discovery. Actions are sorted by route name.
func RouterActions(r *router.Router) ActionSource {
	return ActionSourceFunc(func(context.Context) ([]Action, error) {
		if !r.Frozen() {
			return nil, router.ErrRoutesNotFrozen
		}
		var actions []Action
		for _, rt := range r.GetRoutes() {
			if rt.Method() != http.MethodGet {
				continue
			}
			controller, action, ok := strings.Cut(rt.Name(), "/")
			if !ok || controller == "" || action == "" || strings.Contains(action, "/") {
				continue
			}
			var params []Param
			for _, seg := range route.ParseReversePattern(rt.Path()).Segments {
				if !seg.Static {
					params = append(params, Param{Name: seg.Value})
				}
			}
			actions = append(actions, Action{Controller: controller, Action: action, Params: params})
		}
		slices.SortFunc(actions, func(a, b Action) int {
			return cmp.Compare(a.Route(), b.Route())
		})

		return actions, nil
	})
}
