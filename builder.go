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
	"net/url"
	"strings"
)

// URLBuilder turns a route and its parameters into a URL.
// It fails when the route is unknown.
type URLBuilder interface {
	BuildURL(ctx context.Context, route string, params Params, absolute bool) (string, error)
}

// URLBuilderFunc adapts a function to URLBuilder.
type URLBuilderFunc func(ctx context.Context, route string, params Params, absolute bool) (string, error)

// BuildURL calls f.
func (f URLBuilderFunc) BuildURL(ctx context.Context, route string, params Params, absolute bool) (string, error) {
	return f(ctx, route, params, absolute)
}

type baseURLKey struct{}

// ContextWithBaseURL stores the scheme and host used for absolute URLs,
// e.g. "https://example.org".
func ContextWithBaseURL(ctx context.Context, base string) context.Context {
	return context.WithValue(ctx, baseURLKey{}, strings.TrimRight(base, "/"))
}

// BaseURLFromContext returns the base URL stored by ContextWithBaseURL.
func BaseURLFromContext(ctx context.Context) (string, bool) {
	base, ok := ctx.Value(baseURLKey{}).(string)
	return base, ok && base != ""
}

// PathBuilder builds "/<route>" URLs with the parameters as a sorted query string:
// route "post/view" with {"postId": "50"} becomes "/post/view?postId=50".
type PathBuilder struct {
	// BaseURL is prefixed to absolute URLs. When empty the base URL from the
	// context is used.
	BaseURL string
}

// BuildURL implements URLBuilder.
func (b PathBuilder) BuildURL(ctx context.Context, route string, params Params, absolute bool) (string, error) {
	u := "/" + strings.Trim(route, "/")
	if len(params) > 0 {
		q := make(url.Values, len(params))
		for k, v := range params {
			q.Set(k, v)
		}
		u += "?" + q.Encode()
	}
	if !absolute {
		return u, nil
	}

	return absoluteURL(ctx, b.BaseURL, u)
}

// absoluteURL prefixes path with base, or with the context base URL when base is empty.
func absoluteURL(ctx context.Context, base, path string) (string, error) {
	if base == "" {
		var ok bool
		if base, ok = BaseURLFromContext(ctx); !ok {
			return "", ErrNoBaseURL
		}
	}

	return strings.TrimRight(base, "/") + path, nil
}
