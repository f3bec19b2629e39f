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

// Package sitemap generates XML and HTML sitemaps for rivaas applications.
//
// A Generator runs in one of two modes:
//   - Explicit mode: a configured list of route specs, each optionally
//     guarded by a condition and expanded by a parameter source (static
//     parameter sets or model rows).
//   - Discovery mode: every eligible controller action reported by an
//     ActionSource, minus protected controllers and actions.
//
// Every URL carries a last modification date, a change frequency and a
// priority. Route preferences override the generator defaults field by field,
// and the defaults fall back to today, "always" and 0.5.
//
// # Quick Start
//
//	gen := sitemap.MustNew(
//		sitemap.WithRoutes(
//			sitemap.Route("site/index"),
//			sitemap.RouteSpec{
//				Route:  "post/view",
//				Source: sitemap.Static(sitemap.Params{"postId": "50"}),
//				Prefs:  sitemap.Preferences{Priority: sitemap.Priority(0.8)},
//			},
//		),
//		sitemap.WithAbsoluteURLs(false),
//	)
//
//	set, err := gen.Generate(ctx)
//	// /site/index
//	// /post/view?postId=50
//
// # Serving
//
// Generator implements http.Handler, and Handler returns a rivaas router
// handler. The format query parameter selects xml (default) or html:
//
//	r := router.MustNew()
//	r.GET("/sitemap.xml", gen.Handler())
//
// # Model Sources
//
// Typed repositories expand a route into one URL per row:
//
//	sitemap.RouteSpec{
//		Route: "post/view",
//		Source: sitemap.FromModel("post", posts, sitemap.Criteria{Condition: "status = 2"},
//			sitemap.Fields[Post]{"postId": func(p Post) any { return p.ID }},
//		),
//	}
//
// Configuration files use ModelQuery instead, which maps parameter names to
// record attributes of an entity registered with WithEntity. Package config
// loads such files and package sqlsource backs entities with database tables.
//
// # Caching
//
// With WithCache, generated URL sets are stored as msgpack snapshots under
// "<prefix>:explicit" and "<prefix>:discovered" for the caching duration.
// When absolute URLs take their base from the request, the key also carries
// that base ("<prefix>:explicit@https://example.org").
// See the store subpackages for in-memory and Redis backends.
package sitemap
