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

//go:build !integration

package sitemap

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2024, 6, 1, 12, 30, 0, 0, time.UTC)

func testClock() time.Time { return testNow }

type post struct {
	ID    int
	Title string
}

// mapStore is a Store backed by a map that records its traffic.
type mapStore struct {
	mu   sync.Mutex
	data map[string][]byte
	ttls map[string]time.Duration
	gets int
	sets int
	err  error
}

func newMapStore() *mapStore {
	return &mapStore{data: make(map[string][]byte), ttls: make(map[string]time.Duration)}
}

func (s *mapStore) Get(_ context.Context, key string) ([]byte, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gets++
	if s.err != nil {
		return nil, false, s.err
	}
	v, ok := s.data[key]

	return v, ok, nil
}

func (s *mapStore) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sets++
	if s.err != nil {
		return s.err
	}
	s.data[key] = value
	s.ttls[key] = ttl

	return nil
}

func TestGenerator_EndToEnd(t *testing.T) {
	t.Parallel()

	gen, err := New(
		WithRoutes(
			Route("site/index"),
			RouteSpec{
				Route:  "post/view",
				Source: Static(Params{"postId": "50"}),
				Prefs:  Preferences{Priority: Priority(0.8)},
			},
		),
		WithAbsoluteURLs(false),
		WithClock(testClock),
	)
	require.NoError(t, err)
	assert.Equal(t, ModeExplicit, gen.Mode())

	set, err := gen.Generate(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"/site/index", "/post/view?postId=50"}, set.URLs())

	index, _ := set.Get("/site/index")
	assert.Equal(t, "2024-06-01", index.LastModString())
	assert.Equal(t, Always, index.ChangeFreq)
	assert.Equal(t, "0.5", index.PriorityString())

	view, _ := set.Get("/post/view?postId=50")
	assert.Equal(t, "2024-06-01", view.LastModString())
	assert.Equal(t, Always, view.ChangeFreq)
	assert.Equal(t, "0.8", view.PriorityString())
}

func TestGenerator_StaticSetsYieldOneURLEach(t *testing.T) {
	t.Parallel()

	sets := make([]Params, 0, 5)
	for _, id := range []string{"1", "2", "3", "4", "5"} {
		sets = append(sets, Params{"id": id})
	}
	gen := MustNew(
		WithRoutes(RouteSpec{Route: "post/view", Source: Static(sets...)}),
		WithAbsoluteURLs(false),
	)

	set, err := gen.ExplicitURLs(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 5, set.Len())
}

func TestGenerator_Conditions(t *testing.T) {
	t.Parallel()

	boom := errors.New("session unavailable")

	tests := []struct {
		name        string
		condition   Condition
		wantURLs    int
		wantQueries int32
		wantErr     error
	}{
		{name: "true", condition: constant(true), wantURLs: 2, wantQueries: 1},
		{name: "false", condition: constant(false), wantURLs: 0, wantQueries: 0},
		{name: "error", condition: func(context.Context) (bool, error) { return false, boom }, wantErr: boom},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var queries atomic.Int32
			posts := EntityQueryFunc(func(context.Context, Criteria) ([]Record, error) {
				queries.Add(1)
				return []Record{{"id": 1}, {"id": 2}}, nil
			})
			gen := MustNew(
				WithEntity("post", posts),
				WithRoutes(RouteSpec{
					Route:     "post/view",
					Condition: tt.condition,
					Source:    ModelQuery{Entity: "post", Map: map[string]string{"id": "id"}},
				}),
				WithAbsoluteURLs(false),
			)

			set, err := gen.Generate(context.Background())
			assert.Equal(t, tt.wantQueries, queries.Load())
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				require.ErrorIs(t, err, ErrCondition)
				var cerr *ConditionError
				require.ErrorAs(t, err, &cerr)
				assert.Equal(t, "post/view", cerr.Route)

				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantURLs, set.Len())
		})
	}
}

func TestGenerator_DuplicateURLKeepsLastPreferences(t *testing.T) {
	t.Parallel()

	gen := MustNew(
		WithRoutes(
			RouteSpec{Route: "site/index", Prefs: Preferences{Priority: Priority(0.3)}},
			Route("site/about"),
			RouteSpec{Route: "site/index", Prefs: Preferences{Priority: Priority(0.9)}},
		),
		WithAbsoluteURLs(false),
	)

	set, err := gen.Generate(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"/site/index", "/site/about"}, set.URLs())
	prefs, _ := set.Get("/site/index")
	assert.Equal(t, "0.9", prefs.PriorityString())
}

func TestGenerator_Defaults(t *testing.T) {
	t.Parallel()

	lastMod := time.Date(2023, 12, 24, 0, 0, 0, 0, time.UTC)
	gen := MustNew(
		WithRoutes(
			Route("site/index"),
			RouteSpec{Route: "site/news", Prefs: Preferences{ChangeFreq: Hourly}},
		),
		WithAbsoluteURLs(false),
		WithChangeFreq(Weekly),
		WithPriority(0.2),
		WithLastMod(lastMod),
	)

	set, err := gen.Generate(context.Background())
	require.NoError(t, err)

	index, _ := set.Get("/site/index")
	assert.Equal(t, Preferences{LastMod: lastMod, ChangeFreq: Weekly, Priority: Priority(0.2)}, index)
	news, _ := set.Get("/site/news")
	assert.Equal(t, Preferences{LastMod: lastMod, ChangeFreq: Hourly, Priority: Priority(0.2)}, news)
}

func TestGenerator_AbsoluteURLs(t *testing.T) {
	t.Parallel()

	gen := MustNew(WithRoutes(Route("site/index")), WithBaseURL("https://example.org/"))
	set, err := gen.Generate(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"https://example.org/site/index"}, set.URLs())

	gen = MustNew(WithRoutes(Route("site/index")))
	set, err = gen.Generate(ContextWithBaseURL(context.Background(), "http://localhost:8080"))
	require.NoError(t, err)
	assert.Equal(t, []string{"http://localhost:8080/site/index"}, set.URLs())

	_, err = gen.Generate(context.Background())
	require.ErrorIs(t, err, ErrNoBaseURL)
}

func TestGenerator_BuilderErrorPropagates(t *testing.T) {
	t.Parallel()

	unknown := errors.New("unknown route")
	store := newMapStore()
	gen := MustNew(
		WithRoutes(Route("nope/missing")),
		WithURLBuilder(URLBuilderFunc(func(context.Context, string, Params, bool) (string, error) {
			return "", unknown
		})),
		WithCache(store),
	)

	_, err := gen.Generate(context.Background())
	require.ErrorIs(t, err, unknown)
	assert.Zero(t, store.sets)
}

func TestNew_Validation(t *testing.T) {
	t.Parallel()

	entity := EntityQueryFunc(func(context.Context, Criteria) ([]Record, error) {
		return nil, nil
	})

	tests := []struct {
		name    string
		opts    []Option
		wantErr error
		check   func(t *testing.T, cerr *ConfigError)
	}{
		{
			name:    "missing route",
			opts:    []Option{WithRoutes(Route("site/index"), RouteSpec{Prefs: Preferences{Priority: Priority(1)}})},
			wantErr: ErrMissingRoute,
			check: func(t *testing.T, cerr *ConfigError) {
				assert.Equal(t, 1, cerr.Index)
				assert.Contains(t, cerr.Error(), "actions[1]")
			},
		},
		{
			name:    "unknown entity",
			opts:    []Option{WithRoutes(RouteSpec{Route: "post/view", Source: ModelQuery{Entity: "Post", Map: map[string]string{"id": "id"}}})},
			wantErr: ErrUnknownEntity,
			check: func(t *testing.T, cerr *ConfigError) {
				assert.Equal(t, "Post", cerr.Entity)
				assert.Equal(t, "post/view", cerr.Route)
			},
		},
		{
			name: "model query without map",
			opts: []Option{
				WithEntity("Post", entity),
				WithRoutes(RouteSpec{Route: "post/view", Source: &ModelQuery{Entity: "Post"}}),
			},
			wantErr: ErrMissingField,
		},
		{
			name: "typed model without fields",
			opts: []Option{WithRoutes(RouteSpec{
				Route:  "post/view",
				Source: FromModel[post]("post", RepositoryFunc[post](func(context.Context, Criteria) ([]post, error) { return nil, nil }), Criteria{}, nil),
			})},
			wantErr: ErrMissingField,
			check: func(t *testing.T, cerr *ConfigError) {
				assert.Equal(t, 0, cerr.Index)
				assert.Equal(t, "post/view", cerr.Route)
			},
		},
		{
			name:    "invalid change frequency",
			opts:    []Option{WithRoutes(RouteSpec{Route: "site/index", Prefs: Preferences{ChangeFreq: "often"}})},
			wantErr: ErrConfiguration,
		},
		{
			name:    "invalid default change frequency",
			opts:    []Option{WithChangeFreq("often")},
			wantErr: ErrConfiguration,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			gen, err := New(tt.opts...)
			require.Error(t, err)
			assert.Nil(t, gen)
			require.ErrorIs(t, err, tt.wantErr)
			require.ErrorIs(t, err, ErrConfiguration)
			if tt.check != nil {
				var cerr *ConfigError
				require.ErrorAs(t, err, &cerr)
				tt.check(t, cerr)
			}
		})
	}

	assert.Panics(t, func() { MustNew(WithRoutes(RouteSpec{})) })
}

func TestGenerator_TypedModelSource(t *testing.T) {
	t.Parallel()

	var got Criteria
	repo := RepositoryFunc[post](func(_ context.Context, c Criteria) ([]post, error) {
		got = c
		return []post{{ID: 7, Title: "a"}, {ID: 9, Title: "b"}}, nil
	})
	gen := MustNew(
		WithRoutes(RouteSpec{
			Route:  "post/view",
			Source: FromModel("post", repo, Criteria{Condition: "status = $1", Args: []any{2}}, Fields[post]{"id": func(p post) any { return p.ID }}),
		}),
		WithAbsoluteURLs(false),
	)

	set, err := gen.Generate(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"/post/view?id=7", "/post/view?id=9"}, set.URLs())
	assert.Equal(t, "status = $1", got.Condition)
	assert.Equal(t, []any{2}, got.Args)
}

func TestGenerator_ModelQuery(t *testing.T) {
	t.Parallel()

	rows := []Record{
		{"id": int64(7), "slug": []byte("first")},
		{"id": int64(9), "slug": []byte("second")},
	}
	gen := MustNew(
		WithEntity("Post", EntityQueryFunc(func(context.Context, Criteria) ([]Record, error) { return rows, nil })),
		WithRoutes(RouteSpec{
			Route:  "post/view",
			Source: ModelQuery{Entity: "Post", Map: map[string]string{"postId": "id", "slug": "slug"}},
		}),
		WithAbsoluteURLs(false),
	)

	set, err := gen.Generate(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"/post/view?postId=7&slug=first", "/post/view?postId=9&slug=second"}, set.URLs())
}

func TestGenerator_ModelQueryUnknownAttribute(t *testing.T) {
	t.Parallel()

	gen := MustNew(
		WithEntity("Post", EntityQueryFunc(func(context.Context, Criteria) ([]Record, error) {
			return []Record{{"id": 1}}, nil
		})),
		WithRoutes(
			Route("site/index"),
			RouteSpec{Route: "post/view", Source: ModelQuery{Entity: "Post", Map: map[string]string{"postId": "uuid"}}},
		),
		WithAbsoluteURLs(false),
	)

	_, err := gen.Generate(context.Background())
	require.ErrorIs(t, err, ErrUnknownAttribute)
	var cerr *ConfigError
	require.ErrorAs(t, err, &cerr)
	assert.Equal(t, 1, cerr.Index)
	assert.Equal(t, "post/view", cerr.Route)
	assert.Contains(t, cerr.Error(), "entity Post does not have an attribute named uuid")
}

func TestGenerator_SourceErrorPropagates(t *testing.T) {
	t.Parallel()

	dbErr := errors.New("connection refused")
	gen := MustNew(
		WithRoutes(RouteSpec{Route: "post/view", Source: ParamSourceFunc(func(context.Context) ([]Params, error) {
			return nil, dbErr
		})}),
		WithAbsoluteURLs(false),
	)

	_, err := gen.Generate(context.Background())
	assert.Equal(t, dbErr, err)
}

func TestGenerator_Discovery(t *testing.T) {
	t.Parallel()

	reg := NewRegistry()
	require.NoError(t, reg.RegisterController("SiteController",
		Method{Name: "actionIndex"},
		Method{Name: "actionContact"},
		Method{Name: "actionPage", Params: []Param{{Name: "view"}}},
		Method{Name: "actionSearch", Params: []Param{{Name: "q", HasDefault: true}}},
	))
	require.NoError(t, reg.RegisterController("AdminController", Method{Name: "actionIndex"}))

	gen := MustNew(
		WithActionSource(reg),
		WithProtectedControllers("admin"),
		WithProtectedActions("site/contact"),
		WithAbsoluteURLs(false),
		WithClock(testClock),
	)
	assert.Equal(t, ModeDiscovery, gen.Mode())

	set, err := gen.Generate(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"/site/index", "/site/search"}, set.URLs())
	prefs, _ := set.Get("/site/index")
	assert.Equal(t, Preferences{LastMod: truncateDay(testNow), ChangeFreq: Always, Priority: Priority(0.5)}, prefs)
}

func TestGenerator_ProtectedIgnoredInExplicitMode(t *testing.T) {
	t.Parallel()

	gen := MustNew(
		WithRoutes(Route("admin/index")),
		WithProtectedControllers("admin"),
		WithAbsoluteURLs(false),
	)

	set, err := gen.Generate(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"/admin/index"}, set.URLs())
}

func TestGenerator_Caching(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		duration  time.Duration
		wantCalls int32
		wantSets  int
	}{
		{name: "disabled with zero duration", duration: 0, wantCalls: 3, wantSets: 0},
		{name: "enabled", duration: time.Minute, wantCalls: 1, wantSets: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var calls atomic.Int32
			store := newMapStore()
			gen := MustNew(
				WithRoutes(RouteSpec{Route: "post/view", Source: ParamSourceFunc(func(context.Context) ([]Params, error) {
					calls.Add(1)
					return []Params{{"id": "1"}}, nil
				})}),
				WithAbsoluteURLs(false),
				WithCache(store),
				WithCachingDuration(tt.duration),
			)

			var first *URLSet
			for range 3 {
				set, err := gen.Generate(context.Background())
				require.NoError(t, err)
				if first == nil {
					first = set
				}
				assert.Equal(t, first.URLs(), set.URLs())
			}
			assert.Equal(t, tt.wantCalls, calls.Load())
			assert.Equal(t, tt.wantSets, store.sets)
			if tt.duration > 0 {
				assert.Equal(t, tt.duration, store.ttls["sitemap:explicit"])
			}
		})
	}
}

func TestGenerator_CacheKeysPerMode(t *testing.T) {
	t.Parallel()

	store := newMapStore()
	reg := NewRegistry()
	reg.Register(Action{Controller: "site", Action: "index"})

	explicit := MustNew(WithRoutes(Route("site/index")), WithAbsoluteURLs(false), WithCache(store), WithCacheKeyPrefix("app1"))
	discovery := MustNew(WithActionSource(reg), WithAbsoluteURLs(false), WithCache(store), WithCacheKeyPrefix("app1"))

	_, err := explicit.Generate(context.Background())
	require.NoError(t, err)
	_, err = discovery.Generate(context.Background())
	require.NoError(t, err)

	assert.Contains(t, store.data, "app1:explicit")
	assert.Contains(t, store.data, "app1:discovered")
}

func TestGenerator_CacheFailuresDegrade(t *testing.T) {
	t.Parallel()

	store := newMapStore()
	store.err = errors.New("redis down")
	gen := MustNew(WithRoutes(Route("site/index")), WithAbsoluteURLs(false), WithCache(store))

	set, err := gen.Generate(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, set.Len())

	corrupt := newMapStore()
	corrupt.data["sitemap:explicit"] = []byte{0xc1}
	gen = MustNew(WithRoutes(Route("site/index")), WithAbsoluteURLs(false), WithCache(corrupt))
	set, err = gen.Generate(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"/site/index"}, set.URLs())
}
