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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestControllerName(t *testing.T) {
	t.Parallel()

	tests := []struct {
		typeName string
		want     string
		ok       bool
	}{
		{"PostController", "post", true},
		{"SiteController", "site", true},
		{"BlogPostController", "blogPost", true},
		{"ControllerController", "controller", true},
		{"Controller", "", false},
		{"Post", "", false},
		{"PostControllerHelper", "", false},
		{"postController", "post", true},
	}

	for _, tt := range tests {
		t.Run(tt.typeName, func(t *testing.T) {
			t.Parallel()

			got, ok := ControllerName(tt.typeName)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestActionName(t *testing.T) {
	t.Parallel()

	tests := []struct {
		method string
		want   string
		ok     bool
	}{
		{"actionIndex", "index", true},
		{"actionViewAll", "viewAll", true},
		{"actions", "", false},
		{"action", "", false},
		{"filters", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.method, func(t *testing.T) {
			t.Parallel()

			got, ok := ActionName(tt.method)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRegistry_RegisterController(t *testing.T) {
	t.Parallel()

	reg := NewRegistry()
	require.NoError(t, reg.RegisterController("PostController",
		Method{Name: "actionIndex"},
		Method{Name: "actionView", Params: []Param{{Name: "id"}}},
		Method{Name: "actions"},
		Method{Name: "accessRules"},
	))
	require.Error(t, reg.RegisterController("Helper"))
	require.ErrorIs(t, reg.RegisterController("PostControllerHelper", Method{Name: "actionIndex"}), ErrConfiguration)

	actions, err := reg.Actions(context.Background())
	require.NoError(t, err)
	require.Len(t, actions, 2)
	assert.Equal(t, "post/index", actions[0].Route())
	assert.True(t, actions[0].Eligible())
	assert.Equal(t, "post/view", actions[1].Route())
	assert.False(t, actions[1].Eligible())
}

func TestScanner_Eligible(t *testing.T) {
	t.Parallel()

	reg := NewRegistry()
	reg.Register(
		Action{Controller: "site", Action: "index"},
		Action{Controller: "site", Action: "contact"},
		Action{Controller: "site", Action: "search", Params: []Param{{Name: "q", HasDefault: true}}},
		Action{Controller: "site", Action: "page", Params: []Param{{Name: "view"}}},
		Action{Controller: "admin", Action: "index"},
	)
	s := &scanner{
		source:               reg,
		protectedControllers: toSet([]string{"admin"}),
		protectedActions:     toSet([]string{"site/contact"}),
	}

	routes, err := s.eligible(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"site/index", "site/search"}, routes)

	routes, err = (&scanner{}).eligible(context.Background())
	require.NoError(t, err)
	assert.Empty(t, routes)
}
