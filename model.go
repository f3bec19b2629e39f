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
	"maps"
	"slices"

	"github.com/spf13/cast"
)

// Criteria narrows a model query. It is opaque to the generator and handed
// to the data layer unchanged.
type Criteria struct {
	Condition string // Filter expression understood by the data layer
	Args      []any  // Arguments bound to placeholders in Condition
	Order     string // Ordering expression
	Limit     int    // Maximum number of rows, 0 for no limit
}

// Repository fetches typed model rows.
type Repository[T any] interface {
	FindAll(ctx context.Context, criteria Criteria) ([]T, error)
}

// RepositoryFunc adapts a function to Repository.
type RepositoryFunc[T any] func(ctx context.Context, criteria Criteria) ([]T, error)

// FindAll calls f(ctx, criteria).
func (f RepositoryFunc[T]) FindAll(ctx context.Context, criteria Criteria) ([]T, error) {
	return f(ctx, criteria)
}

// Field reads one parameter value from a typed row.
type Field[T any] func(row T) any

// Fields maps parameter names to typed field accessors.
type Fields[T any] map[string]Field[T]

type modelSource[T any] struct {
	entity   string
	repo     Repository[T]
	criteria Criteria
	fields   Fields[T]
}

// FromModel returns a ParamSource that yields one parameter set per row
// returned by repo. entity names the model in error messages.
//
//	sitemap.FromModel("post", posts, sitemap.Criteria{Condition: "published"},
//	    sitemap.Fields[Post]{"postId": func(p Post) any { return p.ID }},
//	)
func FromModel[T any](entity string, repo Repository[T], criteria Criteria, fields Fields[T]) ParamSource {
	return &modelSource[T]{entity: entity, repo: repo, criteria: criteria, fields: fields}
}

func (m *modelSource[T]) Params(ctx context.Context) ([]Params, error) {
	rows, err := m.repo.FindAll(ctx, m.criteria)
	if err != nil {
		return nil, err
	}
	names := slices.Sorted(maps.Keys(m.fields))
	out := make([]Params, 0, len(rows))
	for _, row := range rows {
		p := make(Params, len(names))
		for _, name := range names {
			v, err := paramValue(m.fields[name](row))
			if err != nil {
				return nil, &ConfigError{Index: -1, Entity: m.entity, Err: fmt.Errorf("parameter %s: %w", name, err)}
			}
			p[name] = v
		}
		out = append(out, p)
	}

	return out, nil
}

func (m *modelSource[T]) validate() error {
	if m.repo == nil {
		return &ConfigError{Index: -1, Entity: m.entity, Err: fmt.Errorf("%w: nil repository", ErrUnknownEntity)}
	}
	if len(m.fields) == 0 {
		return &ConfigError{Index: -1, Entity: m.entity, Err: ErrMissingField}
	}

	return nil
}

// Record is one untyped model row keyed by attribute name.
type Record map[string]any

// Attr returns the value of the named attribute.
func (r Record) Attr(name string) (any, bool) {
	v, ok := r[name]
	return v, ok
}

// EntityQuery fetches untyped rows of one entity type.
type EntityQuery interface {
	FindAll(ctx context.Context, criteria Criteria) ([]Record, error)
}

// EntityQueryFunc adapts a function to EntityQuery.
type EntityQueryFunc func(ctx context.Context, criteria Criteria) ([]Record, error)

// FindAll calls f(ctx, criteria).
func (f EntityQueryFunc) FindAll(ctx context.Context, criteria Criteria) ([]Record, error) {
	return f(ctx, criteria)
}

// ModelQuery describes a model parameter source by entity name. The entity
// must be registered on the generator with WithEntity. Map binds parameter
// names to record attributes; a record without a mapped attribute is a
// configuration error.
type ModelQuery struct {
	Entity   string
	Criteria Criteria
	Map      map[string]string
}

// Params always fails: a ModelQuery only produces parameters once the
// generator has bound it to a registered entity.
func (q ModelQuery) Params(context.Context) ([]Params, error) {
	return nil, &ConfigError{Index: -1, Entity: q.Entity, Err: fmt.Errorf("%w: model query is not bound to a generator", ErrUnknownEntity)}
}

type boundModelQuery struct {
	ModelQuery
	query EntityQuery
}

func (b *boundModelQuery) Params(ctx context.Context) ([]Params, error) {
	rows, err := b.query.FindAll(ctx, b.Criteria)
	if err != nil {
		return nil, err
	}
	names := slices.Sorted(maps.Keys(b.Map))
	out := make([]Params, 0, len(rows))
	for _, row := range rows {
		p := make(Params, len(names))
		for _, name := range names {
			attr := b.Map[name]
			raw, ok := row.Attr(attr)
			if !ok {
				return nil, &ConfigError{Index: -1, Entity: b.Entity, Attribute: attr, Err: ErrUnknownAttribute}
			}
			v, err := paramValue(raw)
			if err != nil {
				return nil, &ConfigError{Index: -1, Entity: b.Entity, Attribute: attr, Err: err}
			}
			p[name] = v
		}
		out = append(out, p)
	}

	return out, nil
}

// paramValue converts a model value into its URL parameter form.
func paramValue(v any) (string, error) {
	if b, ok := v.([]byte); ok {
		return string(b), nil
	}

	return cast.ToStringE(v)
}
