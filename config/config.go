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

// Package config loads sitemap generator settings from layered sources.
//
// Sources are loaded in registration order and merged, later sources
// overriding earlier ones. Keys are case-insensitive, except for route
// parameter names under "params.array" and "params.model.map". The merged
// document is validated against an embedded JSON Schema, decoded into a
// [File] and checked with struct validation tags.
//
// Example:
//
//	cfg := config.MustNew(
//	    config.WithFile("sitemap.yaml"),
//	    config.WithEnv("SITEMAP_"),
//	)
//	file, err := cfg.Load(ctx)
//	if err != nil {
//	    return err
//	}
//	opts, err := file.Options(config.Bindings{DB: db})
package config

import (
	"bytes"
	"context"
	_ "embed"
	"errors"
	"fmt"
	"strings"
	"time"

	"dario.cat/mergo"
	"github.com/go-playground/validator/v10"
	"github.com/go-viper/mapstructure/v2"
	"github.com/santhosh-tekuri/jsonschema/v6"

	"rivaas.dev/sitemap"
	"rivaas.dev/sitemap/config/codec"
	"rivaas.dev/sitemap/config/source"
)

//go:embed schema.json
var schemaJSON []byte

const schemaName = "sitemap.schema.json"

// Source provides one layer of raw configuration.
type Source interface {
	Load(ctx context.Context) (map[string]any, error)
}

// Option configures a Config.
type Option func(c *Config) error

// Config loads and validates a sitemap configuration.
// A Config is safe for concurrent use once created.
type Config struct {
	sources  []Source
	schema   *jsonschema.Schema
	validate *validator.Validate
}

// WithSource adds a custom source.
func WithSource(src Source) Option {
	return func(c *Config) error {
		if src == nil {
			return errors.New("source cannot be nil")
		}
		c.sources = append(c.sources, src)
		return nil
	}
}

// WithFile adds a configuration file. The format is derived from the
// extension: .yaml, .yml, .json or .toml.
func WithFile(path string) Option {
	return func(c *Config) error {
		t, err := codec.TypeFromPath(path)
		if err != nil {
			return err
		}
		dec, err := codec.Get(t)
		if err != nil {
			return err
		}
		c.sources = append(c.sources, source.NewFile(path, dec))
		return nil
	}
}

// WithContent adds in-memory configuration of the given format.
func WithContent(data []byte, t codec.Type) Option {
	return func(c *Config) error {
		dec, err := codec.Get(t)
		if err != nil {
			return err
		}
		c.sources = append(c.sources, source.NewFileContent(data, dec))
		return nil
	}
}

// WithEnv adds environment variables starting with prefix. See [source.Env]
// for the naming rules.
func WithEnv(prefix string) Option {
	return func(c *Config) error {
		c.sources = append(c.sources, source.NewEnv(prefix))
		return nil
	}
}

// WithConsul adds a document stored under a Consul key. The client is
// configured from CONSUL_HTTP_ADDR and CONSUL_HTTP_TOKEN.
func WithConsul(key string, t codec.Type) Option {
	return func(c *Config) error {
		dec, err := codec.Get(t)
		if err != nil {
			return err
		}
		src, err := source.NewConsul(key, dec, nil)
		if err != nil {
			return err
		}
		c.sources = append(c.sources, src)
		return nil
	}
}

// New creates a Config. Option errors are joined and returned together.
func New(options ...Option) (*Config, error) {
	schema, err := compileSchema(schemaJSON)
	if err != nil {
		return nil, NewError("json-schema", "compile", err)
	}
	c := &Config{
		schema:   schema,
		validate: newValidator(),
	}

	var errs error
	for _, option := range options {
		if option == nil {
			continue
		}
		if err := option(c); err != nil {
			errs = errors.Join(errs, err)
		}
	}
	if errs != nil {
		return nil, errs
	}

	return c, nil
}

// MustNew is like New but panics on error.
func MustNew(options ...Option) *Config {
	c, err := New(options...)
	if err != nil {
		panic(fmt.Sprintf("config: failed to create config: %v", err))
	}
	return c
}

// Load reads every source and returns the merged, validated configuration.
//
// Errors:
//   - [*Error] with Source "source[i]" if a source fails to load or merge
//   - [*Error] with Source "json-schema" if the document does not match the schema
//   - [*Error] with Source "binding" if decoding or struct validation fails
func (c *Config) Load(ctx context.Context) (*File, error) {
	values, err := c.loadSources(ctx)
	if err != nil {
		return nil, err
	}

	if err = c.schema.Validate(values); err != nil {
		return nil, NewError("json-schema", "validate", err)
	}

	var file File
	dec, err := mapstructure.NewDecoder(decoderConfig(&file))
	if err != nil {
		return nil, NewError("binding", "bind", err)
	}
	if err = dec.Decode(values); err != nil {
		return nil, NewError("binding", "bind", err)
	}

	if err = c.validate.Struct(&file); err != nil {
		return nil, fieldErrors(err)
	}

	return &file, nil
}

func (c *Config) loadSources(ctx context.Context) (map[string]any, error) {
	merged := make(map[string]any)
	for i, src := range c.sources {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		conf, err := src.Load(ctx)
		if err != nil {
			return nil, NewError(fmt.Sprintf("source[%d]", i), "load", err)
		}
		if conf == nil {
			continue
		}

		normalized, _ := normalize(conf, false).(map[string]any)
		if err = mergo.Map(&merged, normalized, mergo.WithOverride); err != nil {
			return nil, NewError(fmt.Sprintf("source[%d]", i), "merge", err)
		}
	}

	return merged, nil
}

// normalize lowercases map keys and converts decoder-specific values into
// plain JSON-like values. Keys below "map" and inside "array" items name
// route parameters and keep their case.
func normalize(v any, keepCase bool) any {
	switch v := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(v))
		for k, val := range v {
			key := k
			if !keepCase {
				key = strings.ToLower(k)
			}
			out[key] = normalizeChild(key, val, keepCase)
		}
		return out
	case map[any]any:
		m := make(map[string]any, len(v))
		for k, val := range v {
			m[fmt.Sprint(k)] = val
		}
		return normalize(m, keepCase)
	case []any:
		out := make([]any, len(v))
		for i, item := range v {
			out[i] = normalize(item, keepCase)
		}
		return out
	case []map[string]any:
		out := make([]any, len(v))
		for i, item := range v {
			out[i] = normalize(item, keepCase)
		}
		return out
	case time.Time:
		if v.Hour() == 0 && v.Minute() == 0 && v.Second() == 0 && v.Nanosecond() == 0 {
			return v.Format(sitemap.DateLayout)
		}
		return v.Format(time.RFC3339)
	default:
		return v
	}
}

func normalizeChild(key string, val any, keepCase bool) any {
	if keepCase || key == "map" || key == "array" {
		return normalize(val, true)
	}
	return normalize(val, false)
}

func compileSchema(schema []byte) (*jsonschema.Schema, error) {
	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(schema))
	if err != nil {
		return nil, err
	}
	compiler := jsonschema.NewCompiler()
	if err = compiler.AddResource(schemaName, doc); err != nil {
		return nil, err
	}
	return compiler.Compile(schemaName)
}
