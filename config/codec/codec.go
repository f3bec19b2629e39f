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

// Package codec decodes sitemap configuration documents.
package codec

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/goccy/go-yaml"
)

// Type identifies a document format.
type Type string

// Supported formats.
const (
	TypeYAML Type = "yaml"
	TypeJSON Type = "json"
	TypeTOML Type = "toml"
)

// Decoder converts an encoded document into the value pointed to by v.
// Implementations must be safe for concurrent use.
type Decoder interface {
	Decode(data []byte, v any) error
}

// YAMLCodec decodes YAML documents.
type YAMLCodec struct{}

// Decode implements Decoder.
func (YAMLCodec) Decode(data []byte, v any) error {
	return yaml.Unmarshal(data, v)
}

// JSONCodec decodes JSON documents.
type JSONCodec struct{}

// Decode implements Decoder.
func (JSONCodec) Decode(data []byte, v any) error {
	return json.Unmarshal(data, v)
}

// TOMLCodec decodes TOML documents.
type TOMLCodec struct{}

// Decode implements Decoder.
func (TOMLCodec) Decode(data []byte, v any) error {
	return toml.Unmarshal(data, v)
}

var decoders = map[Type]Decoder{
	TypeYAML: YAMLCodec{},
	TypeJSON: JSONCodec{},
	TypeTOML: TOMLCodec{},
}

// Get returns the decoder registered for t.
func Get(t Type) (Decoder, error) {
	d, ok := decoders[t]
	if !ok {
		return nil, fmt.Errorf("decoder not found for type: %s", t)
	}

	return d, nil
}

// TypeFromPath derives the format from a file extension.
func TypeFromPath(path string) (Type, error) {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		return TypeYAML, nil
	case ".json":
		return TypeJSON, nil
	case ".toml":
		return TypeTOML, nil
	default:
		return "", fmt.Errorf("unsupported config file extension %q", ext)
	}
}
