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
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrConfiguration marks errors caused by an invalid sitemap configuration.
	ErrConfiguration = errors.New("sitemap: configuration error")

	// ErrCondition marks errors returned while evaluating a route condition.
	ErrCondition = errors.New("sitemap: condition evaluation failed")

	// ErrMissingRoute indicates that a route spec has no route identifier.
	ErrMissingRoute = errors.New("route spec must contain a route")

	// ErrUnknownEntity indicates that a model query names an entity that was never registered.
	ErrUnknownEntity = errors.New("unknown entity")

	// ErrUnknownAttribute indicates that a mapped attribute does not exist on a model record.
	ErrUnknownAttribute = errors.New("unknown attribute")

	// ErrMissingField indicates that a typed model source maps no parameters.
	ErrMissingField = errors.New("model source must map at least one parameter")

	// ErrNoBaseURL indicates that an absolute URL was requested but no base URL is known.
	ErrNoBaseURL = errors.New("no base URL available for absolute URLs")

	// ErrUnknownFormat indicates that the requested sitemap format is not supported.
	ErrUnknownFormat = errors.New("unknown sitemap format")
)

// ConfigError describes a configuration problem found while validating or
// resolving route specs. It matches ErrConfiguration with errors.Is.
type ConfigError struct {
	Index     int    // Position of the route spec, -1 when not tied to one
	Route     string // Route identifier (optional)
	Entity    string // Entity name (optional)
	Attribute string // Attribute name (optional)
	Err       error  // Underlying error
}

// Error returns a message naming every known piece of context.
func (e *ConfigError) Error() string {
	msg := "sitemap configuration"
	if e.Index >= 0 {
		msg += fmt.Sprintf(" actions[%d]", e.Index)
	}
	if e.Route != "" {
		msg += fmt.Sprintf(" route %q", e.Route)
	}
	switch {
	case e.Entity != "" && e.Attribute != "":
		msg += fmt.Sprintf(": entity %s does not have an attribute named %s", e.Entity, e.Attribute)
	case e.Entity != "":
		msg += fmt.Sprintf(": entity %s", e.Entity)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}

	return msg
}

// Unwrap returns the underlying error.
func (e *ConfigError) Unwrap() error {
	return e.Err
}

// Is reports whether target is ErrConfiguration.
func (e *ConfigError) Is(target error) bool {
	return target == ErrConfiguration
}

// HTTPStatus implements the rivaas errors.ErrorType interface.
func (e *ConfigError) HTTPStatus() int {
	return http.StatusInternalServerError
}

// Code implements the rivaas errors.ErrorCode interface.
func (e *ConfigError) Code() string {
	return "sitemap_configuration"
}

// ConditionError wraps an error returned by a route condition.
// It matches ErrCondition with errors.Is.
type ConditionError struct {
	Route string
	Err   error
}

// Error returns the condition failure message.
func (e *ConditionError) Error() string {
	return fmt.Sprintf("sitemap condition for route %q: %v", e.Route, e.Err)
}

// Unwrap returns the underlying error.
func (e *ConditionError) Unwrap() error {
	return e.Err
}

// Is reports whether target is ErrCondition.
func (e *ConditionError) Is(target error) bool {
	return target == ErrCondition
}

// HTTPStatus implements the rivaas errors.ErrorType interface.
func (e *ConditionError) HTTPStatus() int {
	return http.StatusInternalServerError
}

// Code implements the rivaas errors.ErrorCode interface.
func (e *ConditionError) Code() string {
	return "sitemap_condition"
}

func configErr(index int, route string, err error) *ConfigError {
	return &ConfigError{Index: index, Route: route, Err: err}
}
