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
	"strings"
	"sync"
	"unicode"
	"unicode/utf8"
)

// Naming conventions used to derive controller and action names.
const (
	ControllerSuffix = "Controller"
	ActionPrefix     = "action"
	// ReservedActionsMethod lists a controller's external actions and is never an action itself.
	ReservedActionsMethod = "actions"
)

// Param describes one action parameter.
type Param struct {
	Name       string
	HasDefault bool
}

// Action describes a controller action that discovery mode may list.
type Action struct {
	Controller string
	Action     string
	Params     []Param
}

// Route returns "controller/action".
func (a Action) Route() string {
	return a.Controller + "/" + a.Action
}

// Eligible reports whether the action can be invoked without explicit arguments.
func (a Action) Eligible() bool {
	for _, p := range a.Params {
		if !p.HasDefault {
			return false
		}
	}

	return true
}

// ActionSource enumerates the actions known to the application.
type ActionSource interface {
	Actions(ctx context.Context) ([]Action, error)
}

// ActionSourceFunc adapts a function to ActionSource.
type ActionSourceFunc func(ctx context.Context) ([]Action, error)

// Actions calls f(ctx).
func (f ActionSourceFunc) Actions(ctx context.Context) ([]Action, error) {
	return f(ctx)
}

// Method describes a public controller method as seen by the registry.
type Method struct {
	Name   string
	Params []Param
}

// Registry is an ActionSource that controllers register into explicitly.
// Actions are listed in registration order. Registry is safe for concurrent use.
type Registry struct {
	mu      sync.RWMutex
	actions []Action
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// Register adds actions as given.
func (r *Registry) Register(actions ...Action) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.actions = append(r.actions, actions...)
}

// RegisterController adds the actions of a controller type by naming
// convention: the controller name is the type name without the Controller
// suffix and action methods start with the action prefix. Other methods and
// the reserved actions method are ignored.
//
//	reg.RegisterController("PostController",
//	    sitemap.Method{Name: "actionIndex"},
//	    sitemap.Method{Name: "actionView", Params: []sitemap.Param{{Name: "id"}}},
//	)
func (r *Registry) RegisterController(typeName string, methods ...Method) error {
	controller, ok := ControllerName(typeName)
	if !ok {
		return fmt.Errorf("%w: %q is not a controller type name", ErrConfiguration, typeName)
	}
	actions := make([]Action, 0, len(methods))
	for _, m := range methods {
		name, ok := ActionName(m.Name)
		if !ok {
			continue
		}
		actions = append(actions, Action{Controller: controller, Action: name, Params: m.Params})
	}
	r.Register(actions...)

	return nil
}

// Actions returns a copy of the registered actions.
func (r *Registry) Actions(context.Context) ([]Action, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Action, len(r.actions))
	copy(out, r.actions)

	return out, nil
}

// ControllerName strips the Controller suffix from a controller type name
// and lowercases the first letter: "PostController" becomes "post".
func ControllerName(typeName string) (string, bool) {
	name, ok := strings.CutSuffix(typeName, ControllerSuffix)
	if !ok || name == "" {
		return "", false
	}

	return lowerFirst(name), true
}

// ActionName strips the action prefix from a method name and lowercases the
// first letter: "actionView" becomes "view". It reports false for methods
// that are not actions.
func ActionName(method string) (string, bool) {
	if method == ReservedActionsMethod || !strings.HasPrefix(method, ActionPrefix) {
		return "", false
	}
	name := method[len(ActionPrefix):]
	if name == "" {
		return "", false
	}

	return lowerFirst(name), true
}

func lowerFirst(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}

	return string(unicode.ToLower(r)) + s[size:]
}

// scanner filters discovered actions for discovery mode.
type scanner struct {
	source               ActionSource
	protectedControllers map[string]struct{}
	protectedActions     map[string]struct{}
}

func (s *scanner) isProtected(a Action) bool {
	if _, ok := s.protectedControllers[a.Controller]; ok {
		return true
	}
	_, ok := s.protectedActions[a.Route()]

	return ok
}

// eligible returns the routes of every eligible, unprotected action.
func (s *scanner) eligible(ctx context.Context) ([]string, error) {
	if s.source == nil {
		return nil, nil
	}
	actions, err := s.source.Actions(ctx)
	if err != nil {
		return nil, err
	}
	routes := make([]string, 0, len(actions))
	for _, a := range actions {
		if !a.Eligible() || s.isProtected(a) {
			continue
		}
		routes = append(routes, a.Route())
	}

	return routes, nil
}
