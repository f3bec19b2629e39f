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

package config

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/cast"

	"rivaas.dev/sitemap"
)

// File is a decoded sitemap configuration document.
//
// Example (YAML):
//
//	absolute_urls: true
//	base_url: https://example.org
//	priority: 0.8
//	changefreq: weekly
//	caching_duration: 3600
//	actions:
//	  - site/index
//	  - route: post/view
//	    condition: "!isGuest"
//	    prefs: {priority: 0.5}
//	    params:
//	      model:
//	        class: post
//	        criteria: {condition: "status = 2"}
//	        map: {postId: id}
//	entities:
//	  post: {table: posts, columns: [id, slug]}
type File struct {
	AbsoluteURLs         *bool             `config:"absolute_urls"`
	BaseURL              string            `config:"base_url" validate:"omitempty,url"`
	ProtectedControllers []string          `config:"protected_controllers"`
	ProtectedActions     []string          `config:"protected_actions"`
	Priority             *float64          `config:"priority" validate:"omitempty,gte=0,lte=1"`
	ChangeFreq           string            `config:"changefreq" validate:"omitempty,changefreq"`
	LastMod              time.Time         `config:"lastmod"`
	CacheID              string            `config:"cache_id"`
	CachingDuration      *time.Duration    `config:"caching_duration" validate:"omitempty,gte=0"`
	CacheKeyPrefix       string            `config:"cache_key_prefix"`
	Actions              []Action          `config:"actions" validate:"dive"`
	Entities             map[string]Entity `config:"entities" validate:"dive"`
}

// Action is one explicit route entry. A bare string in the document is
// shorthand for an action with only a route.
type Action struct {
	Route     string  `config:"route" validate:"required"`
	Condition string  `config:"condition"`
	Prefs     Prefs   `config:"prefs"`
	Params    *Params `config:"params"`
}

// Prefs overrides the generator defaults for one action.
type Prefs struct {
	LastMod    time.Time `config:"lastmod"`
	ChangeFreq string    `config:"changefreq" validate:"omitempty,changefreq"`
	Priority   *float64  `config:"priority" validate:"omitempty,gte=0,lte=1"`
}

// Params lists where an action's route parameters come from. Model wins
// when both are set; neither yields no URLs.
type Params struct {
	Array []map[string]any `config:"array"`
	Model *Model           `config:"model"`
}

// Model queries an entity and maps its attributes to route parameters.
type Model struct {
	Class    string            `config:"class" validate:"required"`
	Criteria Criteria          `config:"criteria"`
	Map      map[string]string `config:"map" validate:"required,min=1"`
}

// Criteria narrows a model query.
type Criteria struct {
	Condition string `config:"condition"`
	Order     string `config:"order"`
	Limit     int    `config:"limit" validate:"gte=0"`
}

// Entity maps an entity name to a database table.
type Entity struct {
	Table   string   `config:"table" validate:"required"`
	Columns []string `config:"columns"`
}

var (
	actionType   = reflect.TypeOf(Action{})
	durationType = reflect.TypeOf(time.Duration(0))
	timeType     = reflect.TypeOf(time.Time{})
)

func decoderConfig(result any) *mapstructure.DecoderConfig {
	return &mapstructure.DecoderConfig{
		TagName:          "config",
		Squash:           true,
		WeaklyTypedInput: true,
		Result:           result,
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			actionShorthandHook,
			secondsHook,
			dateHook,
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
			mapstructure.StringToTimeHookFunc(time.RFC3339),
		),
	}
}

// actionShorthandHook expands "- site/index" into {route: site/index}.
func actionShorthandHook(from, to reflect.Type, data any) (any, error) {
	if to != actionType || from.Kind() != reflect.String {
		return data, nil
	}
	return map[string]any{"route": data}, nil
}

// secondsHook reads plain numbers as a number of seconds.
func secondsHook(from, to reflect.Type, data any) (any, error) {
	if to != durationType {
		return data, nil
	}
	switch from.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		if from == durationType {
			return data, nil
		}
	case reflect.String:
		if _, err := cast.ToFloat64E(data); err != nil {
			return data, nil
		}
	default:
		return data, nil
	}
	secs, err := cast.ToFloat64E(data)
	if err != nil {
		return nil, err
	}
	return time.Duration(secs * float64(time.Second)), nil
}

// dateHook accepts plain dates as well as RFC 3339 timestamps.
func dateHook(from, to reflect.Type, data any) (any, error) {
	if to != timeType || from.Kind() != reflect.String {
		return data, nil
	}
	s := strings.TrimSpace(data.(string))
	if s == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(sitemap.DateLayout, s); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, s)
}

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("config"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	_ = v.RegisterValidation("changefreq", func(fl validator.FieldLevel) bool {
		return sitemap.ChangeFreq(fl.Field().String()).Valid()
	})
	return v
}

// fieldErrors converts validator errors into field errors joined together.
func fieldErrors(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return NewError("binding", "validate", err)
	}
	errs := make([]error, 0, len(verrs))
	for _, fe := range verrs {
		field := strings.TrimPrefix(fe.Namespace(), "File.")
		msg := fmt.Errorf("failed on %q", fe.Tag())
		if fe.Param() != "" {
			msg = fmt.Errorf("failed on %q (%s)", fe.Tag(), fe.Param())
		}
		errs = append(errs, NewFieldError("binding", field, "validate", msg))
	}
	return errors.Join(errs...)
}
