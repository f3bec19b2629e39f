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

package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"
	"time"

	rerrors "rivaas.dev/errors"
	"rivaas.dev/router"
)

const stackSize = 4 << 10

type statusWriter interface {
	StatusCode() int
}

type responseWriter struct {
	http.ResponseWriter
	status int
}

func (w *responseWriter) WriteHeader(code int) {
	if w.status == 0 {
		w.status = code
	}
	w.ResponseWriter.WriteHeader(code)
}

func (w *responseWriter) Write(b []byte) (int, error) {
	if w.status == 0 {
		w.status = http.StatusOK
	}
	return w.ResponseWriter.Write(b)
}

func (w *responseWriter) StatusCode() int {
	if w.status == 0 {
		return http.StatusOK
	}
	return w.status
}

// accessLog logs one line per request, at warn level for 4xx and error level for 5xx.
func accessLog(logger *slog.Logger) router.HandlerFunc {
	return func(c *router.Context) {
		start := time.Now()
		sw, ok := c.Response.(statusWriter)
		if !ok {
			wrapped := &responseWriter{ResponseWriter: c.Response}
			c.Response = wrapped
			sw = wrapped
		}

		c.Next()

		status := sw.StatusCode()
		fields := []any{
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"format", c.Request.URL.Query().Get("format"),
			"status", status,
			"duration_ms", time.Since(start).Milliseconds(),
		}
		switch {
		case status >= 500:
			logger.Error("access", fields...)
		case status >= 400:
			logger.Warn("access", fields...)
		default:
			logger.Info("access", fields...)
		}
	}
}

// recoverer turns a panic in a later handler into a 500 problem response.
func recoverer(logger *slog.Logger, problems rerrors.Formatter) router.HandlerFunc {
	return func(c *router.Context) {
		defer func() {
			v := recover()
			if v == nil {
				return
			}
			stack := debug.Stack()
			if len(stack) > stackSize {
				stack = stack[:stackSize]
			}
			logger.Error("panic recovered", "panic", fmt.Sprint(v), "stack", string(stack))

			err, ok := v.(error)
			if !ok {
				err = fmt.Errorf("panic: %v", v)
			}
			resp := problems.Format(c.Request, err)
			c.Response.Header().Set("Content-Type", resp.ContentType)
			c.Response.WriteHeader(http.StatusInternalServerError)
			_ = json.NewEncoder(c.Response).Encode(resp.Body)
		}()

		c.Next()
	}
}
