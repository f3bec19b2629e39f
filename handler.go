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
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"

	"rivaas.dev/router"
)

// Output formats accepted by the format query parameter.
const (
	FormatXML  = "xml"
	FormatHTML = "html"
)

// FormatError reports an unsupported format query value. It matches
// ErrUnknownFormat with errors.Is and maps to 400 Bad Request.
type FormatError struct {
	Format string
}

// Error returns the rejected format.
func (e *FormatError) Error() string {
	return fmt.Sprintf("%v: %q", ErrUnknownFormat, e.Format)
}

// Is reports whether target is ErrUnknownFormat.
func (e *FormatError) Is(target error) bool {
	return target == ErrUnknownFormat
}

// HTTPStatus implements the rivaas errors.ErrorType interface.
func (e *FormatError) HTTPStatus() int {
	return http.StatusBadRequest
}

// Code implements the rivaas errors.ErrorCode interface.
func (e *FormatError) Code() string {
	return "sitemap_format"
}

// Handler returns a rivaas router handler serving the sitemap.
//
// Example:
//
//	r := router.MustNew()
//	r.GET("/sitemap.xml", gen.Handler())
func (g *Generator) Handler() router.HandlerFunc {
	return func(c *router.Context) {
		g.ServeHTTP(c.Response, c.Request)
	}
}

// ServeHTTP renders the sitemap in the format named by the format query
// parameter: xml (default) or html.
func (g *Generator) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	format := r.URL.Query().Get("format")
	if format == "" {
		format = FormatXML
	}
	if format != FormatXML && format != FormatHTML {
		g.writeError(w, r, &FormatError{Format: format})
		return
	}

	ctx := ContextWithRequest(r.Context(), r)
	ctx = ContextWithBaseURL(ctx, requestBaseURL(r))

	set, err := g.Generate(ctx)
	if err != nil {
		g.logger.ErrorContext(ctx, "sitemap generation failed", "error", err)
		g.writeError(w, r, err)
		return
	}

	var buf bytes.Buffer
	contentType := "text/xml"
	if format == FormatHTML {
		contentType = "text/html; charset=utf-8"
		err = WriteHTML(&buf, set)
	} else {
		err = WriteXML(&buf, set)
	}
	if err != nil {
		g.logger.ErrorContext(ctx, "sitemap rendering failed", "format", format, "error", err)
		g.writeError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(buf.Bytes()); err != nil {
		g.logger.DebugContext(ctx, "sitemap response write failed", "error", err)
	}
}

func (g *Generator) writeError(w http.ResponseWriter, r *http.Request, err error) {
	resp := g.problems.Format(r, err)
	for k, values := range resp.Headers {
		for _, v := range values {
			w.Header().Add(k, v)
		}
	}
	w.Header().Set("Content-Type", resp.ContentType)
	w.WriteHeader(resp.Status)
	if err := json.NewEncoder(w).Encode(resp.Body); err != nil {
		g.logger.DebugContext(r.Context(), "sitemap error response write failed", "error", err)
	}
}

// requestBaseURL returns the scheme and host the request was made to.
func requestBaseURL(r *http.Request) string {
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	if proto := r.Header.Get("X-Forwarded-Proto"); proto == "http" || proto == "https" {
		scheme = proto
	}

	return scheme + "://" + r.Host
}
