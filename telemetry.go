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

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
)

const instrumentationName = "rivaas.dev/sitemap"

type telemetry struct {
	tracer      trace.Tracer
	generations metric.Int64Counter
	hits        metric.Int64Counter
	misses      metric.Int64Counter
	urls        metric.Int64Histogram
}

func newTelemetry(tp trace.TracerProvider, mp metric.MeterProvider) (*telemetry, error) {
	if tp == nil {
		tp = tracenoop.NewTracerProvider()
	}
	if mp == nil {
		mp = metricnoop.NewMeterProvider()
	}
	meter := mp.Meter(instrumentationName)
	t := &telemetry{tracer: tp.Tracer(instrumentationName)}

	var err error
	if t.generations, err = meter.Int64Counter("sitemap.generations",
		metric.WithDescription("Uncached sitemap generation passes")); err != nil {
		return nil, err
	}
	if t.hits, err = meter.Int64Counter("sitemap.cache.hits",
		metric.WithDescription("Sitemap requests served from cache")); err != nil {
		return nil, err
	}
	if t.misses, err = meter.Int64Counter("sitemap.cache.misses",
		metric.WithDescription("Sitemap requests that missed the cache")); err != nil {
		return nil, err
	}
	if t.urls, err = meter.Int64Histogram("sitemap.urls",
		metric.WithDescription("URLs produced per generation pass")); err != nil {
		return nil, err
	}

	return t, nil
}

func (t *telemetry) start(ctx context.Context, mode Mode) (context.Context, trace.Span) {
	return t.tracer.Start(ctx, "sitemap.generate",
		trace.WithAttributes(attribute.String("sitemap.mode", mode.String())))
}

func (t *telemetry) cacheResult(ctx context.Context, span trace.Span, mode Mode, hit bool) {
	attrs := metric.WithAttributes(attribute.String("sitemap.mode", mode.String()))
	span.SetAttributes(attribute.Bool("sitemap.cache_hit", hit))
	if hit {
		t.hits.Add(ctx, 1, attrs)
		return
	}
	t.misses.Add(ctx, 1, attrs)
}

func (t *telemetry) generated(ctx context.Context, span trace.Span, mode Mode, set *URLSet) {
	attrs := metric.WithAttributes(attribute.String("sitemap.mode", mode.String()))
	t.generations.Add(ctx, 1, attrs)
	t.urls.Record(ctx, int64(set.Len()), attrs)
	span.SetAttributes(attribute.Int("sitemap.urls", set.Len()))
}

func (t *telemetry) failed(span trace.Span, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}
