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
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	promclient "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel/exporters/prometheus"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"

	rerrors "rivaas.dev/errors"
	"rivaas.dev/router"

	"rivaas.dev/sitemap"
	"rivaas.dev/sitemap/config"
	"rivaas.dev/sitemap/config/codec"
	"rivaas.dev/sitemap/sqlsource"
	"rivaas.dev/sitemap/store/memory"
	"rivaas.dev/sitemap/store/redis"
)

// conditions are the names usable in action conditions.
var conditions = map[string]sitemap.Condition{
	"isGuest": func(ctx context.Context) (bool, error) {
		r, ok := sitemap.RequestFromContext(ctx)
		if !ok {
			return true, nil
		}
		if r.Header.Get("Authorization") != "" {
			return false, nil
		}
		_, err := r.Cookie("session")
		return err != nil, nil
	},
}

type app struct {
	handler http.Handler
	closers []io.Closer
	mp      *sdkmetric.MeterProvider
}

func (a *app) Close(ctx context.Context) error {
	var errs error
	for _, c := range a.closers {
		errs = errors.Join(errs, c.Close())
	}
	if a.mp != nil {
		errs = errors.Join(errs, a.mp.Shutdown(ctx))
	}
	return errs
}

func newApp(ctx context.Context, s settings, logger *slog.Logger) (_ *app, err error) {
	a := &app{}
	defer func() {
		if err != nil {
			_ = a.Close(context.Background())
		}
	}()

	opts := []config.Option{config.WithFile(s.configPath)}
	if s.consulKey != "" {
		opts = append(opts, config.WithConsul(s.consulKey, codec.TypeYAML))
	}
	opts = append(opts, config.WithEnv("SITEMAP_"))
	cfg, err := config.New(opts...)
	if err != nil {
		return nil, err
	}
	file, err := cfg.Load(ctx)
	if err != nil {
		return nil, err
	}

	b := config.Bindings{
		Conditions: conditions,
		Caches:     map[string]sitemap.Store{},
	}
	mem, err := memory.New(s.cacheSize)
	if err != nil {
		return nil, err
	}
	b.Caches["memory"] = mem
	b.Caches[config.DefaultCacheID] = mem
	if s.redisURL != "" {
		store, err := redis.Dial(ctx, s.redisURL)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, store)
		b.Caches["redis"] = store
		b.Caches[config.DefaultCacheID] = store
	}
	if s.dbDSN != "" {
		var db *sql.DB
		if db, err = sqlsource.Open(ctx, s.dbDriver, s.dbDSN); err != nil {
			return nil, err
		}
		a.closers = append(a.closers, db)
		b.DB = db
	}

	registry := promclient.NewRegistry()
	exporter, err := prometheus.New(prometheus.WithRegisterer(registry))
	if err != nil {
		return nil, fmt.Errorf("failed to create Prometheus exporter: %w", err)
	}
	a.mp = sdkmetric.NewMeterProvider(sdkmetric.WithReader(exporter))

	genOpts, err := file.Options(b)
	if err != nil {
		return nil, err
	}
	gen, err := sitemap.New(append(genOpts,
		sitemap.WithLogger(logger),
		sitemap.WithMeterProvider(a.mp),
	)...)
	if err != nil {
		return nil, err
	}
	logger.InfoContext(ctx, "sitemap configured", "mode", gen.Mode().String(), "routes", len(file.Actions))

	a.handler = routes(gen, promhttp.HandlerFor(registry, promhttp.HandlerOpts{}), logger)
	return a, nil
}

func routes(gen *sitemap.Generator, metrics http.Handler, logger *slog.Logger) *router.Router {
	r := router.MustNew()
	r.Use(recoverer(logger, rerrors.NewRFC9457("")), accessLog(logger))
	r.GET("/sitemap.xml", gen.Handler())
	r.GET("/sitemap.html", func(c *router.Context) {
		q := c.Request.URL.Query()
		q.Set("format", sitemap.FormatHTML)
		c.Request.URL.RawQuery = q.Encode()
		gen.ServeHTTP(c.Response, c.Request)
	})
	r.GET("/metrics", func(c *router.Context) {
		metrics.ServeHTTP(c.Response, c.Request)
	})
	return r
}

func run(ctx context.Context, s settings, logger *slog.Logger) error {
	a, err := newApp(ctx, s, logger)
	if err != nil {
		return err
	}
	defer func() { _ = a.Close(context.Background()) }()

	srv := &http.Server{
		Addr:              s.addr,
		Handler:           a.handler,
		ReadHeaderTimeout: 5 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", "addr", s.addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	logger.Info("shutting down")
	return srv.Shutdown(shutdownCtx)
}
