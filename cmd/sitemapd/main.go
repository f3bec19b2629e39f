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

// Command sitemapd serves a sitemap built from a configuration file.
//
// Usage:
//
//	sitemapd -config sitemap.yaml -addr :8080 -db-dsn postgres://localhost/blog
//
// Every flag can also be set through the environment (SITEMAPD_CONFIG,
// SITEMAPD_ADDR, ...); a .env file in the working directory is loaded
// first. Sitemap settings in the file can be overridden with SITEMAP_*
// variables. The sitemap is served at /sitemap.xml and /sitemap.html and
// metrics at /metrics.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"

	"rivaas.dev/logging"

	"rivaas.dev/sitemap/store/memory"
)

const shutdownTimeout = 10 * time.Second

type settings struct {
	configPath string
	consulKey  string
	addr       string
	dbDriver   string
	dbDSN      string
	redisURL   string
	cacheSize  int
}

func parseFlags(args []string) (settings, error) {
	var s settings
	fs := flag.NewFlagSet("sitemapd", flag.ContinueOnError)
	fs.StringVar(&s.configPath, "config", env("SITEMAPD_CONFIG", "sitemap.yaml"), "sitemap configuration file (yaml, json or toml)")
	fs.StringVar(&s.consulKey, "consul-key", env("SITEMAPD_CONSUL_KEY", ""), "Consul key holding a YAML configuration overlay")
	fs.StringVar(&s.addr, "addr", env("SITEMAPD_ADDR", ":8080"), "listen address")
	fs.StringVar(&s.dbDriver, "db-driver", env("SITEMAPD_DB_DRIVER", "pgx"), "database/sql driver: pgx or postgres")
	fs.StringVar(&s.dbDSN, "db-dsn", env("SITEMAPD_DB_DSN", ""), "database DSN for configured entities")
	fs.StringVar(&s.redisURL, "redis-url", env("SITEMAPD_REDIS_URL", ""), "redis URL; registers the \"redis\" cache and makes it the default")
	size, err := strconv.Atoi(env("SITEMAPD_CACHE_SIZE", strconv.Itoa(memory.DefaultSize)))
	if err != nil {
		return s, fmt.Errorf("SITEMAPD_CACHE_SIZE: %w", err)
	}
	fs.IntVar(&s.cacheSize, "cache-size", size, "entries of the \"memory\" cache")

	return s, fs.Parse(args)
}

func env(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok {
		return v
	}
	return fallback
}

func main() {
	_ = godotenv.Load()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	s, err := parseFlags(os.Args[1:])
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	logger := logging.MustNew(
		logging.WithJSONHandler(),
		logging.WithServiceName("sitemapd"),
	)

	err = run(ctx, s, logger.Logger())
	if err != nil {
		logger.Logger().Error("sitemapd stopped", "error", err)
	}
	_ = logger.Shutdown(context.Background())
	if err != nil {
		os.Exit(1)
	}
}
