// Copyright 2025 Poiesic Systems
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
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/poiesic/symfind"
	"github.com/poiesic/symfind/core"
	"github.com/poiesic/symfind/index"
	"github.com/poiesic/symfind/search"
	"github.com/poiesic/symfind/warm"
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "symfind",
		Usage: "Search sharded symbol indexes of generated API documentation",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "info",
			},
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to a TOML configuration file",
			},
		},
		Before: setupLogger,
		Commands: []*cli.Command{
			{
				Name:      "query",
				Usage:     "Search the index and print grouped results",
				ArgsUsage: "<query>...",
				Action:    queryCommand,
				Flags: append(locationFlags(),
					&cli.IntFlag{
						Name:  "limit",
						Usage: "Maximum hits shown per kind",
					},
					&cli.StringSliceFlag{
						Name:  "kind-order",
						Usage: "Order of result groups, e.g. function,class",
					},
				),
			},
			{
				Name:      "keys",
				Usage:     "Print the shard keys a query would load",
				ArgsUsage: "<query>...",
				Action:    keysCommand,
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  "key-length",
						Usage: "Shard key length",
						Value: index.DefaultKeyLength,
					},
				},
			},
			{
				Name:   "warm",
				Usage:  "Prefetch every shard of the index into the persistent cache",
				Action: warmCommand,
				Flags: append(locationFlags(),
					&cli.IntFlag{
						Name:  "workers",
						Usage: "Number of shards fetched at once",
						Value: 4,
					},
					&cli.IntFlag{
						Name:  "report-interval",
						Usage: "Report progress every N shards",
						Value: 10,
					},
					&cli.IntFlag{
						Name:  "max-retries",
						Usage: "Maximum attempts per shard",
						Value: 3,
					},
					&cli.DurationFlag{
						Name:  "retry-delay",
						Usage: "Base delay for exponential backoff",
						Value: 500 * time.Millisecond,
					},
				),
			},
		},
	}
}

func locationFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "location",
			Aliases: []string{"L"},
			Usage:   "Directory, http(s) base URL or s3://bucket/prefix holding the shards",
		},
		&cli.StringFlag{
			Name:  "codec",
			Usage: "Shard payload codec (json, doxygen, doxygen:<kind>)",
		},
		&cli.StringFlag{
			Name:  "pattern",
			Usage: "Shard path pattern relative to the location",
		},
		&cli.StringFlag{
			Name:  "doxygen-section",
			Usage: "Read doxygen's numbered search files of this section (all, functions, ...)",
		},
		&cli.IntFlag{
			Name:  "key-length",
			Usage: "Shard key length",
		},
		&cli.StringFlag{
			Name:  "cache-dir",
			Usage: "BadgerDB directory for the persistent shard cache",
		},
		&cli.DurationFlag{
			Name:  "fetch-timeout",
			Usage: "Timeout for a single shard fetch",
		},
	}
}

// loadConfig reads --config, if given, and applies command line overrides.
func loadConfig(c *cli.Context) (*symfind.Config, error) {
	cfg := &symfind.Config{}
	if path := c.String("config"); path != "" {
		loaded, err := symfind.LoadConfig(path)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	if c.IsSet("location") {
		cfg.Location = c.String("location")
	}
	if c.IsSet("codec") {
		cfg.Codec = c.String("codec")
	}
	if c.IsSet("pattern") {
		cfg.PathPattern = c.String("pattern")
	}
	if c.IsSet("doxygen-section") {
		cfg.DoxygenSection = c.String("doxygen-section")
	}
	if c.IsSet("key-length") {
		cfg.KeyLength = c.Int("key-length")
	}
	if c.IsSet("cache-dir") {
		cfg.CacheDir = c.String("cache-dir")
	}
	if c.IsSet("fetch-timeout") {
		cfg.FetchTimeout = c.Duration("fetch-timeout")
	}
	if c.IsSet("limit") {
		cfg.GroupLimit = c.Int("limit")
	}
	if c.IsSet("kind-order") {
		cfg.KindOrder = c.StringSlice("kind-order")
	}
	if c.IsSet("workers") {
		cfg.Workers = c.Int("workers")
	}

	if cfg.Location == "" {
		return nil, fmt.Errorf("a shard location is required: use --location or set location in the config file")
	}
	return cfg, nil
}

func queryCommand(c *cli.Context) error {
	query := strings.Join(c.Args().Slice(), " ")
	if strings.TrimSpace(query) == "" {
		return fmt.Errorf("a query is required")
	}

	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	finder, err := symfind.Open(cfg)
	if err != nil {
		return fmt.Errorf("failed to open index: %w", err)
	}
	defer finder.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	results, err := finder.Search(ctx, query)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}
	printResults(c.App.Writer, results)
	return nil
}

func printResults(w io.Writer, results *search.Results) {
	if results.Empty() {
		fmt.Fprintf(w, "No matches for %q\n", results.Query)
	}
	for _, group := range results.Groups {
		fmt.Fprintf(w, "%s (%d)\n", group.Kind, group.Total)
		for _, hit := range group.Hits {
			for _, target := range hit.Targets {
				if target.Scope != "" {
					fmt.Fprintf(w, "  %-40s %s  [%s]\n", hit.Name, target.Anchor, target.Scope)
				} else {
					fmt.Fprintf(w, "  %-40s %s\n", hit.Name, target.Anchor)
				}
			}
		}
		if group.Truncated {
			fmt.Fprintf(w, "  ... %d more\n", group.Total-len(group.Hits))
		}
	}
	if len(results.Failed) > 0 {
		fmt.Fprintf(w, "Shards unavailable: %s\n", joinKeys(results.Failed))
	}
}

func keysCommand(c *cli.Context) error {
	keyLength := c.Int("key-length")
	if err := index.ValidateKeyLength(keyLength); err != nil {
		return err
	}
	query := core.Normalize(strings.Join(c.Args().Slice(), " "))
	keys := index.ResolveShardKeys(query, keyLength)
	fmt.Fprintf(c.App.Writer, "%s\n", joinKeys(keys))
	return nil
}

func warmCommand(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	if cfg.CacheDir == "" {
		slog.Warn("no cache directory configured, warmed shards only live for this run")
	}

	warmConfig := &warm.Config{
		Workers:        c.Int("workers"),
		ReportInterval: c.Int("report-interval"),
		MaxRetries:     c.Int("max-retries"),
		RetryDelay:     c.Duration("retry-delay"),
	}
	if err := warmConfig.Validate(); err != nil {
		return err
	}

	finder, err := symfind.Open(cfg)
	if err != nil {
		return fmt.Errorf("failed to open index: %w", err)
	}
	defer finder.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	store := finder.Store()
	warmer, err := warm.NewWarmer(store, warmConfig, warm.WithProgress(c.App.ErrWriter))
	if err != nil {
		return err
	}

	fmt.Fprintf(c.App.ErrWriter, "Location: %s\n", store.Location())
	fmt.Fprintf(c.App.ErrWriter, "Cache: %s\n", cfg.CacheDir)
	fmt.Fprintln(c.App.ErrWriter)

	report, err := warmer.Run(ctx, index.Universe(store.KeyLength()))
	if err != nil {
		return fmt.Errorf("warming failed: %w", err)
	}

	fmt.Fprintf(c.App.Writer, "Loaded %d shards (%d entries), %d missing, %d failed in %v\n",
		len(report.Loaded), report.Entries, len(report.Missing), len(report.Failed),
		report.Elapsed.Round(time.Millisecond))
	if len(report.Failed) > 0 {
		return fmt.Errorf("%d shards failed: %s", len(report.Failed), joinKeys(report.Failed))
	}
	return nil
}

func joinKeys(keys []core.ShardKey) string {
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = string(k)
	}
	return strings.Join(parts, " ")
}

func setupLogger(c *cli.Context) error {
	// Get log level from flag and normalize to lowercase
	levelStr := strings.ToLower(c.String("log-level"))

	var level slog.Level
	switch levelStr {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		return fmt.Errorf("invalid log level %q: must be one of debug, info, warn, error", levelStr)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	return nil
}
