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


package symfind

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/poiesic/symfind/core"
	"github.com/poiesic/symfind/index"
	"github.com/poiesic/symfind/metrics"
	"github.com/poiesic/symfind/search"
	"github.com/poiesic/symfind/storage"
	"github.com/poiesic/symfind/storage/badger"
	"github.com/poiesic/symfind/storage/dir"
	"github.com/poiesic/symfind/storage/minio"
	"github.com/poiesic/symfind/storage/web"
)

// ErrLocationRequired is returned by Open when no shard location is configured.
var ErrLocationRequired = errors.New("shard location is required")

// Config describes a documentation set and how to search it.
// The zero value of every field except Location selects its default.
type Config struct {
	// Location is a directory, a file:// URL, an http(s) base URL or an
	// s3://bucket/prefix URL.
	Location    string `toml:"location"`
	PathPattern string `toml:"path_pattern"`
	Codec       string `toml:"codec"`
	KeyLength   int    `toml:"key_length"`

	// DoxygenSection reads doxygen's numbered search files of one section
	// ("all", "functions", ...). Location is then doxygen's search/
	// directory and the file numbering comes from its searchdata.js.
	DoxygenSection string `toml:"doxygen_section"`
	// DoxygenContent overrides the section's letter list of searchdata.js.
	DoxygenContent string `toml:"doxygen_content"`

	FetchTimeout time.Duration `toml:"fetch_timeout"`
	// FetchRate caps http fetches per second. Zero is unlimited.
	FetchRate  float64 `toml:"fetch_rate"`
	FetchBurst int     `toml:"fetch_burst"`

	Debounce        time.Duration `toml:"debounce"`
	GroupLimit      int           `toml:"group_limit"`
	KindOrder       []string      `toml:"kind_order"`
	Workers         int           `toml:"workers"`
	ResultCacheSize *int          `toml:"result_cache_size"`

	// CacheDir holds the persistent shard cache. Empty disables it.
	CacheDir    string        `toml:"cache_dir"`
	CacheMaxAge time.Duration `toml:"cache_max_age"`

	S3 S3Config `toml:"s3"`
}

// S3Config holds the credentials used for s3:// locations.
type S3Config struct {
	Endpoint  string `toml:"endpoint"`
	AccessKey string `toml:"access_key"`
	SecretKey string `toml:"secret_key"`
	Region    string `toml:"region"`
	Insecure  bool   `toml:"insecure"`
}

// LoadConfig reads a TOML configuration file.
func LoadConfig(path string) (*Config, error) {
	cfg := &Config{}
	md, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return nil, fmt.Errorf("%w: unknown config keys %s", search.ErrInvalidConfig, strings.Join(keys, ", "))
	}
	return cfg, nil
}

// SearchConfig builds the engine configuration, filling defaults.
func (c *Config) SearchConfig() (*search.Config, error) {
	var opts []search.ConfigOption
	if c.Debounce != 0 {
		opts = append(opts, search.WithDebounce(c.Debounce))
	}
	if c.GroupLimit != 0 {
		opts = append(opts, search.WithGroupLimit(c.GroupLimit))
	}
	if c.Workers != 0 {
		opts = append(opts, search.WithWorkers(c.Workers))
	}
	if c.ResultCacheSize != nil {
		opts = append(opts, search.WithResultCacheSize(*c.ResultCacheSize))
	}
	if len(c.KindOrder) > 0 {
		kinds := make([]core.Kind, len(c.KindOrder))
		for i, name := range c.KindOrder {
			kind, err := core.ParseKind(name)
			if err != nil {
				return nil, fmt.Errorf("%w: %w", search.ErrInvalidConfig, err)
			}
			kinds[i] = kind
		}
		opts = append(opts, search.WithKindOrder(kinds...))
	}

	cfg := search.NewConfig(opts...)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) pathPattern() string {
	if c.PathPattern == "" {
		return storage.DefaultPathPattern
	}
	return c.PathPattern
}

func (c *Config) codecName() string {
	if c.Codec == "" && c.DoxygenSection != "" {
		return index.CodecDoxygen
	}
	return c.Codec
}

// OpenSource builds the shard source for the configured location.
func (c *Config) OpenSource() (storage.Source, error) {
	if c.DoxygenSection == "" {
		return c.openFiles(c.pathPattern())
	}

	layout, err := c.doxygenLayout()
	if err != nil {
		return nil, err
	}
	pattern := c.PathPattern
	if pattern == "" {
		pattern = layout.PathPattern()
	}
	files, err := c.openFiles(pattern)
	if err != nil {
		return nil, err
	}
	return index.NewDoxygenSource(files, layout)
}

func (c *Config) doxygenLayout() (*index.DoxygenLayout, error) {
	if c.DoxygenContent != "" {
		return &index.DoxygenLayout{Section: c.DoxygenSection, Content: c.DoxygenContent}, nil
	}

	files, err := c.openFiles("%s.js")
	if err != nil {
		return nil, err
	}
	timeout := c.FetchTimeout
	if timeout <= 0 {
		timeout = index.DefaultFetchTimeout
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	payload, err := files.Fetch(ctx, index.SearchIndexKey)
	if err != nil {
		return nil, fmt.Errorf("failed to read doxygen search index: %w", err)
	}
	if payload, err = index.Decompress(payload); err != nil {
		return nil, err
	}
	return index.ParseSearchIndex(payload, c.DoxygenSection)
}

func (c *Config) openFiles(pattern string) (storage.Source, error) {
	if c.Location == "" {
		return nil, ErrLocationRequired
	}

	u, err := url.Parse(c.Location)
	if err != nil || u.Scheme == "" || len(u.Scheme) == 1 {
		// Plain paths, including windows drive letters.
		return dir.NewSource(c.Location, pattern)
	}

	switch u.Scheme {
	case "file":
		return dir.NewSource(u.Path, pattern)
	case "http", "https":
		opts := []web.Option{web.WithPathPattern(pattern)}
		if c.FetchRate > 0 {
			opts = append(opts, web.WithRateLimit(c.FetchRate, c.FetchBurst))
		}
		return web.NewSource(c.Location, opts...)
	case minio.Scheme:
		bucket, prefix, err := minio.ParseLocation(c.Location)
		if err != nil {
			return nil, err
		}
		client, err := minio.NewClient(minio.ClientConfig{
			Endpoint:  c.S3.Endpoint,
			AccessKey: c.S3.AccessKey,
			SecretKey: c.S3.SecretKey,
			Region:    c.S3.Region,
			Secure:    !c.S3.Insecure,
		})
		if err != nil {
			return nil, err
		}
		return minio.NewSource(client, bucket, prefix, pattern)
	default:
		return nil, fmt.Errorf("%w: unsupported scheme %q", storage.ErrInvalidLocation, u.Scheme)
	}
}

// cacheNamespace identifies everything that shapes the shards a persistent
// cache holds: where payloads come from, how files are named and decoded,
// and how names are keyed.
func (c *Config) cacheNamespace(source storage.Source, codec index.Codec, keyLength int) string {
	return core.NamespaceFromLocation(strings.Join([]string{
		source.Location(),
		c.pathPattern(),
		codec.Name(),
		strconv.Itoa(keyLength),
		c.DoxygenSection,
		c.DoxygenContent,
	}, "\n"))
}

// Finder is a search engine together with the resources it owns.
type Finder struct {
	*search.Engine

	cache  storage.ShardCache
	logger *slog.Logger
}

// FinderOption configures Open.
type FinderOption func(*finderOptions)

type finderOptions struct {
	logger   *slog.Logger
	registry prometheus.Registerer
}

// WithLogger sets the logger handed to every component.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) FinderOption {
	return func(o *finderOptions) {
		o.logger = logger
	}
}

// WithRegistry exports shard and session metrics to reg.
func WithRegistry(reg prometheus.Registerer) FinderOption {
	return func(o *finderOptions) {
		o.registry = reg
	}
}

// Open wires a source, an optional persistent cache, a shard store and a
// search engine from cfg.
func Open(cfg *Config, opts ...FinderOption) (*Finder, error) {
	// Apply options
	options := &finderOptions{logger: slog.Default()}
	for _, opt := range opts {
		opt(options)
	}
	if options.logger == nil {
		options.logger = slog.Default()
	}

	searchConfig, err := cfg.SearchConfig()
	if err != nil {
		return nil, err
	}
	keyLength := cfg.KeyLength
	if keyLength == 0 {
		keyLength = index.DefaultKeyLength
	}
	if cfg.DoxygenSection != "" && keyLength != 1 {
		return nil, fmt.Errorf("%w: doxygen search files are keyed by one letter", index.ErrInvalidKeyLength)
	}
	codec, err := index.CodecByName(cfg.codecName())
	if err != nil {
		return nil, err
	}
	source, err := cfg.OpenSource()
	if err != nil {
		return nil, err
	}

	storeOpts := []index.Option{
		index.WithLogger(options.logger),
		index.WithCodec(codec),
	}
	engineOpts := []search.Option{search.WithLogger(options.logger)}
	if cfg.KeyLength != 0 {
		storeOpts = append(storeOpts, index.WithKeyLength(cfg.KeyLength))
	}
	if cfg.FetchTimeout != 0 {
		storeOpts = append(storeOpts, index.WithFetchTimeout(cfg.FetchTimeout))
	}
	if options.registry != nil {
		collector := metrics.NewCollector()
		if err := collector.Register(options.registry); err != nil {
			return nil, err
		}
		storeOpts = append(storeOpts, index.WithMonitor(collector))
		engineOpts = append(engineOpts, search.WithMonitor(collector))
	}

	var cache storage.ShardCache
	if cfg.CacheDir != "" {
		var cacheOpts []badger.Option
		if cfg.CacheMaxAge > 0 {
			cacheOpts = append(cacheOpts, badger.WithMaxAge(cfg.CacheMaxAge))
		}
		cache, err = badger.OpenShardCache(cfg.CacheDir, cfg.cacheNamespace(source, codec, keyLength), cacheOpts...)
		if err != nil {
			return nil, fmt.Errorf("failed to open shard cache: %w", err)
		}
		storeOpts = append(storeOpts, index.WithCache(cache))
	}

	store, err := index.NewStore(source, storeOpts...)
	if err != nil {
		closeCache(cache, options.logger)
		return nil, err
	}
	engine, err := search.NewEngine(store, searchConfig, engineOpts...)
	if err != nil {
		closeCache(cache, options.logger)
		return nil, err
	}

	options.logger.Debug("finder opened", "location", source.Location(), "codec", codec.Name(),
		"key_length", store.KeyLength(), "persistent_cache", cache != nil)
	return &Finder{Engine: engine, cache: cache, logger: options.logger}, nil
}

// Close stops the engine and closes the persistent cache.
func (f *Finder) Close() error {
	if err := f.Engine.Close(); err != nil {
		return err
	}
	if f.cache != nil {
		if err := f.cache.Close(); err != nil {
			f.logger.Error("error closing shard cache", "err", err)
			return err
		}
	}
	return nil
}

func closeCache(cache storage.ShardCache, logger *slog.Logger) {
	if cache == nil {
		return
	}
	if err := cache.Close(); err != nil {
		logger.Error("error closing shard cache", "err", err)
	}
}
