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


package warm

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"

	"github.com/poiesic/symfind/core"
	"github.com/poiesic/symfind/index"
	"github.com/poiesic/symfind/storage"
)

type Config struct {
	// Workers is the number of shards fetched at once
	Workers int

	// ReportInterval is how often to report progress (number of shards)
	ReportInterval int

	// MaxRetries is the maximum number of attempts per shard
	MaxRetries int

	// RetryDelay is the base delay for exponential backoff
	RetryDelay time.Duration
}

func DefaultConfig() *Config {
	return &Config{
		Workers:        4,
		ReportInterval: 10,
		MaxRetries:     3,
		RetryDelay:     500 * time.Millisecond,
	}
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	if c.Workers <= 0 {
		return fmt.Errorf("%w: workers must be greater than 0", ErrInvalidConfig)
	}
	if c.ReportInterval <= 0 {
		return fmt.Errorf("%w: report interval must be greater than 0", ErrInvalidConfig)
	}
	if c.MaxRetries <= 0 {
		return fmt.Errorf("%w: max retries must be greater than 0", ErrInvalidConfig)
	}
	if c.RetryDelay < 0 {
		return fmt.Errorf("%w: retry delay must not be negative", ErrInvalidConfig)
	}
	return nil
}

// Report summarizes a warming run. Key lists are sorted.
type Report struct {
	Loaded  []core.ShardKey
	Missing []core.ShardKey
	Failed  []core.ShardKey
	Entries int
	Elapsed time.Duration
}

// Warmer loads shards into a store.
type Warmer struct {
	store    *index.Store
	config   *Config
	progress io.Writer
	logger   *slog.Logger
	newPool  func(size int, fn func(any)) (invoker, error)
}

// invoker is the part of ants.PoolWithFunc the warmer drives.
type invoker interface {
	Invoke(arg any) error
	Release()
}

func newAntsPool(size int, fn func(any)) (invoker, error) {
	return ants.NewPoolWithFunc(size, fn)
}

// Option configures a Warmer.
type Option func(*Warmer) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(w *Warmer) error {
		if logger == nil {
			logger = slog.Default()
		}
		w.logger = logger
		return nil
	}
}

// WithProgress writes a progress line to writer while warming.
func WithProgress(writer io.Writer) Option {
	return func(w *Warmer) error {
		w.progress = writer
		return nil
	}
}

// NewWarmer creates a warmer over store. A nil config selects DefaultConfig.
func NewWarmer(store *index.Store, config *Config, opts ...Option) (*Warmer, error) {
	if store == nil {
		return nil, ErrStoreRequired
	}
	if config == nil {
		config = DefaultConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}

	w := &Warmer{
		store:   store,
		config:  config,
		logger:  slog.Default(),
		newPool: newAntsPool,
	}

	// Apply options
	for _, opt := range opts {
		if err := opt(w); err != nil {
			return nil, err
		}
	}
	return w, nil
}

// Run loads every key. Failures of single shards are collected in the
// report; the returned error is only set when ctx ends or the pool cannot
// start or accept a shard. Run never returns while a shard is in flight.
func (w *Warmer) Run(ctx context.Context, keys []core.ShardKey) (*Report, error) {
	report := &Report{}
	if len(keys) == 0 {
		return report, nil
	}

	tracker := NewProgressTracker(w.progress, len(keys), w.config.ReportInterval)
	tracker.Start()

	var (
		mu sync.Mutex
		wg sync.WaitGroup
	)
	pool, err := w.newPool(w.config.Workers, func(arg any) {
		defer wg.Done()
		key := arg.(core.ShardKey)
		entries, err := w.warmOne(ctx, key)

		mu.Lock()
		switch {
		case err == nil:
			report.Loaded = append(report.Loaded, key)
			report.Entries += entries
		case errors.Is(err, storage.ErrNotFound):
			report.Missing = append(report.Missing, key)
		default:
			report.Failed = append(report.Failed, key)
			w.logger.Warn("shard could not be warmed", "key", key, "err", err)
		}
		mu.Unlock()
		tracker.Increment(1)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to start worker pool: %w", err)
	}
	defer pool.Release()

	for _, key := range keys {
		if ctx.Err() != nil {
			break
		}
		wg.Add(1)
		if err := pool.Invoke(key); err != nil {
			wg.Done()
			wg.Wait()
			return nil, fmt.Errorf("failed to schedule shard %q: %w", key, err)
		}
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	tracker.Finish()

	slices.Sort(report.Loaded)
	slices.Sort(report.Missing)
	slices.Sort(report.Failed)
	report.Elapsed = tracker.Elapsed()
	w.logger.Info("warming complete",
		"loaded", len(report.Loaded), "missing", len(report.Missing),
		"failed", len(report.Failed), "entries", report.Entries, "elapsed", report.Elapsed)
	return report, nil
}

func (w *Warmer) warmOne(ctx context.Context, key core.ShardKey) (int, error) {
	var entries int
	err := RetryWithBackoff(ctx, func() error {
		shard, err := w.store.Load(ctx, key)
		if err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				return Permanent(err)
			}
			return err
		}
		entries = len(shard.Entries)
		return nil
	}, w.config.MaxRetries, w.config.RetryDelay)
	return entries, err
}
