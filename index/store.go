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


package index

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/poiesic/symfind/core"
	"github.com/poiesic/symfind/storage"
)

// DefaultFetchTimeout bounds one shared shard fetch.
const DefaultFetchTimeout = 10 * time.Second

// Store loads shards lazily from a source and keeps every shard it loaded.
// Concurrent loads of the same key share one fetch. Loaded shards are never
// modified and may be read concurrently.
type Store struct {
	source       storage.Source
	codec        Codec
	cache        storage.ShardCache
	monitor      Monitor
	logger       *slog.Logger
	keyLength    int
	fetchTimeout time.Duration

	mu     sync.RWMutex
	shards map[core.ShardKey]*core.Shard
	epoch  uint64

	group singleflight.Group
}

// Option configures a Store.
type Option func(*Store) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) error {
		if logger == nil {
			logger = slog.Default()
		}
		s.logger = logger
		return nil
	}
}

// WithMonitor sets the hooks told about loads and failures.
func WithMonitor(monitor Monitor) Option {
	return func(s *Store) error {
		if monitor == nil {
			monitor = &noopMonitor{}
		}
		s.monitor = monitor
		return nil
	}
}

// WithCodec sets the payload codec.
// Default is JSONCodec.
func WithCodec(codec Codec) Option {
	return func(s *Store) error {
		if codec == nil {
			codec = JSONCodec{}
		}
		s.codec = codec
		return nil
	}
}

// WithCache sets a persistent cache consulted before the source.
func WithCache(cache storage.ShardCache) Option {
	return func(s *Store) error {
		s.cache = cache
		return nil
	}
}

// WithKeyLength sets how many leading characters form a shard key.
// Default is DefaultKeyLength.
func WithKeyLength(n int) Option {
	return func(s *Store) error {
		if err := ValidateKeyLength(n); err != nil {
			return err
		}
		s.keyLength = n
		return nil
	}
}

// WithFetchTimeout bounds each shared fetch.
// Default is DefaultFetchTimeout.
func WithFetchTimeout(d time.Duration) Option {
	return func(s *Store) error {
		if d <= 0 {
			return fmt.Errorf("fetch timeout must be positive, got %s", d)
		}
		s.fetchTimeout = d
		return nil
	}
}

// NewStore creates a store reading shard payloads from source.
func NewStore(source storage.Source, opts ...Option) (*Store, error) {
	if source == nil {
		return nil, ErrSourceRequired
	}

	s := &Store{
		source:       source,
		codec:        JSONCodec{},
		monitor:      &noopMonitor{},
		logger:       slog.Default(),
		keyLength:    DefaultKeyLength,
		fetchTimeout: DefaultFetchTimeout,
		shards:       make(map[core.ShardKey]*core.Shard),
	}

	// Apply options
	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}

	return s, nil
}

// KeyLength returns the configured shard key length.
func (s *Store) KeyLength() int {
	return s.keyLength
}

// Location returns the location of the underlying source.
func (s *Store) Location() string {
	return s.source.Location()
}

// ResolveShardKeys returns the shards that can hold matches for a
// normalized query.
func (s *Store) ResolveShardKeys(query string) []core.ShardKey {
	return ResolveShardKeys(query, s.keyLength)
}

// Load returns the shard with the given key, fetching it on first use.
//
// If the same key is already being fetched, Load joins that fetch instead
// of starting another. The fetch itself is not canceled when ctx is; it
// runs to completion or to the fetch timeout and fills the store for later
// callers. Load returns ctx.Err() if ctx ends first.
//
// A failed fetch caches nothing and returns a *core.ShardLoadError; the
// next Load of that key tries again.
func (s *Store) Load(ctx context.Context, key core.ShardKey) (*core.Shard, error) {
	s.mu.RLock()
	shard, ok := s.shards[key]
	epoch := s.epoch
	s.mu.RUnlock()
	if ok {
		return shard, nil
	}

	detached := context.WithoutCancel(ctx)
	flight := strconv.FormatUint(epoch, 10) + "/" + string(key)
	ch := s.group.DoChan(flight, func() (any, error) {
		return s.fetch(detached, epoch, key)
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*core.Shard), nil
	}
}

func (s *Store) fetch(ctx context.Context, epoch uint64, key core.ShardKey) (*core.Shard, error) {
	// A previous flight may have finished between the caller's lookup and
	// this one starting.
	s.mu.RLock()
	shard, ok := s.shards[key]
	s.mu.RUnlock()
	if ok {
		return shard, nil
	}

	ctx, cancel := context.WithTimeout(ctx, s.fetchTimeout)
	defer cancel()

	start := time.Now()
	shard, err := s.loadShard(ctx, epoch, key)
	if err != nil {
		s.monitor.ShardLoadFailed(key, err)
		s.logger.Warn("shard load failed", "key", key, "source", s.source.Location(), "err", err)
		return nil, &core.ShardLoadError{Key: key, Err: err}
	}

	s.mu.Lock()
	if s.epoch == epoch {
		s.shards[key] = shard
	}
	s.mu.Unlock()

	elapsed := time.Since(start)
	s.monitor.ShardLoaded(key, len(shard.Entries), elapsed)
	s.logger.Debug("shard loaded", "key", key, "entries", len(shard.Entries), "elapsed", elapsed)
	return shard, nil
}

func (s *Store) loadShard(ctx context.Context, epoch uint64, key core.ShardKey) (*core.Shard, error) {
	if s.cache != nil {
		shard, err := s.cache.GetShard(ctx, key)
		switch {
		case err == nil && shard != nil && shard.Key == key && core.IsSorted(shard):
			return shard, nil
		case err != nil && !errors.Is(err, storage.ErrNotFound):
			s.logger.Warn("shard cache read failed", "key", key, "err", err)
		}
	}

	payload, err := s.source.Fetch(ctx, key)
	if err != nil {
		return nil, err
	}
	payload, err = Decompress(payload)
	if err != nil {
		return nil, err
	}
	shard, malformed, err := s.codec.Decode(key, payload)
	if err != nil {
		return nil, err
	}
	for _, m := range malformed {
		s.monitor.MalformedEntry(key, m)
		s.logger.Debug("skipping malformed entry", "key", key, "index", m.Index, "err", m.Err)
	}
	if len(malformed) > 0 {
		s.logger.Warn("shard has malformed entries", "key", key, "skipped", len(malformed), "loaded", len(shard.Entries))
	}

	if s.cache != nil && s.currentEpoch() == epoch {
		if err := s.cache.PutShard(ctx, shard); err != nil {
			s.logger.Warn("shard cache write failed", "key", key, "err", err)
		}
	}
	return shard, nil
}

func (s *Store) currentEpoch() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.epoch
}

// Reset drops every loaded shard and purges the persistent cache. Loads
// started before Reset complete for their callers but are not kept.
func (s *Store) Reset() {
	s.mu.Lock()
	s.shards = make(map[core.ShardKey]*core.Shard)
	s.epoch++
	s.mu.Unlock()

	if s.cache != nil {
		ctx, cancel := context.WithTimeout(context.Background(), s.fetchTimeout)
		defer cancel()
		if err := s.cache.Purge(ctx); err != nil {
			s.logger.Warn("shard cache purge failed", "err", err)
		}
	}
	s.logger.Debug("store reset")
}

// Loaded reports whether the shard with key is held in memory.
func (s *Store) Loaded(key core.ShardKey) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.shards[key]
	return ok
}

// Len returns the number of shards held in memory.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.shards)
}
