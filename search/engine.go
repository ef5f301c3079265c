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


package search

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/panjf2000/ants/v2"

	"github.com/poiesic/symfind/core"
	"github.com/poiesic/symfind/index"
)

type sessionState int

const (
	statePending sessionState = iota
	stateDelivered
	stateSuperseded
)

func (s sessionState) String() string {
	switch s {
	case statePending:
		return "pending"
	case stateDelivered:
		return "delivered"
	case stateSuperseded:
		return "superseded"
	default:
		return "unknown"
	}
}

// session is one submitted query. Its state only moves out of pending.
type session struct {
	generation uint64
	query      string
	state      sessionState
	timer      *time.Timer
	ctx        context.Context
	cancel     context.CancelFunc
}

// Engine runs query sessions against a shard store.
//
// Each SubmitQuery supersedes the previous pending session and starts a new
// one after the debounce delay. A session delivers only if no newer session
// was created while it worked, so the callback never sees stale results.
// Engine is safe for concurrent use.
type Engine struct {
	store   *index.Store
	config  *Config
	pool    *ants.Pool
	cache   *lru.Cache[string, *Results] // nil when disabled
	monitor Monitor
	logger  *slog.Logger

	mu         sync.Mutex
	generation uint64
	current    *session
	onResults  func(*Results)
	closed     bool
	// resets counts Reset calls. A result set is cached only when no
	// reset happened while it was being built.
	resets uint64

	// deliverMu serializes callback invocations.
	deliverMu sync.Mutex
}

// Option configures an Engine.
type Option func(*Engine) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) error {
		if logger == nil {
			logger = slog.Default()
		}
		e.logger = logger
		return nil
	}
}

// WithMonitor sets the hooks told about session transitions.
func WithMonitor(monitor Monitor) Option {
	return func(e *Engine) error {
		if monitor == nil {
			monitor = &noopMonitor{}
		}
		e.monitor = monitor
		return nil
	}
}

// NewEngine creates an engine over store. A nil config selects DefaultConfig.
func NewEngine(store *index.Store, config *Config, opts ...Option) (*Engine, error) {
	if store == nil {
		return nil, ErrStoreRequired
	}
	if config == nil {
		config = DefaultConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}

	e := &Engine{
		store:   store,
		config:  config,
		monitor: &noopMonitor{},
		logger:  slog.Default(),
	}

	// Apply options
	for _, opt := range opts {
		if err := opt(e); err != nil {
			return nil, err
		}
	}

	if config.ResultCacheSize > 0 {
		cache, err := lru.New[string, *Results](config.ResultCacheSize)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
		}
		e.cache = cache
	}

	pool, err := ants.NewPool(config.Workers)
	if err != nil {
		return nil, err
	}
	e.pool = pool

	return e, nil
}

// OnResults subscribes fn to delivered results, replacing any previous
// subscriber. fn runs on an engine goroutine, never twice at once, and may
// call back into the engine.
func (e *Engine) OnResults(fn func(*Results)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.onResults = fn
}

// SubmitQuery starts a session for raw. Submitting the query of the
// current session again does nothing.
func (e *Engine) SubmitQuery(raw string) {
	query := core.Normalize(raw)

	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return
	}
	if cur := e.current; cur != nil && cur.state != stateSuperseded && cur.query == query {
		e.mu.Unlock()
		return
	}
	e.supersedeLocked()
	e.generation++

	ctx, cancel := context.WithCancel(context.Background())
	s := &session{
		generation: e.generation,
		query:      query,
		state:      statePending,
		ctx:        ctx,
		cancel:     cancel,
	}
	e.current = s

	delay := e.config.Debounce
	if query == "" {
		delay = 0
	}
	s.timer = time.AfterFunc(delay, func() { e.run(s) })
	e.mu.Unlock()

	e.monitor.SessionStarted(s.generation, query)
	e.logger.Debug("query session started", "generation", s.generation, "query", query)
}

// supersedeLocked drops the pending session, if any. e.mu must be held.
func (e *Engine) supersedeLocked() {
	s := e.current
	if s == nil || s.state != statePending {
		return
	}
	s.timer.Stop()
	s.cancel()
	s.state = stateSuperseded
	e.monitor.SessionSuperseded(s.generation)
}

// CancelAll supersedes the pending session. Shard loads already running
// finish in the store; their results are not delivered.
func (e *Engine) CancelAll() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.supersedeLocked()
	e.current = nil
	e.generation++
}

// Reset cancels every session and forgets every loaded shard and cached
// result set.
func (e *Engine) Reset() {
	e.mu.Lock()
	e.resets++
	e.mu.Unlock()
	e.CancelAll()
	e.store.Reset()
	if e.cache != nil {
		e.cache.Purge()
	}
	e.logger.Debug("search engine reset")
}

// Pending reports whether a session is waiting for results.
func (e *Engine) Pending() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.current != nil && e.current.state == statePending
}

// Generation returns the newest session generation handed out.
func (e *Engine) Generation() uint64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.generation
}

// Store returns the shard store the engine searches.
func (e *Engine) Store() *index.Store {
	return e.store
}

// Close cancels every session and releases the worker pool. Queries
// submitted after Close are ignored.
func (e *Engine) Close() error {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return ErrEngineClosed
	}
	e.closed = true
	e.supersedeLocked()
	e.current = nil
	e.generation++
	e.mu.Unlock()

	e.pool.Release()
	return nil
}

// Search runs one query to completion, bypassing sessions and debounce.
// Failed shards are listed in Results.Failed.
func (e *Engine) Search(ctx context.Context, raw string) (*Results, error) {
	e.mu.Lock()
	closed := e.closed
	e.mu.Unlock()
	if closed {
		return nil, ErrEngineClosed
	}
	results := e.search(ctx, core.Normalize(raw))
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return results, nil
}

// run does the work of a session once its debounce elapsed.
func (e *Engine) run(s *session) {
	e.mu.Lock()
	if s.state != statePending || e.current != s {
		e.mu.Unlock()
		return
	}
	e.mu.Unlock()

	start := time.Now()
	results := e.search(s.ctx, s.query)
	e.deliver(s, results, time.Since(start))
}

// search resolves, loads, matches and ranks. Only results built from
// every candidate shard are cached.
func (e *Engine) search(ctx context.Context, query string) *Results {
	if query == "" {
		return &Results{}
	}
	if e.cache != nil {
		if cached, ok := e.cache.Get(query); ok {
			return cached
		}
	}

	e.mu.Lock()
	resets := e.resets
	e.mu.Unlock()

	keys := e.store.ResolveShardKeys(query)
	shards := e.loadAll(ctx, keys)

	var matches []Match
	var failed []core.ShardKey
	for i, shard := range shards {
		if shard == nil {
			failed = append(failed, keys[i])
			continue
		}
		matches = append(matches, MatchShard(query, shard)...)
	}

	results := Rank(matches, e.config)
	results.Query = query
	results.Failed = failed

	if len(failed) == 0 && ctx.Err() == nil && e.cache != nil {
		e.mu.Lock()
		if e.resets == resets {
			e.cache.Add(query, results)
		}
		e.mu.Unlock()
	}
	return results
}

// loadAll loads keys in parallel on the worker pool. A shard that failed to
// load is nil in the result.
func (e *Engine) loadAll(ctx context.Context, keys []core.ShardKey) []*core.Shard {
	shards := make([]*core.Shard, len(keys))
	var wg sync.WaitGroup
	for i, key := range keys {
		wg.Add(1)
		err := e.pool.Submit(func() {
			defer wg.Done()
			shard, err := e.store.Load(ctx, key)
			if err != nil {
				if !errors.Is(err, context.Canceled) {
					e.logger.Debug("shard excluded from results", "key", key, "err", err)
				}
				return
			}
			shards[i] = shard
		})
		if err != nil {
			wg.Done()
			e.logger.Warn("could not schedule shard load", "key", key, "err", err)
		}
	}
	wg.Wait()
	return shards
}

// deliver hands results to the callback if s is still the newest session.
func (e *Engine) deliver(s *session, results *Results, elapsed time.Duration) {
	e.deliverMu.Lock()
	defer e.deliverMu.Unlock()

	e.mu.Lock()
	if s.state != statePending || s.generation != e.generation {
		if s.state == statePending {
			s.state = stateSuperseded
			s.cancel()
			e.monitor.SessionSuperseded(s.generation)
		}
		e.mu.Unlock()
		e.logger.Debug("discarding stale results", "generation", s.generation, "query", s.query)
		return
	}
	s.state = stateDelivered
	s.cancel()
	fn := e.onResults
	e.mu.Unlock()

	delivered := *results
	delivered.Generation = s.generation

	e.monitor.SessionDelivered(s.generation, delivered.Len(), elapsed)
	e.logger.Debug("query session delivered",
		"generation", s.generation, "query", s.query,
		"hits", delivered.Len(), "failed_shards", len(delivered.Failed), "elapsed", elapsed)
	if fn != nil {
		fn(&delivered)
	}
}
