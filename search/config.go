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
	"fmt"
	"time"

	"github.com/poiesic/symfind/core"
)

// Config holds the tunables of a search engine.
type Config struct {
	// Debounce is the quiet period after the last keystroke before a
	// session starts loading shards. The empty query never waits.
	// Default: 120ms
	Debounce time.Duration

	// GroupLimit caps the hits shown per kind group.
	// Default: 15
	GroupLimit int

	// KindOrder is the order groups are presented in. Kinds left out follow
	// in canonical order.
	// Default: class, function, variable, enumvalue, define, namespace, file, page
	KindOrder []core.Kind

	// Workers is the number of shards loaded in parallel.
	// Default: 4
	Workers int

	// ResultCacheSize is the number of complete result sets kept for
	// repeated queries. Zero disables the cache.
	// Default: 128
	ResultCacheSize int
}

// ConfigOption is a functional option for configuring a Config.
type ConfigOption func(*Config)

// WithDebounce sets the keystroke debounce delay.
func WithDebounce(d time.Duration) ConfigOption {
	return func(c *Config) {
		c.Debounce = d
	}
}

// WithGroupLimit sets the maximum number of hits per group.
func WithGroupLimit(n int) ConfigOption {
	return func(c *Config) {
		c.GroupLimit = n
	}
}

// WithKindOrder sets the group presentation order.
func WithKindOrder(kinds ...core.Kind) ConfigOption {
	return func(c *Config) {
		c.KindOrder = kinds
	}
}

// WithWorkers sets the number of parallel shard loads.
func WithWorkers(n int) ConfigOption {
	return func(c *Config) {
		c.Workers = n
	}
}

// WithResultCacheSize sets how many result sets are cached.
func WithResultCacheSize(n int) ConfigOption {
	return func(c *Config) {
		c.ResultCacheSize = n
	}
}

// DefaultKindOrder lists types first, then members, then containers.
var DefaultKindOrder = []core.Kind{
	core.KindClass,
	core.KindFunction,
	core.KindVariable,
	core.KindEnumValue,
	core.KindDefine,
	core.KindNamespace,
	core.KindFile,
	core.KindPage,
}

// DefaultConfig returns a Config with the defaults documented on each field.
func DefaultConfig() *Config {
	return &Config{
		Debounce:        120 * time.Millisecond,
		GroupLimit:      15,
		KindOrder:       append([]core.Kind(nil), DefaultKindOrder...),
		Workers:         4,
		ResultCacheSize: 128,
	}
}

// NewConfig creates a Config with the default values and applies the provided options.
//
// Example:
//
//	cfg := NewConfig(
//	    WithDebounce(50*time.Millisecond),
//	    WithKindOrder(core.KindFunction, core.KindClass),
//	)
func NewConfig(opts ...ConfigOption) *Config {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	if c.Debounce < 0 {
		return fmt.Errorf("%w: Debounce must not be negative", ErrInvalidConfig)
	}
	if c.GroupLimit < 1 {
		return fmt.Errorf("%w: GroupLimit must be at least 1", ErrInvalidConfig)
	}
	if c.Workers < 1 {
		return fmt.Errorf("%w: Workers must be at least 1", ErrInvalidConfig)
	}
	if c.ResultCacheSize < 0 {
		return fmt.Errorf("%w: ResultCacheSize must not be negative", ErrInvalidConfig)
	}
	seen := make(map[core.Kind]bool, len(c.KindOrder))
	for _, k := range c.KindOrder {
		if !k.Valid() {
			return fmt.Errorf("%w: KindOrder: %w: %q", ErrInvalidConfig, core.ErrUnknownKind, k)
		}
		if seen[k] {
			return fmt.Errorf("%w: KindOrder lists %q twice", ErrInvalidConfig, k)
		}
		seen[k] = true
	}
	return nil
}

// groupOrder returns every kind in presentation order.
func (c *Config) groupOrder() []core.Kind {
	order := make([]core.Kind, 0, len(core.Kinds))
	seen := make(map[core.Kind]bool, len(core.Kinds))
	for _, k := range c.KindOrder {
		if k.Valid() && !seen[k] {
			order = append(order, k)
			seen[k] = true
		}
	}
	for _, k := range core.Kinds {
		if !seen[k] {
			order = append(order, k)
		}
	}
	return order
}
