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


package storage

import (
	"context"

	"github.com/poiesic/symfind/core"
)

type Source interface {
	// Fetch returns the raw payload of the shard with the given key.
	// Returns ErrNotFound if the location holds no such shard.
	// Implementations must be safe for concurrent use.
	Fetch(ctx context.Context, key core.ShardKey) ([]byte, error)

	// Location describes where payloads come from (base URL, directory,
	// bucket path). It namespaces persistent caches.
	Location() string
}

type ShardCache interface {
	// GetShard returns a previously stored shard.
	// Returns ErrNotFound if the shard is not cached.
	GetShard(ctx context.Context, key core.ShardKey) (*core.Shard, error)

	// PutShard stores a decoded shard, replacing any previous copy.
	PutShard(ctx context.Context, shard *core.Shard) error

	// Purge removes every shard stored under this cache's namespace.
	Purge(ctx context.Context) error

	// Close releases resources held by the cache.
	Close() error
}
