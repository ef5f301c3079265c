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


package badger

import (
	"context"
	"errors"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/symfind/core"
	"github.com/poiesic/symfind/storage"
)

// ShardRepository implements storage.ShardCache for BadgerDB.
type ShardRepository struct {
	backend   *Backend
	namespace string
	maxAge    time.Duration
	owned     bool // close backend on Close
}

var _ storage.ShardCache = (*ShardRepository)(nil)

// Option configures a ShardRepository.
type Option func(*ShardRepository)

// WithMaxAge expires cached shards after d. Zero keeps them until purged.
func WithMaxAge(d time.Duration) Option {
	return func(r *ShardRepository) {
		if d < 0 {
			d = 0
		}
		r.maxAge = d
	}
}

// NewShardCache creates a shard cache on an already open backend.
// The namespace separates shards of different documentation locations; see
// core.NamespaceFromLocation. The caller keeps ownership of the backend.
func NewShardCache(backend *Backend, namespace string, opts ...Option) storage.ShardCache {
	r := &ShardRepository{
		backend:   backend,
		namespace: namespace,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// OpenShardCache opens (or creates) a BadgerDB directory and returns a shard
// cache that closes the database when it is closed.
func OpenShardCache(dir, namespace string, opts ...Option) (storage.ShardCache, error) {
	backend, err := OpenBackend(dir, false)
	if err != nil {
		return nil, err
	}
	r := NewShardCache(backend, namespace, opts...).(*ShardRepository)
	r.owned = true
	return r, nil
}

// GetShard retrieves a decoded shard.
// Returns storage.ErrNotFound if it is not cached or has expired.
func (r *ShardRepository) GetShard(ctx context.Context, key core.ShardKey) (*core.Shard, error) {
	if r.backend.IsClosed() {
		return nil, storage.ErrStorageClosed
	}
	var shard *core.Shard
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		item, err := tx.Get(makeShardKey(r.namespace, key))
		if err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return storage.ErrNotFound
			}
			return err
		}

		return item.Value(func(val []byte) error {
			var unmarshalErr error
			shard, unmarshalErr = storage.UnmarshalShard(val)
			return unmarshalErr
		})
	}, false)
	if err != nil {
		return nil, err
	}
	return shard, nil
}

// PutShard stores a decoded shard.
func (r *ShardRepository) PutShard(ctx context.Context, shard *core.Shard) error {
	if r.backend.IsClosed() {
		return storage.ErrStorageClosed
	}
	return r.backend.WithTx(func(tx *badger.Txn) error {
		entry := badger.NewEntry(makeShardKey(r.namespace, shard.Key), storage.MarshalShard(shard))
		if r.maxAge > 0 {
			entry = entry.WithTTL(r.maxAge)
		}
		if err := tx.SetEntry(entry); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
}

// Purge removes every shard of this namespace.
func (r *ShardRepository) Purge(ctx context.Context) error {
	if r.backend.IsClosed() {
		return storage.ErrStorageClosed
	}
	return r.backend.DropPrefix(makeNamespacePrefix(r.namespace))
}

// Close closes the backend when the repository opened it.
func (r *ShardRepository) Close() error {
	if !r.owned {
		return nil
	}
	return r.backend.Close()
}
