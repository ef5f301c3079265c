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


// Package storage provides the storage abstraction layer for symfind.
//
// Two interfaces decouple the shard store from where shard data lives:
//
//   - Source fetches the raw payload of one shard (a static file written by
//     the documentation build step). Implementations exist for a local
//     directory (storage/dir), an HTTP base URL (storage/web) and an
//     S3-compatible bucket (storage/minio).
//   - ShardCache persists decoded shards across process restarts
//     (storage/badger). It is optional.
//
// # Constructor Return Type Pattern
//
// Public constructors of backend packages return the interface they
// implement, so callers cannot couple themselves to a backend:
//
//	src, err := web.NewSource("https://docs.example.com/search/")  // returns storage.Source
//
// # Serialization
//
// Decoded shards are stored in a compact binary form built from mus-go
// serializers (see MarshalShard and UnmarshalShard).
package storage
