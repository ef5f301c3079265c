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


// Package index turns shard payloads into searchable shards.
//
// It owns three concerns:
//   - Codecs decoding a raw payload (JSON records or a doxygen searchData
//     literal, optionally zstd or gzip compressed) into a sorted core.Shard
//   - Shard key resolution: which shards can hold matches for a query, and
//     which shards an entry belongs to
//   - The Store, which loads shards lazily from a storage.Source, joins
//     concurrent loads of the same key and caches what it loaded
package index
