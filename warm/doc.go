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


// Package warm prefetches shards into a store ahead of the first query.
//
// Warming walks a list of shard keys (usually the whole key universe) on a
// worker pool, retrying transient fetch failures with exponential backoff.
// Keys the location does not hold are counted as missing and never retried.
// When the store has a persistent cache, a warmed documentation set stays
// searchable offline.
package warm
