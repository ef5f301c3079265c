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
	"cmp"
	"fmt"
	"slices"

	"github.com/poiesic/symfind/core"
)

const (
	// DefaultKeyLength shards by the first character of a word.
	DefaultKeyLength = 1

	// MaxKeyLength bounds the key universe at 1+36+36² shards.
	MaxKeyLength = 2
)

// keyAlphabet is every character a shard key may contain.
const keyAlphabet = "0123456789abcdefghijklmnopqrstuvwxyz"

// ValidateKeyLength checks that n is a supported shard key length.
func ValidateKeyLength(n int) error {
	if n < 1 || n > MaxKeyLength {
		return fmt.Errorf("%w: %d (want 1..%d)", ErrInvalidKeyLength, n, MaxKeyLength)
	}
	return nil
}

func isKeyChar(c byte) bool {
	return ('a' <= c && c <= 'z') || ('0' <= c && c <= '9')
}

// leadingRun returns the leading [a-z0-9] run of s and whether it reaches
// the end of s.
func leadingRun(s string) (string, bool) {
	i := 0
	for i < len(s) && isKeyChar(s[i]) {
		i++
	}
	return s[:i], i == len(s)
}

// keyOf returns the shard a normalized word start belongs to.
func keyOf(word string, keyLength int) core.ShardKey {
	run, _ := leadingRun(word)
	if run == "" {
		return core.CatchAllKey
	}
	if len(run) > keyLength {
		run = run[:keyLength]
	}
	return core.ShardKey(run)
}

// ResolveShardKeys returns the sorted set of shards that can hold matches
// for a normalized query. Extending a query never adds keys: if q2 starts
// with q1, ResolveShardKeys(q2) is a subset of ResolveShardKeys(q1).
func ResolveShardKeys(query string, keyLength int) []core.ShardKey {
	if query == "" {
		return Universe(keyLength)
	}
	run, ended := leadingRun(query)
	switch {
	case run == "":
		return []core.ShardKey{core.CatchAllKey}
	case len(run) >= keyLength:
		return []core.ShardKey{core.ShardKey(run[:keyLength])}
	case !ended:
		// The word stops before the key length, so its key is exactly run.
		return []core.ShardKey{core.ShardKey(run)}
	}

	// The query stops short of a full key: any continuation may follow.
	keys := []core.ShardKey{core.ShardKey(run)}
	keys = appendExtensions(keys, run, keyLength-len(run))
	slices.Sort(keys)
	return keys
}

func appendExtensions(keys []core.ShardKey, prefix string, depth int) []core.ShardKey {
	if depth == 0 {
		return keys
	}
	for i := 0; i < len(keyAlphabet); i++ {
		key := prefix + keyAlphabet[i:i+1]
		keys = append(keys, core.ShardKey(key))
		keys = appendExtensions(keys, key, depth-1)
	}
	return keys
}

// Universe returns every shard key for the given key length, sorted.
func Universe(keyLength int) []core.ShardKey {
	keys := []core.ShardKey{core.CatchAllKey}
	keys = appendExtensions(keys, "", keyLength)
	slices.Sort(keys)
	return keys
}

// KeysFor returns the sorted set of shards an entry belongs to: the shard
// of its whole name plus the shard of every word start of its name and of
// its targets' qualified names.
func KeysFor(entry *core.Entry, keyLength int) []core.ShardKey {
	seen := make(map[core.ShardKey]struct{})
	add := func(s string) {
		seen[keyOf(core.Normalize(s), keyLength)] = struct{}{}
		for _, word := range core.WordStarts(s) {
			seen[keyOf(word, keyLength)] = struct{}{}
		}
	}

	add(entry.Name)
	for i := range entry.Targets {
		if qn := entry.Targets[i].QualifiedName(entry.Name); qn != "" {
			add(qn)
		}
	}

	keys := make([]core.ShardKey, 0, len(seen))
	for key := range seen {
		keys = append(keys, key)
	}
	slices.Sort(keys)
	return keys
}

// Partition distributes entries over shards by KeysFor. An entry lands in
// every shard it belongs to. Shards come back sorted by key, entries sorted
// by normalized name.
func Partition(entries []core.Entry, keyLength int) []*core.Shard {
	byKey := make(map[core.ShardKey]*core.Shard)
	for i := range entries {
		for _, key := range KeysFor(&entries[i], keyLength) {
			shard, ok := byKey[key]
			if !ok {
				shard = &core.Shard{Key: key}
				byKey[key] = shard
			}
			shard.Entries = append(shard.Entries, entries[i])
		}
	}

	shards := make([]*core.Shard, 0, len(byKey))
	for _, shard := range byKey {
		sortEntries(shard.Entries)
		shards = append(shards, shard)
	}
	slices.SortFunc(shards, func(a, b *core.Shard) int {
		return cmp.Compare(a.Key, b.Key)
	})
	return shards
}
