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
	"strings"

	"github.com/poiesic/symfind/core"
)

// Match is one entry that satisfied a query.
type Match struct {
	Entry *core.Entry
	Tier  core.Tier

	// Targets are the targets the match applies to: all of the entry's
	// targets, except at TierScope where only the targets whose qualified
	// name contains the query are kept.
	Targets []core.Target
}

// MatchEntry tests a normalized query against an entry. Name matches win
// over scope matches; the empty query matches nothing.
func MatchEntry(query string, entry *core.Entry) (Match, bool) {
	if query == "" {
		return Match{}, false
	}

	name := entry.NormalizedName
	switch {
	case name == query:
		return Match{Entry: entry, Tier: core.TierExact, Targets: entry.Targets}, true
	case strings.HasPrefix(name, query):
		return Match{Entry: entry, Tier: core.TierPrefix, Targets: entry.Targets}, true
	case strings.Contains(name, query):
		return Match{Entry: entry, Tier: core.TierInterior, Targets: entry.Targets}, true
	}

	var targets []core.Target
	for _, t := range entry.Targets {
		qn := t.QualifiedName(entry.Name)
		if qn != "" && strings.Contains(core.Normalize(qn), query) {
			targets = append(targets, t)
		}
	}
	if len(targets) == 0 {
		return Match{}, false
	}
	return Match{Entry: entry, Tier: core.TierScope, Targets: targets}, true
}

// MatchShard returns every entry of shard that matches query, in shard order.
func MatchShard(query string, shard *core.Shard) []Match {
	var matches []Match
	for i := range shard.Entries {
		if m, ok := MatchEntry(query, &shard.Entries[i]); ok {
			matches = append(matches, m)
		}
	}
	return matches
}
