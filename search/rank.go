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
	"cmp"
	"slices"
	"strings"

	"github.com/poiesic/symfind/core"
)

// Hit is one entry shown in one kind group.
type Hit struct {
	Name           string
	NormalizedName string
	Kind           core.Kind
	Tier           core.Tier
	Targets        []core.Target // Targets of Kind only
}

// Group holds the hits of one kind.
type Group struct {
	Kind      core.Kind
	Hits      []Hit
	Total     int  // Hits before the group limit was applied
	Truncated bool // Total > len(Hits)
}

// Results is the grouped answer to one query. Results handed to the
// callback are shared and must be treated as read-only.
type Results struct {
	Query      string
	Generation uint64
	Groups     []Group

	// Failed lists shards that could not be loaded; their entries are
	// missing from Groups.
	Failed []core.ShardKey
}

// Len returns the number of hits shown across all groups.
func (r *Results) Len() int {
	n := 0
	for _, g := range r.Groups {
		n += len(g.Hits)
	}
	return n
}

// Empty reports whether the results show no hits.
func (r *Results) Empty() bool {
	return len(r.Groups) == 0
}

// Group returns the group of the given kind, or nil if it holds no hits.
func (r *Results) Group(kind core.Kind) *Group {
	for i := range r.Groups {
		if r.Groups[i].Kind == kind {
			return &r.Groups[i]
		}
	}
	return nil
}

// Rank groups matches by kind and orders them. An entry whose targets span
// several kinds appears once in each of those groups. The same entry
// matched from several shards is shown once.
func Rank(matches []Match, cfg *Config) *Results {
	if cfg == nil {
		cfg = DefaultConfig()
	}

	byKind := make(map[core.Kind][]Hit)
	seen := make(map[string]int) // dedupe key -> index into byKind[kind]
	for _, m := range matches {
		for _, kind := range core.Kinds {
			targets := targetsOfKind(m.Targets, kind)
			if len(targets) == 0 {
				continue
			}
			hit := Hit{
				Name:           m.Entry.Name,
				NormalizedName: m.Entry.NormalizedName,
				Kind:           kind,
				Tier:           m.Tier,
				Targets:        targets,
			}
			key := hitKey(&hit)
			if i, ok := seen[key]; ok {
				if hit.Tier < byKind[kind][i].Tier {
					byKind[kind][i] = hit
				}
				continue
			}
			seen[key] = len(byKind[kind])
			byKind[kind] = append(byKind[kind], hit)
		}
	}

	results := &Results{}
	for _, kind := range cfg.groupOrder() {
		hits := byKind[kind]
		if len(hits) == 0 {
			continue
		}
		slices.SortFunc(hits, compareHits)
		group := Group{Kind: kind, Hits: hits, Total: len(hits)}
		if len(hits) > cfg.GroupLimit {
			group.Hits = hits[:cfg.GroupLimit:cfg.GroupLimit]
			group.Truncated = true
		}
		results.Groups = append(results.Groups, group)
	}
	return results
}

func targetsOfKind(targets []core.Target, kind core.Kind) []core.Target {
	var out []core.Target
	for _, t := range targets {
		if t.Kind == kind {
			out = append(out, t)
		}
	}
	return out
}

func hitKey(h *Hit) string {
	var b strings.Builder
	b.WriteString(string(h.Kind))
	b.WriteByte(0)
	b.WriteString(h.Name)
	for _, t := range h.Targets {
		b.WriteByte(0)
		b.WriteString(t.Anchor)
	}
	return b.String()
}

func firstAnchor(h *Hit) string {
	if len(h.Targets) == 0 {
		return ""
	}
	return h.Targets[0].Anchor
}

func compareHits(a, b Hit) int {
	if c := cmp.Compare(a.Tier, b.Tier); c != 0 {
		return c
	}
	if c := cmp.Compare(a.NormalizedName, b.NormalizedName); c != 0 {
		return c
	}
	if c := cmp.Compare(a.Name, b.Name); c != 0 {
		return c
	}
	return cmp.Compare(firstAnchor(&a), firstAnchor(&b))
}
