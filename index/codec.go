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
	"strings"

	gojson "github.com/goccy/go-json"

	"github.com/poiesic/symfind/core"
)

// Codec decodes one shard payload.
type Codec interface {
	// Name returns the name the codec is selected by.
	Name() string

	// Decode parses payload into a shard whose entries are sorted by
	// normalized name. Records that cannot be decoded or fail validation are
	// skipped and reported as malformed; an unreadable payload is an error.
	Decode(key core.ShardKey, payload []byte) (*core.Shard, []*core.MalformedEntryError, error)
}

const (
	CodecJSON    = "json"
	CodecDoxygen = "doxygen"
)

// CodecByName returns the codec registered under name. "doxygen" may carry
// a category hint after a colon, e.g. "doxygen:functions", which fixes the
// kind of every target in the payload.
func CodecByName(name string) (Codec, error) {
	base, hint, _ := strings.Cut(strings.ToLower(strings.TrimSpace(name)), ":")
	switch base {
	case "", CodecJSON:
		if hint != "" {
			break
		}
		return JSONCodec{}, nil
	case CodecDoxygen:
		return NewDoxygenCodec(hint)
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownCodec, name)
}

func sortEntries(entries []core.Entry) {
	slices.SortStableFunc(entries, func(a, b core.Entry) int {
		if c := cmp.Compare(a.NormalizedName, b.NormalizedName); c != 0 {
			return c
		}
		return cmp.Compare(a.Name, b.Name)
	})
}

// JSONCodec decodes payloads that are a JSON array of records:
//
//	{"key": "timer", "name": "Timer", "targets": [{"anchor": "...", "scope": "...", "kind": "class", "label": "..."}]}
//
// Kinds accept the canonical names and the doxygen category names.
type JSONCodec struct{}

var _ Codec = JSONCodec{}

type jsonRecord struct {
	Key     string       `json:"key"`
	Name    string       `json:"name"`
	Targets []jsonTarget `json:"targets"`
}

type jsonTarget struct {
	Anchor string `json:"anchor"`
	Scope  string `json:"scope,omitempty"`
	Kind   string `json:"kind"`
	Label  string `json:"label,omitempty"`
}

func (JSONCodec) Name() string { return CodecJSON }

func (JSONCodec) Decode(key core.ShardKey, payload []byte) (*core.Shard, []*core.MalformedEntryError, error) {
	var raw []gojson.RawMessage
	if err := gojson.Unmarshal(payload, &raw); err != nil {
		return nil, nil, fmt.Errorf("%w: %w", ErrInvalidPayload, err)
	}

	shard := &core.Shard{Key: key, Entries: make([]core.Entry, 0, len(raw))}
	var malformed []*core.MalformedEntryError
	for i, msg := range raw {
		entry, err := decodeJSONRecord(msg)
		if err != nil {
			malformed = append(malformed, &core.MalformedEntryError{Key: key, Index: i, Err: err})
			continue
		}
		shard.Entries = append(shard.Entries, entry)
	}
	sortEntries(shard.Entries)
	return shard, malformed, nil
}

func decodeJSONRecord(msg gojson.RawMessage) (core.Entry, error) {
	var rec jsonRecord
	if err := gojson.Unmarshal(msg, &rec); err != nil {
		return core.Entry{}, err
	}
	name := rec.Name
	if name == "" {
		name = rec.Key
	}

	targets := make([]core.Target, 0, len(rec.Targets))
	for _, t := range rec.Targets {
		kind, err := core.ParseKind(t.Kind)
		if err != nil {
			return core.Entry{}, fmt.Errorf("%w: %w: %q", core.ErrInvalidTarget, err, t.Kind)
		}
		label := t.Label
		if label == "" {
			label = name
		}
		targets = append(targets, core.Target{
			Label:  label,
			Anchor: t.Anchor,
			Scope:  t.Scope,
			Kind:   kind,
		})
	}

	entry := core.NewEntry(name, targets...)
	if err := core.ValidateEntry(&entry); err != nil {
		return core.Entry{}, err
	}
	return entry, nil
}

// EncodeJSON renders entries in the format JSONCodec decodes.
func EncodeJSON(entries []core.Entry) ([]byte, error) {
	records := make([]jsonRecord, len(entries))
	for i := range entries {
		e := &entries[i]
		rec := jsonRecord{
			Key:     e.NormalizedName,
			Name:    e.Name,
			Targets: make([]jsonTarget, len(e.Targets)),
		}
		for j, t := range e.Targets {
			rec.Targets[j] = jsonTarget{
				Anchor: t.Anchor,
				Scope:  t.Scope,
				Kind:   string(t.Kind),
				Label:  t.Label,
			}
		}
		records[i] = rec
	}
	return gojson.Marshal(records)
}
