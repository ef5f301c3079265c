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


package core

import (
	"strings"
)

// Kind classifies the documentation location a symbol name resolves to.
type Kind string

const (
	KindNamespace Kind = "namespace"
	KindClass     Kind = "class"
	KindFunction  Kind = "function"
	KindVariable  Kind = "variable"
	KindEnumValue Kind = "enumvalue"
	KindDefine    Kind = "define"
	KindFile      Kind = "file"
	KindPage      Kind = "page"
)

// Kinds lists every kind in canonical order.
var Kinds = []Kind{
	KindNamespace,
	KindClass,
	KindFunction,
	KindVariable,
	KindEnumValue,
	KindDefine,
	KindFile,
	KindPage,
}

// kindAliases maps doxygen index section names onto kinds.
var kindAliases = map[string]Kind{
	"namespaces": KindNamespace,
	"groups":     KindNamespace,
	"modules":    KindNamespace,
	"module":     KindClass,
	"classes":    KindClass,
	"structs":    KindClass,
	"unions":     KindClass,
	"interfaces": KindClass,
	"typedefs":   KindClass,
	"enums":      KindClass,
	"functions":  KindFunction,
	"related":    KindFunction,
	"variables":  KindVariable,
	"properties": KindVariable,
	"events":     KindVariable,
	"enumvalues": KindEnumValue,
	"enum-value": KindEnumValue,
	"defines":    KindDefine,
	"files":      KindFile,
	"pages":      KindPage,
}

// ParseKind resolves a canonical kind name or a doxygen section name.
func ParseKind(s string) (Kind, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	k := Kind(s)
	if k.Valid() {
		return k, nil
	}
	if alias, ok := kindAliases[s]; ok {
		return alias, nil
	}
	return "", ErrUnknownKind
}

// Valid reports whether k is one of the defined kinds.
func (k Kind) Valid() bool {
	switch k {
	case KindNamespace, KindClass, KindFunction, KindVariable,
		KindEnumValue, KindDefine, KindFile, KindPage:
		return true
	}
	return false
}

// Target is one concrete documentation location a name resolves to.
type Target struct {
	Label  string // Display label, usually the symbol name
	Anchor string // Relative URL into the generated documentation
	Scope  string // Owner scope, e.g. "acia6850" or "ns::type"; empty when global
	Kind   Kind
}

// QualifiedName joins the owner scope and name with "::".
// Returns "" for targets without a scope.
func (t *Target) QualifiedName(name string) string {
	if t.Scope == "" {
		return ""
	}
	return t.Scope + "::" + name
}

// Entry is one indexed symbol name. A name may resolve to several targets
// (overloads, or the same name in different scopes).
type Entry struct {
	Name           string // Raw, as authored
	NormalizedName string // Case-folded, used for matching and ordering
	Targets        []Target
}

// NewEntry builds an entry with its normalized name filled in.
func NewEntry(name string, targets ...Target) Entry {
	return Entry{
		Name:           name,
		NormalizedName: Normalize(name),
		Targets:        targets,
	}
}

// ShardKey partitions the index by leading characters of symbol names.
type ShardKey string

// CatchAllKey holds names whose words do not start with [a-z0-9].
const CatchAllKey ShardKey = "_"

// Shard is an immutable partition of the index. Entries are ordered by
// NormalizedName.
type Shard struct {
	Key     ShardKey
	Entries []Entry
}

// Tier is the match quality of a query against an entry. Lower is better.
type Tier uint8

const (
	TierExact    Tier = iota // query equals the name
	TierPrefix               // name starts with the query
	TierInterior             // query found elsewhere in the name
	TierScope                // query found only in a scope-qualified name
)

func (t Tier) String() string {
	switch t {
	case TierExact:
		return "exact"
	case TierPrefix:
		return "prefix"
	case TierInterior:
		return "interior"
	case TierScope:
		return "scope"
	default:
		return "unknown"
	}
}
