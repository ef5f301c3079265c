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
	"bytes"
	"errors"
	"fmt"
	"html"
	"path"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/titanous/json5"

	"github.com/poiesic/symfind/core"
)

// DoxygenCodec decodes the search index doxygen writes next to its HTML
// output, one search/<category>_<n>.js file per shard:
//
//	var searchData=
//	[
//	  ['acc_5fis_5fzero',['acc_is_zero',['../group__apb.html#a05...',1,'apb::t_combs::acc_is_zero()']]],
//	  ...
//	];
//
// The payload is read as literal data; nothing in it is ever evaluated.
type DoxygenCodec struct {
	// Category fixes the kind of every target. Empty infers the kind from
	// each target's anchor and scope.
	Category core.Kind
}

var _ Codec = (*DoxygenCodec)(nil)

// NewDoxygenCodec creates a doxygen codec. hint is a doxygen category
// ("functions", "classes", ...) or a kind name; "" and "all" infer kinds.
func NewDoxygenCodec(hint string) (*DoxygenCodec, error) {
	if hint == "" || hint == "all" {
		return &DoxygenCodec{}, nil
	}
	kind, err := core.ParseKind(hint)
	if err != nil {
		return nil, fmt.Errorf("%w: doxygen category %q", err, hint)
	}
	return &DoxygenCodec{Category: kind}, nil
}

func (c *DoxygenCodec) Name() string {
	if c.Category == "" {
		return CodecDoxygen
	}
	return CodecDoxygen + ":" + string(c.Category)
}

func (c *DoxygenCodec) Decode(key core.ShardKey, payload []byte) (*core.Shard, []*core.MalformedEntryError, error) {
	records, err := parseSearchData(payload)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %w", ErrInvalidPayload, err)
	}

	shard := &core.Shard{Key: key, Entries: make([]core.Entry, 0, len(records))}
	var malformed []*core.MalformedEntryError
	for i, rec := range records {
		entry, err := c.decodeRecord(rec)
		if err != nil {
			malformed = append(malformed, &core.MalformedEntryError{Key: key, Index: i, Err: err})
			continue
		}
		shard.Entries = append(shard.Entries, entry)
	}
	sortEntries(shard.Entries)
	return shard, malformed, nil
}

var errRecordShape = errors.New("unexpected record shape")

// decodeRecord converts ['key',['Name',[url,n,'scope'],...]].
func (c *DoxygenCodec) decodeRecord(rec any) (core.Entry, error) {
	outer, ok := rec.([]any)
	if !ok || len(outer) < 2 {
		return core.Entry{}, errRecordShape
	}
	searchID, ok := outer[0].(string)
	if !ok {
		return core.Entry{}, fmt.Errorf("%w: key is not a string", errRecordShape)
	}
	body, ok := outer[1].([]any)
	if !ok || len(body) < 2 {
		return core.Entry{}, fmt.Errorf("%w: missing targets", errRecordShape)
	}
	name, _ := body[0].(string)
	name = html.UnescapeString(name)
	if name == "" {
		name = UnescapeSearchID(searchID)
	}
	if !utf8.ValidString(name) {
		return core.Entry{}, fmt.Errorf("%w: name is not valid UTF-8", errRecordShape)
	}

	targets := make([]core.Target, 0, len(body)-1)
	for j, raw := range body[1:] {
		t, err := c.decodeTarget(name, raw)
		if err != nil {
			return core.Entry{}, fmt.Errorf("target %d: %w", j, err)
		}
		targets = append(targets, t)
	}

	entry := core.NewEntry(name, targets...)
	if err := core.ValidateEntry(&entry); err != nil {
		return core.Entry{}, err
	}
	return entry, nil
}

func (c *DoxygenCodec) decodeTarget(name string, raw any) (core.Target, error) {
	fields, ok := raw.([]any)
	if !ok || len(fields) == 0 {
		return core.Target{}, errRecordShape
	}
	anchor, ok := fields[0].(string)
	if !ok {
		return core.Target{}, fmt.Errorf("%w: anchor is not a string", errRecordShape)
	}
	var label string
	if len(fields) >= 3 {
		label, _ = fields[2].(string)
		label = html.UnescapeString(label)
	}

	kind := c.Category
	if kind == "" {
		kind = InferKind(anchor, label)
	}
	if label == "" {
		label = name
	}
	return core.Target{
		Label:  label,
		Anchor: anchor,
		Scope:  ownerScope(name, label),
		Kind:   kind,
	}, nil
}

// ownerScope strips the entry's own name from a doxygen scope label, so
// "ns::type::read_data()" for read_data becomes "ns::type". Labels that
// carry a signature or doxygen's "(Global Namespace)" have no scope.
func ownerScope(name, label string) string {
	if label == globalNamespace {
		return ""
	}
	scope := strings.TrimSuffix(label, "()")
	if strings.Contains(scope, "(") {
		return ""
	}
	if scope == name {
		return ""
	}
	return strings.TrimSuffix(scope, "::"+name)
}

const globalNamespace = "(Global Namespace)"

// InferKind guesses the kind of a doxygen target from its anchor URL and
// scope label, for payloads without a category hint.
func InferKind(anchor, label string) core.Kind {
	page, fragment, _ := strings.Cut(anchor, "#")
	page = path.Base(page)

	switch {
	case strings.HasPrefix(fragment, "gga"):
		return core.KindEnumValue
	case strings.HasSuffix(label, "()"):
		return core.KindFunction
	case fragment != "":
		return core.KindVariable
	case strings.HasPrefix(page, "namespace"), strings.HasPrefix(page, "group__"):
		return core.KindNamespace
	case strings.HasPrefix(page, "class"), strings.HasPrefix(page, "struct"), strings.HasPrefix(page, "union"):
		return core.KindClass
	case strings.Contains(page, "_8"):
		return core.KindFile
	default:
		return core.KindPage
	}
}

// UnescapeSearchID decodes doxygen's _XX hex escapes, e.g. "acc_5fis" to
// "acc_is". Malformed escapes are kept as written.
func UnescapeSearchID(id string) string {
	if !strings.Contains(id, "_") {
		return id
	}
	var b strings.Builder
	b.Grow(len(id))
	for i := 0; i < len(id); i++ {
		if id[i] == '_' && i+2 < len(id) {
			if v, err := strconv.ParseUint(id[i+1:i+3], 16, 8); err == nil {
				b.WriteByte(byte(v))
				i += 2
				continue
			}
		}
		b.WriteByte(id[i])
	}
	return b.String()
}

// parseSearchData extracts the top-level array of a searchData payload.
// The literal after "var searchData=" is decoded as JSON5, which covers
// the quoting doxygen emits.
func parseSearchData(payload []byte) ([]any, error) {
	literal, err := searchDataLiteral(payload)
	if err != nil {
		return nil, err
	}
	var records []any
	if err := json5.Unmarshal(literal, &records); err != nil {
		return nil, err
	}
	return records, nil
}

// searchDataLiteral strips the assignment and the closing semicolon.
func searchDataLiteral(payload []byte) ([]byte, error) {
	literal := payload
	if i := bytes.Index(payload, []byte("searchData")); i >= 0 {
		eq := bytes.IndexByte(payload[i:], '=')
		if eq < 0 {
			return nil, errors.New("missing '=' after searchData")
		}
		literal = payload[i+eq+1:]
	}
	literal = bytes.TrimSpace(literal)
	literal = bytes.TrimSpace(bytes.TrimSuffix(literal, []byte(";")))
	if len(literal) == 0 {
		return nil, errors.New("empty searchData")
	}
	return literal, nil
}
