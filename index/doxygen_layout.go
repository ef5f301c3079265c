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
	"context"
	"errors"
	"fmt"
	"regexp"
	"strconv"

	"github.com/poiesic/symfind/core"
	"github.com/poiesic/symfind/storage"
)

// SearchIndexKey is the file name, without extension, of doxygen's table
// of search sections (search/searchdata.js).
const SearchIndexKey core.ShardKey = "searchdata"

// DoxygenLayout maps shard keys onto the numbered files doxygen writes for
// one search section. Doxygen lists the first letters present in a section
// (indexSectionsWithContent) and stores the symbols starting with the n-th
// letter in <section>_<n in hex>.js, so "all_0.js" holds the first letter
// and "variables_10.js" the seventeenth.
//
// Doxygen files a symbol only under the first letter of its name. A query
// matching a later word start, such as "status" for addr_control_status,
// finds nothing in doxygen data unless that word also starts a name.
type DoxygenLayout struct {
	Section string
	Content string
}

var (
	sectionBlockPattern = regexp.MustCompile(`(?s)var\s+(indexSectionsWithContent|indexSectionNames)\s*=\s*\{(.*?)\}`)
	sectionPairPattern  = regexp.MustCompile(`(\d+)\s*:\s*("(?:[^"\\]|\\.)*")`)
)

// ParseSearchIndex reads searchdata.js and returns the layout of section.
func ParseSearchIndex(payload []byte, section string) (*DoxygenLayout, error) {
	tables := make(map[string]map[string]string, 2)
	for _, block := range sectionBlockPattern.FindAllSubmatch(payload, -1) {
		table := make(map[string]string)
		for _, pair := range sectionPairPattern.FindAllSubmatch(block[2], -1) {
			value, err := strconv.Unquote(string(pair[2]))
			if err != nil {
				return nil, fmt.Errorf("%w: section %s: %w", ErrInvalidPayload, pair[1], err)
			}
			table[string(pair[1])] = value
		}
		tables[string(block[1])] = table
	}

	names, contents := tables["indexSectionNames"], tables["indexSectionsWithContent"]
	if names == nil || contents == nil {
		return nil, fmt.Errorf("%w: no doxygen search sections", ErrInvalidPayload)
	}
	for id, name := range names {
		if name != section {
			continue
		}
		content, ok := contents[id]
		if !ok {
			return nil, fmt.Errorf("%w: section %q has no content list", ErrInvalidPayload, section)
		}
		return &DoxygenLayout{Section: section, Content: content}, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownSection, section)
}

// PathPattern is the storage path pattern of the section's files.
func (l *DoxygenLayout) PathPattern() string {
	return l.Section + "_%s.js"
}

// FileKeys returns the file numbers holding key. The catch-all key gathers
// every letter outside [a-z0-9]. A key with no file returns nil.
func (l *DoxygenLayout) FileKeys(key core.ShardKey) []core.ShardKey {
	var files []core.ShardKey
	for i, r := range []rune(l.Content) {
		var match bool
		if key == core.CatchAllKey {
			match = !isKeyRune(r)
		} else {
			match = string(r) == string(key)
		}
		if match {
			files = append(files, core.ShardKey(strconv.FormatInt(int64(i), 16)))
		}
	}
	return files
}

func isKeyRune(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9')
}

// DoxygenSource serves shard keys from a source that holds doxygen's
// numbered section files.
type DoxygenSource struct {
	files  storage.Source
	layout *DoxygenLayout
}

var _ storage.Source = (*DoxygenSource)(nil)

// NewDoxygenSource wraps files, a source whose path pattern is
// layout.PathPattern().
func NewDoxygenSource(files storage.Source, layout *DoxygenLayout) (*DoxygenSource, error) {
	if files == nil {
		return nil, ErrSourceRequired
	}
	if layout == nil || layout.Section == "" {
		return nil, fmt.Errorf("%w: doxygen layout", ErrUnknownSection)
	}
	return &DoxygenSource{files: files, layout: layout}, nil
}

// Fetch returns the payload of every file holding key. Several files are
// merged into one searchData literal.
func (s *DoxygenSource) Fetch(ctx context.Context, key core.ShardKey) ([]byte, error) {
	if len(key) != 1 {
		return nil, fmt.Errorf("%w: doxygen files hold single letter keys, got %q", ErrInvalidKeyLength, key)
	}
	files := s.layout.FileKeys(key)
	if len(files) == 0 {
		return nil, fmt.Errorf("%w: %s", storage.ErrNotFound, key)
	}
	if len(files) == 1 {
		return s.files.Fetch(ctx, files[0])
	}

	var arrays [][]byte
	for _, file := range files {
		payload, err := s.files.Fetch(ctx, file)
		if errors.Is(err, storage.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		if payload, err = Decompress(payload); err != nil {
			return nil, err
		}
		body, err := searchDataBody(payload)
		if err != nil {
			return nil, fmt.Errorf("%w: file %s: %w", ErrInvalidPayload, file, err)
		}
		if len(body) > 0 {
			arrays = append(arrays, body)
		}
	}
	if len(arrays) == 0 {
		return nil, fmt.Errorf("%w: %s", storage.ErrNotFound, key)
	}

	var merged bytes.Buffer
	merged.WriteString("var searchData=\n[\n")
	merged.Write(bytes.Join(arrays, []byte(",\n")))
	merged.WriteString("\n];\n")
	return merged.Bytes(), nil
}

func (s *DoxygenSource) Location() string {
	return s.files.Location()
}

// searchDataBody returns the elements of a searchData array without the
// surrounding brackets.
func searchDataBody(payload []byte) ([]byte, error) {
	literal, err := searchDataLiteral(payload)
	if err != nil {
		return nil, err
	}
	if len(literal) < 2 || literal[0] != '[' || literal[len(literal)-1] != ']' {
		return nil, errors.New("searchData is not an array")
	}
	body := bytes.TrimSpace(literal[1 : len(literal)-1])
	return bytes.TrimSpace(bytes.TrimSuffix(body, []byte(","))), nil
}
