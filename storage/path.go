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


package storage

import (
	"fmt"
	"strings"

	"github.com/poiesic/symfind/core"
)

// DefaultPathPattern names a shard payload after its key, e.g. "a.json".
const DefaultPathPattern = "%s.json"

// ShardPath renders the relative path of a shard payload. The pattern must
// contain exactly one %s verb, which receives the shard key. Doxygen numbers
// its files instead of naming them by letter; index.DoxygenSource maps keys
// to those numbers before a path is rendered.
func ShardPath(pattern string, key core.ShardKey) string {
	if pattern == "" {
		pattern = DefaultPathPattern
	}
	return fmt.Sprintf(pattern, string(key))
}

// ValidatePathPattern checks that pattern has exactly one %s verb and no
// other formatting verbs.
func ValidatePathPattern(pattern string) error {
	if pattern == "" {
		return nil
	}
	if strings.Count(pattern, "%s") != 1 || strings.Count(pattern, "%") != 1 {
		return fmt.Errorf("%w: path pattern %q must contain exactly one %%s", ErrInvalidLocation, pattern)
	}
	return nil
}
