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
	"encoding/binary"
	"encoding/hex"
	"strings"
	"unicode"

	"github.com/go-crypt/x/blake2b"
)

// Normalize case-folds a symbol name or query for matching.
// Surrounding white space is dropped.
func Normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// WordStarts returns the normalized suffixes of s that begin at a word
// boundary. Words are separated by any non alphanumeric rune and by a
// lower-to-upper case change, so "addr_controlStatus" yields
// "addr_controlstatus", "controlstatus" and "status".
func WordStarts(s string) []string {
	runes := []rune(s)
	var starts []string
	for i, r := range runes {
		if !isWordRune(r) {
			continue
		}
		boundary := i == 0 || !isWordRune(runes[i-1]) ||
			(unicode.IsUpper(r) && unicode.IsLower(runes[i-1]))
		if boundary {
			starts = append(starts, Normalize(string(runes[i:])))
		}
	}
	return starts
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}

// NamespaceFromLocation derives a short stable namespace for a documentation
// location (base URL, bucket path or directory). Persistent caches prefix
// their keys with it so two documentation sets never share shards.
func NamespaceFromLocation(location string) string {
	h, _ := blake2b.New(8, nil) // 8 bytes = 64 bits
	h.Write([]byte(location))
	sum := h.Sum(nil)
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], binary.LittleEndian.Uint64(sum))
	return hex.EncodeToString(buf[:])
}
