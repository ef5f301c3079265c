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


// Package dir implements storage.Source over shard payload files in a local
// directory, typically the search/ folder of generated documentation.
package dir

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/poiesic/symfind/core"
	"github.com/poiesic/symfind/storage"
)

// Source reads shard payloads from files under a root directory.
type Source struct {
	root    string
	pattern string
}

var _ storage.Source = (*Source)(nil)

// NewSource creates a directory source. pattern names each payload file
// relative to root; empty selects storage.DefaultPathPattern.
func NewSource(root, pattern string) (storage.Source, error) {
	if err := storage.ValidatePathPattern(pattern); err != nil {
		return nil, err
	}
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", storage.ErrInvalidLocation, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s is not a directory", storage.ErrInvalidLocation, root)
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}
	return &Source{root: abs, pattern: pattern}, nil
}

// Fetch reads the payload file of a shard.
func (s *Source) Fetch(ctx context.Context, key core.ShardKey) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	path := filepath.Join(s.root, filepath.FromSlash(storage.ShardPath(s.pattern, key)))
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", storage.ErrNotFound, path)
		}
		return nil, err
	}
	return data, nil
}

// Location returns the absolute root directory.
func (s *Source) Location() string {
	return "file://" + filepath.ToSlash(s.root)
}
