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
	"errors"
	"fmt"
)

var (
	// ErrInvalidEntry indicates an Entry failed validation.
	ErrInvalidEntry = errors.New("invalid entry")

	// ErrInvalidTarget indicates a Target failed validation.
	ErrInvalidTarget = errors.New("invalid target")

	// ErrEmptyName indicates the entry Name field is empty.
	ErrEmptyName = errors.New("name cannot be empty")

	// ErrNoTargets indicates an entry resolves to no documentation location.
	ErrNoTargets = errors.New("entry has no targets")

	// ErrEmptyAnchor indicates the target Anchor field is empty.
	ErrEmptyAnchor = errors.New("anchor cannot be empty")

	// ErrUnknownKind indicates an unrecognized symbol kind.
	ErrUnknownKind = errors.New("unknown kind")
)

// MalformedEntryError reports one corrupt record inside an otherwise valid
// shard. The record is skipped; the rest of the shard still loads.
type MalformedEntryError struct {
	Key   ShardKey
	Index int // Position of the record in the payload
	Err   error
}

func (e *MalformedEntryError) Error() string {
	return fmt.Sprintf("shard %q: malformed entry %d: %v", e.Key, e.Index, e.Err)
}

func (e *MalformedEntryError) Unwrap() error { return e.Err }

// ShardLoadError reports a failure to fetch or parse a whole shard.
type ShardLoadError struct {
	Key ShardKey
	Err error
}

func (e *ShardLoadError) Error() string {
	return fmt.Sprintf("shard %q: load failed: %v", e.Key, e.Err)
}

func (e *ShardLoadError) Unwrap() error { return e.Err }
