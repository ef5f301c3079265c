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
	"fmt"
)

func ValidateEntry(entry *Entry) error {
	if entry == nil {
		return fmt.Errorf("%w: entry is nil", ErrInvalidEntry)
	}

	if entry.Name == "" || entry.NormalizedName == "" {
		return fmt.Errorf("%w: %w", ErrInvalidEntry, ErrEmptyName)
	}

	if len(entry.Targets) == 0 {
		return fmt.Errorf("%w: %w", ErrInvalidEntry, ErrNoTargets)
	}

	for i := range entry.Targets {
		if err := ValidateTarget(&entry.Targets[i]); err != nil {
			return fmt.Errorf("%w: target %d: %w", ErrInvalidEntry, i, err)
		}
	}

	return nil
}

func ValidateTarget(target *Target) error {
	if target == nil {
		return fmt.Errorf("%w: target is nil", ErrInvalidTarget)
	}

	if target.Anchor == "" {
		return fmt.Errorf("%w: %w", ErrInvalidTarget, ErrEmptyAnchor)
	}

	if !target.Kind.Valid() {
		return fmt.Errorf("%w: %w: %q", ErrInvalidTarget, ErrUnknownKind, target.Kind)
	}

	return nil
}

// IsSorted reports whether the shard's entries are ordered by normalized name.
func IsSorted(shard *Shard) bool {
	for i := 1; i < len(shard.Entries); i++ {
		if shard.Entries[i-1].NormalizedName > shard.Entries[i].NormalizedName {
			return false
		}
	}
	return true
}
