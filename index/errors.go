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

import "errors"

var (
	// ErrSourceRequired is returned when a store is created without a source.
	ErrSourceRequired = errors.New("shard source required")

	// ErrUnknownCodec is returned for a codec name no decoder is registered under.
	ErrUnknownCodec = errors.New("unknown codec")

	// ErrInvalidPayload indicates a shard payload that cannot be decoded as a whole.
	ErrInvalidPayload = errors.New("invalid shard payload")

	// ErrInvalidKeyLength indicates a shard key length outside 1..MaxKeyLength.
	ErrInvalidKeyLength = errors.New("invalid shard key length")

	// ErrUnknownSection indicates a doxygen search section that searchdata.js does not list.
	ErrUnknownSection = errors.New("unknown doxygen search section")
)
