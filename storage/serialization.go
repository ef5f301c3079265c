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

	"github.com/mus-format/mus-go/ord"
	"github.com/mus-format/mus-go/varint"
	"github.com/poiesic/symfind/core"
)

// shardFormatVersion is written ahead of every serialized shard.
const shardFormatVersion = 1

// TargetMUS serializes core.Target values.
var TargetMUS = targetSer{}

// EntryMUS serializes core.Entry values.
var EntryMUS = entrySer{}

// ShardMUS serializes core.Shard values, including the format version.
var ShardMUS = shardSer{}

type targetSer struct{}

func (targetSer) Marshal(t core.Target, bs []byte) (n int) {
	n = ord.String.Marshal(t.Label, bs)
	n += ord.String.Marshal(t.Anchor, bs[n:])
	n += ord.String.Marshal(t.Scope, bs[n:])
	n += ord.String.Marshal(string(t.Kind), bs[n:])
	return n
}

func (targetSer) Unmarshal(bs []byte) (t core.Target, n int, err error) {
	var kind string
	for _, field := range [...]*string{&t.Label, &t.Anchor, &t.Scope, &kind} {
		var m int
		*field, m, err = ord.String.Unmarshal(bs[n:])
		n += m
		if err != nil {
			return t, n, err
		}
	}
	t.Kind = core.Kind(kind)
	return t, n, nil
}

func (targetSer) Size(t core.Target) int {
	return ord.String.Size(t.Label) +
		ord.String.Size(t.Anchor) +
		ord.String.Size(t.Scope) +
		ord.String.Size(string(t.Kind))
}

func (s targetSer) Skip(bs []byte) (n int, err error) {
	_, n, err = s.Unmarshal(bs)
	return n, err
}

type entrySer struct{}

func (entrySer) Marshal(e core.Entry, bs []byte) (n int) {
	n = ord.String.Marshal(e.Name, bs)
	n += ord.String.Marshal(e.NormalizedName, bs[n:])
	n += varint.Int.Marshal(len(e.Targets), bs[n:])
	for _, t := range e.Targets {
		n += TargetMUS.Marshal(t, bs[n:])
	}
	return n
}

func (entrySer) Unmarshal(bs []byte) (e core.Entry, n int, err error) {
	var m int
	e.Name, m, err = ord.String.Unmarshal(bs)
	n += m
	if err != nil {
		return e, n, err
	}
	e.NormalizedName, m, err = ord.String.Unmarshal(bs[n:])
	n += m
	if err != nil {
		return e, n, err
	}
	count, m, err := varint.Int.Unmarshal(bs[n:])
	n += m
	if err != nil {
		return e, n, err
	}
	if count < 0 || count > len(bs)-n {
		return e, n, ErrTruncatedData
	}
	e.Targets = make([]core.Target, count)
	for i := range e.Targets {
		e.Targets[i], m, err = TargetMUS.Unmarshal(bs[n:])
		n += m
		if err != nil {
			return e, n, err
		}
	}
	return e, n, nil
}

func (entrySer) Size(e core.Entry) int {
	size := ord.String.Size(e.Name) +
		ord.String.Size(e.NormalizedName) +
		varint.Int.Size(len(e.Targets))
	for _, t := range e.Targets {
		size += TargetMUS.Size(t)
	}
	return size
}

func (s entrySer) Skip(bs []byte) (n int, err error) {
	_, n, err = s.Unmarshal(bs)
	return n, err
}

type shardSer struct{}

func (shardSer) Marshal(s core.Shard, bs []byte) (n int) {
	n = varint.Int.Marshal(shardFormatVersion, bs)
	n += ord.String.Marshal(string(s.Key), bs[n:])
	n += varint.Int.Marshal(len(s.Entries), bs[n:])
	for _, e := range s.Entries {
		n += EntryMUS.Marshal(e, bs[n:])
	}
	return n
}

func (shardSer) Unmarshal(bs []byte) (s core.Shard, n int, err error) {
	version, m, err := varint.Int.Unmarshal(bs)
	n += m
	if err != nil {
		return s, n, err
	}
	if version != shardFormatVersion {
		return s, n, fmt.Errorf("unsupported shard format version %d", version)
	}
	key, m, err := ord.String.Unmarshal(bs[n:])
	n += m
	if err != nil {
		return s, n, err
	}
	s.Key = core.ShardKey(key)
	count, m, err := varint.Int.Unmarshal(bs[n:])
	n += m
	if err != nil {
		return s, n, err
	}
	if count < 0 || count > len(bs)-n {
		return s, n, ErrTruncatedData
	}
	s.Entries = make([]core.Entry, count)
	for i := range s.Entries {
		s.Entries[i], m, err = EntryMUS.Unmarshal(bs[n:])
		n += m
		if err != nil {
			return s, n, err
		}
	}
	return s, n, nil
}

func (shardSer) Size(s core.Shard) int {
	size := varint.Int.Size(shardFormatVersion) +
		ord.String.Size(string(s.Key)) +
		varint.Int.Size(len(s.Entries))
	for _, e := range s.Entries {
		size += EntryMUS.Size(e)
	}
	return size
}

func (s shardSer) Skip(bs []byte) (n int, err error) {
	_, n, err = s.Unmarshal(bs)
	return n, err
}

// MarshalShard serializes a Shard to bytes.
func MarshalShard(shard *core.Shard) []byte {
	buf := make([]byte, ShardMUS.Size(*shard))
	ShardMUS.Marshal(*shard, buf)
	return buf
}

// UnmarshalShard deserializes a Shard from bytes.
func UnmarshalShard(data []byte) (*core.Shard, error) {
	shard, _, err := ShardMUS.Unmarshal(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSerializationFailed, err)
	}
	return &shard, nil
}
