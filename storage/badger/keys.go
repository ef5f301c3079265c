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


package badger

import (
	"github.com/poiesic/symfind/core"
)

const (
	shardPrefix = "shard"
)

// makeNamespacePrefix generates the key prefix shared by all shards of one
// documentation location.
// Format: prefix:namespace:
func makeNamespacePrefix(namespace string) []byte {
	buf := make([]byte, 0, len(shardPrefix)+len(namespace)+2)
	buf = append(buf, shardPrefix...)
	buf = append(buf, ':')
	buf = append(buf, namespace...)
	return append(buf, ':')
}

// makeShardKey generates a key for a decoded shard.
// Format: prefix:namespace:shardkey
func makeShardKey(namespace string, key core.ShardKey) []byte {
	return append(makeNamespacePrefix(namespace), key...)
}
