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
	"time"

	"github.com/poiesic/symfind/core"
)

// Monitor provides hooks to observe shard loading.
type Monitor interface {
	ShardLoaded(key core.ShardKey, entries int, elapsed time.Duration)
	ShardLoadFailed(key core.ShardKey, err error)
	MalformedEntry(key core.ShardKey, err error)
}

// noopMonitor is a no-op implementation of Monitor
type noopMonitor struct{}

var _ Monitor = (*noopMonitor)(nil)

func (n *noopMonitor) ShardLoaded(_ core.ShardKey, _ int, _ time.Duration) {}
func (n *noopMonitor) ShardLoadFailed(_ core.ShardKey, _ error)            {}
func (n *noopMonitor) MalformedEntry(_ core.ShardKey, _ error)             {}
