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


package search

import (
	"time"
)

// Monitor provides hooks to observe query sessions.
type Monitor interface {
	// SessionStarted is called when a query creates a new pending session.
	SessionStarted(generation uint64, query string)

	// SessionSuperseded is called when a session is dropped without delivering.
	SessionSuperseded(generation uint64)

	// SessionDelivered is called when a session's results reach the callback.
	// elapsed runs from the end of the debounce to delivery.
	SessionDelivered(generation uint64, hits int, elapsed time.Duration)
}

// noopMonitor is a no-op implementation of Monitor
type noopMonitor struct{}

var _ Monitor = (*noopMonitor)(nil)

func (n *noopMonitor) SessionStarted(_ uint64, _ string)                {}
func (n *noopMonitor) SessionSuperseded(_ uint64)                       {}
func (n *noopMonitor) SessionDelivered(_ uint64, _ int, _ time.Duration) {}
