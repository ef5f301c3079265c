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


// Package search turns keystrokes into grouped symbol results.
//
// MatchEntry classifies how well a normalized query matches an index
// entry. Rank groups the matches by kind and orders them. Engine ties both
// to an index.Store: every SubmitQuery starts a debounced session, older
// sessions are superseded, and only the newest session ever reaches the
// results callback.
package search
