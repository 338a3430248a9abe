// Copyright 2025 walteh LLC
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

package autosave

import (
	"sync"
	"time"
)

// 🚦 Throttler runs fn at most once per window. Calls inside the window are dropped.
type Throttler[T any] struct {
	mu     sync.Mutex
	clock  Clock
	window time.Duration
	fn     func(T)
	last   time.Time
	fired  bool
}

// NewThrottler creates a throttler calling fn
func NewThrottler[T any](clock Clock, window time.Duration, fn func(T)) *Throttler[T] {
	return &Throttler[T]{clock: clock, window: window, fn: fn}
}

// Call runs fn(value) now unless the previous run was less than window ago
func (t *Throttler[T]) Call(value T) bool {
	t.mu.Lock()
	now := t.clock.Now()
	if t.fired && now.Sub(t.last) < t.window {
		t.mu.Unlock()
		return false
	}
	t.last = now
	t.fired = true
	t.mu.Unlock()

	t.fn(value)
	return true
}
