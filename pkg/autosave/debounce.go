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

// ⏳ Debouncer runs fn once input has been quiet for delay, with the latest value
type Debouncer[T any] struct {
	mu      sync.Mutex
	clock   Clock
	delay   time.Duration
	fn      func(T)
	timer   Timer
	gen     uint64
	pending bool
	value   T
}

// NewDebouncer creates a debouncer calling fn
func NewDebouncer[T any](clock Clock, delay time.Duration, fn func(T)) *Debouncer[T] {
	return &Debouncer[T]{clock: clock, delay: delay, fn: fn}
}

// Schedule cancels any pending call and schedules fn(value) after the delay
func (d *Debouncer[T]) Schedule(value T) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.stopLocked()
	d.pending = true
	d.value = value
	gen := d.gen
	d.timer = d.clock.AfterFunc(d.delay, func() {
		d.fire(gen)
	})
}

// Cancel drops the pending call, if any
func (d *Debouncer[T]) Cancel() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stopLocked()
}

// Flush runs the pending call now and reports whether there was one
func (d *Debouncer[T]) Flush() bool {
	d.mu.Lock()
	if !d.pending {
		d.mu.Unlock()
		return false
	}
	value := d.value
	d.stopLocked()
	d.mu.Unlock()

	d.fn(value)
	return true
}

// Pending reports whether a call is scheduled
func (d *Debouncer[T]) Pending() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.pending
}

func (d *Debouncer[T]) fire(gen uint64) {
	d.mu.Lock()
	// a timer that lost the race with Stop must not run
	if gen != d.gen || !d.pending {
		d.mu.Unlock()
		return
	}
	value := d.value
	d.pending = false
	d.timer = nil
	d.gen++
	d.mu.Unlock()

	d.fn(value)
}

func (d *Debouncer[T]) stopLocked() {
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	var zero T
	d.value = zero
	d.pending = false
	d.gen++
}
