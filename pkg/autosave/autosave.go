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
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/walteh/secenc/pkg/state"
)

const (
	DefaultDebounce = 5 * time.Second
	DefaultThrottle = 2 * time.Second
)

// Option configures an Autosave
type Option func(*options)

type options struct {
	clock    Clock
	debounce time.Duration
	throttle time.Duration
}

func WithClock(c Clock) Option {
	return func(o *options) { o.clock = c }
}

func WithDebounce(d time.Duration) Option {
	return func(o *options) { o.debounce = d }
}

func WithThrottle(d time.Duration) Option {
	return func(o *options) { o.throttle = d }
}

// 🔁 Autosave puts the debounce and throttle policies in front of one Saver.
//
// Timers fire on their own goroutines and use the context given to New.
type Autosave struct {
	ctx      context.Context
	saver    *Saver
	debounce *Debouncer[string]
	throttle *Throttler[string]
}

// New creates an autosave over saver
func New(ctx context.Context, saver *Saver, opts ...Option) *Autosave {
	o := &options{
		clock:    RealClock(),
		debounce: DefaultDebounce,
		throttle: DefaultThrottle,
	}
	for _, opt := range opts {
		opt(o)
	}

	a := &Autosave{ctx: ctx, saver: saver}
	a.debounce = NewDebouncer(o.clock, o.debounce, a.save)
	a.throttle = NewThrottler(o.clock, o.throttle, a.save)
	return a
}

func (a *Autosave) save(text string) {
	// failures are already logged by the saver
	_, _ = a.saver.Save(a.ctx, text)
}

// Changed schedules a save of text after the quiet window, replacing any pending one.
// Reverting to the saved text drops the pending save.
func (a *Autosave) Changed(text string) {
	if text == a.saver.LastSaved() {
		a.debounce.Cancel()
		return
	}
	zerolog.Ctx(a.ctx).Trace().Msg("scheduling debounced save")
	a.debounce.Schedule(text)
}

// Blurred saves text immediately unless a blur save ran within the throttle window
func (a *Autosave) Blurred(text string) bool {
	fired := a.throttle.Call(text)
	if !fired {
		zerolog.Ctx(a.ctx).Trace().Msg("blur save throttled")
	}
	return fired
}

// Flush runs the pending debounced save now
func (a *Autosave) Flush() bool {
	return a.debounce.Flush()
}

// Pending reports whether a debounced save is scheduled
func (a *Autosave) Pending() bool {
	return a.debounce.Pending()
}

// Close cancels the pending debounced save
func (a *Autosave) Close() {
	a.debounce.Cancel()
}

// Saver returns the underlying save path
func (a *Autosave) Saver() *Saver {
	return a.saver
}

// 🔌 Attach schedules a debounced save on every text change in store
func (a *Autosave) Attach(store *state.Store) {
	store.Subscribe(func(_ context.Context, field state.Field, v state.Values) {
		if field == state.FieldText {
			a.Changed(v.Text)
		}
	})
}
