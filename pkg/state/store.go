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

package state

import (
	"context"
	"encoding/json"
	"slices"
	"sync"

	"github.com/rs/zerolog"
	"github.com/walteh/secenc/pkg/operation"
	"gitlab.com/tozd/go/errors"
)

// 🏷️ Field names a piece of session state. Persisted fields use it as storage key.
type Field string

const (
	FieldFiles     Field = "files"
	FieldResult    Field = "result"
	FieldOperation Field = "operation"
	FieldAction    Field = "action"
	FieldText      Field = "text"
	FieldLoading   Field = "loading"
)

// Persisted reports whether the field is mirrored into storage
func (f Field) Persisted() bool {
	return f != FieldLoading
}

var ErrNoStore = errors.Base("session store not found in context")

// 📦 Values is a copy of the session state
type Values struct {
	Text      string
	Operation operation.ID
	Action    operation.Action
	Result    string
	Files     []string
	Loading   bool
}

// Listener is called after a field changed, outside the store lock
type Listener func(ctx context.Context, field Field, v Values)

// Option customises a store at construction
type Option func(*options)

type options struct {
	overrides *Values
}

// 🧪 WithValues replaces the seeded values, whatever storage holds
func WithValues(v Values) Option {
	return func(o *options) {
		o.overrides = &v
	}
}

// 🗃️ Store is the single owner of session state. Every change to a persisted
// field is written through to storage before the setter returns.
type Store struct {
	mu        sync.RWMutex
	storage   Storage
	values    Values
	listeners []Listener
}

// 🏭 New seeds a store from storage, falling back to defaults for missing keys
func New(ctx context.Context, storage Storage, opts ...Option) (*Store, error) {
	if storage == nil {
		return nil, errors.New("storage is required")
	}

	o := &options{}
	for _, opt := range opts {
		opt(o)
	}

	s := &Store{storage: storage}
	s.values = s.seed(ctx)

	if o.overrides != nil {
		s.values = cloneValues(*o.overrides)
		s.values.Loading = false
		if !s.values.Operation.Valid() {
			return nil, errors.Errorf("%w: %q", operation.ErrUnknownOperation, s.values.Operation)
		}
		if !s.values.Action.Valid() {
			return nil, errors.Errorf("%w: %q", operation.ErrUnknownAction, s.values.Action)
		}
		for _, f := range []Field{FieldFiles, FieldResult, FieldOperation, FieldAction, FieldText} {
			if err := s.persist(ctx, f, s.values); err != nil {
				return nil, err
			}
		}
	}

	return s, nil
}

func (s *Store) seed(ctx context.Context) Values {
	logger := zerolog.Ctx(ctx)
	v := Values{Files: []string{}}

	if raw, ok := s.storage.Get(string(FieldFiles)); ok {
		var files []string
		if err := json.Unmarshal([]byte(raw), &files); err != nil {
			logger.Warn().Err(err).Msg("ignoring unreadable persisted files")
		} else if files != nil {
			v.Files = files
		}
	}
	if raw, ok := s.storage.Get(string(FieldResult)); ok {
		v.Result = raw
	}
	if raw, ok := s.storage.Get(string(FieldOperation)); ok {
		if id := operation.ID(raw); id.Valid() {
			v.Operation = id
		} else {
			logger.Warn().Str("operation", raw).Msg("ignoring unknown persisted operation")
		}
	}
	if raw, ok := s.storage.Get(string(FieldAction)); ok {
		if a := operation.Action(raw); a.Valid() {
			v.Action = a
		} else {
			logger.Warn().Str("action", raw).Msg("ignoring unknown persisted action")
		}
	}
	if raw, ok := s.storage.Get(string(FieldText)); ok {
		v.Text = raw
	}

	return v
}

func cloneValues(v Values) Values {
	if v.Files == nil {
		v.Files = []string{}
	} else {
		v.Files = slices.Clone(v.Files)
	}
	return v
}

func encodeField(f Field, v Values) (string, error) {
	switch f {
	case FieldFiles:
		raw, err := json.Marshal(v.Files)
		if err != nil {
			return "", errors.Errorf("encoding files: %w", err)
		}
		return string(raw), nil
	case FieldResult:
		return v.Result, nil
	case FieldOperation:
		return string(v.Operation), nil
	case FieldAction:
		return string(v.Action), nil
	case FieldText:
		return v.Text, nil
	}
	return "", errors.Errorf("field %s is not persisted", f)
}

func (s *Store) persist(ctx context.Context, f Field, v Values) error {
	raw, err := encodeField(f, v)
	if err != nil {
		return err
	}
	if err := s.storage.Set(ctx, string(f), raw); err != nil {
		return errors.Errorf("writing %s to storage: %w", f, err)
	}
	return nil
}

// 🔄 update applies mutate under the lock, writes persisted fields through and
// then notifies listeners with a snapshot. A failed write restores the previous
// values and notifies nobody.
func (s *Store) update(ctx context.Context, fields []Field, mutate func(v *Values)) error {
	s.mu.Lock()
	prev := cloneValues(s.values)
	mutate(&s.values)
	for i, f := range fields {
		if !f.Persisted() {
			continue
		}
		if err := s.persist(ctx, f, s.values); err != nil {
			s.values = prev
			s.restore(ctx, fields[:i])
			s.mu.Unlock()
			return err
		}
	}
	snap := cloneValues(s.values)
	listeners := slices.Clone(s.listeners)
	s.mu.Unlock()

	for _, f := range fields {
		for _, l := range listeners {
			l(ctx, f, snap)
		}
	}
	return nil
}

// restore rewrites fields already persisted by a failed update
func (s *Store) restore(ctx context.Context, fields []Field) {
	for _, f := range fields {
		if !f.Persisted() {
			continue
		}
		if err := s.persist(ctx, f, s.values); err != nil {
			zerolog.Ctx(ctx).Warn().Err(err).Str("field", string(f)).Msg("restoring field after failed write")
		}
	}
}

// Subscribe registers a listener for every subsequent change
func (s *Store) Subscribe(l Listener) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, l)
}

// Snapshot returns a copy of every field
func (s *Store) Snapshot() Values {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneValues(s.values)
}

func (s *Store) Text() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.values.Text
}

func (s *Store) SetText(ctx context.Context, text string) error {
	return s.update(ctx, []Field{FieldText}, func(v *Values) { v.Text = text })
}

func (s *Store) Operation() operation.ID {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.values.Operation
}

// SetOperation selects an operation; operation.None clears the selection
func (s *Store) SetOperation(ctx context.Context, id operation.ID) error {
	if !id.Valid() {
		return errors.Errorf("%w: %q", operation.ErrUnknownOperation, id)
	}
	return s.update(ctx, []Field{FieldOperation}, func(v *Values) { v.Operation = id })
}

func (s *Store) Action() operation.Action {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.values.Action
}

func (s *Store) SetAction(ctx context.Context, a operation.Action) error {
	if !a.Valid() {
		return errors.Errorf("%w: %q", operation.ErrUnknownAction, a)
	}
	return s.update(ctx, []Field{FieldAction}, func(v *Values) { v.Action = a })
}

func (s *Store) Result() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.values.Result
}

// SetResult replaces the result. Only remote completions and resets call it.
func (s *Store) SetResult(ctx context.Context, result string) error {
	return s.update(ctx, []Field{FieldResult}, func(v *Values) { v.Result = result })
}

func (s *Store) Files() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.values.Files)
}

func (s *Store) SetFiles(ctx context.Context, files []string) error {
	cp := slices.Clone(files)
	if cp == nil {
		cp = []string{}
	}
	return s.update(ctx, []Field{FieldFiles}, func(v *Values) { v.Files = cp })
}

func (s *Store) Loading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.values.Loading
}

// SetLoading flips the in-flight flag. It is never persisted.
func (s *Store) SetLoading(ctx context.Context, loading bool) {
	// loading is not persisted, update cannot fail
	_ = s.update(ctx, []Field{FieldLoading}, func(v *Values) { v.Loading = loading })
}

// 🧹 Reset clears result, text and action. Operation and files are kept.
func (s *Store) Reset(ctx context.Context) error {
	return s.update(ctx, []Field{FieldResult, FieldText, FieldAction}, func(v *Values) {
		v.Result = ""
		v.Text = ""
		v.Action = operation.NoAction
	})
}

// 🔑 contextKey is the type for context values
type contextKey struct{}

// NewContext scopes a store to ctx
func NewContext(ctx context.Context, s *Store) context.Context {
	return context.WithValue(ctx, contextKey{}, s)
}

// 🎯 FromContext returns the store scoped to ctx, or ErrNoStore outside any scope
func FromContext(ctx context.Context) (*Store, error) {
	s, ok := ctx.Value(contextKey{}).(*Store)
	if !ok || s == nil {
		return nil, ErrNoStore
	}
	return s, nil
}
