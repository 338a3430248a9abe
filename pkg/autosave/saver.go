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
	"sync"

	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"
)

// TextSaver is the remote save call. remote.TextService satisfies it.
type TextSaver interface {
	SaveText(ctx context.Context, text string) error
}

// 💾 Saver is the single save path. It skips text equal to the last saved text.
type Saver struct {
	// saving serialises the marker check with the remote call
	saving sync.Mutex
	mu     sync.Mutex
	remote TextSaver
	last   string
}

// NewSaver creates a saver whose marker starts at lastSaved
func NewSaver(remote TextSaver, lastSaved string) *Saver {
	return &Saver{remote: remote, last: lastSaved}
}

// Save sends text unless it equals the marker. A failure is logged and returned;
// nothing is retried.
func (s *Saver) Save(ctx context.Context, text string) (bool, error) {
	logger := zerolog.Ctx(ctx)

	s.saving.Lock()
	defer s.saving.Unlock()

	if text == s.LastSaved() {
		logger.Trace().Msg("text unchanged since last save, skipping")
		return false, nil
	}

	if err := s.remote.SaveText(ctx, text); err != nil {
		logger.Error().Err(err).Msg("saving text")
		return false, errors.Errorf("saving text: %w", err)
	}

	s.MarkSaved(text)
	logger.Debug().Int("size", len(text)).Msg("text saved")
	return true, nil
}

// MarkSaved moves the marker without calling the server
func (s *Saver) MarkSaved(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.last = text
}

// LastSaved returns the marker
func (s *Saver) LastSaved() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.last
}
