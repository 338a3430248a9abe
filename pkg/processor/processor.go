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

package processor

import (
	"context"
	"strings"

	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"

	"github.com/walteh/secenc/pkg/operation"
	"github.com/walteh/secenc/pkg/remote"
	"github.com/walteh/secenc/pkg/state"
	"github.com/walteh/secenc/pkg/status"
)

var ErrValidation = errors.Base("validation failed")

const (
	msgMissingText      = "Please enter text to process."
	msgMissingOperation = "Please select an operation."
)

// MarkSaver moves the autosave marker. autosave.Saver satisfies it.
type MarkSaver interface {
	MarkSaved(text string)
}

// ⚙️ Processor submits the session text to the remote service
type Processor struct {
	remote remote.TextService
	marker MarkSaver
}

// New creates a processor. marker may be nil when autosave is not in use.
func New(svc remote.TextService, marker MarkSaver) *Processor {
	return &Processor{remote: svc, marker: marker}
}

// 🎯 Submit validates the session, then runs one remote call for action.
//
// The returned alert is what the user should see; it is empty on success.
// Validation failures never reach the network.
func (p *Processor) Submit(ctx context.Context, action operation.Action) (status.Alert, error) {
	logger := zerolog.Ctx(ctx)

	store, err := state.FromContext(ctx)
	if err != nil {
		return status.Alert{}, err
	}

	if action != operation.Encode && action != operation.Decode {
		return status.Alert{}, errors.Errorf("%w: %q", operation.ErrUnknownAction, action)
	}

	// text and operation are read once; later edits do not affect this call
	v := store.Snapshot()
	if strings.TrimSpace(v.Text) == "" {
		return status.Dangerf(msgMissingText), errors.Errorf("%w: text is empty", ErrValidation)
	}
	if v.Operation == operation.None {
		return status.Dangerf(msgMissingOperation), errors.Errorf("%w: no operation selected", ErrValidation)
	}

	if err := store.SetAction(ctx, action); err != nil {
		return status.Alert{}, err
	}
	store.SetLoading(ctx, true)
	defer store.SetLoading(ctx, false)

	logger.Debug().
		Str("operation", string(v.Operation)).
		Str("action", string(action)).
		Int("size", len(v.Text)).
		Msg("processing text")

	result, err := p.remote.ProcessText(ctx, remote.ProcessRequest{
		Text:      v.Text,
		Operation: v.Operation,
		Action:    action,
	})
	if err != nil {
		logger.Error().Err(err).Msg("processing text")
		return status.Dangerf("Failed to process text: %s", remote.Message(err)), errors.Errorf("processing text: %w", err)
	}

	if err := store.SetResult(ctx, result); err != nil {
		return status.Alert{}, err
	}
	return status.Alert{}, nil
}

// 🧹 CleanAll resets result, text and action and moves the autosave marker to ""
func (p *Processor) CleanAll(ctx context.Context) error {
	store, err := state.FromContext(ctx)
	if err != nil {
		return err
	}
	if err := store.Reset(ctx); err != nil {
		return errors.Errorf("resetting session: %w", err)
	}
	if p.marker != nil {
		p.marker.MarkSaved("")
	}
	zerolog.Ctx(ctx).Debug().Msg("session cleaned")
	return nil
}
