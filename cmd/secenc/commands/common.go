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

package commands

import (
	"context"
	"io"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"gitlab.com/tozd/go/errors"

	"github.com/walteh/secenc/cmd/secenc/opts"
	"github.com/walteh/secenc/pkg/log"
	"github.com/walteh/secenc/pkg/state"
	"github.com/walteh/secenc/pkg/status"
)

// ErrReported marks a failure the user has already been shown
var ErrReported = errors.Base("already reported")

func console(ctx context.Context) (*log.Logger, error) {
	c, err := log.FromContext(ctx)
	if err != nil {
		return nil, errors.Errorf("getting console: %w", err)
	}
	return c, nil
}

// report shows a non-empty alert and turns err into ErrReported
func report(ctx context.Context, c *log.Logger, alert status.Alert, err error) error {
	if alert.Empty() {
		return err
	}
	c.Alert(alert)
	if err != nil {
		zerolog.Ctx(ctx).Debug().Err(err).Msg("reported failure")
		return ErrReported
	}
	return nil
}

// watchChanges prints every session change through the user logger
func watchChanges(ctx context.Context, o *opts.RootOpts) {
	if o.UserLogger == nil {
		o.UserLogger = state.NewUserLogger(ctx)
	}
	o.Store.Subscribe(o.UserLogger.Listener())
}

// readValue reads stdin when value is "-"
func readValue(cmd *cobra.Command, value string) (string, error) {
	if value != "-" {
		return value, nil
	}
	raw, err := io.ReadAll(cmd.InOrStdin())
	if err != nil {
		return "", errors.Errorf("reading stdin: %w", err)
	}
	return strings.TrimSuffix(string(raw), "\n"), nil
}
