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
	"fmt"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
	"gitlab.com/tozd/go/errors"

	"github.com/walteh/secenc/cmd/secenc/opts"
	"github.com/walteh/secenc/pkg/operation"
	"github.com/walteh/secenc/pkg/state"
)

// NewSubmitCmd creates the encode or decode command
func NewSubmitCmd(o *opts.RootOpts, action operation.Action) *cobra.Command {
	var text, op string

	cmd := &cobra.Command{
		Use:   string(action),
		Short: capitalise(string(action)) + " the session text with the selected operation",
		Long: fmt.Sprintf(`%s sends the session text and operation to the server and stores the
result in the session. --text and --operation update the session first.`, string(action)),
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			c, err := console(ctx)
			if err != nil {
				return err
			}

			if cmd.Flags().Changed("text") {
				value, err := readValue(cmd, text)
				if err != nil {
					return err
				}
				if err := o.Store.SetText(ctx, value); err != nil {
					return errors.Errorf("setting text: %w", err)
				}
			}
			if cmd.Flags().Changed("operation") {
				id, err := operation.Parse(op)
				if err != nil {
					return err
				}
				if err := o.Store.SetOperation(ctx, id); err != nil {
					return err
				}
			}

			spin := &spinner{}
			o.Store.Subscribe(spin.listener)
			defer spin.stop()

			alert, err := o.Processor.Submit(ctx, action)
			if err != nil {
				return report(ctx, c, alert, err)
			}

			c.Println(o.Store.Result())
			return nil
		},
	}

	cmd.Flags().StringVar(&text, "text", "", `set the session text first ("-" reads stdin)`)
	cmd.Flags().StringVar(&op, "operation", "", "select the operation first")
	return cmd
}

// spinner follows the session's loading flag
type spinner struct {
	printer *pterm.SpinnerPrinter
}

func (s *spinner) listener(_ context.Context, field state.Field, v state.Values) {
	if field != state.FieldLoading {
		return
	}
	if v.Loading {
		if p, err := pterm.DefaultSpinner.WithRemoveWhenDone(true).Start("Processing..."); err == nil {
			s.printer = p
		}
		return
	}
	s.stop()
}

func (s *spinner) stop() {
	if s.printer == nil {
		return
	}
	_ = s.printer.Stop()
	s.printer = nil
}

func capitalise(s string) string {
	if s == "" {
		return s
	}
	return string(s[0]-'a'+'A') + s[1:]
}
