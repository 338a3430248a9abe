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
	"fmt"

	"github.com/spf13/cobra"
	"gitlab.com/tozd/go/errors"

	"github.com/walteh/secenc/cmd/secenc/opts"
	"github.com/walteh/secenc/pkg/operation"
	"github.com/walteh/secenc/pkg/status"
)

// NewOperationCmd shows or selects the operation
func NewOperationCmd(o *opts.RootOpts) *cobra.Command {
	var clear bool

	cmd := &cobra.Command{
		Use:   "operation [id]",
		Short: "Show or select the operation",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			if len(args) == 0 && !clear {
				current := o.Store.Operation()
				if current == operation.None {
					c, err := console(ctx)
					if err != nil {
						return err
					}
					c.Info("No operation selected")
					return nil
				}
				_, err := fmt.Fprintf(cmd.OutOrStdout(), "%s (%s)\n", current.Label(), current)
				return err
			}

			id := operation.None
			if !clear {
				parsed, err := operation.Parse(args[0])
				if err != nil {
					return errors.Errorf("%w, see 'secenc operations'", err)
				}
				id = parsed
			}

			watchChanges(ctx, o)
			return o.Store.SetOperation(ctx, id)
		},
	}

	cmd.Flags().BoolVar(&clear, "clear", false, "clear the selected operation")
	return cmd
}

// NewOperationsCmd lists every operation by group
func NewOperationsCmd(o *opts.RootOpts) *cobra.Command {
	return &cobra.Command{
		Use:   "operations",
		Short: "List available operations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			selected := o.Store.Operation()
			for _, g := range operation.Groups() {
				if _, err := fmt.Fprintln(cmd.OutOrStdout(), status.FormatOperationGroup(g, selected)); err != nil {
					return err
				}
			}
			return nil
		},
	}
}
