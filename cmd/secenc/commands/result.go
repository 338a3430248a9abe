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
)

// NewResultCmd prints the latest result
func NewResultCmd(o *opts.RootOpts) *cobra.Command {
	return &cobra.Command{
		Use:   "result",
		Short: "Print the latest result",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			result := o.Store.Result()
			if result == "" {
				c, err := console(cmd.Context())
				if err != nil {
					return err
				}
				c.Info("No result yet")
				return nil
			}
			_, err := fmt.Fprintln(cmd.OutOrStdout(), result)
			return err
		},
	}
}

// NewCleanCmd clears text, action and result
func NewCleanCmd(o *opts.RootOpts) *cobra.Command {
	return &cobra.Command{
		Use:   "clean",
		Short: "Clear the text, action and result",
		Long: `Clean resets the session text, action and result. The selected
operation and the known key files are kept.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			c, err := console(ctx)
			if err != nil {
				return err
			}

			if err := o.Processor.CleanAll(ctx); err != nil {
				return errors.Errorf("cleaning session: %w", err)
			}
			c.Success("Session cleaned")
			return nil
		},
	}
}
