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

// NewTextCmd shows or sets the session text
func NewTextCmd(o *opts.RootOpts) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "text [value]",
		Short: "Show or set the session text",
		Long: `Without an argument, text prints the session text.

With an argument ("-" reads stdin), the text is replaced and saved to the
server right away, unless a save already happened in the last throttle window.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			if len(args) == 0 {
				_, err := fmt.Fprintln(cmd.OutOrStdout(), o.Store.Text())
				return err
			}

			text, err := readValue(cmd, args[0])
			if err != nil {
				return err
			}

			watchChanges(ctx, o)
			if err := o.Store.SetText(ctx, text); err != nil {
				return errors.Errorf("setting text: %w", err)
			}

			as := o.NewAutosave(ctx)
			defer as.Close()
			as.Blurred(text)
			return nil
		},
	}

	return cmd
}
