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
	"encoding/json"
	"strconv"
	"strings"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
	"gitlab.com/tozd/go/errors"

	"github.com/walteh/secenc/cmd/secenc/opts"
)

// NewSessionCmd inspects or clears the local session
func NewSessionCmd(o *opts.RootOpts) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "session",
		Short: "Inspect or clear the local session",
	}
	cmd.AddCommand(newSessionShowCmd(o), newSessionClearCmd(o))
	return cmd
}

type sessionView struct {
	File      string   `json:"file"`
	Text      string   `json:"text"`
	Operation string   `json:"operation"`
	Action    string   `json:"action"`
	Result    string   `json:"result"`
	Files     []string `json:"files"`
}

func newSessionShowCmd(o *opts.RootOpts) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show the session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			v := o.Store.Snapshot()
			view := sessionView{
				File:      o.Config.SessionFile,
				Text:      v.Text,
				Operation: string(v.Operation),
				Action:    string(v.Action),
				Result:    v.Result,
				Files:     v.Files,
			}

			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(view)
			}

			data := pterm.TableData{
				{"Field", "Value"},
				{"file", view.File},
				{"text", strconv.Quote(view.Text)},
				{"operation", view.Operation},
				{"action", view.Action},
				{"result", view.Result},
				{"files", strings.Join(view.Files, ", ")},
			}
			return pterm.DefaultTable.WithHasHeader().WithData(data).WithWriter(cmd.OutOrStdout()).Render()
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print as json")
	return cmd
}

func newSessionClearCmd(o *opts.RootOpts) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Delete the session file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			c, err := console(ctx)
			if err != nil {
				return err
			}
			if err := o.Storage.Clear(ctx); err != nil {
				return errors.Errorf("clearing session: %w", err)
			}
			c.Success("Session cleared")
			return nil
		},
	}
}
