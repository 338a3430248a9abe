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
	"strconv"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/walteh/secenc/cmd/secenc/opts"
	"github.com/walteh/secenc/pkg/log"
	"github.com/walteh/secenc/pkg/registry"
	"github.com/walteh/secenc/pkg/remote"
	"github.com/walteh/secenc/pkg/status"
)

// NewKeysCmd groups the key file commands
func NewKeysCmd(o *opts.RootOpts) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "keys",
		Short: "Manage key files stored on the server",
	}

	cmd.AddCommand(
		newKeysListCmd(o),
		newKeysDownloadCmd(o),
		newKeysDeleteCmd(o),
		newKeysUploadCmd(o),
	)
	return cmd
}

func logMutation(c *log.Logger, cmd *cobra.Command, reg *registry.Registry, kind registry.Kind, name string) {
	st := reg.State(kind)
	c.LogKeyOperation(cmd.Context(), log.KeyOperation{
		Name:  name,
		Kind:  string(kind),
		State: st.Phase.String(),
		Err:   st.Err,
	})
}

func newKeysListCmd(o *opts.RootOpts) *cobra.Command {
	var refresh bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List key files",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			c, err := console(ctx)
			if err != nil {
				return err
			}

			list := o.Registry.List
			if refresh {
				list = o.Registry.Refresh
			}
			files, err := list(ctx)
			if err != nil {
				return report(ctx, c, status.Dangerf("Error: %s", remote.Message(err)), err)
			}

			if len(files) == 0 {
				c.Info("No key files found")
				return nil
			}

			data := pterm.TableData{{"#", "Key file"}}
			for i, f := range files {
				data = append(data, []string{strconv.Itoa(i + 1), f})
			}
			return pterm.DefaultTable.WithHasHeader().WithData(data).WithWriter(cmd.OutOrStdout()).Render()
		},
	}

	cmd.Flags().BoolVar(&refresh, "refresh", false, "ignore the cached list")
	return cmd
}

func newKeysDownloadCmd(o *opts.RootOpts) *cobra.Command {
	var dir string

	cmd := &cobra.Command{
		Use:   "download <name>...",
		Short: "Download key files",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			c, err := console(ctx)
			if err != nil {
				return err
			}
			if dir == "" {
				dir = o.Config.DownloadDir
			}

			var failed error
			for _, name := range args {
				_, alert, err := o.Registry.Download(ctx, name, dir)
				logMutation(c, cmd, o.Registry, registry.KindDownload, name)
				if rerr := report(ctx, c, alert, err); rerr != nil {
					failed = rerr
				}
			}
			return failed
		},
	}

	cmd.Flags().StringVar(&dir, "dir", "", "directory to save into (default from config)")
	return cmd
}

func newKeysDeleteCmd(o *opts.RootOpts) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <name>...",
		Short: "Delete key files",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			c, err := console(ctx)
			if err != nil {
				return err
			}

			var failed error
			for _, name := range args {
				alert, err := o.Registry.Delete(ctx, name)
				logMutation(c, cmd, o.Registry, registry.KindDelete, name)
				if rerr := report(ctx, c, alert, err); rerr != nil {
					failed = rerr
				}
			}
			return failed
		},
	}
}

func newKeysUploadCmd(o *opts.RootOpts) *cobra.Command {
	return &cobra.Command{
		Use:   "upload <path>...",
		Short: "Upload key files",
		Long: `Upload sends local files to the server. The server may store a file
under a normalised name, which is reported back.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			c, err := console(ctx)
			if err != nil {
				return err
			}

			if len(args) <= 1 {
				path := ""
				if len(args) == 1 {
					path = args[0]
				}
				_, alert, err := o.Registry.Upload(ctx, path)
				return report(ctx, c, alert, err)
			}

			var failed error
			for _, res := range o.Registry.UploadAll(ctx, args) {
				state := "success"
				if res.Err != nil {
					state = "error"
				}
				c.LogKeyOperation(ctx, log.KeyOperation{Name: res.Path, Kind: string(registry.KindUpload), State: state, Err: res.Err})
				if rerr := report(ctx, c, res.Alert, res.Err); rerr != nil {
					failed = rerr
				}
			}
			return failed
		},
	}
}
