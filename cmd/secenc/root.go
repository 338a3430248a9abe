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

package main

import (
	"context"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/walteh/secenc/cmd/secenc/commands"
	"github.com/walteh/secenc/cmd/secenc/opts"
	"github.com/walteh/secenc/pkg/config"
	"github.com/walteh/secenc/pkg/log"
	"github.com/walteh/secenc/pkg/operation"
)

// newRootCmd builds the command tree around shared options
func newRootCmd(o *opts.RootOpts) *cobra.Command {
	root := &cobra.Command{
		Use:   "secenc",
		Short: "Client for the Secure Encoder service",
		Long: `secenc sends text to a Secure Encoder server to be encoded, decoded,
encrypted or compressed, and manages the key files stored on that server.

The session (text, operation, last result, known keys) is kept in a local
session file between invocations.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Annotations["skip-init"] == "true" {
				return nil
			}
			setupLogging(o.Flags.Debug)
			ctx := zerolog.DefaultContextLogger.WithContext(cmd.Context())
			o.Console = log.New(cmd.OutOrStdout(), *zerolog.Ctx(ctx))

			ctx, err := o.Init(ctx, cmd.Flags().Changed("config"))
			if err != nil {
				return err
			}
			cmd.SetContext(ctx)
			return nil
		},
	}

	addRootFlags(root, &o.Flags)

	root.AddCommand(
		commands.NewTextCmd(o),
		commands.NewOperationCmd(o),
		commands.NewOperationsCmd(o),
		commands.NewSubmitCmd(o, operation.Encode),
		commands.NewSubmitCmd(o, operation.Decode),
		commands.NewResultCmd(o),
		commands.NewCleanCmd(o),
		commands.NewEditCmd(o),
		commands.NewKeysCmd(o),
		commands.NewSessionCmd(o),
		newVersionCmd(),
	)

	return root
}

// addRootFlags adds shared flags to the root command
func addRootFlags(cmd *cobra.Command, f *opts.Flags) {
	cmd.PersistentFlags().StringVarP(&f.ConfigFile, "config", "c", config.DefaultFile, "config file path")
	cmd.PersistentFlags().BoolVarP(&f.Debug, "debug", "d", false, "enable debug logging")
	cmd.PersistentFlags().StringVar(&f.ServerURL, "server", "", "encoder service url (overrides config)")
	cmd.PersistentFlags().StringVar(&f.Session, "session", "", "session file path (overrides config)")
}

// setupLogging configures zerolog based on flags
func setupLogging(debug bool) {
	if debug {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	}
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()
	zerolog.DefaultContextLogger = &logger
}

func execute(ctx context.Context) error {
	o := &opts.RootOpts{}
	return newRootCmd(o).ExecuteContext(ctx)
}
