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
	"bufio"
	"context"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"gitlab.com/tozd/go/errors"

	"github.com/walteh/secenc/cmd/secenc/opts"
)

// NewEditCmd edits the session text line by line with autosave
func NewEditCmd(o *opts.RootOpts) *cobra.Command {
	var keep bool
	var metricsAddr string

	cmd := &cobra.Command{
		Use:   "edit",
		Short: "Edit the session text from stdin with autosave",
		Long: `Edit reads lines from stdin. Every line changes the session text and
schedules a save once typing pauses for the debounce window. End of input
counts as leaving the editor: the text is saved at once and any pending
save is flushed.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			c, err := console(ctx)
			if err != nil {
				return err
			}

			if metricsAddr != "" {
				shutdown, err := serveMetrics(ctx, metricsAddr, o.Registerer)
				if err != nil {
					return err
				}
				defer shutdown()
			}

			as := o.NewAutosave(ctx)
			as.Attach(o.Store)
			defer as.Close()

			var lines []string
			if keep && o.Store.Text() != "" {
				lines = strings.Split(o.Store.Text(), "\n")
			}

			c.Header("editing, end input with Ctrl-D")

			scanner := bufio.NewScanner(cmd.InOrStdin())
			for scanner.Scan() {
				lines = append(lines, scanner.Text())
				if err := o.Store.SetText(ctx, strings.Join(lines, "\n")); err != nil {
					return errors.Errorf("setting text: %w", err)
				}
			}
			if err := scanner.Err(); err != nil {
				return errors.Errorf("reading input: %w", err)
			}

			text := o.Store.Text()
			as.Blurred(text)
			as.Flush()

			if o.Saver.LastSaved() == text {
				c.Success("Text saved")
			} else {
				c.Warning("Text kept locally, the server copy is out of date")
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&keep, "keep", false, "append to the current text instead of starting empty")
	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "serve prometheus metrics on this address while editing")
	return cmd
}

// serveMetrics exposes reg on addr until the returned func is called
func serveMetrics(ctx context.Context, addr string, reg *prometheus.Registry) (func(), error) {
	logger := zerolog.Ctx(ctx)

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, errors.Errorf("listening on %s: %w", addr, err)
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	srv := &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Msg("metrics server failed")
		}
	}()
	logger.Info().Str("addr", ln.Addr().String()).Msg("serving metrics")

	return func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}, nil
}
