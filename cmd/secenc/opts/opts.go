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

package opts

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"

	"github.com/walteh/secenc/pkg/autosave"
	"github.com/walteh/secenc/pkg/config"
	"github.com/walteh/secenc/pkg/log"
	"github.com/walteh/secenc/pkg/processor"
	"github.com/walteh/secenc/pkg/registry"
	"github.com/walteh/secenc/pkg/remote"
	"github.com/walteh/secenc/pkg/state"
)

// Flags holds the persistent root flags
type Flags struct {
	ConfigFile string
	Debug      bool
	ServerURL  string
	Session    string
}

// RootOpts contains shared options used by all commands. It is filled in
// before any command runs.
type RootOpts struct {
	Flags Flags

	Config     *config.Config
	Storage    state.Storage
	Store      *state.Store
	Client     *remote.Client
	Metrics    *remote.Metrics
	Registerer *prometheus.Registry
	Saver      *autosave.Saver
	Processor  *processor.Processor
	Registry   *registry.Registry
	Console    *log.Logger
	UserLogger *state.UserLogger
}

// 🏗️ Init loads config and session, then wires the services
func (o *RootOpts) Init(ctx context.Context, configExplicit bool) (context.Context, error) {
	logger := zerolog.Ctx(ctx)

	cfg, err := config.Resolve(ctx, o.Flags.ConfigFile, configExplicit)
	if err != nil {
		return ctx, errors.Errorf("loading config: %w", err)
	}
	if o.Flags.ServerURL != "" || o.Flags.Session != "" {
		if o.Flags.ServerURL != "" {
			cfg.ServerURL = o.Flags.ServerURL
		}
		if o.Flags.Session != "" {
			cfg.SessionFile = o.Flags.Session
		}
		if err := config.Validate(ctx, cfg); err != nil {
			return ctx, errors.Errorf("validating flags: %w", err)
		}
	}
	o.Config = cfg
	logger.Debug().Str("config", cfg.String()).Msg("configuration resolved")

	storage, err := state.OpenFileStorage(ctx, cfg.SessionFile)
	if err != nil {
		return ctx, errors.Errorf("opening session: %w", err)
	}
	o.Storage = storage

	store, err := state.New(ctx, storage)
	if err != nil {
		return ctx, errors.Errorf("loading session: %w", err)
	}
	o.Store = store

	o.Registerer = prometheus.NewRegistry()
	o.Metrics = remote.NewMetrics(o.Registerer)

	client, err := remote.NewClient(cfg.ServerURL,
		remote.WithTimeout(cfg.TimeoutDuration()),
		remote.WithForceUpdate(cfg.ShouldForceUpdate()),
		remote.WithMetrics(o.Metrics),
	)
	if err != nil {
		return ctx, errors.Errorf("creating client: %w", err)
	}
	o.Client = client

	o.Saver = autosave.NewSaver(client, store.Text())
	o.Processor = processor.New(client, o.Saver)

	reg, err := registry.New(client,
		registry.WithPattern(cfg.KeyPattern),
		registry.WithStaleAfter(cfg.StaleAfterDuration()),
		registry.WithConcurrency(cfg.UploadConcurrency),
		registry.WithFiles(store.Files()),
		registry.WithSink(store),
	)
	if err != nil {
		return ctx, errors.Errorf("creating registry: %w", err)
	}
	o.Registry = reg

	ctx = state.NewContext(ctx, store)
	ctx = log.NewContext(ctx, o.Console)
	return ctx, nil
}

// NewAutosave builds the debounce/throttle front for the shared saver
func (o *RootOpts) NewAutosave(ctx context.Context) *autosave.Autosave {
	return autosave.New(ctx, o.Saver,
		autosave.WithDebounce(o.Config.DebounceDuration()),
		autosave.WithThrottle(o.Config.ThrottleDuration()),
	)
}
