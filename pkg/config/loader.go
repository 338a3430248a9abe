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

package config

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"
)

// DefaultFile is the config file looked up when none is given
const DefaultFile = ".secenc.yaml"

// LoadConfig loads a configuration file from the given path.
// The format is determined by the file extension:
// - .json for JSON
// - .yaml or .yml for YAML
// - .hcl for HCL
// - .secenc will try both YAML and HCL formats
func LoadConfig(ctx context.Context, path string) (*Config, error) {
	zerolog.Ctx(ctx).Debug().Str("path", path).Msg("loading configuration")

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Errorf("reading config file: %w", err)
	}

	var cfg *Config
	ext := strings.ToLower(filepath.Ext(path))
	if ext == ".secenc" || filepath.Base(path) == ".secenc" {
		cfg, err = (&YAMLParser{}).Parse(ctx, data)
		if err != nil {
			var herr error
			cfg, herr = parseHCL(data, path)
			if herr != nil {
				return nil, errors.Errorf("failed to parse %s as YAML or HCL: %w", path, herr)
			}
		}
	} else {
		p := GetParser(path)
		if p == nil {
			return nil, errors.Errorf("unsupported file extension %q", ext)
		}
		cfg, err = p.Parse(ctx, data)
		if err != nil {
			return nil, err
		}
	}

	cfg.location = path
	cfg.ApplyEnv()
	if err := Validate(ctx, cfg); err != nil {
		return nil, errors.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// 🎯 Resolve loads path when it exists. A missing file is only an error when
// the caller asked for it explicitly; otherwise defaults are used.
func Resolve(ctx context.Context, path string, explicit bool) (*Config, error) {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) && !explicit {
			zerolog.Ctx(ctx).Debug().Str("path", path).Msg("no config file, using defaults")
			cfg := &Config{}
			cfg.ApplyEnv()
			if err := Validate(ctx, cfg); err != nil {
				return nil, errors.Errorf("validating config: %w", err)
			}
			return cfg, nil
		}
		return nil, errors.Errorf("checking config file: %w", err)
	}
	return LoadConfig(ctx, path)
}
