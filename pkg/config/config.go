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
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"
	"gopkg.in/yaml.v3"
)

// 🌍 Environment variables that override file values
const (
	EnvServerURL   = "SECENC_SERVER_URL"
	EnvSessionFile = "SECENC_SESSION_FILE"
)

// 📋 Defaults
const (
	DefaultServerURL         = "http://localhost:5000"
	DefaultTimeout           = "30s"
	DefaultSessionFile       = ".secenc/session.json"
	DefaultDebounce          = "5s"
	DefaultThrottle          = "2s"
	DefaultKeyPattern        = "*.pem"
	DefaultStaleAfter        = "30s"
	DefaultDownloadDir       = "."
	DefaultUploadConcurrency = 4
)

// 🔌 Parser is the interface for config parsers
type Parser interface {
	// 📝 Parse parses the config from bytes
	Parse(ctx context.Context, data []byte) (*Config, error)

	// 🔍 CanParse checks if this parser can handle the given file
	CanParse(filename string) bool
}

var (
	// 🗺️ parsers is a list of available parsers
	parsers []Parser
)

// 📝 Register registers a parser
func Register(p Parser) {
	parsers = append(parsers, p)
}

// 🎯 GetParser returns a parser that can handle the given file
func GetParser(filename string) Parser {
	for _, p := range parsers {
		if p.CanParse(filename) {
			return p
		}
	}
	return nil
}

// 📚 Config represents the complete client configuration
type Config struct {
	ServerURL         string `json:"server_url,omitempty" yaml:"server_url,omitempty" hcl:"server_url,optional"`
	Timeout           string `json:"timeout,omitempty" yaml:"timeout,omitempty" hcl:"timeout,optional"`
	ForceUpdate       *bool  `json:"force_update,omitempty" yaml:"force_update,omitempty" hcl:"force_update,optional"`
	SessionFile       string `json:"session_file,omitempty" yaml:"session_file,omitempty" hcl:"session_file,optional"`
	Debounce          string `json:"debounce,omitempty" yaml:"debounce,omitempty" hcl:"debounce,optional"`
	Throttle          string `json:"throttle,omitempty" yaml:"throttle,omitempty" hcl:"throttle,optional"`
	KeyPattern        string `json:"key_pattern,omitempty" yaml:"key_pattern,omitempty" hcl:"key_pattern,optional"`
	StaleAfter        string `json:"stale_after,omitempty" yaml:"stale_after,omitempty" hcl:"stale_after,optional"`
	DownloadDir       string `json:"download_dir,omitempty" yaml:"download_dir,omitempty" hcl:"download_dir,optional"`
	UploadConcurrency int    `json:"upload_concurrency,omitempty" yaml:"upload_concurrency,omitempty" hcl:"upload_concurrency,optional"`

	location  string
	durations durations
}

type durations struct {
	timeout    time.Duration
	debounce   time.Duration
	throttle   time.Duration
	staleAfter time.Duration
}

// 🏭 Default returns a validated configuration with every default applied
func Default() *Config {
	cfg := &Config{}
	// defaults always validate
	_ = Validate(context.Background(), cfg)
	return cfg
}

// 🔍 Validate fills defaults and checks the configuration
func Validate(ctx context.Context, cfg *Config) error {
	zerolog.Ctx(ctx).Debug().Str("location", cfg.location).Msg("validating configuration")

	if cfg.ServerURL == "" {
		cfg.ServerURL = DefaultServerURL
	}
	if cfg.Timeout == "" {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.ForceUpdate == nil {
		t := true
		cfg.ForceUpdate = &t
	}
	if cfg.SessionFile == "" {
		cfg.SessionFile = DefaultSessionFile
	}
	if cfg.Debounce == "" {
		cfg.Debounce = DefaultDebounce
	}
	if cfg.Throttle == "" {
		cfg.Throttle = DefaultThrottle
	}
	if cfg.KeyPattern == "" {
		cfg.KeyPattern = DefaultKeyPattern
	}
	if cfg.StaleAfter == "" {
		cfg.StaleAfter = DefaultStaleAfter
	}
	if cfg.DownloadDir == "" {
		cfg.DownloadDir = DefaultDownloadDir
	}
	if cfg.UploadConcurrency == 0 {
		cfg.UploadConcurrency = DefaultUploadConcurrency
	}

	u, err := url.Parse(cfg.ServerURL)
	if err != nil {
		return errors.Errorf("parsing server_url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return errors.Errorf("server_url must be http or https, got %q", cfg.ServerURL)
	}
	if u.Host == "" {
		return errors.Errorf("server_url has no host: %q", cfg.ServerURL)
	}
	cfg.ServerURL = strings.TrimRight(cfg.ServerURL, "/")

	if !doublestar.ValidatePattern(cfg.KeyPattern) {
		return errors.Errorf("invalid key_pattern %q", cfg.KeyPattern)
	}

	if cfg.UploadConcurrency < 0 {
		return errors.Errorf("upload_concurrency must be positive, got %d", cfg.UploadConcurrency)
	}

	for _, d := range []struct {
		name string
		raw  string
		dst  *time.Duration
	}{
		{"timeout", cfg.Timeout, &cfg.durations.timeout},
		{"debounce", cfg.Debounce, &cfg.durations.debounce},
		{"throttle", cfg.Throttle, &cfg.durations.throttle},
		{"stale_after", cfg.StaleAfter, &cfg.durations.staleAfter},
	} {
		v, err := time.ParseDuration(d.raw)
		if err != nil {
			return errors.Errorf("parsing %s: %w", d.name, err)
		}
		if v <= 0 {
			return errors.Errorf("%s must be positive, got %s", d.name, d.raw)
		}
		*d.dst = v
	}

	cfg.SessionFile = filepath.Clean(cfg.SessionFile)
	cfg.DownloadDir = filepath.Clean(cfg.DownloadDir)

	return nil
}

// 🌍 ApplyEnv overrides values from the environment
func (cfg *Config) ApplyEnv() {
	if v := os.Getenv(EnvServerURL); v != "" {
		cfg.ServerURL = v
	}
	if v := os.Getenv(EnvSessionFile); v != "" {
		cfg.SessionFile = v
	}
}

// Location returns the file the config was loaded from, if any
func (cfg *Config) Location() string {
	return cfg.location
}

// TimeoutDuration is the HTTP timeout for remote calls
func (cfg *Config) TimeoutDuration() time.Duration {
	return cfg.durations.timeout
}

// DebounceDuration is the quiet window before an edited text is saved
func (cfg *Config) DebounceDuration() time.Duration {
	return cfg.durations.debounce
}

// ThrottleDuration is the minimum gap between two blur saves
func (cfg *Config) ThrottleDuration() time.Duration {
	return cfg.durations.throttle
}

// StaleAfterDuration is how long a fetched key list stays fresh
func (cfg *Config) StaleAfterDuration() time.Duration {
	return cfg.durations.staleAfter
}

// ShouldForceUpdate reports whether save_text overwrites existing text
func (cfg *Config) ShouldForceUpdate() bool {
	return cfg.ForceUpdate == nil || *cfg.ForceUpdate
}

// 📝 String returns a string representation of the config
func (cfg *Config) String() string {
	return fmt.Sprintf("%s (session %s, keys %s)", cfg.ServerURL, cfg.SessionFile, cfg.KeyPattern)
}

// 🔧 YAMLParser implements the Parser interface for YAML files
type YAMLParser struct{}

func init() {
	Register(&YAMLParser{})
}

func (p *YAMLParser) CanParse(filename string) bool {
	return strings.HasSuffix(filename, ".yaml") || strings.HasSuffix(filename, ".yml")
}

func (p *YAMLParser) Parse(ctx context.Context, data []byte) (*Config, error) {
	var cfg Config
	decoder := yaml.NewDecoder(strings.NewReader(string(data)))
	decoder.KnownFields(true)
	if err := decoder.Decode(&cfg); err != nil {
		return nil, errors.Errorf("parsing YAML: %w", err)
	}
	return &cfg, nil
}
