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
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gitlab.com/tozd/go/errors"

	"github.com/walteh/secenc/cmd/secenc/commands"
	"github.com/walteh/secenc/cmd/secenc/opts"
	"github.com/walteh/secenc/pkg/remote"
	"github.com/walteh/secenc/pkg/remote/remotetest"
	"github.com/walteh/secenc/pkg/testutils"
)

type harness struct {
	t       *testing.T
	server  string
	session string
	backend *remotetest.Backend
}

func newHarness(t *testing.T) *harness {
	b := remotetest.New()
	return &harness{
		t:       t,
		server:  remotetest.Start(t, b),
		session: filepath.Join(t.TempDir(), "session.json"),
		backend: b,
	}
}

func (h *harness) run(stdin string, args ...string) (string, error) {
	h.t.Helper()
	ctx := testutils.LoggerContext(h.t)

	root := newRootCmd(&opts.RootOpts{})
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetIn(strings.NewReader(stdin))
	root.SetArgs(append([]string{
		"--config", filepath.Join(h.t.TempDir(), "missing.yaml"),
		"--server", h.server,
		"--session", h.session,
	}, args...))

	err := root.ExecuteContext(ctx)
	return out.String(), err
}

func (h *harness) sessionValue(key string) string {
	h.t.Helper()
	raw, err := os.ReadFile(h.session)
	require.NoError(h.t, err, "session file should exist")
	var data map[string]string
	require.NoError(h.t, json.Unmarshal(raw, &data))
	return data[key]
}

func TestMissingExplicitConfig(t *testing.T) {
	h := newHarness(t)
	_, err := h.run("", "result")
	require.Error(t, err, "an explicit config path must exist")
	assert.Contains(t, err.Error(), "loading config")
}

func TestTextCommand(t *testing.T) {
	h := newHarness(t)

	// --config is explicit in the harness, so point it at a real file
	cfgPath := testutils.WriteFile(t, t.TempDir(), "secenc.yaml", "debounce: 5s\n")

	run := func(stdin string, args ...string) (string, error) {
		return h.run(stdin, append([]string{"--config", cfgPath}, args...)...)
	}

	_, err := run("", "text", "abc")
	require.NoError(t, err)
	assert.Equal(t, "abc", h.sessionValue("text"))

	saved := h.backend.Text()
	require.NotNil(t, saved, "text should be saved to the server")
	assert.Equal(t, "abc", *saved)

	out, err := run("", "text")
	require.NoError(t, err)
	assert.Equal(t, "abc\n", out)

	_, err = run("from stdin\n", "text", "-")
	require.NoError(t, err)
	assert.Equal(t, "from stdin", h.sessionValue("text"))
}

func TestSubmitCommands(t *testing.T) {
	h := newHarness(t)
	cfgPath := testutils.WriteFile(t, t.TempDir(), "secenc.yaml", "server_url: http://localhost:5000\n")
	run := func(args ...string) (string, error) {
		return h.run("", append([]string{"--config", cfgPath}, args...)...)
	}

	out, err := run("encode", "--text", "Hello")
	require.Error(t, err)
	assert.True(t, errors.Is(err, commands.ErrReported))
	assert.Contains(t, out, "Please select an operation.")
	assert.Equal(t, 0, h.backend.Calls(remote.EndpointProcessText), "validation never reaches the server")

	out, err = run("encode", "--operation", "base64")
	require.NoError(t, err)
	assert.Contains(t, out, "encode:base64:Hello")
	assert.Equal(t, "encode:base64:Hello", h.sessionValue("result"))
	assert.Equal(t, "encode", h.sessionValue("action"))

	out, err = run("result")
	require.NoError(t, err)
	assert.Equal(t, "encode:base64:Hello\n", out)

	_, err = run("clean")
	require.NoError(t, err)
	assert.Equal(t, "", h.sessionValue("result"))
	assert.Equal(t, "", h.sessionValue("text"))
	assert.Equal(t, "base64", h.sessionValue("operation"), "clean keeps the operation")

	out, err = run("decode")
	require.Error(t, err)
	assert.Contains(t, out, "Please enter text to process.")
}

func TestKeysCommands(t *testing.T) {
	h := newHarness(t)
	downloads := t.TempDir()
	cfgPath := testutils.WriteFile(t, t.TempDir(), "secenc.yaml", "download_dir: "+downloads+"\n")
	run := func(args ...string) (string, error) {
		return h.run("", append([]string{"--config", cfgPath}, args...)...)
	}

	src := testutils.WriteFile(t, t.TempDir(), "key.pem", "secret")
	h.backend.PutFile("other.pem", []byte("other"))
	h.backend.PutFile("readme.txt", []byte("x"))

	out, err := run("keys", "upload", src)
	require.NoError(t, err)
	assert.Contains(t, out, "File key.pem uploaded successfully!")

	out, err = run("keys", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "key.pem")
	assert.Contains(t, out, "other.pem")
	assert.NotContains(t, out, "readme.txt")
	assert.Equal(t, `["key.pem","other.pem"]`, h.sessionValue("files"))

	out, err = run("keys", "download", "key.pem")
	require.NoError(t, err)
	assert.Contains(t, out, "File downloaded successfully!")
	content, err := os.ReadFile(filepath.Join(downloads, "key.pem"))
	require.NoError(t, err)
	assert.Equal(t, "secret", string(content))

	out, err = run("keys", "delete", "key.pem")
	require.NoError(t, err)
	assert.Contains(t, out, "File deleted successfully")
	assert.Equal(t, `["other.pem"]`, h.sessionValue("files"))

	out, err = run("keys", "delete", "key.pem")
	require.Error(t, err)
	assert.Contains(t, out, "Error deleting file: File not found")
	assert.Equal(t, `["other.pem"]`, h.sessionValue("files"))
}

func TestEditCommand(t *testing.T) {
	h := newHarness(t)
	cfgPath := testutils.WriteFile(t, t.TempDir(), "secenc.yaml", "debounce: 1h\n")

	out, err := h.run("first line\nsecond line\n", "--config", cfgPath, "edit")
	require.NoError(t, err)
	assert.Contains(t, out, "Text saved")

	assert.Equal(t, "first line\nsecond line", h.sessionValue("text"))
	saved := h.backend.Saved()
	require.Len(t, saved, 1, "end of input saves once; the pending debounce is skipped by the marker")
	assert.Equal(t, "first line\nsecond line", *saved[0])
}

func TestVersionSkipsInit(t *testing.T) {
	root := newRootCmd(&opts.RootOpts{})
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs([]string{"version", "--json", "--config", "/does/not/exist.yaml"})

	require.NoError(t, root.ExecuteContext(context.Background()))

	var info VersionInfo
	require.NoError(t, json.Unmarshal(out.Bytes(), &info))
	assert.NotEmpty(t, info.GoVersion)
}
