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

package registry

import (
	"context"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gitlab.com/tozd/go/errors"

	"github.com/walteh/secenc/pkg/remote"
	"github.com/walteh/secenc/pkg/remote/remotetest"
	"github.com/walteh/secenc/pkg/state"
	"github.com/walteh/secenc/pkg/status"
	"github.com/walteh/secenc/pkg/testutils"
)

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func setup(t *testing.T, opts ...Option) (context.Context, *remotetest.Backend, *Registry, *testClock) {
	t.Helper()
	ctx := testutils.LoggerContext(t)
	b := remotetest.New()
	client, err := remote.NewClient(remotetest.Start(t, b))
	require.NoError(t, err)

	clock := &testClock{now: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)}
	r, err := New(client, append([]Option{WithNow(clock.Now)}, opts...)...)
	require.NoError(t, err)
	return ctx, b, r, clock
}

func TestNewRejectsBadPattern(t *testing.T) {
	_, err := New(nil, WithPattern("[unclosed"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid key pattern")
}

func TestListFiltersAndCaches(t *testing.T) {
	ctx, b, r, clock := setup(t)
	b.PutFile("key.pem", nil)
	b.PutFile("readme.txt", nil)
	b.PutFile("other.pem", nil)

	files, err := r.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"key.pem", "other.pem"}, files)
	assert.Equal(t, 1, b.Calls(remote.EndpointFiles))

	b.PutFile("new.pem", nil)
	clock.Advance(29 * time.Second)
	files, err = r.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"key.pem", "other.pem"}, files, "fresh cache is served")
	assert.Equal(t, 1, b.Calls(remote.EndpointFiles))

	clock.Advance(time.Second)
	files, err = r.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"key.pem", "new.pem", "other.pem"}, files, "stale cache is refetched")
	assert.Equal(t, 2, b.Calls(remote.EndpointFiles))
}

func TestListInvalidate(t *testing.T) {
	ctx, b, r, _ := setup(t)
	b.PutFile("key.pem", nil)

	_, err := r.List(ctx)
	require.NoError(t, err)
	r.Invalidate()
	_, err = r.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, b.Calls(remote.EndpointFiles))
}

func TestListError(t *testing.T) {
	ctx, b, r, _ := setup(t)
	b.Fail(remote.EndpointFiles, http.StatusInternalServerError, map[string]string{"error": "disk gone"})

	_, err := r.List(ctx)
	require.Error(t, err)
	assert.Equal(t, "disk gone", remote.Message(err))
}

func TestDelete(t *testing.T) {
	t.Run("failure_keeps_cache", func(t *testing.T) {
		ctx, b, r, _ := setup(t)
		b.PutFile("key.pem", nil)
		b.PutFile("other.pem", nil)
		_, err := r.List(ctx)
		require.NoError(t, err)

		b.Fail(remote.EndpointDeleteKey, http.StatusInternalServerError, map[string]string{"error": "locked"})
		alert, err := r.Delete(ctx, "key.pem")
		require.Error(t, err)
		assert.Equal(t, status.Danger, alert.Kind)
		assert.Equal(t, "Error deleting file: locked", alert.Message)
		assert.Contains(t, r.Cached(), "key.pem", "failed delete leaves the cache untouched")
		assert.Equal(t, Failed, r.State(KindDelete).Phase)
	})

	t.Run("success_filters_without_refetch", func(t *testing.T) {
		ctx, b, r, _ := setup(t)
		b.PutFile("key.pem", nil)
		b.PutFile("other.pem", nil)
		_, err := r.List(ctx)
		require.NoError(t, err)

		alert, err := r.Delete(ctx, "key.pem")
		require.NoError(t, err)
		assert.Equal(t, "File deleted successfully", alert.Message)
		assert.Equal(t, status.Success, alert.Kind)

		files, err := r.List(ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{"other.pem"}, files)
		assert.Equal(t, 1, b.Calls(remote.EndpointFiles), "no refetch after delete")
		assert.Equal(t, Succeeded, r.State(KindDelete).Phase)
	})
}

// slowKeys answers the first ListFiles with the files present when it was called,
// but only after release is closed
type slowKeys struct {
	mu      sync.Mutex
	files   []string
	lists   int
	entered chan struct{}
	release chan struct{}
}

func (k *slowKeys) ListFiles(ctx context.Context) ([]string, error) {
	k.mu.Lock()
	k.lists++
	first := k.lists == 1
	files := append([]string(nil), k.files...)
	k.mu.Unlock()

	if first {
		close(k.entered)
		<-k.release
	}
	return files, nil
}

func (k *slowKeys) DeleteKey(ctx context.Context, name string) (string, error) {
	k.mu.Lock()
	defer k.mu.Unlock()
	for i, f := range k.files {
		if f == name {
			k.files = append(k.files[:i], k.files[i+1:]...)
			break
		}
	}
	return "File deleted successfully", nil
}

func (k *slowKeys) DownloadKey(ctx context.Context, name string) (io.ReadCloser, error) {
	return nil, errors.New("not used")
}

func (k *slowKeys) UploadKey(ctx context.Context, name string, content io.Reader) (remote.UploadResult, error) {
	return remote.UploadResult{}, errors.New("not used")
}

func TestDeleteDuringListFetch(t *testing.T) {
	ctx := testutils.LoggerContext(t)
	store, err := state.New(ctx, state.NewMemoryStorage())
	require.NoError(t, err)

	keys := &slowKeys{
		files:   []string{"key.pem", "other.pem"},
		entered: make(chan struct{}),
		release: make(chan struct{}),
	}
	r, err := New(keys, WithSink(store))
	require.NoError(t, err)

	listed := make(chan []string, 1)
	go func() {
		files, err := r.List(ctx)
		assert.NoError(t, err)
		listed <- files
	}()

	<-keys.entered
	_, err = r.Delete(ctx, "key.pem")
	require.NoError(t, err)

	close(keys.release)
	assert.Equal(t, []string{"other.pem"}, <-listed, "the earlier fetch must not bring the deleted key back")
	assert.NotContains(t, r.Cached(), "key.pem")
	assert.NotContains(t, store.Files(), "key.pem")

	files, err := r.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"other.pem"}, files)
	assert.Equal(t, []string{"other.pem"}, store.Files())
	assert.Equal(t, 2, keys.lists, "a fetch that raced a delete is not trusted as fresh")
}

var _ remote.KeyService = (*slowKeys)(nil)

func TestDownload(t *testing.T) {
	ctx, b, r, _ := setup(t)
	b.PutFile("key.pem", []byte("-----BEGIN KEY-----"))
	dir := filepath.Join(t.TempDir(), "out")

	path, alert, err := r.Download(ctx, "key.pem", dir)
	require.NoError(t, err)
	assert.Equal(t, "File downloaded successfully!", alert.Message)
	assert.Equal(t, filepath.Join(dir, "key.pem"), path)

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "-----BEGIN KEY-----", string(content))
	assert.Equal(t, 0, b.Calls(remote.EndpointFiles), "download does not touch the list")

	_, alert, err = r.Download(ctx, "missing.pem", dir)
	require.Error(t, err)
	assert.Equal(t, "Error downloading file: Key not found", alert.Message)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "failed download leaves no temp files")

	_, _, err = r.Download(ctx, "../escape.pem", dir)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidName))
}

func TestUpload(t *testing.T) {
	ctx, b, r, _ := setup(t)
	b.PutFile("key.pem", nil)
	_, err := r.List(ctx)
	require.NoError(t, err)

	src := testutils.WriteFile(t, t.TempDir(), "my key.pem", "secret")

	res, alert, err := r.Upload(ctx, src)
	require.NoError(t, err)
	assert.Equal(t, "my_key.pem", res.Filename)
	assert.Equal(t, "File my_key.pem uploaded successfully!", alert.Message)
	assert.Equal(t, Succeeded, r.State(KindUpload).Phase)

	files, err := r.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"key.pem", "my_key.pem"}, files, "upload invalidates the cache")
	assert.Equal(t, 2, b.Calls(remote.EndpointFiles))
}

func TestUploadErrors(t *testing.T) {
	ctx, _, r, _ := setup(t)

	_, alert, err := r.Upload(ctx, "")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNoFile))
	assert.Equal(t, "Please select a file to upload.", alert.Message)

	src := testutils.WriteFile(t, t.TempDir(), "notes.txt", "x")
	_, alert, err = r.Upload(ctx, src)
	require.Error(t, err)
	assert.Equal(t, "Error: Invalid file type, a '.pem' file is needed", alert.Message)
	assert.Equal(t, Failed, r.State(KindUpload).Phase)
}

func TestUploadAll(t *testing.T) {
	ctx, b, r, _ := setup(t, WithConcurrency(2))
	dir := t.TempDir()

	var paths []string
	for _, name := range []string{"a.pem", "b.pem", "c.txt", "d.pem"} {
		paths = append(paths, testutils.WriteFile(t, dir, name, name))
	}

	results := r.UploadAll(ctx, paths)
	require.Len(t, results, 4)
	for i, res := range results {
		assert.Equal(t, paths[i], res.Path, "results keep input order")
	}
	assert.NoError(t, results[0].Err)
	assert.Error(t, results[2].Err, "non-pem upload fails on its own")
	assert.NoError(t, results[3].Err)
	assert.Equal(t, []string{"a.pem", "b.pem", "d.pem"}, b.Files())
}

func TestSinkMirrorsStore(t *testing.T) {
	ctx := testutils.LoggerContext(t)
	store, err := state.New(ctx, state.NewMemoryStorage())
	require.NoError(t, err)

	ctx, b, r, _ := setup(t, WithSink(store))
	b.PutFile("key.pem", nil)
	b.PutFile("other.pem", nil)

	_, err = r.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"key.pem", "other.pem"}, store.Files())

	_, err = r.Delete(ctx, "key.pem")
	require.NoError(t, err)
	assert.Equal(t, []string{"other.pem"}, store.Files())
}

func TestPhaseString(t *testing.T) {
	assert.Equal(t, "idle", Idle.String())
	assert.Equal(t, "in-flight", InFlight.String())
	assert.Equal(t, "success", Succeeded.String())
	assert.Equal(t, "error", Failed.String())
	assert.True(t, Failed.Terminal())
	assert.False(t, InFlight.Terminal())
}
