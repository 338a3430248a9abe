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
	"os"
	"path/filepath"
	"slices"
	"sync"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/walteh/secenc/pkg/remote"
	"github.com/walteh/secenc/pkg/status"
)

const (
	DefaultPattern     = "*.pem"
	DefaultStaleAfter  = 30 * time.Second
	DefaultConcurrency = 4
)

var (
	ErrInvalidName = errors.Base("invalid key file name")
	ErrNoFile      = errors.Base("no file selected")
)

// FileSink receives the cached list whenever it changes. state.Store satisfies it.
type FileSink interface {
	SetFiles(ctx context.Context, files []string) error
}

// Option configures a Registry
type Option func(*Registry)

func WithPattern(pattern string) Option {
	return func(r *Registry) { r.pattern = pattern }
}

func WithStaleAfter(d time.Duration) Option {
	return func(r *Registry) { r.staleAfter = d }
}

func WithConcurrency(n int) Option {
	return func(r *Registry) { r.concurrency = n }
}

// WithNow replaces the time source used for staleness
func WithNow(now func() time.Time) Option {
	return func(r *Registry) { r.now = now }
}

// WithSink mirrors the cached list into sink
func WithSink(sink FileSink) Option {
	return func(r *Registry) { r.sink = sink }
}

// WithFiles seeds the cache as stale, so it is shown but refetched on the next List
func WithFiles(files []string) Option {
	return func(r *Registry) { r.files = slices.Clone(files) }
}

// 🗂️ Registry is a client-side cache of the server's key files
type Registry struct {
	svc         remote.KeyService
	pattern     string
	staleAfter  time.Duration
	concurrency int
	now         func() time.Time
	sink        FileSink

	group singleflight.Group

	mu        sync.Mutex
	files     []string
	fetchedAt time.Time
	fresh     bool
	gen       uint64
	states    map[Kind]MutationState

	// generation at which each name was deleted, for fetches that started earlier
	removed map[string]uint64
}

// 🏭 New creates a registry over svc
func New(svc remote.KeyService, opts ...Option) (*Registry, error) {
	r := &Registry{
		svc:         svc,
		pattern:     DefaultPattern,
		staleAfter:  DefaultStaleAfter,
		concurrency: DefaultConcurrency,
		now:         time.Now,
		removed:     make(map[string]uint64),
		states:      make(map[Kind]MutationState),
	}
	for _, opt := range opts {
		opt(r)
	}

	if !doublestar.ValidatePattern(r.pattern) {
		return nil, errors.Errorf("invalid key pattern %q", r.pattern)
	}
	if r.concurrency < 1 {
		r.concurrency = 1
	}
	return r, nil
}

// 📋 List returns the cached key files while fresh, otherwise fetches them.
// Concurrent callers share one fetch.
func (r *Registry) List(ctx context.Context) ([]string, error) {
	r.mu.Lock()
	if r.fresh && r.now().Sub(r.fetchedAt) < r.staleAfter {
		files := slices.Clone(r.files)
		r.mu.Unlock()
		return files, nil
	}
	gen := r.gen
	r.mu.Unlock()

	v, err, shared := r.group.Do("list", func() (any, error) {
		all, err := r.svc.ListFiles(ctx)
		if err != nil {
			return nil, err
		}
		return r.filter(all), nil
	})
	if err != nil {
		return nil, errors.Errorf("listing key files: %w", err)
	}
	files := v.([]string)

	zerolog.Ctx(ctx).Debug().Int("count", len(files)).Bool("shared", shared).Msg("key files fetched")

	r.mu.Lock()
	// names deleted while the fetch was in flight stay deleted
	files = slices.DeleteFunc(slices.Clone(files), func(f string) bool {
		g, ok := r.removed[f]
		return ok && g > gen
	})
	// an invalidation or delete during the fetch keeps the result stale
	current := gen == r.gen
	if current {
		r.files = slices.Clone(files)
		r.fetchedAt = r.now()
		r.fresh = true
		clear(r.removed)
	}
	r.mu.Unlock()

	if current {
		r.mirror(ctx, files)
	}
	return files, nil
}

// Cached returns the cached list without fetching
func (r *Registry) Cached() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.files)
}

// Invalidate forces the next List to fetch
func (r *Registry) Invalidate() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.fresh = false
	r.gen++
}

// Refresh invalidates and lists again
func (r *Registry) Refresh(ctx context.Context) ([]string, error) {
	r.Invalidate()
	return r.List(ctx)
}

func (r *Registry) filter(all []string) []string {
	files := make([]string, 0, len(all))
	for _, name := range all {
		if ok, _ := doublestar.Match(r.pattern, name); ok {
			files = append(files, name)
		}
	}
	return files
}

func (r *Registry) mirror(ctx context.Context, files []string) {
	if r.sink == nil {
		return
	}
	if err := r.sink.SetFiles(ctx, files); err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Msg("mirroring key files")
	}
}

// State reports the latest state of kind
func (r *Registry) State(kind Kind) MutationState {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.states[kind]
}

func (r *Registry) begin(kind Kind, target string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.states[kind] = MutationState{Phase: InFlight, Target: target, At: r.now()}
}

func (r *Registry) finish(kind Kind, target string, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	st := MutationState{Phase: Succeeded, Target: target, At: r.now()}
	if err != nil {
		st.Phase = Failed
		st.Err = err
	}
	r.states[kind] = st
}

func cleanName(name string) (string, error) {
	base := filepath.Base(name)
	if name == "" || base != name || base == "." || base == ".." {
		return "", errors.Errorf("%w: %q", ErrInvalidName, name)
	}
	return base, nil
}

// 📥 Download saves name into dir. The cached list is not touched.
func (r *Registry) Download(ctx context.Context, name, dir string) (string, status.Alert, error) {
	r.begin(KindDownload, name)

	path, err := r.download(ctx, name, dir)
	r.finish(KindDownload, name, err)
	if err != nil {
		return "", status.Dangerf("Error downloading file: %s", remote.Message(err)), err
	}

	zerolog.Ctx(ctx).Info().Str("path", path).Msg("key file downloaded")
	return path, status.Successf("File downloaded successfully!"), nil
}

func (r *Registry) download(ctx context.Context, name, dir string) (string, error) {
	base, err := cleanName(name)
	if err != nil {
		return "", err
	}

	rc, err := r.svc.DownloadKey(ctx, name)
	if err != nil {
		return "", err
	}
	defer rc.Close()

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", errors.Errorf("creating download directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+base+".*.tmp")
	if err != nil {
		return "", errors.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := io.Copy(tmp, rc); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return "", errors.Errorf("writing %s: %w", base, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return "", errors.Errorf("closing temp file: %w", err)
	}

	target := filepath.Join(dir, base)
	if err := os.Rename(tmpPath, target); err != nil {
		os.Remove(tmpPath)
		return "", errors.Errorf("renaming temp file: %w", err)
	}
	return target, nil
}

// 🗑️ Delete removes name remotely. On success the cached list drops it without
// a refetch; on failure the cache is left untouched.
func (r *Registry) Delete(ctx context.Context, name string) (status.Alert, error) {
	r.begin(KindDelete, name)

	_, err := r.svc.DeleteKey(ctx, name)
	r.finish(KindDelete, name, err)
	if err != nil {
		return status.Dangerf("Error deleting file: %s", remote.Message(err)), errors.Errorf("deleting %s: %w", name, err)
	}

	r.mu.Lock()
	r.files = slices.DeleteFunc(r.files, func(f string) bool { return f == name })
	r.gen++
	r.removed[name] = r.gen
	files := slices.Clone(r.files)
	r.mu.Unlock()

	r.mirror(ctx, files)
	return status.Successf("File deleted successfully"), nil
}

// 📤 Upload sends the file at path. On success the cache is invalidated, since the
// server may store it under a different name.
func (r *Registry) Upload(ctx context.Context, path string) (remote.UploadResult, status.Alert, error) {
	if path == "" {
		return remote.UploadResult{}, status.Dangerf("Please select a file to upload."), ErrNoFile
	}

	r.begin(KindUpload, path)

	res, err := r.upload(ctx, path)
	r.finish(KindUpload, path, err)
	if err != nil {
		return remote.UploadResult{}, status.Dangerf("Error: %s", remote.Message(err)), err
	}

	r.Invalidate()
	return res, status.Successf("File %s uploaded successfully!", res.Filename), nil
}

func (r *Registry) upload(ctx context.Context, path string) (remote.UploadResult, error) {
	f, err := os.Open(path)
	if err != nil {
		return remote.UploadResult{}, errors.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	name := filepath.Base(path)
	res, err := r.svc.UploadKey(ctx, name, f)
	if err != nil {
		return remote.UploadResult{}, errors.Errorf("uploading %s: %w", name, err)
	}
	if res.Filename == "" {
		res.Filename = name
	}
	return res, nil
}

// UploadResult pairs one path with its outcome in UploadAll
type UploadResult struct {
	Path   string
	Result remote.UploadResult
	Alert  status.Alert
	Err    error
}

// 📦 UploadAll uploads every path with bounded concurrency. Each upload is
// independent; the returned slice follows the order of paths.
func (r *Registry) UploadAll(ctx context.Context, paths []string) []UploadResult {
	results := make([]UploadResult, len(paths))

	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(r.concurrency)

	for i, p := range paths {
		eg.Go(func() error {
			res, alert, err := r.Upload(ctx, p)
			results[i] = UploadResult{Path: p, Result: res, Alert: alert, Err: err}
			return nil
		})
	}
	_ = eg.Wait()

	return results
}
