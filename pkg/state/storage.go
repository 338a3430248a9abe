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

package state

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"
)

// 💾 Storage is a flat string key/value store scoped to one session
type Storage interface {
	// Get returns the value stored under key
	Get(key string) (string, bool)
	// Set stores value under key, synchronously
	Set(ctx context.Context, key, value string) error
	// Clear drops every key, ending the session
	Clear(ctx context.Context) error
}

// 📄 FileStorage keeps the session as a JSON object on disk
type FileStorage struct {
	mu   sync.Mutex
	path string
	data map[string]string
}

// 🏭 OpenFileStorage opens the session file at path, starting empty when it does not exist
func OpenFileStorage(ctx context.Context, path string) (*FileStorage, error) {
	zerolog.Ctx(ctx).Debug().Str("path", path).Msg("opening session storage")

	fs := &FileStorage{
		path: filepath.Clean(path),
		data: make(map[string]string),
	}

	raw, err := os.ReadFile(fs.path)
	if err != nil {
		if os.IsNotExist(err) {
			return fs, nil
		}
		return nil, errors.Errorf("reading session file: %w", err)
	}

	if len(raw) == 0 {
		return fs, nil
	}

	if err := json.Unmarshal(raw, &fs.data); err != nil {
		return nil, errors.Errorf("decoding session file %s: %w", fs.path, err)
	}
	if fs.data == nil {
		fs.data = make(map[string]string)
	}

	return fs, nil
}

// Path returns the session file location
func (fs *FileStorage) Path() string {
	return fs.path
}

func (fs *FileStorage) Get(key string) (string, bool) {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	v, ok := fs.data[key]
	return v, ok
}

func (fs *FileStorage) Set(ctx context.Context, key, value string) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	prev, had := fs.data[key]
	fs.data[key] = value

	if err := fs.writeLocked(); err != nil {
		if had {
			fs.data[key] = prev
		} else {
			delete(fs.data, key)
		}
		return errors.Errorf("persisting %s: %w", key, err)
	}

	zerolog.Ctx(ctx).Trace().Str("key", key).Int("size", len(value)).Msg("session key written")
	return nil
}

func (fs *FileStorage) Clear(ctx context.Context) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	fs.data = make(map[string]string)
	if err := os.Remove(fs.path); err != nil && !os.IsNotExist(err) {
		return errors.Errorf("removing session file: %w", err)
	}

	zerolog.Ctx(ctx).Debug().Str("path", fs.path).Msg("session cleared")
	return nil
}

// 🔒 writeLocked writes the whole object atomically (temp file then rename)
func (fs *FileStorage) writeLocked() error {
	if err := os.MkdirAll(filepath.Dir(fs.path), 0o700); err != nil {
		return errors.Errorf("creating session directory: %w", err)
	}

	content, err := json.MarshalIndent(fs.data, "", "  ")
	if err != nil {
		return errors.Errorf("encoding session: %w", err)
	}

	tempPath := fs.path + ".tmp"
	if err := os.WriteFile(tempPath, content, 0o600); err != nil {
		return errors.Errorf("writing temp file: %w", err)
	}

	if err := os.Rename(tempPath, fs.path); err != nil {
		os.Remove(tempPath)
		return errors.Errorf("renaming temp file: %w", err)
	}

	return nil
}

// 🧠 MemoryStorage is an in-process Storage
type MemoryStorage struct {
	mu   sync.Mutex
	data map[string]string
}

// NewMemoryStorage creates an empty in-memory storage
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{data: make(map[string]string)}
}

func (m *MemoryStorage) Get(key string) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	return v, ok
}

func (m *MemoryStorage) Set(ctx context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
	return nil
}

func (m *MemoryStorage) Clear(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data = make(map[string]string)
	return nil
}
