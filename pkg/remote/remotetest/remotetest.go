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

// Package remotetest runs an in-process encoder service for tests.
package remotetest

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"path"
	"sort"
	"strings"
	"sync"
	"testing"

	"github.com/gorilla/mux"

	"github.com/walteh/secenc/pkg/remote"
)

// ProcessFunc computes a process_text answer. A returned error becomes a 400 {error}.
type ProcessFunc func(req remote.ProcessRequest) (string, error)

type failure struct {
	status int
	body   any
}

// 🧪 Backend is a fake encoder service holding files and text in memory
type Backend struct {
	mu       sync.Mutex
	files    map[string][]byte
	text     *string
	calls    map[string]int
	failures map[string]failure
	process  ProcessFunc
	requests []remote.ProcessRequest
	saved    []*string
}

// New creates an empty backend whose process_text echoes "<action>:<operation>:<text>"
func New() *Backend {
	return &Backend{
		files:    make(map[string][]byte),
		calls:    make(map[string]int),
		failures: make(map[string]failure),
		process: func(req remote.ProcessRequest) (string, error) {
			return fmt.Sprintf("%s:%s:%s", req.Action, req.Operation, req.Text), nil
		},
	}
}

// Start serves b until the test ends and returns the server URL
func Start(t testing.TB, b *Backend) string {
	t.Helper()
	srv := httptest.NewServer(b.Router())
	t.Cleanup(srv.Close)
	return srv.URL
}

// Router exposes the service routes
func (b *Backend) Router() http.Handler {
	r := mux.NewRouter()
	r.Use(b.count)

	r.Methods(http.MethodGet).Path("/api/files").HandlerFunc(b.listFiles).Name(remote.EndpointFiles)
	r.Methods(http.MethodGet).Path("/api/download_key/{filename}").HandlerFunc(b.downloadKey).Name(remote.EndpointDownloadKey)
	r.Methods(http.MethodDelete).Path("/api/delete_key/{filename}").HandlerFunc(b.deleteKey).Name(remote.EndpointDeleteKey)
	r.Methods(http.MethodPost).Path("/api/upload_key").HandlerFunc(b.uploadKey).Name(remote.EndpointUploadKey)
	r.Methods(http.MethodPatch).Path("/api/save_text").HandlerFunc(b.saveText).Name(remote.EndpointSaveText)
	r.Methods(http.MethodPost).Path("/api/process_text").HandlerFunc(b.processText).Name(remote.EndpointProcessText)

	return r
}

// count tallies calls per route and serves injected failures
func (b *Backend) count(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		route := mux.CurrentRoute(r)
		if route == nil {
			next.ServeHTTP(w, r)
			return
		}
		name := route.GetName()

		b.mu.Lock()
		b.calls[name]++
		f, failing := b.failures[name]
		b.mu.Unlock()

		if failing {
			writeJSON(w, f.status, f.body)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// PutFile stores a file as if it had been uploaded
func (b *Backend) PutFile(name string, content []byte) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.files[name] = content
}

// Files lists stored filenames, sorted
func (b *Backend) Files() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.sortedLocked()
}

func (b *Backend) sortedLocked() []string {
	names := make([]string, 0, len(b.files))
	for name := range b.files {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Text is the saved text, nil when none was ever saved
func (b *Backend) Text() *string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.text
}

// Saved returns every new_text received by save_text, in order
func (b *Backend) Saved() []*string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]*string(nil), b.saved...)
}

// Processed returns every process_text request, in order
func (b *Backend) Processed() []remote.ProcessRequest {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]remote.ProcessRequest(nil), b.requests...)
}

// Calls reports how many requests reached endpoint
func (b *Backend) Calls(endpoint string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.calls[endpoint]
}

// Fail makes endpoint answer status with body until Recover is called
func (b *Backend) Fail(endpoint string, status int, body any) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failures[endpoint] = failure{status: status, body: body}
}

// Recover clears an injected failure
func (b *Backend) Recover(endpoint string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.failures, endpoint)
}

// OnProcess replaces the process_text behaviour
func (b *Backend) OnProcess(fn ProcessFunc) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.process = fn
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	if body == nil {
		w.WriteHeader(status)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

type message struct {
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}

func (b *Backend) listFiles(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	names := b.sortedLocked()
	b.mu.Unlock()
	writeJSON(w, http.StatusOK, names)
}

func (b *Backend) downloadKey(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["filename"]

	b.mu.Lock()
	content, ok := b.files[name]
	b.mu.Unlock()

	if !ok {
		writeJSON(w, http.StatusNotFound, message{Error: "Key not found"})
		return
	}
	w.Header().Set("Content-Type", "application/octet-stream")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	_, _ = w.Write(content)
}

func (b *Backend) deleteKey(w http.ResponseWriter, r *http.Request) {
	name := normalise(mux.Vars(r)["filename"])

	b.mu.Lock()
	_, ok := b.files[name]
	delete(b.files, name)
	b.mu.Unlock()

	if !ok {
		writeJSON(w, http.StatusNotFound, message{Error: "File not found"})
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (b *Backend) uploadKey(w http.ResponseWriter, r *http.Request) {
	file, header, err := r.FormFile("file")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, message{Error: "No file part"})
		return
	}
	defer file.Close()

	if header.Filename == "" {
		writeJSON(w, http.StatusBadRequest, message{Error: "No file selected"})
		return
	}
	if !strings.EqualFold(path.Ext(header.Filename), ".pem") {
		writeJSON(w, http.StatusBadRequest, message{Error: "Invalid file type, a '.pem' file is needed"})
		return
	}

	content, err := io.ReadAll(file)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, message{Error: err.Error()})
		return
	}

	name := normalise(header.Filename)
	b.PutFile(name, content)
	writeJSON(w, http.StatusCreated, remote.UploadResult{Message: "File uploaded successfully", Filename: name})
}

func (b *Backend) saveText(w http.ResponseWriter, r *http.Request) {
	var body struct {
		NewText *string `json:"new_text"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, message{Error: "invalid json"})
		return
	}
	force := r.URL.Query().Get("force_update") == "true"

	b.mu.Lock()
	defer b.mu.Unlock()
	b.saved = append(b.saved, body.NewText)

	switch {
	case b.text == nil && body.NewText == nil:
		w.WriteHeader(http.StatusNoContent)
	case b.text == nil:
		b.text = body.NewText
		writeJSON(w, http.StatusCreated, message{Message: "Text created successfully"})
	case body.NewText == nil:
		w.WriteHeader(http.StatusNotModified)
	case force:
		b.text = body.NewText
		writeJSON(w, http.StatusOK, message{Message: "Text updated successfully"})
	default:
		writeJSON(w, http.StatusConflict, message{Message: "Text already exists, use force_update to overwrite"})
	}
}

func (b *Backend) processText(w http.ResponseWriter, r *http.Request) {
	var req remote.ProcessRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, message{Error: "invalid json"})
		return
	}

	b.mu.Lock()
	b.requests = append(b.requests, req)
	process := b.process
	b.mu.Unlock()

	result, err := process(req)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, message{Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"result": result})
}

// normalise mimics the server's filename sanitising: base name, spaces to underscores
func normalise(name string) string {
	name = path.Base(strings.ReplaceAll(name, "\\", "/"))
	name = strings.Join(strings.Fields(name), "_")
	return strings.TrimLeft(name, ".")
}
