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

package remote

import (
	"context"
	"io"

	"github.com/walteh/secenc/pkg/operation"
)

// TextService is the text half of the remote service
type TextService interface {
	// SaveText stores the session text on the server. Empty text is sent as null.
	SaveText(ctx context.Context, text string) error
	// ProcessText runs one operation on the server and returns its result
	ProcessText(ctx context.Context, req ProcessRequest) (string, error)
}

// KeyService is the key file registry of the remote service
type KeyService interface {
	// ListFiles returns every filename the server holds, unfiltered
	ListFiles(ctx context.Context) ([]string, error)
	// DownloadKey returns the raw content of a key file
	DownloadKey(ctx context.Context, name string) (io.ReadCloser, error)
	// DeleteKey removes a key file and returns the server's message
	DeleteKey(ctx context.Context, name string) (string, error)
	// UploadKey sends one file as multipart field "file"
	UploadKey(ctx context.Context, name string, content io.Reader) (UploadResult, error)
}

// ProcessRequest is the body of a process call
type ProcessRequest struct {
	Text      string           `json:"text"`
	Operation operation.ID     `json:"operation"`
	Action    operation.Action `json:"action"`
}

// UploadResult is what the server reports for an accepted upload
type UploadResult struct {
	Message string `json:"message"`
	// Filename is the name the server stored the file under, which may differ from the upload
	Filename string `json:"filename"`
}
