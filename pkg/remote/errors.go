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
	"fmt"
	"net/http"

	"gitlab.com/tozd/go/errors"
)

var ErrRequest = errors.Base("remote request failed")

// 🚨 APIError is a non-2xx answer from the service
type APIError struct {
	Endpoint   string
	StatusCode int
	// Message is the server's error or message field, or a per-call fallback
	Message string
}

func (e *APIError) Error() string {
	return e.Message
}

// Is lets errors.Is match any APIError against ErrRequest
func (e *APIError) Is(target error) bool {
	return target == ErrRequest
}

// NotFound reports a 404
func (e *APIError) NotFound() bool {
	return e.StatusCode == http.StatusNotFound
}

// Conflict reports a 409, which save_text returns when text exists and force_update is off
func (e *APIError) Conflict() bool {
	return e.StatusCode == http.StatusConflict
}

func (e *APIError) String() string {
	return fmt.Sprintf("%s: %d %s", e.Endpoint, e.StatusCode, e.Message)
}
