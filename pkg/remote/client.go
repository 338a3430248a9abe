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
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"
)

const (
	EndpointFiles       = "files"
	EndpointDownloadKey = "download_key"
	EndpointDeleteKey   = "delete_key"
	EndpointUploadKey   = "upload_key"
	EndpointSaveText    = "save_text"
	EndpointProcessText = "process_text"
)

// fallback messages when the server gives none
const (
	fallbackFiles    = "Failed to load files"
	fallbackDownload = "Error downloading file"
	fallbackDelete   = "Failed to delete file"
	fallbackUpload   = "Failed to upload file"
	fallbackSave     = "Failed to update text"
	fallbackProcess  = "Failed to process text"
)

const maxErrorBody = 1 << 20

var (
	_ TextService = (*Client)(nil)
	_ KeyService  = (*Client)(nil)
)

// 🌐 Client talks to the encoder service over HTTP
type Client struct {
	base        *url.URL
	http        *http.Client
	timeout     time.Duration
	forceUpdate bool
	metrics     *Metrics
}

// Option configures a Client
type Option func(*Client)

// WithHTTPClient replaces the default http.Client
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.http = hc
	}
}

// WithTimeout bounds every request. It applies whatever the option order and
// never changes a client passed to WithHTTPClient.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.timeout = d
	}
}

// WithForceUpdate controls the force_update query on save_text
func WithForceUpdate(force bool) Option {
	return func(c *Client) {
		c.forceUpdate = force
	}
}

// WithMetrics records every call on m
func WithMetrics(m *Metrics) Option {
	return func(c *Client) {
		c.metrics = m
	}
}

// 🏭 NewClient creates a client for the service at baseURL
func NewClient(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, errors.Errorf("parsing server url: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, errors.Errorf("server url %q needs a scheme and host", baseURL)
	}

	c := &Client{
		base:        u,
		http:        &http.Client{},
		forceUpdate: true,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.timeout > 0 {
		hc := *c.http
		hc.Timeout = c.timeout
		c.http = &hc
	}
	return c, nil
}

func (c *Client) endpointURL(query url.Values, elems ...string) string {
	var b strings.Builder
	b.WriteString(c.base.String())
	b.WriteString("/api")
	for _, e := range elems {
		b.WriteString("/")
		b.WriteString(url.PathEscape(e))
	}
	if len(query) > 0 {
		b.WriteString("?")
		b.WriteString(query.Encode())
	}
	return b.String()
}

// 🔄 do sends one request and records it. The caller owns resp.Body on success.
func (c *Client) do(ctx context.Context, endpoint string, req *http.Request, fallback string, ok ...int) (*http.Response, error) {
	logger := zerolog.Ctx(ctx).With().Str("endpoint", endpoint).Logger()
	logger.Debug().Str("method", req.Method).Str("url", req.URL.String()).Msg("calling encoder service")

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.metrics.observe(endpoint, outcomeNetwork, time.Since(start))
		logger.Debug().Err(err).Msg("request failed")
		return nil, errors.Errorf("%s: %w", endpoint, err)
	}

	if success(resp.StatusCode, ok) {
		c.metrics.observe(endpoint, outcomeSuccess, time.Since(start))
		logger.Debug().Int("status", resp.StatusCode).Dur("took", time.Since(start)).Msg("request succeeded")
		return resp, nil
	}

	defer resp.Body.Close()
	apiErr := decodeError(resp, endpoint, fallback)
	c.metrics.observe(endpoint, outcomeError, time.Since(start))
	logger.Debug().Int("status", resp.StatusCode).Str("message", apiErr.Message).Msg("service returned an error")
	return nil, errors.WithStack(apiErr)
}

func success(code int, extra []int) bool {
	if code >= 200 && code < 300 {
		return true
	}
	for _, e := range extra {
		if code == e {
			return true
		}
	}
	return false
}

func decodeError(resp *http.Response, endpoint, fallback string) *APIError {
	apiErr := &APIError{Endpoint: endpoint, StatusCode: resp.StatusCode, Message: fallback}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if err != nil || len(raw) == 0 {
		return apiErr
	}

	var body struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(raw, &body); err != nil {
		return apiErr
	}

	switch {
	case body.Error != "":
		apiErr.Message = body.Error
	case body.Message != "":
		apiErr.Message = body.Message
	}
	return apiErr
}

func (c *Client) newJSONRequest(ctx context.Context, method, target string, payload any) (*http.Request, error) {
	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return nil, errors.Errorf("encoding request: %w", err)
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, errors.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return req, nil
}

// 📋 ListFiles returns every filename on the server
func (c *Client) ListFiles(ctx context.Context) ([]string, error) {
	req, err := c.newJSONRequest(ctx, http.MethodGet, c.endpointURL(nil, "files"), nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.do(ctx, EndpointFiles, req, fallbackFiles)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var files []string
	if err := json.NewDecoder(resp.Body).Decode(&files); err != nil {
		return nil, errors.Errorf("decoding file list: %w", err)
	}
	if files == nil {
		files = []string{}
	}
	return files, nil
}

// 📥 DownloadKey streams one key file
func (c *Client) DownloadKey(ctx context.Context, name string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpointURL(nil, "download_key", name), nil)
	if err != nil {
		return nil, errors.Errorf("creating request: %w", err)
	}

	resp, err := c.do(ctx, EndpointDownloadKey, req, fallbackDownload)
	if err != nil {
		return nil, err
	}
	return &countingBody{ReadCloser: resp.Body, done: c.metrics.downloaded}, nil
}

// 🗑️ DeleteKey removes one key file
func (c *Client) DeleteKey(ctx context.Context, name string) (string, error) {
	req, err := c.newJSONRequest(ctx, http.MethodDelete, c.endpointURL(nil, "delete_key", name), nil)
	if err != nil {
		return "", err
	}

	resp, err := c.do(ctx, EndpointDeleteKey, req, fallbackDelete)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	var body struct {
		Message string `json:"message"`
	}
	// 204 carries no body
	if resp.StatusCode != http.StatusNoContent {
		_ = json.NewDecoder(resp.Body).Decode(&body)
	}
	return body.Message, nil
}

// 📤 UploadKey sends one file as multipart field "file"
func (c *Client) UploadKey(ctx context.Context, name string, content io.Reader) (UploadResult, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", name)
	if err != nil {
		return UploadResult{}, errors.Errorf("creating form file: %w", err)
	}
	if _, err := io.Copy(part, content); err != nil {
		return UploadResult{}, errors.Errorf("reading %s: %w", name, err)
	}
	if err := mw.Close(); err != nil {
		return UploadResult{}, errors.Errorf("closing form: %w", err)
	}
	size := buf.Len()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpointURL(nil, "upload_key"), &buf)
	if err != nil {
		return UploadResult{}, errors.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Accept", "application/json")

	resp, err := c.do(ctx, EndpointUploadKey, req, fallbackUpload)
	if err != nil {
		return UploadResult{}, err
	}
	defer resp.Body.Close()
	c.metrics.uploaded(size)

	var result UploadResult
	_ = json.NewDecoder(resp.Body).Decode(&result)
	if result.Filename == "" {
		result.Filename = path.Base(name)
	}
	return result, nil
}

// 💾 SaveText stores text on the server. 204 and 304 count as success.
func (c *Client) SaveText(ctx context.Context, text string) error {
	payload := struct {
		NewText *string `json:"new_text"`
	}{}
	if text != "" {
		payload.NewText = &text
	}

	var query url.Values
	if c.forceUpdate {
		query = url.Values{"force_update": []string{"true"}}
	}

	req, err := c.newJSONRequest(ctx, http.MethodPatch, c.endpointURL(query, "save_text"), payload)
	if err != nil {
		return err
	}

	resp, err := c.do(ctx, EndpointSaveText, req, fallbackSave, http.StatusNotModified)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	var body struct {
		Message string `json:"message"`
	}
	_ = json.NewDecoder(resp.Body).Decode(&body)
	zerolog.Ctx(ctx).Debug().Int("status", resp.StatusCode).Str("message", body.Message).Msg("text saved")
	return nil
}

// ⚙️ ProcessText runs one transform remotely
func (c *Client) ProcessText(ctx context.Context, in ProcessRequest) (string, error) {
	req, err := c.newJSONRequest(ctx, http.MethodPost, c.endpointURL(nil, "process_text"), in)
	if err != nil {
		return "", err
	}

	resp, err := c.do(ctx, EndpointProcessText, req, fallbackProcess)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	var body struct {
		Result string `json:"result"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", errors.Errorf("decoding process result: %w", err)
	}
	return body.Result, nil
}

// Message is the text shown to a user for err: the server's message for API
// errors, the error itself otherwise.
func Message(err error) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Message
	}
	return err.Error()
}

type countingBody struct {
	io.ReadCloser
	n    int64
	done func(int64)
}

func (b *countingBody) Read(p []byte) (int, error) {
	n, err := b.ReadCloser.Read(p)
	b.n += int64(n)
	return n, err
}

func (b *countingBody) Close() error {
	b.done(b.n)
	return b.ReadCloser.Close()
}
