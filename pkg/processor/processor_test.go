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

package processor

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gitlab.com/tozd/go/errors"

	"github.com/walteh/secenc/pkg/operation"
	"github.com/walteh/secenc/pkg/remote"
	"github.com/walteh/secenc/pkg/state"
	"github.com/walteh/secenc/pkg/status"
	"github.com/walteh/secenc/pkg/testutils"
)

type mockTextService struct {
	mock.Mock
}

func (m *mockTextService) SaveText(ctx context.Context, text string) error {
	args := m.Called(ctx, text)
	return args.Error(0)
}

func (m *mockTextService) ProcessText(ctx context.Context, req remote.ProcessRequest) (string, error) {
	args := m.Called(ctx, req)
	return args.String(0), args.Error(1)
}

type recordingMarker struct {
	mu    sync.Mutex
	marks []string
}

func (r *recordingMarker) MarkSaved(text string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.marks = append(r.marks, text)
}

func setup(t *testing.T, v state.Values) (context.Context, *state.Store) {
	t.Helper()
	ctx := testutils.LoggerContext(t)

	store, err := state.New(ctx, state.NewMemoryStorage(), state.WithValues(v))
	require.NoError(t, err, "store should be created")
	return state.NewContext(ctx, store), store
}

func TestSubmitValidation(t *testing.T) {
	tests := []struct {
		name    string
		values  state.Values
		message string
	}{
		{name: "empty_text", values: state.Values{Operation: operation.Base64}, message: "Please enter text to process."},
		{name: "blank_text", values: state.Values{Text: "  \n\t", Operation: operation.Base64}, message: "Please enter text to process."},
		{name: "no_operation", values: state.Values{Text: "Hello"}, message: "Please select an operation."},
		{name: "neither", values: state.Values{}, message: "Please enter text to process."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx, store := setup(t, tt.values)
			svc := new(mockTextService)
			p := New(svc, nil)

			alert, err := p.Submit(ctx, operation.Encode)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrValidation), "error should be ErrValidation")
			assert.Equal(t, status.Danger, alert.Kind)
			assert.Equal(t, tt.message, alert.Message)

			svc.AssertNotCalled(t, "ProcessText", mock.Anything, mock.Anything)
			assert.False(t, store.Loading())
			assert.Equal(t, operation.NoAction, store.Action(), "action is only recorded for valid submits")
		})
	}
}

func TestSubmitSuccess(t *testing.T) {
	ctx, store := setup(t, state.Values{Text: "Hello", Operation: operation.Base64})
	svc := new(mockTextService)

	want := remote.ProcessRequest{Text: "Hello", Operation: operation.Base64, Action: operation.Encode}
	svc.On("ProcessText", mock.Anything, want).
		Run(func(args mock.Arguments) {
			assert.True(t, store.Loading(), "loading should be set while in flight")
		}).
		Return("SGVsbG8=", nil).Once()

	alert, err := New(svc, nil).Submit(ctx, operation.Encode)
	require.NoError(t, err)
	assert.True(t, alert.Empty(), "success clears the message")

	assert.Equal(t, "SGVsbG8=", store.Result())
	assert.False(t, store.Loading())
	assert.Equal(t, operation.Encode, store.Action())
	svc.AssertExpectations(t)
}

func TestSubmitConcurrentLastResolvedWins(t *testing.T) {
	ctx, store := setup(t, state.Values{Text: "Hello", Operation: operation.Base64})
	svc := new(mockTextService)

	entered := make(chan struct{})
	release := make(chan struct{})
	svc.On("ProcessText", mock.Anything, mock.MatchedBy(func(r remote.ProcessRequest) bool { return r.Action == operation.Encode })).
		Run(func(mock.Arguments) {
			close(entered)
			<-release
		}).
		Return("from-encode", nil).Once()
	svc.On("ProcessText", mock.Anything, mock.MatchedBy(func(r remote.ProcessRequest) bool { return r.Action == operation.Decode })).
		Return("from-decode", nil).Once()

	p := New(svc, nil)

	done := make(chan error, 1)
	go func() {
		_, err := p.Submit(ctx, operation.Encode)
		done <- err
	}()

	<-entered
	_, err := p.Submit(ctx, operation.Decode)
	require.NoError(t, err)
	assert.Equal(t, "from-decode", store.Result())

	close(release)
	require.NoError(t, <-done)

	assert.Equal(t, "from-encode", store.Result(), "the response that resolves last owns result")
	assert.False(t, store.Loading())
	svc.AssertExpectations(t)
}

func TestSubmitFailure(t *testing.T) {
	ctx, store := setup(t, state.Values{Text: "Hello", Operation: operation.RSA, Result: "previous"})
	svc := new(mockTextService)
	svc.On("ProcessText", mock.Anything, mock.Anything).
		Return("", &remote.APIError{Endpoint: remote.EndpointProcessText, StatusCode: 400, Message: "Public key file not found"}).Once()

	alert, err := New(svc, nil).Submit(ctx, operation.Decode)
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrValidation))
	assert.Equal(t, status.Danger, alert.Kind)
	assert.Equal(t, "Failed to process text: Public key file not found", alert.Message)

	assert.Equal(t, "previous", store.Result(), "result is left unchanged")
	assert.False(t, store.Loading())
	svc.AssertNumberOfCalls(t, "ProcessText", 1)
}

func TestSubmitRejectsBadAction(t *testing.T) {
	ctx, _ := setup(t, state.Values{Text: "Hello", Operation: operation.Hex})
	svc := new(mockTextService)

	_, err := New(svc, nil).Submit(ctx, operation.NoAction)
	require.Error(t, err)
	assert.True(t, errors.Is(err, operation.ErrUnknownAction))
	svc.AssertNotCalled(t, "ProcessText", mock.Anything, mock.Anything)
}

func TestSubmitWithoutStore(t *testing.T) {
	svc := new(mockTextService)
	_, err := New(svc, nil).Submit(context.Background(), operation.Encode)
	require.Error(t, err)
	assert.True(t, errors.Is(err, state.ErrNoStore))
}

func TestCleanAll(t *testing.T) {
	ctx, store := setup(t, state.Values{
		Text:      "Hello",
		Operation: operation.Base64,
		Action:    operation.Encode,
		Result:    "SGVsbG8=",
		Files:     []string{"key.pem"},
	})
	marker := &recordingMarker{}

	require.NoError(t, New(new(mockTextService), marker).CleanAll(ctx))

	v := store.Snapshot()
	assert.Equal(t, "", v.Text)
	assert.Equal(t, "", v.Result)
	assert.Equal(t, operation.NoAction, v.Action)
	assert.Equal(t, operation.Base64, v.Operation)
	assert.Equal(t, []string{"key.pem"}, v.Files)
	assert.Equal(t, []string{""}, marker.marks, "marker should move to empty text")
}
