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

package operation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gitlab.com/tozd/go/errors"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    ID
		wantErr bool
	}{
		{name: "empty_means_no_selection", input: "", want: None},
		{name: "base64", input: "base64", want: Base64},
		{name: "mixed_case_and_spaces", input: "  AES ", want: AES},
		{name: "brotli", input: "brotli", want: Brotli},
		{name: "unknown", input: "rot13", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(tt.input)
			if tt.wantErr {
				require.Error(t, err, "parse should fail")
				assert.True(t, errors.Is(err, ErrUnknownOperation), "error should be ErrUnknownOperation")
				return
			}
			require.NoError(t, err, "parse should succeed")
			assert.Equal(t, tt.want, got, "id should match")
		})
	}
}

func TestParseAction(t *testing.T) {
	a, err := ParseAction("Encode")
	require.NoError(t, err)
	assert.Equal(t, Encode, a)

	a, err = ParseAction("")
	require.NoError(t, err)
	assert.Equal(t, NoAction, a)

	_, err = ParseAction("sideways")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnknownAction))
}

func TestCatalogue(t *testing.T) {
	all := All()
	assert.Len(t, all, 15, "catalogue should list every transform")

	groups := Groups()
	require.Len(t, groups, 4)
	assert.Equal(t, "Encoding", groups[0].Name)
	assert.Equal(t, "Compression", groups[3].Name)

	// mutating the copy must not leak into the catalogue
	groups[0].Operations[0].Label = "changed"
	assert.Equal(t, "Base64", Base64.Label())

	for _, id := range all {
		assert.True(t, id.Valid(), "%s should be valid", id)
	}
	assert.Equal(t, "UTF-8", UTF8.Label())
	assert.Equal(t, "nope", ID("nope").Label())
}
