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
	"strings"

	"gitlab.com/tozd/go/errors"
)

// 🎯 ID identifies a transform offered by the remote service
type ID string

const (
	None ID = ""

	Base64 ID = "base64"
	Hex    ID = "hex"
	UTF8   ID = "utf8"
	Latin1 ID = "latin1"
	ASCII  ID = "ascii"
	URL    ID = "url"

	AES ID = "aes"
	RSA ID = "rsa"

	MD5 ID = "md5"

	Huffman ID = "huffman"
	LZ77    ID = "lz77"
	LZW     ID = "lzw"
	Zstd    ID = "zstd"
	Deflate ID = "deflate"
	Brotli  ID = "brotli"
)

// 🔄 Action is the direction of a transform
type Action string

const (
	NoAction Action = ""
	Encode   Action = "encode"
	Decode   Action = "decode"
)

var (
	ErrUnknownOperation = errors.Base("unknown operation")
	ErrUnknownAction    = errors.Base("unknown action")
)

// 📚 Group is a labelled set of operations, in display order
type Group struct {
	Name       string
	Operations []Entry
}

// Entry pairs an ID with its display label.
type Entry struct {
	ID    ID
	Label string
}

var catalogue = []Group{
	{Name: "Encoding", Operations: []Entry{
		{Base64, "Base64"},
		{Hex, "Hex"},
		{UTF8, "UTF-8"},
		{Latin1, "Latin-1"},
		{ASCII, "ASCII"},
		{URL, "URL"},
	}},
	{Name: "Encryption", Operations: []Entry{
		{AES, "AES"},
		{RSA, "RSA"},
	}},
	{Name: "Hashing", Operations: []Entry{
		{MD5, "MD5"},
	}},
	{Name: "Compression", Operations: []Entry{
		{Huffman, "Huffman"},
		{LZ77, "LZ77"},
		{LZW, "LZW"},
		{Zstd, "Zstd"},
		{Deflate, "Deflate"},
		{Brotli, "Brotli"},
	}},
}

var known = func() map[ID]string {
	m := make(map[ID]string)
	for _, g := range catalogue {
		for _, e := range g.Operations {
			m[e.ID] = e.Label
		}
	}
	return m
}()

// Groups returns a copy of the operation catalogue.
func Groups() []Group {
	out := make([]Group, len(catalogue))
	for i, g := range catalogue {
		ops := make([]Entry, len(g.Operations))
		copy(ops, g.Operations)
		out[i] = Group{Name: g.Name, Operations: ops}
	}
	return out
}

// All returns every known operation ID in catalogue order.
func All() []ID {
	var ids []ID
	for _, g := range catalogue {
		for _, e := range g.Operations {
			ids = append(ids, e.ID)
		}
	}
	return ids
}

// Valid reports whether id is a known operation or None.
func (id ID) Valid() bool {
	if id == None {
		return true
	}
	_, ok := known[id]
	return ok
}

// Label returns the display label, or the raw id when unknown.
func (id ID) Label() string {
	if l, ok := known[id]; ok {
		return l
	}
	return string(id)
}

func (id ID) String() string {
	return string(id)
}

// 🔍 Parse converts user input into an ID. The empty string means no selection.
func Parse(s string) (ID, error) {
	id := ID(strings.ToLower(strings.TrimSpace(s)))
	if !id.Valid() {
		return None, errors.Errorf("%w: %q", ErrUnknownOperation, s)
	}
	return id, nil
}

// Valid reports whether a is encode, decode or empty.
func (a Action) Valid() bool {
	switch a {
	case NoAction, Encode, Decode:
		return true
	}
	return false
}

func (a Action) String() string {
	return string(a)
}

// 🔍 ParseAction converts user input into an Action.
func ParseAction(s string) (Action, error) {
	a := Action(strings.ToLower(strings.TrimSpace(s)))
	if !a.Valid() {
		return NoAction, errors.Errorf("%w: %q", ErrUnknownAction, s)
	}
	return a, nil
}
