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
	"fmt"
	"time"
)

// Kind names a registry mutation
type Kind string

const (
	KindDownload Kind = "download"
	KindDelete   Kind = "delete"
	KindUpload   Kind = "upload"
)

// 🔄 Phase is where a mutation is in idle -> in-flight -> {succeeded, failed}
type Phase int

const (
	Idle Phase = iota
	InFlight
	Succeeded
	Failed
)

func (p Phase) String() string {
	switch p {
	case Idle:
		return "idle"
	case InFlight:
		return "in-flight"
	case Succeeded:
		return "success"
	case Failed:
		return "error"
	}
	return fmt.Sprintf("phase(%d)", int(p))
}

// Terminal reports whether the mutation has finished
func (p Phase) Terminal() bool {
	return p == Succeeded || p == Failed
}

// MutationState is the latest state of one kind of mutation
type MutationState struct {
	Phase  Phase
	Target string
	Err    error
	At     time.Time
}
