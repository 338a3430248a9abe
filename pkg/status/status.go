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

package status

import (
	"fmt"
)

// 📊 Kind classifies an advisory message shown to the user
type Kind int

const (
	Info Kind = iota
	Success
	Danger
)

// String returns the alert class of the kind
func (k Kind) String() string {
	switch k {
	case Success:
		return "alert-success"
	case Danger:
		return "alert-danger"
	default:
		return "alert-info"
	}
}

// 💬 Alert is an inline message. The zero value means "nothing to show".
type Alert struct {
	Kind    Kind
	Message string
}

// Empty reports whether there is nothing to display
func (a Alert) Empty() bool {
	return a.Message == ""
}

func (a Alert) String() string {
	if a.Empty() {
		return ""
	}
	return fmt.Sprintf("[%s] %s", a.Kind, a.Message)
}

// Infof builds an informational alert
func Infof(format string, args ...any) Alert {
	return Alert{Kind: Info, Message: fmt.Sprintf(format, args...)}
}

// Successf builds a success alert
func Successf(format string, args ...any) Alert {
	return Alert{Kind: Success, Message: fmt.Sprintf(format, args...)}
}

// Dangerf builds a danger alert
func Dangerf(format string, args ...any) Alert {
	return Alert{Kind: Danger, Message: fmt.Sprintf(format, args...)}
}
