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
	"strings"

	"github.com/fatih/color"
	"github.com/walteh/secenc/pkg/operation"
)

// 🎨 Display configuration
const (
	rowIndent   = 4  // spaces to indent rows
	nameWidth   = 35 // width for key file names
	labelWidth  = 10 // width for operation labels
	indexWidth  = 3  // width for row numbers
	symbolAlert = "●"
)

// 🎯 FormatKeyRow formats one key file for display
func FormatKeyRow(index int, name string) string {
	return fmt.Sprintf("%s%s %s",
		strings.Repeat(" ", rowIndent),
		color.HiBlackString("%*d", indexWidth, index),
		color.CyanString("%-*s", nameWidth, name),
	)
}

// 🎯 FormatOperationGroup formats an operation group, marking the selected id
func FormatOperationGroup(g operation.Group, selected operation.ID) string {
	var b strings.Builder
	b.WriteString(color.New(color.Bold).Sprint(g.Name))
	b.WriteString("\n")
	for _, e := range g.Operations {
		marker := " "
		if e.ID == selected {
			marker = color.GreenString("✓")
		}
		fmt.Fprintf(&b, "%s%s %s %s\n",
			strings.Repeat(" ", rowIndent),
			marker,
			fmt.Sprintf("%-*s", labelWidth, e.Label),
			color.HiBlackString(string(e.ID)),
		)
	}
	return b.String()
}

// 🎯 FormatAlert formats an alert with a color matching its kind
func FormatAlert(a Alert) string {
	if a.Empty() {
		return ""
	}
	var c color.Attribute
	switch a.Kind {
	case Success:
		c = color.FgGreen
	case Danger:
		c = color.FgRed
	default:
		c = color.FgCyan
	}
	return fmt.Sprintf("%s %s", color.New(c).Sprint(symbolAlert), a.Message)
}
