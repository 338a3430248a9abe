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

package state

import (
	"context"
	"fmt"

	"github.com/pterm/pterm"
	"github.com/rs/zerolog"
)

// 📢 UserLogger provides user-friendly feedback about session changes
type UserLogger struct {
	log zerolog.Logger
}

// 🎯 NewUserLogger creates a new user logger
func NewUserLogger(ctx context.Context) *UserLogger {
	return &UserLogger{
		log: *zerolog.Ctx(ctx),
	}
}

// 📝 LogFieldChange reports one changed field with the value it now holds
func (u *UserLogger) LogFieldChange(field Field, v Values) {
	var printer *pterm.PrefixPrinter
	var msg string

	switch field {
	case FieldText:
		printer = pterm.Info.WithPrefix(pterm.Prefix{Text: "✏️"})
		msg = fmt.Sprintf("Text updated (%d chars)", len(v.Text))
	case FieldOperation:
		printer = pterm.Info.WithPrefix(pterm.Prefix{Text: "🔧"})
		if v.Operation == "" {
			msg = "Operation cleared"
		} else {
			msg = fmt.Sprintf("Operation set to %s", v.Operation.Label())
		}
	case FieldAction:
		printer = pterm.Debug.WithPrefix(pterm.Prefix{Text: "🎬"})
		msg = fmt.Sprintf("Action %q", v.Action)
	case FieldResult:
		printer = pterm.Success.WithPrefix(pterm.Prefix{Text: "✨"})
		if v.Result == "" {
			msg = "Result cleared"
		} else {
			msg = "Result updated"
		}
	case FieldFiles:
		printer = pterm.Info.WithPrefix(pterm.Prefix{Text: "🔑"})
		msg = fmt.Sprintf("%d key files known", len(v.Files))
	case FieldLoading:
		u.log.Debug().Bool("loading", v.Loading).Msg("loading changed")
		return
	default:
		return
	}

	printer.Println(msg)
	u.log.Info().Str("field", string(field)).Msg(msg)
}

// 📊 LogStateChange logs a change to the overall session
func (u *UserLogger) LogStateChange(description string) {
	printer := pterm.Info.WithPrefix(pterm.Prefix{Text: "📦"})
	printer.Println(description)
	u.log.Info().Msg(description)
}

// 🔍 LogValidation logs validation results
func (u *UserLogger) LogValidation(valid bool, description string, err error) {
	if valid {
		pterm.Success.WithPrefix(pterm.Prefix{Text: "✅"}).Println(description)
		u.log.Info().Msg(description)
		return
	}
	if err != nil {
		pterm.Error.WithPrefix(pterm.Prefix{Text: "❌"}).Println(description)
		pterm.Error.Println(err)
		u.log.Error().Err(err).Msg(description)
		return
	}
	pterm.Warning.WithPrefix(pterm.Prefix{Text: "⚠️"}).Println(description)
	u.log.Warn().Msg(description)
}

// Listener adapts the logger for Store.Subscribe
func (u *UserLogger) Listener() Listener {
	return func(_ context.Context, field Field, v Values) {
		u.LogFieldChange(field, v)
	}
}
