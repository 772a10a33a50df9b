// Copyright 2025 UMH Systems GmbH
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

package sentry

import (
	"fmt"
	"runtime/debug"
	"strings"

	"github.com/Masterminds/semver/v3"
	"github.com/getsentry/sentry-go"
	"go.uber.org/zap"

	"github.com/united-manufacturing-hub/emuster/pkg/constants"
)

// Package-level state for debouncing errors.
var shouldDebounceErrors = true

// EnableTestMode disables debouncing for testing.
func EnableTestMode() {
	shouldDebounceErrors = false
}

// DisableTestMode restores normal debouncing behavior.
func DisableTestMode() {
	shouldDebounceErrors = true
}

// EnvironmentFor derives the sentry environment from the application version.
// Pre-release and unparsable versions report to development.
func EnvironmentFor(appVersion string) string {
	version, err := semver.NewVersion(appVersion)
	if err != nil || version.Prerelease() != "" {
		return constants.DefaultDevelopmentEnvironment
	}

	return constants.DefaultProductionEnvironment
}

// InitSentry initializes sentry for the given version and DSN.
// Local builds (default version) and an empty DSN leave sentry disabled.
func InitSentry(appVersion string, dsn string, debounceErrors bool) {
	shouldDebounceErrors = debounceErrors

	if appVersion == "" || appVersion == constants.DefaultAppVersion || dsn == "" {
		zap.S().Debug("Sentry disabled for local development build")

		return
	}

	err := sentry.Init(sentry.ClientOptions{
		Dsn:           dsn,
		Environment:   EnvironmentFor(appVersion),
		Release:       "emuster@" + appVersion,
		EnableTracing: false,
	})
	if err != nil {
		zap.S().Errorf("Failed to initialize Sentry: %s", err)
	}
}

func getMeaningfulErrorTitle(err error) string {
	message := err.Error()

	// first phrase, up to a period, comma or colon
	idx := strings.IndexAny(message, ".,:")
	if idx > 0 {
		message = message[:idx]
	}

	if len(message) > 100 {
		message = message[:97] + "..."
	}

	return message
}

func createSentryEvent(level sentry.Level, err error, context map[string]interface{}) *sentry.Event {
	event := sentry.NewEvent()
	event.Level = level
	event.Message = err.Error()
	event.Exception = []sentry.Exception{{
		Type:       getMeaningfulErrorTitle(err),
		Value:      err.Error(),
		Stacktrace: sentry.ExtractStacktrace(err),
	}}

	if level == sentry.LevelFatal || level == sentry.LevelError {
		event.Attachments = append(event.Attachments, &sentry.Attachment{
			Filename:    "stacktrace.txt",
			ContentType: "text/plain",
			Payload:     debug.Stack(),
		})
	}

	event.Fingerprint = []string{"{{ default }}", "level: " + string(level)}

	for key, value := range context {
		switch v := value.(type) {
		case string:
			if event.Tags == nil {
				event.Tags = make(map[string]string)
			}

			event.Tags[key] = v
		default:
			if event.Extra == nil {
				event.Extra = make(map[string]interface{})
			}

			event.Extra[key] = v
		}

		if key == "operation" || key == "service_type" {
			event.Fingerprint = append(event.Fingerprint, fmt.Sprintf("%s: %v", key, value))
		}
	}

	return event
}

func sendSentryEvent(event *sentry.Event) {
	localHub := sentry.CurrentHub().Clone()
	localHub.CaptureEvent(event)
}
