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
	"sync"
	"time"

	"github.com/getsentry/sentry-go"
	"go.uber.org/zap"
)

type IssueType string

const (
	IssueTypeWarning IssueType = "warning"
	IssueTypeError   IssueType = "error"
	IssueTypeFatal   IssueType = "fatal"
)

// debounceWindow is the minimum time between two reports of the same level.
const debounceWindow = 2 * time.Hour

type debouncer struct {
	mu       sync.Mutex
	lastSent time.Time
}

// allow reports whether an event may be sent now and records the send.
func (d *debouncer) allow(now time.Time) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if shouldDebounceErrors && now.Sub(d.lastSent) < debounceWindow {
		return false
	}

	d.lastSent = now

	return true
}

var (
	errorDebounce   = &debouncer{}
	warningDebounce = &debouncer{}
)

// ReportIssue logs err and forwards it to sentry. Fatal issues panic after flushing.
func ReportIssue(err error, issueType IssueType, log *zap.SugaredLogger) {
	ReportIssueWithContext(err, issueType, log, nil)
}

func ReportIssuef(issueType IssueType, log *zap.SugaredLogger, template string, args ...interface{}) {
	ReportIssue(fmt.Errorf(template, args...), issueType, log)
}

// ReportIssueWithContext reports an issue with additional context data that will be included in Sentry.
func ReportIssueWithContext(err error, issueType IssueType, log *zap.SugaredLogger, context map[string]interface{}) {
	if log == nil {
		log = zap.NewNop().Sugar()
	}

	switch issueType {
	case IssueTypeFatal:
		log.Errorf("Fatal error, terminating: %s", err)
		sendSentryEvent(createSentryEvent(sentry.LevelFatal, err, context))
		sentry.Flush(5 * time.Second)
		log.Panic("Fatal error")
	case IssueTypeError:
		log.Error(err)

		if errorDebounce.allow(time.Now()) {
			sendSentryEvent(createSentryEvent(sentry.LevelError, err, context))
		}
	case IssueTypeWarning:
		log.Warn(err)

		if warningDebounce.allow(time.Now()) {
			sendSentryEvent(createSentryEvent(sentry.LevelWarning, err, context))
		}
	}
}

// ReportServiceErrorf formats a service-related error message and reports it with proper context.
func ReportServiceErrorf(log *zap.SugaredLogger, serviceID string, serviceType string, operation string, template string, args ...interface{}) {
	context := map[string]interface{}{
		"service_id":   serviceID,
		"service_type": serviceType,
		"operation":    operation,
	}
	ReportIssueWithContext(fmt.Errorf(template, args...), IssueTypeError, log, context)
}

// ReportMusterWarningf reports a recoverable problem tied to a single muster.
func ReportMusterWarningf(log *zap.SugaredLogger, musterID string, operation string, template string, args ...interface{}) {
	context := map[string]interface{}{
		"muster_id": musterID,
		"operation": operation,
	}
	ReportIssueWithContext(fmt.Errorf(template, args...), IssueTypeWarning, log, context)
}
