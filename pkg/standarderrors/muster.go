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

// Package standarderrors holds the error taxonomy shared by every muster operation.
//
// An *Error carries a Kind (what class of failure the caller sees) and an
// optional Reason (the concrete rule that rejected the call). Both are
// sentinels, so callers match either one with errors.Is:
//
//	if errors.Is(err, standarderrors.ErrIncompleteChecklist) { ... }
//	if errors.Is(err, standarderrors.ErrNoNextSection) { ... }
package standarderrors

import (
	"errors"
	"fmt"
	"strings"
)

// Kinds.
var (
	// ErrNotAuthorized is a role, section or capability mismatch.
	ErrNotAuthorized = errors.New("not authorized")
	// ErrInvalidTransition is an action that the current status does not allow.
	ErrInvalidTransition = errors.New("invalid transition")
	// ErrIncompleteChecklist is an advance attempted before the gating condition holds.
	ErrIncompleteChecklist = errors.New("incomplete checklist")
	// ErrNotFound is an unknown muster id.
	ErrNotFound = errors.New("not found")
	// ErrValidation is a malformed or missing input.
	ErrValidation = errors.New("validation error")
)

// Reasons.
var (
	ErrReadOnly           = errors.New("muster is read-only for this actor")
	ErrNoCreatePermission = errors.New("section cannot create musters")
	ErrNotManager         = errors.New("action requires a manager")
	ErrNotOperator        = errors.New("action requires an operator")
	ErrNoNextSection      = errors.New("no next section defined for this line")
	ErrNotLastSection     = errors.New("muster is not at the last section of its line")
	ErrInvalidTarget      = errors.New("invalid handover target")
	ErrMissingTarget      = errors.New("handover target area and line are required")
	ErrNotDraft           = errors.New("muster is not a draft")
	ErrNotOwner           = errors.New("muster was created by another actor")
	ErrTerminal           = errors.New("muster is in a terminal status")
	ErrNotFailing         = errors.New("checklist is not failing")
	ErrReportRequired     = errors.New("failing sample requires a 5W2H report")
	ErrThreeSampleMode    = errors.New("slot is only writable in three-sample mode")
	ErrSerialMissing      = errors.New("sample serial number has not been scanned")
	ErrUnknownItem        = errors.New("checklist item does not belong to the current section")
)

// Error is a typed, recoverable muster error.
type Error struct {
	Kind     error
	Reason   error
	Op       string
	MusterID string
	// Err is an optional underlying cause.
	Err error
}

func (e *Error) Error() string {
	var b strings.Builder

	if e.Op != "" {
		b.WriteString(e.Op)
		b.WriteString(": ")
	}

	if e.Kind != nil {
		b.WriteString(e.Kind.Error())
	}

	if e.MusterID != "" {
		fmt.Fprintf(&b, " (muster %s)", e.MusterID)
	}

	if e.Reason != nil {
		b.WriteString(": ")
		b.WriteString(e.Reason.Error())
	}

	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}

	return b.String()
}

// Unwrap exposes kind, reason and cause to errors.Is and errors.As.
func (e *Error) Unwrap() []error {
	errs := make([]error, 0, 3)
	for _, err := range []error{e.Kind, e.Reason, e.Err} {
		if err != nil {
			errs = append(errs, err)
		}
	}

	return errs
}

// New builds an *Error of the given kind.
func New(kind error, reason error, op string) *Error {
	return &Error{Kind: kind, Reason: reason, Op: op}
}

// Newf builds an *Error whose cause is a formatted message.
func Newf(kind error, op string, format string, args ...any) *Error {
	return &Error{Kind: kind, Op: op, Err: fmt.Errorf(format, args...)}
}

// WithMuster returns a copy of err annotated with the muster id. Non-typed errors pass through.
func WithMuster(err error, musterID string) error {
	var typed *Error
	if !errors.As(err, &typed) {
		return err
	}

	annotated := *typed
	annotated.MusterID = musterID

	return &annotated
}

// KindOf returns the kind sentinel of err, or nil when err is not a typed muster error.
func KindOf(err error) error {
	for _, kind := range []error{ErrNotAuthorized, ErrInvalidTransition, ErrIncompleteChecklist, ErrNotFound, ErrValidation} {
		if errors.Is(err, kind) {
			return kind
		}
	}

	return nil
}

// KindName is the stable label of a kind, used in metrics and API responses.
func KindName(kind error) string {
	switch kind {
	case ErrNotAuthorized:
		return "NotAuthorized"
	case ErrInvalidTransition:
		return "InvalidTransition"
	case ErrIncompleteChecklist:
		return "IncompleteChecklist"
	case ErrNotFound:
		return "NotFound"
	case ErrValidation:
		return "ValidationError"
	default:
		return "Internal"
	}
}
