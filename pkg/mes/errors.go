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

package mes

import "errors"

// ErrorCategory tells the fetcher whether a failed step is worth retrying.
type ErrorCategory int

const (
	// CategoryTransient errors are retried with backoff until the fetch times out.
	CategoryTransient ErrorCategory = iota

	// CategoryPermanent errors stop the fetch immediately. Delivering a result
	// to a muster that has meanwhile become read-only is permanent.
	CategoryPermanent
)

var (
	// ErrClosed is returned by Fetch after Close.
	ErrClosed = errors.New("mes fetcher closed")
	// ErrMeasurementUnavailable is a transient failure of the measurement source.
	ErrMeasurementUnavailable = errors.New("measurement unavailable")
)

// CategorizedError wraps an error with its category.
type CategorizedError struct {
	Err      error
	Category ErrorCategory
}

func (ce *CategorizedError) Error() string {
	return ce.Err.Error()
}

func (ce *CategorizedError) Unwrap() error {
	return ce.Err
}

// NewTransientError wraps err as CategoryTransient.
func NewTransientError(err error) error {
	return &CategorizedError{Err: err, Category: CategoryTransient}
}

// NewPermanentError wraps err as CategoryPermanent.
func NewPermanentError(err error) error {
	return &CategorizedError{Err: err, Category: CategoryPermanent}
}

// IsPermanentError reports whether err carries CategoryPermanent. Uncategorised errors are transient.
func IsPermanentError(err error) bool {
	var ce *CategorizedError

	return errors.As(err, &ce) && ce.Category == CategoryPermanent
}
