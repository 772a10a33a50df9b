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

// Package persistence defines the muster document store contract and its query language.
//
// Stores own their documents: values passed in are copied, values handed out
// are copies. A caller never holds a reference into the store.
package persistence

import (
	"context"
	"errors"

	"github.com/united-manufacturing-hub/emuster/pkg/models"
)

var (
	// ErrNotFound is returned when no document with the requested id exists.
	ErrNotFound = errors.New("document not found")
	// ErrConflict is returned when inserting an id that already exists.
	ErrConflict = errors.New("document already exists")
	// ErrInvalidQuery is returned for unknown fields or operators.
	ErrInvalidQuery = errors.New("invalid query")
)

// MusterStore is a keyed collection of muster documents with whole-document replace-on-write.
type MusterStore interface {
	Insert(ctx context.Context, m *models.Muster) error
	Get(ctx context.Context, id string) (*models.Muster, error)
	// Replace swaps the stored document for m. There is no partial update.
	Replace(ctx context.Context, m *models.Muster) error
	Delete(ctx context.Context, id string) error
	Find(ctx context.Context, query Query) ([]*models.Muster, error)
	Count(ctx context.Context) (int, error)
}
