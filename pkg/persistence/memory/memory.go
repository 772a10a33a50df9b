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

// Package memory provides an in-memory implementation of persistence.MusterStore.
//
// Documents are deep-copied on every read and write, so a caller can mutate a
// returned muster freely: nothing reaches the store until Replace is called
// with it. Replace swaps the whole document, which gives the copy-on-write
// semantics the muster service relies on.
//
// The store is designed for single-process deployments only.
package memory

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/united-manufacturing-hub/emuster/pkg/models"
	"github.com/united-manufacturing-hub/emuster/pkg/persistence"
)

// validateContext checks if the provided context is nil.
func validateContext(ctx context.Context) error {
	if ctx == nil {
		return errors.New("context cannot be nil")
	}

	return nil
}

// MusterStore is a thread-safe in-memory muster collection keyed by id.
//
// Read operations (Get, Find, Count) take the read lock, write operations
// (Insert, Replace, Delete) the write lock. Every stored revision gets its
// Version recomputed from the content.
type MusterStore struct {
	mu      sync.RWMutex
	musters map[string]*models.Muster
}

var _ persistence.MusterStore = (*MusterStore)(nil)

// NewMusterStore creates a new empty store.
func NewMusterStore() *MusterStore {
	return &MusterStore{
		musters: make(map[string]*models.Muster),
	}
}

// Insert adds a new document. Returns persistence.ErrConflict if the id is taken.
func (s *MusterStore) Insert(ctx context.Context, m *models.Muster) error {
	if err := validateContext(ctx); err != nil {
		return err
	}

	if m == nil || m.ID == "" {
		return errors.New("muster must have non-empty id")
	}

	stored, err := snapshot(m)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.musters[m.ID]; exists {
		return fmt.Errorf("insert %s: %w", m.ID, persistence.ErrConflict)
	}

	s.musters[m.ID] = stored
	m.Version = stored.Version

	return nil
}

// Get returns a copy of the document with the given id.
func (s *MusterStore) Get(ctx context.Context, id string) (*models.Muster, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	s.mu.RLock()
	stored, exists := s.musters[id]
	s.mu.RUnlock()

	if !exists {
		return nil, fmt.Errorf("get %s: %w", id, persistence.ErrNotFound)
	}

	return stored.Clone()
}

// Replace stores m as the new revision of an existing document and updates m.Version.
func (s *MusterStore) Replace(ctx context.Context, m *models.Muster) error {
	if err := validateContext(ctx); err != nil {
		return err
	}

	stored, err := snapshot(m)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.musters[m.ID]; !exists {
		return fmt.Errorf("replace %s: %w", m.ID, persistence.ErrNotFound)
	}

	s.musters[m.ID] = stored
	m.Version = stored.Version

	return nil
}

// Delete removes the document with the given id.
func (s *MusterStore) Delete(ctx context.Context, id string) error {
	if err := validateContext(ctx); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.musters[id]; !exists {
		return fmt.Errorf("delete %s: %w", id, persistence.ErrNotFound)
	}

	delete(s.musters, id)

	return nil
}

// Count returns the number of stored documents.
func (s *MusterStore) Count(ctx context.Context) (int, error) {
	if err := validateContext(ctx); err != nil {
		return 0, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.musters), nil
}

// Find returns copies of all documents matching every filter of the query, sorted and paginated.
// Without a sort the order is by ascending id so results are stable.
func (s *MusterStore) Find(ctx context.Context, query persistence.Query) ([]*models.Muster, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	for _, sf := range query.SortBy {
		if !knownField(sf.Field) {
			return nil, fmt.Errorf("sort by %q: %w", sf.Field, persistence.ErrInvalidQuery)
		}
	}

	s.mu.RLock()

	var matched []*models.Muster

	for _, m := range s.musters {
		ok, err := matchesAll(m, query.Filters)
		if err != nil {
			s.mu.RUnlock()

			return nil, err
		}

		if ok {
			matched = append(matched, m)
		}
	}

	s.mu.RUnlock()

	sortMusters(matched, query.SortBy)

	if query.SkipCount >= len(matched) {
		return []*models.Muster{}, nil
	}

	matched = matched[query.SkipCount:]
	if limit := query.EffectiveLimit(); len(matched) > limit {
		matched = matched[:limit]
	}

	results := make([]*models.Muster, 0, len(matched))

	for _, m := range matched {
		clone, err := m.Clone()
		if err != nil {
			return nil, err
		}

		results = append(results, clone)
	}

	return results, nil
}

// snapshot copies m and stamps the copy with its content version.
func snapshot(m *models.Muster) (*models.Muster, error) {
	stored, err := m.Clone()
	if err != nil {
		return nil, err
	}

	version, err := stored.ComputeVersion()
	if err != nil {
		return nil, err
	}

	stored.Version = version

	return stored, nil
}

func knownField(field string) bool {
	_, ok := fieldValue(&models.Muster{}, field)

	return ok
}

// fieldValue extracts a queryable field. Statuses compare by their display text.
func fieldValue(m *models.Muster, field string) (any, bool) {
	switch field {
	case persistence.FieldID:
		return m.ID, true
	case persistence.FieldArea:
		return m.Area, true
	case persistence.FieldLine:
		return m.Line, true
	case persistence.FieldSection:
		return m.Section, true
	case persistence.FieldStatus:
		return m.Status.String(), true
	case persistence.FieldCreatedBy:
		return m.CreatedBy, true
	case persistence.FieldTimestamp:
		return m.Timestamp, true
	default:
		return nil, false
	}
}

func matchesAll(m *models.Muster, filters []persistence.FilterCondition) (bool, error) {
	for _, f := range filters {
		ok, err := matches(m, f)
		if err != nil || !ok {
			return false, err
		}
	}

	return true, nil
}

func matches(m *models.Muster, f persistence.FilterCondition) (bool, error) {
	value, ok := fieldValue(m, f.Field)
	if !ok {
		return false, fmt.Errorf("filter on %q: %w", f.Field, persistence.ErrInvalidQuery)
	}

	switch f.Op {
	case persistence.In, persistence.Nin:
		list, ok := f.Value.([]string)
		if !ok {
			return false, fmt.Errorf("%s on %q needs []string: %w", f.Op, f.Field, persistence.ErrInvalidQuery)
		}

		s, _ := value.(string)
		found := slices.Contains(list, s)

		return found == (f.Op == persistence.In), nil
	}

	c, err := compare(value, f.Value)
	if err != nil {
		return false, fmt.Errorf("filter on %q: %w", f.Field, err)
	}

	switch f.Op {
	case persistence.Eq:
		return c == 0, nil
	case persistence.Ne:
		return c != 0, nil
	case persistence.Gt:
		return c > 0, nil
	case persistence.Gte:
		return c >= 0, nil
	case persistence.Lt:
		return c < 0, nil
	case persistence.Lte:
		return c <= 0, nil
	default:
		return false, fmt.Errorf("operator %q: %w", f.Op, persistence.ErrInvalidQuery)
	}
}

// compare orders two field values of the same type.
func compare(a, b any) (int, error) {
	switch av := a.(type) {
	case string:
		bv, ok := b.(string)
		if !ok {
			return 0, fmt.Errorf("cannot compare string with %T: %w", b, persistence.ErrInvalidQuery)
		}

		return strings.Compare(av, bv), nil
	case time.Time:
		bv, ok := b.(time.Time)
		if !ok {
			return 0, fmt.Errorf("cannot compare time with %T: %w", b, persistence.ErrInvalidQuery)
		}

		return av.Compare(bv), nil
	default:
		return 0, fmt.Errorf("unsupported field type %T: %w", a, persistence.ErrInvalidQuery)
	}
}

func sortMusters(musters []*models.Muster, by []persistence.SortField) {
	sort.SliceStable(musters, func(i, j int) bool {
		for _, sf := range by {
			a, _ := fieldValue(musters[i], sf.Field)
			b, _ := fieldValue(musters[j], sf.Field)

			c, _ := compare(a, b)
			if c == 0 {
				continue
			}

			if sf.Order == persistence.Desc {
				return c > 0
			}

			return c < 0
		}

		return musters[i].ID < musters[j].ID
	})
}
