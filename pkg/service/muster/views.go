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

package muster

import (
	"context"
	"fmt"

	"github.com/united-manufacturing-hub/emuster/pkg/models"
	"github.com/united-manufacturing-hub/emuster/pkg/permissions"
	"github.com/united-manufacturing-hub/emuster/pkg/persistence"
	"github.com/united-manufacturing-hub/emuster/pkg/visibility"
)

// ListActive returns the viewer's active musters, newest first.
func (s *MusterService) ListActive(ctx context.Context, actor models.Actor, filters visibility.Filters) ([]*models.Muster, error) {
	musters, err := s.find(ctx, s.visibility.ActiveQuery(actor, filters))
	if err != nil {
		return nil, err
	}

	return s.visibility.Active(actor, musters, filters), nil
}

// ListHistory returns the viewer's closed musters, newest first.
func (s *MusterService) ListHistory(ctx context.Context, actor models.Actor, filters visibility.Filters) ([]*models.Muster, error) {
	musters, err := s.find(ctx, s.visibility.ScopeQuery(actor, filters))
	if err != nil {
		return nil, err
	}

	return s.visibility.History(actor, musters, filters), nil
}

// KPI returns the status counts of the manager's area.
func (s *MusterService) KPI(ctx context.Context, actor models.Actor) (visibility.KPI, error) {
	if err := permissions.RequireManager("kpi", actor); err != nil {
		return visibility.KPI{}, err
	}

	musters, err := s.find(ctx, s.visibility.ScopeQuery(actor, visibility.Filters{}))
	if err != nil {
		return visibility.KPI{}, err
	}

	return s.visibility.KPI(actor, musters), nil
}

func (s *MusterService) find(ctx context.Context, query *persistence.Query) ([]*models.Muster, error) {
	musters, err := s.store.Find(ctx, *query.WithMaxFindLimit(s.scanLimit))
	if err != nil {
		return nil, fmt.Errorf("failed to list musters: %w", err)
	}

	return musters, nil
}
