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

	"github.com/united-manufacturing-hub/emuster/pkg/mes"
	"github.com/united-manufacturing-hub/emuster/pkg/models"
	"github.com/united-manufacturing-hub/emuster/pkg/standarderrors"
	"github.com/united-manufacturing-hub/emuster/pkg/topology"
)

// FetchAutomatic asks the measurement system for an automatic item and returns a token.
// The result is recorded later through RecordChecklistResult, at most once per token.
func (s *MusterService) FetchAutomatic(ctx context.Context, id string, slot models.PcbSlot, itemID string, actor models.Actor) (string, error) {
	const op = "fetch automatic result"

	m, err := s.Get(ctx, id)
	if err != nil {
		return "", err
	}

	if err := requireOpen(op, m); err != nil {
		return "", standarderrors.WithMuster(err, id)
	}

	if err := s.policy.RequireEditable(op, actor, m); err != nil {
		return "", standarderrors.WithMuster(err, id)
	}

	item, err := s.checklist.CheckWritable(m, slot, itemID)
	if err != nil {
		return "", standarderrors.WithMuster(err, id)
	}

	if item.Kind != topology.KindAutomatic {
		return "", standarderrors.WithMuster(standarderrors.Newf(standarderrors.ErrValidation, op, "item %s is set by visual inspection", itemID), id)
	}

	token, err := s.fetcher.Fetch(mes.Request{MusterID: id, Slot: slot, ItemID: itemID, Actor: actor})
	if err != nil {
		return "", err
	}

	s.logger.Debugw("Started automatic fetch", "muster", id, "slot", slot, "item", itemID, "token", token)

	return token, nil
}

// DiscardPending drops a fetch that has not resolved yet. It returns false if the token
// is unknown or its result was already applied.
func (s *MusterService) DiscardPending(token string) bool {
	return s.fetcher.Discard(token)
}

// PendingState reports where a fetch token stands.
func (s *MusterService) PendingState(token string) (mes.TokenState, bool) {
	return s.fetcher.State(token)
}

// applyMeasurement is the delivery end of the fetcher. Rejections by the workflow are final.
func (s *MusterService) applyMeasurement(ctx context.Context, result mes.Result) error {
	req := result.Request

	_, err := s.RecordChecklistResult(ctx, req.MusterID, req.Slot, req.ItemID, result.Status, req.Actor)
	if err != nil && standarderrors.KindOf(err) != nil {
		return mes.NewPermanentError(err)
	}

	return err
}
