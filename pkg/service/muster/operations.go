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

	musterfsm "github.com/united-manufacturing-hub/emuster/pkg/fsm/muster"
	"github.com/united-manufacturing-hub/emuster/pkg/metrics"
	"github.com/united-manufacturing-hub/emuster/pkg/models"
	"github.com/united-manufacturing-hub/emuster/pkg/report"
	"github.com/united-manufacturing-hub/emuster/pkg/standarderrors"
)

// AdvancePayload carries the target of a cross-area handover.
type AdvancePayload struct {
	TargetArea string `json:"targetArea,omitempty"`
	TargetLine string `json:"targetLine,omitempty"`
}

// requireOpen rejects any mutation of a released or blocked muster.
func requireOpen(op string, m *models.Muster) error {
	if m.IsTerminal() {
		return standarderrors.New(standarderrors.ErrInvalidTransition, standarderrors.ErrTerminal, op)
	}

	return nil
}

// RecordChecklistResult stores an OK/NOK result for one item of one sample.
// A NOK on the leader sample latches three-sample mode.
func (s *MusterService) RecordChecklistResult(ctx context.Context, id string, slot models.PcbSlot, itemID string, status models.ResultStatus, actor models.Actor) (*models.Muster, error) {
	const op = "record checklist result"

	return s.mutate(ctx, op, id, func(m *models.Muster) error {
		if err := requireOpen(op, m); err != nil {
			return err
		}

		if err := s.policy.RequireEditable(op, actor, m); err != nil {
			return err
		}

		latched, err := s.checklist.Record(m, slot, itemID, status)
		if err != nil {
			return err
		}

		if latched {
			s.logger.Infow("Leader sample failed, three-sample mode latched",
				"muster", m.ID, "item", itemID, "pcb2", m.ChecklistResults.PCB2.SN, "pcb3", m.ChecklistResults.PCB3.SN)
		}

		return nil
	})
}

// ScanSample sets the serial number of a repair sample.
func (s *MusterService) ScanSample(ctx context.Context, id string, slot models.PcbSlot, sn string, actor models.Actor) (*models.Muster, error) {
	const op = "scan sample"

	return s.mutate(ctx, op, id, func(m *models.Muster) error {
		if err := requireOpen(op, m); err != nil {
			return err
		}

		if err := s.policy.RequireEditable(op, actor, m); err != nil {
			return err
		}

		return s.checklist.ScanSample(m, slot, sn)
	})
}

// Advance moves the muster on: to the next section, to another area, or to manager release.
func (s *MusterService) Advance(ctx context.Context, id string, action musterfsm.Action, actor models.Actor, payload AdvancePayload) (*models.Muster, error) {
	const op = "advance"

	var event string

	switch action {
	case musterfsm.ActionHandover:
		event = musterfsm.EventHandover
	case musterfsm.ActionCrossAreaHandover:
		event = musterfsm.EventCrossAreaHandover
	case musterfsm.ActionFinish:
		event = musterfsm.EventFinish
	default:
		return nil, standarderrors.Newf(standarderrors.ErrValidation, op, "unknown action %q", action)
	}

	return s.apply(ctx, op, id, musterfsm.Request{
		Actor:      actor,
		Event:      event,
		TargetArea: payload.TargetArea,
		TargetLine: payload.TargetLine,
	})
}

// SubmitReport attaches a 5W2H report. An operator escalates a failing muster to the
// manager; a manager submitting a report blocks the muster directly.
func (s *MusterService) SubmitReport(ctx context.Context, id string, draft report.Draft, actor models.Actor) (*models.Muster, error) {
	const op = "submit report"

	return s.mutate(ctx, op, id, func(m *models.Muster) error {
		if err := requireOpen(op, m); err != nil {
			return err
		}

		event := musterfsm.EventSubmitReport
		if actor.IsManager() {
			event = musterfsm.EventBlock
		} else if err := s.policy.RequireEditable(op, actor, m); err != nil {
			return err
		}

		built, err := s.reports.Build(m, draft)
		if err != nil {
			return err
		}

		return s.machine.Apply(ctx, m, musterfsm.Request{Actor: actor, Event: event, Report: built})
	})
}

// Decide resolves a muster waiting for a manager. APPROVE releases a muster pending release or
// decision; BLOCK blocks any open muster.
func (s *MusterService) Decide(ctx context.Context, id string, outcome models.Outcome, actor models.Actor) (*models.Muster, error) {
	const op = "decide"

	if outcome != models.OutcomeApprove && outcome != models.OutcomeBlock {
		return nil, standarderrors.Newf(standarderrors.ErrValidation, op, "unknown outcome %q", outcome)
	}

	return s.mutate(ctx, op, id, func(m *models.Muster) error {
		pendingDecision := m.Status.Kind == models.StatusPendingManagerDecision

		var event string

		switch {
		case outcome == models.OutcomeApprove && pendingDecision:
			event = musterfsm.EventDecideApprove
		case outcome == models.OutcomeApprove:
			event = musterfsm.EventApprove
		case pendingDecision:
			event = musterfsm.EventDecideBlock
		default:
			event = musterfsm.EventBlock
		}

		return s.machine.Apply(ctx, m, musterfsm.Request{Actor: actor, Event: event})
	})
}

// AnnotateReport stores a manager comment on a report field without touching the operator's values.
func (s *MusterService) AnnotateReport(ctx context.Context, id string, field, comment string, actor models.Actor) (*models.Muster, error) {
	return s.mutate(ctx, "annotate report", id, func(m *models.Muster) error {
		return report.Annotate(m, field, comment, actor)
	})
}

// AssignSection lets an operator of the target area claim a muster handed over to a line without sections.
func (s *MusterService) AssignSection(ctx context.Context, id string, section string, actor models.Actor) (*models.Muster, error) {
	return s.apply(ctx, "assign section", id, musterfsm.Request{
		Actor:   actor,
		Event:   musterfsm.EventAssignSection,
		Section: section,
	})
}

// DeleteDraft removes a muster that never left INICJACJA. Only its creator may delete it.
func (s *MusterService) DeleteDraft(ctx context.Context, id string, actor models.Actor) error {
	const op = "delete draft"

	if err := s.lock(ctx, op); err != nil {
		return err
	}
	defer s.mu.Unlock()

	m, err := s.store.Get(ctx, id)
	if err != nil {
		return s.storeError(op, id, err)
	}

	if !m.IsDraft() {
		return standarderrors.WithMuster(standarderrors.New(standarderrors.ErrInvalidTransition, standarderrors.ErrNotDraft, op), id)
	}

	if !actor.IsOperator() || m.CreatedBy != actor.ID {
		return standarderrors.WithMuster(standarderrors.New(standarderrors.ErrNotAuthorized, standarderrors.ErrNotOwner, op), id)
	}

	if err := s.store.Delete(ctx, id); err != nil {
		return s.storeError(op, id, err)
	}

	metrics.MoveMuster(musterfsm.StateOf(m.Status), "")
	s.logger.Debugw("Deleted draft", "muster", id, "actor", actor.ID)

	return nil
}

func (s *MusterService) apply(ctx context.Context, op, id string, req musterfsm.Request) (*models.Muster, error) {
	return s.mutate(ctx, op, id, func(m *models.Muster) error {
		return s.machine.Apply(ctx, m, req)
	})
}
