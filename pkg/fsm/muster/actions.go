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
	"slices"

	"github.com/looplab/fsm"

	internalfsm "github.com/united-manufacturing-hub/emuster/internal/fsm"
	"github.com/united-manufacturing-hub/emuster/pkg/models"
	"github.com/united-manufacturing-hub/emuster/pkg/permissions"
	"github.com/united-manufacturing-hub/emuster/pkg/standarderrors"
)

// transition binds one request to the callbacks of a machine instance.
type transition struct {
	machine *Machine
	muster  *models.Muster
	req     Request
}

func (t *transition) register(instance *internalfsm.BaseFSMInstance) {
	guard := func(check func(event string) error) fsm.Callback {
		return func(_ context.Context, e *fsm.Event) {
			if err := check(e.Event); err != nil {
				e.Cancel(err)
			}
		}
	}

	effect := func(apply func()) fsm.Callback {
		return func(_ context.Context, e *fsm.Event) {
			apply()
			t.appendHistory(e.Event)
		}
	}

	instance.AddCallback("before_"+EventHandover, guard(t.checkHandover))
	instance.AddCallback("after_"+EventHandover, effect(t.applyHandover))

	instance.AddCallback("before_"+EventCrossAreaHandover, guard(t.checkCrossAreaHandover))
	instance.AddCallback("after_"+EventCrossAreaHandover, effect(t.applyCrossAreaHandover))
	instance.AddCallback("before_"+EventCrossAreaHandoverUnsectioned, guard(t.checkCrossAreaHandover))
	instance.AddCallback("after_"+EventCrossAreaHandoverUnsectioned, effect(t.applyCrossAreaHandover))

	instance.AddCallback("before_"+EventFinish, guard(t.checkFinish))
	instance.AddCallback("after_"+EventFinish, effect(func() { t.muster.Status = models.PendingRelease }))

	instance.AddCallback("before_"+EventSubmitReport, guard(t.checkSubmitReport))
	instance.AddCallback("after_"+EventSubmitReport, effect(t.applySubmitReport))

	instance.AddCallback("before_"+EventAssignSection, guard(t.checkAssignSection))
	instance.AddCallback("after_"+EventAssignSection, effect(t.applyAssignSection))

	for _, event := range []string{EventApprove, EventDecideApprove} {
		instance.AddCallback("before_"+event, guard(t.checkManager))
		instance.AddCallback("after_"+event, effect(func() { t.muster.Status = models.Released }))
	}

	for _, event := range []string{EventBlock, EventDecideBlock} {
		instance.AddCallback("before_"+event, guard(t.checkManager))
		instance.AddCallback("after_"+event, effect(t.applyBlock))
	}
}

func (t *transition) appendHistory(event string) {
	t.muster.AppendHistory(models.HistoryEntry{
		User:      t.req.Actor.Name,
		UserID:    t.req.Actor.ID,
		Area:      t.req.Actor.Area,
		Section:   t.req.Actor.Section,
		Action:    string(actionOf(event)),
		Timestamp: t.machine.now(),
	})
}

// currentArea falls back to the area owning the line for musters created without one.
func (t *transition) currentArea() string {
	if t.muster.Area != "" {
		return t.muster.Area
	}

	area, _ := t.machine.topology.AreaOfLine(t.muster.Line)

	return area
}

func (t *transition) checkHandover(event string) error {
	if err := t.machine.policy.RequireEditable(event, t.req.Actor, t.muster); err != nil {
		return err
	}

	if err := t.machine.checklist.CanAdvance(t.muster); err != nil {
		return err
	}

	if _, ok := t.machine.topology.NextSection(t.muster.Line, t.muster.Section); !ok {
		return standarderrors.New(standarderrors.ErrInvalidTransition, standarderrors.ErrNoNextSection, event)
	}

	return nil
}

func (t *transition) applyHandover() {
	next, _ := t.machine.topology.NextSection(t.muster.Line, t.muster.Section)
	t.muster.Section = next
	t.muster.Status = models.PendingSectionReview(next)
}

func (t *transition) checkCrossAreaHandover(event string) error {
	if err := t.machine.policy.RequireEditable(event, t.req.Actor, t.muster); err != nil {
		return err
	}

	topo := t.machine.topology

	if t.req.TargetArea == "" || t.req.TargetLine == "" {
		return standarderrors.New(standarderrors.ErrValidation, standarderrors.ErrMissingTarget, event)
	}

	if !topo.HasArea(t.req.TargetArea) || t.req.TargetArea == t.currentArea() {
		return standarderrors.New(standarderrors.ErrValidation, standarderrors.ErrInvalidTarget, event)
	}

	if owner, ok := topo.AreaOfLine(t.req.TargetLine); !ok || owner != t.req.TargetArea {
		return standarderrors.New(standarderrors.ErrValidation, standarderrors.ErrInvalidTarget, event)
	}

	if !topo.IsLastSection(t.muster.Line, t.muster.Section) {
		return standarderrors.New(standarderrors.ErrInvalidTransition, standarderrors.ErrNotLastSection, event)
	}

	return t.machine.checklist.CanAdvance(t.muster)
}

func (t *transition) applyCrossAreaHandover() {
	t.muster.PreviousArea = t.currentArea()
	t.muster.Area = t.req.TargetArea
	t.muster.Line = t.req.TargetLine

	if first, ok := t.machine.topology.FirstSection(t.req.TargetLine); ok {
		t.muster.Section = first
		t.muster.Status = models.PendingSectionReview(first)

		return
	}

	t.muster.Section = ""
	t.muster.Status = models.PendingAreaReview(t.req.TargetArea)
}

func (t *transition) checkFinish(event string) error {
	if err := t.machine.policy.RequireEditable(event, t.req.Actor, t.muster); err != nil {
		return err
	}

	if !t.machine.topology.IsLastSection(t.muster.Line, t.muster.Section) {
		return standarderrors.New(standarderrors.ErrInvalidTransition, standarderrors.ErrNotLastSection, event)
	}

	return t.machine.checklist.CanAdvance(t.muster)
}

func (t *transition) checkSubmitReport(event string) error {
	if err := t.machine.policy.RequireEditable(event, t.req.Actor, t.muster); err != nil {
		return err
	}

	if t.req.Report == nil {
		return standarderrors.Newf(standarderrors.ErrValidation, event, "report is required")
	}

	if !t.machine.checklist.IsFailingInCurrentMode(t.muster) {
		return standarderrors.New(standarderrors.ErrInvalidTransition, standarderrors.ErrNotFailing, event)
	}

	return nil
}

func (t *transition) applySubmitReport() {
	t.muster.Report5W2H = t.req.Report
	t.muster.Status = models.PendingManagerDecision
}

func (t *transition) checkManager(event string) error {
	return permissions.RequireManager(event, t.req.Actor)
}

func (t *transition) applyBlock() {
	if t.muster.Report5W2H == nil && t.req.Report != nil {
		t.muster.Report5W2H = t.req.Report
	}

	t.muster.Status = models.Blocked
}

// checkAssignSection lets an operator of the target area claim a muster that arrived on a line without sections.
// The muster moves to the operator's line, so the section must be part of it.
func (t *transition) checkAssignSection(event string) error {
	actor := t.req.Actor
	topo := t.machine.topology

	if !actor.IsOperator() {
		return standarderrors.New(standarderrors.ErrNotAuthorized, standarderrors.ErrNotOperator, event)
	}

	if actor.Area != t.muster.Area {
		return standarderrors.New(standarderrors.ErrNotAuthorized, standarderrors.ErrReadOnly, event)
	}

	if owner, ok := topo.AreaOfLine(actor.Line); !ok || owner != t.muster.Area {
		return standarderrors.New(standarderrors.ErrValidation, standarderrors.ErrInvalidTarget, event)
	}

	if t.req.Section == "" || !slices.Contains(topo.SectionsOf(actor.Line), t.req.Section) {
		return standarderrors.New(standarderrors.ErrValidation, standarderrors.ErrInvalidTarget, event)
	}

	return nil
}

func (t *transition) applyAssignSection() {
	t.muster.Line = t.req.Actor.Line
	t.muster.Section = t.req.Section
	t.muster.Status = models.PendingSectionReview(t.req.Section)
}
