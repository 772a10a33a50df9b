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
	"errors"
	"fmt"
	"time"

	"github.com/looplab/fsm"
	"go.uber.org/zap"

	internalfsm "github.com/united-manufacturing-hub/emuster/internal/fsm"
	"github.com/united-manufacturing-hub/emuster/pkg/checklist"
	"github.com/united-manufacturing-hub/emuster/pkg/metrics"
	"github.com/united-manufacturing-hub/emuster/pkg/models"
	"github.com/united-manufacturing-hub/emuster/pkg/permissions"
	"github.com/united-manufacturing-hub/emuster/pkg/standarderrors"
	"github.com/united-manufacturing-hub/emuster/pkg/topology"
)

// transitions is the full event table of a muster.
var transitions = []fsm.EventDesc{
	{Name: EventHandover, Src: operatorWorkStates, Dst: StatePendingSectionReview},
	{Name: EventCrossAreaHandover, Src: operatorWorkStates, Dst: StatePendingSectionReview},
	{Name: EventCrossAreaHandoverUnsectioned, Src: operatorWorkStates, Dst: StatePendingAreaReview},
	{Name: EventFinish, Src: operatorWorkStates, Dst: StatePendingRelease},
	{Name: EventSubmitReport, Src: operatorWorkStates, Dst: StatePendingManagerDecision},
	{Name: EventAssignSection, Src: []string{StatePendingAreaReview}, Dst: StatePendingSectionReview},

	{Name: EventApprove, Src: []string{StatePendingRelease}, Dst: StateReleased},
	{Name: EventDecideApprove, Src: []string{StatePendingManagerDecision}, Dst: StateReleased},
	{Name: EventDecideBlock, Src: []string{StatePendingManagerDecision}, Dst: StateBlocked},
	{Name: EventBlock, Src: nonTerminalStates, Dst: StateBlocked},
}

// Machine applies transitions to muster documents.
//
// The muster document is the source of truth for the status. Each Apply builds
// a short-lived state machine positioned at the document's current state, runs
// the guards of the requested event and, when they pass, applies its effects to
// the document together with exactly one history entry.
type Machine struct {
	topology  *topology.Provider
	checklist *checklist.Engine
	policy    *permissions.Policy
	now       func() time.Time
	logger    *zap.SugaredLogger
}

// NewMachine creates a muster machine. A nil clock uses time.Now.
func NewMachine(topo *topology.Provider, engine *checklist.Engine, policy *permissions.Policy, now func() time.Time, logger *zap.SugaredLogger) *Machine {
	if now == nil {
		now = time.Now
	}

	if logger == nil {
		logger = zap.NewNop().Sugar()
	}

	return &Machine{
		topology:  topo,
		checklist: engine,
		policy:    policy,
		now:       now,
		logger:    logger,
	}
}

// Apply runs the request against m.
//
// m must be a working copy owned by the caller: on error it may hold partial
// effects and has to be discarded. On success m carries the new status and one
// additional history entry.
func (mc *Machine) Apply(ctx context.Context, m *models.Muster, req Request) error {
	event := mc.resolveEvent(req)
	from := StateOf(m.Status)

	instance := internalfsm.NewBaseFSMInstance(internalfsm.BaseFSMInstanceConfig{
		ID:           m.ID,
		InitialState: from,
		Transitions:  transitions,
	}, mc.logger)

	t := &transition{machine: mc, muster: m, req: req}
	t.register(instance)

	if err := instance.SendEvent(ctx, event); err != nil {
		err = mc.translate(err, event, m)
		metrics.RecordRejection(event, standarderrors.KindName(standarderrors.KindOf(err)))
		mc.logger.Debugw("Rejected muster transition",
			"muster", m.ID, "event", event, "status", m.Status.String(), "error", err)

		return err
	}

	to := instance.GetCurrentFSMState()
	if StateOf(m.Status) != to {
		// effects and the event table disagree
		metrics.IncErrorCount(metrics.ComponentMusterFSM, m.ID)

		return fmt.Errorf("muster %s: event %s left status %s but machine is in %s", m.ID, event, m.Status, to)
	}

	metrics.RecordTransition(string(actionOf(event)), from, to)
	mc.logger.Debugw("Applied muster transition",
		"muster", m.ID, "event", event, "from", from, "to", to, "status", m.Status.String())

	return nil
}

// Can reports whether the event is defined for the muster's current status. Guards are not evaluated.
func (mc *Machine) Can(m *models.Muster, event string) bool {
	instance := internalfsm.NewBaseFSMInstance(internalfsm.BaseFSMInstanceConfig{
		ID:           m.ID,
		InitialState: StateOf(m.Status),
		Transitions:  transitions,
	}, mc.logger)

	return instance.Can(event)
}

// resolveEvent picks the unsectioned variant of a cross-area handover when the target line has no sections.
func (mc *Machine) resolveEvent(req Request) string {
	if req.Event != EventCrossAreaHandover || req.TargetLine == "" {
		return req.Event
	}

	if _, ok := mc.topology.AreaOfLine(req.TargetLine); !ok {
		return req.Event
	}

	if _, ok := mc.topology.FirstSection(req.TargetLine); !ok {
		return EventCrossAreaHandoverUnsectioned
	}

	return req.Event
}

// translate maps looplab errors onto the muster error taxonomy.
func (mc *Machine) translate(err error, event string, m *models.Muster) error {
	var invalidEvent fsm.InvalidEventError
	var unknownEvent fsm.UnknownEventError

	switch {
	case errors.As(err, &invalidEvent), errors.As(err, &unknownEvent):
		if m.IsTerminal() {
			err = standarderrors.New(standarderrors.ErrInvalidTransition, standarderrors.ErrTerminal, event)
		} else {
			err = standarderrors.Newf(standarderrors.ErrInvalidTransition, event, "not allowed in status %s", m.Status)
		}
	case standarderrors.KindOf(err) == nil:
		return fmt.Errorf("muster %s: %s: %w", m.ID, event, err)
	}

	return standarderrors.WithMuster(err, m.ID)
}
