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
	"fmt"

	"github.com/united-manufacturing-hub/emuster/pkg/models"
)

// States. Parameterised statuses collapse to one state; the section or area
// lives on the muster document.
const (
	StateInit                   = "init"
	StatePendingSectionReview   = "pending_section_review"
	StatePendingAreaReview      = "pending_area_review"
	StatePendingRelease         = "pending_release"
	StatePendingManagerDecision = "pending_manager_decision"
	StateReleased               = "released"
	StateBlocked                = "blocked"
)

// Events.
const (
	EventHandover                     = "handover"
	EventCrossAreaHandover            = "cross_area_handover"
	EventCrossAreaHandoverUnsectioned = "cross_area_handover_unsectioned"
	EventFinish                       = "finish"
	EventSubmitReport                 = "submit_report"
	EventApprove                      = "approve"
	EventBlock                        = "block"
	EventDecideApprove                = "decide_approve"
	EventDecideBlock                  = "decide_block"
	EventAssignSection                = "assign_section"
)

// Action is a transition-causing request, also written to the history log.
type Action string

const (
	ActionHandover          Action = "HANDOVER"
	ActionCrossAreaHandover Action = "CROSS_AREA_HANDOVER"
	ActionFinish            Action = "FINISH"
	ActionSubmitReport      Action = "SUBMIT_5W2H"
	ActionManagerApprove    Action = "MANAGER_APPROVE"
	ActionManagerBlock      Action = "MANAGER_BLOCK"
	ActionAssignSection     Action = "ASSIGN_SECTION"
)

// ParseAction validates an operator advance action name.
func ParseAction(s string) (Action, error) {
	switch Action(s) {
	case ActionHandover, ActionCrossAreaHandover, ActionFinish:
		return Action(s), nil
	default:
		return "", fmt.Errorf("unknown advance action %q", s)
	}
}

// StateOf maps a status to its machine state.
func StateOf(status models.Status) string {
	switch status.Kind {
	case models.StatusInit:
		return StateInit
	case models.StatusPendingSectionReview:
		return StatePendingSectionReview
	case models.StatusPendingAreaReview:
		return StatePendingAreaReview
	case models.StatusPendingRelease:
		return StatePendingRelease
	case models.StatusPendingManagerDecision:
		return StatePendingManagerDecision
	case models.StatusReleased:
		return StateReleased
	case models.StatusBlocked:
		return StateBlocked
	default:
		return ""
	}
}

// Request carries everything a transition needs besides the muster itself.
type Request struct {
	Actor models.Actor
	// Event is one of the Event* constants.
	Event string

	// TargetArea and TargetLine are the destination of a cross-area handover.
	TargetArea string
	TargetLine string

	// Section is the section claimed by assign_section.
	Section string

	// Report is attached by submit_report and optionally by a manager block.
	Report *models.Report5W2H
}

// actionOf is the history label of an event.
func actionOf(event string) Action {
	switch event {
	case EventHandover:
		return ActionHandover
	case EventCrossAreaHandover, EventCrossAreaHandoverUnsectioned:
		return ActionCrossAreaHandover
	case EventFinish:
		return ActionFinish
	case EventSubmitReport:
		return ActionSubmitReport
	case EventApprove, EventDecideApprove:
		return ActionManagerApprove
	case EventBlock, EventDecideBlock:
		return ActionManagerBlock
	case EventAssignSection:
		return ActionAssignSection
	default:
		return Action(event)
	}
}

var operatorWorkStates = []string{StateInit, StatePendingSectionReview}

var nonTerminalStates = []string{
	StateInit,
	StatePendingSectionReview,
	StatePendingAreaReview,
	StatePendingRelease,
	StatePendingManagerDecision,
}
