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
	"strings"

	"github.com/united-manufacturing-hub/emuster/pkg/constants"
	musterfsm "github.com/united-manufacturing-hub/emuster/pkg/fsm/muster"
	"github.com/united-manufacturing-hub/emuster/pkg/metrics"
	"github.com/united-manufacturing-hub/emuster/pkg/models"
	"github.com/united-manufacturing-hub/emuster/pkg/standarderrors"
	"github.com/united-manufacturing-hub/emuster/pkg/topology"
)

// CreateInput is the data captured by the creation wizard.
type CreateInput struct {
	OrderID string `json:"orderId" binding:"required"`
	Product string `json:"product" binding:"required"`
	// Serials holds the leader serial first, then up to two spare serials for the repair samples.
	Serials []string `json:"serials" binding:"required,min=1,max=3,dive,required"`
	// Scenario is required on SMT lines; elsewhere it defaults to STANDARD.
	Scenario string `json:"scenario,omitempty"`
	ReasonID string `json:"reasonId,omitempty"`
	// ReasonLabel overrides the label of a STANDARD muster.
	ReasonLabel string `json:"reasonLabel,omitempty"`
}

// CreateMuster opens a new muster at the actor's section with status INICJACJA. No history is written.
func (s *MusterService) CreateMuster(ctx context.Context, actor models.Actor, in CreateInput) (*models.Muster, error) {
	const op = "create muster"

	if !s.policy.CanCreate(actor) {
		return nil, standarderrors.New(standarderrors.ErrNotAuthorized, standarderrors.ErrNoCreatePermission, op)
	}

	m, err := s.draft(op, actor, in)
	if err != nil {
		return nil, err
	}

	if err := s.lock(ctx, op); err != nil {
		return nil, err
	}
	defer s.mu.Unlock()

	if err := s.store.Insert(ctx, m); err != nil {
		return nil, s.internalError(op, m.ID, err)
	}

	metrics.MoveMuster("", musterfsm.StateOf(m.Status))
	s.logger.Debugw("Created muster", "muster", m.ID, "line", m.Line, "section", m.Section, "scenario", m.Scenario)

	return m, nil
}

// draft validates the wizard input against the actor's position and builds the document.
func (s *MusterService) draft(op string, actor models.Actor, in CreateInput) (*models.Muster, error) {
	serials := make([]string, 0, len(in.Serials))
	for _, sn := range in.Serials {
		if sn = strings.TrimSpace(sn); sn != "" {
			serials = append(serials, sn)
		}
	}

	switch {
	case strings.TrimSpace(in.OrderID) == "":
		return nil, standarderrors.Newf(standarderrors.ErrValidation, op, "order id is required")
	case strings.TrimSpace(in.Product) == "":
		return nil, standarderrors.Newf(standarderrors.ErrValidation, op, "product is required")
	case len(serials) == 0:
		return nil, standarderrors.Newf(standarderrors.ErrValidation, op, "leader serial number is required")
	case len(serials) > len(models.PcbSlots):
		return nil, standarderrors.Newf(standarderrors.ErrValidation, op, "at most %d serial numbers can be scanned", len(models.PcbSlots))
	}

	area, ok := s.topology.AreaOfLine(actor.Line)
	if !ok {
		return nil, standarderrors.Newf(standarderrors.ErrValidation, op, "unknown line %q", actor.Line)
	}

	if !slices.Contains(s.topology.SectionsOf(actor.Line), actor.Section) {
		return nil, standarderrors.Newf(standarderrors.ErrValidation, op, "section %q is not part of line %s", actor.Section, actor.Line)
	}

	scenario, reason, err := s.resolveScenario(op, actor.Line, in)
	if err != nil {
		return nil, err
	}

	m := &models.Muster{
		ID:        s.newID(),
		OrderID:   strings.TrimSpace(in.OrderID),
		Product:   strings.TrimSpace(in.Product),
		SN:        serials[0],
		Timestamp: s.now(),
		Status:    models.Init,
		Area:      area,
		Line:      actor.Line,
		Section:   actor.Section,
		Side:      topology.PcbSide(serials[0]),
		Scenario:  scenario,
		Reason:    reason,
		ChecklistResults: models.ChecklistResults{
			PCB1: models.PcbResult{SN: serials[0], Items: map[string]models.ResultStatus{}},
			PCB2: models.PcbResult{Items: map[string]models.ResultStatus{}},
			PCB3: models.PcbResult{Items: map[string]models.ResultStatus{}},
		},
		SpareSerials:    serials[1:],
		CreatedBy:       actor.ID,
		CreationSection: actor.Section,
		ProcessedBy:     []models.HistoryEntry{},
	}

	if len(m.SpareSerials) == 0 {
		m.SpareSerials = nil
	}

	return m, nil
}

// resolveScenario applies the wizard rules: SMT lines pick a catalog scenario and a reason
// bound to it, other lines fall back to STANDARD.
func (s *MusterService) resolveScenario(op, line string, in CreateInput) (string, models.Reason, error) {
	scenarioID := strings.TrimSpace(in.Scenario)

	if scenarioID == "" && topology.IsSmtLine(line) {
		return "", models.Reason{}, standarderrors.Newf(standarderrors.ErrValidation, op, "scenario is required on SMT line %s", line)
	}

	if scenarioID == "" || scenarioID == constants.ScenarioStandard {
		label := strings.TrimSpace(in.ReasonLabel)
		if label == "" {
			label = constants.ReasonStandardLabel
		}

		return constants.ScenarioStandard, models.Reason{Label: label}, nil
	}

	if _, ok := s.topology.Scenario(scenarioID); !ok {
		return "", models.Reason{}, standarderrors.Newf(standarderrors.ErrValidation, op, "unknown scenario %q", scenarioID)
	}

	reason, ok := s.topology.Reason(in.ReasonID)
	if !ok || reason.ScenarioID != scenarioID {
		return "", models.Reason{}, standarderrors.Newf(standarderrors.ErrValidation, op, "reason %q does not belong to scenario %s", in.ReasonID, scenarioID)
	}

	return scenarioID, models.Reason{ID: reason.ID, Label: reason.Label, Scenario: reason.ScenarioID}, nil
}
