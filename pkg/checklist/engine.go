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

// Package checklist evaluates the sample checklists of a muster.
//
// A muster carries three sample slots. In the standard mode only the leader
// (pcb1) is inspected. The first NOK recorded on the leader latches the muster
// into three-sample mode, after which the batch may only move on once both
// additional samples pass. The latch never resets.
package checklist

import (
	"github.com/united-manufacturing-hub/emuster/pkg/constants"
	"github.com/united-manufacturing-hub/emuster/pkg/models"
	"github.com/united-manufacturing-hub/emuster/pkg/standarderrors"
	"github.com/united-manufacturing-hub/emuster/pkg/topology"
)

// Engine evaluates completion and pass state against the items of the muster's current section.
type Engine struct {
	topology *topology.Provider
}

func NewEngine(topo *topology.Provider) *Engine {
	return &Engine{topology: topo}
}

// Items returns the checklist items of the section the muster currently sits in.
func (e *Engine) Items(m *models.Muster) []topology.ChecklistItem {
	return e.topology.ChecklistItems(m.Section)
}

// IsComplete is true iff every item of the current section has a result on the slot.
func (e *Engine) IsComplete(m *models.Muster, slot models.PcbSlot) bool {
	result := m.ChecklistResults.Slot(slot)
	if result == nil {
		return false
	}

	for _, item := range e.Items(m) {
		if _, ok := result.Items[item.ID]; !ok {
			return false
		}
	}

	return true
}

// IsPassing is true iff the slot is complete and every recorded result is OK.
func (e *Engine) IsPassing(m *models.Muster, slot models.PcbSlot) bool {
	return e.IsComplete(m, slot) && !e.IsFailing(m, slot)
}

// IsFailing is true iff any recorded result on the slot is NOK, complete or not.
func (e *Engine) IsFailing(m *models.Muster, slot models.PcbSlot) bool {
	result := m.ChecklistResults.Slot(slot)
	if result == nil {
		return false
	}

	for _, status := range result.Items {
		if status == models.ResultNOK {
			return true
		}
	}

	return false
}

// IsFailingInCurrentMode is the precondition for a 5W2H report.
func (e *Engine) IsFailingInCurrentMode(m *models.Muster) bool {
	if !m.ThreeSampleMode {
		return e.IsFailing(m, models.PCB1)
	}

	return e.IsFailing(m, models.PCB2) || e.IsFailing(m, models.PCB3)
}

// CheckWritable validates that a result may be recorded on the slot for the item.
// It does not check actor permissions.
func (e *Engine) CheckWritable(m *models.Muster, slot models.PcbSlot, itemID string) (topology.ChecklistItem, error) {
	const op = "record checklist result"

	if m.IsTerminal() {
		return topology.ChecklistItem{}, standarderrors.New(standarderrors.ErrInvalidTransition, standarderrors.ErrTerminal, op)
	}

	result := m.ChecklistResults.Slot(slot)
	if result == nil {
		return topology.ChecklistItem{}, standarderrors.Newf(standarderrors.ErrValidation, op, "unknown pcb slot %q", slot)
	}

	item, ok := e.topology.Item(m.Section, itemID)
	if !ok {
		return topology.ChecklistItem{}, standarderrors.New(standarderrors.ErrValidation, standarderrors.ErrUnknownItem, op)
	}

	if slot != models.PCB1 && !m.ThreeSampleMode {
		return topology.ChecklistItem{}, standarderrors.New(standarderrors.ErrValidation, standarderrors.ErrThreeSampleMode, op)
	}

	if result.SN == "" {
		return topology.ChecklistItem{}, standarderrors.New(standarderrors.ErrValidation, standarderrors.ErrSerialMissing, op)
	}

	return item, nil
}

// Record stores a result on the slot and trips the three-sample latch on a leader NOK.
// It returns true when this call tripped the latch. Recording the same value twice is a no-op.
func (e *Engine) Record(m *models.Muster, slot models.PcbSlot, itemID string, status models.ResultStatus) (bool, error) {
	if _, err := e.CheckWritable(m, slot, itemID); err != nil {
		return false, err
	}

	if status != models.ResultOK && status != models.ResultNOK {
		return false, standarderrors.Newf(standarderrors.ErrValidation, "record checklist result", "unknown result %q", status)
	}

	result := m.ChecklistResults.Slot(slot)
	if result.Items == nil {
		result.Items = make(map[string]models.ResultStatus)
	}

	result.Items[itemID] = status

	if slot != models.PCB1 || status != models.ResultNOK || m.ThreeSampleMode {
		return false, nil
	}

	m.ThreeSampleMode = true
	assignSpareSerials(m)

	return true, nil
}

// assignSpareSerials moves serials scanned at creation into the empty repair slots.
func assignSpareSerials(m *models.Muster) {
	for _, slot := range []models.PcbSlot{models.PCB2, models.PCB3} {
		result := m.ChecklistResults.Slot(slot)
		if result.SN != "" || len(m.SpareSerials) == 0 {
			continue
		}

		result.SN = m.SpareSerials[0]
		m.SpareSerials = m.SpareSerials[1:]
	}
}

// ScanSample sets the serial of a repair slot. Only valid in three-sample mode and only once per slot.
func (e *Engine) ScanSample(m *models.Muster, slot models.PcbSlot, sn string) error {
	const op = "scan sample"

	if m.IsTerminal() {
		return standarderrors.New(standarderrors.ErrInvalidTransition, standarderrors.ErrTerminal, op)
	}

	if slot != models.PCB2 && slot != models.PCB3 {
		return standarderrors.Newf(standarderrors.ErrValidation, op, "slot %q cannot be rescanned", slot)
	}

	if !m.ThreeSampleMode {
		return standarderrors.New(standarderrors.ErrValidation, standarderrors.ErrThreeSampleMode, op)
	}

	if sn == "" {
		return standarderrors.New(standarderrors.ErrValidation, standarderrors.ErrSerialMissing, op)
	}

	result := m.ChecklistResults.Slot(slot)
	if result.SN != "" && result.SN != sn {
		return standarderrors.Newf(standarderrors.ErrValidation, op, "slot %s already holds serial %s", slot, result.SN)
	}

	result.SN = sn

	return nil
}

// CanAdvance applies the progression rule for leaving the current section.
func (e *Engine) CanAdvance(m *models.Muster) error {
	const op = "advance"

	if !m.ThreeSampleMode {
		if m.Scenario == constants.ScenarioStandard || e.IsPassing(m, models.PCB1) {
			return nil
		}

		return standarderrors.Newf(standarderrors.ErrIncompleteChecklist, op, "leader sample %s is not passing", models.PCB1)
	}

	if e.IsFailing(m, models.PCB2) || e.IsFailing(m, models.PCB3) {
		return standarderrors.New(standarderrors.ErrIncompleteChecklist, standarderrors.ErrReportRequired, op)
	}

	if !e.IsPassing(m, models.PCB2) || !e.IsPassing(m, models.PCB3) {
		return standarderrors.Newf(standarderrors.ErrIncompleteChecklist, op, "repair samples %s and %s must both pass", models.PCB2, models.PCB3)
	}

	return nil
}

// NokSerials lists the serials of every failing slot.
func (e *Engine) NokSerials(m *models.Muster) []string {
	var serials []string

	for _, slot := range models.PcbSlots {
		if e.IsFailing(m, slot) {
			serials = append(serials, m.ChecklistResults.Slot(slot).SN)
		}
	}

	return serials
}
