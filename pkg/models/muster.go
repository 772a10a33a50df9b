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

package models

import (
	"fmt"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/goccy/go-json"
	"github.com/tiendc/go-deepcopy"
)

// PcbSlot identifies one of the three sample boards of a muster.
type PcbSlot string

const (
	PCB1 PcbSlot = "pcb1"
	PCB2 PcbSlot = "pcb2"
	PCB3 PcbSlot = "pcb3"
)

// PcbSlots lists the slots in display order. PCB1 is the leader sample.
var PcbSlots = []PcbSlot{PCB1, PCB2, PCB3}

// ParsePcbSlot validates a slot name.
func ParsePcbSlot(s string) (PcbSlot, error) {
	switch PcbSlot(s) {
	case PCB1, PCB2, PCB3:
		return PcbSlot(s), nil
	default:
		return "", fmt.Errorf("unknown pcb slot %q", s)
	}
}

// ResultStatus is the outcome of a single checklist item.
type ResultStatus string

const (
	ResultOK  ResultStatus = "OK"
	ResultNOK ResultStatus = "NOK"
)

// ParseResultStatus validates a result value.
func ParseResultStatus(s string) (ResultStatus, error) {
	switch ResultStatus(s) {
	case ResultOK, ResultNOK:
		return ResultStatus(s), nil
	default:
		return "", fmt.Errorf("unknown result %q", s)
	}
}

// PcbResult holds the serial number of one sample and its results keyed by checklist item id.
type PcbResult struct {
	SN    string                  `json:"sn"`
	Items map[string]ResultStatus `json:"items"`
}

// ChecklistResults are the three sample slots of a muster.
type ChecklistResults struct {
	PCB1 PcbResult `json:"pcb1"`
	PCB2 PcbResult `json:"pcb2"`
	PCB3 PcbResult `json:"pcb3"`
}

// Slot returns a pointer to the result of the given slot, or nil for an unknown slot.
func (c *ChecklistResults) Slot(slot PcbSlot) *PcbResult {
	switch slot {
	case PCB1:
		return &c.PCB1
	case PCB2:
		return &c.PCB2
	case PCB3:
		return &c.PCB3
	default:
		return nil
	}
}

// Reason explains why the muster was opened.
type Reason struct {
	ID       string `json:"id,omitempty"`
	Label    string `json:"label"`
	Scenario string `json:"scenario,omitempty"`
}

// HistoryEntry records one transition. Entries are never edited once appended.
type HistoryEntry struct {
	User      string    `json:"user"`
	UserID    string    `json:"userId"`
	Area      string    `json:"area"`
	Section   string    `json:"section"`
	Action    string    `json:"action"`
	Timestamp time.Time `json:"timestamp"`
}

// Muster is a quality sign-off document for one PCB batch.
type Muster struct {
	ID        string    `json:"id"`
	OrderID   string    `json:"orderId"`
	Product   string    `json:"product"`
	SN        string    `json:"sn"`
	Timestamp time.Time `json:"timestamp"`
	Status    Status    `json:"status"`

	Area         string `json:"area"`
	Line         string `json:"line"`
	Section      string `json:"section"`
	Side         string `json:"side"`
	PreviousArea string `json:"previousArea,omitempty"`

	Scenario string `json:"scenario"`
	Reason   Reason `json:"reason"`

	ChecklistResults ChecklistResults `json:"checklistResults"`
	// ThreeSampleMode latches once the leader sample records a NOK.
	ThreeSampleMode bool `json:"threeSampleMode"`
	// SpareSerials were scanned at creation and move into pcb2/pcb3 when the latch trips.
	SpareSerials []string `json:"spareSerials,omitempty"`

	Report5W2H *Report5W2H `json:"report5w2h,omitempty"`

	CreatedBy       string         `json:"createdBy"`
	CreationSection string         `json:"creationSection"`
	ProcessedBy     []HistoryEntry `json:"processedBy"`

	// Version is a content hash of the stored revision.
	Version uint64 `json:"version"`
}

// IsTerminal reports whether the muster was released or blocked.
func (m *Muster) IsTerminal() bool {
	return m.Status.IsTerminal()
}

// IsDraft reports whether the muster has not left its creation status.
func (m *Muster) IsDraft() bool {
	return m.Status.Kind == StatusInit
}

// AppendHistory adds an entry to the append-only log.
func (m *Muster) AppendHistory(entry HistoryEntry) {
	m.ProcessedBy = append(m.ProcessedBy, entry)
}

// ProcessedInArea reports whether any history entry was written from the given area.
func (m *Muster) ProcessedInArea(area string) bool {
	for _, entry := range m.ProcessedBy {
		if entry.Area == area {
			return true
		}
	}

	return false
}

// Clone returns an independent deep copy.
func (m *Muster) Clone() (*Muster, error) {
	var clone Muster
	if err := deepcopy.Copy(&clone, m); err != nil {
		return nil, fmt.Errorf("failed to copy muster %s: %w", m.ID, err)
	}

	return &clone, nil
}

// ComputeVersion hashes the muster content, ignoring the Version field itself.
func (m *Muster) ComputeVersion() (uint64, error) {
	shadow := *m
	shadow.Version = 0

	data, err := json.Marshal(&shadow)
	if err != nil {
		return 0, fmt.Errorf("failed to encode muster %s: %w", m.ID, err)
	}

	return xxhash.Sum64(data), nil
}
