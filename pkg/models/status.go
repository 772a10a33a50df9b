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
	"strings"

	"github.com/goccy/go-json"
)

// StatusKind enumerates the statuses a muster can occupy.
type StatusKind int

const (
	StatusInit StatusKind = iota
	StatusPendingSectionReview
	StatusPendingAreaReview
	StatusPendingRelease
	StatusPendingManagerDecision
	StatusReleased
	StatusBlocked
)

// Plant-facing status labels.
const (
	StatusTextInit                   = "INICJACJA"
	StatusTextPendingSectionReview   = "DO_WERYFIKACJI"
	StatusTextPendingAreaReview      = "DO_WERYFIKACJI_OBSZAR"
	StatusTextPendingRelease         = "OCZEKUJE_NA_ZWOLNIENIE"
	StatusTextPendingManagerDecision = "DO_DECYZJI_KIEROWNIKA"
	StatusTextReleased               = "ZWOLNIONY_DO_PRODUKCJI"
	StatusTextBlocked                = "ZABLOKOWANY_NOK"
)

// Status is the muster status. Section is only set for PendingSectionReview,
// Area only for PendingAreaReview.
type Status struct {
	Kind    StatusKind
	Section string
	Area    string
}

var (
	Init                   = Status{Kind: StatusInit}
	PendingRelease         = Status{Kind: StatusPendingRelease}
	PendingManagerDecision = Status{Kind: StatusPendingManagerDecision}
	Released               = Status{Kind: StatusReleased}
	Blocked                = Status{Kind: StatusBlocked}
)

// PendingSectionReview waits for the given section to inspect the batch.
func PendingSectionReview(section string) Status {
	return Status{Kind: StatusPendingSectionReview, Section: section}
}

// PendingAreaReview waits for a section of the given area to claim the batch.
func PendingAreaReview(area string) Status {
	return Status{Kind: StatusPendingAreaReview, Area: area}
}

// IsTerminal reports whether no further mutation is allowed.
func (s Status) IsTerminal() bool {
	return s.Kind == StatusReleased || s.Kind == StatusBlocked
}

// AwaitsManager reports whether the next move belongs to a manager.
func (s Status) AwaitsManager() bool {
	return s.Kind == StatusPendingRelease || s.Kind == StatusPendingManagerDecision
}

// Targets reports whether the status names the given section as the pending reviewer.
func (s Status) Targets(section string) bool {
	return section != "" && s.Kind == StatusPendingSectionReview && s.Section == section
}

func (s Status) String() string {
	switch s.Kind {
	case StatusInit:
		return StatusTextInit
	case StatusPendingSectionReview:
		return StatusTextPendingSectionReview + ":" + s.Section
	case StatusPendingAreaReview:
		return StatusTextPendingAreaReview + ":" + s.Area
	case StatusPendingRelease:
		return StatusTextPendingRelease
	case StatusPendingManagerDecision:
		return StatusTextPendingManagerDecision
	case StatusReleased:
		return StatusTextReleased
	case StatusBlocked:
		return StatusTextBlocked
	default:
		return fmt.Sprintf("UNKNOWN(%d)", int(s.Kind))
	}
}

// ParseStatus parses the label form produced by String. A space after the colon is tolerated.
func ParseStatus(text string) (Status, error) {
	name, param, parameterized := strings.Cut(strings.TrimSpace(text), ":")
	param = strings.TrimSpace(param)

	switch name {
	case StatusTextPendingSectionReview:
		if !parameterized || param == "" {
			return Status{}, fmt.Errorf("status %q is missing its section", text)
		}

		return PendingSectionReview(param), nil
	case StatusTextPendingAreaReview:
		if !parameterized || param == "" {
			return Status{}, fmt.Errorf("status %q is missing its area", text)
		}

		return PendingAreaReview(param), nil
	}

	if parameterized {
		return Status{}, fmt.Errorf("status %q does not take a parameter", text)
	}

	switch name {
	case StatusTextInit:
		return Init, nil
	case StatusTextPendingRelease:
		return PendingRelease, nil
	case StatusTextPendingManagerDecision:
		return PendingManagerDecision, nil
	case StatusTextReleased:
		return Released, nil
	case StatusTextBlocked:
		return Blocked, nil
	default:
		return Status{}, fmt.Errorf("unknown status %q", text)
	}
}

// MarshalJSON encodes the status as its label.
func (s Status) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// UnmarshalJSON decodes a status label.
func (s *Status) UnmarshalJSON(data []byte) error {
	var text string
	if err := json.Unmarshal(data, &text); err != nil {
		return err
	}

	parsed, err := ParseStatus(text)
	if err != nil {
		return err
	}

	*s = parsed

	return nil
}
