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

package visibility

import (
	"time"

	"github.com/united-manufacturing-hub/emuster/pkg/constants"
)

// Calendar places timestamps into the two 12-hour plant shifts.
type Calendar struct {
	location *time.Location
}

// NewCalendar creates a calendar in the plant timezone. A nil location uses time.Local.
func NewCalendar(location *time.Location) Calendar {
	if location == nil {
		location = time.Local
	}

	return Calendar{location: location}
}

// Location is the wall-clock zone shifts are computed in.
func (c Calendar) Location() *time.Location {
	return c.location
}

// ShiftOf returns the shift label of t: Shift I for [07:00,19:00), Shift II otherwise.
func (c Calendar) ShiftOf(t time.Time) string {
	hour := t.In(c.location).Hour()
	if hour >= constants.ShiftOneStartHour && hour < constants.ShiftOneEndHour {
		return constants.ShiftOne
	}

	return constants.ShiftTwo
}

// SameShift is true iff a and b fall on the same calendar day and carry the same shift label.
// The night shift therefore splits at midnight.
func (c Calendar) SameShift(a, b time.Time) bool {
	ay, am, ad := a.In(c.location).Date()
	by, bm, bd := b.In(c.location).Date()

	return ay == by && am == bm && ad == bd && c.ShiftOf(a) == c.ShiftOf(b)
}
