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

package constants

import "time"

const (
	// DefaultHTTPPort is the port of the muster API.
	DefaultHTTPPort = 8080

	// DefaultMetricsPort is the port of the prometheus endpoint.
	DefaultMetricsPort = 8081

	// DefaultTimezone is the plant timezone used for the shift calendar.
	DefaultTimezone = "Europe/Warsaw"

	// ShiftOneStartHour and ShiftOneEndHour bound the day shift [07:00,19:00).
	ShiftOneStartHour = 7
	ShiftOneEndHour   = 19

	// ShiftOne and ShiftTwo are the labels printed on shift reports.
	ShiftOne = "Zmiana I"
	ShiftTwo = "Zmiana II"

	// DisplayTimestampFormat is the plant-wide timestamp layout ("DD.MM.YYYY, HH:mm").
	DisplayTimestampFormat = "02.01.2006, 15:04"
)

const (
	// DefaultMESDelay is how long the simulated MES takes to answer.
	DefaultMESDelay = time.Second

	// DefaultMESOKProbability is the likelihood of an OK answer from the simulated MES.
	DefaultMESOKProbability = 0.9

	// DefaultMESTimeout bounds a single automatic fetch including retries.
	DefaultMESTimeout = 5 * time.Second

	// DefaultMESMaxRetries is the number of retries for a failed measurement.
	DefaultMESMaxRetries = 3

	// DefaultAppliedTokenTTL is how long applied fetch tokens are remembered.
	DefaultAppliedTokenTTL = time.Hour

	// DefaultViewScanLimit caps how many musters a single list view reads from the store.
	DefaultViewScanLimit = 10000
)

const (
	// ScenarioStandard is the no-inspection default scenario of the simple creation path.
	ScenarioStandard = "STANDARD"

	// ReasonStandardLabel is the reason label of the simple creation path.
	ReasonStandardLabel = "Standard"

	// ReportWhoDefault is used when a 5W2H report does not name a responsible party.
	ReportWhoDefault = "MACHINE"
)
