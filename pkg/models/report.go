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

// Report field names, also used as keys of ManagerComments.
const (
	ReportFieldProblem     = "problem"
	ReportFieldWho         = "who"
	ReportFieldWhat        = "what"
	ReportFieldWhere       = "where"
	ReportFieldWhen        = "when"
	ReportFieldDescription = "description"
)

// ReportFields lists every annotatable field.
var ReportFields = []string{
	ReportFieldProblem,
	ReportFieldWho,
	ReportFieldWhat,
	ReportFieldWhere,
	ReportFieldWhen,
	ReportFieldDescription,
}

// Report5W2H is the root-cause capture attached to a failing muster.
type Report5W2H struct {
	Problem     string `json:"problem"`
	Who         string `json:"who"`
	What        string `json:"what"`
	Where       string `json:"where"`
	When        string `json:"when"`
	Description string `json:"description"`
	// NokSerials lists the serial numbers of the failing samples.
	NokSerials      []string          `json:"nokSerials,omitempty"`
	ManagerComments map[string]string `json:"managerComments,omitempty"`
}

// Outcome is a manager decision.
type Outcome string

const (
	OutcomeApprove Outcome = "APPROVE"
	OutcomeBlock   Outcome = "BLOCK"
)
