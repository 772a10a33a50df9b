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
)

// Role is the base role of an actor.
type Role string

const (
	RoleOperator Role = "OPERATOR"
	RoleManager  Role = "MANAGER"
)

// ParseRole accepts the role names used on the shop floor, including KIEROWNIK for managers.
func ParseRole(s string) (Role, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case string(RoleOperator):
		return RoleOperator, nil
	case string(RoleManager), "KIEROWNIK":
		return RoleManager, nil
	default:
		return "", fmt.Errorf("unknown role %q", s)
	}
}

// Actor is the person performing an action, together with where they currently stand.
// Managers switch Area, operators switch Section within their Line.
type Actor struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Role    Role   `json:"role"`
	Area    string `json:"area"`
	Line    string `json:"line,omitempty"`
	Section string `json:"section,omitempty"`
}

func (a Actor) IsManager() bool {
	return a.Role == RoleManager
}

func (a Actor) IsOperator() bool {
	return a.Role == RoleOperator
}
