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

// Package permissions holds the single predicate deciding whether an actor may edit a muster.
// Every mutating operation consults it; nothing else recomputes the rule.
package permissions

import (
	"github.com/united-manufacturing-hub/emuster/pkg/models"
	"github.com/united-manufacturing-hub/emuster/pkg/standarderrors"
	"github.com/united-manufacturing-hub/emuster/pkg/topology"
)

// Policy evaluates the access rule against the plant topology.
type Policy struct {
	topology *topology.Provider
}

func NewPolicy(topo *topology.Provider) *Policy {
	return &Policy{topology: topo}
}

// IsReadOnly reports whether the muster is read-only for the actor.
//
// A muster is editable only when all of these hold: the actor is an operator,
// the actor's section may create or finish musters or the status names the
// actor's section, and the status is neither terminal nor awaiting a manager.
func (p *Policy) IsReadOnly(actor models.Actor, m *models.Muster) bool {
	if !actor.IsOperator() {
		return true
	}

	if m.Status.IsTerminal() || m.Status.AwaitsManager() {
		return true
	}

	capability := p.topology.Capability(actor.Section)
	if capability.CanCreate || capability.CanFinish {
		return false
	}

	return !m.Status.Targets(actor.Section)
}

// RequireEditable returns a NotAuthorized error when the muster is read-only for the actor.
func (p *Policy) RequireEditable(op string, actor models.Actor, m *models.Muster) error {
	if p.IsReadOnly(actor, m) {
		return standarderrors.New(standarderrors.ErrNotAuthorized, standarderrors.ErrReadOnly, op)
	}

	return nil
}

// CanCreate reports whether the actor may open a new muster from the current section.
func (p *Policy) CanCreate(actor models.Actor) bool {
	return actor.IsOperator() && p.topology.Capability(actor.Section).CanCreate
}

// RequireManager returns a NotAuthorized error unless the actor is a manager.
func RequireManager(op string, actor models.Actor) error {
	if !actor.IsManager() {
		return standarderrors.New(standarderrors.ErrNotAuthorized, standarderrors.ErrNotManager, op)
	}

	return nil
}
