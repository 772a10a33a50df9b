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

// Package visibility partitions muster collections into the active and history views of a viewer.
package visibility

import (
	"slices"
	"sort"
	"strings"
	"time"

	"github.com/united-manufacturing-hub/emuster/pkg/models"
	"github.com/united-manufacturing-hub/emuster/pkg/persistence"
	"github.com/united-manufacturing-hub/emuster/pkg/topology"
)

// Filters are the user-adjustable filters intersected with either view.
// Status matches the full label ("DO_WERYFIKACJI:Gniazdo AOI") or just its name ("DO_WERYFIKACJI").
type Filters struct {
	Line   string `form:"line" json:"line,omitempty"`
	Status string `form:"status" json:"status,omitempty"`
}

// KPI counts musters in the manager's scope by outcome-relevant status.
type KPI struct {
	PendingRelease  int `json:"pendingRelease"`
	PendingDecision int `json:"pendingDecision"`
	Released        int `json:"released"`
	Blocked         int `json:"blocked"`
}

// Engine derives per-viewer views. It holds no state besides the topology and the clock.
type Engine struct {
	topology *topology.Provider
	calendar Calendar
	now      func() time.Time
}

// NewEngine creates a visibility engine. A nil clock uses time.Now.
func NewEngine(topo *topology.Provider, calendar Calendar, now func() time.Time) *Engine {
	if now == nil {
		now = time.Now
	}

	return &Engine{topology: topo, calendar: calendar, now: now}
}

// Calendar returns the shift calendar of the engine.
func (e *Engine) Calendar() Calendar {
	return e.calendar
}

// ScopeQuery narrows a store query to the musters a viewer could possibly see.
// The result is a superset; Active and History apply the exact rules.
func (e *Engine) ScopeQuery(actor models.Actor, filters Filters) *persistence.Query {
	query := persistence.NewQuery().Newest()

	if filters.Line != "" {
		query.ForLine(filters.Line)
	}

	if actor.IsManager() && actor.Area != "" {
		query.InLines(e.topology.LinesOf(actor.Area))
	}

	return query
}

// ActiveQuery is ScopeQuery further limited to the operator's own line, which
// is the only line the active view shows them.
func (e *Engine) ActiveQuery(actor models.Actor, filters Filters) *persistence.Query {
	query := e.ScopeQuery(actor, filters)

	if actor.IsOperator() && actor.Line != "" {
		query.ForLine(actor.Line)
	}

	return query
}

// Active returns the active view, newest first.
//
// Operators see musters on their current line that are either still open or
// were closed within the current shift. Managers see musters waiting for them.
func (e *Engine) Active(actor models.Actor, musters []*models.Muster, filters Filters) []*models.Muster {
	now := e.now()

	return e.view(actor, musters, filters, func(m *models.Muster) bool {
		if actor.IsManager() {
			return m.Status.AwaitsManager()
		}

		if actor.Line != "" && m.Line != actor.Line {
			return false
		}

		return !m.IsTerminal() || e.calendar.SameShift(m.Timestamp, now)
	})
}

// History returns closed musters, newest first. Operators only see musters they
// created or that were processed by their area.
func (e *Engine) History(actor models.Actor, musters []*models.Muster, filters Filters) []*models.Muster {
	return e.view(actor, musters, filters, func(m *models.Muster) bool {
		if !m.IsTerminal() {
			return false
		}

		if actor.IsManager() {
			return true
		}

		return m.CreatedBy == actor.ID || m.ProcessedInArea(actor.Area)
	})
}

// KPI counts the musters within the manager's area scope.
func (e *Engine) KPI(actor models.Actor, musters []*models.Muster) KPI {
	var kpi KPI

	for _, m := range musters {
		if !e.inScope(actor, m) {
			continue
		}

		switch m.Status.Kind {
		case models.StatusPendingRelease:
			kpi.PendingRelease++
		case models.StatusPendingManagerDecision:
			kpi.PendingDecision++
		case models.StatusReleased:
			kpi.Released++
		case models.StatusBlocked:
			kpi.Blocked++
		}
	}

	return kpi
}

func (e *Engine) view(actor models.Actor, musters []*models.Muster, filters Filters, visible func(*models.Muster) bool) []*models.Muster {
	out := make([]*models.Muster, 0, len(musters))

	for _, m := range musters {
		if e.inScope(actor, m) && visible(m) && filters.match(m) {
			out = append(out, m)
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Timestamp.After(out[j].Timestamp)
	})

	return out
}

// inScope restricts managers to the lines of their selected area and operators to their line.
func (e *Engine) inScope(actor models.Actor, m *models.Muster) bool {
	if actor.IsManager() {
		return actor.Area == "" || slices.Contains(e.topology.LinesOf(actor.Area), m.Line)
	}

	return true
}

func (f Filters) match(m *models.Muster) bool {
	if f.Line != "" && m.Line != f.Line {
		return false
	}

	if f.Status == "" {
		return true
	}

	label := m.Status.String()
	if label == f.Status {
		return true
	}

	name, _, _ := strings.Cut(label, ":")

	return !strings.Contains(f.Status, ":") && name == f.Status
}
