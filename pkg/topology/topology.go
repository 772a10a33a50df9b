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

// Package topology answers static questions about the plant: which lines belong
// to an area, the ordered sections of a line, what a section may do and which
// checklist items it inspects.
//
// A Provider is immutable after construction and safe for concurrent use. All
// returned slices are copies.
package topology

import (
	"errors"
	"fmt"
	"os"
	"slices"
	"strings"

	"github.com/tiendc/go-deepcopy"
	"gopkg.in/yaml.v3"
)

// Provider serves lookups over a validated Catalog.
type Provider struct {
	catalog    Catalog
	lineToArea map[string]string
}

// NewProvider validates the catalog and indexes it.
func NewProvider(catalog Catalog) (*Provider, error) {
	p := &Provider{
		catalog:    catalog,
		lineToArea: make(map[string]string),
	}

	var errs []error

	for _, area := range catalog.Areas {
		if area.Name == "" {
			errs = append(errs, errors.New("area without a name"))

			continue
		}

		for _, line := range area.Lines {
			if owner, taken := p.lineToArea[line]; taken {
				errs = append(errs, fmt.Errorf("line %s is listed in both %s and %s", line, owner, area.Name))

				continue
			}

			if _, ok := catalog.Lines[line]; !ok {
				errs = append(errs, fmt.Errorf("line %s of area %s has no section list", line, area.Name))
			}

			p.lineToArea[line] = area.Name
		}
	}

	for _, reason := range catalog.Reasons {
		if _, ok := p.Scenario(reason.ScenarioID); !ok {
			errs = append(errs, fmt.Errorf("reason %s refers to unknown scenario %s", reason.ID, reason.ScenarioID))
		}
	}

	if err := errors.Join(errs...); err != nil {
		return nil, fmt.Errorf("invalid topology: %w", err)
	}

	return p, nil
}

// Default returns the provider for the built-in plant catalog.
func Default() *Provider {
	p, err := NewProvider(DefaultCatalog())
	if err != nil {
		panic(err)
	}

	return p
}

// LoadFile reads a YAML catalog from disk.
func LoadFile(path string) (*Provider, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read topology file %s: %w", path, err)
	}

	return Parse(data)
}

// Parse decodes a YAML catalog.
func Parse(data []byte) (*Provider, error) {
	var catalog Catalog
	if err := yaml.Unmarshal(data, &catalog); err != nil {
		return nil, fmt.Errorf("failed to parse topology: %w", err)
	}

	return NewProvider(catalog)
}

// Marshal renders the catalog as YAML.
func (p *Provider) Marshal() ([]byte, error) {
	return yaml.Marshal(p.catalog)
}

// Catalog returns a copy of the underlying catalog.
func (p *Provider) Catalog() (Catalog, error) {
	var catalog Catalog
	if err := deepcopy.Copy(&catalog, &p.catalog); err != nil {
		return Catalog{}, fmt.Errorf("failed to copy topology: %w", err)
	}

	return catalog, nil
}

// Areas returns the area names in catalog order.
func (p *Provider) Areas() []string {
	names := make([]string, 0, len(p.catalog.Areas))
	for _, area := range p.catalog.Areas {
		names = append(names, area.Name)
	}

	return names
}

// HasArea reports whether the area exists.
func (p *Provider) HasArea(area string) bool {
	return slices.Contains(p.Areas(), area)
}

// LinesOf returns the lines of an area.
func (p *Provider) LinesOf(area string) []string {
	for _, a := range p.catalog.Areas {
		if a.Name == area {
			return slices.Clone(a.Lines)
		}
	}

	return nil
}

// AreaOfLine returns the area owning a line.
func (p *Provider) AreaOfLine(line string) (string, bool) {
	area, ok := p.lineToArea[line]

	return area, ok
}

// SectionsOf returns the ordered sections of a line. Lines without structure return an empty slice.
func (p *Provider) SectionsOf(line string) []string {
	return slices.Clone(p.catalog.Lines[line])
}

// SectionsOfArea returns every section used by any line of the area, first occurrence first.
func (p *Provider) SectionsOfArea(area string) []string {
	var sections []string

	for _, line := range p.LinesOf(area) {
		for _, section := range p.catalog.Lines[line] {
			if !slices.Contains(sections, section) {
				sections = append(sections, section)
			}
		}
	}

	return sections
}

// FirstSection returns the first section of a line.
func (p *Provider) FirstSection(line string) (string, bool) {
	sections := p.catalog.Lines[line]
	if len(sections) == 0 {
		return "", false
	}

	return sections[0], true
}

// NextSection returns the section following the given one on a line.
func (p *Provider) NextSection(line, section string) (string, bool) {
	sections := p.catalog.Lines[line]

	idx := slices.Index(sections, section)
	if idx < 0 || idx >= len(sections)-1 {
		return "", false
	}

	return sections[idx+1], true
}

// IsLastSection reports whether the section is the final one of the line.
// A section that is not part of the line is never last.
func (p *Provider) IsLastSection(line, section string) bool {
	sections := p.catalog.Lines[line]

	return len(sections) > 0 && sections[len(sections)-1] == section
}

// Capability returns what a section may do. Unknown sections may do nothing.
func (p *Provider) Capability(section string) Capability {
	return p.catalog.Capabilities[section]
}

// ChecklistItems returns the inspection items of a section in display order.
func (p *Provider) ChecklistItems(section string) []ChecklistItem {
	return slices.Clone(p.catalog.Checklists[section])
}

// Item looks up a single checklist item of a section.
func (p *Provider) Item(section, itemID string) (ChecklistItem, bool) {
	for _, item := range p.catalog.Checklists[section] {
		if item.ID == itemID {
			return item, true
		}
	}

	return ChecklistItem{}, false
}

// Scenarios returns the scenario catalog.
func (p *Provider) Scenarios() []Scenario {
	return slices.Clone(p.catalog.Scenarios)
}

// Scenario looks up a scenario by id.
func (p *Provider) Scenario(id string) (Scenario, bool) {
	for _, s := range p.catalog.Scenarios {
		if s.ID == id {
			return s, true
		}
	}

	return Scenario{}, false
}

// Reason looks up a creation reason by id.
func (p *Provider) Reason(id string) (Reason, bool) {
	for _, r := range p.catalog.Reasons {
		if r.ID == id {
			return r, true
		}
	}

	return Reason{}, false
}

// ReasonsFor returns the reasons bound to a scenario.
func (p *Provider) ReasonsFor(scenarioID string) []Reason {
	var reasons []Reason

	for _, r := range p.catalog.Reasons {
		if r.ScenarioID == scenarioID {
			reasons = append(reasons, r)
		}
	}

	return reasons
}

// IsSmtLine reports whether a line uses the three-serial SMT creation wizard.
func IsSmtLine(line string) bool {
	return strings.Contains(line, "CMPO") || strings.Contains(line, "DMPO") || strings.Contains(line, "SMT")
}

// PcbSide derives the board side from the leader serial: B is the bottom, L the top.
func PcbSide(sn string) string {
	if sn == "" {
		return "N/A"
	}

	switch strings.ToUpper(sn[:1]) {
	case "B":
		return "BOT"
	case "L":
		return "TOP"
	default:
		return "N/A"
	}
}
