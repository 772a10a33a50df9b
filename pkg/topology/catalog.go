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

package topology

// ItemKind tells where a checklist result comes from.
type ItemKind string

const (
	// KindAutomatic results are fetched from the measurement system.
	KindAutomatic ItemKind = "AUTOMATIC"
	// KindVisual results are set by the operator.
	KindVisual ItemKind = "VISUAL"
)

// ChecklistItem is a single inspection point of a section.
type ChecklistItem struct {
	ID   string   `yaml:"id" json:"id"`
	Text string   `yaml:"text" json:"text"`
	Kind ItemKind `yaml:"kind" json:"kind"`
}

// Capability tells whether a section may open or close musters.
type Capability struct {
	CanCreate bool `yaml:"canCreate" json:"canCreate"`
	CanFinish bool `yaml:"canFinish" json:"canFinish"`
}

// Area is a production zone with its lines in display order.
type Area struct {
	Name  string   `yaml:"name" json:"name"`
	Lines []string `yaml:"lines" json:"lines"`
}

// Scenario is one of the inspection scenarios offered by the creation wizard.
type Scenario struct {
	ID          string `yaml:"id" json:"id"`
	Title       string `yaml:"title" json:"title"`
	Description string `yaml:"description" json:"description"`
}

// Reason is a creation reason bound to a scenario.
type Reason struct {
	ID         string `yaml:"id" json:"id"`
	Label      string `yaml:"label" json:"label"`
	ScenarioID string `yaml:"scenario" json:"scenario"`
}

// Catalog is the static plant description.
type Catalog struct {
	Areas        []Area                     `yaml:"areas" json:"areas"`
	Lines        map[string][]string        `yaml:"lines" json:"lines"`
	Capabilities map[string]Capability      `yaml:"capabilities" json:"capabilities"`
	Checklists   map[string][]ChecklistItem `yaml:"checklists" json:"checklists"`
	Scenarios    []Scenario                 `yaml:"scenarios" json:"scenarios"`
	Reasons      []Reason                   `yaml:"reasons" json:"reasons"`
}

func automatic(id, text string) ChecklistItem {
	return ChecklistItem{ID: id, Text: text, Kind: KindAutomatic}
}

func visual(id, text string) ChecklistItem {
	return ChecklistItem{ID: id, Text: text, Kind: KindVisual}
}

// DefaultCatalog describes the plant as it is wired on the shop floor.
func DefaultCatalog() Catalog {
	smt := []string{"Montaż SMT", "Gniazdo AOI"}
	tht := []string{"Montaż Ręczny", "Lutowanie na Fali", "AOI THT", "Tester ICT"}
	depanel := []string{"Stanowisko Depanelizacji"}

	return Catalog{
		Areas: []Area{
			{Name: "SMT", Lines: []string{"CMPO-1", "CMPO-2", "CMPO-3", "CMPO-4", "CMPO-5", "DMPO-7", "DMPO-8"}},
			{Name: "THT", Lines: []string{"CMPR-2", "CMPR-3", "DMPR-4"}},
			{Name: "TESTY", Lines: []string{"CFCT-1", "DFCT-2", "CXRAY-1", "DXRAY-1", "DXRAY-2"}},
			{Name: "DEPANEL", Lines: []string{"CSTANZE-2", "CSTANZE-3", "DSTANZE-1", "DFREZARKA-1", "DFREZARKA-2"}},
		},
		Lines: map[string][]string{
			"CMPO-1": smt, "CMPO-2": smt, "CMPO-3": smt, "CMPO-4": smt, "CMPO-5": smt, "DMPO-7": smt, "DMPO-8": smt,
			"CMPR-2":      tht,
			"CMPR-3":      tht,
			"DMPR-4":      tht[:3],
			"CFCT-1":      {"FCT"},
			"DFCT-2":      {"FCT"},
			"CXRAY-1":     {"AOI Test", "X-RAY", "Tester ICT"},
			"DXRAY-1":     {"X-RAY", "Tester ICT"},
			"DXRAY-2":     {"AOI Test", "X-RAY", "Tester ICT"},
			"CSTANZE-2":   depanel,
			"CSTANZE-3":   depanel,
			"DSTANZE-1":   depanel,
			"DFREZARKA-1": depanel,
			"DFREZARKA-2": depanel,
		},
		Capabilities: map[string]Capability{
			"Montaż SMT":               {CanCreate: true},
			"Gniazdo AOI":              {CanFinish: true},
			"Montaż Ręczny":            {CanCreate: true},
			"Lutowanie na Fali":        {},
			"AOI THT":                  {CanFinish: true},
			"Tester ICT":               {CanFinish: true},
			"FCT":                      {CanCreate: true, CanFinish: true},
			"AOI Test":                 {CanCreate: true},
			"X-RAY":                    {CanCreate: true},
			"Stanowisko Depanelizacji": {CanCreate: true, CanFinish: true},
		},
		Checklists: map[string][]ChecklistItem{
			"Montaż SMT": {
				automatic("smt_1", "Wynik automatycznej kontroli SPI"),
				visual("smt_2", "Występowanie pasty w obcych miejscach"),
				visual("smt_3", "Obecność układów scalonych (P&P)"),
				visual("smt_4", "Pozycja układów scalonych"),
				visual("smt_5", "Polaryzacja układów scalonych"),
				visual("smt_6", "Brak podniesionych komponentów Pin in Paste"),
			},
			"Gniazdo AOI": {
				automatic("aoi_1", "Wynik automatycznej kontroli AOI"),
				automatic("aoi_2", "Dostępność logów w Repair Station"),
				visual("aoi_3", "Brak kulek lutu"),
				visual("aoi_4", "Brak zanieczyszczeń PCB"),
			},
			"Montaż Ręczny": {
				visual("tht_1", "Obecność komponentów THT"),
				visual("tht_2", "Poprawność montażu"),
				visual("tht_3", "Polaryzacja komponentów"),
			},
			"Lutowanie na Fali": {
				visual("fala_1", "Poprawność programu maszynowego"),
				visual("fala_2", "Brak zalań lutowiem"),
			},
			"AOI THT":                  {automatic("aoitht_1", "Wynik automatycznej kontroli AOI")},
			"Tester ICT":               {automatic("ict_1", "Wynik testu ICT")},
			"FCT":                      {automatic("fct_1", "Wynik testu FCT_HLP")},
			"X-RAY":                    {automatic("xray_1", "Wynik kontroli X-RAY")},
			"AOI Test":                 {automatic("aoitest_1", "Wynik automatycznej kontroli AOI")},
			"Stanowisko Depanelizacji": {visual("dep_1", "Linia cięcia w granicy mostków")},
		},
		Scenarios: []Scenario{
			{ID: "SCENARIO_A", Title: "Nawadnianie do Pieca", Description: "Tryb Start-Stop. Weryfikacja przed piecem."},
			{ID: "SCENARIO_B", Title: "Pełny Przepływ", Description: "Ciągła produkcja. Pobranie ze strumienia."},
			{ID: "SCENARIO_C", Title: "Seria Próbna", Description: "Tryb Inżynierski. Limitowana partia."},
		},
		Reasons: []Reason{
			{ID: "A1", Label: "Po awarii / naprawie maszyny kluczowej", ScenarioID: "SCENARIO_A"},
			{ID: "A2", Label: "Po przeglądzie UTR", ScenarioID: "SCENARIO_A"},
			{ID: "A3", Label: "Zmiana grupy projektowej (np. MIB na AED)", ScenarioID: "SCENARIO_A"},
			{ID: "A4", Label: "Po postoju dłuższym niż 2h (krótszym niż 12h)", ScenarioID: "SCENARIO_A"},
			{ID: "A5", Label: "Po postoju dłuższym niż 12h", ScenarioID: "SCENARIO_A"},
			{ID: "B1", Label: "Zmiana ID projektu w obrębie jednej grupy projektowej", ScenarioID: "SCENARIO_B"},
			{ID: "B2", Label: "Przejęcie Zmiany", ScenarioID: "SCENARIO_B"},
			{ID: "B3", Label: "Po konserwacji operatorskiej", ScenarioID: "SCENARIO_B"},
			{ID: "C1", Label: "Wdrożenie / Sample", ScenarioID: "SCENARIO_C"},
			{ID: "C2", Label: "Specjalne testy inżynierskie", ScenarioID: "SCENARIO_C"},
		},
	}
}
