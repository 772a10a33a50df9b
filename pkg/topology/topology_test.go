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


package topology_test

import (
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/united-manufacturing-hub/emuster/pkg/topology"
)

const smallPlant = `
areas:
  - name: SMT
    lines: [CMPO-9]
  - name: TESTY
    lines: [CFCT-9, PUSTA-1]
lines:
  CMPO-9: ["Montaż SMT", "Gniazdo AOI"]
  CFCT-9: ["FCT"]
  PUSTA-1: []
capabilities:
  "Montaż SMT": {canCreate: true}
  "Gniazdo AOI": {canFinish: true}
  FCT: {canCreate: true, canFinish: true}
checklists:
  "Montaż SMT":
    - {id: smt_1, text: SPI, kind: AUTOMATIC}
    - {id: smt_2, text: Pasta, kind: VISUAL}
scenarios:
  - {id: SCENARIO_A, title: A, description: Start-Stop}
reasons:
  - {id: A1, label: Awaria, scenario: SCENARIO_A}
`

var _ = Describe("Provider", func() {
	var topo *topology.Provider

	BeforeEach(func() {
		topo = topology.Default()
	})

	It("answers area and line questions", func() {
		Expect(topo.Areas()).To(Equal([]string{"SMT", "THT", "TESTY", "DEPANEL"}))
		Expect(topo.LinesOf("THT")).To(Equal([]string{"CMPR-2", "CMPR-3", "DMPR-4"}))
		Expect(topo.LinesOf("LAKIER")).To(BeNil())

		area, ok := topo.AreaOfLine("DXRAY-2")
		Expect(ok).To(BeTrue())
		Expect(area).To(Equal("TESTY"))

		Expect(topo.HasArea("DEPANEL")).To(BeTrue())
		Expect(topo.HasArea("depanel")).To(BeFalse())
	})

	It("orders the sections of a line", func() {
		Expect(topo.SectionsOf("CMPR-2")).To(Equal([]string{"Montaż Ręczny", "Lutowanie na Fali", "AOI THT", "Tester ICT"}))
		Expect(topo.SectionsOf("DMPR-4")).To(HaveLen(3))

		first, ok := topo.FirstSection("CXRAY-1")
		Expect(ok).To(BeTrue())
		Expect(first).To(Equal("AOI Test"))

		next, ok := topo.NextSection("CMPR-2", "Lutowanie na Fali")
		Expect(ok).To(BeTrue())
		Expect(next).To(Equal("AOI THT"))

		_, ok = topo.NextSection("CMPR-2", "Tester ICT")
		Expect(ok).To(BeFalse())

		Expect(topo.IsLastSection("DMPR-4", "AOI THT")).To(BeTrue())
		Expect(topo.IsLastSection("CMPR-2", "AOI THT")).To(BeFalse())
		Expect(topo.IsLastSection("CMPR-2", "FCT")).To(BeFalse())
		Expect(topo.IsLastSection("CMPR-2", "")).To(BeFalse())
	})

	It("collects the sections of an area once", func() {
		Expect(topo.SectionsOfArea("TESTY")).To(Equal([]string{"FCT", "AOI Test", "X-RAY", "Tester ICT"}))
	})

	It("hands out copies", func() {
		sections := topo.SectionsOf("CMPO-1")
		sections[0] = "changed"

		Expect(topo.SectionsOf("CMPO-2")[0]).To(Equal("Montaż SMT"))

		catalog, err := topo.Catalog()
		Expect(err).NotTo(HaveOccurred())
		catalog.Capabilities["Montaż SMT"] = topology.Capability{}

		Expect(topo.Capability("Montaż SMT").CanCreate).To(BeTrue())
	})

	It("describes sections", func() {
		Expect(topo.Capability("FCT")).To(Equal(topology.Capability{CanCreate: true, CanFinish: true}))
		Expect(topo.Capability("Nieznana")).To(Equal(topology.Capability{}))

		Expect(topo.ChecklistItems("Montaż SMT")).To(HaveLen(6))

		item, ok := topo.Item("Gniazdo AOI", "aoi_2")
		Expect(ok).To(BeTrue())
		Expect(item.Kind).To(Equal(topology.KindAutomatic))

		_, ok = topo.Item("Gniazdo AOI", "smt_1")
		Expect(ok).To(BeFalse())
	})

	It("binds reasons to scenarios", func() {
		Expect(topo.Scenarios()).To(HaveLen(3))
		Expect(topo.ReasonsFor("SCENARIO_B")).To(HaveLen(3))

		reason, ok := topo.Reason("C2")
		Expect(ok).To(BeTrue())
		Expect(reason.ScenarioID).To(Equal("SCENARIO_C"))
	})

	DescribeTable("PcbSide",
		func(sn, side string) {
			Expect(topology.PcbSide(sn)).To(Equal(side))
		},
		Entry("bottom", "B12345", "BOT"),
		Entry("top", "l12345", "TOP"),
		Entry("other", "X1", "N/A"),
		Entry("empty", "", "N/A"),
	)

	It("recognises SMT lines", func() {
		Expect(topology.IsSmtLine("CMPO-1")).To(BeTrue())
		Expect(topology.IsSmtLine("DMPO-8")).To(BeTrue())
		Expect(topology.IsSmtLine("CMPR-2")).To(BeFalse())
	})

	Describe("loading", func() {
		It("parses a YAML catalog including lines without sections", func() {
			parsed, err := topology.Parse([]byte(smallPlant))
			Expect(err).NotTo(HaveOccurred())

			Expect(parsed.Areas()).To(Equal([]string{"SMT", "TESTY"}))
			Expect(parsed.SectionsOf("PUSTA-1")).To(BeEmpty())

			_, ok := parsed.FirstSection("PUSTA-1")
			Expect(ok).To(BeFalse())

			Expect(parsed.ChecklistItems("Montaż SMT")[0].Kind).To(Equal(topology.KindAutomatic))
		})

		It("round-trips the built-in catalog through a file", func() {
			data, err := topo.Marshal()
			Expect(err).NotTo(HaveOccurred())

			path := filepath.Join(GinkgoT().TempDir(), "topology.yaml")
			Expect(os.WriteFile(path, data, 0o600)).To(Succeed())

			loaded, err := topology.LoadFile(path)
			Expect(err).NotTo(HaveOccurred())
			Expect(loaded.SectionsOf("CMPR-2")).To(Equal(topo.SectionsOf("CMPR-2")))
			Expect(loaded.ReasonsFor("SCENARIO_A")).To(Equal(topo.ReasonsFor("SCENARIO_A")))
		})

		It("rejects inconsistent catalogs", func() {
			_, err := topology.NewProvider(topology.Catalog{
				Areas: []topology.Area{
					{Name: "A", Lines: []string{"L-1"}},
					{Name: "B", Lines: []string{"L-1", "L-2"}},
				},
				Lines:   map[string][]string{"L-1": {"S"}},
				Reasons: []topology.Reason{{ID: "R", ScenarioID: "NOPE"}},
			})
			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring("listed in both A and B"))
			Expect(err.Error()).To(ContainSubstring("L-2 of area B has no section list"))
			Expect(err.Error()).To(ContainSubstring("unknown scenario NOPE"))
		})

		It("reports missing files", func() {
			_, err := topology.LoadFile(filepath.Join(GinkgoT().TempDir(), "missing.yaml"))
			Expect(err).To(HaveOccurred())
		})
	})
})
