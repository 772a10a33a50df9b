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


package muster_test

import (
	"context"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	musterfsm "github.com/united-manufacturing-hub/emuster/pkg/fsm/muster"
	"github.com/united-manufacturing-hub/emuster/pkg/models"
	musterservice "github.com/united-manufacturing-hub/emuster/pkg/service/muster"
	"github.com/united-manufacturing-hub/emuster/pkg/standarderrors"
	"github.com/united-manufacturing-hub/emuster/pkg/topology"
	"github.com/united-manufacturing-hub/emuster/pkg/visibility"
)

// warehouseTopology adds an area whose first line has no section structure.
func warehouseTopology() *topology.Provider {
	GinkgoHelper()

	catalog := topology.DefaultCatalog()
	catalog.Areas = append(catalog.Areas, topology.Area{Name: "MAGAZYN", Lines: []string{"MAG-1", "MAG-2"}})
	catalog.Lines["MAG-1"] = []string{}
	catalog.Lines["MAG-2"] = []string{"Kontrola Wyrywkowa"}
	catalog.Capabilities["Kontrola Wyrywkowa"] = topology.Capability{CanFinish: true}
	catalog.Checklists["Kontrola Wyrywkowa"] = []topology.ChecklistItem{
		{ID: "mag_1", Text: "Oznaczenie opakowania", Kind: topology.KindVisual},
	}

	topo, err := topology.NewProvider(catalog)
	Expect(err).NotTo(HaveOccurred())

	return topo
}

var keep = models.Actor{ID: "op-mag", Name: "Adam Mazur", Role: models.RoleOperator, Area: "MAGAZYN", Line: "MAG-2", Section: "Kontrola Wyrywkowa"}

var _ = Describe("Cross-area handover to a line without sections", func() {
	var (
		ctx context.Context
		svc *musterservice.MusterService
		m   *models.Muster
	)

	BeforeEach(func() {
		ctx = context.Background()
		clock := newTestClock(time.Date(2026, time.March, 10, 14, 0, 0, 0, plantZone))
		svc = newService(warehouseTopology(), clock, &fixedSource{status: models.ResultOK})

		var err error

		m, err = svc.CreateMuster(ctx, thtCreator, musterservice.CreateInput{OrderID: "ZP-3000", Product: "ZASILACZ", Serials: []string{"B3000"}})
		Expect(err).NotTo(HaveOccurred())

		for range 3 {
			_, err = svc.Advance(ctx, m.ID, musterfsm.ActionHandover, thtCreator, musterservice.AdvancePayload{})
			Expect(err).NotTo(HaveOccurred())
		}

		m, err = svc.Advance(ctx, m.ID, musterfsm.ActionCrossAreaHandover, ictOperator, musterservice.AdvancePayload{
			TargetArea: "MAGAZYN",
			TargetLine: "MAG-1",
		})
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		svc.Close()
	})

	It("leaves an area review placeholder without a section", func() {
		Expect(m.Section).To(BeEmpty())
		Expect(m.Status).To(Equal(models.PendingAreaReview("MAGAZYN")))
		Expect(m.Status.String()).To(Equal("DO_WERYFIKACJI_OBSZAR:MAGAZYN"))
		Expect(m.Area).To(Equal("MAGAZYN"))
		Expect(m.Line).To(Equal("MAG-1"))
		Expect(m.PreviousArea).To(Equal("THT"))
		Expect(m.ProcessedBy).To(HaveLen(4))
		expectConsistent(m)
	})

	It("accepts no handover until a section is assigned", func() {
		_, err := svc.Advance(ctx, m.ID, musterfsm.ActionHandover, keep, musterservice.AdvancePayload{})
		Expect(err).To(MatchError(standarderrors.ErrInvalidTransition))

		_, err = svc.Advance(ctx, m.ID, musterfsm.ActionFinish, keep, musterservice.AdvancePayload{})
		Expect(err).To(MatchError(standarderrors.ErrInvalidTransition))
	})

	It("lets an operator of the target area claim it", func() {
		claimed, err := svc.AssignSection(ctx, m.ID, "Kontrola Wyrywkowa", keep)
		Expect(err).NotTo(HaveOccurred())
		expectConsistent(claimed)

		Expect(claimed.Status.String()).To(Equal("DO_WERYFIKACJI:Kontrola Wyrywkowa"))
		Expect(claimed.Section).To(Equal("Kontrola Wyrywkowa"))
		Expect(claimed.Line).To(Equal("MAG-2"))
		Expect(claimed.ProcessedBy).To(HaveLen(5))
		Expect(claimed.ProcessedBy[4].Action).To(Equal("ASSIGN_SECTION"))
		Expect(claimed.ProcessedBy[4].UserID).To(Equal("op-mag"))
	})

	It("refuses claims from elsewhere", func() {
		_, err := svc.AssignSection(ctx, m.ID, "Kontrola Wyrywkowa", ictOperator)
		Expect(err).To(MatchError(standarderrors.ErrNotAuthorized))

		_, err = svc.AssignSection(ctx, m.ID, "Kontrola Wyrywkowa", models.Actor{ID: "mgr-mag", Role: models.RoleManager, Area: "MAGAZYN"})
		Expect(err).To(MatchError(standarderrors.ErrNotOperator))

		_, err = svc.AssignSection(ctx, m.ID, "FCT", keep)
		Expect(err).To(MatchError(standarderrors.ErrValidation))
		Expect(err).To(MatchError(standarderrors.ErrInvalidTarget))

		unsectioned := keep
		unsectioned.Line = "MAG-1"
		_, err = svc.AssignSection(ctx, m.ID, "Kontrola Wyrywkowa", unsectioned)
		Expect(err).To(MatchError(standarderrors.ErrInvalidTarget))

		strayLine := keep
		strayLine.Line = "CMPR-3"
		_, err = svc.AssignSection(ctx, m.ID, "Kontrola Wyrywkowa", strayLine)
		Expect(err).To(MatchError(standarderrors.ErrInvalidTarget))

		stored, err := svc.Get(ctx, m.ID)
		Expect(err).NotTo(HaveOccurred())
		Expect(stored.Status).To(Equal(models.PendingAreaReview("MAGAZYN")))
	})

	It("cannot be claimed twice", func() {
		_, err := svc.AssignSection(ctx, m.ID, "Kontrola Wyrywkowa", keep)
		Expect(err).NotTo(HaveOccurred())

		_, err = svc.AssignSection(ctx, m.ID, "Kontrola Wyrywkowa", keep)
		Expect(err).To(MatchError(standarderrors.ErrInvalidTransition))
	})
})

var _ = Describe("Claiming a muster onto a line with several sections", func() {
	var (
		ctx  context.Context
		svc  *musterservice.MusterService
		m    *models.Muster
		xray = models.Actor{ID: "op-xray", Name: "Zofia Dąbrowska", Role: models.RoleOperator, Area: "TESTY", Line: "CXRAY-1", Section: "AOI Test"}
	)

	BeforeEach(func() {
		ctx = context.Background()

		catalog := topology.DefaultCatalog()
		for i := range catalog.Areas {
			if catalog.Areas[i].Name == "TESTY" {
				catalog.Areas[i].Lines = append(catalog.Areas[i].Lines, "CTEST-X")
			}
		}
		catalog.Lines["CTEST-X"] = []string{}

		topo, err := topology.NewProvider(catalog)
		Expect(err).NotTo(HaveOccurred())

		clock := newTestClock(time.Date(2026, time.March, 10, 14, 0, 0, 0, plantZone))
		svc = newService(topo, clock, &fixedSource{status: models.ResultOK})

		m, err = svc.CreateMuster(ctx, thtCreator, musterservice.CreateInput{OrderID: "ZP-3100", Product: "ZASILACZ", Serials: []string{"B3100"}})
		Expect(err).NotTo(HaveOccurred())

		for range 3 {
			_, err = svc.Advance(ctx, m.ID, musterfsm.ActionHandover, thtCreator, musterservice.AdvancePayload{})
			Expect(err).NotTo(HaveOccurred())
		}

		_, err = svc.Advance(ctx, m.ID, musterfsm.ActionCrossAreaHandover, ictOperator, musterservice.AdvancePayload{
			TargetArea: "TESTY",
			TargetLine: "CTEST-X",
		})
		Expect(err).NotTo(HaveOccurred())

		m, err = svc.AssignSection(ctx, m.ID, "AOI Test", xray)
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		svc.Close()
	})

	It("moves the muster to the claiming operator's line", func() {
		Expect(m.Line).To(Equal("CXRAY-1"))
		Expect(m.Status.String()).To(Equal("DO_WERYFIKACJI:AOI Test"))
		expectConsistent(m)

		active, err := svc.ListActive(ctx, xray, visibility.Filters{})
		Expect(err).NotTo(HaveOccurred())
		Expect(active).To(ContainElement(HaveField("ID", m.ID)))
	})

	It("still walks the remaining sections of the line", func() {
		_, err := svc.Advance(ctx, m.ID, musterfsm.ActionFinish, xray, musterservice.AdvancePayload{})
		Expect(err).To(MatchError(standarderrors.ErrNotLastSection))

		stored, err := svc.Get(ctx, m.ID)
		Expect(err).NotTo(HaveOccurred())
		Expect(stored.Status).To(Equal(models.PendingSectionReview("AOI Test")))

		next, err := svc.Advance(ctx, m.ID, musterfsm.ActionHandover, xray, musterservice.AdvancePayload{})
		Expect(err).NotTo(HaveOccurred())
		Expect(next.Status).To(Equal(models.PendingSectionReview("X-RAY")))
		Expect(next.Line).To(Equal("CXRAY-1"))
	})
})
