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
	"go.uber.org/zap"

	musterfsm "github.com/united-manufacturing-hub/emuster/pkg/fsm/muster"
	"github.com/united-manufacturing-hub/emuster/pkg/models"
	musterservice "github.com/united-manufacturing-hub/emuster/pkg/service/muster"
	"github.com/united-manufacturing-hub/emuster/pkg/standarderrors"
	"github.com/united-manufacturing-hub/emuster/pkg/topology"
	"github.com/united-manufacturing-hub/emuster/pkg/visibility"
)

func ids(musters []*models.Muster) []string {
	out := make([]string, 0, len(musters))
	for _, m := range musters {
		out = append(out, m.ID)
	}

	return out
}

var _ = Describe("MusterService views", func() {
	var (
		ctx   context.Context
		clock *testClock
		svc   *musterservice.MusterService

		draft, released, pending, blocked *models.Muster
	)

	must := func(m *models.Muster, err error) *models.Muster {
		GinkgoHelper()
		Expect(err).NotTo(HaveOccurred())

		return m
	}

	BeforeEach(func() {
		ctx = context.Background()
		clock = newTestClock(time.Date(2026, time.March, 10, 9, 30, 0, 0, plantZone))
		svc = newService(topology.Default(), clock, &fixedSource{status: models.ResultOK})

		thtInput := musterservice.CreateInput{OrderID: "ZP-4000", Product: "MODUL-T", Serials: []string{"L4000"}}
		noPayload := musterservice.AdvancePayload{}

		draft = must(svc.CreateMuster(ctx, thtCreator, thtInput))
		clock.Advance(time.Minute)

		released = must(svc.CreateMuster(ctx, thtCreator, thtInput))
		for range 3 {
			must(svc.Advance(ctx, released.ID, musterfsm.ActionHandover, thtCreator, noPayload))
		}
		must(svc.Advance(ctx, released.ID, musterfsm.ActionFinish, ictOperator, noPayload))
		released = must(svc.Decide(ctx, released.ID, models.OutcomeApprove, thtManager))
		clock.Advance(time.Minute)

		pending = must(svc.CreateMuster(ctx, smtCreator, musterservice.CreateInput{
			OrderID: "ZP-4001", Product: "MODUL-S", Serials: []string{"B4001"}, Scenario: "STANDARD",
		}))
		must(svc.Advance(ctx, pending.ID, musterfsm.ActionHandover, smtCreator, noPayload))
		pending = must(svc.Advance(ctx, pending.ID, musterfsm.ActionFinish, aoiFinisher, noPayload))
		clock.Advance(time.Minute)

		blocked = must(svc.CreateMuster(ctx, thtCreator, thtInput))
		blocked = must(svc.Decide(ctx, blocked.ID, models.OutcomeBlock, thtManager))
	})

	AfterEach(func() {
		svc.Close()
	})

	Describe("ListActive", func() {
		It("shows an operator the open and recently closed musters of the line", func() {
			active, err := svc.ListActive(ctx, thtCreator, visibility.Filters{})
			Expect(err).NotTo(HaveOccurred())
			Expect(ids(active)).To(Equal([]string{blocked.ID, released.ID, draft.ID}))
		})

		It("drops closed musters once the shift is over", func() {
			clock.Advance(10 * time.Hour)

			active, err := svc.ListActive(ctx, thtCreator, visibility.Filters{})
			Expect(err).NotTo(HaveOccurred())
			Expect(ids(active)).To(Equal([]string{draft.ID}))
		})

		It("shows managers what waits for them in their area", func() {
			active, err := svc.ListActive(ctx, smtManager, visibility.Filters{})
			Expect(err).NotTo(HaveOccurred())
			Expect(ids(active)).To(Equal([]string{pending.ID}))

			active, err = svc.ListActive(ctx, thtManager, visibility.Filters{})
			Expect(err).NotTo(HaveOccurred())
			Expect(active).To(BeEmpty())
		})

		It("intersects the user filters", func() {
			active, err := svc.ListActive(ctx, thtCreator, visibility.Filters{Status: "INICJACJA"})
			Expect(err).NotTo(HaveOccurred())
			Expect(ids(active)).To(Equal([]string{draft.ID}))

			active, err = svc.ListActive(ctx, smtManager, visibility.Filters{Line: "CMPO-2"})
			Expect(err).NotTo(HaveOccurred())
			Expect(active).To(BeEmpty())
		})
	})

	Describe("ListHistory", func() {
		It("shows an operator the musters they created", func() {
			history, err := svc.ListHistory(ctx, thtCreator, visibility.Filters{})
			Expect(err).NotTo(HaveOccurred())
			Expect(ids(history)).To(Equal([]string{blocked.ID, released.ID}))
		})

		It("shows musters processed by the operator's area", func() {
			history, err := svc.ListHistory(ctx, ictOperator, visibility.Filters{Status: "ZWOLNIONY_DO_PRODUKCJI"})
			Expect(err).NotTo(HaveOccurred())
			Expect(ids(history)).To(Equal([]string{released.ID}))

			history, err = svc.ListHistory(ctx, smtCreator, visibility.Filters{})
			Expect(err).NotTo(HaveOccurred())
			Expect(history).To(BeEmpty())
		})

		It("shows managers every closed muster of their area", func() {
			history, err := svc.ListHistory(ctx, thtManager, visibility.Filters{})
			Expect(err).NotTo(HaveOccurred())
			Expect(ids(history)).To(Equal([]string{blocked.ID, released.ID}))

			history, err = svc.ListHistory(ctx, smtManager, visibility.Filters{})
			Expect(err).NotTo(HaveOccurred())
			Expect(history).To(BeEmpty())
		})
	})

	Describe("KPI", func() {
		It("counts the manager's area", func() {
			kpi, err := svc.KPI(ctx, thtManager)
			Expect(err).NotTo(HaveOccurred())
			Expect(kpi).To(Equal(visibility.KPI{Released: 1, Blocked: 1}))

			kpi, err = svc.KPI(ctx, smtManager)
			Expect(err).NotTo(HaveOccurred())
			Expect(kpi).To(Equal(visibility.KPI{PendingRelease: 1}))
		})

		It("is manager only", func() {
			_, err := svc.KPI(ctx, thtCreator)
			Expect(err).To(MatchError(standarderrors.ErrNotAuthorized))
		})
	})
})

var _ = Describe("MusterService views with a small scan limit", func() {
	It("keeps the operator's own open muster when other lines are busier", func() {
		ctx := context.Background()
		clock := newTestClock(time.Date(2026, time.March, 10, 9, 30, 0, 0, plantZone))
		svc := musterservice.NewDefaultMusterService(topology.Default(),
			musterservice.WithClock(clock.Now),
			musterservice.WithIDGenerator(sequentialIDs()),
			musterservice.WithLocation(plantZone),
			musterservice.WithMES(testMESConfig, &fixedSource{status: models.ResultOK}),
			musterservice.WithLogger(zap.NewNop().Sugar()),
			musterservice.WithScanLimit(1),
		)
		DeferCleanup(svc.Close)

		own, err := svc.CreateMuster(ctx, thtCreator, musterservice.CreateInput{OrderID: "ZP-4100", Product: "MODUL-T", Serials: []string{"L4100"}})
		Expect(err).NotTo(HaveOccurred())
		clock.Advance(time.Minute)

		_, err = svc.CreateMuster(ctx, smtCreator, musterservice.CreateInput{
			OrderID: "ZP-4101", Product: "MODUL-S", Serials: []string{"B4101"}, Scenario: "STANDARD",
		})
		Expect(err).NotTo(HaveOccurred())

		active, err := svc.ListActive(ctx, thtCreator, visibility.Filters{})
		Expect(err).NotTo(HaveOccurred())
		Expect(ids(active)).To(Equal([]string{own.ID}))
	})
})
