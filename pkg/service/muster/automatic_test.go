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

	"github.com/united-manufacturing-hub/emuster/pkg/mes"
	"github.com/united-manufacturing-hub/emuster/pkg/models"
	musterservice "github.com/united-manufacturing-hub/emuster/pkg/service/muster"
	"github.com/united-manufacturing-hub/emuster/pkg/standarderrors"
	"github.com/united-manufacturing-hub/emuster/pkg/topology"
)

var _ = Describe("Automatic checklist items", func() {
	var (
		ctx   context.Context
		clock *testClock
		m     *models.Muster
	)

	create := func(svc *musterservice.MusterService) *models.Muster {
		GinkgoHelper()

		created, err := svc.CreateMuster(ctx, smtCreator, musterservice.CreateInput{
			OrderID:  "ZP-5000",
			Product:  "PLYTA-M",
			Serials:  []string{"B5000"},
			Scenario: "SCENARIO_C",
			ReasonID: "C1",
		})
		Expect(err).NotTo(HaveOccurred())

		return created
	}

	BeforeEach(func() {
		ctx = context.Background()
		clock = newTestClock(time.Date(2026, time.March, 10, 9, 30, 0, 0, plantZone))
	})

	Context("with an answering measurement system", func() {
		var (
			svc    *musterservice.MusterService
			source *fixedSource
		)

		BeforeEach(func() {
			source = &fixedSource{status: models.ResultNOK}
			svc = newService(topology.Default(), clock, source)
			m = create(svc)
		})

		AfterEach(func() {
			svc.Close()
		})

		It("records the measurement exactly once", func() {
			token, err := svc.FetchAutomatic(ctx, m.ID, models.PCB1, "smt_1", smtCreator)
			Expect(err).NotTo(HaveOccurred())
			Expect(token).NotTo(BeEmpty())

			Eventually(func() mes.TokenState {
				state, _ := svc.PendingState(token)

				return state
			}).Should(Equal(mes.TokenApplied))

			stored, err := svc.Get(ctx, m.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(stored.ChecklistResults.PCB1.Items).To(Equal(map[string]models.ResultStatus{"smt_1": models.ResultNOK}))
			Expect(stored.ThreeSampleMode).To(BeTrue())
			Expect(stored.ProcessedBy).To(BeEmpty())

			Expect(svc.DiscardPending(token)).To(BeFalse())
			Expect(source.calls.Load()).To(BeEquivalentTo(1))
		})

		It("refuses visual items", func() {
			_, err := svc.FetchAutomatic(ctx, m.ID, models.PCB1, "smt_2", smtCreator)
			Expect(err).To(MatchError(standarderrors.ErrValidation))
		})

		It("applies the access rule before fetching", func() {
			_, err := svc.FetchAutomatic(ctx, m.ID, models.PCB1, "smt_1", smtManager)
			Expect(err).To(MatchError(standarderrors.ErrNotAuthorized))

			_, err = svc.FetchAutomatic(ctx, "M-404", models.PCB1, "smt_1", smtCreator)
			Expect(err).To(MatchError(standarderrors.ErrNotFound))

			Expect(source.calls.Load()).To(BeZero())
		})

		It("does not know foreign tokens", func() {
			_, ok := svc.PendingState("no-such-token")
			Expect(ok).To(BeFalse())
			Expect(svc.DiscardPending("no-such-token")).To(BeFalse())
		})
	})

	Context("with a slow measurement system", func() {
		var (
			svc    *musterservice.MusterService
			source *gatedSource
		)

		BeforeEach(func() {
			source = newGatedSource()
			svc = newService(topology.Default(), clock, source)
			m = create(svc)
		})

		AfterEach(func() {
			svc.Close()
		})

		It("drops a discarded result", func() {
			token, err := svc.FetchAutomatic(ctx, m.ID, models.PCB1, "smt_1", smtCreator)
			Expect(err).NotTo(HaveOccurred())

			state, ok := svc.PendingState(token)
			Expect(ok).To(BeTrue())
			Expect(state).To(Equal(mes.TokenPending))

			Expect(svc.DiscardPending(token)).To(BeTrue())
			Expect(svc.DiscardPending(token)).To(BeFalse())

			close(source.release)

			Consistently(func() map[string]models.ResultStatus {
				stored, err := svc.Get(ctx, m.ID)
				Expect(err).NotTo(HaveOccurred())

				return stored.ChecklistResults.PCB1.Items
			}, 300*time.Millisecond, 20*time.Millisecond).Should(BeEmpty())

			state, _ = svc.PendingState(token)
			Expect(state).To(Equal(mes.TokenDiscarded))
		})

		It("gives up when the muster became read-only in the meantime", func() {
			token, err := svc.FetchAutomatic(ctx, m.ID, models.PCB1, "smt_1", smtCreator)
			Expect(err).NotTo(HaveOccurred())

			_, err = svc.Decide(ctx, m.ID, models.OutcomeBlock, smtManager)
			Expect(err).NotTo(HaveOccurred())

			close(source.release)

			Eventually(func() mes.TokenState {
				state, _ := svc.PendingState(token)

				return state
			}).Should(Equal(mes.TokenFailed))

			stored, err := svc.Get(ctx, m.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(stored.ChecklistResults.PCB1.Items).To(BeEmpty())
		})
	})
})
