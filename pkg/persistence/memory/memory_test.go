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


package memory_test

import (
	"context"
	"fmt"
	"time"

	"github.com/google/go-cmp/cmp"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/united-manufacturing-hub/emuster/pkg/models"
	"github.com/united-manufacturing-hub/emuster/pkg/persistence"
	"github.com/united-manufacturing-hub/emuster/pkg/persistence/memory"
)

var base = time.Date(2026, time.June, 1, 6, 0, 0, 0, time.UTC)

func muster(id, line string, status models.Status, minutes int) *models.Muster {
	return &models.Muster{
		ID:        id,
		Line:      line,
		Status:    status,
		CreatedBy: "op-" + line,
		Timestamp: base.Add(time.Duration(minutes) * time.Minute),
		ChecklistResults: models.ChecklistResults{
			PCB1: models.PcbResult{SN: "SN-" + id, Items: map[string]models.ResultStatus{}},
		},
	}
}

func idsOf(musters []*models.Muster) []string {
	out := make([]string, 0, len(musters))
	for _, m := range musters {
		out = append(out, m.ID)
	}

	return out
}

var _ = Describe("MusterStore", func() {
	var (
		store *memory.MusterStore
		ctx   context.Context
	)

	BeforeEach(func() {
		store = memory.NewMusterStore()
		ctx = context.Background()
	})

	Describe("Insert and Get", func() {
		It("stores a copy stamped with its version", func() {
			m := muster("M-1", "CMPR-2", models.Init, 0)
			Expect(store.Insert(ctx, m)).To(Succeed())
			Expect(m.Version).NotTo(BeZero())

			m.Line = "changed"

			got, err := store.Get(ctx, "M-1")
			Expect(err).NotTo(HaveOccurred())
			Expect(got.Line).To(Equal("CMPR-2"))
			Expect(got.Version).To(Equal(m.Version))
		})

		It("rejects duplicates and empty ids", func() {
			Expect(store.Insert(ctx, muster("M-1", "CMPR-2", models.Init, 0))).To(Succeed())
			Expect(store.Insert(ctx, muster("M-1", "CMPR-3", models.Init, 0))).To(MatchError(persistence.ErrConflict))
			Expect(store.Insert(ctx, muster("", "CMPR-3", models.Init, 0))).To(HaveOccurred())
			Expect(store.Insert(ctx, nil)).To(HaveOccurred())
		})

		It("reports unknown ids", func() {
			_, err := store.Get(ctx, "M-404")
			Expect(err).To(MatchError(persistence.ErrNotFound))
		})

		It("refuses a nil context", func() {
			//nolint:staticcheck // testing nil context behavior
			_, err := store.Get(nil, "M-1")
			Expect(err).To(MatchError(ContainSubstring("context cannot be nil")))
		})
	})

	Describe("Replace and Delete", func() {
		BeforeEach(func() {
			Expect(store.Insert(ctx, muster("M-1", "CMPR-2", models.Init, 0))).To(Succeed())
		})

		It("swaps the whole document and bumps the version", func() {
			before, err := store.Get(ctx, "M-1")
			Expect(err).NotTo(HaveOccurred())

			working, err := store.Get(ctx, "M-1")
			Expect(err).NotTo(HaveOccurred())
			working.Status = models.PendingSectionReview("Lutowanie na Fali")
			working.Section = "Lutowanie na Fali"

			Expect(store.Replace(ctx, working)).To(Succeed())
			Expect(working.Version).NotTo(Equal(before.Version))

			after, err := store.Get(ctx, "M-1")
			Expect(err).NotTo(HaveOccurred())
			Expect(cmp.Diff(working, after)).To(BeEmpty())
		})

		It("keeps the version of an unchanged document", func() {
			working, err := store.Get(ctx, "M-1")
			Expect(err).NotTo(HaveOccurred())
			version := working.Version

			Expect(store.Replace(ctx, working)).To(Succeed())
			Expect(working.Version).To(Equal(version))
		})

		It("does not replace unknown documents", func() {
			Expect(store.Replace(ctx, muster("M-2", "CMPR-2", models.Init, 0))).To(MatchError(persistence.ErrNotFound))
		})

		It("deletes", func() {
			Expect(store.Delete(ctx, "M-1")).To(Succeed())
			Expect(store.Delete(ctx, "M-1")).To(MatchError(persistence.ErrNotFound))

			count, err := store.Count(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(count).To(BeZero())
		})
	})

	Describe("Find", func() {
		BeforeEach(func() {
			for _, m := range []*models.Muster{
				muster("M-1", "CMPR-2", models.Init, 3),
				muster("M-2", "CMPR-2", models.Released, 1),
				muster("M-3", "CMPO-1", models.PendingRelease, 2),
				muster("M-4", "CFCT-1", models.PendingSectionReview("FCT"), 4),
			} {
				Expect(store.Insert(ctx, m)).To(Succeed())
			}
		})

		It("orders by id without a sort", func() {
			found, err := store.Find(ctx, *persistence.NewQuery())
			Expect(err).NotTo(HaveOccurred())
			Expect(idsOf(found)).To(Equal([]string{"M-1", "M-2", "M-3", "M-4"}))
		})

		It("sorts newest first", func() {
			found, err := store.Find(ctx, *persistence.NewQuery().Sort(persistence.FieldTimestamp, persistence.Desc))
			Expect(err).NotTo(HaveOccurred())
			Expect(idsOf(found)).To(Equal([]string{"M-4", "M-1", "M-3", "M-2"}))
		})

		DescribeTable("filters",
			func(query *persistence.Query, expected []string) {
				found, err := store.Find(ctx, *query)
				Expect(err).NotTo(HaveOccurred())
				Expect(idsOf(found)).To(Equal(expected))
			},
			Entry("line equals", persistence.NewQuery().Filter(persistence.FieldLine, persistence.Eq, "CMPR-2"), []string{"M-1", "M-2"}),
			Entry("line differs", persistence.NewQuery().Filter(persistence.FieldLine, persistence.Ne, "CMPR-2"), []string{"M-3", "M-4"}),
			Entry("line in", persistence.NewQuery().Filter(persistence.FieldLine, persistence.In, []string{"CMPO-1", "CFCT-1"}), []string{"M-3", "M-4"}),
			Entry("status not in", persistence.NewQuery().Filter(persistence.FieldStatus, persistence.Nin, []string{"INICJACJA", "ZWOLNIONY_DO_PRODUKCJI"}), []string{"M-3", "M-4"}),
			Entry("parameterised status", persistence.NewQuery().Filter(persistence.FieldStatus, persistence.Eq, "DO_WERYFIKACJI:FCT"), []string{"M-4"}),
			Entry("created after", persistence.NewQuery().Filter(persistence.FieldTimestamp, persistence.Gte, base.Add(3*time.Minute)), []string{"M-1", "M-4"}),
			Entry("created before", persistence.NewQuery().Filter(persistence.FieldTimestamp, persistence.Lt, base.Add(2*time.Minute)), []string{"M-2"}),
			Entry("combined", persistence.NewQuery().
				Filter(persistence.FieldLine, persistence.Eq, "CMPR-2").
				Filter(persistence.FieldCreatedBy, persistence.Eq, "op-CMPR-2").
				Filter(persistence.FieldTimestamp, persistence.Gt, base), []string{"M-1", "M-2"}),
		)

		It("paginates", func() {
			query := persistence.NewQuery().Sort(persistence.FieldID, persistence.Asc).Skip(1).Limit(2)

			found, err := store.Find(ctx, *query)
			Expect(err).NotTo(HaveOccurred())
			Expect(idsOf(found)).To(Equal([]string{"M-2", "M-3"}))

			found, err = store.Find(ctx, *persistence.NewQuery().Skip(10))
			Expect(err).NotTo(HaveOccurred())
			Expect(found).To(BeEmpty())

			found, err = store.Find(ctx, *persistence.NewQuery().WithMaxFindLimit(3).Limit(50))
			Expect(err).NotTo(HaveOccurred())
			Expect(found).To(HaveLen(3))
		})

		DescribeTable("rejects malformed queries",
			func(query *persistence.Query) {
				_, err := store.Find(ctx, *query)
				Expect(err).To(MatchError(persistence.ErrInvalidQuery))
			},
			Entry("unknown filter field", persistence.NewQuery().Filter("colour", persistence.Eq, "red")),
			Entry("unknown sort field", persistence.NewQuery().Sort("colour", persistence.Asc)),
			Entry("in without list", persistence.NewQuery().Filter(persistence.FieldLine, persistence.In, "CMPR-2")),
			Entry("mismatched type", persistence.NewQuery().Filter(persistence.FieldTimestamp, persistence.Gt, "yesterday")),
			Entry("unknown operator", persistence.NewQuery().Filter(persistence.FieldLine, persistence.Operator("$regex"), "CM.*")),
		)

		It("returns copies", func() {
			found, err := store.Find(ctx, *persistence.NewQuery().Filter(persistence.FieldID, persistence.Eq, "M-1"))
			Expect(err).NotTo(HaveOccurred())
			found[0].Line = "changed"

			got, err := store.Get(ctx, "M-1")
			Expect(err).NotTo(HaveOccurred())
			Expect(got.Line).To(Equal("CMPR-2"))
		})
	})

	It("survives concurrent writers", func() {
		done := make(chan error)

		for i := range 20 {
			go func() {
				done <- store.Insert(ctx, muster(fmt.Sprintf("M-%02d", i), "CMPR-2", models.Init, i))
			}()
		}

		for range 20 {
			Expect(<-done).To(Succeed())
		}

		count, err := store.Count(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(count).To(Equal(20))
	})
})

var _ = Describe("Query", func() {
	It("caps the limit", func() {
		Expect(persistence.NewQuery().EffectiveLimit()).To(Equal(persistence.DefaultMaxFindLimit))
		Expect(persistence.NewQuery().Limit(5).EffectiveLimit()).To(Equal(5))
		Expect(persistence.NewQuery().Limit(-1).EffectiveLimit()).To(Equal(persistence.DefaultMaxFindLimit))
		Expect(persistence.NewQuery().WithMaxFindLimit(10).Limit(50).EffectiveLimit()).To(Equal(10))
	})
})
