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


package fsm_test

import (
	"context"
	"errors"
	"time"

	"github.com/looplab/fsm"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	internalfsm "github.com/united-manufacturing-hub/emuster/internal/fsm"
)

var errGuard = errors.New("guard says no")

func newInstance() *internalfsm.BaseFSMInstance {
	return internalfsm.NewBaseFSMInstance(internalfsm.BaseFSMInstanceConfig{
		ID:           "doc-1",
		InitialState: "open",
		Transitions: []fsm.EventDesc{
			{Name: "close", Src: []string{"open"}, Dst: "closed"},
			{Name: "touch", Src: []string{"open"}, Dst: "open"},
		},
	}, nil)
}

var _ = Describe("BaseFSMInstance", func() {
	var (
		ctx      context.Context
		instance *internalfsm.BaseFSMInstance
	)

	BeforeEach(func() {
		ctx = context.Background()
		instance = newInstance()
	})

	It("starts in the configured state", func() {
		Expect(instance.GetID()).To(Equal("doc-1"))
		Expect(instance.GetCurrentFSMState()).To(Equal("open"))
		Expect(instance.Can("close")).To(BeTrue())
		Expect(instance.AvailableTransitions()).To(ConsistOf("close", "touch"))
	})

	It("runs guards, effects and enter callbacks in order", func() {
		var calls []string

		instance.AddCallback("before_close", func(_ context.Context, _ *fsm.Event) { calls = append(calls, "before") })
		instance.AddCallback("enter_closed", func(_ context.Context, _ *fsm.Event) { calls = append(calls, "enter") })
		instance.AddCallback("after_close", func(_ context.Context, _ *fsm.Event) { calls = append(calls, "after") })

		Expect(instance.SendEvent(ctx, "close")).To(Succeed())
		Expect(calls).To(Equal([]string{"before", "enter", "after"}))
		Expect(instance.GetCurrentFSMState()).To(Equal("closed"))
	})

	It("returns the guard's error unwrapped", func() {
		instance.AddCallback("before_close", func(_ context.Context, e *fsm.Event) { e.Cancel(errGuard) })

		err := instance.SendEvent(ctx, "close")
		Expect(err).To(BeIdenticalTo(errGuard))
		Expect(instance.GetCurrentFSMState()).To(Equal("open"))
	})

	It("treats a self transition as success and still runs its effect", func() {
		touched := false
		instance.AddCallback("after_touch", func(_ context.Context, _ *fsm.Event) { touched = true })

		Expect(instance.SendEvent(ctx, "touch")).To(Succeed())
		Expect(touched).To(BeTrue())
	})

	It("rejects events that are not defined for the state", func() {
		Expect(instance.SendEvent(ctx, "close")).To(Succeed())

		var invalid fsm.InvalidEventError
		Expect(errors.As(instance.SendEvent(ctx, "close"), &invalid)).To(BeTrue())

		var unknown fsm.UnknownEventError
		Expect(errors.As(instance.SendEvent(ctx, "reopen"), &unknown)).To(BeTrue())
	})

	It("refuses to start with a cancelled context", func() {
		cancelled, cancel := context.WithCancel(ctx)
		cancel()

		Expect(instance.SendEvent(cancelled, "close")).To(MatchError(context.Canceled))
		Expect(instance.GetCurrentFSMState()).To(Equal("open"))
	})

	It("refuses to start when the deadline is too close", func() {
		short, cancel := context.WithTimeout(ctx, time.Millisecond)
		defer cancel()

		Expect(instance.SendEvent(short, "close")).To(HaveOccurred())
		Expect(instance.GetCurrentFSMState()).To(Equal("open"))
	})
})
