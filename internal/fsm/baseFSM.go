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

package fsm

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/looplab/fsm"
	"go.uber.org/zap"

	"github.com/united-manufacturing-hub/emuster/pkg/constants"
)

// BaseFSMInstance implements the shared logic for document state machines.
// Concrete machines (e.g. the muster machine) wrap it and register their guards and effects.
type BaseFSMInstance struct {
	cfg BaseFSMInstanceConfig

	// mu is a mutex for protecting concurrent access to fields
	mu sync.RWMutex

	// fsm is the finite state machine that manages instance state
	fsm *fsm.FSM

	// Registered "before_<event>", "enter_<state>" and "after_<event>" callbacks
	callbacks map[string]fsm.Callback

	// logger is the logger for the FSM
	logger *zap.SugaredLogger
}

// BaseFSMInstanceConfig holds parameters for setting up the base FSM.
type BaseFSMInstanceConfig struct {
	ID string

	// InitialState is the state the machine starts in, usually derived from a stored document
	InitialState string

	// Transitions are the transitions that are allowed
	Transitions []fsm.EventDesc
}

// NewBaseFSMInstance sets up a new FSM with the given transitions.
// Guards go into "before_<event>" callbacks and cancel the event, effects go into
// "after_<event>" callbacks. Both run for self transitions as well.
func NewBaseFSMInstance(cfg BaseFSMInstanceConfig, logger *zap.SugaredLogger) *BaseFSMInstance {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}

	baseInstance := &BaseFSMInstance{
		cfg:       cfg,
		callbacks: make(map[string]fsm.Callback),
		logger:    logger,
	}

	baseInstance.fsm = fsm.NewFSM(
		cfg.InitialState,
		fsm.Events(cfg.Transitions),
		fsm.Callbacks{
			"before_event": func(ctx context.Context, e *fsm.Event) {
				if cb, ok := baseInstance.callback("before_" + e.Event); ok {
					cb(ctx, e)
				}
			},
			"enter_state": func(ctx context.Context, e *fsm.Event) {
				if cb, ok := baseInstance.callback("enter_" + e.Dst); ok {
					cb(ctx, e)
				}
			},
			"after_event": func(ctx context.Context, e *fsm.Event) {
				if cb, ok := baseInstance.callback("after_" + e.Event); ok {
					cb(ctx, e)
				}
			},
		},
	)

	return baseInstance
}

func (s *BaseFSMInstance) callback(name string) (fsm.Callback, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	cb, ok := s.callbacks[name]

	return cb, ok
}

// AddCallback adds a callback for a given name, e.g. "before_handover" or "enter_released"
func (s *BaseFSMInstance) AddCallback(name string, callback fsm.Callback) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.callbacks[name] = callback
}

// GetID returns the id of the document this machine drives
func (s *BaseFSMInstance) GetID() string {
	return s.cfg.ID
}

// GetCurrentFSMState returns the current state of the FSM
func (s *BaseFSMInstance) GetCurrentFSMState() string {
	return s.fsm.Current()
}

// Can reports whether the event is defined for the current state. Guards are not evaluated.
func (s *BaseFSMInstance) Can(eventName string) bool {
	return s.fsm.Can(eventName)
}

// AvailableTransitions lists the events defined for the current state.
func (s *BaseFSMInstance) AvailableTransitions() []string {
	return s.fsm.AvailableTransitions()
}

// SendEvent sends an event to the FSM.
//
// The event is refused when the context is already cancelled or its deadline is
// closer than constants.ExpectedMaxP95ExecutionTimePerEvent, so that a transition is
// never interrupted halfway.
//
// Results are normalised: a self transition without error returns nil, and the
// error handed to Cancel by a guard is returned as is instead of wrapped.
func (s *BaseFSMInstance) SendEvent(ctx context.Context, eventName string, args ...interface{}) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}

	if deadline, ok := ctx.Deadline(); ok {
		if remaining := time.Until(deadline); remaining < constants.ExpectedMaxP95ExecutionTimePerEvent {
			s.logger.Debugw("Refusing event close to the deadline", "id", s.cfg.ID, "event", eventName, "remaining", remaining)

			return fmt.Errorf("context deadline exceeded")
		}
	}

	err := s.fsm.Event(ctx, eventName, args...)

	var noTransition fsm.NoTransitionError
	if errors.As(err, &noTransition) {
		return noTransition.Err
	}

	var canceled fsm.CanceledError
	if errors.As(err, &canceled) && canceled.Err != nil {
		return canceled.Err
	}

	return err
}
