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

// Package muster is the coordinating service owning the muster collection.
//
// Every mutation takes the service lock, loads a private copy of the document,
// runs the change on that copy and replaces the stored document only when the
// change succeeded. A failed operation therefore never leaves partial effects.
package muster

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/united-manufacturing-hub/emuster/pkg/checklist"
	"github.com/united-manufacturing-hub/emuster/pkg/config/ctxmutex"
	"github.com/united-manufacturing-hub/emuster/pkg/constants"
	musterfsm "github.com/united-manufacturing-hub/emuster/pkg/fsm/muster"
	"github.com/united-manufacturing-hub/emuster/pkg/logger"
	"github.com/united-manufacturing-hub/emuster/pkg/mes"
	"github.com/united-manufacturing-hub/emuster/pkg/metrics"
	"github.com/united-manufacturing-hub/emuster/pkg/models"
	"github.com/united-manufacturing-hub/emuster/pkg/permissions"
	"github.com/united-manufacturing-hub/emuster/pkg/persistence"
	"github.com/united-manufacturing-hub/emuster/pkg/persistence/memory"
	"github.com/united-manufacturing-hub/emuster/pkg/report"
	"github.com/united-manufacturing-hub/emuster/pkg/sentry"
	"github.com/united-manufacturing-hub/emuster/pkg/standarderrors"
	"github.com/united-manufacturing-hub/emuster/pkg/topology"
	"github.com/united-manufacturing-hub/emuster/pkg/visibility"
)

// IMusterService is the in-process API of the muster workflow.
type IMusterService interface {
	CreateMuster(ctx context.Context, actor models.Actor, in CreateInput) (*models.Muster, error)
	Get(ctx context.Context, id string) (*models.Muster, error)
	RecordChecklistResult(ctx context.Context, id string, slot models.PcbSlot, itemID string, status models.ResultStatus, actor models.Actor) (*models.Muster, error)
	ScanSample(ctx context.Context, id string, slot models.PcbSlot, sn string, actor models.Actor) (*models.Muster, error)
	Advance(ctx context.Context, id string, action musterfsm.Action, actor models.Actor, payload AdvancePayload) (*models.Muster, error)
	SubmitReport(ctx context.Context, id string, draft report.Draft, actor models.Actor) (*models.Muster, error)
	Decide(ctx context.Context, id string, outcome models.Outcome, actor models.Actor) (*models.Muster, error)
	AnnotateReport(ctx context.Context, id string, field, comment string, actor models.Actor) (*models.Muster, error)
	AssignSection(ctx context.Context, id string, section string, actor models.Actor) (*models.Muster, error)
	DeleteDraft(ctx context.Context, id string, actor models.Actor) error
	ListActive(ctx context.Context, actor models.Actor, filters visibility.Filters) ([]*models.Muster, error)
	ListHistory(ctx context.Context, actor models.Actor, filters visibility.Filters) ([]*models.Muster, error)
	KPI(ctx context.Context, actor models.Actor) (visibility.KPI, error)
	FetchAutomatic(ctx context.Context, id string, slot models.PcbSlot, itemID string, actor models.Actor) (string, error)
	DiscardPending(token string) bool
	PendingState(token string) (mes.TokenState, bool)
	Close()
}

// Ensure MusterService implements IMusterService
var _ IMusterService = (*MusterService)(nil)

// MusterService coordinates the store, the state machine and the engines around it.
type MusterService struct {
	mu    *ctxmutex.CtxMutex
	store persistence.MusterStore

	topology   *topology.Provider
	checklist  *checklist.Engine
	policy     *permissions.Policy
	machine    *musterfsm.Machine
	reports    *report.Builder
	visibility *visibility.Engine
	fetcher    *mes.Fetcher

	mesConfig mes.Config
	source    mes.Source
	location  *time.Location
	now       func() time.Time
	newID     func() string
	scanLimit int
	logger    *zap.SugaredLogger
}

// MusterServiceOption is a function that configures a MusterService.
type MusterServiceOption func(*MusterService)

// WithStore sets the document store.
func WithStore(store persistence.MusterStore) MusterServiceOption {
	return func(s *MusterService) {
		s.store = store
	}
}

// WithClock sets the clock used for timestamps, history entries and shifts.
func WithClock(now func() time.Time) MusterServiceOption {
	return func(s *MusterService) {
		s.now = now
	}
}

// WithIDGenerator sets the muster id generator.
func WithIDGenerator(newID func() string) MusterServiceOption {
	return func(s *MusterService) {
		s.newID = newID
	}
}

// WithLocation sets the plant timezone.
func WithLocation(location *time.Location) MusterServiceOption {
	return func(s *MusterService) {
		s.location = location
	}
}

// WithMES sets the fetch policy and the measurement source of automatic items.
func WithMES(cfg mes.Config, source mes.Source) MusterServiceOption {
	return func(s *MusterService) {
		s.mesConfig = cfg
		s.source = source
	}
}

// WithScanLimit caps how many musters a list view reads from the store.
func WithScanLimit(limit int) MusterServiceOption {
	return func(s *MusterService) {
		s.scanLimit = limit
	}
}

// WithLogger sets the logger.
func WithLogger(log *zap.SugaredLogger) MusterServiceOption {
	return func(s *MusterService) {
		s.logger = logger.OrNop(log)
	}
}

// NewDefaultMusterService creates a service over an in-memory store.
func NewDefaultMusterService(topo *topology.Provider, opts ...MusterServiceOption) *MusterService {
	s := &MusterService{
		mu:        ctxmutex.NewCtxMutex(),
		store:     memory.NewMusterStore(),
		topology:  topo,
		location:  time.Local,
		now:       time.Now,
		newID:     uuid.NewString,
		logger:    logger.For(logger.ComponentMusterService),
		scanLimit: constants.DefaultViewScanLimit,
		mesConfig: mes.Config{
			Delay:           constants.DefaultMESDelay,
			OKProbability:   constants.DefaultMESOKProbability,
			Timeout:         constants.DefaultMESTimeout,
			MaxRetries:      constants.DefaultMESMaxRetries,
			AppliedTokenTTL: constants.DefaultAppliedTokenTTL,
		},
	}

	for _, opt := range opts {
		opt(s)
	}

	if s.source == nil {
		s.source = mes.NewSimulatedSource(s.mesConfig.Delay, s.mesConfig.OKProbability, nil)
	}

	s.checklist = checklist.NewEngine(topo)
	s.policy = permissions.NewPolicy(topo)
	s.machine = musterfsm.NewMachine(topo, s.checklist, s.policy, s.now, s.logger.Named(logger.ComponentMusterFSM))
	s.reports = report.NewBuilder(s.checklist, s.now, s.location)
	s.visibility = visibility.NewEngine(topo, visibility.NewCalendar(s.location), s.now)
	s.fetcher = mes.NewFetcher(s.mesConfig, s.source, s.applyMeasurement, s.logger.Named(logger.ComponentMESFetcher))

	return s
}

// Close stops pending automatic fetches.
func (s *MusterService) Close() {
	s.fetcher.Close()
}

// Get returns a copy of the muster.
func (s *MusterService) Get(ctx context.Context, id string) (*models.Muster, error) {
	m, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, s.storeError("get", id, err)
	}

	return m, nil
}

func (s *MusterService) lock(ctx context.Context, op string) error {
	if err := s.mu.Lock(ctx); err != nil {
		return fmt.Errorf("%s: failed to acquire muster lock: %w", op, err)
	}

	return nil
}

// mutate runs fn on a private copy of the muster and stores the copy when fn succeeds.
func (s *MusterService) mutate(ctx context.Context, op string, id string, fn func(m *models.Muster) error) (*models.Muster, error) {
	if err := s.lock(ctx, op); err != nil {
		return nil, err
	}
	defer s.mu.Unlock()

	working, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, s.storeError(op, id, err)
	}

	from := musterfsm.StateOf(working.Status)
	history := len(working.ProcessedBy)

	if err := fn(working); err != nil {
		if standarderrors.KindOf(err) != nil {
			return nil, standarderrors.WithMuster(err, id)
		}

		return nil, err
	}

	if len(working.ProcessedBy) > history+1 {
		// a single operation never writes more than one history entry
		return nil, s.internalError(op, id, fmt.Errorf("operation appended %d history entries", len(working.ProcessedBy)-history))
	}

	if err := s.store.Replace(ctx, working); err != nil {
		return nil, s.storeError(op, id, err)
	}

	metrics.MoveMuster(from, musterfsm.StateOf(working.Status))

	return working, nil
}

// storeError maps store failures onto the error taxonomy.
func (s *MusterService) storeError(op, id string, err error) error {
	if errors.Is(err, persistence.ErrNotFound) {
		return standarderrors.WithMuster(standarderrors.Newf(standarderrors.ErrNotFound, op, "unknown muster"), id)
	}

	return s.internalError(op, id, err)
}

func (s *MusterService) internalError(op, id string, err error) error {
	metrics.IncErrorCount(metrics.ComponentMusterService, id)
	sentry.ReportServiceErrorf(s.logger, id, "muster", op, "%s on muster %s failed: %v", op, id, err)

	return fmt.Errorf("%s %s: %w", op, id, err)
}
