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

// Package mes simulates the asynchronous measurement system that answers automatic checklist items.
//
// A fetch is initiated, waits without blocking the caller, and resolves into a
// result that is handed to an ApplyFunc. Every token is applied at most once:
// a token discarded before it resolves is dropped, and a token that already
// resolved can no longer be discarded.
package mes

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/united-manufacturing-hub/emuster/pkg/metrics"
	"github.com/united-manufacturing-hub/emuster/pkg/models"
	"github.com/united-manufacturing-hub/emuster/pkg/sentry"
)

// TokenState is the lifecycle position of a fetch token.
type TokenState string

const (
	TokenPending   TokenState = "PENDING"
	TokenResolving TokenState = "RESOLVING"
	TokenApplied   TokenState = "APPLIED"
	TokenDiscarded TokenState = "DISCARDED"
	TokenFailed    TokenState = "FAILED"
)

// Config controls delay, outcome distribution and retry policy of the fetcher.
type Config struct {
	Delay         time.Duration
	OKProbability float64
	// Timeout bounds one fetch including retries and delivery.
	Timeout    time.Duration
	MaxRetries int
	// AppliedTokenTTL is how long resolved tokens stay queryable.
	AppliedTokenTTL time.Duration
}

// ApplyFunc delivers a resolved result. Errors wrapped with NewPermanentError are not retried.
type ApplyFunc func(ctx context.Context, result Result) error

// Fetcher runs automatic measurements in the background.
type Fetcher struct {
	cfg    Config
	source Source
	apply  ApplyFunc
	logger *zap.SugaredLogger

	group singleflight.Group

	// mu serialises the pending -> resolved step of a token.
	mu     sync.Mutex
	tokens *cache.Cache

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	closed bool
}

// NewFetcher creates a fetcher delivering into apply.
func NewFetcher(cfg Config, source Source, apply ApplyFunc, logger *zap.SugaredLogger) *Fetcher {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Fetcher{
		cfg:    cfg,
		source: source,
		apply:  apply,
		logger: logger,
		tokens: cache.New(cfg.AppliedTokenTTL, cfg.AppliedTokenTTL),
		ctx:    ctx,
		cancel: cancel,
	}
}

// Fetch starts a measurement and returns its token immediately.
func (f *Fetcher) Fetch(req Request) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.closed {
		return "", ErrClosed
	}

	token := uuid.NewString()
	f.tokens.Set(token, TokenPending, cache.NoExpiration)

	f.wg.Add(1)

	go f.run(token, req)

	return token, nil
}

// Discard drops a pending result. It returns false when the token is unknown or already resolved.
func (f *Fetcher) Discard(token string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()

	if !f.isPending(token) {
		return false
	}

	f.tokens.Set(token, TokenDiscarded, cache.DefaultExpiration)
	f.logger.Debugw("Discarded pending measurement", "token", token)

	return true
}

// State returns the current state of a token.
func (f *Fetcher) State(token string) (TokenState, bool) {
	value, ok := f.tokens.Get(token)
	if !ok {
		return "", false
	}

	return value.(TokenState), true
}

// Wait blocks until every started fetch has finished.
func (f *Fetcher) Wait() {
	f.wg.Wait()
}

// Close cancels all in-flight fetches and waits for them to return. Pending tokens fail.
func (f *Fetcher) Close() {
	f.mu.Lock()
	f.closed = true
	f.mu.Unlock()

	f.cancel()
	f.wg.Wait()
}

func (f *Fetcher) isPending(token string) bool {
	value, ok := f.tokens.Get(token)

	return ok && value.(TokenState) == TokenPending
}

// claim moves a pending token to the given state. Only one caller can win.
func (f *Fetcher) claim(token string, state TokenState) bool {
	f.mu.Lock()
	defer f.mu.Unlock()

	if !f.isPending(token) {
		return false
	}

	f.tokens.Set(token, state, cache.DefaultExpiration)

	return true
}

func (f *Fetcher) run(token string, req Request) {
	defer f.wg.Done()

	start := time.Now()

	ctx, cancel := context.WithTimeout(f.ctx, f.cfg.Timeout)
	defer cancel()

	status, err := f.measureShared(ctx, req)
	if err != nil {
		f.fail(token, req, "measure", err)
		metrics.ObserveMESFetch("failed", time.Since(start))

		return
	}

	if !f.claim(token, TokenResolving) {
		f.logger.Debugw("Dropping measurement of discarded token", "token", token, "muster", req.MusterID)
		metrics.ObserveMESFetch("discarded", time.Since(start))

		return
	}

	result := Result{Token: token, Request: req, Status: status}
	if err := f.deliver(ctx, result); err != nil {
		f.fail(token, req, "apply", err)
		metrics.ObserveMESFetch("failed", time.Since(start))

		return
	}

	f.tokens.Set(token, TokenApplied, cache.DefaultExpiration)
	f.logger.Debugw("Applied measurement",
		"token", token, "muster", req.MusterID, "slot", req.Slot, "item", req.ItemID, "status", status)
	metrics.ObserveMESFetch("applied", time.Since(start))
}

// measureShared collapses concurrent measurements of the same item into one.
func (f *Fetcher) measureShared(ctx context.Context, req Request) (models.ResultStatus, error) {
	value, err, shared := f.group.Do(req.key(), func() (interface{}, error) {
		var status models.ResultStatus

		err := f.retry(ctx, func() error {
			var err error
			status, err = f.source.Measure(ctx, req)

			return err
		})

		return status, err
	})
	if err != nil {
		return "", err
	}

	if shared {
		f.logger.Debugw("Shared in-flight measurement", "key", req.key())
	}

	return value.(models.ResultStatus), nil
}

func (f *Fetcher) deliver(ctx context.Context, result Result) error {
	return f.retry(ctx, func() error {
		return f.apply(ctx, result)
	})
}

func (f *Fetcher) retry(ctx context.Context, op func() error) error {
	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = 100 * time.Millisecond
	policy.MaxElapsedTime = f.cfg.Timeout

	return backoff.Retry(func() error {
		err := op()
		if err == nil {
			return nil
		}

		if IsPermanentError(err) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return backoff.Permanent(err)
		}

		return err
	}, backoff.WithContext(backoff.WithMaxRetries(policy, uint64(max(f.cfg.MaxRetries, 0))), ctx))
}

func (f *Fetcher) fail(token string, req Request, step string, err error) {
	f.mu.Lock()
	if state, ok := f.State(token); ok && (state == TokenPending || state == TokenResolving) {
		f.tokens.Set(token, TokenFailed, cache.DefaultExpiration)
	}
	f.mu.Unlock()

	if IsPermanentError(err) || errors.Is(err, context.Canceled) {
		f.logger.Debugw("Measurement abandoned", "token", token, "muster", req.MusterID, "step", step, "error", err)

		return
	}

	metrics.IncErrorCount(metrics.ComponentMESFetcher, req.MusterID)
	sentry.ReportMusterWarningf(f.logger, req.MusterID, "mes "+step,
		"automatic item %s on %s failed: %v", req.ItemID, req.Slot, err)
}
