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

package mes

import (
	"context"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/united-manufacturing-hub/emuster/pkg/models"
)

// Request identifies one automatic checklist item of one sample.
type Request struct {
	MusterID string
	Slot     models.PcbSlot
	ItemID   string
	// Actor is the operator who asked for the measurement; the result is recorded on their behalf.
	Actor models.Actor
}

// key collapses concurrent fetches of the same item.
func (r Request) key() string {
	return r.MusterID + "/" + string(r.Slot) + "/" + r.ItemID
}

// Result is a resolved measurement waiting to be applied.
type Result struct {
	Token   string
	Request Request
	Status  models.ResultStatus
}

// Source produces measurements for automatic checklist items.
type Source interface {
	Measure(ctx context.Context, req Request) (models.ResultStatus, error)
}

// SimulatedSource stands in for the plant MES: it answers after a fixed delay,
// OK with the configured probability and NOK otherwise.
type SimulatedSource struct {
	delay         time.Duration
	okProbability float64

	mu  sync.Mutex
	rng *rand.Rand
}

var _ Source = (*SimulatedSource)(nil)

// NewSimulatedSource creates a source. A nil rng uses a randomly seeded generator.
func NewSimulatedSource(delay time.Duration, okProbability float64, rng *rand.Rand) *SimulatedSource {
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}

	return &SimulatedSource{
		delay:         delay,
		okProbability: okProbability,
		rng:           rng,
	}
}

// Measure blocks for the configured delay, or until ctx is done.
func (s *SimulatedSource) Measure(ctx context.Context, _ Request) (models.ResultStatus, error) {
	timer := time.NewTimer(s.delay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case <-timer.C:
	}

	s.mu.Lock()
	draw := s.rng.Float64()
	s.mu.Unlock()

	if draw < s.okProbability {
		return models.ResultOK, nil
	}

	return models.ResultNOK, nil
}
