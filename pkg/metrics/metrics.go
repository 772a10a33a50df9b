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

package metrics

import (
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/united-manufacturing-hub/emuster/pkg/logger"
	"github.com/united-manufacturing-hub/emuster/pkg/sentry"
)

// Values of the component label.
const (
	ComponentMusterFSM     = "muster_fsm"
	ComponentMusterService = "muster_service"
	ComponentMESFetcher    = "mes_fetcher"
	ComponentAPIServer     = "api_server"
)

const (
	namespace = "emuster"
	subsystem = "core"

	scrapeTimeout = 5 * time.Second
)

var (
	errorCounter = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "errors_total",
			Help:      "Total number of unexpected errors encountered by component",
		},
		[]string{"component", "instance"},
	)

	transitionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "transitions_total",
			Help:      "Total number of successful muster transitions",
		},
		[]string{"action", "from", "to"},
	)

	rejectionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "rejections_total",
			Help:      "Total number of rejected muster operations by error kind",
		},
		[]string{"operation", "kind"},
	)

	mustersByStatus = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "musters",
			Help:      "Number of stored musters by status state",
		},
		[]string{"state"},
	)

	mesFetchDuration = promauto.NewSummaryVec(
		prometheus.SummaryOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "mes_fetch_duration_milliseconds",
			Help:      "Time taken by automatic checklist fetches (in milliseconds)",
			Objectives: map[float64]float64{
				0.5:  0.01,
				0.9:  0.01,
				0.99: 0.01,
			},
		},
		[]string{"outcome"},
	)
)

// SetupMetricsEndpoint serves /metrics on addr in the background. Serve errors
// other than a clean shutdown are reported to sentry.
func SetupMetricsEndpoint(addr string) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	server := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: scrapeTimeout,
		ReadTimeout:       scrapeTimeout,
	}

	go func() {
		err := server.ListenAndServe()
		if errors.Is(err, http.ErrServerClosed) {
			return
		}

		sentry.ReportIssuef(sentry.IssueTypeError, logger.For(logger.ComponentCore), "metrics endpoint on %s stopped: %v", addr, err)
	}()

	return server
}

// IncErrorCountAndLog counts an unexpected error and logs it at debug level.
func IncErrorCountAndLog(component, instance string, err error, log *zap.SugaredLogger) {
	IncErrorCount(component, instance)
	logger.OrNop(log).Debugw("Unexpected error", "component", component, "instance", instance, "error", err)
}

// IncErrorCount counts an unexpected error. The instance is a muster id or an API route.
func IncErrorCount(component, instance string) {
	errorCounter.WithLabelValues(component, instance).Inc()
}

// RecordTransition counts a successful transition between two machine states.
func RecordTransition(action, from, to string) {
	transitionsTotal.WithLabelValues(action, from, to).Inc()
}

// RecordRejection counts an operation rejected with a typed error kind.
func RecordRejection(operation, kind string) {
	rejectionsTotal.WithLabelValues(operation, kind).Inc()
}

// MoveMuster shifts one muster between state buckets of the gauge. An empty state means
// the muster was created or deleted.
func MoveMuster(from, to string) {
	if from == to {
		return
	}

	if from != "" {
		mustersByStatus.WithLabelValues(from).Dec()
	}

	if to != "" {
		mustersByStatus.WithLabelValues(to).Inc()
	}
}

// ObserveMESFetch records the duration of an automatic fetch.
func ObserveMESFetch(outcome string, duration time.Duration) {
	mesFetchDuration.WithLabelValues(outcome).Observe(float64(duration.Milliseconds()))
}
