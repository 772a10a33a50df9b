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

package main

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/united-manufacturing-hub/emuster/pkg/api"
	"github.com/united-manufacturing-hub/emuster/pkg/config"
	"github.com/united-manufacturing-hub/emuster/pkg/constants"
	"github.com/united-manufacturing-hub/emuster/pkg/logger"
	"github.com/united-manufacturing-hub/emuster/pkg/mes"
	"github.com/united-manufacturing-hub/emuster/pkg/metrics"
	"github.com/united-manufacturing-hub/emuster/pkg/sentry"
	musterservice "github.com/united-manufacturing-hub/emuster/pkg/service/muster"
	"github.com/united-manufacturing-hub/emuster/pkg/topology"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the muster API and the metrics endpoint",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return serve(cmd.Context())
	},
}

func loadTopology(cfg config.Config) (*topology.Provider, error) {
	if cfg.TopologyFile == "" {
		return topology.Default(), nil
	}

	topo, err := topology.LoadFile(cfg.TopologyFile)
	if err != nil {
		return nil, err
	}

	logger.For(logger.ComponentTopology).Infow("Loaded topology override", "file", cfg.TopologyFile, "areas", topo.Areas())

	return topo, nil
}

func serve(parent context.Context) error {
	log := logger.For(logger.ComponentCore)

	cfg, err := config.LoadWithEnvOverrides(configFile, logger.For(logger.ComponentConfigManager))
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	sentry.InitSentry(appVersion, cfg.SentryDSN, true)

	location, err := cfg.Location()
	if err != nil {
		return fmt.Errorf("failed to load timezone %s: %w", cfg.Timezone, err)
	}

	topo, err := loadTopology(cfg)
	if err != nil {
		return err
	}

	log.Infow("Starting emuster", "version", displayVersion(), "areas", topo.Areas(), "timezone", cfg.Timezone)

	if parent == nil {
		parent = context.Background()
	}

	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	metricsServer := metrics.SetupMetricsEndpoint(fmt.Sprintf(":%d", cfg.MetricsPort))

	service := musterservice.NewDefaultMusterService(topo,
		musterservice.WithLocation(location),
		musterservice.WithLogger(logger.For(logger.ComponentMusterService)),
		musterservice.WithMES(mes.Config{
			Delay:           cfg.MES.Delay,
			OKProbability:   cfg.MES.OKProbability,
			Timeout:         cfg.MES.Timeout,
			MaxRetries:      cfg.MES.MaxRetries,
			AppliedTokenTTL: cfg.MES.AppliedTokenTTL,
		}, nil),
	)
	defer service.Close()

	server, err := api.NewServer(service, topo, &api.ServerConfig{
		Port:        cfg.HTTPPort,
		Debug:       cfg.Debug,
		CORSOrigins: []string{"*"},
	}, logger.For(logger.ComponentAPIServer))
	if err != nil {
		return err
	}

	errCh := make(chan error, 1)

	go func() {
		errCh <- server.Start(ctx)
	}()

	select {
	case <-ctx.Done():
	case err = <-errCh:
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), constants.DefaultShutdownTimeout)
	defer cancel()

	if stopErr := server.Stop(shutdownCtx); stopErr != nil {
		sentry.ReportIssuef(sentry.IssueTypeError, log, "Failed to shutdown muster API: %w", stopErr)
	}

	if stopErr := metricsServer.Shutdown(shutdownCtx); stopErr != nil {
		sentry.ReportIssuef(sentry.IssueTypeError, log, "Failed to shutdown metrics server: %w", stopErr)
	}

	log.Info("emuster stopped")

	if errors.Is(err, context.Canceled) {
		return nil
	}

	return err
}
