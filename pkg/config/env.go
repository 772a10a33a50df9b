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

package config

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/united-manufacturing-hub/emuster/pkg/env"
	"github.com/united-manufacturing-hub/emuster/pkg/sentry"
)

// Environment variables overriding the config file.
const (
	EnvHTTPPort        = "EMUSTER_HTTP_PORT"
	EnvMetricsPort     = "EMUSTER_METRICS_PORT"
	EnvTopologyFile    = "EMUSTER_TOPOLOGY_FILE"
	EnvTimezone        = "EMUSTER_TIMEZONE"
	EnvMESDelay        = "EMUSTER_MES_DELAY_MS"
	EnvMESOKProb       = "EMUSTER_MES_OK_PROBABILITY"
	EnvMESTimeout      = "EMUSTER_MES_TIMEOUT_MS"
	EnvMESMaxRetries   = "EMUSTER_MES_MAX_RETRIES"
	EnvAppliedTokenTTL = "EMUSTER_APPLIED_TOKEN_TTL_MIN"
	EnvDebug           = "EMUSTER_DEBUG"
	EnvSentryDSN       = "EMUSTER_SENTRY_DSN"
)

// LoadWithEnvOverrides loads the config file and applies environment variable overrides.
//
// Order of precedence (highest to lowest):
// 1. Environment variables (EMUSTER_*)
// 2. Config file values
// 3. Default values
//
// The file is never written back. A variable that does not parse keeps the file value;
// the merged result must pass Validate.
func LoadWithEnvOverrides(path string, log *zap.SugaredLogger) (Config, error) {
	cfg, err := ParseFile(path)
	if err != nil {
		return Config{}, err
	}

	if err := applyEnv(&cfg); err != nil {
		sentry.ReportIssuef(sentry.IssueTypeWarning, log, "Failed to apply environment overrides: %w", err)

		return Config{}, err
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func applyEnv(cfg *Config) error {
	var err error

	if cfg.HTTPPort, err = env.GetAsInt(EnvHTTPPort, false, cfg.HTTPPort); err != nil {
		return fmt.Errorf("failed to read %s: %w", EnvHTTPPort, err)
	}

	if cfg.MetricsPort, err = env.GetAsInt(EnvMetricsPort, false, cfg.MetricsPort); err != nil {
		return fmt.Errorf("failed to read %s: %w", EnvMetricsPort, err)
	}

	if cfg.TopologyFile, err = env.GetAsString(EnvTopologyFile, false, cfg.TopologyFile); err != nil {
		return fmt.Errorf("failed to read %s: %w", EnvTopologyFile, err)
	}

	if cfg.Timezone, err = env.GetAsString(EnvTimezone, false, cfg.Timezone); err != nil {
		return fmt.Errorf("failed to read %s: %w", EnvTimezone, err)
	}

	if cfg.Debug, err = env.GetAsBool(EnvDebug, false, cfg.Debug); err != nil {
		return fmt.Errorf("failed to read %s: %w", EnvDebug, err)
	}

	if cfg.SentryDSN, err = env.GetAsString(EnvSentryDSN, false, cfg.SentryDSN); err != nil {
		return fmt.Errorf("failed to read %s: %w", EnvSentryDSN, err)
	}

	if cfg.MES.Delay, err = env.GetAsMilliseconds(EnvMESDelay, false, cfg.MES.Delay); err != nil {
		return fmt.Errorf("failed to read %s: %w", EnvMESDelay, err)
	}

	if cfg.MES.OKProbability, err = env.GetAsFloat(EnvMESOKProb, false, cfg.MES.OKProbability); err != nil {
		return fmt.Errorf("failed to read %s: %w", EnvMESOKProb, err)
	}

	if cfg.MES.Timeout, err = env.GetAsMilliseconds(EnvMESTimeout, false, cfg.MES.Timeout); err != nil {
		return fmt.Errorf("failed to read %s: %w", EnvMESTimeout, err)
	}

	if cfg.MES.MaxRetries, err = env.GetAsInt(EnvMESMaxRetries, false, cfg.MES.MaxRetries); err != nil {
		return fmt.Errorf("failed to read %s: %w", EnvMESMaxRetries, err)
	}

	if cfg.MES.AppliedTokenTTL, err = env.GetAsMinutes(EnvAppliedTokenTTL, false, cfg.MES.AppliedTokenTTL); err != nil {
		return fmt.Errorf("failed to read %s: %w", EnvAppliedTokenTTL, err)
	}

	return nil
}
