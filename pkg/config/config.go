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

// Package config holds the runtime configuration of the muster service.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/go-playground/validator/v10"
	"github.com/tiendc/go-deepcopy"
	"gopkg.in/yaml.v3"

	"github.com/united-manufacturing-hub/emuster/pkg/constants"
)

// Config is the full configuration, as found in the YAML file.
type Config struct {
	HTTPPort     int    `yaml:"httpPort" validate:"min=1,max=65535"`
	MetricsPort  int    `yaml:"metricsPort" validate:"min=1,max=65535,nefield=HTTPPort"`
	TopologyFile string `yaml:"topologyFile,omitempty"`
	Timezone     string `yaml:"timezone" validate:"required,timezone"`
	Debug        bool   `yaml:"debug"`

	MES MESConfig `yaml:"mes"`

	SentryDSN string `yaml:"sentryDsn,omitempty" validate:"omitempty,url"`
}

// MESConfig tunes the simulated measurement system.
type MESConfig struct {
	Delay           time.Duration `yaml:"delay" validate:"gte=0"`
	OKProbability   float64       `yaml:"okProbability" validate:"gte=0,lte=1"`
	Timeout         time.Duration `yaml:"timeout" validate:"gt=0"`
	MaxRetries      int           `yaml:"maxRetries" validate:"gte=0,lte=20"`
	AppliedTokenTTL time.Duration `yaml:"appliedTokenTtl" validate:"gt=0"`
}

// Default returns the configuration used when neither file nor environment say otherwise.
func Default() Config {
	return Config{
		HTTPPort:    constants.DefaultHTTPPort,
		MetricsPort: constants.DefaultMetricsPort,
		Timezone:    constants.DefaultTimezone,
		MES: MESConfig{
			Delay:           constants.DefaultMESDelay,
			OKProbability:   constants.DefaultMESOKProbability,
			Timeout:         constants.DefaultMESTimeout,
			MaxRetries:      constants.DefaultMESMaxRetries,
			AppliedTokenTTL: constants.DefaultAppliedTokenTTL,
		},
	}
}

// Clone returns a deep copy of the config.
func (c Config) Clone() (Config, error) {
	var clone Config
	if err := deepcopy.Copy(&clone, &c); err != nil {
		return Config{}, fmt.Errorf("failed to copy config: %w", err)
	}

	return clone, nil
}

// Location resolves the configured timezone.
func (c Config) Location() (*time.Location, error) {
	return time.LoadLocation(c.Timezone)
}

// Validate checks every field against its constraints.
func (c Config) Validate() error {
	validate := validator.New(validator.WithRequiredStructEnabled())

	if err := validate.Struct(c); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) {
			problems := make([]string, 0, len(fieldErrs))
			for _, fe := range fieldErrs {
				problems = append(problems, fmt.Sprintf("%s failed %q (value %v)", fe.Namespace(), fe.Tag(), fe.Value()))
			}

			return fmt.Errorf("invalid config: %s", strings.Join(problems, "; "))
		}

		return fmt.Errorf("invalid config: %w", err)
	}

	return nil
}

// ParseFile reads a YAML config on top of the defaults. A missing file yields the defaults.
func ParseFile(path string) (Config, error) {
	cfg := Default()

	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return cfg, nil
	}

	if err != nil {
		return Config{}, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	return cfg, nil
}
