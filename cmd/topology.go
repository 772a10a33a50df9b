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
	"fmt"

	"github.com/spf13/cobra"

	"github.com/united-manufacturing-hub/emuster/pkg/config"
	"github.com/united-manufacturing-hub/emuster/pkg/logger"
)

var topologyCmd = &cobra.Command{
	Use:   "topology",
	Short: "Print the effective plant topology as YAML",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := config.LoadWithEnvOverrides(configFile, logger.For(logger.ComponentConfigManager))
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		topo, err := loadTopology(cfg)
		if err != nil {
			return err
		}

		data, err := topo.Marshal()
		if err != nil {
			return err
		}

		_, err = cmd.OutOrStdout().Write(data)

		return err
	},
}
