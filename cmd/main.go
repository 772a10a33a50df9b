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
	"os"

	"github.com/Masterminds/semver/v3"
	"github.com/spf13/cobra"

	"github.com/united-manufacturing-hub/emuster/pkg/constants"
	"github.com/united-manufacturing-hub/emuster/pkg/logger"
)

// appVersion is set at build time with -ldflags "-X main.appVersion=...".
var appVersion = constants.DefaultAppVersion

var configFile string

var rootCmd = &cobra.Command{
	Use:           "emuster",
	Short:         "Quality sign-off workflow for PCB batches",
	SilenceUsage:  true,
	SilenceErrors: true,
	Version:       displayVersion(),
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "path to a YAML config file")
	rootCmd.AddCommand(serveCmd, topologyCmd)
}

// displayVersion normalises the build version, falling back to the raw string when it is not semver.
func displayVersion() string {
	v, err := semver.NewVersion(appVersion)
	if err != nil {
		return appVersion
	}

	return v.String()
}

func main() {
	logger.Initialize()
	defer func() {
		_ = logger.Sync()
	}()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
