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

package constants

import "time"

const (
	// DefaultAppVersion is the version reported by builds that were not stamped via ldflags.
	DefaultAppVersion = "0.0.0-dev"

	// DefaultDevelopmentEnvironment is used for pre-release versions.
	DefaultDevelopmentEnvironment = "development"

	// DefaultProductionEnvironment is used for stable release versions.
	DefaultProductionEnvironment = "production"

	// ExpectedMaxP95ExecutionTimePerEvent is the time a single muster transition is expected
	// to need in the worst case. Events are refused when the caller's deadline is closer than this.
	ExpectedMaxP95ExecutionTimePerEvent = time.Millisecond * 20

	// DefaultShutdownTimeout bounds the graceful shutdown of the HTTP and metrics servers.
	DefaultShutdownTimeout = 3 * time.Second
)
