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

package api

import (
	"errors"

	"github.com/united-manufacturing-hub/emuster/pkg/constants"
)

// ServerConfig configures the HTTP adapter.
type ServerConfig struct {
	Port        int
	Debug       bool
	CORSOrigins []string
}

// DefaultServerConfig listens on the default port without CORS.
func DefaultServerConfig() *ServerConfig {
	return &ServerConfig{
		Port: constants.DefaultHTTPPort,
	}
}

func (c *ServerConfig) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return errors.New("port must be between 1 and 65535")
	}

	return nil
}
