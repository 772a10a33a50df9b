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
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/united-manufacturing-hub/emuster/pkg/models"
)

// Actor context headers. Values may be percent-encoded to carry non-ASCII section names.
const (
	HeaderActorID      = "X-Actor-Id"
	HeaderActorName    = "X-Actor-Name"
	HeaderActorRole    = "X-Actor-Role"
	HeaderActorArea    = "X-Actor-Area"
	HeaderActorLine    = "X-Actor-Line"
	HeaderActorSection = "X-Actor-Section"
)

const actorKey = "actor"

// actorMiddleware reads the actor context from the request headers. There is no authentication.
func (s *Server) actorMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, err := actorFromHeaders(c.Request.Header)
		if err != nil {
			writeJSON(c, http.StatusBadRequest, errorResponse{Error: "ValidationError", Message: err.Error()})
			c.Abort()

			return
		}

		c.Set(actorKey, actor)
		c.Next()
	}
}

func actorFromHeaders(h http.Header) (models.Actor, error) {
	value := func(key string) string {
		raw := strings.TrimSpace(h.Get(key))
		if decoded, err := url.PathUnescape(raw); err == nil {
			return decoded
		}

		return raw
	}

	role, err := models.ParseRole(value(HeaderActorRole))
	if err != nil {
		return models.Actor{}, fmt.Errorf("header %s: %w", HeaderActorRole, err)
	}

	actor := models.Actor{
		ID:      value(HeaderActorID),
		Name:    value(HeaderActorName),
		Role:    role,
		Area:    value(HeaderActorArea),
		Line:    value(HeaderActorLine),
		Section: value(HeaderActorSection),
	}

	if actor.ID == "" {
		return models.Actor{}, fmt.Errorf("header %s is required", HeaderActorID)
	}

	if actor.Name == "" {
		actor.Name = actor.ID
	}

	return actor, nil
}

func actorOf(c *gin.Context) models.Actor {
	actor, _ := c.MustGet(actorKey).(models.Actor)

	return actor
}
