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
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/goccy/go-json"

	"github.com/united-manufacturing-hub/emuster/pkg/metrics"
	"github.com/united-manufacturing-hub/emuster/pkg/standarderrors"
)

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// statusFor maps an error kind onto an HTTP status.
func statusFor(err error) int {
	switch standarderrors.KindOf(err) {
	case standarderrors.ErrNotAuthorized:
		return http.StatusForbidden
	case standarderrors.ErrInvalidTransition:
		return http.StatusConflict
	case standarderrors.ErrIncompleteChecklist:
		return http.StatusUnprocessableEntity
	case standarderrors.ErrNotFound:
		return http.StatusNotFound
	case standarderrors.ErrValidation:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) writeError(c *gin.Context, err error) {
	status := statusFor(err)
	kind := standarderrors.KindName(standarderrors.KindOf(err))

	message := err.Error()
	if status == http.StatusInternalServerError {
		metrics.IncErrorCountAndLog(metrics.ComponentAPIServer, c.FullPath(), err, s.logger)

		if errors.Is(err, c.Request.Context().Err()) {
			message = "request cancelled"
		} else {
			message = "internal server error"
		}
	}

	writeJSON(c, status, errorResponse{Error: kind, Message: message})
}

func writeJSON(c *gin.Context, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		c.Data(http.StatusInternalServerError, "application/json; charset=utf-8", []byte(`{"error":"Internal","message":"failed to encode response"}`))

		return
	}

	c.Data(status, "application/json; charset=utf-8", data)
}
