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
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/goccy/go-json"

	musterfsm "github.com/united-manufacturing-hub/emuster/pkg/fsm/muster"
	"github.com/united-manufacturing-hub/emuster/pkg/models"
	"github.com/united-manufacturing-hub/emuster/pkg/report"
	musterservice "github.com/united-manufacturing-hub/emuster/pkg/service/muster"
	"github.com/united-manufacturing-hub/emuster/pkg/standarderrors"
	"github.com/united-manufacturing-hub/emuster/pkg/visibility"
)

type recordResultRequest struct {
	Slot   string `json:"slot" binding:"required"`
	ItemID string `json:"itemId" binding:"required"`
	Status string `json:"status" binding:"required"`
}

type fetchRequest struct {
	Slot   string `json:"slot" binding:"required"`
	ItemID string `json:"itemId" binding:"required"`
}

type fetchResponse struct {
	Token string `json:"token"`
	State string `json:"state"`
}

type scanSampleRequest struct {
	Slot string `json:"slot" binding:"required"`
	SN   string `json:"sn" binding:"required"`
}

type advanceRequest struct {
	Action     string `json:"action" binding:"required"`
	TargetArea string `json:"targetArea"`
	TargetLine string `json:"targetLine"`
}

type annotateRequest struct {
	Field   string `json:"field" binding:"required"`
	Comment string `json:"comment"`
}

type decisionRequest struct {
	Outcome string `json:"outcome" binding:"required"`
}

type assignSectionRequest struct {
	Section string `json:"section" binding:"required"`
}

// bind decodes the JSON body and validates its binding tags.
func bind(c *gin.Context, op string, dst any) error {
	if err := json.NewDecoder(c.Request.Body).Decode(dst); err != nil {
		return standarderrors.Newf(standarderrors.ErrValidation, op, "malformed body: %v", err)
	}

	if err := binding.Validator.ValidateStruct(dst); err != nil {
		return standarderrors.Newf(standarderrors.ErrValidation, op, "%v", err)
	}

	return nil
}

func parseSlot(op, raw string) (models.PcbSlot, error) {
	slot, err := models.ParsePcbSlot(raw)
	if err != nil {
		return "", standarderrors.Newf(standarderrors.ErrValidation, op, "%v", err)
	}

	return slot, nil
}

// writeMuster responds with the document and its content version as ETag.
func writeMuster(c *gin.Context, status int, m *models.Muster) {
	c.Header("ETag", strconv.Quote(strconv.FormatUint(m.Version, 16)))
	writeJSON(c, status, m)
}

func (s *Server) getTopology(c *gin.Context) {
	catalog, err := s.topology.Catalog()
	if err != nil {
		s.writeError(c, err)

		return
	}

	writeJSON(c, http.StatusOK, catalog)
}

func (s *Server) createMuster(c *gin.Context) {
	var in musterservice.CreateInput
	if err := bind(c, "create muster", &in); err != nil {
		s.writeError(c, err)

		return
	}

	m, err := s.service.CreateMuster(c.Request.Context(), actorOf(c), in)
	if err != nil {
		s.writeError(c, err)

		return
	}

	writeMuster(c, http.StatusCreated, m)
}

func (s *Server) getMuster(c *gin.Context) {
	m, err := s.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.writeError(c, err)

		return
	}

	writeMuster(c, http.StatusOK, m)
}

func (s *Server) listActive(c *gin.Context) {
	s.list(c, s.service.ListActive)
}

func (s *Server) listHistory(c *gin.Context) {
	s.list(c, s.service.ListHistory)
}

type listFunc func(ctx context.Context, actor models.Actor, filters visibility.Filters) ([]*models.Muster, error)

func (s *Server) list(c *gin.Context, fn listFunc) {
	var filters visibility.Filters
	if err := c.ShouldBindQuery(&filters); err != nil {
		s.writeError(c, standarderrors.Newf(standarderrors.ErrValidation, "list musters", "%v", err))

		return
	}

	musters, err := fn(c.Request.Context(), actorOf(c), filters)
	if err != nil {
		s.writeError(c, err)

		return
	}

	writeJSON(c, http.StatusOK, musters)
}

func (s *Server) kpi(c *gin.Context) {
	kpi, err := s.service.KPI(c.Request.Context(), actorOf(c))
	if err != nil {
		s.writeError(c, err)

		return
	}

	writeJSON(c, http.StatusOK, kpi)
}

func (s *Server) deleteDraft(c *gin.Context) {
	if err := s.service.DeleteDraft(c.Request.Context(), c.Param("id"), actorOf(c)); err != nil {
		s.writeError(c, err)

		return
	}

	c.Status(http.StatusNoContent)
}

func (s *Server) recordResult(c *gin.Context) {
	const op = "record checklist result"

	var req recordResultRequest
	if err := bind(c, op, &req); err != nil {
		s.writeError(c, err)

		return
	}

	slot, err := parseSlot(op, req.Slot)
	if err != nil {
		s.writeError(c, err)

		return
	}

	status, err := models.ParseResultStatus(req.Status)
	if err != nil {
		s.writeError(c, standarderrors.Newf(standarderrors.ErrValidation, op, "%v", err))

		return
	}

	m, err := s.service.RecordChecklistResult(c.Request.Context(), c.Param("id"), slot, req.ItemID, status, actorOf(c))
	if err != nil {
		s.writeError(c, err)

		return
	}

	writeMuster(c, http.StatusOK, m)
}

func (s *Server) fetchAutomatic(c *gin.Context) {
	const op = "fetch automatic result"

	var req fetchRequest
	if err := bind(c, op, &req); err != nil {
		s.writeError(c, err)

		return
	}

	slot, err := parseSlot(op, req.Slot)
	if err != nil {
		s.writeError(c, err)

		return
	}

	token, err := s.service.FetchAutomatic(c.Request.Context(), c.Param("id"), slot, req.ItemID, actorOf(c))
	if err != nil {
		s.writeError(c, err)

		return
	}

	state, _ := s.service.PendingState(token)
	writeJSON(c, http.StatusAccepted, fetchResponse{Token: token, State: string(state)})
}

func (s *Server) fetchState(c *gin.Context) {
	token := c.Param("token")

	state, ok := s.service.PendingState(token)
	if !ok {
		s.writeError(c, standarderrors.Newf(standarderrors.ErrNotFound, "fetch state", "unknown token %s", token))

		return
	}

	writeJSON(c, http.StatusOK, fetchResponse{Token: token, State: string(state)})
}

func (s *Server) discardFetch(c *gin.Context) {
	token := c.Param("token")
	if !s.service.DiscardPending(token) {
		s.writeError(c, standarderrors.Newf(standarderrors.ErrInvalidTransition, "discard fetch", "token %s is not pending", token))

		return
	}

	c.Status(http.StatusNoContent)
}

func (s *Server) scanSample(c *gin.Context) {
	const op = "scan sample"

	var req scanSampleRequest
	if err := bind(c, op, &req); err != nil {
		s.writeError(c, err)

		return
	}

	slot, err := parseSlot(op, req.Slot)
	if err != nil {
		s.writeError(c, err)

		return
	}

	m, err := s.service.ScanSample(c.Request.Context(), c.Param("id"), slot, req.SN, actorOf(c))
	if err != nil {
		s.writeError(c, err)

		return
	}

	writeMuster(c, http.StatusOK, m)
}

func (s *Server) advance(c *gin.Context) {
	const op = "advance"

	var req advanceRequest
	if err := bind(c, op, &req); err != nil {
		s.writeError(c, err)

		return
	}

	action, err := musterfsm.ParseAction(req.Action)
	if err != nil {
		s.writeError(c, standarderrors.Newf(standarderrors.ErrValidation, op, "%v", err))

		return
	}

	m, err := s.service.Advance(c.Request.Context(), c.Param("id"), action, actorOf(c), musterservice.AdvancePayload{
		TargetArea: req.TargetArea,
		TargetLine: req.TargetLine,
	})
	if err != nil {
		s.writeError(c, err)

		return
	}

	writeMuster(c, http.StatusOK, m)
}

func (s *Server) submitReport(c *gin.Context) {
	var draft report.Draft
	if err := bind(c, "submit report", &draft); err != nil {
		s.writeError(c, err)

		return
	}

	m, err := s.service.SubmitReport(c.Request.Context(), c.Param("id"), draft, actorOf(c))
	if err != nil {
		s.writeError(c, err)

		return
	}

	writeMuster(c, http.StatusOK, m)
}

func (s *Server) annotateReport(c *gin.Context) {
	var req annotateRequest
	if err := bind(c, "annotate report", &req); err != nil {
		s.writeError(c, err)

		return
	}

	m, err := s.service.AnnotateReport(c.Request.Context(), c.Param("id"), req.Field, req.Comment, actorOf(c))
	if err != nil {
		s.writeError(c, err)

		return
	}

	writeMuster(c, http.StatusOK, m)
}

func (s *Server) decide(c *gin.Context) {
	var req decisionRequest
	if err := bind(c, "decide", &req); err != nil {
		s.writeError(c, err)

		return
	}

	m, err := s.service.Decide(c.Request.Context(), c.Param("id"), models.Outcome(req.Outcome), actorOf(c))
	if err != nil {
		s.writeError(c, err)

		return
	}

	writeMuster(c, http.StatusOK, m)
}

func (s *Server) assignSection(c *gin.Context) {
	var req assignSectionRequest
	if err := bind(c, "assign section", &req); err != nil {
		s.writeError(c, err)

		return
	}

	m, err := s.service.AssignSection(c.Request.Context(), c.Param("id"), req.Section, actorOf(c))
	if err != nil {
		s.writeError(c, err)

		return
	}

	writeMuster(c, http.StatusOK, m)
}
