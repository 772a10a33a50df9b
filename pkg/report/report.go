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

// Package report builds and annotates 5W2H root-cause reports.
package report

import (
	"errors"
	"slices"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/united-manufacturing-hub/emuster/pkg/checklist"
	"github.com/united-manufacturing-hub/emuster/pkg/constants"
	"github.com/united-manufacturing-hub/emuster/pkg/models"
	"github.com/united-manufacturing-hub/emuster/pkg/permissions"
	"github.com/united-manufacturing-hub/emuster/pkg/standarderrors"
)

// Draft is what the operator types into the 5W2H dialog. What and Where are
// taken from the muster and cannot be entered.
type Draft struct {
	Problem     string `json:"problem" validate:"required"`
	Who         string `json:"who,omitempty"`
	When        string `json:"when,omitempty"`
	Description string `json:"description" validate:"required"`
}

// Builder turns drafts into reports bound to a muster.
type Builder struct {
	checklist *checklist.Engine
	validate  *validator.Validate
	now       func() time.Time
	location  *time.Location
}

// NewBuilder creates a report builder. A nil clock uses time.Now, a nil location time.Local.
func NewBuilder(engine *checklist.Engine, now func() time.Time, location *time.Location) *Builder {
	if now == nil {
		now = time.Now
	}

	if location == nil {
		location = time.Local
	}

	return &Builder{
		checklist: engine,
		validate:  validator.New(validator.WithRequiredStructEnabled()),
		now:       now,
		location:  location,
	}
}

// Build validates the draft and fills the fields derived from the muster.
func (b *Builder) Build(m *models.Muster, draft Draft) (*models.Report5W2H, error) {
	const op = "submit report"

	draft.Problem = strings.TrimSpace(draft.Problem)
	draft.Description = strings.TrimSpace(draft.Description)

	if err := b.validate.Struct(draft); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
			return nil, standarderrors.Newf(standarderrors.ErrValidation, op, "%s is required", strings.ToLower(fieldErrs[0].Field()))
		}

		return nil, standarderrors.Newf(standarderrors.ErrValidation, op, "invalid report: %v", err)
	}

	who := strings.TrimSpace(draft.Who)
	if who == "" {
		who = constants.ReportWhoDefault
	}

	when := strings.TrimSpace(draft.When)
	if when == "" {
		when = b.now().In(b.location).Format(constants.DisplayTimestampFormat)
	}

	return &models.Report5W2H{
		Problem:     draft.Problem,
		Who:         who,
		What:        m.Product,
		Where:       m.Line,
		When:        when,
		Description: draft.Description,
		NokSerials:  b.checklist.NokSerials(m),
	}, nil
}

// Annotate stores a manager comment on one report field. The operator-entered values never change
// and no history is written. An empty comment removes the annotation.
func Annotate(m *models.Muster, field, comment string, actor models.Actor) error {
	const op = "annotate report"

	if err := permissions.RequireManager(op, actor); err != nil {
		return err
	}

	if m.Status.Kind != models.StatusPendingManagerDecision {
		return standarderrors.Newf(standarderrors.ErrInvalidTransition, op, "report can only be annotated while %s", models.PendingManagerDecision)
	}

	if m.Report5W2H == nil {
		return standarderrors.Newf(standarderrors.ErrInvalidTransition, op, "muster has no report")
	}

	if !slices.Contains(models.ReportFields, field) {
		return standarderrors.Newf(standarderrors.ErrValidation, op, "unknown report field %q", field)
	}

	comment = strings.TrimSpace(comment)
	if comment == "" {
		delete(m.Report5W2H.ManagerComments, field)

		return nil
	}

	if m.Report5W2H.ManagerComments == nil {
		m.Report5W2H.ManagerComments = make(map[string]string)
	}

	m.Report5W2H.ManagerComments[field] = comment

	return nil
}
