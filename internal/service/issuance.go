package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jask/planwizard/internal/database"
	"github.com/jask/planwizard/internal/database/repository"
	"github.com/jask/planwizard/internal/flow"
)

// ErrNotAtReview is returned when submitting before the review step.
var ErrNotAtReview = errors.New("issuance: flow is not at the review step")

// IssuanceService turns a completed wizard into a stored submission.
type IssuanceService struct {
	Submissions *repository.SubmissionRepo
	Log         *zap.Logger
}

// Submit validates every step of f and stores the result.
func (s *IssuanceService) Submit(ctx context.Context, f *flow.Flow, locale string) (repository.Submission, error) {
	if !f.IsTerminal() {
		return repository.Submission{}, ErrNotAtReview
	}
	if err := f.Validate(); err != nil {
		return repository.Submission{}, fmt.Errorf("issuance: %w", err)
	}

	state := f.Snapshot()
	payload, err := json.Marshal(state.Data)
	if err != nil {
		return repository.Submission{}, fmt.Errorf("issuance: encode payload: %w", err)
	}
	sub := repository.Submission{
		ID:         uuid.NewString(),
		FormType:   string(state.FormType),
		OperatorID: operatorID(state),
		BrokerCode: state.Data[flow.StepBroker][flow.FieldBrokerCode],
		Locale:     locale,
		Payload:    string(payload),
		CreatedAt:  database.Now(),
	}
	if err := s.Submissions.Insert(ctx, sub); err != nil {
		return repository.Submission{}, fmt.Errorf("issuance: store submission: %w", err)
	}
	if s.Log != nil {
		s.Log.Info("submission stored",
			zap.String("id", sub.ID),
			zap.String("form_type", sub.FormType),
			zap.String("operator_id", sub.OperatorID))
	}
	return sub, nil
}

// operatorID reads the operator picked on the modality (pme) or plan (individual) step.
func operatorID(state flow.State) string {
	for _, step := range []flow.Step{flow.StepModality, flow.StepPlan} {
		if id := state.Data[step][flow.FieldOperatorID]; id != "" {
			return id
		}
	}
	return ""
}
