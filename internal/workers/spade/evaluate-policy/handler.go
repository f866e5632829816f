// internal/workers/spade/evaluate-policy/handler.go
package evaluatepolicy

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"econest-automation/internal/common/camunda"
	"econest-automation/internal/common/errors"
	"econest-automation/internal/common/logger"
	"econest-automation/internal/common/metrics"
	"econest-automation/internal/common/validation"
	"econest-automation/internal/spade"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const (
	TaskType = "spade-evaluate-policy"
)

// Handler evaluates guardrails for BPMN user tasks. The process routes to a
// confirmation or clarification form based on the decision flags.
type Handler struct {
	validator *validation.Validator
	logger    logger.Logger
	runner    *camunda.JobRunner
}

// NewHandler builds the handler. A nil validator skips the schema check.
func NewHandler(timeout time.Duration, validator *validation.Validator, log logger.Logger) *Handler {
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		validator: validator,
		logger:    log,
		runner:    camunda.NewJobRunner(TaskType, timeout, log),
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	h.runner.Run(client, job, func(ctx context.Context, job entities.Job) (interface{}, error) {
		var input Input
		if err := json.Unmarshal([]byte(job.Variables), &input); err != nil {
			return nil, errors.NewValidationError(fmt.Sprintf("parse input: %v", err))
		}
		return h.Execute(ctx, &input)
	})
}

func (h *Handler) Execute(_ context.Context, input *Input) (*Output, error) {
	if err := input.Request.Validate(); err != nil {
		return nil, errors.NewValidationError(err.Error())
	}
	if h.validator != nil {
		result, err := h.validator.ValidateGo("action-request", input.Request)
		if err != nil {
			return nil, errors.NewValidationError(err.Error())
		}
		if !result.Valid {
			return nil, errors.NewValidationError(strings.Join(result.GetErrorMessages(), "; "))
		}
	}

	decision := spade.Evaluate(input.Request)
	metrics.PolicyDecisions.WithLabelValues(decision.Kind()).Inc()

	out := &Output{Decision: decision}
	if decision.NeedsConfirmation {
		out.ConfirmationDetail = spade.ConfirmationPrompt(input.Request, decision)
	}

	h.logger.Debug("policy evaluated", map[string]interface{}{
		"action":   input.Request.Action,
		"decision": decision.Kind(),
	})
	return out, nil
}
