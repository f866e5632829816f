// internal/workers/spade/detect-intent/handler.go
package detectintent

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"econest-automation/internal/common/camunda"
	"econest-automation/internal/common/errors"
	"econest-automation/internal/common/logger"
	"econest-automation/internal/spade"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const (
	TaskType = "spade-detect-intent"
)

type Handler struct {
	logger logger.Logger
	runner *camunda.JobRunner
}

func NewHandler(timeout time.Duration, log logger.Logger) *Handler {
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		logger: log,
		runner: camunda.NewJobRunner(TaskType, timeout, log),
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
	if strings.TrimSpace(input.Text) == "" {
		return nil, errors.NewValidationError("text is required")
	}

	plan := spade.DetectIntent(input.Text)
	h.logger.Debug("intent detected", map[string]interface{}{
		"detected": plan.Detected,
		"intent":   plan.Intent,
	})
	return &Output{IntentPlan: plan}, nil
}
