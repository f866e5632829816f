// internal/workers/leads/lead-workflow/handler.go
package leadworkflow

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"econest-automation/internal/common/camunda"
	"econest-automation/internal/common/errors"
	"econest-automation/internal/common/logger"
	"econest-automation/internal/common/metrics"
	"econest-automation/internal/common/validation"
	"econest-automation/internal/leads"
	"econest-automation/internal/models"
	"econest-automation/internal/notify"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const (
	TaskType = "lead-workflow"
)

// HandlerOptions wires the handler's collaborators. Only Store is required.
type HandlerOptions struct {
	Config    *Config
	Store     leads.Store
	Indexer   leads.Indexer
	ChatOps   *notify.ChatOps
	Alerts    *notify.UrgentAlerts
	Validator *validation.Validator
	Logger    logger.Logger
	Now       func() time.Time
}

type Handler struct {
	config    *Config
	store     leads.Store
	indexer   leads.Indexer
	chatops   *notify.ChatOps
	alerts    *notify.UrgentAlerts
	validator *validation.Validator
	logger    logger.Logger
	runner    *camunda.JobRunner
	now       func() time.Time
}

func NewHandler(opts HandlerOptions) *Handler {
	cfg := opts.Config
	if cfg == nil {
		cfg = LoadConfig()
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	log := opts.Logger
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})

	return &Handler{
		config:    cfg,
		store:     opts.Store,
		indexer:   opts.Indexer,
		chatops:   opts.ChatOps,
		alerts:    opts.Alerts,
		validator: opts.Validator,
		logger:    log,
		runner:    camunda.NewJobRunner(TaskType, cfg.Timeout, log),
		now:       now,
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	h.runner.Run(client, job, func(ctx context.Context, job entities.Job) (interface{}, error) {
		var input Input
		if err := json.Unmarshal([]byte(job.Variables), &input); err != nil {
			return nil, errors.NewValidationError(fmt.Sprintf("parse input: %v", err))
		}
		return h.execute(ctx, &input)
	})
}

// Execute runs the inbound lead pipeline.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	if err := h.validate(input); err != nil {
		return nil, err
	}

	sub := models.LeadSubmission{
		Name:    strings.TrimSpace(input.Name),
		Email:   leads.NormalizeEmail(input.Email),
		Source:  strings.TrimSpace(input.Source),
		Notes:   strings.TrimSpace(input.Notes),
		Company: strings.TrimSpace(input.Company),
	}

	leadID, isNew, err := h.store.UpsertLead(ctx, sub)
	if err != nil {
		return nil, err
	}

	score := Score(sub.Email, input.Source, input.Company, input.Notes)
	route := RouteFor(score)

	log := h.logger.WithFields(map[string]interface{}{
		"leadId": leadID,
		"route":  string(route),
		"score":  score,
		"isNew":  isNew,
	})
	log.Info("lead scored", nil)

	summary := notify.LeadSummary{
		LeadID:  leadID,
		Name:    sub.Name,
		Email:   sub.Email,
		Company: sub.Company,
		Source:  sub.Source,
		Score:   score,
		Route:   string(route),
		IsNew:   isNew,
	}

	status := models.LeadStatusNurture
	if route == models.RouteHigh {
		status = models.LeadStatusQualified
	}

	if err := h.store.UpdateRouting(ctx, leadID, status, score, route); err != nil {
		return nil, err
	}

	if route == models.RouteHigh {
		h.chatops.Notify(ctx, notify.HighPriorityLeadMessage(summary))
	} else {
		h.chatops.Notify(ctx, notify.StandardLeadMessage(summary))
	}

	if _, err := h.store.CreateTask(ctx, h.followUpTask(leadID, sub, score, route)); err != nil {
		return nil, err
	}

	if route == models.RouteHigh {
		h.alerts.Send(ctx, summary)
	}
	h.index(ctx, log, summary, status)

	metrics.LeadsProcessed.WithLabelValues(string(route), strconv.FormatBool(isNew)).Inc()
	metrics.LeadScore.Observe(float64(score))

	return &Output{
		LeadID: leadID,
		Route:  route,
		Score:  score,
		IsNew:  isNew,
	}, nil
}

func (h *Handler) validate(input *Input) error {
	if input == nil || strings.TrimSpace(input.Name) == "" || strings.TrimSpace(input.Email) == "" {
		return errors.NewValidationError("Missing required fields: name and email")
	}

	if !validation.ValidateEmail(leads.NormalizeEmail(input.Email)) {
		return errors.NewValidationError(fmt.Sprintf("invalid email address: %s", input.Email))
	}

	if h.validator != nil {
		result, err := h.validator.ValidateGo("lead-submission", input)
		if err != nil {
			return errors.NewValidationError(err.Error())
		}
		if !result.Valid {
			return errors.NewValidationError(strings.Join(result.GetErrorMessages(), "; "))
		}
	}
	return nil
}

func (h *Handler) followUpTask(leadID string, sub models.LeadSubmission, score int, route models.Route) *models.Task {
	description := fmt.Sprintf("Score %d via %s", score, sourceLabel(sub.Source))
	if sub.Company != "" {
		description += " at " + sub.Company
	}

	if route == models.RouteHigh {
		return &models.Task{
			LeadID:      leadID,
			Title:       fmt.Sprintf("🔥 URGENT: Contact %s", sub.Name),
			Description: description,
			DueDate:     h.now().Add(h.config.UrgentTaskDue),
			Priority:    models.TaskPriorityUrgent,
		}
	}
	return &models.Task{
		LeadID:      leadID,
		Title:       fmt.Sprintf("Follow up with %s", sub.Name),
		Description: description,
		DueDate:     h.now().Add(h.config.StandardTaskDue),
		Priority:    models.TaskPriorityNormal,
	}
}

func (h *Handler) index(ctx context.Context, log logger.Logger, s notify.LeadSummary, status models.LeadStatus) {
	if h.indexer == nil {
		return
	}
	err := h.indexer.IndexLead(ctx, leads.LeadDocument{
		LeadID:    s.LeadID,
		Name:      s.Name,
		Email:     s.Email,
		Company:   s.Company,
		Source:    s.Source,
		Status:    status,
		Score:     s.Score,
		Route:     models.Route(s.Route),
		UpdatedAt: h.now().UTC(),
	})
	if err != nil {
		log.Warn("lead indexing failed", map[string]interface{}{"error": err})
	}
}

func sourceLabel(source string) string {
	if source == "" {
		return "direct"
	}
	return source
}
