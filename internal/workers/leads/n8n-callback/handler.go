// internal/workers/leads/n8n-callback/handler.go
package n8ncallback

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
	"econest-automation/internal/common/zoho"
	"econest-automation/internal/leads"
	"econest-automation/internal/models"
	"econest-automation/internal/notify"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/redis/go-redis/v9"
)

const (
	TaskType = "n8n-callback"
)

// CRMPusher receives qualified leads. Satisfied by the Zoho client.
type CRMPusher interface {
	UpsertLead(ctx context.Context, lead *zoho.Lead) (string, error)
}

type HandlerOptions struct {
	Config    *Config
	Store     leads.Store
	Redis     *redis.Client
	ChatOps   *notify.ChatOps
	CRM       CRMPusher
	Validator *validation.Validator
	Logger    logger.Logger
	Now       func() time.Time
}

type Handler struct {
	config    *Config
	store     leads.Store
	redis     *redis.Client
	chatops   *notify.ChatOps
	crm       CRMPusher
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
		redis:     opts.Redis,
		chatops:   opts.ChatOps,
		crm:       opts.CRM,
		validator: opts.Validator,
		logger:    log,
		runner:    camunda.NewJobRunner(TaskType, cfg.Timeout, log),
		now:       now,
	}
}

// Handle serves the Zeebe job. The engine only creates these jobs after the
// webhook edge verified the signature, so variables are trusted.
func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	h.runner.Run(client, job, func(ctx context.Context, job entities.Job) (interface{}, error) {
		var input Input
		if err := json.Unmarshal([]byte(job.Variables), &input); err != nil {
			return nil, errors.NewValidationError(fmt.Sprintf("parse input: %v", err))
		}
		return h.execute(ctx, &input)
	})
}

// HandleWebhook authenticates the raw body, decodes it and applies it once.
func (h *Handler) HandleWebhook(ctx context.Context, body []byte, signature string) (*Output, error) {
	if err := h.Authenticate(body, signature); err != nil {
		metrics.CallbacksProcessed.WithLabelValues("unknown", "unauthorized").Inc()
		return nil, err
	}

	var input Input
	if err := json.Unmarshal(body, &input); err != nil {
		return nil, errors.NewValidationError(fmt.Sprintf("invalid JSON body: %v", err))
	}
	if err := h.validateInput(&input); err != nil {
		return nil, err
	}

	key := replayKey(body)
	fresh, err := h.claim(ctx, key)
	if err != nil {
		h.logger.Warn("replay guard unavailable", map[string]interface{}{"error": err})
		fresh = true
	}
	if !fresh {
		metrics.CallbacksProcessed.WithLabelValues(input.Status, "duplicate").Inc()
		return &Output{LeadID: input.LeadID, Status: input.Status, Message: MessageDuplicate}, nil
	}

	out, err := h.execute(ctx, &input)
	if err != nil {
		h.release(ctx, key)
		return nil, err
	}
	return out, nil
}

// Authenticate checks the signature header against the configured secret.
func (h *Handler) Authenticate(body []byte, signature string) error {
	if h.config.Secret == "" {
		if !h.config.AllowUnsigned {
			return errors.NewAuthenticationError("callback secret is not configured")
		}
		h.logger.Warn("callback secret not configured, skipping signature verification", nil)
		return nil
	}

	if signature == "" {
		return errors.NewAuthenticationError("missing signature")
	}
	if !VerifySignature(h.config.Secret, body, signature) {
		h.logger.Warn("invalid callback signature", nil)
		return errors.NewAuthenticationError("invalid signature")
	}
	return nil
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	if err := h.validateInput(input); err != nil {
		return nil, err
	}

	log := h.logger.WithFields(map[string]interface{}{
		"leadId": input.LeadID,
		"status": input.Status,
		"step":   input.Step,
	})

	var message string
	switch input.Status {
	case StatusQualified:
		if err := h.store.MarkQualified(ctx, input.LeadID, input.CRMDealURL, input.Enrichment); err != nil {
			return nil, h.fail(input.Status, err)
		}
		h.pushToCRM(ctx, log, input)
		message = MessageQualified

	case StatusDisqualified:
		if err := h.store.UpdateStatus(ctx, input.LeadID, models.LeadStatusDisqualified); err != nil {
			return nil, h.fail(input.Status, err)
		}
		message = MessageDisqualified

	case StatusNeedsInfo:
		if err := h.store.UpdateStatus(ctx, input.LeadID, models.LeadStatusNurture); err != nil {
			return nil, h.fail(input.Status, err)
		}
		task := &models.Task{
			LeadID:      input.LeadID,
			Title:       NeedsInfoTaskTitle,
			Description: needsInfoDescription(input.Step),
			DueDate:     h.now().Add(h.config.FollowUpDue),
			Priority:    models.TaskPriorityNormal,
		}
		if _, err := h.store.CreateTask(ctx, task); err != nil {
			return nil, h.fail(input.Status, err)
		}
		message = MessageNeedsInfo
	}

	h.chatops.Notify(ctx, notify.CallbackMessage(input.LeadID, input.Status, callbackDetail(input)))
	metrics.CallbacksProcessed.WithLabelValues(input.Status, "applied").Inc()
	log.Info("callback applied", nil)

	return &Output{LeadID: input.LeadID, Status: input.Status, Message: message}, nil
}

func (h *Handler) validateInput(input *Input) error {
	if input == nil || strings.TrimSpace(input.LeadID) == "" || strings.TrimSpace(input.Status) == "" {
		return errors.NewValidationError("Missing required fields: leadId and status")
	}
	switch input.Status {
	case StatusQualified, StatusDisqualified, StatusNeedsInfo:
	default:
		return errors.NewValidationError(fmt.Sprintf("invalid status %q: expected qualified, disqualified or needs_info", input.Status))
	}
	if input.CRMDealURL != "" && !validation.ValidateURL(input.CRMDealURL) {
		return errors.NewValidationError("crmDealUrl must be an absolute http(s) URL")
	}

	if h.validator != nil {
		result, err := h.validator.ValidateGo("n8n-callback", input)
		if err != nil {
			return errors.NewValidationError(err.Error())
		}
		if !result.Valid {
			return errors.NewValidationError(strings.Join(result.GetErrorMessages(), "; "))
		}
	}
	return nil
}

func (h *Handler) fail(status string, err error) error {
	metrics.CallbacksProcessed.WithLabelValues(status, "failed").Inc()
	return err
}

// pushToCRM mirrors a qualified lead into Zoho. Best effort.
func (h *Handler) pushToCRM(ctx context.Context, log logger.Logger, input *Input) {
	if h.crm == nil {
		return
	}
	lead, err := h.store.GetLead(ctx, input.LeadID)
	if err != nil {
		log.Warn("crm push skipped, lead lookup failed", map[string]interface{}{"error": err})
		return
	}

	first, last := zoho.SplitName(lead.Name)
	crmID, err := h.crm.UpsertLead(ctx, &zoho.Lead{
		Email:       lead.Email,
		FirstName:   first,
		LastName:    last,
		Company:     lead.Company,
		Source:      lead.Source,
		Status:      "Qualified",
		Description: input.CRMDealURL,
	})
	if err != nil {
		metrics.NotificationsSent.WithLabelValues("zoho", "failed").Inc()
		log.Warn("crm push failed", map[string]interface{}{"error": err})
		return
	}
	metrics.NotificationsSent.WithLabelValues("zoho", "sent").Inc()
	log.Info("lead pushed to crm", map[string]interface{}{"crmId": crmID})
}

// claim records the body hash; false means it was already processed.
func (h *Handler) claim(ctx context.Context, key string) (bool, error) {
	if h.redis == nil {
		return true, nil
	}
	return h.redis.SetNX(ctx, key, h.now().UTC().Format(time.RFC3339), h.config.ReplayTTL).Result()
}

func (h *Handler) release(ctx context.Context, key string) {
	if h.redis == nil {
		return
	}
	if err := h.redis.Del(ctx, key).Err(); err != nil {
		h.logger.Warn("failed to release replay key", map[string]interface{}{"error": err})
	}
}

func needsInfoDescription(step string) string {
	if step == "" {
		return "Qualification workflow needs more information from the lead"
	}
	return fmt.Sprintf("Qualification workflow needs more information (step: %s)", step)
}

func callbackDetail(input *Input) string {
	var parts []string
	if input.Step != "" {
		parts = append(parts, "step: "+input.Step)
	}
	if input.CRMDealURL != "" {
		parts = append(parts, "deal: "+input.CRMDealURL)
	}
	return strings.Join(parts, " | ")
}
