// internal/workers/ai/llm-proxy/handler.go
package llmproxy

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"strings"

	"econest-automation/internal/common/camunda"
	"econest-automation/internal/common/errors"
	commonhttp "econest-automation/internal/common/http"
	"econest-automation/internal/common/logger"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const (
	TaskTypeChat = "ai-chat"
	TaskTypeSOP  = "generate-sop"
)

// Handler proxies chat and SOP generation to an OpenAI-compatible endpoint.
// Each call is a single attempt.
type Handler struct {
	config     *Config
	client     *commonhttp.Client
	logger     logger.Logger
	chatRunner *camunda.JobRunner
	sopRunner  *camunda.JobRunner
}

func NewHandler(config *Config, log logger.Logger) *Handler {
	if config == nil {
		config = LoadConfig()
	}
	log = log.WithFields(map[string]interface{}{"component": "llm-proxy"})
	return &Handler{
		config:     config,
		client:     commonhttp.NewClient(config.Timeout),
		logger:     log,
		chatRunner: camunda.NewJobRunner(TaskTypeChat, config.Timeout, log),
		sopRunner:  camunda.NewJobRunner(TaskTypeSOP, config.Timeout, log),
	}
}

func (h *Handler) HandleChat(client worker.JobClient, job entities.Job) {
	h.chatRunner.Run(client, job, func(ctx context.Context, job entities.Job) (interface{}, error) {
		var input ChatInput
		if err := json.Unmarshal([]byte(job.Variables), &input); err != nil {
			return nil, errors.NewValidationError(fmt.Sprintf("parse input: %v", err))
		}
		return h.Chat(ctx, &input)
	})
}

func (h *Handler) HandleSOP(client worker.JobClient, job entities.Job) {
	h.sopRunner.Run(client, job, func(ctx context.Context, job entities.Job) (interface{}, error) {
		var input SOPInput
		if err := json.Unmarshal([]byte(job.Variables), &input); err != nil {
			return nil, errors.NewValidationError(fmt.Sprintf("parse input: %v", err))
		}
		return h.GenerateSOP(ctx, &input)
	})
}

// Chat forwards a conversation and returns the assistant reply.
func (h *Handler) Chat(ctx context.Context, input *ChatInput) (*ChatOutput, error) {
	if input == nil || len(input.Messages) == 0 {
		return nil, errors.NewValidationError("messages are required")
	}
	for i, m := range input.Messages {
		if !validRoles[m.Role] {
			return nil, errors.NewValidationError(fmt.Sprintf("messages[%d]: invalid role %q", i, m.Role))
		}
		if strings.TrimSpace(m.Content) == "" {
			return nil, errors.NewValidationError(fmt.Sprintf("messages[%d]: content is required", i))
		}
	}

	messages := input.Messages
	if messages[0].Role != "system" {
		messages = append([]ChatMessage{{Role: "system", Content: chatSystemPrompt}}, messages...)
	}

	reply, err := h.complete(ctx, messages)
	if err != nil {
		return nil, err
	}
	return &ChatOutput{Reply: reply}, nil
}

// GenerateSOP drafts a standard operating procedure.
func (h *Handler) GenerateSOP(ctx context.Context, input *SOPInput) (*SOPOutput, error) {
	if input == nil || strings.TrimSpace(input.Title) == "" {
		return nil, errors.NewValidationError("title is required")
	}

	sop, err := h.complete(ctx, []ChatMessage{
		{Role: "system", Content: sopSystemPrompt},
		{Role: "user", Content: buildSOPPrompt(input)},
	})
	if err != nil {
		return nil, err
	}
	return &SOPOutput{SOP: sop}, nil
}

func (h *Handler) complete(ctx context.Context, messages []ChatMessage) (string, error) {
	if h.config.APIKey == "" {
		return "", errors.NewConfigurationError("LLM API key is not configured")
	}

	url := strings.TrimRight(h.config.GenAIBaseURL, "/") + "/v1/chat/completions"
	var resp completionResponse
	err := h.client.PostJSON(ctx, url,
		map[string]string{"Authorization": "Bearer " + h.config.APIKey},
		completionRequest{
			Model:       h.config.Model,
			Messages:    messages,
			MaxTokens:   h.config.MaxTokens,
			Temperature: h.config.Temperature,
		}, &resp)
	if err != nil {
		if stderrors.Is(err, context.DeadlineExceeded) || ctx.Err() != nil || isClientTimeout(err) {
			return "", errors.NewLLMTimeoutError(err)
		}
		h.logger.Error("llm request failed", map[string]interface{}{"error": err})
		return "", errors.NewLLMRequestFailedError(err)
	}

	if len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Message.Content) == "" {
		return "", errors.NewLLMRequestFailedError(fmt.Errorf("empty completion"))
	}

	h.logger.Info("llm completion returned", map[string]interface{}{"model": h.config.Model})
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

func buildSOPPrompt(input *SOPInput) string {
	var parts []string
	parts = append(parts, fmt.Sprintf("Write an SOP titled %q.", input.Title))
	if input.Industry != "" {
		parts = append(parts, fmt.Sprintf("Industry: %s.", input.Industry))
	}
	if input.Tone != "" {
		parts = append(parts, fmt.Sprintf("Tone: %s.", input.Tone))
	}
	if len(input.Steps) > 0 {
		parts = append(parts, "Cover these steps in order:")
		for i, s := range input.Steps {
			parts = append(parts, fmt.Sprintf("%d. %s", i+1, s))
		}
	}
	return strings.Join(parts, "\n")
}

// isClientTimeout detects http.Client timeouts, which are not wrapped as
// context.DeadlineExceeded.
func isClientTimeout(err error) bool {
	var te interface{ Timeout() bool }
	return stderrors.As(err, &te) && te.Timeout()
}
