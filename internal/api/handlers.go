// internal/api/handlers.go
package api

import (
	"context"
	"io"
	"net/http"
	"time"

	"econest-automation/internal/common/errors"
	"econest-automation/internal/common/logger"
	"econest-automation/internal/spade"
	llmproxy "econest-automation/internal/workers/ai/llm-proxy"
	leadworkflow "econest-automation/internal/workers/leads/lead-workflow"
	n8ncallback "econest-automation/internal/workers/leads/n8n-callback"
	detectintent "econest-automation/internal/workers/spade/detect-intent"
	evaluatepolicy "econest-automation/internal/workers/spade/evaluate-policy"

	"github.com/gin-gonic/gin"
)

const (
	maxBodyBytes = 1 << 20

	messageLeadProcessed = "Lead processed successfully"
)

// --- Leads ---

func (h Handlers) LeadWorkflow(c *gin.Context) {
	if h.Leads == nil {
		h.fail(c, "success", errors.NewConfigurationError("lead workflow not configured"))
		return
	}
	var input leadworkflow.Input
	if err := c.ShouldBindJSON(&input); err != nil {
		h.fail(c, "success", errors.NewValidationError("invalid JSON body"))
		return
	}

	out, err := h.Leads.Execute(c.Request.Context(), &input)
	if err != nil {
		h.fail(c, "success", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"leadId":  out.LeadID,
		"route":   out.Route,
		"score":   out.Score,
		"isNew":   out.IsNew,
		"message": messageLeadProcessed,
	})
}

// N8NCallback verifies the signature over the raw body before decoding it.
func (h Handlers) N8NCallback(c *gin.Context) {
	if h.Callbacks == nil {
		h.fail(c, "success", errors.NewConfigurationError("callback handler not configured"))
		return
	}
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxBodyBytes))
	if err != nil {
		h.fail(c, "success", errors.NewValidationError("unreadable body"))
		return
	}

	out, err := h.Callbacks.HandleWebhook(c.Request.Context(), body, c.GetHeader(n8ncallback.SignatureHeader))
	if err != nil {
		h.fail(c, "success", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"leadId":  out.LeadID,
		"status":  out.Status,
		"message": out.Message,
	})
}

// --- AI ---

func (h Handlers) AIChat(c *gin.Context) {
	if h.LLM == nil {
		h.fail(c, "ok", errors.NewConfigurationError("llm proxy not configured"))
		return
	}
	var input llmproxy.ChatInput
	if err := c.ShouldBindJSON(&input); err != nil {
		h.fail(c, "ok", errors.NewValidationError("invalid JSON body"))
		return
	}
	out, err := h.LLM.Chat(c.Request.Context(), &input)
	if err != nil {
		h.fail(c, "ok", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "reply": out.Reply})
}

func (h Handlers) GenerateSOP(c *gin.Context) {
	if h.LLM == nil {
		h.fail(c, "ok", errors.NewConfigurationError("llm proxy not configured"))
		return
	}
	var input llmproxy.SOPInput
	if err := c.ShouldBindJSON(&input); err != nil {
		h.fail(c, "ok", errors.NewValidationError("invalid JSON body"))
		return
	}
	out, err := h.LLM.GenerateSOP(c.Request.Context(), &input)
	if err != nil {
		h.fail(c, "ok", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "sop": out.SOP})
}

// --- SPADE ---

func (h Handlers) EvaluatePolicy(c *gin.Context) {
	if h.Policy == nil {
		h.fail(c, "ok", errors.NewConfigurationError("policy evaluator not configured"))
		return
	}
	var req spade.ActionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.fail(c, "ok", errors.NewValidationError("invalid JSON body"))
		return
	}
	out, err := h.Policy.Execute(c.Request.Context(), &evaluatepolicy.Input{Request: req})
	if err != nil {
		h.fail(c, "ok", err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (h Handlers) DetectIntent(c *gin.Context) {
	if h.Intent == nil {
		h.fail(c, "ok", errors.NewConfigurationError("intent router not configured"))
		return
	}
	var input detectintent.Input
	if err := c.ShouldBindJSON(&input); err != nil {
		h.fail(c, "ok", errors.NewValidationError("invalid JSON body"))
		return
	}
	out, err := h.Intent.Execute(c.Request.Context(), &input)
	if err != nil {
		h.fail(c, "ok", err)
		return
	}
	c.JSON(http.StatusOK, out.IntentPlan)
}

// --- Probes ---

func (h Handlers) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h Handlers) Ready(c *gin.Context) {
	if h.Store == nil {
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
		return
	}
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()
	if err := h.Store.Ping(ctx); err != nil {
		logger.FromContext(c.Request.Context(), h.Logger).Warn("readiness check failed", map[string]interface{}{"error": err})
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "error": "database unreachable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ready"})
}

// fail writes the error envelope. flag is the boolean success key of the
// endpoint family ("success" for webhooks, "ok" for AI and SPADE routes).
func (h Handlers) fail(c *gin.Context, flag string, err error) {
	stdErr := errors.AsStandard(err)
	status := errors.HTTPStatus(stdErr.Code)

	log := logger.FromContext(c.Request.Context(), h.Logger)
	fields := map[string]interface{}{
		"errorCode": string(stdErr.Code),
		"details":   stdErr.Details,
	}
	if status >= http.StatusInternalServerError {
		_ = c.Error(err)
		log.Error("request failed", fields)
	} else {
		log.Warn("request rejected", fields)
	}

	c.JSON(status, gin.H{flag: false, "error": publicMessage(stdErr)})
}

// publicMessage hides internal details of server-side failures.
func publicMessage(e *errors.StandardError) string {
	switch e.Code {
	case errors.ErrCodeValidationFailed, errors.ErrCodeAuthenticationFailed, errors.ErrCodeLeadNotFound:
		if e.Details != "" {
			return e.Details
		}
		return e.Message
	default:
		return e.Message
	}
}
