// internal/notify/chatops.go
package notify

import (
	"context"
	"fmt"
	"time"

	"econest-automation/internal/common/errors"
	commonhttp "econest-automation/internal/common/http"
	"econest-automation/internal/common/logger"
	"econest-automation/internal/common/metrics"
)

// Message is a Slack-compatible incoming-webhook payload.
type Message struct {
	Text   string  `json:"text"`
	Blocks []Block `json:"blocks,omitempty"`
}

type Block struct {
	Type     string    `json:"type"`
	Text     *Text     `json:"text,omitempty"`
	Elements []Element `json:"elements,omitempty"`
}

type Text struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// Element is an interactive button. ActionID and Value are echoed back to
// the automation that handles the click.
type Element struct {
	Type     string `json:"type"`
	Text     *Text  `json:"text,omitempty"`
	ActionID string `json:"action_id,omitempty"`
	Value    string `json:"value,omitempty"`
	Style    string `json:"style,omitempty"`
}

// ChatOps posts best-effort notifications to a webhook. A zero URL disables it.
type ChatOps struct {
	webhookURL string
	client     *commonhttp.Client
	logger     logger.Logger
}

func NewChatOps(webhookURL string, timeout time.Duration, log logger.Logger) *ChatOps {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &ChatOps{
		webhookURL: webhookURL,
		client:     commonhttp.NewClient(timeout),
		logger:     log.WithFields(map[string]interface{}{"component": "chatops"}),
	}
}

// Enabled reports whether a webhook URL is configured.
func (c *ChatOps) Enabled() bool {
	return c != nil && c.webhookURL != ""
}

// Send posts msg and reports the delivery error. Most callers use Notify.
func (c *ChatOps) Send(ctx context.Context, msg Message) error {
	if !c.Enabled() {
		return nil
	}
	if err := c.client.PostJSON(ctx, c.webhookURL, nil, msg, nil); err != nil {
		return errors.NewNotificationSendFailedError("chatops", err)
	}
	return nil
}

// Notify sends msg and swallows failures after logging them.
func (c *ChatOps) Notify(ctx context.Context, msg Message) {
	if !c.Enabled() {
		return
	}
	if err := c.Send(ctx, msg); err != nil {
		metrics.NotificationsSent.WithLabelValues("chatops", "failed").Inc()
		c.logger.Warn("chat-ops notification failed", map[string]interface{}{"error": err})
		return
	}
	metrics.NotificationsSent.WithLabelValues("chatops", "sent").Inc()
}

// LeadSummary carries what every lead message shows.
type LeadSummary struct {
	LeadID  string
	Name    string
	Email   string
	Company string
	Source  string
	Score   int
	Route   string
	IsNew   bool
}

func (s LeadSummary) line() string {
	company := s.Company
	if company == "" {
		company = "n/a"
	}
	source := s.Source
	if source == "" {
		source = "direct"
	}
	verb := "Updated"
	if s.IsNew {
		verb = "New"
	}
	return fmt.Sprintf("%s lead: %s <%s> | company: %s | source: %s | score: %d", verb, s.Name, s.Email, company, source, s.Score)
}

// StandardLeadMessage is the plain notification for nurture leads.
func StandardLeadMessage(s LeadSummary) Message {
	return Message{Text: s.line() + " | route: standard"}
}

// HighPriorityLeadMessage adds buttons for claiming or disqualifying the lead.
func HighPriorityLeadMessage(s LeadSummary) Message {
	text := "🔥 High-priority " + s.line()
	return Message{
		Text: text,
		Blocks: []Block{
			{Type: "section", Text: &Text{Type: "mrkdwn", Text: "*" + text + "*"}},
			{
				Type: "actions",
				Elements: []Element{
					{Type: "button", Text: &Text{Type: "plain_text", Text: "Claim lead"}, ActionID: "claim_lead", Value: s.LeadID, Style: "primary"},
					{Type: "button", Text: &Text{Type: "plain_text", Text: "Schedule call"}, ActionID: "schedule_call", Value: s.LeadID},
					{Type: "button", Text: &Text{Type: "plain_text", Text: "Disqualify"}, ActionID: "disqualify_lead", Value: s.LeadID, Style: "danger"},
				},
			},
		},
	}
}

// CallbackMessage reports the result of an n8n qualification callback.
func CallbackMessage(leadID, status, detail string) Message {
	var text string
	switch status {
	case "qualified":
		text = fmt.Sprintf("✅ Lead qualified: %s", leadID)
	case "disqualified":
		text = fmt.Sprintf("❌ Lead disqualified: %s", leadID)
	default:
		text = fmt.Sprintf("❓ Lead needs more info: %s", leadID)
	}
	if detail != "" {
		text += " | " + detail
	}
	return Message{Text: text}
}
