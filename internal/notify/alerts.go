// internal/notify/alerts.go
package notify

import (
	"context"
	"fmt"

	"econest-automation/internal/common/errors"
	"econest-automation/internal/common/logger"
	"econest-automation/internal/common/metrics"
)

// EmailSender is satisfied by the SES client.
type EmailSender interface {
	SendText(ctx context.Context, to, subject, body string) error
}

// SMSSender is satisfied by the SNS client.
type SMSSender interface {
	SendSMS(ctx context.Context, phone, message string) error
}

// UrgentAlerts pages the sales contact about high-priority leads over email
// and SMS. Either channel may be nil.
type UrgentAlerts struct {
	email      EmailSender
	sms        SMSSender
	salesEmail string
	salesPhone string
	logger     logger.Logger
}

func NewUrgentAlerts(email EmailSender, sms SMSSender, salesEmail, salesPhone string, log logger.Logger) *UrgentAlerts {
	return &UrgentAlerts{
		email:      email,
		sms:        sms,
		salesEmail: salesEmail,
		salesPhone: salesPhone,
		logger:     log.WithFields(map[string]interface{}{"component": "urgent-alerts"}),
	}
}

// Send delivers on every configured channel; failures are logged only.
func (a *UrgentAlerts) Send(ctx context.Context, s LeadSummary) {
	if a == nil {
		return
	}

	subject := fmt.Sprintf("🔥 URGENT lead: %s (score %d)", s.Name, s.Score)

	if a.email != nil && a.salesEmail != "" {
		body := fmt.Sprintf("%s\n\nFollow up within 4 hours. Lead id: %s", s.line(), s.LeadID)
		a.record("ses", a.email.SendText(ctx, a.salesEmail, subject, body))
	}

	if a.sms != nil && a.salesPhone != "" {
		a.record("sns", a.sms.SendSMS(ctx, a.salesPhone, subject+" "+s.Email))
	}
}

func (a *UrgentAlerts) record(channel string, err error) {
	if err != nil {
		metrics.NotificationsSent.WithLabelValues(channel, "failed").Inc()
		a.logger.Warn("urgent alert failed", map[string]interface{}{
			"channel": channel,
			"error":   errors.NewNotificationSendFailedError(channel, err),
		})
		return
	}
	metrics.NotificationsSent.WithLabelValues(channel, "sent").Inc()
}
