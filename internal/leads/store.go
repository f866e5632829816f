// internal/leads/store.go
package leads

import (
	"context"
	"strings"

	"econest-automation/internal/models"
)

// Store persists leads and their follow-up tasks. Writes are independent
// statements; callers sequence them without a wrapping transaction.
type Store interface {
	// UpsertLead inserts or merges a submission keyed on normalized email.
	UpsertLead(ctx context.Context, sub models.LeadSubmission) (leadID string, isNew bool, err error)
	UpdateRouting(ctx context.Context, leadID string, status models.LeadStatus, score int, route models.Route) error
	UpdateStatus(ctx context.Context, leadID string, status models.LeadStatus) error
	// MarkQualified sets status qualified, stores the deal URL when given and
	// merges enrichment into the stored document.
	MarkQualified(ctx context.Context, leadID, crmDealURL string, enrichment map[string]interface{}) error
	CreateTask(ctx context.Context, task *models.Task) (string, error)
	GetLead(ctx context.Context, leadID string) (*models.Lead, error)
	Ping(ctx context.Context) error
}

// NormalizeEmail returns the dedupe key for an address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
