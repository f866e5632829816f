// internal/workers/leads/n8n-callback/models.go
package n8ncallback

type Input struct {
	LeadID     string                 `json:"leadId"`
	Status     string                 `json:"status"`
	CRMDealURL string                 `json:"crmDealUrl,omitempty"`
	Enrichment map[string]interface{} `json:"enrichment,omitempty"`
	Step       string                 `json:"step,omitempty"`
}

type Output struct {
	LeadID  string `json:"leadId"`
	Status  string `json:"status"`
	Message string `json:"message"`
}

// Callback statuses accepted from the qualification workflow.
const (
	StatusQualified    = "qualified"
	StatusDisqualified = "disqualified"
	StatusNeedsInfo    = "needs_info"
)

const (
	SignatureHeader = "x-signature"

	MessageQualified    = "Lead marked as qualified"
	MessageDisqualified = "Lead marked as disqualified"
	MessageNeedsInfo    = "Follow-up task created for missing information"
	MessageDuplicate    = "duplicate callback ignored"

	NeedsInfoTaskTitle = "Request more info"
)
