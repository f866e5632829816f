// internal/workers/leads/lead-workflow/models.go
package leadworkflow

import "econest-automation/internal/models"

type Input struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Source  string `json:"source,omitempty"`
	Notes   string `json:"notes,omitempty"`
	Company string `json:"company,omitempty"`
}

type Output struct {
	LeadID string       `json:"leadId"`
	Route  models.Route `json:"route"`
	Score  int          `json:"score"`
	IsNew  bool         `json:"isNew"`
}

// Score weights.
const (
	BaseScore          = 50
	CorporateDomainPts = 20
	WarmSourcePts      = 15
	CompanyPresentPts  = 10
	DetailedNotesPts   = 5
	MaxScore           = 100

	HighRouteThreshold = 70
	DetailedNotesLen   = 100
)

var (
	corporateDomainMarkers = []string{"company", "corp", "inc", "enterprise"}
	warmSources            = map[string]bool{"referral": true, "partner": true, "event": true, "demo": true}
)
