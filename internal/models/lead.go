// internal/models/lead.go
package models

import "time"

// LeadStatus is the lifecycle state stored on a lead row.
type LeadStatus string

const (
	LeadStatusNew          LeadStatus = "new"
	LeadStatusNurture      LeadStatus = "nurture"
	LeadStatusQualified    LeadStatus = "qualified"
	LeadStatusDisqualified LeadStatus = "disqualified"
)

// Route is the outcome of scoring an inbound lead.
type Route string

const (
	RouteHigh     Route = "high"
	RouteStandard Route = "standard"
)

type Lead struct {
	ID         string                 `json:"id"`
	Name       string                 `json:"name"`
	Email      string                 `json:"email"`
	Source     string                 `json:"source,omitempty"`
	Notes      string                 `json:"notes,omitempty"`
	Company    string                 `json:"company,omitempty"`
	Status     LeadStatus             `json:"status"`
	Score      int                    `json:"score"`
	Route      Route                  `json:"route,omitempty"`
	CRMDealURL string                 `json:"crmDealUrl,omitempty"`
	Enrichment map[string]interface{} `json:"enrichment,omitempty"`
	CreatedAt  time.Time              `json:"createdAt"`
	UpdatedAt  time.Time              `json:"updatedAt"`
}

// LeadSubmission is the inbound contact payload.
type LeadSubmission struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Source  string `json:"source,omitempty"`
	Notes   string `json:"notes,omitempty"`
	Company string `json:"company,omitempty"`
}
