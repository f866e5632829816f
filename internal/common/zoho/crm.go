// internal/common/zoho/crm.go
package zoho

import (
	"context"
	"fmt"
	"strings"
	"time"

	commonhttp "econest-automation/internal/common/http"
)

const DefaultBaseURL = "https://www.zohoapis.com/crm/v3"

type CRMClient struct {
	oauthToken string
	baseURL    string
	httpClient *commonhttp.Client
}

// Lead is the Zoho CRM representation of a qualified EcoNest lead.
type Lead struct {
	Email       string `json:"Email"`
	FirstName   string `json:"First_Name,omitempty"`
	LastName    string `json:"Last_Name"`
	Company     string `json:"Company,omitempty"`
	Source      string `json:"Lead_Source,omitempty"`
	Status      string `json:"Lead_Status,omitempty"`
	Description string `json:"Description,omitempty"`
	Website     string `json:"Website,omitempty"`
}

type upsertResponse struct {
	Data []struct {
		Code    string `json:"code"`
		Action  string `json:"action"`
		Details struct {
			ID string `json:"id"`
		} `json:"details"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"data"`
}

func NewCRMClient(baseURL, oauthToken string, timeout time.Duration) *CRMClient {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &CRMClient{
		oauthToken: oauthToken,
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: commonhttp.NewClient(timeout),
	}
}

// UpsertLead creates or updates a Zoho lead keyed on email and returns its id.
func (c *CRMClient) UpsertLead(ctx context.Context, lead *Lead) (string, error) {
	payload := map[string]interface{}{
		"data":                   []Lead{*lead},
		"duplicate_check_fields": []string{"Email"},
	}

	var resp upsertResponse
	err := c.httpClient.PostJSON(ctx, c.baseURL+"/Leads/upsert",
		map[string]string{"Authorization": "Zoho-oauthtoken " + c.oauthToken},
		payload, &resp)
	if err != nil {
		return "", fmt.Errorf("zoho upsert lead: %w", err)
	}

	if len(resp.Data) == 0 {
		return "", fmt.Errorf("no data in response")
	}
	if resp.Data[0].Status != "success" {
		return "", fmt.Errorf("lead upsert failed: %s", resp.Data[0].Message)
	}
	return resp.Data[0].Details.ID, nil
}

// SplitName maps a free-form display name onto Zoho's first/last fields.
// Zoho requires Last_Name, so single-word names land there.
func SplitName(name string) (first, last string) {
	parts := strings.Fields(name)
	switch len(parts) {
	case 0:
		return "", "Unknown"
	case 1:
		return "", parts[0]
	default:
		return strings.Join(parts[:len(parts)-1], " "), parts[len(parts)-1]
	}
}
