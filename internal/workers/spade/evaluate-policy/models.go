// internal/workers/spade/evaluate-policy/models.go
package evaluatepolicy

import "econest-automation/internal/spade"

type Input struct {
	Request spade.ActionRequest `json:"request"`
}

type Output struct {
	Decision           spade.PolicyDecision `json:"decision"`
	ConfirmationDetail string               `json:"confirmationDetail,omitempty"`
}
