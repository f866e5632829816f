// internal/workers/spade/detect-intent/models.go
package detectintent

import "econest-automation/internal/spade"

type Input struct {
	Text string `json:"text"`
}

type Output struct {
	IntentPlan spade.IntentPlan `json:"intentPlan"`
}
