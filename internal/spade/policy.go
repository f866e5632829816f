// internal/spade/policy.go

// Package spade holds the guardrail rules that gate assistant actions behind
// confirmation or clarification, and the keyword intent router.
package spade

import (
	"fmt"
	"math"
	"strings"
)

const (
	ClarificationThreshold = 0.6
	ConfirmationThreshold  = 0.8

	ClarificationBoost = 0.2
	MaxConfidence      = 1.0

	DefaultMaxClarificationRounds = 3
)

const (
	reasonClarify = "low confidence requires clarification or user choice"
	reasonConfirm = "irreversible action requires user confirmation"
	reasonProceed = "confidence sufficient to proceed"
)

// FallbackOptions accompany every clarification question.
var FallbackOptions = []string{"Summarize options", "Pull docs", "Escalate to human"}

// ActionRequest describes an action the assistant intends to take.
type ActionRequest struct {
	Action     string                 `json:"action"`
	Confidence float64                `json:"confidence"`
	Reversible bool                   `json:"reversible"`
	Data       map[string]interface{} `json:"data,omitempty"`
	UserIntent string                 `json:"userIntent,omitempty"`
}

// PolicyDecision is the outcome of Evaluate. At most one of the three flags
// is set.
type PolicyDecision struct {
	Proceed            bool     `json:"proceed"`
	NeedsConfirmation  bool     `json:"needsConfirmation"`
	NeedsClarification bool     `json:"needsClarification"`
	Reason             string   `json:"reason"`
	Question           string   `json:"question,omitempty"`
	Options            []string `json:"options,omitempty"`
}

// Kind names the decision for logs and metrics.
func (d PolicyDecision) Kind() string {
	switch {
	case d.NeedsClarification:
		return "clarify"
	case d.NeedsConfirmation:
		return "confirm"
	default:
		return "proceed"
	}
}

// Evaluate applies the thresholds in order; the first match wins.
// It is total: out-of-range confidence is not rejected here, see Validate.
func Evaluate(req ActionRequest) PolicyDecision {
	if req.Confidence < ClarificationThreshold {
		options := make([]string, len(FallbackOptions))
		copy(options, FallbackOptions)
		return PolicyDecision{
			NeedsClarification: true,
			Reason:             reasonClarify,
			Question:           ClarificationQuestion(req),
			Options:            options,
		}
	}

	if !req.Reversible && req.Confidence < ConfirmationThreshold {
		return PolicyDecision{
			NeedsConfirmation: true,
			Reason:            reasonConfirm,
		}
	}

	return PolicyDecision{Proceed: true, Reason: reasonProceed}
}

// ClarificationQuestion builds the question shown when confidence is low.
func ClarificationQuestion(req ActionRequest) string {
	if req.UserIntent != "" {
		return fmt.Sprintf("I need clarification: What specifically would you like me to do regarding \"%s\"?", req.UserIntent)
	}
	return fmt.Sprintf("I'm not confident about \"%s\". What's your preferred next step?", req.Action)
}

// Validate rejects requests the evaluator cannot reason about.
func (r ActionRequest) Validate() error {
	if strings.TrimSpace(r.Action) == "" {
		return fmt.Errorf("action is required")
	}
	if math.IsNaN(r.Confidence) || r.Confidence < 0 || r.Confidence > MaxConfidence {
		return fmt.Errorf("confidence must be within [0, 1], got %v", r.Confidence)
	}
	return nil
}

// boost raises confidence after a clarification answer, capped at 1.0.
func boost(confidence float64) float64 {
	c := confidence + ClarificationBoost
	if c > MaxConfidence {
		return MaxConfidence
	}
	return c
}
