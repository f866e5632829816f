package spade

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

// ==========================
// Evaluate
// ==========================

func TestEvaluate_Thresholds(t *testing.T) {
	tests := []struct {
		name       string
		confidence float64
		reversible bool
		want       string
	}{
		{"low confidence reversible", 0.3, true, "clarify"},
		{"low confidence irreversible", 0.59, false, "clarify"},
		{"zero confidence", 0, true, "clarify"},
		{"clarification boundary irreversible", 0.6, false, "confirm"},
		{"clarification boundary reversible", 0.6, true, "proceed"},
		{"mid confidence irreversible", 0.75, false, "confirm"},
		{"confirmation boundary irreversible", 0.8, false, "proceed"},
		{"high confidence irreversible", 0.95, false, "proceed"},
		{"reversible above clarification", 0.61, true, "proceed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := Evaluate(ActionRequest{Action: "send_email", Confidence: tt.confidence, Reversible: tt.reversible})
			assert.Equal(t, tt.want, d.Kind())
		})
	}
}

func TestEvaluate_ProceedExcludesOtherFlags(t *testing.T) {
	for c := 0.0; c <= 1.0; c += 0.05 {
		for _, rev := range []bool{true, false} {
			d := Evaluate(ActionRequest{Action: "x", Confidence: c, Reversible: rev})
			if d.Proceed {
				assert.False(t, d.NeedsConfirmation)
				assert.False(t, d.NeedsClarification)
			}
			assert.False(t, d.NeedsConfirmation && d.NeedsClarification)
		}
	}
}

func TestEvaluate_ClarificationPayload(t *testing.T) {
	d := Evaluate(ActionRequest{Action: "delete_data", Confidence: 0.2})

	assert.True(t, d.NeedsClarification)
	assert.Equal(t, "low confidence requires clarification or user choice", d.Reason)
	assert.Equal(t, `I'm not confident about "delete_data". What's your preferred next step?`, d.Question)
	assert.Equal(t, []string{"Summarize options", "Pull docs", "Escalate to human"}, d.Options)

	d.Options[0] = "mutated"
	assert.Equal(t, "Summarize options", FallbackOptions[0])
}

func TestEvaluate_QuestionUsesUserIntent(t *testing.T) {
	d := Evaluate(ActionRequest{Action: "create_lead", Confidence: 0.1, UserIntent: "add Jane from the expo"})
	assert.Equal(t, `I need clarification: What specifically would you like me to do regarding "add Jane from the expo"?`, d.Question)
}

func TestEvaluate_ConfirmationReason(t *testing.T) {
	d := Evaluate(ActionRequest{Action: "delete_data", Confidence: 0.7, Reversible: false})
	assert.True(t, d.NeedsConfirmation)
	assert.Equal(t, "irreversible action requires user confirmation", d.Reason)
	assert.Empty(t, d.Question)
}

// ==========================
// Validate
// ==========================

func TestActionRequest_Validate(t *testing.T) {
	assert.NoError(t, ActionRequest{Action: "send_email", Confidence: 0}.Validate())
	assert.NoError(t, ActionRequest{Action: "send_email", Confidence: 1}.Validate())
	assert.Error(t, ActionRequest{Action: "", Confidence: 0.5}.Validate())
	assert.Error(t, ActionRequest{Action: "send_email", Confidence: -0.1}.Validate())
	assert.Error(t, ActionRequest{Action: "send_email", Confidence: 1.01}.Validate())
	assert.Error(t, ActionRequest{Action: "send_email", Confidence: math.NaN()}.Validate())
}

func TestBoost(t *testing.T) {
	assert.InDelta(t, 0.6, boost(0.4), 1e-9)
	assert.InDelta(t, 0.6, boost(boost(0.2)), 1e-9)
	assert.Equal(t, 1.0, boost(0.9))

	// No snapping onto a threshold from just below it.
	assert.Less(t, boost(0.599), ConfirmationThreshold)
	assert.Less(t, boost(0.395), ClarificationThreshold)
}

// ==========================
// Confirmation templates
// ==========================

func TestConfirmationDetail(t *testing.T) {
	detail, ok := ConfirmationDetail("send_email", map[string]interface{}{"to": "jane@acme.io", "subject": "Proposal"})
	assert.True(t, ok)
	assert.Equal(t, `Send an email to jane@acme.io with subject "Proposal"?`, detail)

	for _, action := range []string{"send_email", "delete_data", "create_lead", "schedule_meeting", "update_profile"} {
		_, ok := ConfirmationDetail(action, nil)
		assert.True(t, ok, action)
	}

	_, ok = ConfirmationDetail("launch_rocket", nil)
	assert.False(t, ok)
}

func TestConfirmationPrompt_Fallback(t *testing.T) {
	req := ActionRequest{Action: "archive_notes", Confidence: 0.7}
	prompt := ConfirmationPrompt(req, Evaluate(req))
	assert.Equal(t, `Proceed with "archive_notes"? (irreversible action requires user confirmation)`, prompt)
}
