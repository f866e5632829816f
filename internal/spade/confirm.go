// internal/spade/confirm.go
package spade

import "fmt"

// confirmationTemplates maps action names to dialog text builders. Only
// consulted when presenting a confirmation to a human.
var confirmationTemplates = map[string]func(data map[string]interface{}) string{
	"send_email": func(d map[string]interface{}) string {
		return fmt.Sprintf("Send an email to %s with subject %q?", field(d, "to", "the recipient"), field(d, "subject", "(no subject)"))
	},
	"delete_data": func(d map[string]interface{}) string {
		return fmt.Sprintf("Permanently delete %s? This cannot be undone.", field(d, "target", "the selected records"))
	},
	"create_lead": func(d map[string]interface{}) string {
		return fmt.Sprintf("Create a new lead for %s (%s)?", field(d, "name", "this contact"), field(d, "email", "no email"))
	},
	"schedule_meeting": func(d map[string]interface{}) string {
		return fmt.Sprintf("Schedule a meeting with %s at %s?", field(d, "attendee", "the attendee"), field(d, "time", "the proposed time"))
	},
	"update_profile": func(d map[string]interface{}) string {
		return fmt.Sprintf("Update %s on your profile?", field(d, "field", "these details"))
	},
}

// ConfirmationDetail returns the canned confirmation prompt for action.
func ConfirmationDetail(action string, data map[string]interface{}) (string, bool) {
	tmpl, ok := confirmationTemplates[action]
	if !ok {
		return "", false
	}
	return tmpl(data), true
}

// ConfirmationPrompt falls back to a generic prompt for unknown actions.
func ConfirmationPrompt(req ActionRequest, decision PolicyDecision) string {
	if detail, ok := ConfirmationDetail(req.Action, req.Data); ok {
		return detail
	}
	return fmt.Sprintf("Proceed with %q? (%s)", req.Action, decision.Reason)
}

func field(data map[string]interface{}, key, fallback string) string {
	if v, ok := data[key]; ok && v != nil {
		if s := fmt.Sprint(v); s != "" {
			return s
		}
	}
	return fallback
}
