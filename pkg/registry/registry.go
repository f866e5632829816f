// pkg/registry/registry.go
package registry

import (
	"encoding/json"
	"fmt"
	"os"
)

// LoadRegistry reads a registry exported with Write, e.g. for BPMN tooling.
func LoadRegistry(path string) (*ActivityRegistry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var reg ActivityRegistry
	err = json.Unmarshal(data, &reg)
	return &reg, err
}

// Write exports reg as indented JSON.
func Write(path string, reg *ActivityRegistry) error {
	data, err := json.MarshalIndent(reg, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(data, '\n'), 0o644)
}

// Find returns the activity registered for taskType.
func (r *ActivityRegistry) Find(taskType string) (Activity, error) {
	for _, a := range r.Activities {
		if a.TaskType == taskType {
			return a, nil
		}
	}
	return Activity{}, fmt.Errorf("no activity registered for task type %q", taskType)
}

// Default lists the job workers this service ships.
func Default() *ActivityRegistry {
	return &ActivityRegistry{
		Version:     "1.0.0",
		LastUpdated: "2026-10-01",
		Activities: []Activity{
			{
				ID:          "lead-workflow",
				DisplayName: "Lead Workflow",
				Description: "Upserts a lead by email, scores and routes it, creates the follow-up task and notifies sales.",
				Category:    "leads",
				Version:     "1.0.0",
				TaskType:    "lead-workflow",
				HTTPRoute:   "/functions/v1/lead-workflow",
				ErrorCodes:  []string{"VALIDATION_FAILED", "STORE_FAILURE"},
				Timeout:     "30s",
				Tags:        []string{"leads", "scoring"},
			},
			{
				ID:          "n8n-callback",
				DisplayName: "Qualification Callback",
				Description: "Applies a qualification outcome from the n8n workflow to a stored lead.",
				Category:    "leads",
				Version:     "1.0.0",
				TaskType:    "n8n-callback",
				HTTPRoute:   "/functions/v1/n8n-callback",
				ErrorCodes:  []string{"VALIDATION_FAILED", "AUTHENTICATION_FAILED", "LEAD_NOT_FOUND", "STORE_FAILURE"},
				Timeout:     "30s",
				Tags:        []string{"leads", "webhook"},
			},
			{
				ID:          "ai-chat",
				DisplayName: "AI Chat",
				Description: "Forwards a conversation to the LLM endpoint and returns the reply.",
				Category:    "ai",
				Version:     "1.0.0",
				TaskType:    "ai-chat",
				HTTPRoute:   "/functions/v1/ai-chat",
				ErrorCodes:  []string{"VALIDATION_FAILED", "CONFIGURATION_ERROR", "LLM_TIMEOUT", "LLM_REQUEST_FAILED"},
				Timeout:     "60s",
				Tags:        []string{"ai", "llm"},
			},
			{
				ID:          "generate-sop",
				DisplayName: "Generate SOP",
				Description: "Drafts a standard operating procedure from a title and steps.",
				Category:    "ai",
				Version:     "1.0.0",
				TaskType:    "generate-sop",
				HTTPRoute:   "/functions/v1/generate-sop",
				ErrorCodes:  []string{"VALIDATION_FAILED", "CONFIGURATION_ERROR", "LLM_TIMEOUT", "LLM_REQUEST_FAILED"},
				Timeout:     "60s",
				Tags:        []string{"ai", "llm"},
			},
			{
				ID:          "spade-evaluate-policy",
				DisplayName: "Evaluate Guardrail Policy",
				Description: "Decides whether an agent action proceeds, needs confirmation or needs clarification.",
				Category:    "spade",
				Version:     "1.0.0",
				TaskType:    "spade-evaluate-policy",
				HTTPRoute:   "/functions/v1/spade/evaluate",
				ErrorCodes:  []string{"VALIDATION_FAILED"},
				Timeout:     "5s",
				Tags:        []string{"spade", "guardrail"},
			},
			{
				ID:          "spade-detect-intent",
				DisplayName: "Detect Intent",
				Description: "Classifies free text into lead, task or meeting intent with a canned plan.",
				Category:    "spade",
				Version:     "1.0.0",
				TaskType:    "spade-detect-intent",
				HTTPRoute:   "/functions/v1/spade/intent",
				ErrorCodes:  []string{"VALIDATION_FAILED"},
				Timeout:     "5s",
				Tags:        []string{"spade", "intent"},
			},
		},
	}
}
