// internal/spade/intent.go
package spade

import "strings"

const (
	DetectedConfidence   = 0.8
	UndetectedConfidence = 0.3
)

type PlanStep struct {
	Step    int    `json:"step"`
	Action  string `json:"action"`
	Tool    string `json:"tool"`
	Success string `json:"success"`
}

type IntentPlan struct {
	Detected   bool       `json:"detected"`
	Intent     string     `json:"intent,omitempty"`
	Confidence float64    `json:"confidence"`
	Plan       []PlanStep `json:"plan,omitempty"`
}

type intentRule struct {
	intent   string
	keywords []string
	plan     []PlanStep
}

// intentRules is matched in order against the lower-cased input.
var intentRules = []intentRule{
	{
		intent:   "lead",
		keywords: []string{"lead", "contact", "prospect"},
		plan: []PlanStep{
			{Step: 1, Action: "check existing lead", Tool: "search_leads", Success: "lead found or null"},
			{Step: 2, Action: "fill gaps from knowledge base", Tool: "query_knowledge", Success: "missing fields populated"},
			{Step: 3, Action: "propose next actions", Tool: "suggest_actions", Success: "user approved a next action"},
			{Step: 4, Action: "execute", Tool: "create_lead", Success: "lead saved"},
		},
	},
	{
		intent:   "task",
		keywords: []string{"task", "todo", "reminder"},
		plan: []PlanStep{
			{Step: 1, Action: "check existing task", Tool: "search_tasks", Success: "task found or null"},
			{Step: 2, Action: "fill gaps from knowledge base", Tool: "query_knowledge", Success: "due date and owner resolved"},
			{Step: 3, Action: "propose next actions", Tool: "suggest_actions", Success: "user approved a next action"},
			{Step: 4, Action: "execute", Tool: "create_task", Success: "task saved"},
		},
	},
	{
		intent:   "meeting",
		keywords: []string{"meeting", "schedule", "appointment"},
		plan: []PlanStep{
			{Step: 1, Action: "check existing meeting", Tool: "search_calendar", Success: "conflicts found or null"},
			{Step: 2, Action: "fill gaps from knowledge base", Tool: "query_knowledge", Success: "attendees and time resolved"},
			{Step: 3, Action: "propose next actions", Tool: "suggest_actions", Success: "user approved a time slot"},
			{Step: 4, Action: "execute", Tool: "schedule_meeting", Success: "meeting booked"},
		},
	},
}

// DetectIntent classifies text by keyword substring, first group wins.
func DetectIntent(text string) IntentPlan {
	lower := strings.ToLower(text)

	for _, rule := range intentRules {
		for _, kw := range rule.keywords {
			if strings.Contains(lower, kw) {
				plan := make([]PlanStep, len(rule.plan))
				copy(plan, rule.plan)
				return IntentPlan{
					Detected:   true,
					Intent:     rule.intent,
					Confidence: DetectedConfidence,
					Plan:       plan,
				}
			}
		}
	}

	return IntentPlan{Detected: false, Confidence: UndetectedConfidence}
}
