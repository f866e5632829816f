// internal/workers/ai/llm-proxy/models.go
package llmproxy

type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type ChatInput struct {
	Messages []ChatMessage `json:"messages"`
}

type ChatOutput struct {
	Reply string `json:"reply"`
}

type SOPInput struct {
	Title    string   `json:"title"`
	Industry string   `json:"industry,omitempty"`
	Steps    []string `json:"steps,omitempty"`
	Tone     string   `json:"tone,omitempty"`
}

type SOPOutput struct {
	SOP string `json:"sop"`
}

type completionRequest struct {
	Model       string        `json:"model"`
	Messages    []ChatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
	Temperature float64       `json:"temperature"`
}

type completionResponse struct {
	Choices []struct {
		Message ChatMessage `json:"message"`
	} `json:"choices"`
}

const (
	chatSystemPrompt = "You are EcoNest AI, an assistant for small-business operators. " +
		"Answer concisely, prefer actionable steps, and say so when you are unsure."

	sopSystemPrompt = "You write standard operating procedures. Use numbered steps, " +
		"name an owner for each step, and end with a short checklist."
)

var validRoles = map[string]bool{"system": true, "user": true, "assistant": true}
