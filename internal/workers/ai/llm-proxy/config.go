// internal/workers/ai/llm-proxy/config.go
package llmproxy

import "time"

type Config struct {
	GenAIBaseURL string
	APIKey       string
	Model        string
	Timeout      time.Duration
	MaxTokens    int
	Temperature  float64
}

func LoadConfig() *Config {
	return &Config{
		Model:       "gpt-4o-mini",
		Timeout:     30 * time.Second,
		MaxTokens:   800,
		Temperature: 0.4,
	}
}
