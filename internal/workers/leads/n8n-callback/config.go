// internal/workers/leads/n8n-callback/config.go
package n8ncallback

import "time"

type Config struct {
	// Secret is the shared HMAC key. When empty, AllowUnsigned decides
	// whether callbacks are accepted without a signature.
	Secret        string
	AllowUnsigned bool
	// ReplayTTL is how long a processed body is remembered.
	ReplayTTL time.Duration
	// FollowUpDue offsets the needs_info task from now.
	FollowUpDue time.Duration
	Timeout     time.Duration
}

func LoadConfig() *Config {
	return &Config{
		ReplayTTL:   24 * time.Hour,
		FollowUpDue: 24 * time.Hour,
		Timeout:     30 * time.Second,
	}
}
