// internal/workers/leads/lead-workflow/config.go
package leadworkflow

import "time"

type Config struct {
	Timeout time.Duration
	// StandardTaskDue and UrgentTaskDue offset the follow-up task from now.
	StandardTaskDue time.Duration
	UrgentTaskDue   time.Duration
}

func LoadConfig() *Config {
	return &Config{
		Timeout:         30 * time.Second,
		StandardTaskDue: 48 * time.Hour,
		UrgentTaskDue:   4 * time.Hour,
	}
}
