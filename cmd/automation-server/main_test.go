package main

import (
	"errors"
	"testing"
	"time"

	"econest-automation/internal/common/logger"
	llm "econest-automation/internal/workers/ai/llm-proxy"
	lw "econest-automation/internal/workers/leads/lead-workflow"
	cb "econest-automation/internal/workers/leads/n8n-callback"
	di "econest-automation/internal/workers/spade/detect-intent"
	ep "econest-automation/internal/workers/spade/evaluate-policy"
	"econest-automation/pkg/registry"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestJobHandlers_CoverRegistry(t *testing.T) {
	log := logger.NewNoOpLogger()
	handlers := jobHandlers(
		lw.NewHandler(lw.HandlerOptions{Logger: log}),
		cb.NewHandler(cb.HandlerOptions{Logger: log}),
		llm.NewHandler(nil, log),
		ep.NewHandler(time.Second, nil, log),
		di.NewHandler(time.Second, log),
	)

	activities := registry.Default().Activities
	assert.Len(t, handlers, len(activities))
	for _, a := range activities {
		assert.Contains(t, handlers, a.TaskType)
	}
}

func TestRetryWithBackoff(t *testing.T) {
	calls := 0
	err := retryWithBackoff(func() error {
		calls++
		if calls < 3 {
			return errors.New("not yet")
		}
		return nil
	}, 5, time.Millisecond, zap.NewNop(), "dial")
	assert.NoError(t, err)
	assert.Equal(t, 3, calls)

	err = retryWithBackoff(func() error { return errors.New("down") }, 2, time.Millisecond, zap.NewNop(), "dial")
	assert.ErrorContains(t, err, "dial failed after 2 attempts")
}
