package camunda

import (
	stderrors "errors"
	"testing"

	"econest-automation/internal/common/errors"

	"github.com/stretchr/testify/assert"
)

func TestMapZeebeError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode errors.ErrorCode
	}{
		{"permission denied", stderrors.New("rpc error: code = PermissionDenied desc = permission denied"), errors.ErrCodeAuthenticationFailed},
		{"unavailable", stderrors.New("rpc error: code = Unavailable desc = connection refused"), errors.ErrCodeConfiguration},
		{"other", stderrors.New("something odd"), errors.ErrCodeInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mapped := mapZeebeError(tt.err, "topology")
			assert.Equal(t, tt.wantCode, errors.AsStandard(mapped).Code)
		})
	}
}
