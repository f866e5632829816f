package evaluatepolicy

import (
	"context"
	"strings"
	"testing"
	"time"

	commonerrors "econest-automation/internal/common/errors"
	"econest-automation/internal/common/logger"
	"econest-automation/internal/common/validation"
	"econest-automation/internal/spade"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandler_Execute(t *testing.T) {
	v, err := validation.NewValidator()
	require.NoError(t, err)
	h := NewHandler(time.Second, v, logger.NewTestLogger(t))

	tests := []struct {
		name       string
		req        spade.ActionRequest
		wantKind   string
		wantDetail string
	}{
		{"proceed", spade.ActionRequest{Action: "create_lead", Confidence: 0.9}, "proceed", ""},
		{"clarify", spade.ActionRequest{Action: "create_lead", Confidence: 0.2}, "clarify", ""},
		{
			"confirm with template",
			spade.ActionRequest{Action: "send_email", Confidence: 0.7, Data: map[string]interface{}{"to": "jane@acme.io", "subject": "Hi"}},
			"confirm",
			`Send an email to jane@acme.io with subject "Hi"?`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := h.Execute(context.Background(), &Input{Request: tt.req})
			require.NoError(t, err)
			assert.Equal(t, tt.wantKind, out.Decision.Kind())
			assert.Equal(t, tt.wantDetail, out.ConfirmationDetail)
		})
	}
}

func TestHandler_Execute_RejectsOutOfRangeConfidence(t *testing.T) {
	h := NewHandler(time.Second, nil, logger.NewNoOpLogger())

	_, err := h.Execute(context.Background(), &Input{Request: spade.ActionRequest{Action: "x", Confidence: 1.5}})
	assert.Equal(t, commonerrors.ErrCodeValidationFailed, commonerrors.AsStandard(err).Code)
}

func TestHandler_Execute_SchemaRejectsOversizedAction(t *testing.T) {
	v, err := validation.NewValidator()
	require.NoError(t, err)
	h := NewHandler(time.Second, v, logger.NewNoOpLogger())

	_, err = h.Execute(context.Background(), &Input{Request: spade.ActionRequest{
		Action:     strings.Repeat("x", 65),
		Confidence: 0.9,
	}})

	require.Error(t, err)
	assert.Equal(t, commonerrors.ErrCodeValidationFailed, commonerrors.AsStandard(err).Code)
}
