package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidator_LeadSubmission(t *testing.T) {
	v, err := NewValidator()
	require.NoError(t, err)

	res, err := v.Validate("lead-submission", []byte(`{"name":"Jane","email":"jane@acme.io","source":"demo"}`))
	require.NoError(t, err)
	assert.True(t, res.Valid)

	res, err = v.Validate("lead-submission", []byte(`{"name":42,"email":"jane@acme.io"}`))
	require.NoError(t, err)
	assert.False(t, res.Valid)
	require.NotEmpty(t, res.Errors)
	assert.Equal(t, "name", res.Errors[0].Field)
	assert.Len(t, res.GetErrorMessages(), len(res.Errors))
}

func TestValidator_ActionRequestRange(t *testing.T) {
	v, err := NewValidator()
	require.NoError(t, err)

	res, err := v.ValidateGo("action-request", map[string]interface{}{"action": "send_email", "confidence": 1.4})
	require.NoError(t, err)
	assert.False(t, res.Valid)

	res, err = v.ValidateGo("action-request", map[string]interface{}{"action": "send_email", "confidence": 0.9})
	require.NoError(t, err)
	assert.True(t, res.Valid)
}

func TestValidator_CallbackLeadID(t *testing.T) {
	v, err := NewValidator()
	require.NoError(t, err)

	res, err := v.Validate("n8n-callback", []byte(`{"leadId":"3f2b8c1e-9d4a-4e7b-8a61-2c5d0e9f7a13","status":"qualified"}`))
	require.NoError(t, err)
	assert.True(t, res.Valid)

	res, err = v.Validate("n8n-callback", []byte(`{"leadId":"lead-1","status":"qualified"}`))
	require.NoError(t, err)
	assert.False(t, res.Valid)
}

func TestValidator_UnknownSchema(t *testing.T) {
	v, err := NewValidator()
	require.NoError(t, err)

	_, err = v.Validate("nope", []byte(`{}`))
	assert.Error(t, err)
}

func TestValidateEmail(t *testing.T) {
	assert.True(t, ValidateEmail("jane@acme.io"))
	assert.False(t, ValidateEmail("jane"))
	assert.False(t, ValidateEmail("Jane <jane@acme.io>"))
}

func TestValidateURL(t *testing.T) {
	assert.True(t, ValidateURL("https://crm.zoho.com/deals/123"))
	assert.False(t, ValidateURL("/relative"))
	assert.False(t, ValidateURL("ftp://files.example.com"))
}
