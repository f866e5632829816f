// internal/common/validation/schema.go
package validation

import (
	"fmt"
	"net/mail"
	"net/url"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// Named JSON schemas for inbound payloads. Required fields are checked by the
// handlers themselves so their error messages stay specific; schemas cover
// types and formats.
const (
	LeadSubmissionSchema = `{
		"type": "object",
		"properties": {
			"name":    {"type": "string", "maxLength": 200},
			"email":   {"type": "string", "maxLength": 320},
			"source":  {"type": "string", "maxLength": 100},
			"notes":   {"type": "string", "maxLength": 10000},
			"company": {"type": "string", "maxLength": 200}
		}
	}`

	CallbackSchema = `{
		"type": "object",
		"properties": {
			"leadId":     {"type": "string", "pattern": "^[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12}$"},
			"status":     {"type": "string"},
			"crmDealUrl": {"type": "string"},
			"enrichment": {"type": "object"},
			"step":       {"type": "string"}
		}
	}`

	ActionRequestSchema = `{
		"type": "object",
		"required": ["action", "confidence"],
		"properties": {
			"action":     {"type": "string", "minLength": 1, "maxLength": 64},
			"confidence": {"type": "number", "minimum": 0, "maximum": 1},
			"reversible": {"type": "boolean"},
			"data":       {"type": "object"},
			"userIntent": {"type": "string", "maxLength": 2000}
		}
	}`
)

// ValidationResult collects schema violations.
type ValidationResult struct {
	Valid  bool              `json:"valid"`
	Errors []ValidationError `json:"errors,omitempty"`
}

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

// Validator holds compiled schemas keyed by name.
type Validator struct {
	schemas map[string]*gojsonschema.Schema
}

// NewValidator compiles the payload schemas used by the webhooks.
func NewValidator() (*Validator, error) {
	v := &Validator{schemas: make(map[string]*gojsonschema.Schema)}
	for name, src := range map[string]string{
		"lead-submission": LeadSubmissionSchema,
		"n8n-callback":    CallbackSchema,
		"action-request":  ActionRequestSchema,
	} {
		if err := v.Register(name, src); err != nil {
			return nil, err
		}
	}
	return v, nil
}

// Register compiles and stores a schema.
func (v *Validator) Register(name, schemaJSON string) error {
	schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(schemaJSON))
	if err != nil {
		return fmt.Errorf("compile schema %s: %w", name, err)
	}
	v.schemas[name] = schema
	return nil
}

// Validate checks a raw JSON document against a named schema.
func (v *Validator) Validate(name string, document []byte) (*ValidationResult, error) {
	schema, ok := v.schemas[name]
	if !ok {
		return nil, fmt.Errorf("unknown schema %q", name)
	}

	result, err := schema.Validate(gojsonschema.NewBytesLoader(document))
	if err != nil {
		return nil, fmt.Errorf("validation error: %w", err)
	}

	out := &ValidationResult{Valid: result.Valid()}
	for _, desc := range result.Errors() {
		out.Errors = append(out.Errors, ValidationError{
			Field:   desc.Field(),
			Message: desc.Description(),
			Code:    strings.ToUpper(desc.Type()),
		})
	}
	return out, nil
}

// ValidateGo checks an already decoded value, such as job variables.
func (v *Validator) ValidateGo(name string, value interface{}) (*ValidationResult, error) {
	schema, ok := v.schemas[name]
	if !ok {
		return nil, fmt.Errorf("unknown schema %q", name)
	}

	result, err := schema.Validate(gojsonschema.NewGoLoader(value))
	if err != nil {
		return nil, fmt.Errorf("validation error: %w", err)
	}

	out := &ValidationResult{Valid: result.Valid()}
	for _, desc := range result.Errors() {
		out.Errors = append(out.Errors, ValidationError{
			Field:   desc.Field(),
			Message: desc.Description(),
			Code:    strings.ToUpper(desc.Type()),
		})
	}
	return out, nil
}

func (vr *ValidationResult) GetErrorMessages() []string {
	messages := make([]string, 0, len(vr.Errors))
	for _, err := range vr.Errors {
		messages = append(messages, fmt.Sprintf("%s: %s", err.Field, err.Message))
	}
	return messages
}

// ValidateEmail reports whether email is a bare RFC 5322 address.
func ValidateEmail(email string) bool {
	addr, err := mail.ParseAddress(email)
	return err == nil && addr.Address == email
}

// ValidateURL accepts absolute http(s) URLs.
func ValidateURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}
