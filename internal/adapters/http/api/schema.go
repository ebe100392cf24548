package api

import (
	"fmt"
	"strings"

	"github.com/okian/brokerflow/internal/domain/model"
	"github.com/xeipuuv/gojsonschema"
)

// newPolicyDocument is the JSON schema for POST /api/policies bodies.
const newPolicyDocument = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["client", "premium", "expiryDate"],
  "properties": {
    "client":     {"type": "string", "minLength": 1},
    "industry":   {"type": "string"},
    "type":       {"type": "string"},
    "premium":    {"type": "number", "minimum": 0},
    "expiryDate": {"type": "string", "pattern": "^[0-9]{4}-[0-9]{2}-[0-9]{2}$"},
    "claims":     {"type": "integer", "minimum": 0},
    "sourceId":   {"type": "string"}
  }
}`

type policySchema struct {
	schema *gojsonschema.Schema
}

func newPolicySchema() *policySchema {
	s, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(newPolicyDocument))
	if err != nil {
		panic(fmt.Sprintf("api: invalid policy schema: %v", err))
	}
	return &policySchema{schema: s}
}

// Validate checks body against the schema. Violations are reported as
// model.ErrValidation so they map to 400.
func (p *policySchema) Validate(body []byte) error {
	result, err := p.schema.Validate(gojsonschema.NewBytesLoader(body))
	if err != nil {
		return fmt.Errorf("%w: %w", ErrBadRequest, err)
	}
	if result.Valid() {
		return nil
	}
	errs := make([]string, len(result.Errors()))
	for i, desc := range result.Errors() {
		errs[i] = desc.String()
	}
	return fmt.Errorf("%w: %s", model.ErrValidation, strings.Join(errs, "; "))
}
