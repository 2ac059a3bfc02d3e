// Package schema holds the per-kind JSON Schemas used by the store's loader
// to validate a raw intent document before it is decoded into a typed
// struct (internal/model). This turns "missing required field" and "wrong
// JSON type" into one uniform diagnostic path instead of ad hoc Go-side
// assertions scattered through the type checker.
package schema

import (
	"fmt"

	"github.com/xeipuuv/gojsonschema"

	"github.com/mazharm/intent-engine/internal/model"
)

// envelope is the schema every intent file must satisfy regardless of kind.
const envelope = `{
  "type": "object",
  "required": ["id", "kind", "name", "spec"],
  "properties": {
    "id": {"type": "string"},
    "kind": {"type": "string"},
    "name": {"type": "string", "minLength": 1},
    "spec": {"type": "object"}
  }
}`

// perKindSpec holds the required-field schema for each kind's spec subtree.
// Required keys are asserted along with their top-level JSON types (and, for
// some keys, minLength/minItems); deeper shape is the type checker's job.
var perKindSpec = map[model.Kind]string{
	model.Type: `{
		"type": "object",
		"required": ["fields"],
		"properties": {"fields": {"type": "object"}}
	}`,
	model.Service: `{
		"type": "object",
		"required": ["protocol", "base_url", "operations"],
		"properties": {
			"protocol": {"type": "string"},
			"base_url": {"type": "string"},
			"operations": {"type": "object"}
		}
	}`,
	model.Workflow: `{
		"type": "object",
		"required": ["input", "output", "steps"],
		"properties": {
			"input": {"type": "string"},
			"output": {"type": "string"},
			"steps": {"type": "array"}
		}
	}`,
	model.Endpoint: `{
		"type": "object",
		"required": ["method", "path", "input", "output", "workflow"],
		"properties": {
			"method": {"type": "string"},
			"path": {"type": "string"},
			"input": {"type": "string"},
			"output": {"type": "string"},
			"workflow": {"type": "string"}
		}
	}`,
	model.ContractTest: `{
		"type": "object",
		"required": ["service", "operation"],
		"properties": {
			"service": {"type": "string"},
			"operation": {"type": "string"}
		}
	}`,
	model.Migration: `{
		"type": "object",
		"required": ["version", "table", "operations"],
		"properties": {
			"version": {"type": "number"},
			"table": {"type": "string", "minLength": 1},
			"operations": {"type": "array", "minItems": 1}
		}
	}`,
}

// ValidateEnvelope checks raw (a decoded map[string]any) against the
// envelope schema common to every kind.
func ValidateEnvelope(raw any) error {
	return validateAgainst(envelope, raw)
}

// ValidateSpec checks a decoded spec subtree against kind's schema. Meta
// kinds (Function, Pipeline, Template, Enum, Module, Command, Trait) have no
// registered schema and are only structurally checked by the type checker;
// ValidateSpec is a no-op for them.
func ValidateSpec(kind model.Kind, spec any) error {
	s, ok := perKindSpec[kind]
	if !ok {
		return nil
	}
	return validateAgainst(s, spec)
}

func validateAgainst(schemaJSON string, raw any) error {
	schemaLoader := gojsonschema.NewStringLoader(schemaJSON)
	docLoader := gojsonschema.NewGoLoader(raw)

	result, err := gojsonschema.Validate(schemaLoader, docLoader)
	if err != nil {
		return fmt.Errorf("schema validation error: %w", err)
	}
	if result.Valid() {
		return nil
	}
	msgs := make([]string, 0, len(result.Errors()))
	for _, e := range result.Errors() {
		msgs = append(msgs, e.String())
	}
	return fmt.Errorf("%v", msgs)
}
