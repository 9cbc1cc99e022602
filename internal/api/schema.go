package api

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// resultSchema describes GET /api/result/{id}. Text fields may be null for
// jobs the service has not finished yet.
const resultSchema = `{
	"type": "object",
	"required": ["status"],
	"properties": {
		"job_id":     {"type": ["string", "null"]},
		"status":     {"type": "string"},
		"title":      {"type": ["string", "null"]},
		"summary":    {"type": ["string", "null"]},
		"transcript": {"type": ["string", "null"]},
		"created_at": {"type": ["string", "null"]}
	}
}`

// statusSchema describes GET /api/status/{id}.
const statusSchema = `{
	"type": "object",
	"required": ["status"],
	"properties": {
		"job_id": {"type": ["string", "null"]},
		"status": {"type": "string"}
	}
}`

// uploadSchema describes a successful POST /api/upload.
const uploadSchema = `{
	"type": "object",
	"required": ["job_id"],
	"properties": {
		"job_id": {"type": "string", "minLength": 1}
	}
}`

// schemas holds the compiled response schemas shared by every client.
type schemas struct {
	result *jsonschema.Schema
	status *jsonschema.Schema
	upload *jsonschema.Schema
}

func compileSchemas() (*schemas, error) {
	compile := func(name, src string) (*jsonschema.Schema, error) {
		compiler := jsonschema.NewCompiler()
		if err := compiler.AddResource(name, strings.NewReader(src)); err != nil {
			return nil, fmt.Errorf("add schema %s: %w", name, err)
		}
		schema, err := compiler.Compile(name)
		if err != nil {
			return nil, fmt.Errorf("compile schema %s: %w", name, err)
		}
		return schema, nil
	}

	var s schemas
	var err error
	if s.result, err = compile("result.json", resultSchema); err != nil {
		return nil, err
	}
	if s.status, err = compile("status.json", statusSchema); err != nil {
		return nil, err
	}
	if s.upload, err = compile("upload.json", uploadSchema); err != nil {
		return nil, err
	}
	return &s, nil
}

// decodeValidated checks body against schema and then decodes it into v.
func decodeValidated(schema *jsonschema.Schema, body []byte, v any) error {
	var doc any
	if err := json.Unmarshal(body, &doc); err != nil {
		return fmt.Errorf("unmarshal body: %w", err)
	}
	if err := schema.Validate(doc); err != nil {
		return fmt.Errorf("body does not match schema: %w", err)
	}
	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("decode body: %w", err)
	}
	return nil
}
