package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

const maxBodyBytes = 1 << 20

// Request payload schemas. They pin the shape of inbound JSON; semantic
// checks live in the services package.
var payloadSchemas = map[string]string{
	"survey": `{
		"type": "object",
		"required": ["title", "questions"],
		"properties": {
			"title": {"type": "string"},
			"description": {"type": "string"},
			"questions": {
				"type": "array",
				"items": {
					"type": "object",
					"required": ["id"],
					"properties": {
						"id": {"type": "string"},
						"type": {"type": "string"},
						"title": {"type": "string"},
						"required": {"type": "boolean"},
						"options": {"type": ["array", "object", "null"]},
						"minLength": {"type": "integer", "minimum": 0},
						"maxLength": {"type": "integer", "minimum": 0},
						"min": {"type": "number"},
						"max": {"type": "number"},
						"step": {"type": "number"},
						"pattern": {"type": "string"},
						"rows": {"type": "array", "items": {"type": "string"}},
						"columns": {"type": "array", "items": {"type": "string"}}
					}
				}
			}
		}
	}`,
	"responses": `{
		"type": "object",
		"required": ["responses"],
		"properties": {
			"responses": {"type": "object"}
		}
	}`,
	"submission": `{
		"type": "object",
		"required": ["responses"],
		"properties": {
			"responses": {"type": "object"},
			"session_id": {"type": "string", "maxLength": 128},
			"session_token": {"type": "string"},
			"completion_time": {"type": ["integer", "null"], "minimum": 0},
			"respondent_email": {"type": "string", "maxLength": 320}
		}
	}`,
}

// schemaCache caches compiled payload schemas by name.
var schemaCache sync.Map // map[string]*jsonschema.Schema

func compiledSchema(name string) (*jsonschema.Schema, error) {
	if cached, ok := schemaCache.Load(name); ok {
		return cached.(*jsonschema.Schema), nil
	}
	src, ok := payloadSchemas[name]
	if !ok {
		return nil, fmt.Errorf("unknown schema %q", name)
	}
	var def any
	if err := json.Unmarshal([]byte(src), &def); err != nil {
		return nil, fmt.Errorf("parse schema %q: %w", name, err)
	}
	c := jsonschema.NewCompiler()
	url := fmt.Sprintf("schema://%s.json", name)
	if err := c.AddResource(url, def); err != nil {
		return nil, fmt.Errorf("add resource: %w", err)
	}
	compiled, err := c.Compile(url)
	if err != nil {
		return nil, fmt.Errorf("compile: %w", err)
	}
	schemaCache.Store(name, compiled)
	return compiled, nil
}

// errPayload marks client mistakes in the request body.
var errPayload = errors.New("invalid request body")

// decodePayload reads the body, checks it against the named schema and
// decodes it into dst.
func decodePayload(r *http.Request, schema string, dst any) error {
	raw, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes+1))
	if err != nil {
		return fmt.Errorf("%w: %v", errPayload, err)
	}
	if len(raw) > maxBodyBytes {
		return fmt.Errorf("%w: body too large", errPayload)
	}
	var parsed any
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return fmt.Errorf("%w: invalid JSON: %v", errPayload, err)
	}
	compiled, err := compiledSchema(schema)
	if err != nil {
		return err
	}
	if err := compiled.Validate(parsed); err != nil {
		return fmt.Errorf("%w: %v", errPayload, err)
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return fmt.Errorf("%w: %v", errPayload, err)
	}
	return nil
}
