package document

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// JSONSchema returns the JSON-Schema describing the canonical document shape.
func JSONSchema() map[string]any {
	kinds := make([]string, len(Kinds))
	for i, k := range Kinds {
		kinds[i] = string(k)
	}

	bbox := map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"required":             []string{"x0", "y0", "x1", "y1"},
		"properties": map[string]any{
			"x0": map[string]any{"type": "number"},
			"y0": map[string]any{"type": "number"},
			"x1": map[string]any{"type": "number"},
			"y1": map[string]any{"type": "number"},
		},
	}

	item := map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"required":             []string{"type", "text"},
		"properties": map[string]any{
			"type":         map[string]any{"type": "string", "enum": kinds},
			"text":         map[string]any{"type": "string"},
			"bounding_box": bbox,
			"category":     map[string]any{"type": "string"},
			"table_data": map[string]any{
				"type": "array",
				"items": map[string]any{
					"type":  "array",
					"items": map[string]any{"type": "string"},
				},
			},
		},
	}

	page := map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"required":             []string{"page_number", "items"},
		"properties": map[string]any{
			"page_number": map[string]any{"type": "integer", "minimum": 0},
			"items":       map[string]any{"type": "array", "items": item},
		},
	}

	return map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"required":             []string{"source_path", "page_count", "pages"},
		"properties": map[string]any{
			"source_path": map[string]any{"type": "string"},
			"engine":      map[string]any{"type": "string"},
			"page_count":  map[string]any{"type": "integer", "minimum": 0},
			"pages":       map[string]any{"type": "array", "items": page},
		},
	}
}

var (
	schemaOnce sync.Once
	schema     *jsonschema.Schema
	schemaErr  error
)

func compiledSchema() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		b, err := json.Marshal(JSONSchema())
		if err != nil {
			schemaErr = fmt.Errorf("marshal schema: %w", err)
			return
		}
		compiler := jsonschema.NewCompiler()
		if err := compiler.AddResource("document.json", bytes.NewReader(b)); err != nil {
			schemaErr = fmt.Errorf("add schema: %w", err)
			return
		}
		schema, schemaErr = compiler.Compile("document.json")
		if schemaErr != nil {
			schemaErr = fmt.Errorf("compile schema: %w", schemaErr)
		}
	})
	return schema, schemaErr
}

// Validate checks that data is a canonical document JSON.
func Validate(data []byte) error {
	s, err := compiledSchema()
	if err != nil {
		return err
	}
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("unmarshal data: %w", err)
	}
	if err := s.Validate(v); err != nil {
		return fmt.Errorf("json does not match document schema: %w", err)
	}
	return nil
}
